package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneratePassword_Length(t *testing.T) {
	for _, n := range []int{16, 64} {
		assert.Len(t, GeneratePassword(n), n)
	}
}

func TestGeneratePassword_Alphabet(t *testing.T) {
	pw := GeneratePassword(256)
	for _, r := range pw {
		isLower := r >= 'a' && r <= 'z'
		isUpper := r >= 'A' && r <= 'Z'
		isDigit := r >= '0' && r <= '9'
		assert.True(t, isLower || isUpper || isDigit, "unexpected character %q", r)
	}
}

func TestGeneratePassword_CoversWholeAlphabet(t *testing.T) {
	// Rejection sampling keeps the tail of the alphabet as likely as the
	// head. Over ~10k draws every character appears with near certainty.
	seen := make(map[rune]bool)
	for i := 0; i < 40; i++ {
		for _, r := range GeneratePassword(256) {
			seen[r] = true
		}
	}
	assert.Len(t, seen, len(passwordAlphabet))
}

func TestGeneratePassword_IndependentCallsDiffer(t *testing.T) {
	assert.NotEqual(t, GeneratePassword(64), GeneratePassword(64))
	assert.NotEqual(t, GeneratePassword(16), GeneratePassword(16))
}

func TestMysqlNativePasswordHash(t *testing.T) {
	// Known vector: SELECT PASSWORD('password') in MySQL.
	assert.Equal(t, "*2470C0C06DEE42FD1618BB99005ADCA2EC9D1E19", MysqlNativePasswordHash("password"))
}

func TestMysqlNativePasswordHash_Format(t *testing.T) {
	h := MysqlNativePasswordHash(GeneratePassword(64))
	assert.Len(t, h, 41)
	assert.Equal(t, byte('*'), h[0])
}
