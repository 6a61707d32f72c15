package crypto

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GeneratePassword returns a random password of exactly length characters
// drawn from an alphanumeric alphabet. Each call reads fresh entropy from
// crypto/rand; there is no seed to reuse across installations.
func GeneratePassword(length int) string {
	// 256 is not a multiple of the alphabet size; bytes at or past the
	// largest multiple are rejected to keep every character equally likely.
	const limit = 256 - 256%len(passwordAlphabet)

	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand: " + err.Error())
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, passwordAlphabet[int(b)%len(passwordAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out)
}

// MysqlNativePasswordHash computes the mysql_native_password hash:
// "*" + HEX(SHA1(SHA1(password))). Passing the hash via IDENTIFIED ... AS
// keeps the plaintext out of the statement handed to the mysql CLI.
func MysqlNativePasswordHash(password string) string {
	first := sha1.Sum([]byte(password))
	second := sha1.Sum(first[:])
	return "*" + strings.ToUpper(hex.EncodeToString(second[:]))
}
