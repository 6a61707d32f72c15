package installer

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveAdminEmail(t *testing.T) {
	tests := []struct {
		domain string
		want   string
	}{
		{"panel.example.com", "admin@panel.example.com"},
		{"www.panel.example.com", "admin@panel.example.com"},
		{"wwwpanel.example.com", "admin@wwwpanel.example.com"},
		{"www.www.example.com", "admin@www.example.com"},
		{"localhost", "admin@localhost"},
		{"192.0.2.10", "admin@192.0.2.10"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DeriveAdminEmail(tt.domain), "domain %q", tt.domain)
	}
}

func TestCollect_EmptyInputUsesDefault(t *testing.T) {
	cfg := testConfig(t)
	seq, _ := newTestSequencer(t, cfg, &fakeRunner{}, Options{
		Stdin: strings.NewReader("\n"),
	})

	require.NoError(t, seq.collect(context.Background()))

	assert.Equal(t, "localhost", cfg.Domain)
	assert.Equal(t, "admin@localhost", cfg.AdminEmail)
	assert.NotEmpty(t, cfg.LocalIP)
}

func TestCollect_PromptedDomain(t *testing.T) {
	cfg := testConfig(t)
	seq, _ := newTestSequencer(t, cfg, &fakeRunner{}, Options{
		Stdin: strings.NewReader("www.panel.example.com\n"),
	})

	require.NoError(t, seq.collect(context.Background()))

	assert.Equal(t, "www.panel.example.com", cfg.Domain)
	assert.Equal(t, "admin@panel.example.com", cfg.AdminEmail)
}

func TestCollect_PreseededDomainSkipsPrompt(t *testing.T) {
	cfg := testConfig(t)
	out := &strings.Builder{}
	seq := New(zerolog.Nop(), &fakeRunner{}, cfg, Options{
		Domain: "panel.example.com",
		Stdin:  strings.NewReader("ignored.example.com\n"),
		Stdout: out,
	})

	require.NoError(t, seq.collect(context.Background()))

	assert.Equal(t, "panel.example.com", cfg.Domain)
	assert.NotContains(t, out.String(), "Panel domain")
}

func TestCollect_EOFWithoutInput(t *testing.T) {
	cfg := testConfig(t)
	seq, _ := newTestSequencer(t, cfg, &fakeRunner{}, Options{
		Stdin: strings.NewReader(""),
	})

	require.NoError(t, seq.collect(context.Background()))
	assert.Equal(t, "localhost", cfg.Domain)
}

func TestGenerateSecrets(t *testing.T) {
	cfg := testConfig(t)
	seq, _ := newTestSequencer(t, cfg, &fakeRunner{}, Options{})

	require.NoError(t, seq.generateSecrets(context.Background()))

	assert.Len(t, seq.secrets.DBPassword, 64)
	assert.Len(t, seq.secrets.AdminPassword, 16)
	assert.NotEqual(t, seq.secrets.DBPassword, seq.secrets.AdminPassword)
}
