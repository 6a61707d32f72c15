package installer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/gameap-install/internal/cmdexec"
)

func newTestNginxConfigurator(t *testing.T) (*NginxConfigurator, *fakeRunner) {
	t.Helper()
	cfg := testConfig(t)
	cfg.Domain = "panel.example.com"
	runner := &fakeRunner{}
	return NewNginxConfigurator(zerolog.Nop(), runner, cfg, "/run/php/php-fpm.sock"), runner
}

func TestGenerateConfig_RedirectAndTLSBlocks(t *testing.T) {
	n, _ := newTestNginxConfigurator(t)

	vhost, err := n.GenerateConfig()
	require.NoError(t, err)

	// Plaintext block redirects unconditionally.
	assert.Contains(t, vhost, "listen 80;")
	assert.Contains(t, vhost, "return 301 https://$host$request_uri;")

	// TLS block terminates with the generated pair.
	assert.Contains(t, vhost, "listen 443 ssl;")
	assert.Contains(t, vhost, "ssl_certificate     "+n.CertPath())
	assert.Contains(t, vhost, "ssl_certificate_key "+n.KeyPath())

	assert.Contains(t, vhost, "server_name panel.example.com;")
}

func TestGenerateConfig_PHPProxying(t *testing.T) {
	n, _ := newTestNginxConfigurator(t)

	vhost, err := n.GenerateConfig()
	require.NoError(t, err)

	assert.Contains(t, vhost, `location ~ \.php$`)
	assert.Contains(t, vhost, "fastcgi_pass unix:/run/php/php-fpm.sock")
	assert.Contains(t, vhost, "fastcgi_read_timeout 300")
	assert.Contains(t, vhost, "fastcgi_send_timeout 300")
	assert.Contains(t, vhost, "client_max_body_size 100m")
	assert.Contains(t, vhost, "/index.php?$query_string")
}

func TestGenerateConfig_SecurityHeadersAndRoot(t *testing.T) {
	n, _ := newTestNginxConfigurator(t)

	vhost, err := n.GenerateConfig()
	require.NoError(t, err)

	assert.Contains(t, vhost, `add_header X-Frame-Options "SAMEORIGIN" always;`)
	assert.Contains(t, vhost, `add_header X-Content-Type-Options "nosniff" always;`)
	assert.Contains(t, vhost, "root "+filepath.Join(n.cfg.PanelDir, "public")+";")
	assert.Contains(t, vhost, `location ~ /\.ht`)
	assert.Contains(t, vhost, "deny all;")
}

func TestConfigure_WritesEverythingAndRestarts(t *testing.T) {
	n, runner := newTestNginxConfigurator(t)

	// Pre-seed a distro default site that must be disabled.
	enabledDir := filepath.Join(n.cfg.NginxConfigDir, "sites-enabled")
	require.NoError(t, os.MkdirAll(enabledDir, 0755))
	defaultSite := filepath.Join(enabledDir, "default")
	require.NoError(t, os.WriteFile(defaultSite, []byte("server {}"), 0644))

	require.NoError(t, n.Configure(context.Background()))

	// Certificate pair exists at the paths referenced by the vhost.
	assert.FileExists(t, n.CertPath())
	assert.FileExists(t, n.KeyPath())

	vhost, err := os.ReadFile(filepath.Join(n.cfg.NginxConfigDir, "conf.d", "gameap.conf"))
	require.NoError(t, err)
	assert.Contains(t, string(vhost), "ssl_certificate     "+n.CertPath())

	// Default site disabled, proxy restarted.
	assert.NoFileExists(t, defaultSite)
	assert.GreaterOrEqual(t, runner.indexOf("systemctl restart nginx"), 0)
}

func TestConfigure_DryRunLeavesFilesystemUntouched(t *testing.T) {
	cfg := testConfig(t)
	cfg.Domain = "panel.example.com"

	// Pre-seed a default site that a real run would disable.
	enabledDir := filepath.Join(cfg.NginxConfigDir, "sites-enabled")
	require.NoError(t, os.MkdirAll(enabledDir, 0755))
	defaultSite := filepath.Join(enabledDir, "default")
	require.NoError(t, os.WriteFile(defaultSite, []byte("server {}"), 0644))

	runner := cmdexec.New(zerolog.Nop(), true)
	n := NewNginxConfigurator(zerolog.Nop(), runner, cfg, "/run/php/php-fpm.sock")

	require.NoError(t, n.Configure(context.Background()))

	assert.FileExists(t, defaultSite)
	assert.NoFileExists(t, n.CertPath())
	assert.NoFileExists(t, n.KeyPath())
	assert.NoFileExists(t, filepath.Join(cfg.NginxConfigDir, "conf.d", "gameap.conf"))
	assert.NoDirExists(t, cfg.CertDir)
}

func TestConfigure_NoDefaultSitePresent(t *testing.T) {
	n, runner := newTestNginxConfigurator(t)

	require.NoError(t, n.Configure(context.Background()))
	assert.GreaterOrEqual(t, runner.indexOf("systemctl restart nginx"), 0)
}
