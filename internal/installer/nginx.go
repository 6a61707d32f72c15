package installer

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"text/template"

	"github.com/rs/zerolog"

	"github.com/edvin/gameap-install/internal/cmdexec"
	"github.com/edvin/gameap-install/internal/config"
)

const vhostTemplate = `server {
    listen 80;
    listen [::]:80;
    server_name {{ .Domain }};

    return 301 https://$host$request_uri;
}

server {
    listen 443 ssl;
    listen [::]:443 ssl;
    server_name {{ .Domain }};

    ssl_certificate     {{ .CertPath }};
    ssl_certificate_key {{ .KeyPath }};

    add_header X-Frame-Options "SAMEORIGIN" always;
    add_header X-Content-Type-Options "nosniff" always;
    add_header X-XSS-Protection "1; mode=block" always;
    add_header Referrer-Policy "no-referrer-when-downgrade" always;

    root {{ .RootDir }};
    index index.php;

    client_max_body_size 100m;

    location / {
        try_files $uri $uri/ /index.php?$query_string;
    }

    location ~ \.php$ {
        include fastcgi_params;
        fastcgi_pass unix:{{ .FPMSocket }};
        fastcgi_param SCRIPT_FILENAME $document_root$fastcgi_script_name;
        fastcgi_read_timeout 300;
        fastcgi_send_timeout 300;
    }

    location ~ /\.ht {
        deny all;
    }
}
`

var vhostTmpl = template.Must(template.New("vhost").Parse(vhostTemplate))

// NginxConfigurator renders the panel virtual host, generates the bootstrap
// certificate pair, and swaps the site into the running proxy.
type NginxConfigurator struct {
	logger    zerolog.Logger
	runner    cmdexec.Runner
	cfg       *config.Install
	fpmSocket string
}

// NewNginxConfigurator creates an NginxConfigurator.
func NewNginxConfigurator(logger zerolog.Logger, runner cmdexec.Runner, cfg *config.Install, fpmSocket string) *NginxConfigurator {
	return &NginxConfigurator{
		logger:    logger.With().Str("component", "nginx-configurator").Logger(),
		runner:    runner,
		cfg:       cfg,
		fpmSocket: fpmSocket,
	}
}

// CertPath returns where the self-signed certificate is written.
func (n *NginxConfigurator) CertPath() string {
	return filepath.Join(n.cfg.CertDir, "gameap.crt")
}

// KeyPath returns where the private key is written.
func (n *NginxConfigurator) KeyPath() string {
	return filepath.Join(n.cfg.CertDir, "gameap.key")
}

type vhostData struct {
	Domain    string
	CertPath  string
	KeyPath   string
	RootDir   string
	FPMSocket string
}

// GenerateConfig renders the virtual host definition: a plaintext block that
// redirects to HTTPS and a TLS block that terminates and proxies PHP
// requests to the local process manager.
func (n *NginxConfigurator) GenerateConfig() (string, error) {
	data := vhostData{
		Domain:    n.cfg.Domain,
		CertPath:  n.CertPath(),
		KeyPath:   n.KeyPath(),
		RootDir:   filepath.Join(n.cfg.PanelDir, "public"),
		FPMSocket: n.fpmSocket,
	}

	var buf bytes.Buffer
	if err := vhostTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render vhost template: %w", err)
	}
	return buf.String(), nil
}

// WriteCertificate generates the self-signed pair and writes it under the
// certificate directory.
func (n *NginxConfigurator) WriteCertificate() error {
	certPEM, keyPEM, err := GenerateSelfSignedCert(n.cfg.Domain)
	if err != nil {
		return err
	}

	if err := n.runner.MkdirAll(n.cfg.CertDir, 0755); err != nil {
		return fmt.Errorf("create cert dir: %w", err)
	}

	n.logger.Info().
		Str("cert", n.CertPath()).
		Str("key", n.KeyPath()).
		Msg("writing self-signed certificate pair")

	if err := n.runner.WriteFile(n.CertPath(), certPEM, 0644); err != nil {
		return fmt.Errorf("write certificate: %w", err)
	}
	if err := n.runner.WriteFile(n.KeyPath(), keyPEM, 0600); err != nil {
		return fmt.Errorf("write key: %w", err)
	}
	return nil
}

// Configure writes the certificate pair and the virtual host, disables any
// pre-existing default site, and restarts the proxy. The restart gap is
// accepted and unhandled.
func (n *NginxConfigurator) Configure(ctx context.Context) error {
	if err := n.WriteCertificate(); err != nil {
		return err
	}

	vhost, err := n.GenerateConfig()
	if err != nil {
		return err
	}

	confDir := filepath.Join(n.cfg.NginxConfigDir, "conf.d")
	if err := n.runner.MkdirAll(confDir, 0755); err != nil {
		return fmt.Errorf("create nginx conf dir: %w", err)
	}

	confPath := filepath.Join(confDir, "gameap.conf")
	n.logger.Info().Str("path", confPath).Msg("writing panel virtual host")
	if err := n.runner.WriteFile(confPath, []byte(vhost), 0644); err != nil {
		return fmt.Errorf("write vhost: %w", err)
	}

	// Debian ships a catch-all default site that would shadow the panel.
	defaultSite := filepath.Join(n.cfg.NginxConfigDir, "sites-enabled", "default")
	if err := n.runner.Remove(defaultSite); err != nil {
		return fmt.Errorf("disable default site: %w", err)
	}

	if _, err := n.runner.Run(ctx, "systemctl", "restart", "nginx"); err != nil {
		return fmt.Errorf("restart nginx: %w", err)
	}
	return nil
}

// configureNginx is the sequencer's reverse-proxy phase.
func (s *Sequencer) configureNginx(ctx context.Context) error {
	plan, err := planFor(s.os.Family)
	if err != nil {
		return err
	}
	return NewNginxConfigurator(s.logger, s.runner, s.cfg, plan.fpmSocket).Configure(ctx)
}
