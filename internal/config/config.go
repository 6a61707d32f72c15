package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

// DefaultDomain is substituted when the operator provides no domain or IP.
const DefaultDomain = "localhost"

// Install is the immutable installation request. It is built once by the
// collector and secret-generation phases and passed by reference into every
// subsequent phase; nothing mutates it after that.
type Install struct {
	// Operator-supplied (or defaulted) values.
	Domain     string `yaml:"domain" validate:"required"`
	AdminEmail string `yaml:"admin_email" validate:"required"`
	LocalIP    string `yaml:"local_ip"`

	// Fixed policy for this installer.
	Timezone string `yaml:"timezone" validate:"required"`
	TLSMode  string `yaml:"tls_mode" validate:"required,oneof=selfsigned none"`
	Firewall bool   `yaml:"firewall"`

	// Filesystem layout. Overridable through the environment, mainly for
	// tests; deliberately not exposed as flags.
	PanelDir       string `yaml:"panel_dir" validate:"required"`
	NginxConfigDir string `yaml:"-" validate:"required"`
	CertDir        string `yaml:"-" validate:"required"`
	SystemdUnitDir string `yaml:"-" validate:"required"`

	// Database provisioning values. The passwords live in installer.Secrets,
	// never here.
	DBName string `yaml:"db_name" validate:"required"`
	DBUser string `yaml:"db_user" validate:"required"`

	// Admin account descriptor. Ownership of the resulting account transfers
	// entirely to the installed panel.
	AdminUsername  string `yaml:"admin_username" validate:"required"`
	AdminFirstName string `yaml:"admin_first_name"`
	AdminLastName  string `yaml:"admin_last_name"`

	// Release archive and composer bootstrap endpoints.
	ReleaseURL  string `yaml:"release_url" validate:"required,url"`
	ComposerURL string `yaml:"composer_url" validate:"required,url"`

	LogLevel string `yaml:"-"`
}

// Defaults returns an Install populated with the fixed installer policy.
// Domain, AdminEmail and LocalIP are filled in by the collector phase.
func Defaults() *Install {
	return &Install{
		Timezone:       "UTC",
		TLSMode:        "selfsigned",
		Firewall:       false,
		PanelDir:       getEnv("GAMEAP_PANEL_DIR", "/var/www/gameap"),
		NginxConfigDir: getEnv("NGINX_CONFIG_DIR", "/etc/nginx"),
		CertDir:        getEnv("CERT_DIR", "/etc/ssl/gameap"),
		SystemdUnitDir: getEnv("SYSTEMD_UNIT_DIR", "/etc/systemd/system"),
		DBName:         "gameap",
		DBUser:         "gameap",
		AdminUsername:  "admin",
		AdminFirstName: "Admin",
		AdminLastName:  "GameAP",
		ReleaseURL:     getEnv("GAMEAP_RELEASE_URL", "https://packages.gameap.com/gameap/latest.tar.gz"),
		ComposerURL:    getEnv("COMPOSER_INSTALLER_URL", "https://getcomposer.org/installer"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks that the installation request is complete. The domain
// itself is free-form: any non-empty string is accepted, reachability and
// syntax are the operator's problem.
func (c *Install) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid installation request: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
