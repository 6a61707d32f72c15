package installer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/edvin/gameap-install/internal/cmdexec"
	"github.com/edvin/gameap-install/internal/crypto"
)

// validNameRe matches only alphanumeric characters and underscores.
// This prevents SQL injection in database/user names.
var validNameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// DatabaseProvisioner hardens the MariaDB server and creates the panel's
// database and restricted user via the mysql CLI.
type DatabaseProvisioner struct {
	logger zerolog.Logger
	runner cmdexec.Runner
}

// NewDatabaseProvisioner creates a DatabaseProvisioner.
func NewDatabaseProvisioner(logger zerolog.Logger, runner cmdexec.Runner) *DatabaseProvisioner {
	return &DatabaseProvisioner{
		logger: logger.With().Str("component", "database-provisioner").Logger(),
		runner: runner,
	}
}

// promptAnswer is one exchange of the interactive hardening dialogue. The
// exchange is modeled explicitly instead of a bare positional answer blob so
// the scripted conversation can be checked against the tool's real prompts.
type promptAnswer struct {
	Prompt string
	Answer string
}

// HardeningDialogue returns the ordered answers fed to
// mysql_secure_installation: set the root password to the generated secret,
// remove anonymous users, disable remote root login, drop the test database,
// reload privileges.
func HardeningDialogue(rootPassword string) []promptAnswer {
	return []promptAnswer{
		{"Enter current password for root (enter for none)", ""},
		{"Switch to unix_socket authentication", "n"},
		{"Change the root password?", "y"},
		{"New password", rootPassword},
		{"Re-enter new password", rootPassword},
		{"Remove anonymous users?", "y"},
		{"Disallow root login remotely?", "y"},
		{"Remove test database and access to it?", "y"},
		{"Reload privilege tables now?", "y"},
	}
}

// Harden runs the server's interactive hardening routine with the scripted
// dialogue on stdin.
func (p *DatabaseProvisioner) Harden(ctx context.Context, rootPassword string) error {
	p.logger.Info().Msg("hardening database server")

	var stdin strings.Builder
	for _, pa := range HardeningDialogue(rootPassword) {
		stdin.WriteString(pa.Answer)
		stdin.WriteByte('\n')
	}

	_, err := p.runner.RunInput(ctx, stdin.String(), "mysql_secure_installation")
	if err != nil {
		return fmt.Errorf("harden database server: %w", err)
	}
	return nil
}

// Provision creates the database, a user restricted to local-loopback
// connections, grants full privileges on that database, and flushes the
// grant tables. The statements are not idempotent: re-running the installer
// fails on the existing database, matching the one-shot install contract.
func (p *DatabaseProvisioner) Provision(ctx context.Context, rootPassword, name, user, password string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := validateName(user); err != nil {
		return err
	}

	p.logger.Info().
		Str("database", name).
		Str("user", user).
		Msg("provisioning panel database")

	// The password hash keeps the plaintext out of the statement.
	hash := crypto.MysqlNativePasswordHash(password)

	statements := []string{
		fmt.Sprintf("CREATE DATABASE `%s`", name),
		fmt.Sprintf("CREATE USER '%s'@'localhost' IDENTIFIED WITH mysql_native_password AS '%s'", user, hash),
		fmt.Sprintf("GRANT ALL PRIVILEGES ON `%s`.* TO '%s'@'localhost'", name, user),
		"FLUSH PRIVILEGES",
	}

	for _, sql := range statements {
		if err := p.execSQL(ctx, rootPassword, sql); err != nil {
			return err
		}
	}
	return nil
}

// execSQL runs one statement through the mysql CLI as root.
func (p *DatabaseProvisioner) execSQL(ctx context.Context, rootPassword, sql string) error {
	p.logger.Debug().Str("sql", sql).Msg("executing mysql statement")

	args := []string{"-uroot", fmt.Sprintf("-p%s", rootPassword), "-e", sql}
	if _, err := p.runner.Run(ctx, "mysql", args...); err != nil {
		return fmt.Errorf("mysql statement failed: %w", err)
	}
	return nil
}

// validateName checks that a name contains only safe characters.
func validateName(name string) error {
	if !validNameRe.MatchString(name) {
		return fmt.Errorf("invalid name %q: only alphanumeric and underscore allowed", name)
	}
	return nil
}

// provisionDatabase is the sequencer's database phase. The database service
// is assumed running because the packages phase enabled it; that ordering is
// the only precondition check.
func (s *Sequencer) provisionDatabase(ctx context.Context) error {
	p := NewDatabaseProvisioner(s.logger, s.runner)

	if err := p.Harden(ctx, s.secrets.DBPassword); err != nil {
		return err
	}
	return p.Provision(ctx, s.secrets.DBPassword, s.cfg.DBName, s.cfg.DBUser, s.secrets.DBPassword)
}
