package installer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/edvin/gameap-install/internal/cmdexec"
	"github.com/edvin/gameap-install/internal/config"
)

// AppInstaller downloads the panel release and drives the panel's own
// configuration CLI. Every artisan invocation here is a black-box external
// contract: the installer only populates its flags.
type AppInstaller struct {
	logger  zerolog.Logger
	runner  cmdexec.Runner
	cfg     *config.Install
	secrets Secrets
	webUser string
}

// NewAppInstaller creates an AppInstaller.
func NewAppInstaller(logger zerolog.Logger, runner cmdexec.Runner, cfg *config.Install, secrets Secrets, webUser string) *AppInstaller {
	return &AppInstaller{
		logger:  logger.With().Str("component", "app-installer").Logger(),
		runner:  runner,
		cfg:     cfg,
		secrets: secrets,
		webUser: webUser,
	}
}

const releaseArchive = "/tmp/gameap.tar.gz"

// Install performs the application phase in strict order. A failure at any
// step aborts; partially extracted files are left in place.
func (a *AppInstaller) Install(ctx context.Context) error {
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"download release archive", a.download},
		{"extract release archive", a.extract},
		{"open runtime directories", a.openRuntimeDirs},
		{"install composer", a.installComposer},
		{"resolve dependencies", a.composerInstall},
		{"write environment file", a.writeEnv},
		{"generate application key", a.generateKey},
		{"configure environment", a.setupEnvironment},
		{"configure database connection", a.setupDatabase},
		{"create administrator account", a.setupAdmin},
		{"run migrations", a.migrate},
		{"set file ownership", a.chown},
	}

	for _, step := range steps {
		a.logger.Info().Str("step", step.name).Msg("application install step")
		if err := step.run(ctx); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return nil
}

func (a *AppInstaller) download(ctx context.Context) error {
	_, err := a.runner.Run(ctx, "curl", "-fsSL", "-o", releaseArchive, a.cfg.ReleaseURL)
	return err
}

func (a *AppInstaller) extract(ctx context.Context) error {
	parent := filepath.Dir(a.cfg.PanelDir)
	if _, err := a.runner.Run(ctx, "mkdir", "-p", parent); err != nil {
		return err
	}
	_, err := a.runner.Run(ctx, "tar", "-xzf", releaseArchive, "-C", parent)
	return err
}

// openRuntimeDirs gives the panel's runtime broad access to the two
// directories it writes at request time.
func (a *AppInstaller) openRuntimeDirs(ctx context.Context) error {
	for _, dir := range []string{"storage", "bootstrap/cache"} {
		path := filepath.Join(a.cfg.PanelDir, dir)
		if _, err := a.runner.Run(ctx, "chmod", "-R", "0777", path); err != nil {
			return err
		}
	}
	return nil
}

func (a *AppInstaller) installComposer(ctx context.Context) error {
	script := fmt.Sprintf("curl -sS %s | php -- --install-dir=/usr/local/bin --filename=composer", a.cfg.ComposerURL)
	_, err := a.runner.Shell(ctx, script)
	return err
}

func (a *AppInstaller) composerInstall(ctx context.Context) error {
	_, err := a.runner.Run(ctx, "composer", "install",
		"--no-dev", "--optimize-autoloader",
		"--working-dir="+a.cfg.PanelDir)
	return err
}

func (a *AppInstaller) writeEnv(ctx context.Context) error {
	_, err := a.runner.Run(ctx, "cp",
		filepath.Join(a.cfg.PanelDir, ".env.example"),
		filepath.Join(a.cfg.PanelDir, ".env"))
	return err
}

func (a *AppInstaller) generateKey(ctx context.Context) error {
	return a.artisan(ctx, "key:generate", "--force")
}

func (a *AppInstaller) setupEnvironment(ctx context.Context) error {
	return a.artisan(ctx, "setup:environment",
		"--url=https://"+a.cfg.Domain,
		"--timezone="+a.cfg.Timezone,
		"--cache-driver=redis",
		"--session-driver=redis",
		"--queue-driver=redis")
}

func (a *AppInstaller) setupDatabase(ctx context.Context) error {
	return a.artisan(ctx, "setup:database",
		"--host=localhost",
		"--database="+a.cfg.DBName,
		"--username="+a.cfg.DBUser,
		"--password="+a.secrets.DBPassword)
}

func (a *AppInstaller) setupAdmin(ctx context.Context) error {
	return a.artisan(ctx, "setup:admin",
		"--email="+a.cfg.AdminEmail,
		"--username="+a.cfg.AdminUsername,
		"--first-name="+a.cfg.AdminFirstName,
		"--last-name="+a.cfg.AdminLastName,
		"--password="+a.secrets.AdminPassword)
}

func (a *AppInstaller) migrate(ctx context.Context) error {
	return a.artisan(ctx, "migrate", "--seed", "--force")
}

func (a *AppInstaller) chown(ctx context.Context) error {
	owner := fmt.Sprintf("%s:%s", a.webUser, a.webUser)
	_, err := a.runner.Run(ctx, "chown", "-R", owner, a.cfg.PanelDir)
	return err
}

// artisan invokes the panel's configuration CLI.
func (a *AppInstaller) artisan(ctx context.Context, args ...string) error {
	full := append([]string{filepath.Join(a.cfg.PanelDir, "artisan")}, args...)
	_, err := a.runner.Run(ctx, "php", full...)
	return err
}

// installApplication is the sequencer's application phase.
func (s *Sequencer) installApplication(ctx context.Context) error {
	plan, err := planFor(s.os.Family)
	if err != nil {
		return err
	}
	return NewAppInstaller(s.logger, s.runner, s.cfg, s.secrets, plan.webUser).Install(ctx)
}
