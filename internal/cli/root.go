package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/edvin/gameap-install/internal/cmdexec"
	"github.com/edvin/gameap-install/internal/config"
	"github.com/edvin/gameap-install/internal/installer"
	"github.com/edvin/gameap-install/internal/logging"
	"github.com/edvin/gameap-install/internal/platform"
)

// Execute runs the installer command. Precondition failures and failed
// phases both surface here as a nonzero exit.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		domain       string
		manifestPath string
		logLevel     string
		dryRun       bool
	)

	cmd := &cobra.Command{
		Use:   "gameap-install",
		Short: "Install the GameAP game-server management panel on this host",
		Long: `gameap-install provisions a fresh Debian- or RHEL-family host with the
GameAP panel: OS packages, MariaDB, the panel release, an nginx virtual
host with a self-signed certificate, and the schedule/queue services.

The run is one-shot and strictly ordered. A failed step aborts the
install and leaves earlier steps' changes in place.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Defaults()
			if manifestPath != "" {
				loaded, err := installer.LoadManifest(manifestPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}

			runID := platform.NewRunID()
			logger := logging.NewLogger(cfg.LogLevel, runID)
			runner := cmdexec.New(logger, dryRun)

			seq := installer.New(logger, runner, cfg, installer.Options{
				Domain: pickDomain(domain, cfg),
			})

			if err := seq.Run(cmd.Context()); err != nil {
				logger.Error().Err(err).Msg("installation failed")
				return err
			}

			if dryRun {
				logger.Info().Msg("dry run complete, manifest not written")
				return nil
			}

			if err := installer.WriteManifest(cfg, filepath.Join(cfg.PanelDir, "install.yaml")); err != nil {
				// The install itself succeeded; a manifest write failure is
				// not worth a nonzero exit.
				logger.Warn().Err(err).Msg("could not record install manifest")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "panel domain or IP (skips the prompt)")
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "install manifest to preseed the run")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level (default info)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log external commands instead of executing them")

	return cmd
}

// pickDomain prefers the flag, then a manifest-provided domain.
func pickDomain(flag string, cfg *config.Install) string {
	if flag != "" {
		return flag
	}
	return cfg.Domain
}
