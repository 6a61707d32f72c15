package installer

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/rs/zerolog"

	"github.com/edvin/gameap-install/internal/cmdexec"
	"github.com/edvin/gameap-install/internal/config"
)

// workerUnitTemplate is the queue worker's systemd unit. This is the only
// component in the system with an explicit failure policy: auto-restart with
// a 5-second backoff, capped at 30 restarts per 180 seconds.
const workerUnitTemplate = `[Unit]
Description=GameAP queue worker
After=network.target mariadb.service

[Service]
Type=simple
User={{ .WebUser }}
Group={{ .WebUser }}
WorkingDirectory={{ .PanelDir }}

ExecStart=/usr/bin/php {{ .PanelDir }}/artisan queue:work --queues=high,default,low --sleep=3 --tries=3

Restart=always
RestartSec=5
StartLimitIntervalSec=180
StartLimitBurst=30

StandardOutput=journal
StandardError=journal
SyslogIdentifier=gameap-worker

[Install]
WantedBy=multi-user.target
`

var workerUnitTmpl = template.Must(template.New("worker").Parse(workerUnitTemplate))

const workerUnitName = "gameap-worker.service"

// SchedulerRegistrar registers the panel's periodic task in the crontab and
// installs the queue worker as a managed service.
type SchedulerRegistrar struct {
	logger zerolog.Logger
	runner cmdexec.Runner
	cfg    *config.Install
}

// NewSchedulerRegistrar creates a SchedulerRegistrar.
func NewSchedulerRegistrar(logger zerolog.Logger, runner cmdexec.Runner, cfg *config.Install) *SchedulerRegistrar {
	return &SchedulerRegistrar{
		logger: logger.With().Str("component", "scheduler-registrar").Logger(),
		runner: runner,
		cfg:    cfg,
	}
}

// CronLine returns the periodic task entry: the panel's task runner every
// minute with output discarded.
func (r *SchedulerRegistrar) CronLine() string {
	return fmt.Sprintf("* * * * * php %s/artisan schedule:run >> /dev/null 2>&1", r.cfg.PanelDir)
}

// RegisterCron appends the task entry to the root crontab. An identical
// pre-existing entry is skipped so a re-run does not duplicate it.
func (r *SchedulerRegistrar) RegisterCron(ctx context.Context) error {
	line := r.CronLine()

	existing, _ := r.runner.Shell(ctx, "crontab -l 2>/dev/null")
	if strings.Contains(existing.Output, line) {
		r.logger.Info().Msg("cron entry already present, skipping")
		return nil
	}

	r.logger.Info().Str("entry", line).Msg("registering cron entry")

	script := fmt.Sprintf("(crontab -l 2>/dev/null; echo %q) | crontab -", line)
	if _, err := r.runner.Shell(ctx, script); err != nil {
		return fmt.Errorf("register cron entry: %w", err)
	}
	return nil
}

type workerUnitData struct {
	WebUser  string
	PanelDir string
}

// RenderWorkerUnit renders the queue worker's unit file.
func (r *SchedulerRegistrar) RenderWorkerUnit(webUser string) (string, error) {
	var buf bytes.Buffer
	err := workerUnitTmpl.Execute(&buf, workerUnitData{WebUser: webUser, PanelDir: r.cfg.PanelDir})
	if err != nil {
		return "", fmt.Errorf("render worker unit: %w", err)
	}
	return buf.String(), nil
}

// InstallWorker writes the worker unit, reloads systemd, and enables the
// service.
func (r *SchedulerRegistrar) InstallWorker(ctx context.Context, webUser string) error {
	unit, err := r.RenderWorkerUnit(webUser)
	if err != nil {
		return err
	}

	if err := r.runner.MkdirAll(r.cfg.SystemdUnitDir, 0755); err != nil {
		return fmt.Errorf("create unit dir: %w", err)
	}

	unitPath := filepath.Join(r.cfg.SystemdUnitDir, workerUnitName)
	r.logger.Info().Str("path", unitPath).Msg("writing queue worker unit")
	if err := r.runner.WriteFile(unitPath, []byte(unit), 0644); err != nil {
		return fmt.Errorf("write worker unit: %w", err)
	}

	if _, err := r.runner.Run(ctx, "systemctl", "daemon-reload"); err != nil {
		return fmt.Errorf("daemon-reload: %w", err)
	}
	if _, err := r.runner.Run(ctx, "systemctl", "enable", "--now", workerUnitName); err != nil {
		return fmt.Errorf("enable worker: %w", err)
	}
	return nil
}

// registerScheduler is the sequencer's scheduler phase.
func (s *Sequencer) registerScheduler(ctx context.Context) error {
	plan, err := planFor(s.os.Family)
	if err != nil {
		return err
	}

	r := NewSchedulerRegistrar(s.logger, s.runner, s.cfg)
	if err := r.RegisterCron(ctx); err != nil {
		return err
	}
	return r.InstallWorker(ctx, plan.webUser)
}
