// Package installer implements the provisioning sequencer: the ordered set
// of installation phases that takes a fresh host to a running GameAP panel.
// Control flow is strictly linear; the first failing phase aborts the run
// and prior phases' side effects stay in place.
package installer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/edvin/gameap-install/internal/cmdexec"
	"github.com/edvin/gameap-install/internal/config"
	"github.com/edvin/gameap-install/internal/platform"
)

// Secrets holds the generated credentials. They live only in process memory
// and the final summary; the installed panel persists its own copies.
type Secrets struct {
	DBPassword    string
	AdminPassword string
}

const (
	dbPasswordLength    = 64
	adminPasswordLength = 16
)

// Options tunes a Sequencer. The zero value is the production configuration;
// tests preseed the OS descriptor, the euid, and the terminal streams.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	// Domain preseeds the domain/IP and skips the interactive prompt.
	Domain string
	// OS preseeds the detected OS descriptor.
	OS *platform.Info
	// EUID overrides the effective-uid lookup for the privilege guard.
	EUID func() int
}

// Sequencer executes the nine installation phases front to back.
type Sequencer struct {
	logger  zerolog.Logger
	runner  cmdexec.Runner
	cfg     *config.Install
	secrets Secrets
	os      *platform.Info

	stdin  io.Reader
	stdout io.Writer
	prompt bool
	domain string
	euid   func() int
}

// New creates a Sequencer for the given installation request.
func New(logger zerolog.Logger, runner cmdexec.Runner, cfg *config.Install, opts Options) *Sequencer {
	s := &Sequencer{
		logger: logger.With().Str("component", "sequencer").Logger(),
		runner: runner,
		cfg:    cfg,
		os:     opts.OS,
		stdin:  opts.Stdin,
		stdout: opts.Stdout,
		domain: opts.Domain,
		euid:   opts.EUID,
	}
	if s.stdin == nil {
		s.stdin = os.Stdin
		s.prompt = term.IsTerminal(int(os.Stdin.Fd()))
	} else {
		s.prompt = true
	}
	if s.stdout == nil {
		s.stdout = os.Stdout
	}
	if s.euid == nil {
		s.euid = os.Geteuid
	}
	return s
}

// phase is one named unit of provisioning work. Its implicit precondition is
// that every earlier phase returned nil.
type phase struct {
	name string
	run  func(ctx context.Context) error
}

func (s *Sequencer) phases() []phase {
	return []phase{
		{"guard", s.guard},
		{"collect", s.collect},
		{"secrets", s.generateSecrets},
		{"packages", s.installPackages},
		{"database", s.provisionDatabase},
		{"application", s.installApplication},
		{"nginx", s.configureNginx},
		{"scheduler", s.registerScheduler},
		{"summary", s.report},
	}
}

// Run executes all phases in order, stopping at the first error. There is no
// compensation: a failed run leaves the host partially provisioned.
func (s *Sequencer) Run(ctx context.Context) error {
	for _, p := range s.phases() {
		s.logger.Info().Str("phase", p.name).Msg("starting phase")
		if err := p.run(ctx); err != nil {
			s.logger.Error().Str("phase", p.name).Err(err).Msg("phase failed, aborting")
			return fmt.Errorf("phase %s: %w", p.name, err)
		}
		s.logger.Info().Str("phase", p.name).Msg("phase complete")
	}
	return nil
}

// guard verifies the execution context before any side effect: elevated
// privileges and a supported OS family.
func (s *Sequencer) guard(_ context.Context) error {
	if s.euid() != 0 {
		return fmt.Errorf("this installer mutates system state and must run as root (euid %d)", s.euid())
	}

	if s.os == nil {
		info, err := platform.Detect()
		if err != nil {
			return err
		}
		s.os = info
	}

	s.logger.Info().
		Str("family", string(s.os.Family)).
		Str("id", s.os.ID).
		Str("version", s.os.Version).
		Msg("detected operating system")

	return nil
}
