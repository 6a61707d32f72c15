// Package cmdexec runs the installer's external commands. Every call returns
// an explicit Result instead of relying on a process-wide abort policy, and
// interactive runs go through a PTY so package managers keep their progress
// output and colors.
package cmdexec

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Result captures the exit status and combined output of one external command.
type Result struct {
	ExitCode int
	Output   string
}

// Runner abstracts external command execution so phases can be tested with
// every collaborator mocked.
type Runner interface {
	// Run executes a command and waits for it.
	Run(ctx context.Context, name string, args ...string) (Result, error)
	// RunInput executes a command feeding it the given stdin. Used for
	// scripted interactive tools such as mysql_secure_installation.
	RunInput(ctx context.Context, stdin, name string, args ...string) (Result, error)
	// Shell executes a script through bash -c. Needed where the original
	// step is a pipeline (composer bootstrap, crontab append).
	Shell(ctx context.Context, script string) (Result, error)
	// WriteFile writes a file on the host. Filesystem mutations go through
	// the Runner so the dry-run gate covers them like commands.
	WriteFile(path string, data []byte, perm os.FileMode) error
	// MkdirAll creates a directory tree on the host.
	MkdirAll(path string, perm os.FileMode) error
	// Remove deletes a path on the host. A missing path is not an error.
	Remove(path string) error
}

// Exec is the real Runner backed by os/exec.
type Exec struct {
	logger      zerolog.Logger
	dryRun      bool
	interactive bool
}

// New creates an Exec runner. With dryRun set, every command is logged and
// reported as succeeded without being started.
func New(logger zerolog.Logger, dryRun bool) *Exec {
	return &Exec{
		logger:      logger.With().Str("component", "cmdexec").Logger(),
		dryRun:      dryRun,
		interactive: term.IsTerminal(int(os.Stdout.Fd())),
	}
}

func (e *Exec) Run(ctx context.Context, name string, args ...string) (Result, error) {
	if e.dryRun {
		e.logger.Info().Str("cmd", name).Strs("args", args).Msg("dry-run: skipping command")
		return Result{}, nil
	}

	e.logger.Debug().Str("cmd", name).Strs("args", args).Msg("executing command")

	cmd := exec.CommandContext(ctx, name, args...)
	if e.interactive {
		return e.runPTY(cmd)
	}
	return e.wait(cmd)
}

func (e *Exec) RunInput(ctx context.Context, stdin, name string, args ...string) (Result, error) {
	if e.dryRun {
		e.logger.Info().Str("cmd", name).Strs("args", args).Msg("dry-run: skipping command")
		return Result{}, nil
	}

	e.logger.Debug().Str("cmd", name).Strs("args", args).Msg("executing command with scripted stdin")

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(stdin)
	return e.wait(cmd)
}

func (e *Exec) Shell(ctx context.Context, script string) (Result, error) {
	if e.dryRun {
		e.logger.Info().Str("shell", script).Msg("dry-run: skipping shell command")
		return Result{}, nil
	}

	e.logger.Debug().Str("shell", script).Msg("executing shell command")

	cmd := exec.CommandContext(ctx, "bash", "-c", script)
	return e.wait(cmd)
}

func (e *Exec) WriteFile(path string, data []byte, perm os.FileMode) error {
	if e.dryRun {
		e.logger.Info().Str("path", path).Int("bytes", len(data)).Msg("dry-run: skipping file write")
		return nil
	}

	e.logger.Debug().Str("path", path).Msg("writing file")
	return os.WriteFile(path, data, perm)
}

func (e *Exec) MkdirAll(path string, perm os.FileMode) error {
	if e.dryRun {
		e.logger.Info().Str("path", path).Msg("dry-run: skipping mkdir")
		return nil
	}
	return os.MkdirAll(path, perm)
}

func (e *Exec) Remove(path string) error {
	if e.dryRun {
		e.logger.Info().Str("path", path).Msg("dry-run: skipping remove")
		return nil
	}

	e.logger.Debug().Str("path", path).Msg("removing path")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// wait runs the command, captures combined output, and converts a nonzero
// exit into an error carrying that output.
func (e *Exec) wait(cmd *exec.Cmd) (Result, error) {
	output, err := cmd.CombinedOutput()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res := Result{ExitCode: exitErr.ExitCode(), Output: string(output)}
			return res, fmt.Errorf("%s exited %d: %s", cmd.Args[0], res.ExitCode, strings.TrimSpace(res.Output))
		}
		return Result{ExitCode: -1}, fmt.Errorf("start %s: %w", cmd.Args[0], err)
	}
	return Result{ExitCode: 0, Output: string(output)}, nil
}
