package cmdexec

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(t *testing.T) *Exec {
	t.Helper()
	r := New(zerolog.Nop(), false)
	// Tests never run on a PTY; force the capture path.
	r.interactive = false
	return r
}

func TestRun_CapturesOutput(t *testing.T) {
	r := newTestRunner(t)

	res, err := r.Run(context.Background(), "echo", "hello")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n", res.Output)
}

func TestRun_NonzeroExit(t *testing.T) {
	r := newTestRunner(t)

	res, err := r.Run(context.Background(), "false")
	require.Error(t, err)
	assert.Equal(t, 1, res.ExitCode)
	assert.Contains(t, err.Error(), "false exited 1")
}

func TestRun_MissingBinary(t *testing.T) {
	r := newTestRunner(t)

	_, err := r.Run(context.Background(), "definitely-not-a-command-zzz")
	assert.Error(t, err)
}

func TestRunInput_FeedsStdin(t *testing.T) {
	r := newTestRunner(t)

	res, err := r.RunInput(context.Background(), "y\nn\n", "cat")
	require.NoError(t, err)
	assert.Equal(t, "y\nn\n", res.Output)
}

func TestShell_Pipeline(t *testing.T) {
	r := newTestRunner(t)

	res, err := r.Shell(context.Background(), "echo one two | wc -w")
	require.NoError(t, err)
	assert.Equal(t, "2\n", res.Output)
}

func TestDryRun_SkipsExecution(t *testing.T) {
	r := New(zerolog.Nop(), true)

	res, err := r.Run(context.Background(), "definitely-not-a-command-zzz")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)

	_, err = r.Shell(context.Background(), "exit 1")
	assert.NoError(t, err)
}

func TestFileOps(t *testing.T) {
	r := newTestRunner(t)
	dir := filepath.Join(t.TempDir(), "sub")

	require.NoError(t, r.MkdirAll(dir, 0755))
	path := filepath.Join(dir, "file.conf")
	require.NoError(t, r.WriteFile(path, []byte("content"), 0644))
	assert.FileExists(t, path)

	require.NoError(t, r.Remove(path))
	assert.NoFileExists(t, path)

	// Removing an already-absent path is not an error.
	assert.NoError(t, r.Remove(path))
}

func TestDryRun_SkipsFileOps(t *testing.T) {
	r := New(zerolog.Nop(), true)
	tmp := t.TempDir()

	dir := filepath.Join(tmp, "sub")
	require.NoError(t, r.MkdirAll(dir, 0755))
	assert.NoDirExists(t, dir)

	path := filepath.Join(tmp, "file.conf")
	require.NoError(t, r.WriteFile(path, []byte("content"), 0644))
	assert.NoFileExists(t, path)

	existing := filepath.Join(tmp, "keep.conf")
	require.NoError(t, os.WriteFile(existing, []byte("keep"), 0644))
	require.NoError(t, r.Remove(existing))
	assert.FileExists(t, existing)
}
