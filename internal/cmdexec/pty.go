package cmdexec

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/creack/pty"
)

// runPTY starts the command on a pseudo-terminal so that child processes
// detect a terminal and emit progress output. Output is echoed to the
// operator and captured for the Result.
func (e *Exec) runPTY(cmd *exec.Cmd) (Result, error) {
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("start %s: %w", cmd.Args[0], err)
	}
	defer ptmx.Close()

	var captured strings.Builder
	scanner := bufio.NewScanner(ptmx)
	for scanner.Scan() {
		line := scanner.Text()
		fmt.Fprintln(os.Stdout, line)
		captured.WriteString(line)
		captured.WriteByte('\n')
	}
	// scanner.Err() is EIO when the PTY child exits; that is the normal
	// end-of-stream signal, not a failure.

	err = cmd.Wait()
	res := Result{ExitCode: cmd.ProcessState.ExitCode(), Output: captured.String()}
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return res, fmt.Errorf("%s exited %d: %s", cmd.Args[0], res.ExitCode, strings.TrimSpace(res.Output))
		}
		return res, fmt.Errorf("wait %s: %w", cmd.Args[0], err)
	}
	return res, nil
}
