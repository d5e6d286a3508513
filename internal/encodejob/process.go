package encodejob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// Process is a started encoder whose combined stdout/stderr is readable from
// Output until the process exits.
type Process interface {
	Output() io.Reader
	// Wait blocks until exit. A non-zero exit is reported through the code, not
	// the error.
	Wait() (int, error)
	Terminate() error
}

// Runner starts encoder processes.
type Runner interface {
	Start(binary string, args []string) (Process, error)
}

// ExecRunner starts real processes with os/exec.
type ExecRunner struct{}

type execProcess struct {
	cmd    *exec.Cmd
	reader *os.File
}

// Start launches binary with stdout and stderr sharing one pipe.
func (ExecRunner) Start(binary string, args []string) (Process, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create output pipe: %w", err)
	}
	cmd := exec.Command(binary, args...) //nolint:gosec
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return nil, err
	}
	// The child holds its own copy of the write end; closing ours lets the
	// reader see EOF when the child exits.
	_ = pw.Close()
	return &execProcess{cmd: cmd, reader: pr}, nil
}

func (p *execProcess) Output() io.Reader { return p.reader }

func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	_ = p.reader.Close()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

func (p *execProcess) Terminate() error {
	if p.cmd.Process == nil {
		return nil
	}
	err := p.cmd.Process.Signal(unix.SIGTERM)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
