package tools

import (
	"bytes"
	"errors"
	"os/exec"
	"strings"
)

// ExitCommandNotFound is reported when the executable could not be started.
const ExitCommandNotFound = 127

// Result is the captured outcome of one command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// StdoutLines splits stdout into non-empty trimmed lines.
func (r Result) StdoutLines() []string {
	raw := strings.Split(string(r.Stdout), "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// CommandRunner abstracts command execution for the package adapters.
// A non-nil error always comes with a populated Result.
type CommandRunner interface {
	Run(name string, args ...string) (Result, error)
}

// ExecRunner executes commands on the local host.
type ExecRunner struct{}

func (ExecRunner) Run(name string, args ...string) (Result, error) {
	cmd := exec.Command(name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, err
	}

	res.ExitCode = 1
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		res.ExitCode = ExitCommandNotFound
	}
	return res, err
}
