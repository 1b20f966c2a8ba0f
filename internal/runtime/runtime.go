package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"

	"github.com/mattn/go-shellwords"
	"golang.org/x/term"
)

var ErrEmptyCommand = errors.New("command cannot be empty")

// Characters that need a real shell: pipes, redirection, chaining, globbing
// and expansion.
const shellMetachars = "|><;&`$*?~(){}[]!\n"

// Runner executes commands with the operator's terminal attached.
type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	lookPath func(string) (string, error)
	getenv   func(string) string
	stat     func(string) (os.FileInfo, error)
	goos     string
}

func NewRunner() *Runner {
	return &Runner{
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		lookPath: exec.LookPath,
		getenv:   os.Getenv,
		stat:     os.Stat,
		goos:     goruntime.GOOS,
	}
}

// Run executes command directly when it is a plain argv whose program is on
// PATH, and through the host shell otherwise. A non-zero exit is an error.
func (r *Runner) Run(ctx context.Context, command string) error {
	command, err := NormalizeCommand(command)
	if err != nil {
		return err
	}
	if strings.ContainsAny(command, shellMetachars) {
		return r.RunShell(ctx, command)
	}
	args, err := shellwords.Parse(command)
	if err != nil || len(args) == 0 {
		return r.RunShell(ctx, command)
	}
	path, err := r.lookPath(args[0])
	if err != nil {
		return r.RunShell(ctx, command)
	}
	cmd := exec.CommandContext(ctx, path, args[1:]...)
	return r.attach(cmd).Run()
}

// RunShell hands command to the host shell unchanged.
func (r *Runner) RunShell(ctx context.Context, command string) error {
	command, err := NormalizeCommand(command)
	if err != nil {
		return err
	}
	shell, args := r.shellInvocation(command)
	cmd := exec.CommandContext(ctx, shell, args...)
	return r.attach(cmd).Run()
}

func (r *Runner) attach(cmd *exec.Cmd) *exec.Cmd {
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	return cmd
}

func (r *Runner) shellInvocation(command string) (string, []string) {
	if r.goos == "windows" {
		comspec := strings.TrimSpace(r.getenv("COMSPEC"))
		if comspec == "" {
			comspec = "cmd"
		}
		return comspec, []string{"/C", command}
	}

	shell := strings.TrimSpace(r.getenv("SHELL"))
	if shell != "" {
		if filepath.IsAbs(shell) {
			if _, err := r.stat(shell); err == nil {
				return shell, []string{"-c", command}
			}
		} else if resolved, err := r.lookPath(shell); err == nil {
			return resolved, []string{"-c", command}
		}
	}
	return "sh", []string{"-c", command}
}

func NormalizeCommand(command string) (string, error) {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return "", ErrEmptyCommand
	}
	if strings.ContainsRune(trimmed, '\x00') {
		return "", fmt.Errorf("command contains invalid null byte")
	}
	return trimmed, nil
}

// ExitCode reports the process exit status carried by err: 0 for nil, -1
// when the process never ran or the status is unknown.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// IsInteractive reports whether stdin and stdout are both terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
