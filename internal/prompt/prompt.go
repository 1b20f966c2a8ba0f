// Package prompt builds the instruction envelope sent to every backend.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const unknownShell = "unknown"

type Environment struct {
	OS    string
	Arch  string
	Shell string
}

// DetectEnvironment reads the platform from the Go runtime and the shell name
// from $SHELL (%COMSPEC% on Windows).
func DetectEnvironment() Environment {
	return Environment{
		OS:    runtime.GOOS,
		Arch:  runtime.GOARCH,
		Shell: detectShell(runtime.GOOS, os.Getenv("SHELL"), os.Getenv("COMSPEC")),
	}
}

func detectShell(goos, shellEnv, comspec string) string {
	if shell := strings.TrimSpace(shellEnv); shell != "" {
		return filepath.Base(shell)
	}
	if goos == "windows" {
		if cs := strings.TrimSpace(comspec); cs != "" {
			return filepath.Base(cs)
		}
	}
	return unknownShell
}

type Query struct {
	RawInput string
	Environment
}

func NewQuery(input string, env Environment) Query {
	return Query{RawInput: input, Environment: env}
}

const instructions = `If the command is a request for help or information, suggest specific, actionable commands.
For example, if they type 'help', suggest 'man bash' or 'help' (for bash) or 'compgen -c' to list commands.
Do not use placeholders like [command] - suggest actual commands.
If the command is valid, explain it and repeat it exactly.
If it's invalid, infer the correct command and output the result in this format:

Explanation: ...
Command: <shell_command>`

// Build returns the prompt for API backends. The input is quoted verbatim.
func Build(q Query) string {
	return fmt.Sprintf(
		"The user is running %s (%s). They typed this in their terminal:\n\n\"%s\"\n\n%s",
		orUnknown(q.OS),
		orUnknown(q.Arch),
		q.RawInput,
		instructions,
	)
}

// BuildLocal returns the prompt for local models, which also get the shell.
func BuildLocal(q Query) string {
	return fmt.Sprintf(
		"You are a helpful shell assistant.\nThe active shell is %s.\n\n%s",
		orUnknown(q.Shell),
		Build(q),
	)
}

func orUnknown(value string) string {
	if strings.TrimSpace(value) == "" {
		return unknownShell
	}
	return value
}
