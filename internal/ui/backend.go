package ui

import (
	"errors"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	BackendAuto      = "auto"
	BackendBubbleTea = "bubbletea"
	BackendHuh       = "huh"
	BackendTView     = "tview"
	BackendPlain     = "plain"
)

// ErrAborted is returned when the operator dismisses a prompt (Esc, Ctrl+C).
var ErrAborted = errors.New("prompt aborted")

var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func NormalizeBackend(backend string) string {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendAuto, "":
		return BackendAuto
	case BackendBubbleTea:
		return BackendBubbleTea
	case BackendHuh:
		return BackendHuh
	case BackendTView:
		return BackendTView
	case BackendPlain:
		return BackendPlain
	default:
		return BackendAuto
	}
}

func IsInteractiveBackend(backend string) bool {
	switch NormalizeBackend(backend) {
	case BackendPlain:
		return false
	default:
		return stdinIsTerminal()
	}
}

// backendCandidates lists the backends to try in order. Plain always comes
// last so a prompt can still be answered when no TUI can start.
func backendCandidates(backend string) []string {
	if !IsInteractiveBackend(backend) {
		return []string{BackendPlain}
	}
	switch NormalizeBackend(backend) {
	case BackendBubbleTea:
		return []string{BackendBubbleTea, BackendHuh, BackendTView, BackendPlain}
	case BackendHuh:
		return []string{BackendHuh, BackendBubbleTea, BackendTView, BackendPlain}
	case BackendTView:
		return []string{BackendTView, BackendBubbleTea, BackendHuh, BackendPlain}
	default:
		return []string{BackendHuh, BackendBubbleTea, BackendTView, BackendPlain}
	}
}
