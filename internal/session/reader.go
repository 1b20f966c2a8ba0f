package session

import (
	"errors"

	"github.com/chzyer/readline"
)

// ErrInterrupt is returned by a LineReader when Ctrl+C clears the line.
var ErrInterrupt = errors.New("interrupted")

type LineReader interface {
	ReadLine() (string, error)
}

// readlineReader opens a fresh readline instance per line, so stdin is free
// for prompts and child processes between lines.
type readlineReader struct {
	prompt      string
	historyFile string
}

func NewReadlineReader(prompt, historyFile string) LineReader {
	return &readlineReader{prompt: prompt, historyFile: historyFile}
}

func (r *readlineReader) ReadLine() (string, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            r.prompt,
		HistoryFile:       r.historyFile,
		HistoryLimit:      1000,
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
	})
	if err != nil {
		return "", err
	}
	defer rl.Close()

	line, err := rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", ErrInterrupt
	}
	return line, err
}
