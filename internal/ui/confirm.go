package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/rivo/tview"
)

// Confirm asks a yes/no question. Declining or dismissing returns false with
// a nil error.
func Confirm(backend string, title string, detail string) (bool, error) {
	var firstErr error
	for _, candidate := range backendCandidates(backend) {
		var (
			approved bool
			err      error
		)
		switch candidate {
		case BackendBubbleTea:
			approved, err = confirmWithBubbleTea(title, detail)
		case BackendHuh:
			approved, err = confirmWithHuh(title, detail)
		case BackendTView:
			approved, err = confirmWithTView(title, detail)
		case BackendPlain:
			approved, err = confirmWithPlain(plainIn, plainOut, title, detail)
		default:
			continue
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return approved, nil
	}
	return false, firstErr
}

type bubbleConfirmModel struct {
	title    string
	detail   string
	approved bool
	done     bool
}

func (m bubbleConfirmModel) Init() tea.Cmd { return nil }

func (m bubbleConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch k := msg.(type) {
	case tea.KeyMsg:
		switch strings.ToLower(k.String()) {
		case "y":
			m.approved = true
			m.done = true
			return m, tea.Quit
		case "n", "esc", "ctrl+c", "enter":
			m.approved = false
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m bubbleConfirmModel) View() string {
	return fmt.Sprintf("%s\n\n%s\n\n[y] run  [n] cancel\n", m.title, m.detail)
}

func confirmWithBubbleTea(title string, detail string) (bool, error) {
	model := bubbleConfirmModel{title: strings.TrimSpace(title), detail: strings.TrimSpace(detail)}
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return false, err
	}
	out, ok := final.(bubbleConfirmModel)
	if !ok || !out.done {
		return false, nil
	}
	return out.approved, nil
}

func confirmWithHuh(title string, detail string) (bool, error) {
	approved := false
	prompt := huh.NewConfirm().
		Title(strings.TrimSpace(title)).
		Description(strings.TrimSpace(detail)).
		Affirmative("Run").
		Negative("Cancel").
		Value(&approved).
		WithTheme(huh.ThemeCharm())
	err := prompt.Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return approved, nil
}

func confirmWithTView(title string, detail string) (bool, error) {
	app := tview.NewApplication()
	approved := false
	done := false

	text := fmt.Sprintf("%s\n\n%s", strings.TrimSpace(title), strings.TrimSpace(detail))
	modal := tview.NewModal().
		SetText(text).
		AddButtons([]string{"Run", "Cancel"}).
		SetDoneFunc(func(_ int, label string) {
			done = true
			approved = strings.EqualFold(strings.TrimSpace(label), "run")
			app.Stop()
		})

	if err := app.SetRoot(modal, true).Run(); err != nil {
		return false, err
	}
	if !done {
		return false, nil
	}
	return approved, nil
}

func confirmWithPlain(in io.Reader, out io.Writer, title string, detail string) (bool, error) {
	if detail = strings.TrimSpace(detail); detail != "" {
		fmt.Fprintln(out, detail)
	}
	fmt.Fprintf(out, "%s [y/N]: ", strings.TrimSpace(title))
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && strings.TrimSpace(line) == "" {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
