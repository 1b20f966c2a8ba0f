package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("87"))

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("248"))

	explanationStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	commandStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("45"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("203"))
)

// Printer writes styled session output.
type Printer struct {
	out io.Writer
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) Banner(backend string) {
	body := titleStyle.Render("determinal") + "\n" +
		subtleStyle.Render("backend: "+backend) + "\n" +
		subtleStyle.Render("type a command or a question; /help for help, exit to quit")
	fmt.Fprintln(p.out, bannerStyle.Render(body))
}

func (p *Printer) Thinking() {
	fmt.Fprintln(p.out, subtleStyle.Render("🤖 thinking..."))
}

func (p *Printer) Explanation(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	fmt.Fprintln(p.out, "💡 "+explanationStyle.Render(text))
}

func (p *Printer) Suggestion(command string) {
	fmt.Fprintln(p.out, "👉 "+commandStyle.Render(strings.TrimSpace(command)))
}

func (p *Printer) Candidates(candidates []string) {
	fmt.Fprintln(p.out, titleStyle.Render("🤖 I found multiple possible commands:"))
	for idx, candidate := range candidates {
		fmt.Fprintf(p.out, "  %d. %s\n", idx+1, commandStyle.Render(candidate))
	}
}

func (p *Printer) Running(command string) {
	fmt.Fprintln(p.out, subtleStyle.Render("$ "+strings.TrimSpace(command)))
}

func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.out, successStyle.Render(msg))
}

func (p *Printer) Error(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(p.out, errorStyle.Render("❌ "+err.Error()))
}

func (p *Printer) Help() {
	lines := []string{
		titleStyle.Render("Usage"),
		"  <command>     run it directly when known, otherwise ask the assistant",
		"  <question>    ask the assistant for a command",
		"  /backend      choose a different AI backend",
		"  /help         show this help",
		"  exit, quit    leave determinal",
	}
	fmt.Fprintln(p.out, strings.Join(lines, "\n"))
}
