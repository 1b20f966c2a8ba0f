// Package hint turns a loosely structured AI reply into an explanation and an
// optional shell command.
package hint

import (
	"regexp"
	"strings"
)

const (
	commandLabel     = "command:"
	explanationLabel = "explanation:"
)

// Hint is the parsed form of one reply. An empty Command means the reply did
// not carry a usable command line.
type Hint struct {
	Explanation string
	Command     string
}

func (h Hint) HasCommand() bool {
	return h.Command != ""
}

type lineKind int

const (
	lineBlank lineKind = iota
	lineCommand
	lineExplanation
	lineProse
)

// parser accumulates explanation text and the last well-formed command while
// scanning the reply line by line.
type parser struct {
	explanation []string
	command     string
}

// Parse reads a raw reply. Labels are matched case-insensitively at the start
// of a trimmed line; every other non-empty line is kept as explanation text in
// its original position.
func Parse(raw string) Hint {
	p := &parser{}
	for _, line := range strings.Split(raw, "\n") {
		p.feed(strings.TrimSpace(line))
	}
	return p.result()
}

func classify(line string) lineKind {
	if line == "" {
		return lineBlank
	}
	lower := strings.ToLower(line)
	switch {
	case strings.HasPrefix(lower, commandLabel):
		return lineCommand
	case strings.HasPrefix(lower, explanationLabel):
		return lineExplanation
	default:
		return lineProse
	}
}

func (p *parser) feed(line string) {
	switch classify(line) {
	case lineBlank:
		return
	case lineCommand:
		p.setCommand(line[len(commandLabel):])
	case lineExplanation:
		rest := line[len(explanationLabel):]
		if text, cmd, ok := splitInlineCommand(rest); ok {
			p.appendText(text)
			p.setCommand(cmd)
			return
		}
		p.appendText(rest)
	case lineProse:
		p.appendText(line)
	}
}

func (p *parser) setCommand(payload string) {
	if cleaned := CleanCommand(payload); cleaned != "" {
		p.command = cleaned
	}
}

func (p *parser) appendText(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	p.explanation = append(p.explanation, text)
}

func (p *parser) result() Hint {
	return Hint{
		Explanation: strings.TrimSpace(strings.Join(p.explanation, " ")),
		Command:     p.command,
	}
}

// inlineCommandLabel matches a "Command:" label that starts a new sentence
// inside an explanation line. The label is case-sensitive so prose such as
// "the command: ls" is not split.
var inlineCommandLabel = regexp.MustCompile(`[.!?]\s+Command:`)

// splitInlineCommand handles single-line replies of the form
// "Explanation: ... Command: ls".
func splitInlineCommand(rest string) (string, string, bool) {
	locs := inlineCommandLabel.FindAllStringIndex(rest, -1)
	if len(locs) == 0 {
		return "", "", false
	}
	loc := locs[len(locs)-1]
	text := rest[:loc[0]+1]
	cmd := rest[loc[1]:]
	if CleanCommand(cmd) == "" {
		return "", "", false
	}
	return text, cmd, true
}
