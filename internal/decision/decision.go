// Package decision classifies a parsed hint and picks the single action a turn
// takes: run the input, run one suggestion, choose among several, or display.
package decision

import (
	"strings"

	"github.com/ashwch/determinal/internal/hint"
)

type Kind int

const (
	Display Kind = iota
	RunOriginal
	RunSingle
	ChooseAmong
)

func (k Kind) String() string {
	switch k {
	case RunOriginal:
		return "run_original"
	case RunSingle:
		return "run_single"
	case ChooseAmong:
		return "choose_among"
	default:
		return "display"
	}
}

// CandidateSeparator splits one command field into alternatives.
const CandidateSeparator = " or "

// SingleRun selects what a confirmed single suggestion executes.
type SingleRun string

const (
	// SingleRunParsed executes the full parsed command field.
	SingleRunParsed SingleRun = "parsed"
	// SingleRunCandidate executes the lone split candidate.
	SingleRunCandidate SingleRun = "candidate"
)

func NormalizeSingleRun(value string) SingleRun {
	switch SingleRun(strings.ToLower(strings.TrimSpace(value))) {
	case SingleRunCandidate:
		return SingleRunCandidate
	default:
		return SingleRunParsed
	}
}

// Decision is the outcome of one turn. Command is what runs for RunOriginal
// and RunSingle; Candidates holds the display list for RunSingle and the
// options for ChooseAmong.
type Decision struct {
	Kind        Kind
	Command     string
	Candidates  []string
	Explanation string
	Valid       bool
}

type Engine struct {
	Classifier Classifier
	SingleRun  SingleRun
}

func NewEngine(affirmations []string, singleRun string) Engine {
	return Engine{
		Classifier: NewClassifier(affirmations),
		SingleRun:  NormalizeSingleRun(singleRun),
	}
}

// Decide applies the rules in priority order: a valid input whose hint has no
// command (or repeats it verbatim) runs unmodified; otherwise a command with
// several alternatives asks for a choice, a single one asks for confirmation;
// with no command only the explanation is shown.
func (e Engine) Decide(input string, h hint.Hint) Decision {
	valid := e.Classifier.IsValid(h.Explanation)
	d := Decision{Explanation: h.Explanation, Valid: valid}

	if valid && (!h.HasCommand() || h.Command == input) {
		d.Kind = RunOriginal
		d.Command = input
		return d
	}
	if !h.HasCommand() {
		d.Kind = Display
		return d
	}

	candidates := SplitCandidates(h.Command)
	switch {
	case len(candidates) > 1:
		d.Kind = ChooseAmong
		d.Candidates = candidates
	case len(candidates) == 1:
		d.Kind = RunSingle
		d.Candidates = candidates
		d.Command = h.Command
		if e.SingleRun == SingleRunCandidate {
			d.Command = candidates[0]
		}
	default:
		d.Kind = Display
	}
	return d
}

// SplitCandidates splits on CandidateSeparator and drops empty alternatives.
func SplitCandidates(command string) []string {
	parts := strings.Split(command, CandidateSeparator)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if cleaned := hint.CleanCommand(part); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

// Choose maps an operator's index onto a candidate. Out-of-range indexes pick
// the first candidate.
func Choose(candidates []string, index int) string {
	if len(candidates) == 0 {
		return ""
	}
	if index < 0 || index >= len(candidates) {
		index = 0
	}
	return strings.TrimSpace(candidates[index])
}
