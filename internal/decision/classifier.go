package decision

import "strings"

// DefaultAffirmations are the phrases that mark a reply as confirming the
// user's input was already a valid command.
var DefaultAffirmations = []string{
	"✅",
	"is correct",
	"already correct",
	"no need for correction",
	"is valid",
}

type Classifier struct {
	phrases []string
}

// NewClassifier lowercases and de-duplicates phrases. An empty list falls back
// to DefaultAffirmations.
func NewClassifier(phrases []string) Classifier {
	if len(phrases) == 0 {
		phrases = DefaultAffirmations
	}
	seen := map[string]struct{}{}
	out := make([]string, 0, len(phrases))
	for _, phrase := range phrases {
		normalized := strings.ToLower(strings.TrimSpace(phrase))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return Classifier{phrases: out}
}

func (c Classifier) Phrases() []string {
	return append([]string(nil), c.phrases...)
}

// IsValid reports whether the case-folded explanation contains any phrase.
func (c Classifier) IsValid(explanation string) bool {
	low := strings.ToLower(explanation)
	for _, phrase := range c.phrases {
		if strings.Contains(low, phrase) {
			return true
		}
	}
	return false
}
