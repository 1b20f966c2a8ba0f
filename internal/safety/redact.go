package safety

import "regexp"

type redactionRule struct {
	pattern     *regexp.Regexp
	replacement string
}

const secretKeyNames = `(?:token|secret|password|passwd|api[_-]?key|access[_-]?key)`

// Short flags such as -p are left alone: in shell input they are far more
// often "mkdir -p" or "ssh -p 22" than a password.
var secretRedactionRules = []redactionRule{
	{
		pattern:     regexp.MustCompile(`\bsk-(?:proj-)?[A-Za-z0-9_-]{16,}`),
		replacement: `sk-<redacted>`,
	},
	{
		pattern:     regexp.MustCompile(`(?i)\b([a-z][a-z0-9+.-]*://[^\s:/@]+):([^\s@/]+)@`),
		replacement: `$1:<redacted>@`,
	},
	{
		pattern:     regexp.MustCompile(`(?i)\b([a-z0-9_]*` + secretKeyNames + `[a-z0-9_]*)\s*=\s*([^\s"']+|"[^"]*"|'[^']*')`),
		replacement: `$1=<redacted>`,
	},
	{
		pattern:     regexp.MustCompile(`(?i)\b([a-z0-9_]*` + secretKeyNames + `[a-z0-9_]*)\s*:\s*([^\s"']+|"[^"]*"|'[^']*')`),
		replacement: `$1=<redacted>`,
	},
	{
		pattern:     regexp.MustCompile(`(?i)\b(authorization\s*:\s*bearer)\s+([^\s"']+)`),
		replacement: `$1 <redacted>`,
	},
	{
		pattern:     regexp.MustCompile(`(?i)(--[a-z0-9_-]*(?:token|secret|password|passwd|api[_-]?key|access[_-]?key|authorization)[a-z0-9_-]*)\s*=\s*([^\s"']+|"[^"]*"|'[^']*')`),
		replacement: `$1=<redacted>`,
	},
	{
		pattern:     regexp.MustCompile(`(?i)(--[a-z0-9_-]*(?:token|secret|password|passwd|api[_-]?key|access[_-]?key|authorization)[a-z0-9_-]*)\s+([^\s"'-][^\s"']*|"[^"]*"|'[^']*')`),
		replacement: `$1 <redacted>`,
	},
	{
		pattern:     regexp.MustCompile(`(?i)(^|\s)([a-z0-9_]*` + secretKeyNames + `[a-z0-9_]*)\s+([^\s"'-][^\s"']*|"[^"]*"|'[^']*')`),
		replacement: `$1$2 <redacted>`,
	},
}

// RedactText scrubs API keys, URL credentials and secret-looking assignments
// or arguments from shell input and model output before it is persisted.
func RedactText(input string) string {
	redacted := input
	for _, rule := range secretRedactionRules {
		redacted = rule.pattern.ReplaceAllString(redacted, rule.replacement)
	}
	return redacted
}
