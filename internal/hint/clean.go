package hint

import "strings"

const fence = "```"

// fenceLanguages are the info strings stripped from an opening code fence.
var fenceLanguages = []string{
	"bash-session",
	"bash",
	"shell-session",
	"sh-session",
	"sh",
	"shell",
	"posix",
	"zsh",
	"fish",
	"console",
	"powershell",
	"pwsh",
	"ps1",
	"cmd",
	"bat",
	"batch",
	"plaintext",
	"text",
	"txt",
}

// CleanCommand strips markdown and quoting that models wrap around a command:
// an opening fence with or without a language tag, a closing fence, matched
// surrounding quotes or backticks and a leading "$ " prompt marker. Clean input
// is returned unchanged.
func CleanCommand(raw string) string {
	cmd := strings.TrimSpace(raw)
	cmd = stripOpeningFence(cmd)
	cmd = strings.TrimSpace(strings.TrimSuffix(cmd, fence))
	cmd = stripMatchedQuotes(cmd)
	if strings.HasPrefix(cmd, "$ ") {
		cmd = strings.TrimSpace(cmd[2:])
	}
	return cmd
}

func stripOpeningFence(cmd string) string {
	if !strings.HasPrefix(cmd, fence) {
		return cmd
	}
	rest := cmd[len(fence):]
	lower := strings.ToLower(rest)
	for _, lang := range fenceLanguages {
		if !strings.HasPrefix(lower, lang) {
			continue
		}
		after := rest[len(lang):]
		if after == "" || after[0] == ' ' || after[0] == '\t' || strings.HasPrefix(after, fence) {
			return strings.TrimSpace(after)
		}
	}
	return strings.TrimSpace(rest)
}

// stripMatchedQuotes unwraps a pair only when the quote character does not
// also occur inside, so "'a' or 'b'" keeps both pairs intact.
func stripMatchedQuotes(cmd string) string {
	for len(cmd) >= 2 {
		first, last := cmd[0], cmd[len(cmd)-1]
		if first != last || !isQuote(first) {
			break
		}
		inner := cmd[1 : len(cmd)-1]
		if strings.IndexByte(inner, first) >= 0 {
			break
		}
		cmd = strings.TrimSpace(inner)
	}
	return cmd
}

func isQuote(b byte) bool {
	return b == '`' || b == '"' || b == '\''
}
