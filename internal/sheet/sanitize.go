package sheet

import (
	"regexp"
	"strings"
)

// Model chatter that leaks into prose output. Matched case-insensitively
// against the first line only.
var chatterPrefixes = []string{
	"here is",
	"here's",
	"sure,",
	"sure!",
	"certainly",
	"of course",
	"as an ai",
	"as a language model",
	"below is",
}

var fenceLine = regexp.MustCompile("(?m)^```[a-zA-Z]*[ \t]*$")

// Sanitize strips model-response artifacts from a prose section: code
// fences, leading conversational chatter, and echoed self-instructions.
// Legitimate content is never removed, only wrapping.
func Sanitize(text string) string {
	text = fenceLine.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	lines := strings.Split(text, "\n")
	for len(lines) > 0 {
		first := strings.ToLower(strings.TrimSpace(lines[0]))
		if first == "" {
			lines = lines[1:]
			continue
		}
		if !isChatter(first) {
			break
		}
		lines = lines[1:]
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func isChatter(line string) bool {
	for _, prefix := range chatterPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	// Echoed instructions read like directives about the output itself.
	return strings.HasPrefix(line, "output plain prose") ||
		strings.HasPrefix(line, "use only the provided")
}
