package analysis

import "strings"

// Section headers
const (
	HeaderGoodPractices = "💪 Good practices:"
	HeaderWarnings      = "⚠️ Warnings:"
	HeaderSuggestions   = "💡 Suggestions:"
	NoIssues            = "✅ Code looks good! Nothing to report."
)

// Render formats a report as good practices, warnings and suggestions, in
// that order. Empty sections are left out and sections are separated by a
// blank line.
func Render(r Report) string {
	if r.Empty() {
		return NoIssues
	}

	sections := make([]string, 0, 3)
	for _, s := range []struct {
		header string
		lines  []string
	}{
		{HeaderGoodPractices, r.GoodPractices},
		{HeaderWarnings, r.Warnings},
		{HeaderSuggestions, r.Suggestions},
	} {
		if len(s.lines) == 0 {
			continue
		}
		sections = append(sections, s.header+"\n"+strings.Join(s.lines, "\n"))
	}

	return strings.Join(sections, "\n\n")
}
