package analysis

import (
	"regexp"
	"strings"
)

// Category groups rules by what they measure.
type Category string

// Rule categories
const (
	CategoryComplexity  Category = "complexity"
	CategoryBadPractice Category = "badPractice"
	CategoryStyle       Category = "style"
)

// Bucket is the feedback section a message is rendered in.
type Bucket string

// Feedback buckets
const (
	BucketGoodPractice Bucket = "goodPractice"
	BucketWarning      Bucket = "warning"
	BucketSuggestion   Bucket = "suggestion"
)

// Finding is a fixed message and the bucket it belongs to.
type Finding struct {
	Bucket  Bucket
	Message string
}

// Matcher counts occurrences of a pattern in source text.
type Matcher interface {
	Count(content string) int
}

// MatcherFunc adapts a plain function to Matcher.
type MatcherFunc func(content string) int

// Count calls f.
func (f MatcherFunc) Count(content string) int {
	return f(content)
}

// regexMatcher counts non-overlapping matches of a regular expression.
type regexMatcher struct {
	re *regexp.Regexp
}

// Regex returns a Matcher for expr. It panics on an invalid expression, so it
// is only used while building the catalog.
func Regex(expr string) Matcher {
	return regexMatcher{re: regexp.MustCompile(expr)}
}

func (m regexMatcher) Count(content string) int {
	return len(m.re.FindAllStringIndex(content, -1))
}

// Rule is one entry of a Ruleset. Finding is nil for rules that only feed the
// complexity score or a Check.
type Rule struct {
	ID       string
	Category Category
	Language string
	Matcher  Matcher
	Finding  *Finding
}

// Marker emits a good-practice message when every substring is present.
type Marker struct {
	Substrings []string
	Message    string
}

func (m Marker) present(content string) bool {
	for _, s := range m.Substrings {
		if !strings.Contains(content, s) {
			return false
		}
	}
	return true
}

// Check reuses a rule's matcher with its own threshold.
type Check struct {
	RuleID     string
	MinMatches int
	Finding    Finding
}

// Ruleset is everything the analyzer knows about one language.
type Ruleset struct {
	Language      string
	Complexity    []Rule
	BadPractices  []Rule
	Style         []Rule
	GoodPractices []Marker
	CommentLine   *regexp.Regexp
	Checks        []Check
}

// Rule returns the rule with the given id from any category.
func (rs *Ruleset) Rule(id string) (Rule, bool) {
	for _, group := range [][]Rule{rs.Complexity, rs.BadPractices, rs.Style} {
		for _, r := range group {
			if r.ID == id {
				return r, true
			}
		}
	}
	return Rule{}, false
}
