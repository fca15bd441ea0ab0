package analysis

import (
	"regexp"
	"sort"
)

// Messages shared by several languages
const (
	msgRecursion      = "🔄 Recursive function detected. Make sure the termination conditions are correct."
	msgGlobalVars     = "⚠️ Global variables can cause problems. Consider encapsulating them."
	msgMagicNumbers   = "💡 The code contains \"magic numbers\". Consider named constants for clarity."
	msgLongLines      = "📏 The code has long lines. Consider splitting them up for readability."
	msgEmptyBlocks    = "⚠️ The code has empty blocks. Make sure this is intentional."
	msgAddComments    = "📚 Add comments to document the code."
	msgTooManyComment = "📚 The code has a lot of comments. Make sure the code is self-documenting."
)

// Comment ratio thresholds
const (
	minCommentRatio = 0.10
	maxCommentRatio = 0.40
)

func warning(msg string) *Finding {
	return &Finding{Bucket: BucketWarning, Message: msg}
}

func suggestion(msg string) *Finding {
	return &Finding{Bucket: BucketSuggestion, Message: msg}
}

// Catalog maps language tags to rulesets. It is never modified after
// construction and is safe for concurrent use.
type Catalog struct {
	rulesets map[string]*Ruleset
}

// NewCatalog builds a catalog from rulesets keyed by their Language.
func NewCatalog(rulesets ...*Ruleset) *Catalog {
	c := &Catalog{rulesets: make(map[string]*Ruleset, len(rulesets))}
	for _, rs := range rulesets {
		c.rulesets[rs.Language] = rs
	}
	return c
}

// Lookup returns the ruleset for a language tag.
func (c *Catalog) Lookup(tag string) (*Ruleset, bool) {
	rs, ok := c.rulesets[tag]
	return rs, ok
}

// Languages returns the supported tags in sorted order.
func (c *Catalog) Languages() []string {
	out := make([]string, 0, len(c.rulesets))
	for tag := range c.rulesets {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

var defaultCatalog = NewCatalog(jsRules(), pyRules(), htmlRules(), cssRules())

// DefaultCatalog returns the built-in catalog for js, py, html and css.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

func rule(lang string, cat Category, id string, m Matcher, f *Finding) Rule {
	return Rule{ID: id, Category: cat, Language: lang, Matcher: m, Finding: f}
}

func jsRules() *Ruleset {
	const lang = "js"
	return &Ruleset{
		Language: lang,
		Complexity: []Rule{
			rule(lang, CategoryComplexity, "for-loop", Regex(`for\s*\(`), nil),
			rule(lang, CategoryComplexity, "while-loop", Regex(`while\s*\(`), nil),
			rule(lang, CategoryComplexity, "if-statement", Regex(`if\s*\(`), nil),
			rule(lang, CategoryComplexity, "recursion", recursion(jsFunctionDecl, braceBody), suggestion(msgRecursion)),
		},
		BadPractices: []Rule{
			rule(lang, CategoryBadPractice, "eval", Regex(`\beval\s*\(`),
				warning("⚠️ Using eval() is risky and can cause security problems.")),
			rule(lang, CategoryBadPractice, "global-assignment", globalAssignment(), warning(msgGlobalVars)),
			rule(lang, CategoryBadPractice, "magic-number",
				magicNumbers(jsDeclarationTail, jsTrailingComment), suggestion(msgMagicNumbers)),
		},
		Style: []Rule{
			rule(lang, CategoryStyle, "naming-camel-case", Regex(`[a-z][a-zA-Z0-9]+[A-Z][a-zA-Z0-9]*`),
				suggestion("📝 Check the variable naming conventions (camelCase).")),
			rule(lang, CategoryStyle, "long-line", Regex(`.{100,}`), suggestion(msgLongLines)),
			rule(lang, CategoryStyle, "empty-block", Regex(`\{\s*\}`), warning(msgEmptyBlocks)),
		},
		GoodPractices: []Marker{
			{Substrings: []string{"const "}, Message: "✅ Using const for values that never change is good practice."},
			{Substrings: []string{"try", "catch"}, Message: "✅ Errors are handled with try-catch."},
		},
		CommentLine: regexp.MustCompile(`//.+|/\*.+?\*/`),
	}
}

func pyRules() *Ruleset {
	const lang = "py"
	return &Ruleset{
		Language: lang,
		Complexity: []Rule{
			rule(lang, CategoryComplexity, "for-loop", Regex(`for\s+\w+\s+in`), nil),
			rule(lang, CategoryComplexity, "while-loop", Regex(`\bwhile\b[^:\n]*:`), nil),
			rule(lang, CategoryComplexity, "if-statement", Regex(`if\s+.*:`), nil),
			rule(lang, CategoryComplexity, "recursion", recursion(pyFunctionDecl, indentBody), suggestion(msgRecursion)),
		},
		BadPractices: []Rule{
			rule(lang, CategoryBadPractice, "global-constant", Regex(`(?m)^[A-Z][A-Z0-9_]*\s*=`), warning(msgGlobalVars)),
			rule(lang, CategoryBadPractice, "magic-number",
				magicNumbers(pyOperatorTail, pyTrailingComment), suggestion(msgMagicNumbers)),
			rule(lang, CategoryBadPractice, "exec", Regex(`\bexec\s*\(`),
				warning("⚠️ Using exec() is risky and can cause security problems.")),
		},
		Style: []Rule{
			rule(lang, CategoryStyle, "naming-snake-case", Regex(`[a-z][a-z0-9]+[A-Z]`),
				suggestion("📝 Check the variable naming conventions (snake_case).")),
			rule(lang, CategoryStyle, "long-line", Regex(`.{80,}`), suggestion(msgLongLines)),
			rule(lang, CategoryStyle, "pass-block", Regex(`(?m):\s*pass\s*$`), warning(msgEmptyBlocks)),
		},
		GoodPractices: []Marker{
			{Substrings: []string{"def "}, Message: "✅ Splitting code into functions improves reusability."},
			{Substrings: []string{`if __name__ == "__main__":`}, Message: "✅ Keeping the entry point behind a main guard is good practice."},
		},
		CommentLine: regexp.MustCompile(`#.+`),
	}
}

func htmlRules() *Ruleset {
	const lang = "html"
	return &Ruleset{
		Language: lang,
		Complexity: []Rule{
			rule(lang, CategoryComplexity, "nested-elements", Regex(`<[^>]+>(?:[^<]*<[^>]+>){4,}[^<]*</[^>]+>`), nil),
			rule(lang, CategoryComplexity, "long-element", Regex(`<[^>]{80,}>`), nil),
		},
		BadPractices: []Rule{
			rule(lang, CategoryBadPractice, "inline-style", Regex(`style=["'][^"']+["']`), nil),
			rule(lang, CategoryBadPractice, "deprecated-tag", Regex(`(?i)<(?:font|center|strike|marquee|blink)\b[^>]*>`), nil),
			rule(lang, CategoryBadPractice, "missing-alt", missingAlt(), nil),
		},
		Style: []Rule{
			rule(lang, CategoryStyle, "inconsistent-quotes", Regex(`"[^"]*'[^"]*"|'[^']*"[^']*'`), nil),
			rule(lang, CategoryStyle, "missing-doctype", missingDoctype(), nil),
			rule(lang, CategoryStyle, "non-semantic-div",
				Regex(`(?i)<div[^>]*class=["'](?:header|footer|nav|main|article)[^"']*["'][^>]*>`), nil),
		},
		GoodPractices: []Marker{
			{Substrings: []string{"aria-"}, Message: "✅ ARIA attributes improve accessibility."},
			{Substrings: []string{`<meta name="viewport"`}, Message: "✅ A viewport meta tag is present (mobile responsiveness)."},
		},
		CommentLine: regexp.MustCompile(`<!--`),
		Checks: []Check{
			{RuleID: "missing-doctype", MinMatches: 1, Finding: Finding{BucketWarning,
				"⚠️ The DOCTYPE declaration is missing from the start of the document."}},
			{RuleID: "missing-alt", MinMatches: 1, Finding: Finding{BucketWarning,
				"⚠️ Some images have no alt text. This hurts accessibility."}},
			{RuleID: "deprecated-tag", MinMatches: 1, Finding: Finding{BucketWarning,
				"⚠️ The code uses deprecated HTML tags."}},
			{RuleID: "inline-style", MinMatches: 1, Finding: Finding{BucketSuggestion,
				"💡 Avoid inline styles. Move them into a CSS file."}},
			{RuleID: "non-semantic-div", MinMatches: 1, Finding: Finding{BucketSuggestion,
				"💡 Use semantic elements (header, nav, main, etc.) instead of div elements."}},
		},
	}
}

func cssRules() *Ruleset {
	const lang = "css"
	return &Ruleset{
		Language: lang,
		Complexity: []Rule{
			rule(lang, CategoryComplexity, "deep-selector",
				Regex(`[^\s,{][^\s,{]*(?:\s+[^\s,{][^\s,{]*){3,}\s*\{`), nil),
			rule(lang, CategoryComplexity, "long-rule", Regex(`\{[^}]{200,}\}`), nil),
		},
		BadPractices: []Rule{
			rule(lang, CategoryBadPractice, "important", Regex(`!important`), nil),
			rule(lang, CategoryBadPractice, "hardcoded-color", distinctColors(), nil),
			rule(lang, CategoryBadPractice, "vendor-prefix", Regex(`-(?:webkit|moz|ms|o)-`), nil),
		},
		Style: []Rule{
			rule(lang, CategoryStyle, "units", Regex(`\d+(?:px|em|rem|vh|vw|%)`), nil),
			rule(lang, CategoryStyle, "duplicate-block", duplicateBlocks(), nil),
		},
		GoodPractices: []Marker{
			{Substrings: []string{"@media"}, Message: "✅ Media queries improve responsiveness."},
			{Substrings: []string{"var(--"}, Message: "✅ CSS custom properties make maintenance easier."},
		},
		CommentLine: regexp.MustCompile(`/\*`),
		Checks: []Check{
			{RuleID: "important", MinMatches: 1, Finding: Finding{BucketWarning,
				"⚠️ !important overrides make the styles harder to maintain."}},
			{RuleID: "hardcoded-color", MinMatches: 4, Finding: Finding{BucketSuggestion,
				"💡 Use CSS variables instead of repeating color values."}},
			{RuleID: "deep-selector", MinMatches: 1, Finding: Finding{BucketSuggestion,
				"💡 Avoid deeply nested selectors. They make the CSS hard to maintain."}},
			{RuleID: "vendor-prefix", MinMatches: 1, Finding: Finding{BucketSuggestion,
				"💡 Consider autoprefixer for managing vendor prefixes."}},
		},
	}
}
