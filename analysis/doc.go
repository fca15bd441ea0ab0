// Package analysis provides heuristic, pattern-based feedback on source files.
//
// A Catalog maps a language tag (js, py, html, css) to a Ruleset. Each
// Ruleset holds complexity, bad-practice and style rules, good-practice
// markers, a comment-line matcher and, for markup and stylesheets, extra
// threshold checks. The default catalog is built once at package
// initialization and never modified afterwards.
//
// Analyze evaluates one file against its Ruleset and returns a Report with a
// complexity score and three ordered message buckets. Render turns a Report
// into the plain-text feedback shown to users.
//
// Rules are regular expressions where RE2 can express them. Patterns that
// need look-around or back-references are written as small matcher
// functions instead.
//
// Usage:
//
//	report, err := analysis.Analyze(source, "js")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(analysis.Render(report))
package analysis
