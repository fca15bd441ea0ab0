package analysis

import (
	"strings"

	"go.uber.org/zap"

	"github.com/isdmx/codelab/apperrors"
	"github.com/isdmx/codelab/project"
)

// Report is the outcome of analyzing one file.
type Report struct {
	Language        string   `json:"language"`
	ComplexityScore int      `json:"complexityScore"`
	GoodPractices   []string `json:"goodPractices"`
	Warnings        []string `json:"warnings"`
	Suggestions     []string `json:"suggestions"`
	CommentRatio    float64  `json:"commentRatio"`
}

func (r *Report) add(f Finding) {
	switch f.Bucket {
	case BucketGoodPractice:
		r.GoodPractices = append(r.GoodPractices, f.Message)
	case BucketWarning:
		r.Warnings = append(r.Warnings, f.Message)
	case BucketSuggestion:
		r.Suggestions = append(r.Suggestions, f.Message)
	}
}

// Empty reports whether no message was produced.
func (r Report) Empty() bool {
	return len(r.GoodPractices) == 0 && len(r.Warnings) == 0 && len(r.Suggestions) == 0
}

// Analyze evaluates content against the default catalog.
func Analyze(content, tag string) (Report, error) {
	return analyze(defaultCatalog, content, tag)
}

func analyze(catalog *Catalog, content, tag string) (Report, error) {
	rs, ok := catalog.Lookup(tag)
	if !ok {
		return Report{}, apperrors.Newf(apperrors.KindUnsupportedLanguage,
			"unsupported language %q, expected one of: %s", tag, strings.Join(catalog.Languages(), ", "))
	}

	report := Report{
		Language:      rs.Language,
		GoodPractices: []string{},
		Warnings:      []string{},
		Suggestions:   []string{},
	}

	for _, r := range rs.Complexity {
		n := r.Matcher.Count(content)
		report.ComplexityScore += n
		if n > 0 && r.Finding != nil {
			report.add(*r.Finding)
		}
	}

	for _, group := range [][]Rule{rs.BadPractices, rs.Style} {
		for _, r := range group {
			if r.Finding != nil && r.Matcher.Count(content) > 0 {
				report.add(*r.Finding)
			}
		}
	}

	for _, m := range rs.GoodPractices {
		if m.present(content) {
			report.add(Finding{Bucket: BucketGoodPractice, Message: m.Message})
		}
	}

	report.CommentRatio = commentRatio(rs, content)
	switch {
	case report.CommentRatio < minCommentRatio:
		report.add(Finding{Bucket: BucketSuggestion, Message: msgAddComments})
	case report.CommentRatio > maxCommentRatio:
		report.add(Finding{Bucket: BucketSuggestion, Message: msgTooManyComment})
	}

	for _, c := range rs.Checks {
		r, ok := rs.Rule(c.RuleID)
		if ok && r.Matcher.Count(content) >= c.MinMatches {
			report.add(c.Finding)
		}
	}

	return report, nil
}

// commentRatio is the share of lines holding a comment. A trailing newline
// still counts as starting a final, empty line.
func commentRatio(rs *Ruleset, content string) float64 {
	lines := strings.Split(content, "\n")
	comments := 0
	for _, line := range lines {
		if rs.CommentLine.MatchString(line) {
			comments++
		}
	}
	return float64(comments) / float64(len(lines))
}

// TagFor picks the analysis tag for a file: its extension when it has one,
// otherwise the caller-supplied fallback.
func TagFor(f project.SourceFile, fallback string) string {
	if tag := project.LanguageFromName(f.Name); tag != "" {
		return tag
	}
	return strings.ToLower(strings.TrimSpace(fallback))
}

// Analyzer wraps the catalog with logging for use by the transports.
type Analyzer struct {
	logger  *zap.Logger
	catalog *Catalog
}

// New creates an Analyzer backed by the default catalog.
func New(logger *zap.Logger) *Analyzer {
	return &Analyzer{logger: logger, catalog: defaultCatalog}
}

// Catalog returns the catalog the analyzer evaluates against.
func (a *Analyzer) Catalog() *Catalog {
	return a.catalog
}

// AnalyzeFile analyzes a single file, deriving its tag with TagFor.
func (a *Analyzer) AnalyzeFile(f project.SourceFile, fallback string) (Report, error) {
	tag := TagFor(f, fallback)
	report, err := analyze(a.catalog, f.Content, tag)
	if err != nil {
		a.logger.Debug("analysis rejected", zap.String("file", f.Name), zap.String("tag", tag), zap.Error(err))
		return Report{}, err
	}

	a.logger.Debug("analysis completed",
		zap.String("file", f.Name),
		zap.String("language", report.Language),
		zap.Int("complexity", report.ComplexityScore),
		zap.Int("warnings", len(report.Warnings)),
		zap.Int("suggestions", len(report.Suggestions)))

	return report, nil
}
