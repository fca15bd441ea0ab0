// Package project holds the submission data model shared by the engines, the
// store and the transports.
package project

import (
	"path/filepath"
	"strings"

	"github.com/isdmx/codelab/apperrors"
)

// Language tags
const (
	LanguageJS   = "js"
	LanguagePy   = "py"
	LanguageHTML = "html"
	LanguageCSS  = "css"
)

// SourceFile is one named file of a submission. Content travels as "value" on
// the wire, matching the editor's file model.
type SourceFile struct {
	Name     string `json:"name"`
	Language string `json:"language,omitempty"`
	Content  string `json:"value"`
}

// Submission is the ordered file set a user sends for execution or analysis.
type Submission []SourceFile

// LanguageFromName returns the lower-cased extension after the last dot, or
// "" when the name has none.
func LanguageFromName(name string) string {
	ext := filepath.Ext(name)
	if len(ext) < 2 {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// NewSourceFile builds a SourceFile with its language derived from the name.
func NewSourceFile(name, content string) SourceFile {
	return SourceFile{Name: name, Language: LanguageFromName(name), Content: content}
}

// Tag returns the explicit language, falling back to the name's extension.
func (f SourceFile) Tag() string {
	if f.Language != "" {
		return strings.ToLower(f.Language)
	}
	return LanguageFromName(f.Name)
}

// Validate checks that every name is a single relative path component and
// unique within the submission.
func (s Submission) Validate() error {
	if len(s) == 0 {
		return apperrors.New(apperrors.KindInvalidSubmission, "submission contains no files")
	}
	seen := make(map[string]struct{}, len(s))
	for _, f := range s {
		if err := ValidateName(f.Name); err != nil {
			return err
		}
		if _, dup := seen[f.Name]; dup {
			return apperrors.Newf(apperrors.KindInvalidSubmission, "duplicate file name: %s", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// ValidateName rejects empty names, absolute paths, traversal and anything
// containing a path separator.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return apperrors.New(apperrors.KindInvalidSubmission, "file name is required")
	case filepath.IsAbs(name):
		return apperrors.Newf(apperrors.KindInvalidSubmission, "absolute path not allowed: %s", name)
	case name == "." || name == ".." || strings.Contains(name, ".."+string(filepath.Separator)):
		return apperrors.Newf(apperrors.KindInvalidSubmission, "unsafe relative path: %s", name)
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0):
		return apperrors.Newf(apperrors.KindInvalidSubmission, "file name must not contain a path separator: %s", name)
	}
	return nil
}

// Clone returns a copy that shares no backing array with s.
func (s Submission) Clone() Submission {
	if s == nil {
		return nil
	}
	out := make(Submission, len(s))
	copy(out, s)
	return out
}
