package analysis

import (
	"regexp"
	"strings"
)

var (
	jsFunctionDecl = regexp.MustCompile(`\bfunction\s+(\w+)`)
	pyFunctionDecl = regexp.MustCompile(`\bdef\s+(\w+)`)

	integerLiteral = regexp.MustCompile(`\b\d+\b`)

	jsDeclarationTail = regexp.MustCompile(`(?:const|let|var)\s+\w+\s*=\s*$`)
	jsTrailingComment = regexp.MustCompile(`^\s*[;,]?\s*(?://|/\*)`)
	pyOperatorTail    = regexp.MustCompile(`[=+\-*/]\s*$`)
	pyTrailingComment = regexp.MustCompile(`^\s*[;,]?\s*#`)

	jsBindingKeyword = regexp.MustCompile(`const|let|var|function|class`)
	jsAssignmentHead = regexp.MustCompile(`^\s*\w+\s*=`)

	imgTag       = regexp.MustCompile(`(?i)<img\b[^>]*>`)
	altAttribute = regexp.MustCompile(`(?i)\balt\s*=`)

	cssBlock = regexp.MustCompile(`[^{}]+\{[^}]*\}`)
	cssColor = regexp.MustCompile(`#[a-fA-F0-9]{3,6}|rgb\([^)]+\)`)
)

// recursion counts declared functions that call themselves inside their own
// body. bodyOf returns the body span for a declaration ending at offset end.
func recursion(decl *regexp.Regexp, bodyOf func(content string, end int) string) Matcher {
	return MatcherFunc(func(content string) int {
		count := 0
		for _, m := range decl.FindAllStringSubmatchIndex(content, -1) {
			name := content[m[2]:m[3]]
			call := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\s*\(`)
			if call.MatchString(bodyOf(content, m[3])) {
				count++
			}
		}
		return count
	})
}

// braceBody returns the text between the first '{' after end and its
// matching '}', or up to the end of content when unbalanced.
func braceBody(content string, end int) string {
	open := strings.IndexByte(content[end:], '{')
	if open < 0 {
		return ""
	}
	open += end
	depth := 0
	for i := open; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[open+1 : i]
			}
		}
	}
	return content[open+1:]
}

// indentBody returns the rest of the declaring line plus every following
// line indented deeper than it. Blank lines do not end the block.
func indentBody(content string, end int) string {
	lineStart := strings.LastIndexByte(content[:end], '\n') + 1
	indent := leadingWhitespace(content[lineStart:])

	stop := len(content)
	pos := end
	if i := strings.IndexByte(content[pos:], '\n'); i >= 0 {
		pos += i + 1
	} else {
		pos = len(content)
	}
	for pos < len(content) {
		next := strings.IndexByte(content[pos:], '\n')
		line := content[pos:]
		if next >= 0 {
			line = content[pos : pos+next]
		}
		if strings.TrimSpace(line) != "" && leadingWhitespace(line) <= indent {
			stop = pos
			break
		}
		if next < 0 {
			break
		}
		pos += next + 1
	}
	return content[end:stop]
}

func leadingWhitespace(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// magicNumbers counts integer literals that are neither the direct value of
// a named binding (skip) nor followed by an explanatory comment on the same
// line (keep). Both checks look at the literal's own line only.
func magicNumbers(skipBefore, commentAfter *regexp.Regexp) Matcher {
	return MatcherFunc(func(content string) int {
		count := 0
		for _, loc := range integerLiteral.FindAllStringIndex(content, -1) {
			lineStart := strings.LastIndexByte(content[:loc[0]], '\n') + 1
			lineEnd := len(content)
			if i := strings.IndexByte(content[loc[1]:], '\n'); i >= 0 {
				lineEnd = loc[1] + i
			}
			if skipBefore.MatchString(content[lineStart:loc[0]]) {
				continue
			}
			if commentAfter.MatchString(content[loc[1]:lineEnd]) {
				continue
			}
			count++
		}
		return count
	})
}

// globalAssignment counts lines that assign to a bare identifier without any
// declaration keyword on the line.
func globalAssignment() Matcher {
	return MatcherFunc(func(content string) int {
		count := 0
		for _, line := range strings.Split(content, "\n") {
			if jsBindingKeyword.MatchString(line) {
				continue
			}
			if jsAssignmentHead.MatchString(line) {
				count++
			}
		}
		return count
	})
}

// missingAlt counts img tags without an alt attribute.
func missingAlt() Matcher {
	return MatcherFunc(func(content string) int {
		count := 0
		for _, tag := range imgTag.FindAllString(content, -1) {
			if !altAttribute.MatchString(tag) {
				count++
			}
		}
		return count
	})
}

// missingDoctype reports 1 when the document does not open with a doctype.
func missingDoctype() Matcher {
	return MatcherFunc(func(content string) int {
		head := strings.ToLower(strings.TrimSpace(content))
		if strings.HasPrefix(head, "<!doctype") {
			return 0
		}
		return 1
	})
}

// distinctColors counts distinct hex and rgb() literals, case-insensitively
// and ignoring whitespace inside rgb().
func distinctColors() Matcher {
	return MatcherFunc(func(content string) int {
		seen := make(map[string]struct{})
		for _, c := range cssColor.FindAllString(content, -1) {
			key := strings.ToLower(strings.Join(strings.Fields(c), ""))
			seen[key] = struct{}{}
		}
		return len(seen)
	})
}

// duplicateBlocks counts rule blocks that appear again, verbatim after
// trimming, later in the stylesheet.
func duplicateBlocks() Matcher {
	return MatcherFunc(func(content string) int {
		blocks := cssBlock.FindAllString(content, -1)
		count := 0
		for i, b := range blocks {
			b = strings.TrimSpace(b)
			for _, later := range blocks[i+1:] {
				if strings.TrimSpace(later) == b {
					count++
					break
				}
			}
		}
		return count
	})
}
