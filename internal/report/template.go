package report

import (
	"regexp"
	"strings"
)

// Placeholder tokens used when normalizing message text into a template.
const (
	varPlaceholder = "'<VAR>'"
	numPlaceholder = "<NUM>"
)

var (
	varPattern = regexp.MustCompile(`'(.*?)'`)
	numPattern = regexp.MustCompile(`\b\d+\b`)
)

// Normalize masks a message into its template form. Quoted regions are
// masked first so digits embedded in variable values are not re-masked by
// the standalone-number pass; the order of the two passes matters.
func Normalize(text string) string {
	masked := varPattern.ReplaceAllString(text, varPlaceholder)
	masked = numPattern.ReplaceAllString(masked, numPlaceholder)
	return strings.TrimSpace(masked)
}

// ExtractVariables returns every single-quoted substring of the message,
// in left-to-right order. Applies uniformly to rule declarations (whose
// message is the template) and instance lines (whose message is the data).
func ExtractVariables(text string) []string {
	matches := varPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	vars := make([]string, len(matches))
	for i, m := range matches {
		vars[i] = m[1]
	}
	return vars
}
