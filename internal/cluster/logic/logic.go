// Package logic implements the deterministic first-pass clustering stage:
// entries with the same rule id, normalized template, and variable arity
// collapse into one group. No similarity heuristics — pure equality on the
// identity tuple. This reduction is what keeps the semantic stage tractable.
package logic

import (
	"regexp"
	"strings"

	"github.com/kyuns-96/sanity-log-parser/internal/model"
)

// NoVarSignature is the display signature for groups without variables.
const NoVarSignature = "NO_VAR"

var digitPattern = regexp.MustCompile(`\d+`)

type identity struct {
	ruleID   string
	template string
	arity    int
}

// Run groups entries by identity, preserving first-occurrence order.
// The first entry of a group supplies its representative variable values
// and pattern; later entries only append their raw log and bump the count.
func Run(entries []model.ParsedLogEntry) []model.LogicGroup {
	index := make(map[identity]int)
	var groups []model.LogicGroup

	for _, e := range entries {
		id := identity{ruleID: e.RuleID, template: e.Template, arity: len(e.Variables)}
		if i, ok := index[id]; ok {
			groups[i].RawLogs = append(groups[i].RawLogs, e.RawLog)
			groups[i].Count++
			continue
		}
		index[id] = len(groups)
		groups = append(groups, model.LogicGroup{
			RuleID:    e.RuleID,
			Template:  e.Template,
			Arity:     len(e.Variables),
			Pattern:   Signature(e.Variables),
			Variables: append([]string(nil), e.Variables...),
			RawLogs:   []string{e.RawLog},
			Count:     1,
			Severity:  e.Severity,
		})
	}
	return groups
}

// Signature renders variable values as a digit-masked display pattern:
// digits become "*" and positions are joined with " / ".
func Signature(vars []string) string {
	if len(vars) == 0 {
		return NoVarSignature
	}
	masked := make([]string, len(vars))
	for i, v := range vars {
		masked[i] = digitPattern.ReplaceAllString(v, "*")
	}
	return strings.Join(masked, " / ")
}
