// Package view renders a results document for terminal reading.
package view

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/kyuns-96/sanity-log-parser/internal/results"
)

var (
	header    = color.New(color.FgCyan, color.Bold)
	ruleStyle = color.New(color.FgYellow, color.Bold)
	mergedTag = color.New(color.FgMagenta)
	countTag  = color.New(color.FgGreen)
	dimmed    = color.New(color.Faint)
	warnStyle = color.New(color.FgRed)
)

// Render writes a human-readable summary of the document. limit > 0 caps
// how many groups are shown; 0 shows them all.
func Render(w io.Writer, doc *results.Document, limit int) {
	header.Fprintln(w, "Sanity log analysis")
	if doc.Run.LogFile != "" {
		fmt.Fprintf(w, "  report:    %s\n", doc.Run.LogFile)
	}
	if doc.Run.TimestampUTC != "" {
		fmt.Fprintf(w, "  run:       %s (%s)\n", doc.Run.TimestampUTC, doc.Run.RunID)
	}
	fmt.Fprintf(w, "  parsed:    %d logs -> %d logic groups -> %d final groups\n",
		doc.Run.Counts.ParsedLogs, doc.Run.Counts.LogicGroups, doc.Run.Counts.FinalGroups)
	renderAIStatus(w, doc.Run.AI)
	fmt.Fprintln(w)

	groups := doc.Groups
	truncated := 0
	if limit > 0 && len(groups) > limit {
		truncated = len(groups) - limit
		groups = groups[:limit]
	}

	for _, g := range groups {
		ruleStyle.Fprintf(w, "%s", g.RuleID)
		fmt.Fprint(w, "  ")
		countTag.Fprintf(w, "x%d", g.TotalCount)
		if g.MergedVariantsCount > 1 {
			fmt.Fprint(w, "  ")
			mergedTag.Fprintf(w, "merged(%d)", g.MergedVariantsCount)
		}
		fmt.Fprintf(w, "  %s\n", g.RepresentativeLog)
		dimmed.Fprintf(w, "    id: %s", g.GroupID)
		if g.RepresentativePattern != "" {
			dimmed.Fprintf(w, "  pattern: %s", g.RepresentativePattern)
		}
		fmt.Fprintln(w)
		for _, s := range g.SubgroupSummaries {
			dimmed.Fprintf(w, "    - x%d %s\n", s.Count, s.Template)
		}
	}

	if truncated > 0 {
		fmt.Fprintln(w)
		dimmed.Fprintf(w, "... %d more groups not shown\n", truncated)
	}
}

func renderAIStatus(w io.Writer, ai results.AIStatus) {
	if ai.Enabled {
		fmt.Fprintf(w, "  ai merge:  on (%s)\n", ai.Backend)
	} else if ai.Reason != "" {
		fmt.Fprint(w, "  ai merge:  ")
		warnStyle.Fprintf(w, "off (%s)\n", ai.Reason)
	} else {
		fmt.Fprintln(w, "  ai merge:  off")
	}
	for _, warning := range ai.Warnings {
		fmt.Fprint(w, "  ")
		warnStyle.Fprintf(w, "warning: %s\n", warning)
	}
}
