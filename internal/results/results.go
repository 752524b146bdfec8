// Package results defines the on-disk JSON document a run produces and
// reads it back, including documents written by the legacy bare-list format.
package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/kyuns-96/sanity-log-parser/internal/model"
)

// SchemaVersion identifies the current results document layout.
const SchemaVersion = 2

// Document is the root of the results file.
type Document struct {
	SchemaVersion int           `json:"schema_version"`
	Run           RunMetadata   `json:"run"`
	Groups        []OutputGroup `json:"groups"`
}

// RunMetadata records provenance for one run.
type RunMetadata struct {
	RunID        string   `json:"run_id"`
	TimestampUTC string   `json:"timestamp_utc"`
	LogFile      string   `json:"log_file"`
	Counts       Counts   `json:"counts"`
	AI           AIStatus `json:"ai"`
}

// Counts summarizes how much each stage saw and produced. DeclaredLogs is
// the sum the rule declaration lines promised; a gap between it and
// ParsedLogs means the report had malformed or waived regions.
type Counts struct {
	DeclaredLogs int `json:"declared_logs"`
	ParsedLogs   int `json:"parsed_logs"`
	LogicGroups  int `json:"logic_groups"`
	FinalGroups  int `json:"final_groups"`
}

// AIStatus records whether the merge stage ran and with which backend.
type AIStatus struct {
	Enabled  bool     `json:"enabled"`
	Backend  string   `json:"backend,omitempty"`
	Reason   string   `json:"reason,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// OutputGroup is the JSON shape of one final group.
type OutputGroup struct {
	GroupType             string           `json:"group_type"`
	GroupID               string           `json:"group_id"`
	RuleID                string           `json:"rule_id"`
	RepresentativeLog     string           `json:"representative_log"`
	RepresentativePattern string           `json:"representative_pattern"`
	Sample                string           `json:"sample"`
	TotalCount            int              `json:"total_count"`
	MergedVariantsCount   int              `json:"merged_variants_count"`
	OriginalLogs          []string         `json:"original_logs"`
	SubgroupSummaries     []OutputSubgroup `json:"subgroup_summaries,omitempty"`
}

// OutputSubgroup is the JSON shape of one folded-in logic group.
type OutputSubgroup struct {
	Template string `json:"template"`
	Pattern  string `json:"pattern"`
	Count    int    `json:"count"`
}

// FromModel converts final groups to their output shape. maxLogs > 0 caps
// how many original log lines each group carries; 0 keeps them all.
func FromModel(groups []model.Group, maxLogs int) []OutputGroup {
	out := make([]OutputGroup, 0, len(groups))
	for _, g := range groups {
		logs := g.RawLogs
		if maxLogs > 0 && len(logs) > maxLogs {
			logs = logs[:maxLogs]
		}

		og := OutputGroup{
			GroupType:             string(g.Kind),
			GroupID:               g.ID,
			RuleID:                g.RuleID,
			RepresentativeLog:     g.Template,
			RepresentativePattern: g.Pattern,
			Sample:                g.Sample,
			TotalCount:            g.TotalCount,
			MergedVariantsCount:   g.MergedVariants,
			OriginalLogs:          logs,
		}
		for _, s := range g.Subgroups {
			og.SubgroupSummaries = append(og.SubgroupSummaries, OutputSubgroup{
				Template: s.Template,
				Pattern:  s.Pattern,
				Count:    s.Count,
			})
		}
		out = append(out, og)
	}
	return out
}

// Write serializes the document to path. indent > 0 pretty-prints with that
// many spaces.
func Write(path string, doc *Document, indent int) error {
	var data []byte
	var err error
	if indent > 0 {
		data, err = json.MarshalIndent(doc, "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("results: marshal: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("results: %w", err)
	}
	return nil
}

// Read loads a results file. Files written before the versioned envelope
// existed are a bare group list; those load with SchemaVersion 1 and empty
// run metadata.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("results: %w", err)
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var groups []OutputGroup
		if err := json.Unmarshal(data, &groups); err != nil {
			return nil, fmt.Errorf("results %s: %w", path, err)
		}
		return &Document{SchemaVersion: 1, Groups: groups}, nil
	}

	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("results %s: %w", path, err)
	}
	if doc.SchemaVersion == 0 {
		return nil, fmt.Errorf("results %s: missing schema_version", path)
	}
	return doc, nil
}
