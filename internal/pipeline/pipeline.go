// Package pipeline connects the parsing, clustering, and output stages
// into one run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kyuns-96/sanity-log-parser/internal/cluster/ai"
	"github.com/kyuns-96/sanity-log-parser/internal/cluster/logic"
	"github.com/kyuns-96/sanity-log-parser/internal/config"
	"github.com/kyuns-96/sanity-log-parser/internal/embed"
	"github.com/kyuns-96/sanity-log-parser/internal/model"
	"github.com/kyuns-96/sanity-log-parser/internal/report"
	"github.com/kyuns-96/sanity-log-parser/internal/results"
)

// Options configures one pipeline run. Embedder may be nil only when
// AIEnabled is false.
type Options struct {
	ReportPath string
	RuleConfig *config.RuleClusteringConfig
	AIEnabled  bool
	Embedder   embed.Embedder
	Backend    string // recorded in run metadata when AI is enabled
	BatchSize  int
	MaxLogs    int // cap original logs per output group, 0 keeps all
	Warnings   []string
}

// Run parses the report, clusters it, and assembles the results document.
// A report yielding zero violation instances is an error; embedding
// failures are not, they degrade the run to logic groups only.
func Run(ctx context.Context, opts Options) (*results.Document, error) {
	parser := report.NewParser()
	parsed, err := parser.ParseFile(opts.ReportPath)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if len(parsed.Entries) == 0 {
		return nil, fmt.Errorf("pipeline: no parseable violation instances in %s", opts.ReportPath)
	}
	slog.Info("parsed report",
		"file", opts.ReportPath,
		"entries", len(parsed.Entries),
		"declarations", len(parsed.Declarations),
		"dropped", parsed.Dropped)

	declared := 0
	for _, d := range parsed.Declarations {
		declared += d.DeclaredCount
	}
	if declared != len(parsed.Entries) {
		slog.Warn("declared and parsed instance counts differ",
			"declared", declared, "parsed", len(parsed.Entries))
	}

	logicGroups := logic.Run(parsed.Entries)
	slog.Debug("logic clustering done", "groups", len(logicGroups))

	aiStatus := results.AIStatus{Enabled: opts.AIEnabled, Warnings: opts.Warnings}
	var final []model.Group
	if opts.AIEnabled {
		clusterer := ai.New(opts.RuleConfig, opts.Embedder, opts.BatchSize)
		outcome, err := clusterer.Run(ctx, logicGroups)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		final = outcome.Groups
		aiStatus.Backend = opts.Backend
		if outcome.Disabled {
			aiStatus.Enabled = false
			aiStatus.Reason = outcome.Reason
		}
	} else {
		final = ai.PassThrough(logicGroups)
	}

	// Biggest problems first; equal counts keep rule order.
	sort.SliceStable(final, func(i, j int) bool {
		return final[i].TotalCount > final[j].TotalCount
	})

	doc := &results.Document{
		SchemaVersion: results.SchemaVersion,
		Run: results.RunMetadata{
			RunID:        uuid.NewString(),
			TimestampUTC: time.Now().UTC().Format(time.RFC3339),
			LogFile:      opts.ReportPath,
			Counts: results.Counts{
				DeclaredLogs: declared,
				ParsedLogs:   len(parsed.Entries),
				LogicGroups:  len(logicGroups),
				FinalGroups:  len(final),
			},
			AI: aiStatus,
		},
		Groups: results.FromModel(final, opts.MaxLogs),
	}
	return doc, nil
}
