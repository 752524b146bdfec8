// Package ai merges logic groups that say the same thing in slightly
// different words. Each rule's groups are embedded (template plus per-
// variable texts), compared with a weighted cosine distance, and folded
// into super-groups by density clustering. Merging never crosses rule
// boundaries.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kyuns-96/sanity-log-parser/internal/config"
	"github.com/kyuns-96/sanity-log-parser/internal/embed"
	"github.com/kyuns-96/sanity-log-parser/internal/model"
)

// Outcome is the result of the AI merge stage. When embedding fails the
// stage degrades instead of aborting: Disabled is set, Reason explains why,
// and Groups carries every logic group passed through unmerged.
type Outcome struct {
	Groups   []model.Group
	Disabled bool
	Reason   string
}

// Clusterer runs the AI merge stage.
type Clusterer struct {
	cfg       *config.RuleClusteringConfig
	embedder  embed.Embedder
	batchSize int
}

// New creates a Clusterer. batchSize caps how many texts go into one
// embedding call; values below 1 fall back to the default.
func New(cfg *config.RuleClusteringConfig, embedder embed.Embedder, batchSize int) *Clusterer {
	if batchSize < 1 {
		batchSize = config.DefaultEmbedBatchSize
	}
	return &Clusterer{cfg: cfg, embedder: embedder, batchSize: batchSize}
}

// ruleSlots records where each of a rule's component texts landed in the
// shared embedding plan. template[g] and variables[p][g] are plan indices;
// -1 marks an inactive component for that group.
type ruleSlots struct {
	ruleID    string
	groups    []model.LogicGroup
	resolved  config.Resolved
	template  []int
	variables [][]int
}

// Run merges each rule's logic groups and returns the final group list in
// rule-first-appearance order. The only error it returns is context
// cancellation; embedding failures degrade to a pass-through outcome.
func (c *Clusterer) Run(ctx context.Context, logicGroups []model.LogicGroup) (Outcome, error) {
	byRule, ruleOrder := groupByRule(logicGroups)

	// One shared plan covers every rule, so small rules ride along in the
	// same chunks as large ones.
	plan := &embedPlan{}
	slots := make(map[string]*ruleSlots, len(ruleOrder))
	for _, ruleID := range ruleOrder {
		groups := byRule[ruleID]
		if len(groups) < 2 {
			continue // nothing to merge, never pay for embeddings
		}
		slots[ruleID] = c.planRule(plan, ruleID, groups)
	}

	var vectors [][]float32
	if plan.size() > 0 {
		var err error
		vectors, err = plan.embedAll(ctx, c.embedder, c.batchSize)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return Outcome{}, err
			}
			slog.Warn("embedding failed, continuing without AI merge", "error", err)
			return Outcome{
				Groups:   PassThrough(logicGroups),
				Disabled: true,
				Reason:   fmt.Sprintf("embedding failed: %v", err),
			}, nil
		}
	}

	// Cluster each rule independently. The matrices are the expensive part,
	// so rules run in parallel; assembly order stays deterministic because
	// results land in per-rule slots.
	merged := make(map[string][]model.Group, len(ruleOrder))
	var mu sync.Mutex
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentChunks)
	for _, ruleID := range ruleOrder {
		rs, ok := slots[ruleID]
		if !ok {
			continue
		}
		g.Go(func() error {
			out := mergeRule(rs, vectors)
			mu.Lock()
			merged[rs.ruleID] = out
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers only return nil

	var final []model.Group
	for _, ruleID := range ruleOrder {
		if out, ok := merged[ruleID]; ok {
			final = append(final, out...)
			continue
		}
		final = append(final, passThroughRule(byRule[ruleID])...)
	}
	return Outcome{Groups: final}, nil
}

// PassThrough converts logic groups straight to final groups without any
// merging, used when the AI stage is off or embedding failed.
func PassThrough(logicGroups []model.LogicGroup) []model.Group {
	byRule, ruleOrder := groupByRule(logicGroups)
	var final []model.Group
	for _, ruleID := range ruleOrder {
		final = append(final, passThroughRule(byRule[ruleID])...)
	}
	return final
}

func groupByRule(logicGroups []model.LogicGroup) (map[string][]model.LogicGroup, []string) {
	byRule := make(map[string][]model.LogicGroup)
	var order []string
	for _, g := range logicGroups {
		if _, seen := byRule[g.RuleID]; !seen {
			order = append(order, g.RuleID)
		}
		byRule[g.RuleID] = append(byRule[g.RuleID], g)
	}
	return byRule, order
}

// planRule registers the rule's template and variable texts in the plan.
func (c *Clusterer) planRule(plan *embedPlan, ruleID string, groups []model.LogicGroup) *ruleSlots {
	resolved := c.cfg.Resolve(ruleID)

	maxArity := 0
	for _, g := range groups {
		if g.Arity > maxArity {
			maxArity = g.Arity
		}
	}

	rs := &ruleSlots{
		ruleID:    ruleID,
		groups:    groups,
		resolved:  resolved,
		template:  make([]int, len(groups)),
		variables: make([][]int, maxArity),
	}

	for i, g := range groups {
		rs.template[i] = planText(plan, g.Template)
	}
	for pos := 0; pos < maxArity; pos++ {
		levels := resolved.Variable(pos).Levels
		rs.variables[pos] = make([]int, len(groups))
		for i, g := range groups {
			if pos >= len(g.Variables) {
				rs.variables[pos][i] = -1
				continue
			}
			rs.variables[pos][i] = planText(plan, SelectLevels(g.Variables[pos], levels))
		}
	}
	return rs
}

// planText adds a non-empty text to the plan; empty texts are inactive.
func planText(plan *embedPlan, text string) int {
	if text == "" {
		return -1
	}
	return plan.add(text)
}

// mergeRule builds the rule's distance matrix from the shared vectors and
// folds eps-connected groups into super-groups.
func mergeRule(rs *ruleSlots, vectors [][]float32) []model.Group {
	n := len(rs.groups)

	components := make([]Component, 0, 1+len(rs.variables))
	tmpl := Component{Weight: rs.resolved.TemplateWeight, Vectors: make([][]float32, n)}
	for i, idx := range rs.template {
		tmpl.Vectors[i] = at(vectors, idx)
	}
	components = append(components, tmpl)

	for pos, slots := range rs.variables {
		c := Component{Weight: rs.resolved.Variable(pos).Weight, Vectors: make([][]float32, n)}
		for i, idx := range slots {
			c.Vectors[i] = at(vectors, idx)
		}
		components = append(components, c)
	}

	labels := clusterLabels(Matrix(n, components), rs.resolved.Eps)

	// Collect members per label in first-encounter order.
	nLabels := 0
	for _, l := range labels {
		if l+1 > nLabels {
			nLabels = l + 1
		}
	}
	members := make([][]model.LogicGroup, nLabels)
	for i, l := range labels {
		members[l] = append(members[l], rs.groups[i])
	}

	var out []model.Group
	logicSeq, mergedSeq := 0, 0
	for _, mm := range members {
		if len(mm) == 1 {
			logicSeq++
			out = append(out, finalizeLogic(mm[0], logicSeq))
			continue
		}
		mergedSeq++
		out = append(out, finalizeMerged(rs.ruleID, mm, mergedSeq))
	}
	return out
}

func passThroughRule(groups []model.LogicGroup) []model.Group {
	out := make([]model.Group, 0, len(groups))
	for i, g := range groups {
		out = append(out, finalizeLogic(g, i+1))
	}
	return out
}

func finalizeLogic(g model.LogicGroup, seq int) model.Group {
	return model.Group{
		Kind:           model.GroupLogic,
		ID:             groupID(g.RuleID, model.GroupLogic, seq),
		RuleID:         g.RuleID,
		Template:       g.Template,
		Pattern:        g.Pattern,
		Sample:         sampleOf(g),
		TotalCount:     g.Count,
		MergedVariants: 1,
		RawLogs:        g.RawLogs,
	}
}

// finalizeMerged builds a super-group. The representative is the member
// with the highest count; ties keep the earliest member.
func finalizeMerged(ruleID string, members []model.LogicGroup, seq int) model.Group {
	rep := members[0]
	total := 0
	var rawLogs []string
	subgroups := make([]model.SubgroupSummary, 0, len(members))
	for _, m := range members {
		if m.Count > rep.Count {
			rep = m
		}
		total += m.Count
		rawLogs = append(rawLogs, m.RawLogs...)
		subgroups = append(subgroups, model.SubgroupSummary{
			Template: m.Template,
			Pattern:  m.Pattern,
			Count:    m.Count,
		})
	}

	return model.Group{
		Kind:           model.GroupMerged,
		ID:             groupID(ruleID, model.GroupMerged, seq),
		RuleID:         ruleID,
		Template:       rep.Template,
		Pattern:        rep.Pattern,
		Sample:         sampleOf(rep),
		TotalCount:     total,
		MergedVariants: len(members),
		RawLogs:        rawLogs,
		Subgroups:      subgroups,
	}
}

func groupID(ruleID string, kind model.GroupKind, seq int) string {
	return fmt.Sprintf("%s::%s::%d", ruleID, kind, seq)
}

func sampleOf(g model.LogicGroup) string {
	if len(g.RawLogs) > 0 {
		return g.RawLogs[0]
	}
	return g.Template
}
