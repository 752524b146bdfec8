package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/kyuns-96/sanity-log-parser/internal/config"
	"github.com/kyuns-96/sanity-log-parser/internal/embed/embedtest"
	"github.com/kyuns-96/sanity-log-parser/internal/model"
)

func logicGroup(rule, template string, count int, vars ...string) model.LogicGroup {
	raws := make([]string, count)
	for i := range raws {
		raws[i] = template
	}
	return model.LogicGroup{
		RuleID:    rule,
		Template:  template,
		Arity:     len(vars),
		Pattern:   "NO_VAR",
		Variables: vars,
		RawLogs:   raws,
		Count:     count,
		Severity:  model.SeverityError,
	}
}

func TestRunMergesEquivalentGroups(t *testing.T) {
	groups := []model.LogicGroup{
		logicGroup("TIM_0203", "Clock '<VAR>' is not defined", 3),
		logicGroup("TIM_0203", "Clock '<VAR>' has not been defined", 5),
		logicGroup("TIM_0203", "Input delay missing on port '<VAR>'", 2),
	}
	fake := &embedtest.Fake{Vectors: map[string][]float32{
		"Clock '<VAR>' is not defined":        {1, 0},
		"Clock '<VAR>' has not been defined":  {1, 0},
		"Input delay missing on port '<VAR>'": {0, 1},
	}}

	c := New(config.DefaultRuleClusteringConfig(), fake, 512)
	out, err := c.Run(context.Background(), groups)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Disabled {
		t.Fatalf("unexpected disabled outcome: %s", out.Reason)
	}
	if len(out.Groups) != 2 {
		t.Fatalf("expected 2 final groups, got %d", len(out.Groups))
	}

	merged := out.Groups[0]
	if merged.Kind != model.GroupMerged {
		t.Fatalf("expected merged group first, got %q", merged.Kind)
	}
	if merged.ID != "TIM_0203::merged::1" {
		t.Errorf("unexpected group id %q", merged.ID)
	}
	if merged.TotalCount != 8 {
		t.Errorf("expected total count 8, got %d", merged.TotalCount)
	}
	if merged.MergedVariants != 2 {
		t.Errorf("expected 2 merged variants, got %d", merged.MergedVariants)
	}
	// Representative is the member with the highest count.
	if merged.Template != "Clock '<VAR>' has not been defined" {
		t.Errorf("unexpected representative %q", merged.Template)
	}
	if len(merged.Subgroups) != 2 {
		t.Errorf("expected 2 subgroup summaries, got %d", len(merged.Subgroups))
	}
	if len(merged.RawLogs) != 8 {
		t.Errorf("expected 8 raw logs, got %d", len(merged.RawLogs))
	}

	single := out.Groups[1]
	if single.Kind != model.GroupLogic {
		t.Fatalf("expected logic group, got %q", single.Kind)
	}
	if single.ID != "TIM_0203::logic::1" {
		t.Errorf("unexpected group id %q", single.ID)
	}
	if single.MergedVariants != 1 {
		t.Errorf("expected 1 variant, got %d", single.MergedVariants)
	}
}

// Identical templates under different rules must never merge.
func TestRunNeverMergesAcrossRules(t *testing.T) {
	groups := []model.LogicGroup{
		logicGroup("TIM_0203", "Clock '<VAR>' is not defined", 1),
		logicGroup("TIM_0203", "Clock '<VAR>' is undefined", 1),
		logicGroup("CLK_0004", "Clock '<VAR>' is not defined", 1),
		logicGroup("CLK_0004", "Clock '<VAR>' is undefined", 1),
	}
	fake := &embedtest.Fake{Vectors: map[string][]float32{
		"Clock '<VAR>' is not defined": {1, 0},
		"Clock '<VAR>' is undefined":   {1, 0},
	}}

	c := New(config.DefaultRuleClusteringConfig(), fake, 512)
	out, err := c.Run(context.Background(), groups)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Groups) != 2 {
		t.Fatalf("expected one merged group per rule, got %d groups", len(out.Groups))
	}
	for _, g := range out.Groups {
		if g.MergedVariants != 2 {
			t.Errorf("group %s: expected 2 variants, got %d", g.ID, g.MergedVariants)
		}
	}
	if out.Groups[0].RuleID == out.Groups[1].RuleID {
		t.Fatal("expected one group per rule")
	}
}

// A rule with a single group never pays for embeddings.
func TestRunSkipsSingleGroupRules(t *testing.T) {
	groups := []model.LogicGroup{
		logicGroup("TIM_0203", "Clock '<VAR>' is not defined", 4),
	}
	fake := &embedtest.Fake{}

	c := New(config.DefaultRuleClusteringConfig(), fake, 512)
	out, err := c.Run(context.Background(), groups)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.CallCount() != 0 {
		t.Fatalf("expected no embedding calls, got %d", fake.CallCount())
	}
	if len(out.Groups) != 1 || out.Groups[0].Kind != model.GroupLogic {
		t.Fatalf("expected single logic group, got %+v", out.Groups)
	}
}

// Embedding failure degrades to pass-through instead of failing the run.
func TestRunDegradesOnEmbeddingFailure(t *testing.T) {
	groups := []model.LogicGroup{
		logicGroup("TIM_0203", "Clock '<VAR>' is not defined", 1),
		logicGroup("TIM_0203", "Clock '<VAR>' is undefined", 1),
	}
	fake := &embedtest.Fake{Err: errors.New("backend down")}

	c := New(config.DefaultRuleClusteringConfig(), fake, 512)
	out, err := c.Run(context.Background(), groups)
	if err != nil {
		t.Fatalf("expected degraded outcome, got error: %v", err)
	}
	if !out.Disabled {
		t.Fatal("expected disabled outcome")
	}
	if out.Reason == "" {
		t.Fatal("expected a reason for the degraded run")
	}
	if len(out.Groups) != 2 {
		t.Fatalf("expected 2 pass-through groups, got %d", len(out.Groups))
	}
	for _, g := range out.Groups {
		if g.MergedVariants != 1 {
			t.Errorf("group %s: expected 1 variant, got %d", g.ID, g.MergedVariants)
		}
	}
}

func TestRunContextCancellation(t *testing.T) {
	groups := []model.LogicGroup{
		logicGroup("TIM_0203", "a", 1),
		logicGroup("TIM_0203", "b", 1),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &embedtest.Fake{Err: context.Canceled}
	c := New(config.DefaultRuleClusteringConfig(), fake, 512)
	if _, err := c.Run(ctx, groups); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// Variable weights dominate with the default config, so groups whose
// variables differ strongly stay apart even with identical templates.
func TestRunVariableComponentSeparates(t *testing.T) {
	groups := []model.LogicGroup{
		logicGroup("NET_0101", "Net '<VAR>' has <NUM> loads", 1, "u_core/n1"),
		logicGroup("NET_0101", "Net '<VAR>' drives <NUM> loads", 1, "u_io/pad_7"),
	}
	// Templates embed identically; only the variable component separates.
	fake := &embedtest.Fake{Vectors: map[string][]float32{
		"Net '<VAR>' has <NUM> loads":    {1, 0, 0},
		"Net '<VAR>' drives <NUM> loads": {1, 0, 0},
		"u_core n1":                      {0, 1, 0},
		"u_io pad_7":                     {0, 0, 1},
	}}

	c := New(config.DefaultRuleClusteringConfig(), fake, 512)
	out, err := c.Run(context.Background(), groups)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Groups) != 2 {
		t.Fatalf("expected separate groups, got %d", len(out.Groups))
	}
}

// Zeroing a noise variable's weight leaves only the template component, so
// groups that differ solely in that variable merge.
func TestRunZeroWeightVariableIgnored(t *testing.T) {
	groups := []model.LogicGroup{
		logicGroup("NET_0101", "Net '<VAR>' has <NUM> loads", 1, "u_core/n1"),
		logicGroup("NET_0101", "Net '<VAR>' drives <NUM> loads", 1, "u_io/pad_7"),
	}
	fake := &embedtest.Fake{Vectors: map[string][]float32{
		"Net '<VAR>' has <NUM> loads":    {1, 0, 0},
		"Net '<VAR>' drives <NUM> loads": {1, 0, 0},
		"u_core n1":                      {0, 1, 0},
		"u_io pad_7":                     {0, 0, 1},
	}}

	zero := 0.0
	cfg := &config.RuleClusteringConfig{
		Rules: map[string]config.RuleOverride{
			"NET_0101": {Variables: map[string]config.VariableConfig{
				"0": {Weight: &zero},
			}},
		},
	}

	c := New(cfg, fake, 512)
	out, err := c.Run(context.Background(), groups)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Groups) != 1 {
		t.Fatalf("expected 1 merged group, got %d", len(out.Groups))
	}
	if out.Groups[0].MergedVariants != 2 {
		t.Fatalf("expected 2 merged variants, got %d", out.Groups[0].MergedVariants)
	}
}

func TestPassThrough(t *testing.T) {
	groups := []model.LogicGroup{
		logicGroup("TIM_0203", "a", 2),
		logicGroup("TIM_0203", "b", 1),
		logicGroup("CLK_0004", "c", 1),
	}
	out := PassThrough(groups)
	if len(out) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(out))
	}
	if out[0].ID != "TIM_0203::logic::1" || out[1].ID != "TIM_0203::logic::2" || out[2].ID != "CLK_0004::logic::1" {
		t.Fatalf("unexpected ids: %s, %s, %s", out[0].ID, out[1].ID, out[2].ID)
	}
}
