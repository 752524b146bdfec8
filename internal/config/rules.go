package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
)

// Built-in tuning defaults, used when the config document leaves the
// corresponding field unset. Lower eps means tighter, more conservative
// merges; the defaults favor precision over recall.
const (
	DefaultEps            = 0.2
	DefaultTemplateWeight = 0.3
	DefaultVariableWeight = 0.7
)

// VariableConfig tunes one 0-based variable position of a rule.
type VariableConfig struct {
	Weight *float64 `json:"weight"`
	Levels *[]int   `json:"levels"`
}

// RuleOverride holds the per-rule values that shadow the global defaults.
type RuleOverride struct {
	Eps            *float64                  `json:"eps"`
	TemplateWeight *float64                  `json:"template_weight"`
	Variables      map[string]VariableConfig `json:"variables"`
}

// RuleClusteringConfig is the validated rule clustering config document.
type RuleClusteringConfig struct {
	DefaultEps            *float64                `json:"default_eps"`
	DefaultTemplateWeight *float64                `json:"default_template_weight"`
	DefaultVariableWeight *float64                `json:"default_variable_weight"`
	Rules                 map[string]RuleOverride `json:"rules"`
}

// ResolvedVariable is the effective tuning for one variable position.
type ResolvedVariable struct {
	Weight float64
	Levels []int // nil selects all levels
}

// Resolved is the effective tuning tuple for one rule after merging its
// overrides onto the global defaults.
type Resolved struct {
	Eps            float64
	TemplateWeight float64
	variableWeight float64
	variables      map[int]ResolvedVariable
}

// Variable returns the effective config for a variable position. Positions
// without an override use the default variable weight and select all levels.
func (r Resolved) Variable(pos int) ResolvedVariable {
	if v, ok := r.variables[pos]; ok {
		return v
	}
	return ResolvedVariable{Weight: r.variableWeight}
}

// DefaultRuleClusteringConfig returns a config carrying only the built-in
// defaults, used when no config document is supplied.
func DefaultRuleClusteringConfig() *RuleClusteringConfig {
	return &RuleClusteringConfig{}
}

// LoadRuleClusteringConfig reads and strictly validates a rule clustering
// config document. Any unknown key, non-positive eps, or negative weight is
// an error; a bad config is never partially applied.
func LoadRuleClusteringConfig(path string) (*RuleClusteringConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rule config: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()

	cfg := &RuleClusteringConfig{}
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("rule config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("rule config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *RuleClusteringConfig) validate() error {
	if err := checkPositive(c.DefaultEps, "default_eps"); err != nil {
		return err
	}
	if err := checkNonNegative(c.DefaultTemplateWeight, "default_template_weight"); err != nil {
		return err
	}
	if err := checkNonNegative(c.DefaultVariableWeight, "default_variable_weight"); err != nil {
		return err
	}

	ruleIDs := make([]string, 0, len(c.Rules))
	for id := range c.Rules {
		ruleIDs = append(ruleIDs, id)
	}
	sort.Strings(ruleIDs)

	for _, id := range ruleIDs {
		rule := c.Rules[id]
		if err := checkPositive(rule.Eps, "rules."+id+".eps"); err != nil {
			return err
		}
		if err := checkNonNegative(rule.TemplateWeight, "rules."+id+".template_weight"); err != nil {
			return err
		}
		for key, v := range rule.Variables {
			pos, err := strconv.Atoi(key)
			if err != nil || pos < 0 {
				return fmt.Errorf("rules.%s.variables: key %q must be a non-negative position index", id, key)
			}
			if err := checkNonNegative(v.Weight, fmt.Sprintf("rules.%s.variables.%s.weight", id, key)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Resolve returns the effective tuning for one rule, merging its overrides
// onto the document defaults and the built-in defaults.
func (c *RuleClusteringConfig) Resolve(ruleID string) Resolved {
	r := Resolved{
		Eps:            orDefault(c.DefaultEps, DefaultEps),
		TemplateWeight: orDefault(c.DefaultTemplateWeight, DefaultTemplateWeight),
		variableWeight: orDefault(c.DefaultVariableWeight, DefaultVariableWeight),
	}

	rule, ok := c.Rules[ruleID]
	if !ok {
		return r
	}
	if rule.Eps != nil {
		r.Eps = *rule.Eps
	}
	if rule.TemplateWeight != nil {
		r.TemplateWeight = *rule.TemplateWeight
	}
	if len(rule.Variables) > 0 {
		r.variables = make(map[int]ResolvedVariable, len(rule.Variables))
		for key, v := range rule.Variables {
			pos, err := strconv.Atoi(key)
			if err != nil {
				continue // rejected by validate
			}
			rv := ResolvedVariable{Weight: r.variableWeight}
			if v.Weight != nil {
				rv.Weight = *v.Weight
			}
			if v.Levels != nil {
				rv.Levels = append([]int(nil), (*v.Levels)...)
			}
			r.variables[pos] = rv
		}
	}
	return r
}

func orDefault(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

func checkPositive(v *float64, name string) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
		return fmt.Errorf("%s must be a positive finite number, got %v", name, *v)
	}
	return nil
}

func checkNonNegative(v *float64, name string) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return fmt.Errorf("%s must be a non-negative finite number, got %v", name, *v)
	}
	return nil
}
