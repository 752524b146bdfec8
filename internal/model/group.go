package model

// LogicGroup accumulates entries sharing the identity
// (rule id, normalized template, variable arity). Immutable once the
// logic clustering pass over a rule finishes.
type LogicGroup struct {
	RuleID    string
	Template  string
	Arity     int
	Pattern   string   // digit-masked variable signature of the first member, for display
	Variables []string // representative variable values (first member, one per position)
	RawLogs   []string
	Count     int
	Severity  Severity
}

// GroupKind distinguishes untouched logic groups from AI-merged super-groups.
type GroupKind string

const (
	GroupLogic  GroupKind = "logic"
	GroupMerged GroupKind = "merged"
)

// Group is one entry of the final output: either a logic group passed
// through unchanged or a super-group merging 2+ logic groups judged
// semantically equivalent.
type Group struct {
	Kind           GroupKind
	ID             string // {rule_id}::{kind}::{sequence}
	RuleID         string
	Template       string // representative template (largest member for merged groups)
	Pattern        string
	Sample         string // representative sample line
	TotalCount     int
	MergedVariants int // 1 for unmerged
	RawLogs        []string
	Subgroups      []SubgroupSummary // populated for merged groups only
}

// SubgroupSummary describes one logic group folded into a super-group.
type SubgroupSummary struct {
	Template string
	Pattern  string
	Count    int
}
