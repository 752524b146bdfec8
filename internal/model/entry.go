package model

// Severity is the report section scope a rule was declared under.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// RuleDeclaration is a parent line declaring a rule and its instance counts.
// It appears exactly once per rule in a well-formed report; the instance
// lines that follow it inherit its identity.
type RuleDeclaration struct {
	RuleID        string
	DeclaredCount int
	WaivedCount   int
	Message       string // template message with placeholder variables
	Severity      Severity
}

// ParsedLogEntry is the parser's output for one accepted "N of M" instance
// line: the raw message plus the fields the clustering stages key on.
type ParsedLogEntry struct {
	RuleID    string
	RawLog    string
	Template  string   // message with quoted values and standalone numbers masked
	Variables []string // quoted substrings in left-to-right order
	Severity  Severity
}
