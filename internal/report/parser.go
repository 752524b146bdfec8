package report

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/kyuns-96/sanity-log-parser/internal/model"
)

var (
	severityPattern = regexp.MustCompile(`^\s+(error|warning|info)\s+(\d+)\s+(\d+)\s*$`)
	declPattern     = regexp.MustCompile(`^\s*([A-Z]{3}_\d{4})\s+(\d+)\s+(\d+)\s+(\S.*)$`)
	instancePattern = regexp.MustCompile(`^\s+(\d+)\s+of\s+(\d+)\s+(\d+)\s+(\S.*)$`)

	// counterPattern distinguishes instance lines from declarations whose
	// message happens to end in digits.
	counterPattern = regexp.MustCompile(`\b\d+\s+of\s+\d+\b`)
)

// headerWords are the first tokens of boilerplate lines: the Report/Version/
// Date/Design block, statistics-table headers, and scenario headers.
var headerWords = map[string]bool{
	"Report":   true,
	"Version":  true,
	"Date":     true,
	"Design":   true,
	"Scenario": true,
	"Severity": true,
	"Rule":     true,
}

// lineKind tags the classification outcome for one report line.
type lineKind int

const (
	lineSkip lineKind = iota
	lineSeverity
	lineDeclaration
	lineInstance
)

// classified is the tagged result of classifying a single line. Only the
// fields relevant to the kind are populated.
type classified struct {
	kind     lineKind
	severity model.Severity
	ruleID   string
	counter  int
	total    int
	waived   int
	message  string
}

// parserState tracks the positional context lines establish: the severity
// section being read and the rule whose instances follow.
type parserState struct {
	severity model.Severity
	ruleID   string
}

// Result holds everything one parsing pass recovered from a report.
type Result struct {
	Entries      []model.ParsedLogEntry
	Declarations []model.RuleDeclaration
	Dropped      int // instance lines without rule context, discarded
	Skipped      int
}

// Parser walks report lines through the
// AwaitingSection → InSection → InRule state machine.
type Parser struct{}

// NewParser returns a report parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile parses a single report file from disk.
func (p *Parser) ParseFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("report: open %s: %w", path, err)
	}
	defer f.Close()

	res, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("report: parse %s: %w", path, err)
	}
	return res, nil
}

// Parse consumes report text line by line and returns the accepted entries
// and declarations. Lines that match no known shape are skipped without
// error; unknown report regions must not abort parsing.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	res := &Result{}
	st := parserState{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		p.processLine(scanner.Text(), &st, res)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	slog.Debug("report parsed",
		"entries", len(res.Entries),
		"declarations", len(res.Declarations),
		"dropped", res.Dropped,
		"skipped", res.Skipped)
	return res, nil
}

func (p *Parser) processLine(line string, st *parserState, res *Result) {
	c := classifyLine(line)
	switch c.kind {
	case lineSeverity:
		st.severity = c.severity
		st.ruleID = ""

	case lineDeclaration:
		st.ruleID = c.ruleID
		res.Declarations = append(res.Declarations, model.RuleDeclaration{
			RuleID:        c.ruleID,
			DeclaredCount: c.total,
			WaivedCount:   c.waived,
			Message:       c.message,
			Severity:      st.severity,
		})

	case lineInstance:
		if st.ruleID == "" {
			// Instance with no rule context is a structural anomaly:
			// drop the line and keep going.
			slog.Warn("dropping instance line without rule context",
				"line", truncate(strings.TrimSpace(line), 80))
			res.Dropped++
			return
		}
		res.Entries = append(res.Entries, model.ParsedLogEntry{
			RuleID:    st.ruleID,
			RawLog:    c.message,
			Template:  Normalize(c.message),
			Variables: ExtractVariables(c.message),
			Severity:  st.severity,
		})

	case lineSkip:
		res.Skipped++
	}
}

// classifyLine matches a line against the known shapes in priority order:
// boilerplate, severity section, rule declaration, instance. Anything else
// is a skip.
func classifyLine(line string) classified {
	if isBoilerplate(line) {
		return classified{kind: lineSkip}
	}

	if m := severityPattern.FindStringSubmatch(line); m != nil {
		return classified{kind: lineSeverity, severity: model.Severity(m[1])}
	}

	if m := declPattern.FindStringSubmatch(line); m != nil && !counterPattern.MatchString(line) {
		return classified{
			kind:    lineDeclaration,
			ruleID:  m[1],
			total:   mustAtoi(m[2]),
			waived:  mustAtoi(m[3]),
			message: strings.TrimSpace(m[4]),
		}
	}

	if m := instancePattern.FindStringSubmatch(line); m != nil {
		return classified{
			kind:    lineInstance,
			counter: mustAtoi(m[1]),
			total:   mustAtoi(m[2]),
			waived:  mustAtoi(m[3]),
			message: strings.TrimSpace(m[4]),
		}
	}

	return classified{kind: lineSkip}
}

// isBoilerplate reports whether the line is a delimiter row, a header-block
// line, or a statistics-table header.
func isBoilerplate(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}
	if isSeparator(trimmed) {
		return true
	}
	first := strings.TrimSuffix(strings.Fields(trimmed)[0], ":")
	return headerWords[first]
}

// isSeparator matches rows made entirely of delimiter characters.
func isSeparator(trimmed string) bool {
	for _, r := range trimmed {
		switch r {
		case '-', '=', '*', '#', '_':
		default:
			return false
		}
	}
	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
