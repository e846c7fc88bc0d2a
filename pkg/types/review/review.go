// Package review defines the shared value types produced by skill
// validation: severities, findings, verdicts, and per-run results.
// All types in this package are immutable values with no behavior
// beyond ordering and formatting, so every other package can depend
// on them without import cycles.
package review

import (
	"fmt"
	"strings"
)

// Severity classifies how badly a finding breaks a skill.
type Severity int

const (
	// SeverityBlocker means the skill cannot be used as published.
	SeverityBlocker Severity = iota
	// SeverityCritical means the skill will mislead its consumer.
	SeverityCritical
	// SeverityMajor means the skill works but violates the rubric.
	SeverityMajor
	// SeverityMinor is a polish-level observation.
	SeverityMinor
)

// Severities lists all severities in priority order, worst first.
var Severities = []Severity{SeverityBlocker, SeverityCritical, SeverityMajor, SeverityMinor}

// String returns the canonical upper-case name used in reports.
func (s Severity) String() string {
	switch s {
	case SeverityBlocker:
		return "BLOCKER"
	case SeverityCritical:
		return "CRITICAL"
	case SeverityMajor:
		return "MAJOR"
	case SeverityMinor:
		return "MINOR"
	default:
		return fmt.Sprintf("SEVERITY(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler for JSON output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so machine-readable
// reports round-trip.
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "BLOCKER":
		*s = SeverityBlocker
	case "CRITICAL":
		*s = SeverityCritical
	case "MAJOR":
		*s = SeverityMajor
	case "MINOR":
		*s = SeverityMinor
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// Finding is one reported rule violation. Findings are values;
// rules construct them and nothing mutates them afterwards.
type Finding struct {
	RuleID   string   `json:"ruleId"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	// Location is a frontmatter field name, "line N", or a sibling
	// file name; empty when the finding applies to the whole artifact.
	Location string `json:"location,omitempty"`
}

// Verdict is the aggregate outcome for one artifact or one batch run.
type Verdict int

const (
	// VerdictPass means zero findings.
	VerdictPass Verdict = iota
	// VerdictPassWithMinor means only MINOR findings.
	VerdictPassWithMinor
	// VerdictNeedsWork means MAJOR findings but nothing worse.
	VerdictNeedsWork
	// VerdictFail means at least one BLOCKER or CRITICAL finding.
	VerdictFail
)

// String returns the canonical name used in reports.
func (v Verdict) String() string {
	switch v {
	case VerdictPass:
		return "PASS"
	case VerdictPassWithMinor:
		return "PASS_WITH_MINOR"
	case VerdictNeedsWork:
		return "NEEDS_WORK"
	case VerdictFail:
		return "FAIL"
	default:
		return fmt.Sprintf("VERDICT(%d)", int(v))
	}
}

// MarshalText implements encoding.TextMarshaler for JSON output.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so machine-readable
// reports round-trip.
func (v *Verdict) UnmarshalText(text []byte) error {
	switch string(text) {
	case "PASS":
		*v = VerdictPass
	case "PASS_WITH_MINOR":
		*v = VerdictPassWithMinor
	case "NEEDS_WORK":
		*v = VerdictNeedsWork
	case "FAIL":
		*v = VerdictFail
	default:
		return fmt.Errorf("unknown verdict %q", text)
	}
	return nil
}

// Counts holds per-severity finding totals for one artifact.
type Counts map[Severity]int

// Total returns the number of findings across all severities.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Summary renders the compact one-line form used at the bottom of
// every report, e.g. "BLOCKER: 1  CRITICAL: 0  MAJOR: 2  MINOR: 0".
func (c Counts) Summary() string {
	parts := make([]string, 0, len(Severities))
	for _, sev := range Severities {
		parts = append(parts, fmt.Sprintf("%s: %d", sev, c[sev]))
	}
	return strings.Join(parts, "  ")
}

// Result is the outcome of validating one skill artifact.
type Result struct {
	Directory string    `json:"directory"`
	SkillName string    `json:"skillName,omitempty"`
	Findings  []Finding `json:"findings"`
	Counts    Counts    `json:"counts"`
	Verdict   Verdict   `json:"verdict"`
}

// BatchSummary aggregates results across a batch run.
type BatchSummary struct {
	// RunID correlates log lines for one run; it is excluded from
	// rendered output so reports stay byte-identical across runs.
	RunID         string          `json:"-"`
	Results       []Result        `json:"results"`
	VerdictCounts map[Verdict]int `json:"verdictCounts"`
	Verdict       Verdict         `json:"verdict"`
}
