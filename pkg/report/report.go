// Package report renders review results for humans (severity-grouped
// text with color) and machines (stable JSON). Findings are sorted by
// severity, then rule ID, then location before rendering, so output is
// byte-identical across runs regardless of discovery order.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/jingkaihe/skillcheck/pkg/types/review"
)

var severityColors = map[review.Severity]*color.Color{
	review.SeverityBlocker:  color.New(color.FgRed, color.Bold),
	review.SeverityCritical: color.New(color.FgRed),
	review.SeverityMajor:    color.New(color.FgYellow),
	review.SeverityMinor:    color.New(color.FgCyan),
}

var verdictColors = map[review.Verdict]*color.Color{
	review.VerdictPass:          color.New(color.FgGreen, color.Bold),
	review.VerdictPassWithMinor: color.New(color.FgGreen),
	review.VerdictNeedsWork:     color.New(color.FgYellow, color.Bold),
	review.VerdictFail:          color.New(color.FgRed, color.Bold),
}

// Sorted returns a copy of findings in canonical render order.
func Sorted(findings []review.Finding) []review.Finding {
	sorted := make([]review.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Severity != sorted[j].Severity {
			return sorted[i].Severity < sorted[j].Severity
		}
		if sorted[i].RuleID != sorted[j].RuleID {
			return sorted[i].RuleID < sorted[j].RuleID
		}
		return sorted[i].Location < sorted[j].Location
	})
	return sorted
}

// WriteResult renders one artifact's report as text. Artifacts with zero
// findings get an explicit PASS line; there is no silent pass.
func WriteResult(w io.Writer, result review.Result) {
	header := result.Directory
	if result.SkillName != "" && result.SkillName != result.Directory {
		header = fmt.Sprintf("%s (name: %s)", result.Directory, result.SkillName)
	}
	fmt.Fprintf(w, "=== %s ===\n", header)

	sorted := Sorted(result.Findings)
	current := review.Severity(-1)
	for _, finding := range sorted {
		if finding.Severity != current {
			current = finding.Severity
			severityColors[current].Fprintf(w, "%s\n", current)
		}
		location := ""
		if finding.Location != "" {
			location = fmt.Sprintf(" [%s]", finding.Location)
		}
		fmt.Fprintf(w, "  %s%s: %s\n", finding.RuleID, location, finding.Message)
	}

	fmt.Fprintf(w, "%s  → ", result.Counts.Summary())
	verdictColors[result.Verdict].Fprintf(w, "%s\n", result.Verdict)
}

// WriteBatch renders every result followed by the run-wide rollup.
func WriteBatch(w io.Writer, summary review.BatchSummary) {
	for i, result := range summary.Results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		WriteResult(w, result)
	}

	fmt.Fprintf(w, "\nValidated %d skill(s): ", len(summary.Results))
	parts := []review.Verdict{review.VerdictFail, review.VerdictNeedsWork, review.VerdictPassWithMinor, review.VerdictPass}
	first := true
	for _, v := range parts {
		if n := summary.VerdictCounts[v]; n > 0 {
			if !first {
				fmt.Fprint(w, ", ")
			}
			first = false
			fmt.Fprintf(w, "%d %s", n, v)
		}
	}
	fmt.Fprint(w, "  → ")
	verdictColors[summary.Verdict].Fprintf(w, "%s\n", summary.Verdict)
}

// WriteResultJSON emits the machine-readable form of one result.
func WriteResultJSON(w io.Writer, result review.Result) error {
	result.Findings = Sorted(result.Findings)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// WriteBatchJSON emits the machine-readable form of a batch run.
func WriteBatchJSON(w io.Writer, summary review.BatchSummary) error {
	for i := range summary.Results {
		summary.Results[i].Findings = Sorted(summary.Results[i].Findings)
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(summary)
}
