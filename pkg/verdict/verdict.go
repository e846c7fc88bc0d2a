// Package verdict reduces findings into per-severity counts and a single
// outcome. The severity priority is a strict total order: exactly one
// verdict branch fires for any combination of counts, and MINOR findings
// can never change a verdict once anything worse is present.
package verdict

import (
	"github.com/jingkaihe/skillcheck/pkg/types/review"
)

// Count folds findings into per-severity totals. Order of the input is
// irrelevant by construction.
func Count(findings []review.Finding) review.Counts {
	counts := review.Counts{}
	for _, sev := range review.Severities {
		counts[sev] = 0
	}
	for _, finding := range findings {
		counts[finding.Severity]++
	}
	return counts
}

// Of derives the verdict from per-severity counts.
func Of(counts review.Counts) review.Verdict {
	switch {
	case counts[review.SeverityBlocker] > 0:
		return review.VerdictFail
	case counts[review.SeverityCritical] > 0:
		return review.VerdictFail
	case counts[review.SeverityMajor] > 0:
		return review.VerdictNeedsWork
	case counts[review.SeverityMinor] > 0:
		return review.VerdictPassWithMinor
	default:
		return review.VerdictPass
	}
}

// Aggregate is the full reduction used by the per-artifact pipeline.
func Aggregate(findings []review.Finding) (review.Counts, review.Verdict) {
	counts := Count(findings)
	return counts, Of(counts)
}

// ExitCode maps counts to the process exit code contract:
// 0 = no findings, 1 = blocker, 2 = critical, 3 = major, 4 = minor only.
func ExitCode(counts review.Counts) int {
	switch {
	case counts[review.SeverityBlocker] > 0:
		return 1
	case counts[review.SeverityCritical] > 0:
		return 2
	case counts[review.SeverityMajor] > 0:
		return 3
	case counts[review.SeverityMinor] > 0:
		return 4
	default:
		return 0
	}
}

// WorstExitCode folds per-artifact exit codes into the batch-wide code.
// Codes rank by badness (1 worst, then 2, 3, 4, 0), not numerically.
func WorstExitCode(codes ...int) int {
	worst := 0
	for _, code := range codes {
		if rank(code) > rank(worst) {
			worst = code
		}
	}
	return worst
}

func rank(code int) int {
	switch code {
	case 1:
		return 4
	case 2:
		return 3
	case 3:
		return 2
	case 4:
		return 1
	default:
		return 0
	}
}

// Worst returns the worst verdict across results, PASS when empty.
func Worst(verdicts ...review.Verdict) review.Verdict {
	worst := review.VerdictPass
	for _, v := range verdicts {
		if v > worst {
			worst = v
		}
	}
	return worst
}
