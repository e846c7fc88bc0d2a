// Package batch discovers skill directories under a root and validates
// each one independently. Per-artifact pipelines share no state, so the
// runner fans out over a bounded worker pool and joins results only
// after every worker finishes. One broken skill never aborts the run.
package batch

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/jingkaihe/skillcheck/pkg/artifact"
	"github.com/jingkaihe/skillcheck/pkg/config"
	"github.com/jingkaihe/skillcheck/pkg/logger"
	"github.com/jingkaihe/skillcheck/pkg/rules"
	"github.com/jingkaihe/skillcheck/pkg/types/review"
	"github.com/jingkaihe/skillcheck/pkg/verdict"
)

// DefaultConcurrency bounds the worker pool when the caller does not.
const DefaultConcurrency = 8

// Options tunes a batch run.
type Options struct {
	// Pattern is an optional doublestar glob matched against directory
	// base names; empty means every discovered skill runs.
	Pattern string
	// Concurrency bounds the worker pool; values < 1 use the default.
	Concurrency int
}

// EvaluateDir runs the full single-artifact pipeline: load, evaluate the
// rule catalogue, aggregate. Loader and rule failures surface as BLOCKER
// findings inside the result; the returned error covers only an
// unreadable directory.
func EvaluateDir(dir string, policy config.Policy) (review.Result, error) {
	a, err := artifact.Load(dir, policy)
	if err != nil {
		return review.Result{}, err
	}

	findings := rules.Evaluate(a, policy)
	counts, outcome := verdict.Aggregate(findings)

	return review.Result{
		Directory: a.DirectoryName,
		SkillName: a.Frontmatter["name"],
		Findings:  findings,
		Counts:    counts,
		Verdict:   outcome,
	}, nil
}

// Discover lists the immediate subdirectories of root that contain a
// SKILL.md, sorted by name. Unreadable entries are collected into a
// multierror but do not hide the directories that could be read.
func Discover(root, pattern string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read skills root %s", root)
	}

	var dirs []string
	var discoverErr *multierror.Error
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if pattern != "" {
			ok, err := doublestar.Match(pattern, entry.Name())
			if err != nil {
				return nil, errors.Wrapf(err, "invalid pattern %q", pattern)
			}
			if !ok {
				continue
			}
		}

		skillPath := filepath.Join(root, entry.Name(), artifact.SkillFileName)
		if _, err := os.Stat(skillPath); err != nil {
			if !os.IsNotExist(err) {
				discoverErr = multierror.Append(discoverErr, errors.Wrapf(err, "failed to stat %s", skillPath))
			}
			continue
		}
		dirs = append(dirs, filepath.Join(root, entry.Name()))
	}

	sort.Strings(dirs)
	return dirs, discoverErr.ErrorOrNil()
}

// Run validates every discovered skill under root. A missing root is
// fatal; everything downstream degrades to per-artifact findings.
// Cancellation stops dispatching new directories but lets in-flight
// evaluations finish, since a partial result is worse than a late one.
func Run(ctx context.Context, root string, policy config.Policy, opts Options) (review.BatchSummary, error) {
	summary := review.BatchSummary{
		RunID:         uuid.NewString(),
		VerdictCounts: map[review.Verdict]int{},
	}
	log := logger.G(ctx).WithField("run_id", summary.RunID)

	dirs, err := Discover(root, opts.Pattern)
	if err != nil {
		return summary, err
	}
	if len(dirs) == 0 {
		return summary, errors.Errorf("no skill directories found under %s", root)
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	log.WithField("skills", len(dirs)).WithField("concurrency", concurrency).Debug("starting batch validation")

	results := make([]review.Result, len(dirs))
	group := &errgroup.Group{}
	group.SetLimit(concurrency)

	// Workers index into results concurrently, so the slice header must
	// stay untouched until Wait returns; truncation happens after.
	dispatched := len(dirs)
	for i, dir := range dirs {
		if ctx.Err() != nil {
			dispatched = i
			break
		}
		i, dir := i, dir
		group.Go(func() error {
			result, err := EvaluateDir(dir, policy)
			if err != nil {
				// Directory vanished between discovery and evaluation;
				// report it as a blocked artifact, keep the batch going.
				result = failedResult(dir, err)
			}
			results[i] = result
			return nil
		})
	}

	_ = group.Wait()
	results = results[:dispatched]

	verdicts := make([]review.Verdict, 0, len(results))
	for _, result := range results {
		summary.VerdictCounts[result.Verdict]++
		verdicts = append(verdicts, result.Verdict)
	}
	summary.Results = results
	summary.Verdict = verdict.Worst(verdicts...)

	log.WithField("verdict", summary.Verdict.String()).Debug("batch validation finished")

	return summary, nil
}

// failedResult wraps an evaluation I/O error as a single-BLOCKER result.
// There is no retry: transient and permanent failures are not
// distinguishable for local file reads.
func failedResult(dir string, err error) review.Result {
	findings := []review.Finding{{
		RuleID:   artifact.RulePrimaryFileMissing,
		Severity: review.SeverityBlocker,
		Message:  errors.Wrapf(err, "failed to evaluate %s", dir).Error(),
		Location: dir,
	}}
	counts, outcome := verdict.Aggregate(findings)
	return review.Result{
		Directory: filepath.Base(dir),
		Findings:  findings,
		Counts:    counts,
		Verdict:   outcome,
	}
}

// ExitCode maps a batch summary to the process exit code: the worst
// per-artifact code across the run.
func ExitCode(summary review.BatchSummary) int {
	codes := make([]int, 0, len(summary.Results))
	for _, result := range summary.Results {
		codes = append(codes, verdict.ExitCode(result.Counts))
	}
	return verdict.WorstExitCode(codes...)
}
