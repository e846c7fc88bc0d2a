package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillcheck/pkg/batch"
	"github.com/jingkaihe/skillcheck/pkg/config"
	"github.com/jingkaihe/skillcheck/pkg/presenter"
	"github.com/jingkaihe/skillcheck/pkg/report"
	"github.com/jingkaihe/skillcheck/pkg/verdict"
	"github.com/jingkaihe/skillcheck/pkg/watch"
)

// DefaultSkillsRoot is the conventional skills root used by --all when
// no root argument is given.
const DefaultSkillsRoot = "./skills"

// ValidateConfig holds configuration for the validate command
type ValidateConfig struct {
	All         bool
	Output      string
	Quiet       bool
	Pattern     string
	Concurrency int
	Watch       bool
	DebounceMs  int
}

// NewValidateConfig creates a new ValidateConfig with default values
func NewValidateConfig() *ValidateConfig {
	return &ValidateConfig{
		All:         false,
		Output:      "text",
		Quiet:       false,
		Pattern:     "",
		Concurrency: batch.DefaultConcurrency,
		Watch:       false,
		DebounceMs:  500,
	}
}

// Validate validates the ValidateConfig and returns an error if invalid
func (c *ValidateConfig) Validate() error {
	if c.Output != "text" && c.Output != "json" {
		return errors.Errorf("invalid output format: %s, must be one of: text, json", c.Output)
	}
	if c.Watch && c.All {
		return errors.New("--watch applies to a single skill directory, not --all")
	}
	return nil
}

var validateCmd = &cobra.Command{
	Use:   "validate [<skill-directory> | --all [<root>]]",
	Short: "Validate skill packages against the review rubric",
	Long: `Validate one skill directory, or every skill directory under a root
with --all. Each skill is loaded, checked against the full rule
catalogue, and reported with per-severity findings and a verdict.

Exit codes: 0 = pass, 1 = blocker, 2 = critical, 3 = major (needs work),
4 = minor findings only. Batch mode exits with the worst code across all
validated skills.

Examples:
  skillcheck validate skills/writing-helm-charts
  skillcheck validate --all
  skillcheck validate --all ./skills --pattern 'writing-*'
  skillcheck validate skills/writing-helm-charts --watch`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := getValidateConfigFromFlags(cmd)
		if err := cfg.Validate(); err != nil {
			presenter.Error(err, "Invalid configuration")
			os.Exit(1)
		}
		presenter.SetQuiet(cfg.Quiet)

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if cfg.All {
			root := DefaultSkillsRoot
			if len(args) > 0 {
				root = args[0]
			}
			os.Exit(runBatchValidate(ctx, root, cfg))
		}

		if len(args) == 0 {
			presenter.Error(errors.New("a skill directory argument is required without --all"), "Invalid arguments")
			os.Exit(1)
		}

		if cfg.Watch {
			runWatchValidate(ctx, args[0], cfg)
			return
		}

		os.Exit(runSingleValidate(ctx, args[0], cfg))
	},
}

func init() {
	defaults := NewValidateConfig()
	validateCmd.Flags().Bool("all", defaults.All, "Validate every skill directory under the root")
	validateCmd.Flags().StringP("output", "o", defaults.Output, "Output format (text, json)")
	validateCmd.Flags().BoolP("quiet", "q", defaults.Quiet, "Suppress informational output")
	validateCmd.Flags().StringP("pattern", "p", defaults.Pattern, "Glob pattern to filter skill directory names (e.g. 'writing-*')")
	validateCmd.Flags().IntP("concurrency", "c", defaults.Concurrency, "Maximum number of skills validated in parallel")
	validateCmd.Flags().BoolP("watch", "w", defaults.Watch, "Re-validate the skill directory on every file change")
	validateCmd.Flags().Int("debounce", defaults.DebounceMs, "Debounce time in milliseconds for watch mode")

	rootCmd.AddCommand(validateCmd)
}

// getValidateConfigFromFlags extracts validate configuration from command flags
func getValidateConfigFromFlags(cmd *cobra.Command) *ValidateConfig {
	cfg := NewValidateConfig()

	if all, err := cmd.Flags().GetBool("all"); err == nil {
		cfg.All = all
	}
	if output, err := cmd.Flags().GetString("output"); err == nil {
		cfg.Output = output
	}
	if quiet, err := cmd.Flags().GetBool("quiet"); err == nil {
		cfg.Quiet = quiet
	}
	if pattern, err := cmd.Flags().GetString("pattern"); err == nil {
		cfg.Pattern = pattern
	}
	if concurrency, err := cmd.Flags().GetInt("concurrency"); err == nil {
		cfg.Concurrency = concurrency
	}
	if watchFlag, err := cmd.Flags().GetBool("watch"); err == nil {
		cfg.Watch = watchFlag
	}
	if debounce, err := cmd.Flags().GetInt("debounce"); err == nil {
		cfg.DebounceMs = debounce
	}

	return cfg
}

func runSingleValidate(_ context.Context, dir string, cfg *ValidateConfig) int {
	policy, err := config.LoadPolicy(filepath.Dir(dir))
	if err != nil {
		presenter.Error(err, "Failed to load policy")
		return 1
	}

	result, err := batch.EvaluateDir(dir, policy)
	if err != nil {
		presenter.Error(err, "Failed to validate skill directory")
		return 1
	}

	if cfg.Output == "json" {
		if err := report.WriteResultJSON(os.Stdout, result); err != nil {
			presenter.Error(err, "Failed to encode result")
			return 1
		}
	} else {
		report.WriteResult(os.Stdout, result)
	}

	return verdict.ExitCode(result.Counts)
}

func runBatchValidate(ctx context.Context, root string, cfg *ValidateConfig) int {
	policy, err := config.LoadPolicy(root)
	if err != nil {
		presenter.Error(err, "Failed to load policy")
		return 1
	}

	summary, err := batch.Run(ctx, root, policy, batch.Options{
		Pattern:     cfg.Pattern,
		Concurrency: cfg.Concurrency,
	})
	if err != nil {
		presenter.Error(err, "Batch validation failed")
		return 1
	}

	if cfg.Output == "json" {
		if err := report.WriteBatchJSON(os.Stdout, summary); err != nil {
			presenter.Error(err, "Failed to encode summary")
			return 1
		}
	} else {
		report.WriteBatch(os.Stdout, summary)
	}

	return batch.ExitCode(summary)
}

func runWatchValidate(ctx context.Context, dir string, cfg *ValidateConfig) {
	presenter.Info("Watching " + dir + " (Ctrl-C to stop)")

	err := watch.Watch(ctx, dir, time.Duration(cfg.DebounceMs)*time.Millisecond, func(ctx context.Context) {
		runSingleValidate(ctx, dir, cfg)
		presenter.Separator()
	})
	if err != nil {
		presenter.Error(err, "Watch mode failed")
		os.Exit(1)
	}
}
