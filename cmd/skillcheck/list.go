package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillcheck/pkg/batch"
	"github.com/jingkaihe/skillcheck/pkg/config"
	"github.com/jingkaihe/skillcheck/pkg/presenter"
)

var listCmd = &cobra.Command{
	Use:   "list [<root>]",
	Short: "List skill directories with their validation verdicts",
	Long:  `List every skill directory under the root with its name and current verdict.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root := DefaultSkillsRoot
		if len(args) > 0 {
			root = args[0]
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		policy, err := config.LoadPolicy(root)
		if err != nil {
			presenter.Error(err, "Failed to load policy")
			os.Exit(1)
		}

		summary, err := batch.Run(ctx, root, policy, batch.Options{})
		if err != nil {
			presenter.Error(err, "Failed to validate skills")
			os.Exit(1)
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DIRECTORY\tNAME\tVERDICT\tFINDINGS")
		fmt.Fprintln(tw, "---------\t----\t-------\t--------")
		for _, result := range summary.Results {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", result.Directory, result.SkillName, result.Verdict, result.Counts.Total())
		}
		tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
