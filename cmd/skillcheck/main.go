package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillcheck/pkg/logger"
)

func init() {
	// Environment variables
	viper.SetEnvPrefix("SKILLCHECK")
	viper.AutomaticEnv()

	// Config file support
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.skillcheck")
	viper.AddConfigPath(".")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()
}

var rootCmd = &cobra.Command{
	Use:   "skillcheck",
	Short: "Static validator for agent skill packages",
	Long: `Skillcheck audits skill directories (SKILL.md plus sibling reference
files) against the review rubric: naming, frontmatter, required sections,
code examples, cross-file reference integrity, and test scenarios.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if level := viper.GetString("log_level"); level != "" {
			_ = logger.SetLogLevel(level)
		}
		if format := viper.GetString("log_format"); format != "" {
			logger.SetLogFormat(format)
		}
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
		os.Exit(1)
	},
}

func main() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "fmt", "Log format (fmt, json)")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
