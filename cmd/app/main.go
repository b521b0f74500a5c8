package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"adcp/internal/cli"
	"adcp/version"
)

var (
	flagAgent      string
	flagBaseURL    string
	flagLogFile    string
	flagTimeout    time.Duration
	flagRetryDelay time.Duration
	flagMaxRetries int
	flagJSON       bool
	flagDebug      bool
)

func commandOptions() cli.Options {
	return cli.Options{
		AgentName:  flagAgent,
		BaseURL:    flagBaseURL,
		LogFile:    flagLogFile,
		Timeout:    flagTimeout,
		RetryDelay: flagRetryDelay,
		MaxRetries: flagMaxRetries,
		JSON:       flagJSON,
	}
}

var rootCmd = &cobra.Command{
	Use:   "adcp",
	Short: "Thin client for creative ad agents",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if flagDebug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RunTUI(commandOptions())
	},
}

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the creative formats the agent supports",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ListFormats(commandOptions())
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <format-id>",
	Short: "Render a preview of one creative format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.PreviewFormat(commandOptions(), args[0])
	},
}

var callCmd = &cobra.Command{
	Use:   "call <tool-name>",
	Short: "Invoke an arbitrary agent tool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		noWait, _ := cmd.Flags().GetBool("no-wait")
		return cli.CallTool(commandOptions(), args[0], input, noWait)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded tool calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		contextID, _ := cmd.Flags().GetString("context")
		return cli.ShowHistory(limit, contextID)
	},
}

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Run a local mock creative agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		return cli.RunMockAgent(addr)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Get())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAgent, "agent", "", "named agent from agents.yaml (default: the registry default)")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "agent base URL, overrides the registry")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "call log path (default: config dir)")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "overall wait budget per tool call")
	rootCmd.PersistentFlags().DurationVar(&flagRetryDelay, "retry-delay", 0, "delay between status polls")
	rootCmd.PersistentFlags().IntVar(&flagMaxRetries, "max-retries", 0, "maximum status polls per call")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "verbose logging")

	callCmd.Flags().String("input", "{}", "tool input as a JSON object")
	callCmd.Flags().Bool("no-wait", false, "return the first response without polling")

	historyCmd.Flags().Int("limit", 50, "number of recent calls to show")
	historyCmd.Flags().String("context", "", "show every call for one context id")

	mockCmd.Flags().String("addr", "127.0.0.1:8000", "listen address")

	rootCmd.AddCommand(formatsCmd, previewCmd, callCmd, historyCmd, mockCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
