package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-matcher/internal/logging"
	"github.com/jonathan/resume-matcher/internal/metrics"
)

var aiTestCmd = &cobra.Command{
	Use:   "ai-test",
	Short: "Check the connection to the configured AI provider",
	RunE:  runAITest,
}

func init() {
	rootCmd.AddCommand(aiTestCmd)
}

func runAITest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Verbose)
	if err != nil {
		return err
	}

	gw, closeGW, err := newGateway(cmd.Context(), cfg, log, metrics.Default)
	if err != nil {
		return err
	}
	defer closeGW()

	info, err := gw.Ping(cmd.Context())
	if err != nil {
		return fmt.Errorf("connection to %s failed: %w", cfg.AIProvider, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Provider: %s\n", info.Provider)
	if info.ModelInfo != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Model:    %s\n", info.ModelInfo)
	}
	fmt.Fprintln(cmd.OutOrStdout(), info.Message)
	return nil
}
