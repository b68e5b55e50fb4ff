package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-matcher/internal/observability"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage previously analyzed job descriptions",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List analyzed jobs, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(cmd.Context(), false, func(s *session) error {
			observability.NewPrinter(cmd.OutOrStdout()).PrintHistory(s.ws.History())
			return nil
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the requirements of one analyzed job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), false, func(s *session) error {
			entry, err := s.ws.UseHistory(args[0])
			if err != nil {
				return err
			}
			observability.NewPrinter(cmd.OutOrStdout()).PrintJobRequirements(entry.Requirements)
			return nil
		})
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove one analyzed job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), false, func(s *session) error {
			if err := s.ws.DeleteHistory(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all analyzed jobs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(cmd.Context(), false, func(s *session) error {
			if err := s.ws.ClearHistory(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Job history cleared")
			return nil
		})
	},
}

func init() {
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd, historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}
