package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-matcher/internal/ingestion"
	"github.com/jonathan/resume-matcher/internal/observability"
	"github.com/jonathan/resume-matcher/internal/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [description]",
	Short: "Extract requirements from a job description",
	Long:  "Analyze a job description given as an argument, a file (--file), a posting URL (--url) or standard input. The result is saved to the job history.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

var (
	analyzeFile string
	analyzeURL  string
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "Read the description from a text, PDF or DOCX file")
	analyzeCmd.Flags().StringVarP(&analyzeURL, "url", "u", "", "Fetch the description from a job posting URL")
	analyzeCmd.MarkFlagsMutuallyExclusive("file", "url")
	rootCmd.AddCommand(analyzeCmd)
}

// jobDescriptionInput resolves the description source chosen on the command line.
func jobDescriptionInput(cmd *cobra.Command, args []string) (types.JobDescription, error) {
	if len(args) > 0 && (analyzeFile != "" || analyzeURL != "") {
		return types.JobDescription{}, errors.New("pass the description as an argument or with --file/--url, not both")
	}

	switch {
	case analyzeURL != "":
		return types.JobDescription{LinkedInURL: analyzeURL}, nil
	case analyzeFile != "":
		text, _, err := ingestion.FromFile(analyzeFile)
		if err != nil {
			return types.JobDescription{}, fmt.Errorf("failed to read job description: %w", err)
		}
		return types.JobDescription{Description: text}, nil
	case len(args) == 1:
		return types.JobDescription{Description: args[0]}, nil
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return types.JobDescription{}, fmt.Errorf("failed to read standard input: %w", err)
		}
		return types.JobDescription{Description: string(data)}, nil
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	desc, err := jobDescriptionInput(cmd, args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(desc.Description) == "" && desc.LinkedInURL == "" {
		return errors.New("job description is empty")
	}

	return withSession(cmd.Context(), true, func(s *session) error {
		res := s.ws.AnalyzeJob(cmd.Context(), desc)
		if !res.Success {
			return errors.New(res.Error)
		}
		observability.NewPrinter(cmd.OutOrStdout()).PrintJobRequirements(res.Data)
		if entries := s.ws.History(); len(entries) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Saved to history as %s\n", entries[0].ID)
		}
		return nil
	})
}
