package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-matcher/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render the working resume as PDF, DOCX or JSON",
	Long: `Render the working resume to a file. PDF output needs Chrome (local, or
remote via chrome_ws_url). The file is named after you and the most recent
analyzed job, or the job given with --job.`,
	RunE: runExport,
}

var (
	exportFormat string
	exportOut    string
	exportJobID  string
)

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", export.FormatPDF, "Output format: pdf, docx or json")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", ".", "Output directory")
	exportCmd.Flags().StringVar(&exportJobID, "job", "", "Job history id used to name the file (default: most recent)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	return withSession(cmd.Context(), false, func(s *session) error {
		if s.ws.Resume().IsEmpty() {
			return fmt.Errorf("resume is empty; import one with 'resume import'")
		}
		if exportJobID != "" || len(s.ws.History()) > 0 {
			if _, err := selectJob(s.ws, exportJobID); err != nil {
				return err
			}
		}

		file, err := s.ws.Export(cmd.Context(), exportFormat)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(exportOut, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		path := filepath.Join(exportOut, file.Name)
		if err := os.WriteFile(path, file.Data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", path, len(file.Data))
		return nil
	})
}
