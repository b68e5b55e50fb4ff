package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-matcher/internal/observability"
	"github.com/jonathan/resume-matcher/internal/types"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Show, import, edit or clear the working resume",
}

var resumeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the working resume",
	RunE:  runResumeShow,
}

var resumeImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Replace the working resume with a JSON document",
	Args:  cobra.ExactArgs(1),
	RunE:  runResumeImport,
}

var resumeSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update personal details of the working resume",
	RunE:  runResumeSet,
}

var resumeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the working resume locally and on the server",
	RunE:  runResumeClear,
}

var resumeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the sync state of the working resume",
	RunE:  runResumeStatus,
}

var (
	showJSON bool

	setName     string
	setEmail    string
	setPhone    string
	setLocation string
	setLinkedIn string
	setWebsite  string
	setSummary  string
)

func init() {
	resumeShowCmd.Flags().BoolVar(&showJSON, "json", false, "Print the resume document as JSON")

	resumeSetCmd.Flags().StringVar(&setName, "name", "", "Full name")
	resumeSetCmd.Flags().StringVar(&setEmail, "email", "", "Email address")
	resumeSetCmd.Flags().StringVar(&setPhone, "phone", "", "Phone number")
	resumeSetCmd.Flags().StringVar(&setLocation, "location", "", "Location")
	resumeSetCmd.Flags().StringVar(&setLinkedIn, "linkedin", "", "LinkedIn profile URL")
	resumeSetCmd.Flags().StringVar(&setWebsite, "website", "", "Personal website URL")
	resumeSetCmd.Flags().StringVar(&setSummary, "summary", "", "Professional summary")

	resumeCmd.AddCommand(resumeShowCmd, resumeImportCmd, resumeSetCmd, resumeClearCmd, resumeStatusCmd)
	rootCmd.AddCommand(resumeCmd)
}

func runResumeShow(cmd *cobra.Command, _ []string) error {
	return withSession(cmd.Context(), false, func(s *session) error {
		r := s.ws.Resume()
		if showJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(r)
		}
		observability.NewPrinter(cmd.OutOrStdout()).PrintResume(r)
		return nil
	})
}

func runResumeImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open resume file: %w", err)
	}
	defer f.Close()

	return withSession(cmd.Context(), false, func(s *session) error {
		r, err := s.ws.ImportJSON(cmd.Context(), f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported resume for %s\n", r.PersonalInfo.Name)
		return nil
	})
}

func runResumeSet(cmd *cobra.Command, _ []string) error {
	fields := map[string]*string{
		"name": &setName, "email": &setEmail, "phone": &setPhone, "location": &setLocation,
		"linkedin": &setLinkedIn, "website": &setWebsite, "summary": &setSummary,
	}
	changed := 0
	for flag := range fields {
		if cmd.Flags().Changed(flag) {
			changed++
		}
	}
	if changed == 0 {
		return fmt.Errorf("nothing to update; pass at least one of --name, --email, --phone, --location, --linkedin, --website, --summary")
	}

	return withSession(cmd.Context(), false, func(s *session) error {
		err := s.ws.Edit(cmd.Context(), func(r *types.Resume) {
			pi := map[string]*string{
				"name": &r.PersonalInfo.Name, "email": &r.PersonalInfo.Email, "phone": &r.PersonalInfo.Phone,
				"location": &r.PersonalInfo.Location, "linkedin": &r.PersonalInfo.LinkedIn,
				"website": &r.PersonalInfo.Website, "summary": &r.PersonalInfo.Summary,
			}
			for flag, value := range fields {
				if cmd.Flags().Changed(flag) {
					*pi[flag] = *value
				}
			}
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %d field(s)\n", changed)
		return nil
	})
}

func runResumeClear(cmd *cobra.Command, _ []string) error {
	return withSession(cmd.Context(), false, func(s *session) error {
		if err := s.ws.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Resume cleared")
		return nil
	})
}

func runResumeStatus(cmd *cobra.Command, _ []string) error {
	return withSession(cmd.Context(), false, func(s *session) error {
		out := cmd.OutOrStdout()
		sync := s.ws.Sync()
		if !sync.Authenticated() {
			fmt.Fprintln(out, "Local only (not logged in)")
			return nil
		}
		fmt.Fprintf(out, "Server:      %s\n", s.cfg.ServerURL)
		fmt.Fprintf(out, "Status:      %s\n", sync.Status())
		fmt.Fprintf(out, "Pending:     %t\n", sync.Pending())
		if at, ok := sync.LastSyncedAt(); ok {
			fmt.Fprintf(out, "Last synced: %s\n", at.Local().Format(time.DateTime))
		}
		if err := sync.LastError(); err != nil {
			fmt.Fprintf(out, "Last error:  %v\n", err)
		}
		return nil
	})
}
