package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/ecodeclub/ekit/slice"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-matcher/internal/observability"
	"github.com/jonathan/resume-matcher/internal/types"
	"github.com/jonathan/resume-matcher/internal/workspace"
)

var tailorCmd = &cobra.Command{
	Use:   "tailor",
	Short: "Suggest edits that align the resume with an analyzed job",
	Long: `Ask the AI provider for suggestions against the most recent analyzed job
(or --job). Each suggestion is shown in turn and can be accepted, rejected,
skipped or undone. Accepted edits are saved and synced.`,
	RunE: runTailor,
}

var (
	tailorJobID     string
	tailorAcceptAll bool
)

func init() {
	tailorCmd.Flags().StringVar(&tailorJobID, "job", "", "Job history id (default: most recent analysis)")
	tailorCmd.Flags().BoolVar(&tailorAcceptAll, "accept-all", false, "Accept every suggestion without prompting")
	rootCmd.AddCommand(tailorCmd)
}

// selectJob makes the requested or most recent history entry current.
func selectJob(ws *workspace.Workspace, id string) (types.JobHistoryEntry, error) {
	if id == "" {
		entries := ws.History()
		if len(entries) == 0 {
			return types.JobHistoryEntry{}, errors.New("no analyzed jobs; run analyze first")
		}
		id = entries[0].ID
	}
	return ws.UseHistory(id)
}

func runTailor(cmd *cobra.Command, _ []string) error {
	return withSession(cmd.Context(), true, func(s *session) error {
		if _, err := selectJob(s.ws, tailorJobID); err != nil {
			return err
		}

		res := s.ws.Tailor(cmd.Context())
		if !res.Success {
			return errors.New(res.Error)
		}
		p := observability.NewPrinter(cmd.OutOrStdout())
		p.PrintTailoringResult(res.Data)

		if tailorAcceptAll {
			if err := s.ws.AcceptAll(cmd.Context()); err != nil {
				return err
			}
		} else if err := reviewSuggestions(cmd, s.ws, p); err != nil {
			return err
		}
		p.PrintCounts(s.ws.Counts())
		return nil
	})
}

const reviewPrompt = "[a]ccept  [r]eject  [s]kip  [u]ndo last  [A]ccept rest  [q]uit > "

// reviewSuggestions walks the pending suggestions interactively.
func reviewSuggestions(cmd *cobra.Command, ws *workspace.Workspace, p *observability.Printer) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	in := bufio.NewScanner(cmd.InOrStdin())

	var decided []string
	queue := pendingIDs(ws.Suggestions())
	total := len(queue)

	for len(queue) > 0 {
		id := queue[0]
		s, ok := findSuggestion(ws.Suggestions(), id)
		if !ok {
			queue = queue[1:]
			continue
		}
		p.PrintSuggestion(s, total-len(queue)+1, total)
		fmt.Fprint(out, reviewPrompt)

		if !in.Scan() {
			return in.Err()
		}

		var err error
		switch strings.TrimSpace(in.Text()) {
		case "a", "accept":
			if err = ws.Accept(ctx, id); err == nil {
				decided = append(decided, id)
				queue = queue[1:]
			}
		case "r", "reject":
			if err = ws.Reject(id); err == nil {
				decided = append(decided, id)
				queue = queue[1:]
			}
		case "s", "skip", "":
			queue = queue[1:]
		case "u", "undo":
			if len(decided) == 0 {
				fmt.Fprintln(out, "Nothing to undo")
				continue
			}
			last := decided[len(decided)-1]
			if err = ws.Undo(ctx, last); err == nil {
				decided = decided[:len(decided)-1]
				queue = append([]string{last}, queue...)
			}
		case "A":
			return ws.AcceptAll(ctx)
		case "q", "quit":
			return nil
		default:
			fmt.Fprintln(out, "Unknown choice")
			continue
		}
		if err != nil {
			fmt.Fprintf(out, "Could not apply: %v\n", err)
			queue = queue[1:]
		}
	}
	return nil
}

func pendingIDs(suggestions []types.Suggestion) []string {
	return slice.FilterMap(suggestions, func(_ int, s types.Suggestion) (string, bool) {
		return s.ID, s.Status == types.StatusPending
	})
}

func findSuggestion(suggestions []types.Suggestion, id string) (types.Suggestion, bool) {
	idx := slice.IndexFunc(suggestions, func(s types.Suggestion) bool { return s.ID == id })
	if idx < 0 {
		return types.Suggestion{}, false
	}
	return suggestions[idx], true
}
