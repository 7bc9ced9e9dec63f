package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/smartsdlc/sdlc/internal/models"
	"github.com/smartsdlc/sdlc/internal/output"
	"github.com/smartsdlc/sdlc/internal/store"
)

var (
	historyOperation string
	historyStatus    string
	historyLimit     int
	historyBefore    string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past analyses",
	Long: `Show past analyses, newest first.

Running bare 'sdlc history' is the same as 'sdlc history list'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyListRun(cmd.Context())
	},
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List past analyses",
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyListRun(cmd.Context())
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one analysis including the full model output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyShowRun(cmd.Context(), args[0])
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete analysis history",
	Long:  "Delete all history, or only records at or older than --before <id>.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyClearRun(cmd.Context())
	},
}

func init() {
	historyCmd.PersistentFlags().StringVar(&historyOperation, "operation", "", "Filter by operation")
	historyCmd.PersistentFlags().StringVar(&historyStatus, "status", "", "Filter by status: success, partial_success, failure")
	historyCmd.PersistentFlags().IntVar(&historyLimit, "limit", 20, "Maximum number of records")
	historyClearCmd.Flags().StringVar(&historyBefore, "before", "", "Only delete records at or older than this ID")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

func historyListRun(ctx context.Context) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	records, err := s.ListAnalyses(ctx, store.AnalysisListFilter{
		Operation: models.Operation(historyOperation),
		Status:    models.ReportStatus(historyStatus),
		Limit:     historyLimit,
	})
	if err != nil {
		return err
	}

	if len(records) == 0 {
		ui.Info("No analyses recorded")
		return nil
	}

	table := ui.Table([]string{"ID", "When", "Operation", "File", "Status", "Findings"})
	for _, rec := range records {
		table.Append([]string{
			shortID(rec.ID),
			rec.CreatedAt.Local().Format("2006-01-02 15:04"),
			string(rec.Operation),
			rec.FileName,
			output.StatusColor(rec.Status),
			strconv.Itoa(rec.FindingCount),
		})
	}
	return table.Render()
}

func historyShowRun(ctx context.Context, id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	rec, err := findRecord(ctx, s, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "ID:        %s\n", rec.ID)
	fmt.Fprintf(ui.Out, "Operation: %s\n", rec.Operation)
	fmt.Fprintf(ui.Out, "File:      %s\n", rec.FileName)
	fmt.Fprintf(ui.Out, "Status:    %s\n", output.StatusColor(rec.Status))
	if rec.Reason != "" {
		fmt.Fprintf(ui.Out, "Note:      %s\n", rec.Reason)
	}
	fmt.Fprintf(ui.Out, "Findings:  %d\n", rec.FindingCount)
	fmt.Fprintf(ui.Out, "Elapsed:   %s\n", rec.Elapsed)
	fmt.Fprintf(ui.Out, "Created:   %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))

	if rec.Text != "" {
		fmt.Fprintln(ui.Out)
		fmt.Fprintln(ui.Out, rec.Text)
	}
	return nil
}

func historyClearRun(ctx context.Context) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	before := historyBefore
	if before != "" {
		rec, err := findRecord(ctx, s, before)
		if err != nil {
			return err
		}
		before = rec.ID
	}

	n, err := s.DeleteAnalyses(ctx, before)
	if err != nil {
		return err
	}
	ui.Success("Deleted %d record(s)", n)
	return nil
}

// findRecord resolves a full ID or a unique prefix to a history record.
func findRecord(ctx context.Context, s store.Store, id string) (*models.AnalysisRecord, error) {
	if rec, err := s.GetAnalysis(ctx, id); err == nil {
		return rec, nil
	}

	records, err := s.ListAnalyses(ctx, store.AnalysisListFilter{})
	if err != nil {
		return nil, err
	}

	var matches []*models.AnalysisRecord
	for _, rec := range records {
		if len(rec.ID) >= len(id) && rec.ID[:len(id)] == id {
			matches = append(matches, rec)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("analysis not found: %s", id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous ID %s: matches %d records", id, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
