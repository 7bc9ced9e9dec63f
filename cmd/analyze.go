package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/smartsdlc/sdlc/internal/archive"
	"github.com/smartsdlc/sdlc/internal/models"
	"github.com/smartsdlc/sdlc/internal/output"
	"github.com/smartsdlc/sdlc/internal/report"
)

// pipeline runs one analysis request end to end.
type pipeline interface {
	Run(ctx context.Context, op models.Operation, artifact models.SourceArtifact) *models.Report
}

// getPipeline builds the analysis pipeline, replaceable in tests.
var getPipeline = func() (pipeline, error) {
	generator, err := newGenerator()
	if err != nil {
		return nil, err
	}
	return newEngine(generator), nil
}

var (
	analyzeJSON   bool
	analyzeNoSave bool
)

func init() {
	for _, op := range models.Operations() {
		cmd := newOperationCmd(op)
		cmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the raw report as JSON")
		cmd.Flags().BoolVar(&analyzeNoSave, "no-save", false, "Skip recording the analysis in history")
		rootCmd.AddCommand(cmd)
	}
}

// newOperationCmd builds one analysis subcommand. Every operation takes a
// single file argument: a .py file, or a .zip of .py files.
func newOperationCmd(op models.Operation) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("%s <file>", op),
		Short: op.Description(),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return analyzeRun(cmd.Context(), op, args[0])
		},
	}
}

func analyzeRun(ctx context.Context, op models.Operation, path string) error {
	artifacts, err := loadArtifacts(path)
	if err != nil {
		return err
	}

	eng, err := getPipeline()
	if err != nil {
		return err
	}

	var reports []*models.Report
	for _, artifact := range artifacts {
		ui.VerboseLog("analyzing %s", artifact.FileName)
		rep := eng.Run(ctx, op, artifact)
		saveReport(ctx, rep)
		reports = append(reports, rep)
	}

	if analyzeJSON {
		return printJSON(reports)
	}

	// A ZIP analyzed with the report operation gets the project document.
	if op == models.OpGenerateReport && archive.IsZip(path) {
		renderer := report.NewRenderer()
		fmt.Fprintln(ui.Out, renderer.Render(path, reports))
		return summarize(reports)
	}

	for _, rep := range reports {
		printReport(rep)
	}
	return summarize(reports)
}

// loadArtifacts reads the input file, expanding ZIP archives into one
// artifact per contained Python file.
func loadArtifacts(path string) ([]models.SourceArtifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	limit := maxFileSize()
	if limit > 0 && !archive.IsZip(path) && info.Size() > limit {
		return nil, fmt.Errorf("file %s exceeds the %d byte size limit", path, limit)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if archive.IsZip(path) {
		return archive.ExtractArtifacts(data, limit)
	}
	return []models.SourceArtifact{models.NewSourceArtifact(path, string(data))}, nil
}

// saveReport records the analysis in history, best effort.
func saveReport(ctx context.Context, rep *models.Report) {
	if analyzeNoSave {
		return
	}
	s, err := getStore()
	if err != nil {
		ui.VerboseLog("history store unavailable: %v", err)
		return
	}
	if err := s.CreateAnalysis(ctx, models.RecordFromReport(rep)); err != nil {
		ui.Warning("failed to record analysis: %v", err)
	}
}

func printJSON(reports []*models.Report) error {
	enc := json.NewEncoder(ui.Out)
	enc.SetIndent("", "  ")
	if len(reports) == 1 {
		return enc.Encode(reports[0])
	}
	return enc.Encode(reports)
}

func printReport(rep *models.Report) {
	fmt.Fprintf(ui.Out, "%s  [%s]\n", output.Cyan(rep.FileName), output.StatusColor(rep.Status))
	if rep.Reason != "" {
		fmt.Fprintf(ui.Out, "  %s\n", rep.Reason)
	}

	if len(rep.Findings) > 0 {
		fmt.Fprintln(ui.Out)
		table := ui.Table([]string{"Line", "Category", "Severity", "Message"})
		for _, f := range rep.Findings {
			line := "-"
			if f.Line > 0 {
				line = strconv.Itoa(f.Line)
			}
			table.Append([]string{line, string(f.Category), output.SeverityColor(f.Severity), f.Message})
		}
		if err := table.Render(); err != nil {
			ui.Warning("render findings table: %v", err)
		}
	}

	if rep.Text != "" {
		fmt.Fprintln(ui.Out)
		fmt.Fprintln(ui.Out, rep.Text)
	}
}

// summarize maps the worst report status to the process exit status.
func summarize(reports []*models.Report) error {
	failures := 0
	for _, rep := range reports {
		if rep.Status == models.ReportFailure {
			failures++
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d analyses failed", failures, len(reports))
	}
	return nil
}
