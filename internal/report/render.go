// Package report assembles the multi-section project report from one or
// more analysis results.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/smartsdlc/sdlc/internal/models"
)

// Renderer formats project reports as plain text. The clock is injectable
// so rendered output is reproducible in tests.
type Renderer struct {
	now func() time.Time
}

// NewRenderer returns a renderer using the wall clock.
func NewRenderer() *Renderer {
	return &Renderer{now: time.Now}
}

// Render produces the full report document for a set of per-file analysis
// results, in the order given.
func (r *Renderer) Render(projectName string, reports []*models.Report) string {
	var sb strings.Builder

	title := fmt.Sprintf("Project Report: %s", projectName)
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("=", len(title)) + "\n")
	sb.WriteString(fmt.Sprintf("Generated on %s\n", r.now().UTC().Format("2006-01-02 15:04:05")))

	for _, rep := range reports {
		sb.WriteString("\n")
		r.renderFile(&sb, rep)
	}

	return sb.String()
}

func (r *Renderer) renderFile(sb *strings.Builder, rep *models.Report) {
	heading := fmt.Sprintf("Analysis of %s", rep.FileName)
	sb.WriteString(heading + "\n")
	sb.WriteString(strings.Repeat("-", len(heading)) + "\n")
	sb.WriteString(fmt.Sprintf("Status: %s\n", rep.Status))
	if rep.Reason != "" {
		sb.WriteString(fmt.Sprintf("Note: %s\n", rep.Reason))
	}

	metrics, issues := splitFindings(rep.Findings)

	if len(metrics) > 0 {
		sb.WriteString("\nCode Metrics:\n")
		for _, m := range metrics {
			sb.WriteString("  " + m.Message + "\n")
		}
	}

	if len(issues) > 0 {
		sb.WriteString("\nStatic Findings:\n")
		for _, f := range issues {
			if f.Line > 0 {
				sb.WriteString(fmt.Sprintf("  - line %d [%s/%s]: %s\n", f.Line, f.Category, f.Severity, f.Message))
			} else {
				sb.WriteString(fmt.Sprintf("  - [%s/%s]: %s\n", f.Category, f.Severity, f.Message))
			}
		}
	} else if len(metrics) == 0 && rep.Status != models.ReportFailure {
		sb.WriteString("\nStatic Findings:\n  - no significant issues found\n")
	}

	if rep.Text != "" {
		sb.WriteString("\nModel Summary:\n")
		sb.WriteString(indent(rep.Text, "  "))
		if !strings.HasSuffix(rep.Text, "\n") {
			sb.WriteString("\n")
		}
	}
}

// splitFindings separates metric findings from everything else, keeping
// the analyzer's ordering within each group.
func splitFindings(findings []models.StaticFinding) (metrics, issues []models.StaticFinding) {
	for _, f := range findings {
		if f.Category == models.CategoryMetric {
			metrics = append(metrics, f)
		} else {
			issues = append(issues, f)
		}
	}
	return metrics, issues
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}
