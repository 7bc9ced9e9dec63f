package analyzer

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/smartsdlc/sdlc/internal/models"
)

// Metrics summarizes the size and branching of a source file.
type Metrics struct {
	Lines      int
	Functions  int
	Classes    int
	Complexity int
}

// computeMetrics walks the tree once and counts definitions plus decision
// points. Complexity is the classic count-of-branches measure with a base
// of one.
func computeMetrics(root *sitter.Node, src *source) Metrics {
	m := Metrics{Lines: len(src.lines), Complexity: 1}
	if m.Lines > 0 && src.lines[m.Lines-1] == "" {
		m.Lines-- // trailing newline is not a line of code
	}

	walk(root, func(n *sitter.Node) {
		switch n.Type() {
		case "function_definition":
			m.Functions++
		case "class_definition":
			m.Classes++
		case "if_statement", "for_statement", "while_statement", "try_statement", "conditional_expression":
			m.Complexity++
		}
	})

	return m
}

// metricFindings renders the metrics as file-level findings so they ride
// along in the same Report shape as every other check.
func metricFindings(root *sitter.Node, src *source) []models.StaticFinding {
	m := computeMetrics(root, src)

	metric := func(msg string) models.StaticFinding {
		return models.StaticFinding{
			Category: models.CategoryMetric,
			Severity: models.SeverityInfo,
			Message:  msg,
		}
	}

	return []models.StaticFinding{
		metric(fmt.Sprintf("lines of code: %d", m.Lines)),
		metric(fmt.Sprintf("functions: %d", m.Functions)),
		metric(fmt.Sprintf("classes: %d", m.Classes)),
		metric(fmt.Sprintf("cyclomatic complexity: %d", m.Complexity)),
	}
}
