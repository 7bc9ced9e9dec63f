package prompt

import (
	"fmt"
	"strings"

	"github.com/smartsdlc/sdlc/internal/models"
)

// DefaultMaxChars is the source budget applied when none is configured.
// Inference cost and latency scale with input size; unbounded input risks
// blowing the model call deadline.
const DefaultMaxChars = 24000

// template is the fixed prompt shape for one operation. Templates are pure
// data: identical inputs always produce an identical PromptRequest.
type template struct {
	system        string
	instruction   string
	embedFindings bool
	fence         string // code fence language for the embedded source
}

// templates maps every operation to exactly one template.
var templates = map[models.Operation]template{
	models.OpGenerateDocstrings: {
		system:      "You are a senior Python developer. Return only the modified code, no commentary.",
		instruction: "Add Google-style docstrings to every function, class, and module in the following Python code. Keep the code itself unchanged.",
		fence:       "python",
	},
	models.OpReviewCode: {
		system:        "You are a meticulous Python code reviewer. Respond with a list of specific, actionable comments.",
		instruction:   "Review the following Python code for PEP 8 issues, logic errors, and improvements.",
		embedFindings: true,
		fence:         "python",
	},
	models.OpPredictBugs: {
		system:        "You are a Python bug hunter. Respond with a list of issues, each with a short explanation.",
		instruction:   "Find and explain bugs or potential issues in this Python code.",
		embedFindings: true,
		fence:         "python",
	},
	models.OpGenerateReport: {
		system:        "You are a technical writer producing project reports. Respond with sections: Overview, Key Functionality, Observations, Suggestions.",
		instruction:   "Summarize this Python project. Include purpose, major functions, structure, and suggestions.",
		embedFindings: true,
		fence:         "python",
	},
	models.OpSummarizeRequirements: {
		system:      "You are a requirements analyst. Respond with a numbered list of functional requirements.",
		instruction: "Read the following Python code and summarize the functional requirements it implements.",
		fence:       "python",
	},
	models.OpGenerateCode: {
		system:      "You are a senior Python developer. Return only runnable Python code, no commentary.",
		instruction: "Generate Python code that implements the following requirements.",
		fence:       "text",
	},
	models.OpGenerateTests: {
		system:      "You are a Python testing expert. Return only pytest test code, no commentary.",
		instruction: "Generate pytest test cases covering the functions and edge cases of this Python code.",
		fence:       "python",
	},
	models.OpSecurityScan: {
		system:        "You are a security auditor. Respond with sections: Summary, Vulnerabilities (with severity), Recommendations.",
		instruction:   "Produce a security report for this Python code. Identify injection risks, unsafe calls, secret handling problems, and unsafe deserialization.",
		embedFindings: true,
		fence:         "python",
	},
}

// Builder assembles deterministic model prompts.
type Builder struct {
	maxChars int
}

// NewBuilder creates a Builder with the given source character budget.
// Non-positive budgets fall back to DefaultMaxChars.
func NewBuilder(maxChars int) *Builder {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Builder{maxChars: maxChars}
}

// Build assembles the PromptRequest for one operation. Source longer than
// the budget is cut at the budget boundary, keeping the head of the file,
// and the prompt tells the model that coverage is partial.
func (b *Builder) Build(op models.Operation, artifact models.SourceArtifact, findings []models.StaticFinding) models.PromptRequest {
	tmpl := templates[op]

	body := artifact.Content
	truncated := false
	if len(body) > b.maxChars {
		body = body[:b.maxChars]
		truncated = true
	}

	var sb strings.Builder
	sb.WriteString(tmpl.instruction)
	sb.WriteString("\n\nFile: ")
	sb.WriteString(artifact.FileName)
	sb.WriteString("\n\n```")
	sb.WriteString(tmpl.fence)
	sb.WriteString("\n")
	sb.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("```\n")

	if truncated {
		sb.WriteString("\nNote: the input was truncated to fit the prompt budget; only the beginning of the file is shown. Output coverage is partial.\n")
	}

	if tmpl.embedFindings && len(findings) > 0 {
		sb.WriteString("\nStatic analysis findings:\n")
		for _, f := range findings {
			sb.WriteString(formatFinding(f))
			sb.WriteString("\n")
		}
	}

	return models.PromptRequest{
		Operation: op,
		System:    tmpl.system,
		User:      sb.String(),
		Truncated: truncated,
	}
}

func formatFinding(f models.StaticFinding) string {
	if f.Line > 0 {
		return fmt.Sprintf("- line %d [%s/%s]: %s", f.Line, f.Category, f.Severity, f.Message)
	}
	return fmt.Sprintf("- [%s/%s]: %s", f.Category, f.Severity, f.Message)
}
