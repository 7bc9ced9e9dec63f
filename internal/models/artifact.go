package models

import (
	"fmt"
	"strings"
)

// Language identifies the source language of an artifact.
type Language string

// LanguagePython is the only language the analyzers currently understand.
const LanguagePython Language = "python"

// SourceArtifact is one submitted source file. It is immutable: created
// when the file is received, owned by a single analysis call, and
// discarded when the Report is returned.
type SourceArtifact struct {
	FileName string   `json:"file_name"`
	Content  string   `json:"content"`
	Language Language `json:"language"`
}

// NewSourceArtifact builds an artifact for the given file name and content.
func NewSourceArtifact(fileName, content string) SourceArtifact {
	return SourceArtifact{
		FileName: fileName,
		Content:  content,
		Language: LanguagePython,
	}
}

// Empty reports whether the artifact carries no analyzable content.
func (a SourceArtifact) Empty() bool {
	return strings.TrimSpace(a.Content) == ""
}

// Operation is the analysis task requested for an artifact.
type Operation string

const (
	OpGenerateDocstrings    Operation = "docs"
	OpReviewCode            Operation = "review"
	OpPredictBugs           Operation = "bugs"
	OpGenerateReport        Operation = "report"
	OpSummarizeRequirements Operation = "requirements"
	OpGenerateCode          Operation = "generate"
	OpGenerateTests         Operation = "tests"
	OpSecurityScan          Operation = "security"
)

// Operations lists every supported operation in display order.
func Operations() []Operation {
	return []Operation{
		OpGenerateDocstrings,
		OpReviewCode,
		OpPredictBugs,
		OpGenerateReport,
		OpSummarizeRequirements,
		OpGenerateCode,
		OpGenerateTests,
		OpSecurityScan,
	}
}

// ParseOperation converts a user-supplied string to an Operation.
func ParseOperation(s string) (Operation, error) {
	op := Operation(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Operations() {
		if op == known {
			return op, nil
		}
	}
	return "", fmt.Errorf("unknown operation %q", s)
}

// Description returns a short human-readable summary of the operation.
func (o Operation) Description() string {
	switch o {
	case OpGenerateDocstrings:
		return "Generate docstrings for functions and classes"
	case OpReviewCode:
		return "Review code for style, logic, and improvements"
	case OpPredictBugs:
		return "Predict potential bugs and logical errors"
	case OpGenerateReport:
		return "Generate a full project report with metrics"
	case OpSummarizeRequirements:
		return "Summarize functional requirements from code"
	case OpGenerateCode:
		return "Generate code from a requirements description"
	case OpGenerateTests:
		return "Generate test cases for the code"
	case OpSecurityScan:
		return "Scan for security issues and produce a report"
	default:
		return string(o)
	}
}

// Analyzable reports whether deterministic static checks apply to the
// operation. Purely generative operations skip static analysis entirely.
func (o Operation) Analyzable() bool {
	switch o {
	case OpReviewCode, OpPredictBugs, OpGenerateReport, OpSecurityScan:
		return true
	default:
		return false
	}
}
