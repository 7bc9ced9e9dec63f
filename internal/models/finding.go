package models

import "sort"

// FindingCategory classifies what aspect of the code a finding concerns.
type FindingCategory string

const (
	CategoryStyle    FindingCategory = "style"
	CategoryLogic    FindingCategory = "logic"
	CategorySecurity FindingCategory = "security"
	CategoryMetric   FindingCategory = "metric"
)

// FindingSeverity ranks how serious a finding is.
type FindingSeverity string

const (
	SeverityError   FindingSeverity = "error"
	SeverityWarning FindingSeverity = "warning"
	SeverityInfo    FindingSeverity = "info"
)

// severityRank orders severities for sorting; higher is more severe.
func severityRank(s FindingSeverity) int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// StaticFinding is one deterministic issue produced without a model call.
// Line is 1-based; 0 means the finding applies to the file as a whole.
type StaticFinding struct {
	Category FindingCategory `json:"category"`
	Severity FindingSeverity `json:"severity"`
	Message  string          `json:"message"`
	Line     int             `json:"line,omitempty"`
}

// SortFindings orders findings by line ascending, then severity descending.
// Findings without a line number sort last.
func SortFindings(findings []StaticFinding) {
	sort.SliceStable(findings, func(i, j int) bool {
		li, lj := findings[i].Line, findings[j].Line
		if li != lj {
			if li == 0 {
				return false
			}
			if lj == 0 {
				return true
			}
			return li < lj
		}
		return severityRank(findings[i].Severity) > severityRank(findings[j].Severity)
	})
}
