package models

import "time"

// AnalysisRecord is one row of analysis history. It summarizes a Report;
// the full model text is kept so past results can be re-displayed.
type AnalysisRecord struct {
	ID           string
	Operation    Operation
	FileName     string
	Status       ReportStatus
	Reason       string
	FindingCount int
	Text         string
	Elapsed      time.Duration
	CreatedAt    time.Time
}

// RecordFromReport builds a history record from a finished report.
// The ID is assigned by the store.
func RecordFromReport(r *Report) *AnalysisRecord {
	return &AnalysisRecord{
		Operation:    r.Operation,
		FileName:     r.FileName,
		Status:       r.Status,
		Reason:       r.Reason,
		FindingCount: len(r.Findings),
		Text:         r.Text,
		Elapsed:      r.Elapsed,
		CreatedAt:    r.CreatedAt,
	}
}
