package models

import "time"

// PromptRequest is a fully assembled model instruction. It is built once
// per analysis call and consumed exactly once by the model client.
type PromptRequest struct {
	Operation Operation
	System    string
	User      string
	Truncated bool // source was cut to fit the prompt budget
}

// ResponseStatus describes how a model call ended.
type ResponseStatus string

const (
	StatusComplete    ResponseStatus = "complete"
	StatusTruncated   ResponseStatus = "truncated"
	StatusTimedOut    ResponseStatus = "timed-out"
	StatusErrored     ResponseStatus = "errored"
	StatusUnavailable ResponseStatus = "unavailable"
)

// ModelResponse is the raw outcome of one model call.
type ModelResponse struct {
	Text    string
	Status  ResponseStatus
	Elapsed time.Duration
	Err     error // populated for errored/unavailable
}

// Usable reports whether the response carries text worth delivering.
func (r ModelResponse) Usable() bool {
	return (r.Status == StatusComplete || r.Status == StatusTruncated) && r.Text != ""
}

// ReportStatus is the overall outcome of an analysis request.
type ReportStatus string

const (
	ReportSuccess        ReportStatus = "success"
	ReportPartialSuccess ReportStatus = "partial_success"
	ReportFailure        ReportStatus = "failure"
)

// Report is the single result shape returned for every analysis request.
// It has no lifecycle beyond the request: recomputed each time, never
// mutated after construction.
type Report struct {
	Operation Operation       `json:"operation"`
	FileName  string          `json:"file_name"`
	Status    ReportStatus    `json:"status"`
	Reason    string          `json:"reason,omitempty"`
	Findings  []StaticFinding `json:"findings,omitempty"`
	Text      string          `json:"text,omitempty"`
	Elapsed   time.Duration   `json:"elapsed_ns"`
	CreatedAt time.Time       `json:"created_at"`
}
