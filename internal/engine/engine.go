// Package engine is the analysis orchestrator: it merges deterministic
// static findings with a guarded model call and normalizes the outcome
// into a Report. Every failure path is a Report value; nothing escapes
// this boundary as an error.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/smartsdlc/sdlc/internal/guard"
	"github.com/smartsdlc/sdlc/internal/llm"
	"github.com/smartsdlc/sdlc/internal/models"
)

// StaticAnalyzer produces deterministic findings for an artifact.
type StaticAnalyzer interface {
	Analyze(ctx context.Context, artifact models.SourceArtifact, op models.Operation) []models.StaticFinding
}

// PromptBuilder assembles the model instruction for an operation.
type PromptBuilder interface {
	Build(op models.Operation, artifact models.SourceArtifact, findings []models.StaticFinding) models.PromptRequest
}

// Config is the orchestrator's tuning surface, fixed at construction and
// never mutated mid-request.
type Config struct {
	Timeout time.Duration
}

// Engine runs one analysis request at a time per call; calls are
// independent and stateless, so concurrent Run invocations are safe. Any
// serialization the model needs lives inside the Generator.
type Engine struct {
	analyzer  StaticAnalyzer
	builder   PromptBuilder
	generator llm.Generator
	timeout   time.Duration
}

// New wires the orchestrator. A zero timeout disables the deadline guard.
func New(analyzer StaticAnalyzer, builder PromptBuilder, generator llm.Generator, cfg Config) *Engine {
	return &Engine{
		analyzer:  analyzer,
		builder:   builder,
		generator: generator,
		timeout:   cfg.Timeout,
	}
}

// Run executes one analysis request end to end and always returns a
// Report. Status rules:
//   - model complete/truncated: Success (truncated notes partial coverage)
//   - model failed but static findings exist: PartialSuccess, findings only
//   - model failed and no findings: Failure with the model failure reason
func (e *Engine) Run(ctx context.Context, op models.Operation, artifact models.SourceArtifact) *models.Report {
	report := &models.Report{
		Operation: op,
		FileName:  artifact.FileName,
		CreatedAt: time.Now().UTC(),
	}

	// 1. Validate before touching any other component.
	if artifact.Empty() {
		report.Status = models.ReportFailure
		report.Reason = "empty input"
		return report
	}

	// 2. Static findings (nil for generative operations).
	findings := e.analyzer.Analyze(ctx, artifact, op)
	report.Findings = findings

	// 3. Assemble the prompt.
	req := e.builder.Build(op, artifact, findings)

	// 4. Guarded model call.
	resp := guard.WithDeadline(ctx, e.timeout, func(callCtx context.Context) models.ModelResponse {
		return e.generator.Generate(callCtx, req)
	})
	report.Elapsed = resp.Elapsed

	// 5. Classify.
	if resp.Usable() {
		report.Status = models.ReportSuccess
		report.Text = resp.Text
		switch {
		case resp.Status == models.StatusTruncated:
			report.Reason = "model output was truncated; coverage is partial"
		case req.Truncated:
			report.Reason = "input was truncated to fit the prompt budget; coverage is partial"
		}
		return report
	}

	reason := failureReason(resp)
	if len(findings) > 0 {
		report.Status = models.ReportPartialSuccess
		report.Reason = reason
		return report
	}

	report.Status = models.ReportFailure
	report.Reason = reason
	return report
}

// failureReason renders a human-readable reason for a non-usable response.
func failureReason(resp models.ModelResponse) string {
	switch resp.Status {
	case models.StatusUnavailable:
		return fmt.Sprintf("model unavailable: %v", resp.Err)
	case models.StatusTimedOut:
		return fmt.Sprintf("model call timed out: %v", resp.Err)
	case models.StatusErrored:
		return fmt.Sprintf("model error: %v", resp.Err)
	default:
		return fmt.Sprintf("model returned no usable text (status %s)", resp.Status)
	}
}
