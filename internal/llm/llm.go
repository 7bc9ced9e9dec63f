package llm

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/smartsdlc/sdlc/internal/models"
)

var errEmptyResponse = errors.New("no text content in model response")

// Generator is the single blocking generate call the engine depends on.
// Implementations never panic and never block waiting for model loading:
// an unavailable model is reported as a StatusUnavailable response.
type Generator interface {
	Generate(ctx context.Context, req models.PromptRequest) models.ModelResponse
}

// Backend is a concrete model provider. Ready must be cheap; Generate may
// block for the duration of one inference call.
type Backend interface {
	// Name identifies the provider in failure reasons.
	Name() string
	// Ready reports whether the model can accept a call right now.
	Ready(ctx context.Context) error
	// Generate runs one inference. truncated is true when the model hit
	// its output token budget before finishing.
	Generate(ctx context.Context, system, user string) (text string, truncated bool, err error)
}

// Client adapts a Backend to the Generator contract and owns the
// process-wide call discipline: when the backend is not safely reentrant,
// calls are serialized through a mutex and concurrent callers queue FIFO.
type Client struct {
	backend Backend
	mu      *sync.Mutex
}

// NewClient wraps a backend. Set serialize for backends that cannot take
// concurrent calls (locally hosted models).
func NewClient(backend Backend, serialize bool) *Client {
	c := &Client{backend: backend}
	if serialize {
		c.mu = &sync.Mutex{}
	}
	return c
}

// Generate checks readiness, runs the call, and normalizes the outcome
// into a ModelResponse. It never returns an error: every failure mode is
// a response status.
func (c *Client) Generate(ctx context.Context, req models.PromptRequest) models.ModelResponse {
	start := time.Now()

	if err := c.backend.Ready(ctx); err != nil {
		return models.ModelResponse{
			Status:  models.StatusUnavailable,
			Elapsed: time.Since(start),
			Err:     err,
		}
	}

	if c.mu != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
	}

	text, truncated, err := c.backend.Generate(ctx, req.System, req.User)
	elapsed := time.Since(start)

	switch {
	case err != nil:
		return models.ModelResponse{Status: models.StatusErrored, Elapsed: elapsed, Err: err}
	case text == "":
		return models.ModelResponse{Status: models.StatusErrored, Elapsed: elapsed, Err: errEmptyResponse}
	case truncated:
		return models.ModelResponse{Text: text, Status: models.StatusTruncated, Elapsed: elapsed}
	default:
		return models.ModelResponse{Text: text, Status: models.StatusComplete, Elapsed: elapsed}
	}
}
