// Package guard bounds the worst-case latency of a blocking model call.
// Inference latency is highly variable (cold loads, large inputs, hardware
// variance); the guard converts a stall into a typed timed-out response so
// user-visible wait time stays deterministic.
package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/smartsdlc/sdlc/internal/models"
)

// WithDeadline races call against limit. The call runs as a single unit of
// work; if the deadline elapses first, its eventual result is discarded
// (never delivered to a later caller) and a timed-out response is returned
// synchronously. The guard never retries.
//
// The inner context is cancelled on timeout so transport-level resources
// held by an abandoned call are released. The result channel is buffered,
// so the worker goroutine always exits even when nobody is listening.
func WithDeadline(ctx context.Context, limit time.Duration, call func(context.Context) models.ModelResponse) models.ModelResponse {
	if limit <= 0 {
		return call(ctx)
	}

	callCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	done := make(chan models.ModelResponse, 1)
	start := time.Now()

	go func() {
		done <- call(callCtx)
	}()

	select {
	case resp := <-done:
		return resp
	case <-callCtx.Done():
		return models.ModelResponse{
			Status:  models.StatusTimedOut,
			Elapsed: time.Since(start),
			Err:     fmt.Errorf("model call exceeded %s deadline", limit),
		}
	}
}
