package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JexSrs/go-ollama"
)

// OllamaBackend generates through a locally hosted Ollama model. Local
// models load large weights at server startup and are commonly not ready
// (or not running at all); Ready probes the server before every call so a
// missing model surfaces as an unavailable status, never a hang or crash.
type OllamaBackend struct {
	client *ollama.Ollama
	model  string
	host   string
	probe  *http.Client
}

// NewOllama creates the local-model backend for the given host URL.
func NewOllama(host, model string) (*OllamaBackend, error) {
	parsed, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host URL: %w", err)
	}

	return &OllamaBackend{
		client: ollama.New(*parsed),
		model:  model,
		host:   host,
		probe:  &http.Client{Timeout: 2 * time.Second},
	}, nil
}

// Name implements Backend.
func (b *OllamaBackend) Name() string { return "ollama" }

// Ready implements Backend by probing the server root. Ollama answers
// plain 200 when it is up; anything else means the model host is not
// loaded or not reachable.
func (b *OllamaBackend) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.host, nil)
	if err != nil {
		return fmt.Errorf("ollama probe: %w", err)
	}
	resp, err := b.probe.Do(req)
	if err != nil {
		return fmt.Errorf("ollama server not reachable at %s: %w", b.host, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama server at %s returned status %d", b.host, resp.StatusCode)
	}
	return nil
}

// Generate implements Backend using the non-streaming Generate endpoint.
func (b *OllamaBackend) Generate(ctx context.Context, system, user string) (string, bool, error) {
	res, err := b.client.Generate(
		b.client.Generate.WithModel(b.model),
		b.client.Generate.WithSystem(system),
		b.client.Generate.WithPrompt(user),
	)
	if err != nil {
		return "", false, fmt.Errorf("ollama generate: %w", err)
	}
	if !res.Done {
		return "", false, errors.New("ollama returned an unfinished response")
	}

	// Local models sometimes wrap output in markdown fences.
	text := strings.TrimSpace(strings.Trim(res.Response, "`"))
	return text, false, nil
}
