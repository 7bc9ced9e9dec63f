package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/smartsdlc/sdlc/internal/analyzer"
	"github.com/smartsdlc/sdlc/internal/engine"
	"github.com/smartsdlc/sdlc/internal/llm"
	"github.com/smartsdlc/sdlc/internal/prompt"
)

// newGenerator creates the configured model client. The provider is
// "ollama" (local model, default) or "anthropic" (hosted API).
func newGenerator() (llm.Generator, error) {
	serialize := viper.GetBool("llm.serialize")

	switch provider := viper.GetString("llm.provider"); provider {
	case "ollama":
		backend, err := llm.NewOllama(viper.GetString("ollama.host"), viper.GetString("ollama.model"))
		if err != nil {
			return nil, fmt.Errorf("configure ollama backend: %w", err)
		}
		return llm.NewClient(backend, serialize), nil

	case "anthropic":
		apiKey := viper.GetString("anthropic.api_key")
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		backend := llm.NewAnthropic(apiKey, viper.GetString("anthropic.model"), viper.GetInt64("llm.max_tokens"))
		return llm.NewClient(backend, serialize), nil

	default:
		return nil, fmt.Errorf("unknown llm provider %q (use ollama or anthropic)", provider)
	}
}

// newEngine assembles the full analysis pipeline around a generator.
func newEngine(generator llm.Generator) *engine.Engine {
	return engine.New(
		analyzer.New(),
		prompt.NewBuilder(viper.GetInt("analysis.max_prompt_chars")),
		generator,
		engine.Config{Timeout: analysisTimeout()},
	)
}
