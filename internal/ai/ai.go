package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"hercules_trading/internal/models"
	"hercules_trading/internal/router"
)

// TaskMode selects sampling behavior. Reviews of live positions always use
// Reasoning (lower temperature, bigger model); scans use Speed.
type TaskMode string

const (
	ModeSpeed     TaskMode = "speed"
	ModeReasoning TaskMode = "reasoning"
)

// Result is what a provider call yields: the text plus any citation URLs the
// provider surfaced while searching.
type Result struct {
	Text      string
	Citations []string
}

// Generator is the boundary the rest of the system depends on. Implementations
// return an error instead of panicking; callers degrade to diagnostics.
type Generator interface {
	Generate(ctx context.Context, provider, prompt, system string, mode TaskMode) (Result, error)
}

// Keys holds the provider credentials. Empty keys disable that provider.
type Keys struct {
	Gemini string
	XAI    string
	OpenAI string
}

// Engine dispatches to the concrete provider clients over raw REST.
type Engine struct {
	keys Keys
	http *http.Client
	log  zerolog.Logger
}

func NewEngine(keys Keys, log zerolog.Logger) *Engine {
	return &Engine{
		keys: keys,
		// Search-grounded reasoning calls can run long.
		http: &http.Client{Timeout: 120 * time.Second},
		log:  log.With().Str("component", "ai").Logger(),
	}
}

// Generate routes one request to the named provider.
func (e *Engine) Generate(ctx context.Context, provider, prompt, system string, mode TaskMode) (Result, error) {
	start := time.Now()
	var res Result
	var err error

	switch provider {
	case router.ProviderGemini:
		res, err = e.generateGemini(ctx, prompt, system, mode)
	case router.ProviderGrok:
		res, err = e.generateGrok(ctx, prompt, system)
	case router.ProviderOpenAI:
		res, err = e.generateOpenAI(ctx, prompt, system)
	default:
		err = fmt.Errorf("%w: unsupported provider %q", models.ErrExternal, provider)
	}

	evt := e.log.Info()
	if err != nil {
		evt = e.log.Error().Err(err)
	}
	evt.Str("provider", provider).Str("mode", string(mode)).
		Dur("elapsed", time.Since(start)).Msg("AI call finished")

	return res, err
}
