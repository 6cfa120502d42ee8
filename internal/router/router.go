package router

import (
	"fmt"
	"strings"
	"sync"

	"hercules_trading/internal/models"
)

// Provider names form a small closed set; SetPreference rejects anything else.
const (
	ProviderGemini = "gemini"
	ProviderGrok   = "grok"
	ProviderOpenAI = "openai"
)

// Intent is the command-level purpose of an AI call.
type Intent string

const (
	IntentScan      Intent = "scan"
	IntentSentiment Intent = "sentiment"
	IntentManage    Intent = "manage"
	IntentManageID  Intent = "manageid"
	IntentGeneral   Intent = "general"
)

var validProviders = map[string]bool{
	ProviderGemini: true,
	ProviderGrok:   true,
	ProviderOpenAI: true,
}

// Router maps (owner, intent) to a concrete provider. Policy is intent-first:
// sentiment always goes to Grok (X/web search), scan and manage always go to
// Gemini (search-grounded reasoning), everything else follows the owner's
// stored preference.
type Router struct {
	mu          sync.RWMutex
	preferences map[int64]string
}

func New() *Router {
	return &Router{preferences: make(map[int64]string)}
}

// Resolve picks the provider for one request.
func (r *Router) Resolve(owner int64, intent Intent) string {
	switch intent {
	case IntentSentiment:
		return ProviderGrok
	case IntentScan, IntentManage, IntentManageID:
		return ProviderGemini
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.preferences[owner]; ok {
		return p
	}
	return ProviderGemini
}

// SetPreference overwrites the owner's stored provider. No history, no rollback.
func (r *Router) SetPreference(owner int64, provider string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !validProviders[provider] {
		return fmt.Errorf("%w: unknown provider %q (expected grok, openai or gemini)", models.ErrValidation, provider)
	}

	r.mu.Lock()
	r.preferences[owner] = provider
	r.mu.Unlock()
	return nil
}

// Preference returns the stored preference and whether one is set.
func (r *Router) Preference(owner int64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.preferences[owner]
	return p, ok
}
