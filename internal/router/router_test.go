package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hercules_trading/internal/models"
)

func TestResolveIntentPolicy(t *testing.T) {
	r := New()

	tests := []struct {
		intent Intent
		want   string
	}{
		{IntentSentiment, ProviderGrok},
		{IntentScan, ProviderGemini},
		{IntentManage, ProviderGemini},
		{IntentManageID, ProviderGemini},
		{IntentGeneral, ProviderGemini}, // no preference stored, default
	}

	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(1, tt.intent))
		})
	}
}

func TestPreferenceAppliesOnlyToGeneral(t *testing.T) {
	r := New()
	require.NoError(t, r.SetPreference(1, "openai"))

	// Pinned intents ignore the preference.
	assert.Equal(t, ProviderGrok, r.Resolve(1, IntentSentiment))
	assert.Equal(t, ProviderGemini, r.Resolve(1, IntentManage))

	// General follows it.
	assert.Equal(t, ProviderOpenAI, r.Resolve(1, IntentGeneral))

	// Other owners are unaffected.
	assert.Equal(t, ProviderGemini, r.Resolve(2, IntentGeneral))
}

func TestSetPreferenceNormalizesAndValidates(t *testing.T) {
	r := New()

	require.NoError(t, r.SetPreference(1, "  GROK "))
	p, ok := r.Preference(1)
	require.True(t, ok)
	assert.Equal(t, ProviderGrok, p)

	err := r.SetPreference(1, "claude")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))

	// Failed set must not clobber the stored preference.
	p, ok = r.Preference(1)
	require.True(t, ok)
	assert.Equal(t, ProviderGrok, p)
}
