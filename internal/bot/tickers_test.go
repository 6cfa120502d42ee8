package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTickers(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"comma joined", []string{"sofi,hood"}, []string{"SOFI", "HOOD"}},
		{"space separated", []string{"SOFI", "HOOD"}, []string{"SOFI", "HOOD"}},
		{"mixed with blanks", []string{"aapl, ,msft", ""}, []string{"AAPL", "MSFT"}},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeTickers(tt.in))
		})
	}
}

func TestIsTickerLike(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"SOFI", true},
		{"BRK.B", true},
		{"AAPL,", true}, // trailing comma from a list
		{"GOOGL", true},
		{"semiconductors", false}, // lowercase sector word
		{"TECHNOLOGY", false},     // too long to be a symbol
		{"", false},
		{"A1", true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, isTickerLike(tt.token))
		})
	}
}

func TestAllTickerLike(t *testing.T) {
	assert.True(t, allTickerLike([]string{"SOFI", "HOOD"}))
	assert.False(t, allTickerLike([]string{"SOFI", "semiconductors"}))
	assert.False(t, allTickerLike(nil))
}
