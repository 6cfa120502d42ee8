package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"hercules_trading/internal/models"
)

const grokEndpoint = "https://api.x.ai/v1/chat/completions"

type grokResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations"`
}

// generateGrok calls the x.ai chat completions API with live search enabled.
// Grok is the sentiment specialist: X posts plus web results, with citations.
func (e *Engine) generateGrok(ctx context.Context, prompt, system string) (Result, error) {
	if e.keys.XAI == "" {
		return Result{}, fmt.Errorf("%w: XAI_API_KEY or GROK_API_KEY not configured", models.ErrExternal)
	}

	payload := map[string]interface{}{
		"model": "grok-4-1-fast",
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": prompt},
		},
		"search_parameters": map[string]interface{}{
			"mode":             "auto",
			"return_citations": true,
			"sources": []map[string]string{
				{"type": "x"},
				{"type": "web"},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("%w: marshal grok payload: %v", models.ErrExternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, grokEndpoint, bytes.NewBuffer(body))
	if err != nil {
		return Result{}, fmt.Errorf("%w: build grok request: %v", models.ErrExternal, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.keys.XAI)

	resp, err := e.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: grok call: %v", models.ErrExternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return Result{}, fmt.Errorf("%w: grok API error %d: %s", models.ErrExternal, resp.StatusCode, truncate(string(raw), 300))
	}

	var parsed grokResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("%w: decode grok response: %v", models.ErrExternal, err)
	}
	if len(parsed.Choices) == 0 {
		return Result{}, fmt.Errorf("%w: no choices in grok response", models.ErrExternal)
	}

	return Result{
		Text:      strings.TrimSpace(parsed.Choices[0].Message.Content),
		Citations: parsed.Citations,
	}, nil
}
