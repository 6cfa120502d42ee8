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

const openAIEndpoint = "https://api.openai.com/v1/chat/completions"

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// generateOpenAI calls the chat completions API. Available only via owner
// preference; no search tools, no citations.
func (e *Engine) generateOpenAI(ctx context.Context, prompt, system string) (Result, error) {
	if e.keys.OpenAI == "" {
		return Result{}, fmt.Errorf("%w: OPENAI_API_KEY not configured", models.ErrExternal)
	}

	payload := map[string]interface{}{
		"model": "gpt-4o",
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": prompt},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("%w: marshal openai payload: %v", models.ErrExternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIEndpoint, bytes.NewBuffer(body))
	if err != nil {
		return Result{}, fmt.Errorf("%w: build openai request: %v", models.ErrExternal, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.keys.OpenAI)

	resp, err := e.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: openai call: %v", models.ErrExternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return Result{}, fmt.Errorf("%w: openai API error %d: %s", models.ErrExternal, resp.StatusCode, truncate(string(raw), 300))
	}

	var parsed openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("%w: decode openai response: %v", models.ErrExternal, err)
	}
	if len(parsed.Choices) == 0 {
		return Result{}, fmt.Errorf("%w: no choices in openai response", models.ErrExternal)
	}

	return Result{Text: strings.TrimSpace(parsed.Choices[0].Message.Content)}, nil
}
