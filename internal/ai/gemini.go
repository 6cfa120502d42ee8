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

const geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"

// geminiResponse covers the slice of the generateContent schema we consume.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		GroundingMetadata struct {
			GroundingChunks []struct {
				Web struct {
					URI string `json:"uri"`
				} `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
}

// generateGemini calls the generateContent REST API with Google Search
// grounding. Reasoning mode gets the pro model and a low temperature.
func (e *Engine) generateGemini(ctx context.Context, prompt, system string, mode TaskMode) (Result, error) {
	if e.keys.Gemini == "" {
		return Result{}, fmt.Errorf("%w: GEMINI_API_KEY not configured", models.ErrExternal)
	}

	model := "gemini-2.5-flash"
	temperature := 0.7
	if mode == ModeReasoning {
		model = "gemini-2.5-pro"
		temperature = 0.2
	}

	payload := map[string]interface{}{
		"system_instruction": map[string]interface{}{
			"parts": []map[string]interface{}{
				{"text": system},
			},
		},
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": prompt},
				},
			},
		},
		"tools": []map[string]interface{}{
			{"google_search": map[string]interface{}{}},
		},
		"generationConfig": map[string]interface{}{
			"temperature": temperature,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("%w: marshal gemini payload: %v", models.ErrExternal, err)
	}

	url := fmt.Sprintf(geminiEndpoint, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"?key="+e.keys.Gemini, bytes.NewBuffer(body))
	if err != nil {
		return Result{}, fmt.Errorf("%w: build gemini request: %v", models.ErrExternal, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: gemini call: %v", models.ErrExternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return Result{}, fmt.Errorf("%w: gemini API error %d: %s", models.ErrExternal, resp.StatusCode, truncate(string(raw), 300))
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("%w: decode gemini response: %v", models.ErrExternal, err)
	}
	if len(parsed.Candidates) == 0 {
		return Result{}, fmt.Errorf("%w: no candidates in gemini response", models.ErrExternal)
	}

	// Tool-using responses can split the answer across parts; stitch them
	// together so something user-visible always comes back.
	var parts []string
	for _, p := range parsed.Candidates[0].Content.Parts {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}

	var citations []string
	for _, chunk := range parsed.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk.Web.URI != "" {
			citations = append(citations, chunk.Web.URI)
		}
	}

	return Result{Text: strings.TrimSpace(strings.Join(parts, "\n")), Citations: citations}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
