package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"hercules_trading/internal/models"
)

const geminiVisionEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent"

const extractionPrompt = `Analyze this trade screenshot. Return JSON with these keys:
* ticker: Symbol (e.g. AMD)
* type: CSP, CC, BPS, or CCS.
* short_strike: The strike price of the option SOLD (Credit).
* long_strike: The strike price of the option BOUGHT (if any). Null if single leg.
* price: The Net Credit/Premium received.
* expiry: Expiry Date (MM/DD/YYYY).
* open_date: The date the trade was opened/filled (MM/DD/YYYY). Infer year if missing.`

// GeminiExtractor reads trade screenshots with the Gemini vision API.
type GeminiExtractor struct {
	apiKey string
	http   *http.Client
	log    zerolog.Logger
}

func NewGeminiExtractor(apiKey string, log zerolog.Logger) *GeminiExtractor {
	return &GeminiExtractor{
		apiKey: apiKey,
		http:   &http.Client{Timeout: 60 * time.Second},
		log:    log.With().Str("component", "vision").Logger(),
	}
}

// extractPayload mirrors the JSON keys the prompt demands.
type extractPayload struct {
	Ticker      string       `json:"ticker"`
	Type        string       `json:"type"`
	ShortStrike json.Number  `json:"short_strike"`
	LongStrike  *json.Number `json:"long_strike"`
	Price       json.Number  `json:"price"`
	Expiry      string       `json:"expiry"`
	OpenDate    string       `json:"open_date"`
}

type visionResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Extract sends the image to Gemini and parses the structured draft out of
// the reply. Anything unparseable degrades to (nil, nil).
func (g *GeminiExtractor) Extract(ctx context.Context, imageBytes []byte) (*models.StagedDraft, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY not configured", models.ErrExternal)
	}

	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": extractionPrompt},
					{"inline_data": map[string]interface{}{
						"mime_type": "image/jpeg",
						"data":      base64.StdEncoding.EncodeToString(imageBytes),
					}},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"response_mime_type": "application/json",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal vision payload: %v", models.ErrExternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, geminiVisionEndpoint+"?key="+g.apiKey, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build vision request: %v", models.ErrExternal, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: vision call: %v", models.ErrExternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: vision API error %d: %s", models.ErrExternal, resp.StatusCode, string(raw))
	}

	var parsed visionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode vision response: %v", models.ErrExternal, err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, nil
	}

	text := parsed.Candidates[0].Content.Parts[0].Text
	return ParseDraft(text)
}

// ParseDraft converts the model's JSON reply into a validated draft.
// Split out of Extract so it can be tested without network access.
func ParseDraft(text string) (*models.StagedDraft, error) {
	// Models sometimes wrap JSON in code fences despite the mime type hint.
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var p extractPayload
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return nil, nil // could not extract
	}
	if p.Ticker == "" || p.Type == "" || p.Expiry == "" {
		return nil, nil
	}

	strategy, err := models.ParseStrategy(p.Type)
	if err != nil {
		return nil, nil
	}

	short, err := decimal.NewFromString(p.ShortStrike.String())
	if err != nil {
		return nil, nil
	}
	credit, err := decimal.NewFromString(p.Price.String())
	if err != nil {
		return nil, nil
	}

	var long *decimal.Decimal
	if p.LongStrike != nil {
		d, err := decimal.NewFromString(p.LongStrike.String())
		if err == nil {
			long = &d
		}
	}

	expiry, err := time.Parse(models.InputDateLayout, p.Expiry)
	if err != nil {
		return nil, nil
	}

	openDate := time.Now()
	if p.OpenDate != "" {
		if parsed, err := time.Parse(models.InputDateLayout, p.OpenDate); err == nil {
			openDate = parsed
		}
	}

	return &models.StagedDraft{
		Ticker:      strings.ToUpper(p.Ticker),
		Strategy:    strategy,
		ShortStrike: short,
		LongStrike:  long,
		EntryCredit: credit,
		OpenDate:    openDate,
		ExpiryDate:  expiry,
		Source:      "screenshot",
	}, nil
}
