package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PhotoSize is one resolution of an uploaded photo.
type PhotoSize struct {
	FileID   string `json:"file_id"`
	FileSize int64  `json:"file_size"`
}

// Update represents a Telegram Update object (partial schema).
type Update struct {
	UpdateID int `json:"update_id"`
	Message  struct {
		Text  string      `json:"text"`
		Photo []PhotoSize `json:"photo"`
		Chat  struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From struct {
			Username string `json:"username"`
		} `json:"from"`
	} `json:"message"`
}

type updateResponse struct {
	Ok          bool     `json:"ok"`
	Result      []Update `json:"result"`
	Description string   `json:"description"`
	ErrorCode   int      `json:"error_code"`
}

// Handler processes one inbound update. The chat id is the owner identity for
// everything downstream.
type Handler func(ctx context.Context, u Update)

// Listen long-polls getUpdates until ctx is cancelled. Each update is handled
// in its own goroutine so a slow AI call never blocks the poll loop.
func (c *Client) Listen(ctx context.Context, handler Handler) {
	offset := 0
	c.log.Info().Msg("Telegram listener started")

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("Telegram listener stopped")
			return
		default:
		}

		url := fmt.Sprintf("%s?offset=%d&timeout=60", c.methodURL("getUpdates"), offset)
		req, err := httpGetWithContext(ctx, url)
		if err != nil {
			return
		}
		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Error().Err(err).Msg("getUpdates failed")
			sleepCtx(ctx, 5*time.Second)
			continue
		}

		var result updateResponse
		err = json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if err != nil {
			c.log.Error().Err(err).Msg("getUpdates decode failed")
			sleepCtx(ctx, 5*time.Second)
			continue
		}

		if !result.Ok {
			c.log.Error().Int("code", result.ErrorCode).Str("description", result.Description).
				Msg("Telegram API error")
			sleepCtx(ctx, 5*time.Second)
			continue
		}

		for _, update := range result.Result {
			offset = update.UpdateID + 1
			go handler(ctx, update)
		}
	}
}

func httpGetWithContext(ctx context.Context, url string) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
