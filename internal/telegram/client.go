package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const apiBase = "https://api.telegram.org"

// Client is a thin wrapper over the Telegram Bot REST API.
type Client struct {
	token string
	http  *http.Client
	log   zerolog.Logger
}

func NewClient(token string, log zerolog.Logger) *Client {
	return &Client{
		token: token,
		// Long-polling getUpdates uses timeout=60; leave headroom.
		http: &http.Client{Timeout: 90 * time.Second},
		log:  log.With().Str("component", "telegram").Logger(),
	}
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", apiBase, c.token, method)
}

// Send delivers a Markdown message to one chat.
func (c *Client) Send(chatID int64, text string) error {
	payload := map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, _ := json.Marshal(payload)
	resp, err := c.http.Post(c.methodURL("sendMessage"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		// Markdown parse failures are common with AI output; retry plain.
		plain := map[string]interface{}{"chat_id": chatID, "text": text}
		body, _ := json.Marshal(plain)
		retry, err := c.http.Post(c.methodURL("sendMessage"), "application/json", bytes.NewBuffer(body))
		if err != nil {
			return fmt.Errorf("telegram sendMessage (plain): %w", err)
		}
		defer retry.Body.Close()
		resp = retry
	}

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}

// SendDocument uploads a text attachment, used when an AI reply exceeds the
// message size limit.
func (c *Client) SendDocument(chatID int64, filename string, content []byte, caption string) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	_ = w.WriteField("chat_id", fmt.Sprintf("%d", chatID))
	_ = w.WriteField("caption", caption)
	part, err := w.CreateFormFile("document", filename)
	if err != nil {
		return fmt.Errorf("telegram sendDocument: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("telegram sendDocument: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("telegram sendDocument: %w", err)
	}

	resp, err := c.http.Post(c.methodURL("sendDocument"), w.FormDataContentType(), &buf)
	if err != nil {
		return fmt.Errorf("telegram sendDocument: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}

// sendTyping fires one "typing" chat action. Failures are harmless.
func (c *Client) sendTyping(chatID int64) {
	payload := map[string]interface{}{"chat_id": chatID, "action": "typing"}
	body, _ := json.Marshal(payload)
	resp, err := c.http.Post(c.methodURL("sendChatAction"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		c.log.Debug().Err(err).Msg("Typing action failed")
		return
	}
	resp.Body.Close()
}

// TypingScope keeps the "typing" indicator alive for an in-flight request and
// returns the stop function. Callers must defer stop() so the indicator task
// is cancelled on every exit path, success or failure.
func (c *Client) TypingScope(ctx context.Context, chatID int64) (stop func()) {
	scoped, cancel := context.WithCancel(ctx)

	go func() {
		c.sendTyping(chatID)
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-scoped.Done():
				return
			case <-ticker.C:
				c.sendTyping(chatID)
			}
		}
	}()

	return cancel
}

// DownloadFile fetches the raw bytes of an uploaded file (photos).
func (c *Client) DownloadFile(fileID string) ([]byte, error) {
	resp, err := c.http.Get(c.methodURL("getFile") + "?file_id=" + fileID)
	if err != nil {
		return nil, fmt.Errorf("telegram getFile: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Ok     bool `json:"ok"`
		Result struct {
			FilePath string `json:"file_path"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("telegram getFile decode: %w", err)
	}
	if !result.Ok || result.Result.FilePath == "" {
		return nil, fmt.Errorf("telegram getFile: no file path for %s", fileID)
	}

	dl, err := c.http.Get(fmt.Sprintf("%s/file/bot%s/%s", apiBase, c.token, result.Result.FilePath))
	if err != nil {
		return nil, fmt.Errorf("telegram file download: %w", err)
	}
	defer dl.Body.Close()

	if dl.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram file download: status %s", dl.Status)
	}
	return io.ReadAll(dl.Body)
}
