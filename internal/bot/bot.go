package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"hercules_trading/internal/edit"
	"hercules_trading/internal/models"
	"hercules_trading/internal/review"
	"hercules_trading/internal/router"
	"hercules_trading/internal/staging"
	"hercules_trading/internal/store"
	"hercules_trading/internal/telegram"
	"hercules_trading/internal/vision"
)

// replyLimit is Telegram's practical message size; longer replies go out as a
// document.
const replyLimit = 4000

// Bot glues the chat transport to the core: commands, photo extraction and
// staged-draft replies. Every chat id is an independent owner.
type Bot struct {
	tg        *telegram.Client
	store     *store.Store
	router    *router.Router
	reviews   *review.Orchestrator
	editor    *edit.Editor
	staging   *staging.Machine
	extractor vision.Extractor
	log       zerolog.Logger
}

func New(tg *telegram.Client, st *store.Store, rt *router.Router, reviews *review.Orchestrator,
	editor *edit.Editor, stage *staging.Machine, extractor vision.Extractor, log zerolog.Logger) *Bot {
	return &Bot{
		tg:        tg,
		store:     st,
		router:    rt,
		reviews:   reviews,
		editor:    editor,
		staging:   stage,
		extractor: extractor,
		log:       log.With().Str("component", "bot").Logger(),
	}
}

// HandleUpdate routes one inbound update: photos feed the extraction flow,
// /commands dispatch, everything else drives a pending draft (or is ignored).
func (b *Bot) HandleUpdate(ctx context.Context, u telegram.Update) {
	owner := u.Message.Chat.ID
	if owner == 0 {
		return
	}

	if len(u.Message.Photo) > 0 {
		b.deliver(owner, b.handlePhoto(ctx, owner, u.Message.Photo))
		return
	}

	text := strings.TrimSpace(u.Message.Text)
	if text == "" {
		return
	}

	if strings.HasPrefix(text, "/") {
		b.log.Info().Int64("owner", owner).Str("command", firstWord(text)).Msg("Command received")
		b.deliver(owner, b.HandleCommand(ctx, owner, text))
		return
	}

	b.deliver(owner, b.handleFreeText(owner, text))
}

// deliver sends the reply, falling back to a document upload when the text
// exceeds the message limit. Empty replies are dropped (e.g. ignored text).
func (b *Bot) deliver(owner int64, text string) {
	if text == "" {
		return
	}
	if len(text) > replyLimit {
		if err := b.tg.SendDocument(owner, "response.txt", []byte(text), "Response is long — sent as file."); err != nil {
			b.log.Error().Err(err).Int64("owner", owner).Msg("Document delivery failed")
		}
		return
	}
	if err := b.tg.Send(owner, text); err != nil {
		b.log.Error().Err(err).Int64("owner", owner).Msg("Reply delivery failed")
	}
}

// handlePhoto downloads the largest rendition, runs extraction, and stages
// the resulting draft for confirmation.
func (b *Bot) handlePhoto(ctx context.Context, owner int64, photos []telegram.PhotoSize) string {
	stop := b.tg.TypingScope(ctx, owner)
	defer stop()

	largest := photos[0]
	for _, p := range photos[1:] {
		if p.FileSize > largest.FileSize {
			largest = p
		}
	}

	imageBytes, err := b.tg.DownloadFile(largest.FileID)
	if err != nil {
		b.log.Error().Err(err).Int64("owner", owner).Msg("Photo download failed")
		return "⚠️ Could not download that image. Please try again."
	}

	draft, err := b.extractor.Extract(ctx, imageBytes)
	if err != nil {
		b.log.Error().Err(err).Int64("owner", owner).Msg("Extraction failed")
		return fmt.Sprintf("⚠️ Screenshot analysis failed: %v", err)
	}
	if draft == nil {
		return "⚠️ Could not read a trade from that screenshot. Try a clearer image or log it with /open."
	}

	pending, staged := b.staging.Stage(owner, draft)
	if !staged {
		return fmt.Sprintf("⚠️ You already have a draft waiting:\n%s\n\nReply *yes* to save it or *no* to discard it before sending another screenshot.",
			pending.Summary())
	}

	return fmt.Sprintf("📋 Extracted trade:\n%s\n\nReply *yes* to save or *no* to discard.", draft.Summary())
}

// handleFreeText resolves a pending draft. Text with no draft pending is
// ignored entirely.
func (b *Bot) handleFreeText(owner int64, text string) string {
	res, err := b.staging.Resolve(owner, text)
	if err != nil {
		return errText(err)
	}

	switch res.State {
	case staging.StateSaved:
		return fmt.Sprintf("✅ Business is open! Logged %s %s as ID %d.", res.Draft.Ticker, res.Draft.Strategy, res.ID)
	case staging.StateDiscarded:
		return "🗑️ Draft discarded. Nothing was saved."
	case staging.StateUnclear:
		return fmt.Sprintf("Still waiting on your draft:\n%s\n\nReply *yes* to save or *no* to discard.", res.Draft.Summary())
	default:
		return "" // no draft pending; ignore
	}
}

// errText converts taxonomy errors into user-visible replies.
func errText(err error) string {
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrNotFound):
		return fmt.Sprintf("⚠️ %v", err)
	case errors.Is(err, models.ErrPersistence):
		return fmt.Sprintf("⚠️ Database/System Error: %v", err)
	default:
		return fmt.Sprintf("⚠️ System Error: %v", err)
	}
}

func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i > 0 {
		return s[:i]
	}
	return s
}

// providerNote reminds users which intents ignore the preference.
const providerNote = "Note: /sentiment always uses Grok; /scan and /manage use Gemini with Google Search."
