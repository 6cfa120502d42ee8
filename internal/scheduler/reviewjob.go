package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"hercules_trading/internal/models"
)

// PositionLister enumerates every open position across all owners.
type PositionLister interface {
	AllOpen() ([]models.Position, error)
}

// Reviewer produces the management message for one position. It never fails;
// degraded output is still a message.
type Reviewer interface {
	ReviewPosition(ctx context.Context, p *models.Position) string
}

// Notifier delivers a message to one owner.
type Notifier interface {
	Send(owner int64, text string) error
}

// Pacer spaces out the per-position work. rate.Limiter satisfies it; tests
// substitute a counter.
type Pacer interface {
	Wait(ctx context.Context) error
}

// ReviewJob walks all open positions in strict sequence, reviewing and
// delivering one at a time. Sequencing is deliberate: upstream providers rate
// limit, so concurrency across positions is avoided and the pacer spaces the
// calls instead.
type ReviewJob struct {
	ctx       context.Context
	positions PositionLister
	reviewer  Reviewer
	notify    Notifier
	pacer     Pacer
	log       zerolog.Logger
}

// NewReviewJob wires the batch run. pacing is the minimum spacing between
// position reviews.
func NewReviewJob(ctx context.Context, positions PositionLister, reviewer Reviewer, notify Notifier, pacing time.Duration, log zerolog.Logger) *ReviewJob {
	return &ReviewJob{
		ctx:       ctx,
		positions: positions,
		reviewer:  reviewer,
		notify:    notify,
		pacer:     rate.NewLimiter(rate.Every(pacing), 1),
		log:       log.With().Str("component", "review-job").Logger(),
	}
}

func (j *ReviewJob) Name() string { return "scheduled-review" }

// Run reviews every open position. Each position is an independent unit of
// work: a failure is logged with the position's id and the loop continues.
func (j *ReviewJob) Run() error {
	runID := uuid.NewString()[:8]
	log := j.log.With().Str("run", runID).Logger()

	positions, err := j.positions.AllOpen()
	if err != nil {
		return fmt.Errorf("enumerate open positions: %w", err)
	}
	if len(positions) == 0 {
		log.Info().Msg("No open positions to review")
		return nil
	}

	log.Info().Int("count", len(positions)).Msg("Starting scheduled review")

	for i := range positions {
		if err := j.pacer.Wait(j.ctx); err != nil {
			// Context cancelled; abandon the rest of the run cleanly.
			return err
		}
		j.reviewOne(log, &positions[i])
	}

	log.Info().Msg("Scheduled review finished")
	return nil
}

// reviewOne isolates one position's review so a panic or delivery failure
// never stops the rest of the run.
func (j *ReviewJob) reviewOne(log zerolog.Logger, p *models.Position) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Int64("id", p.ID).Int64("owner", p.Owner).Str("ticker", p.Ticker).
				Interface("panic", r).Msg("Review panicked")
		}
	}()

	text := j.reviewer.ReviewPosition(j.ctx, p)
	message := fmt.Sprintf("🔔 Scheduled Check: %s %s\n\n%s", p.Ticker, p.Strategy, text)

	if err := j.notify.Send(p.Owner, message); err != nil {
		log.Error().Err(err).Int64("id", p.ID).Int64("owner", p.Owner).Str("ticker", p.Ticker).
			Msg("Failed to deliver scheduled review")
	}
}
