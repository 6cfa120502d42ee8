package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hercules_trading/internal/ai"
	"hercules_trading/internal/bot"
	"hercules_trading/internal/config"
	"hercules_trading/internal/edit"
	"hercules_trading/internal/logger"
	"hercules_trading/internal/market"
	"hercules_trading/internal/review"
	"hercules_trading/internal/router"
	"hercules_trading/internal/scheduler"
	"hercules_trading/internal/staging"
	"hercules_trading/internal/store"
	"hercules_trading/internal/telegram"
	"hercules_trading/internal/vision"
)

const versionFile = "version.latest"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger isn't up yet; stderr is all we have.
		fmt.Fprintln(os.Stderr, "CRITICAL:", err)
		os.Exit(1)
	}
	cfg.Version = readVersion()

	log := logger.Setup(cfg.LogFile, cfg.MaxLogSizeMB, cfg.MaxLogBackups, cfg.LogLevel)
	log.Info().Str("version", cfg.Version).Msg("Hercules starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage (migrations run inside New).
	st, err := store.New(cfg.DatabasePath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize position store")
	}
	defer st.Close()

	// Collaborators.
	tg := telegram.NewClient(cfg.TelegramToken, log)
	marketProvider := market.NewAlpacaProvider(log)
	engine := ai.NewEngine(ai.Keys{
		Gemini: cfg.GeminiAPIKey,
		XAI:    cfg.XAIAPIKey,
		OpenAI: cfg.OpenAIAPIKey,
	}, log)
	extractor := vision.NewGeminiExtractor(cfg.GeminiAPIKey, log)

	// Core.
	rt := router.New()
	reviews := review.NewOrchestrator(st, marketProvider, rt, engine, log)
	editor := edit.New(st)
	stage := staging.NewMachine(st, log)
	b := bot.New(tg, st, rt, reviews, editor, stage, extractor, log)

	// Scheduled review runs, pinned to the market's timezone.
	sched := scheduler.New(log, config.MarketLoc)
	job := scheduler.NewReviewJob(ctx, st, reviews, tg,
		time.Duration(cfg.ReviewPacingSeconds)*time.Second, log)
	for _, spec := range cfg.ScanCronSpecs {
		if err := sched.AddJob(spec, job); err != nil {
			log.Fatal().Err(err).Str("schedule", spec).Msg("Failed to register review job")
		}
	}
	sched.Start()
	defer sched.Stop()

	// Command listener.
	go tg.Listen(ctx, b.HandleUpdate)

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")
	cancel()
	log.Info().Msg("Hercules stopped")
}

func readVersion() string {
	version, err := os.ReadFile(versionFile)
	if err != nil {
		return "v0.0.0-dev"
	}
	return string(version)
}
