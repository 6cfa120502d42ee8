package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MarketLoc is the exchange's local timezone. All scheduled triggers fire in
// US/Eastern regardless of where the host runs.
var MarketLoc = mustLoadLocation("America/New_York")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// tzdata missing on the host; fall back to fixed EST.
		return time.FixedZone("EST", -5*3600)
	}
	return loc
}

// Config holds application configuration.
type Config struct {
	TelegramToken string

	GeminiAPIKey string
	XAIAPIKey    string
	OpenAIAPIKey string

	DatabasePath string

	LogLevel      string
	LogFile       string
	MaxLogSizeMB  int64
	MaxLogBackups int

	// ScanCronSpecs are cron expressions (standard 5-field, US/Eastern) for
	// the scheduled review runs. Comma separated in the env.
	ScanCronSpecs []string

	// ReviewPacingSeconds is the minimum spacing between per-position AI
	// calls inside one scheduled run.
	ReviewPacingSeconds int

	Version string
}

// Load initializes the configuration.
// It tries to read a .env file and checks for necessary environment variables.
func Load() (*Config, error) {
	// Load .env variables into the process environment
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, using system environment variables")
	}

	cfg := &Config{
		TelegramToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		XAIAPIKey:           firstNonEmpty(os.Getenv("XAI_API_KEY"), os.Getenv("GROK_API_KEY")),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		DatabasePath:        getEnv("DATABASE_PATH", "./data/trades.db"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFile:             getEnv("LOG_FILE", "hercules.log"),
		MaxLogSizeMB:        int64(getEnvAsInt("MAX_LOG_SIZE_MB", 10)),
		MaxLogBackups:       getEnvAsInt("MAX_LOG_BACKUPS", 3),
		ScanCronSpecs:       splitList(getEnv("SCAN_CRON_SPECS", "0 10 * * MON-FRI,30 15 * * MON-FRI")),
		ReviewPacingSeconds: getEnvAsInt("REVIEW_PACING_SECONDS", 2),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.dump()
	return cfg, nil
}

// Validate checks the variables the process cannot run without.
// Alpaca keys are optional: market data degrades to sentinel values.
func (c *Config) Validate() error {
	var missing []string
	if c.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if c.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}
	if c.ReviewPacingSeconds < 0 {
		return fmt.Errorf("REVIEW_PACING_SECONDS must be >= 0")
	}
	if len(c.ScanCronSpecs) == 0 {
		return fmt.Errorf("SCAN_CRON_SPECS must contain at least one cron expression")
	}
	return nil
}

// dump prints the effective configuration, masking secrets to their last 4 chars.
func (c *Config) dump() {
	log.Println("--- Configuration ---")
	log.Printf("TELEGRAM_BOT_TOKEN=%s", mask(c.TelegramToken))
	log.Printf("GEMINI_API_KEY=%s", mask(c.GeminiAPIKey))
	log.Printf("XAI_API_KEY=%s", mask(c.XAIAPIKey))
	log.Printf("OPENAI_API_KEY=%s", mask(c.OpenAIAPIKey))
	log.Printf("DATABASE_PATH=%s", c.DatabasePath)
	log.Printf("SCAN_CRON_SPECS=%s", strings.Join(c.ScanCronSpecs, ","))
	log.Printf("REVIEW_PACING_SECONDS=%d", c.ReviewPacingSeconds)
	log.Println("---------------------")
}

func mask(val string) string {
	if val == "" {
		return "(unset)"
	}
	if len(val) > 4 {
		return "***" + val[len(val)-4:]
	}
	return "***"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
