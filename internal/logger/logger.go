package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup initializes the structured logger writing to both stdout (pretty
// console) and a size-rotating file. If the file cannot be opened we keep
// going with stdout only.
func Setup(filename string, maxSizeMB int64, maxBackups int, level string) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(level))
	zerolog.TimeFieldFormat = time.RFC3339

	console := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
	}

	rotator := &Rotator{
		Filename:   filename,
		MaxSize:    maxSizeMB * 1024 * 1024,
		MaxBackups: maxBackups,
	}

	var out zerolog.LevelWriter
	if err := rotator.openExistingOrNew(); err != nil {
		log := zerolog.New(console).With().Timestamp().Logger()
		log.Warn().Err(err).Str("file", filename).Msg("Failed to open log file, using stdout only")
		return log
	}
	out = zerolog.MultiLevelWriter(console, rotator)

	return zerolog.New(out).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
