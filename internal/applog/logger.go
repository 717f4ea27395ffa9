// Package applog configures the process-wide zerolog logger and bridges it
// into GORM's query logger interface.
package applog

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Configure sets the global zerolog logger. format "human" renders a
// console writer; anything else (including empty, in release mode) renders
// JSON to stdout. debug raises the global level to Debug.
func Configure(format string, debug bool) {
	output := io.Writer(os.Stdout)
	if format == "human" {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(output).With().Timestamp().Logger()
}

// GormLogger adapts a zerolog.Logger to gorm's logger.Interface.
type GormLogger struct {
	Logger zerolog.Logger
}

// NewGormLogger builds a GormLogger wrapping the given zerolog.Logger.
func NewGormLogger(l zerolog.Logger) *GormLogger {
	return &GormLogger{Logger: l}
}

func (l *GormLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface {
	return l
}

func (l *GormLogger) Info(_ context.Context, s string, args ...interface{}) {
	l.Logger.Info().Msgf(s, args...)
}

func (l *GormLogger) Warn(_ context.Context, s string, args ...interface{}) {
	l.Logger.Warn().Msgf(s, args...)
}

func (l *GormLogger) Error(_ context.Context, s string, args ...interface{}) {
	l.Logger.Error().Msgf(s, args...)
}

func (l *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	event := l.Logger.Debug()
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		event = l.Logger.Error().Err(err)
	}
	event.Str("sql", sql).Int64("rows", rows).Dur("duration", elapsed).Msg("gorm query")
}
