// Package logging builds the process logger: a console stream plus an
// optional size-rotated file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level      string `json:"level" yaml:"level"`
	File       string `json:"file" yaml:"file"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `json:"compress" yaml:"compress"`
	JSON       bool   `json:"json" yaml:"json"` // raw JSON on the console instead of pretty output
}

func DefaultConfig() Config {
	return Config{
		Level:      "info",
		File:       "trendbot.log",
		MaxSizeMB:  50,
		MaxBackups: 5,
		MaxAgeDays: 30,
	}
}

// Logger owns the rotating file, if any.
type Logger struct {
	zerolog.Logger
	file *lumberjack.Logger
}

// New writes to console (normally os.Stderr) and, when cfg.File is set,
// to a lumberjack-rotated file in JSON.
func New(cfg Config, console io.Writer) (*Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		l, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
		level = l
	}

	if console == nil {
		console = os.Stderr
	}
	if !cfg.JSON {
		console = zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339}
	}

	out := &Logger{}
	writers := []io.Writer{console}
	if cfg.File != "" {
		if dir := filepath.Dir(cfg.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("log dir: %w", err)
			}
		}
		out.file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		writers = append(writers, out.file)
	}

	out.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Logger()
	return out, nil
}

func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
