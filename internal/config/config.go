package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/dgallion1/docnodes/internal/raster"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8090"`

	// Documents are uploaded to, listed from and loaded out of this directory.
	InputDir string `env:"INPUT_DIR" envDefault:"./input"`

	// Auth. Empty disables it.
	APIKey string `env:"DOCNODES_API_KEY"`

	// Upload limits
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"` // 50MB

	// Node input defaults
	DefaultChunkSize int `env:"DEFAULT_CHUNK_SIZE" envDefault:"1000"`
	DefaultDPI       int `env:"DEFAULT_DPI" envDefault:"300"`

	// PDF
	PDFFallbackPdftotext bool `env:"PDF_FALLBACK_PDFTOTEXT" envDefault:"true"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file from the working directory, then the
// environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.InputDir == "" {
		return fmt.Errorf("INPUT_DIR is required")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if c.DefaultChunkSize <= 0 {
		return fmt.Errorf("DEFAULT_CHUNK_SIZE must be positive, got %d", c.DefaultChunkSize)
	}
	if err := raster.ValidateDPI(c.DefaultDPI); err != nil {
		return fmt.Errorf("DEFAULT_DPI: %w", err)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level maps LOG_LEVEL to a slog level.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}
