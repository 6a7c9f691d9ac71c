package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/malbeclabs/metabonding/api/handlers"
)

// VersionInfo contains build-time version information.
type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Engine is what the server needs from the reward engine.
type Engine interface {
	handlers.Engine
	Ping(ctx context.Context) error
}

type Config struct {
	Logger *slog.Logger
	Engine Engine

	ListenAddr        string
	MetricsAddr       string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration

	CORSOrigins []string
	RateLimit   handlers.RateLimiterConfig
	// Sentry attaches a Sentry hub to each request. sentry.Init must have been called.
	Sentry bool

	VersionInfo VersionInfo
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Engine == nil {
		return errors.New("engine is required")
	}
	if cfg.ListenAddr == "" {
		return errors.New("listen addr is required")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 5 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	return nil
}
