package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"github.com/malbeclabs/metabonding/api/handlers"
	"github.com/malbeclabs/metabonding/engine/pkg/bootstrap"
	"github.com/malbeclabs/metabonding/engine/pkg/config"
	"github.com/malbeclabs/metabonding/engine/pkg/metrics"
	"github.com/malbeclabs/metabonding/engine/pkg/server"
	"github.com/malbeclabs/metabonding/utils/pkg/logger"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	envFileFlag := flag.String("env-file", ".env", "optional dotenv file loaded before reading the environment")
	listenAddrFlag := flag.String("listen-addr", "", "API listen address (or set LISTEN_ADDR env var)")
	metricsAddrFlag := flag.String("metrics-addr", "", "prometheus metrics listen address (or set METRICS_ADDR env var)")
	flag.Parse()

	log := logger.New(*verboseFlag)

	if err := godotenv.Load(*envFileFlag); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", *envFileFlag, err)
	}

	env, err := config.ParseEnv()
	if err != nil {
		return err
	}
	if *listenAddrFlag != "" {
		env.ListenAddr = *listenAddrFlag
	}
	if *metricsAddrFlag != "" {
		env.MetricsAddr = *metricsAddrFlag
	}

	if env.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         env.SentryDSN,
			Environment: env.SentryEnvironment,
			Release:     version,
		}); err != nil {
			return fmt.Errorf("failed to init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
		log.Info("sentry enabled", "environment", env.SentryEnvironment)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	deps, err := bootstrap.Open(ctx, log, env)
	if err != nil {
		return err
	}
	defer deps.Close()

	metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)
	if err := deps.Engine.SyncMetrics(ctx); err != nil {
		log.Warn("failed to sync metrics from store", "error", err)
	}

	srv, err := server.New(server.Config{
		Logger:          log,
		Engine:          deps.Engine,
		ListenAddr:      env.ListenAddr,
		MetricsAddr:     env.MetricsAddr,
		ShutdownTimeout: env.ShutdownTimeout,
		CORSOrigins:     env.CORSOrigins,
		RateLimit: handlers.RateLimiterConfig{
			Rate:  rate.Every(time.Minute / time.Duration(max(env.RateLimitPerMin, 1))),
			Burst: env.RateLimitBurst,
		},
		Sentry: env.SentryDSN != "",
		VersionInfo: server.VersionInfo{
			Version: version,
			Commit:  commit,
			Date:    date,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Run(ctx)
}
