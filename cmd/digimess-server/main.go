package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"digimess/internal/app"
	"digimess/internal/clock"
	"digimess/internal/config"
	"digimess/internal/database"
	"digimess/internal/logging"
	"digimess/internal/menudata"
	"digimess/internal/metrics"
	"digimess/internal/preference"
	"digimess/internal/resolver"
	"digimess/internal/telegram"
	"digimess/internal/webserver"
)

const (
	webhookPath      = "/telegram/webhook"
	metricsRetention = 90
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.RequireServer(); err != nil {
		log.Fatalf("Invalid server config: %v", err)
	}

	logger, err := logging.New(&cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("Server exited with error")
	}
	logger.Info("Server exiting")
}

func run(cfg *config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk, err := clock.FromEnv(cfg.FakeNow)
	if err != nil {
		return err
	}
	if cfg.FakeNow != "" {
		logger.WithField("now", clk.Now()).Warn("Clock is pinned by DIGIMESS_FAKE_NOW")
	}

	// 2. Load the menu dataset
	ds, err := menudata.Load(ctx, cfg.DataDir)
	if err != nil {
		return err
	}
	issues := menudata.Validate(ds)
	for _, issue := range issues {
		logger.WithFields(logging.Fields{
			"severity": issue.Severity,
			"where":    issue.Where,
		}).Warn(issue.Message)
	}
	if menudata.HasErrors(issues) {
		return fmt.Errorf("dataset %s has errors", cfg.DataDir)
	}
	engine := resolver.NewEngine(ds, resolver.WithLogger(logger.Logger))
	logger.LogSystem("dataset", "load", true, map[string]interface{}{
		"versions":  len(ds.Versions),
		"overrides": len(ds.Overrides),
		"events":    len(ds.Events),
	})

	// 3. Initialize the SQLite database
	db, err := database.NewDB(cfg.DBPath, logger.WithField("component", "database"))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	prefs := preference.NewRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	newApp := func(surface string) *app.App {
		return app.NewApp(engine, prefs,
			app.WithClock(clk),
			app.WithMetrics(metricsStore),
			app.WithLogger(logger),
			app.WithSurface(surface),
		)
	}

	// 4. HTTP API
	server := webserver.New(cfg, newApp("api"), logger, webserver.WithDatabase(db.SQL))

	g, ctx := errgroup.WithContext(ctx)

	// 5. Telegram Bot, on the API's listener when a webhook is set
	if cfg.TelegramBotToken != "" {
		bot, err := telegram.NewBot(cfg, newApp("telegram"), metricsStore, logger)
		if err != nil {
			return err
		}
		if cfg.TelegramWebhookURL != "" {
			server.Mount(webhookPath, bot)
		} else {
			logger.Info("No webhook configured, polling for updates")
			g.Go(func() error { return bot.Poll(ctx) })
		}
	} else {
		logger.Info("TELEGRAM_BOT_TOKEN not set, bot disabled")
	}

	g.Go(server.Start)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Stop(shutdownCtx)
	})
	g.Go(func() error {
		cleanupMetrics(ctx, metricsStore, logger)
		return nil
	})

	return g.Wait()
}

// cleanupMetrics trims old lookup metrics once a day until ctx is done.
func cleanupMetrics(ctx context.Context, store *metrics.Store, logger *logging.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		n, err := store.Cleanup(ctx, metricsRetention)
		if err != nil && ctx.Err() == nil {
			logger.WithError(err).Warn("Metrics cleanup failed")
		} else if n > 0 {
			logger.WithField("removed", n).Info("Old metrics removed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
