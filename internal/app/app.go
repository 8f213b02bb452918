package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"digimess/internal/clock"
	"digimess/internal/logging"
	"digimess/internal/menu"
	"digimess/internal/metrics"
	"digimess/internal/preference"
	"digimess/internal/resolver"
)

var (
	// ErrMissingPreference means the user has not picked a mess for the
	// cycle the date falls in.
	ErrMissingPreference = errors.New("no mess selected for this cycle")
	// ErrCategoryUnavailable means the mess is not served on the date.
	ErrCategoryUnavailable = errors.New("mess not available")
	// ErrInvalidDate means a date argument could not be parsed.
	ErrInvalidDate = errors.New("invalid date")
	// ErrUnknownCycle means a cycle name is not in the dataset.
	ErrUnknownCycle = errors.New("unknown cycle")
)

// App holds the application's dependencies. Every surface (CLI, HTTP,
// Telegram) goes through it, so none of them carries resolution logic.
type App struct {
	engine  *resolver.Engine
	prefs   preference.Provider
	clock   clock.Clock
	metrics metrics.Recorder
	logger  *logging.Logger
	surface string
}

// Option configures an App.
type Option func(*App)

// WithClock replaces the system clock.
func WithClock(c clock.Clock) Option {
	return func(a *App) { a.clock = c }
}

// WithMetrics records every lookup.
func WithMetrics(r metrics.Recorder) Option {
	return func(a *App) { a.metrics = r }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithSurface names the caller in metrics and logs, e.g. "api".
func WithSurface(name string) Option {
	return func(a *App) { a.surface = name }
}

// NewApp creates and initializes a new App instance.
func NewApp(engine *resolver.Engine, prefs preference.Provider, opts ...Option) *App {
	a := &App{
		engine:  engine,
		prefs:   prefs,
		clock:   clock.System{},
		metrics: metrics.Discard{},
		logger:  logging.Discard(),
		surface: "cli",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Engine exposes the resolver for read-only surfaces such as the cycle
// listing.
func (a *App) Engine() *resolver.Engine { return a.engine }

// Catalog returns the dataset catalog.
func (a *App) Catalog() menu.Catalog { return a.engine.Catalog() }

// Now returns the current time in IST.
func (a *App) Now() time.Time { return a.clock.Now().In(clock.IST) }

// ParseDate accepts a YYYY-MM-DD key or one of "today", "tomorrow" and
// "yesterday". An empty string means today.
func (a *App) ParseDate(s string) (time.Time, error) {
	today := clock.Midnight(a.Now())
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}
	t, err := clock.ParseDateKey(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q (expected YYYY-MM-DD)", ErrInvalidDate, s)
	}
	return t, nil
}

// context resolves date or reports ErrNoVersionForDate.
func (a *App) context(date time.Time) (*resolver.Context, error) {
	rctx, err := a.engine.ContextForDate(date)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve menu for %s: %w", clock.DateKey(date), err)
	}
	if rctx == nil {
		return nil, fmt.Errorf("%w: %s", resolver.ErrNoVersionForDate, clock.DateKey(date))
	}
	return rctx, nil
}

func (a *App) record(ctx context.Context, operation string, date time.Time, category menu.Category, err error, started time.Time) {
	elapsed := time.Since(started)
	found := err == nil
	a.logger.LogLookup(a.surface, operation, clock.DateKey(date), string(category), found, elapsed)

	m := metrics.LookupMetric{
		Surface:   a.surface,
		Operation: operation,
		Category:  string(category),
		Found:     found,
		Latency:   elapsed,
	}
	if rerr := a.metrics.Record(ctx, m); rerr != nil {
		a.logger.WithError(rerr).Warn("failed to record lookup metric")
	}
}
