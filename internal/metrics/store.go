package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	metricsdb "digimess/internal/metrics/metrics_db"
)

// LookupMetric records a single menu lookup made by one of the surfaces.
type LookupMetric struct {
	Surface   string // cli, api, telegram
	Operation string // day, today, week
	Category  string
	Found     bool
	Latency   time.Duration
	Timestamp time.Time
}

// Recorder accepts lookup metrics. The app layer depends on this rather
// than on Store so it can run without a database.
type Recorder interface {
	Record(ctx context.Context, m LookupMetric) error
}

// Discard is a Recorder that drops everything.
type Discard struct{}

func (Discard) Record(context.Context, LookupMetric) error { return nil }

// Store handles persistence of metrics to SQLite.
type Store struct {
	queries *metricsdb.Queries
	db      *sql.DB
	now     func() time.Time
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{
		queries: metricsdb.New(db),
		db:      db,
		now:     time.Now,
	}
}

// Record saves a metric to the database.
func (s *Store) Record(ctx context.Context, m LookupMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}

	err := s.queries.InsertLookupMetric(ctx, metricsdb.InsertLookupMetricParams{
		Surface:   m.Surface,
		Operation: m.Operation,
		Category:  m.Category,
		Found:     m.Found,
		LatencyUs: m.Latency.Microseconds(),
		Timestamp: ts.UTC().Truncate(time.Second),
	})
	if err != nil {
		return fmt.Errorf("failed to record lookup metric: %w", err)
	}
	return nil
}

// DailyUsage represents lookup totals for a single day.
type DailyUsage struct {
	Date         string
	Lookups      int
	Misses       int
	AvgLatencyUs int
}

// GetDailyUsage retrieves usage for the last N days, newest first.
func (s *Store) GetDailyUsage(ctx context.Context, days int) ([]DailyUsage, error) {
	since := s.now().UTC().AddDate(0, 0, -days).Truncate(time.Second)
	rows, err := s.queries.GetDailyUsage(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily usage: %w", err)
	}

	var results []DailyUsage
	for _, r := range rows {
		u := DailyUsage{
			Lookups: int(r.Lookups),
		}

		if day, ok := r.Day.(string); ok {
			u.Date = day
		} else {
			u.Date = "Unknown"
		}

		if r.Misses.Valid {
			u.Misses = int(r.Misses.Float64)
		}
		if r.AvgLatencyUs.Valid {
			u.AvgLatencyUs = int(r.AvgLatencyUs.Float64)
		}

		results = append(results, u)
	}
	return results, nil
}

// OperationCount is the number of lookups per surface and operation.
type OperationCount struct {
	Surface   string
	Operation string
	Lookups   int
}

// GetOperationCounts breaks the last N days down by surface and operation.
func (s *Store) GetOperationCounts(ctx context.Context, days int) ([]OperationCount, error) {
	since := s.now().UTC().AddDate(0, 0, -days).Truncate(time.Second)
	rows, err := s.queries.GetOperationCounts(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get operation counts: %w", err)
	}
	out := make([]OperationCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, OperationCount{Surface: r.Surface, Operation: r.Operation, Lookups: int(r.Lookups)})
	}
	return out, nil
}

// Cleanup removes records older than the specified number of days and
// returns how many were deleted.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := s.now().UTC().AddDate(0, 0, -olderThanDays).Truncate(time.Second)
	n, err := s.queries.CleanupLookupMetrics(ctx, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up lookup metrics: %w", err)
	}
	return n, nil
}
