package resolver

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"digimess/internal/calendar"
	"digimess/internal/clock"
	"digimess/internal/menu"
)

// ErrNoVersionForDate means no menu version is effective on or before the
// requested date. The engine itself reports this as a nil result; callers
// wrap it when they need an error value.
var ErrNoVersionForDate = errors.New("no menu version for date")

// Engine resolves dates to menus against a static dataset. It holds no
// mutable state; every call works on its own copy of the content.
type Engine struct {
	data         *menu.Dataset
	weeks        calendar.WeekCalculator
	cycles       *calendar.Cycles
	versionKeys  []string
	overrideKeys []string
	logger       logrus.FieldLogger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger routes skipped-rule diagnostics to logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine indexes the dataset. The dataset must not be modified afterwards.
func NewEngine(data *menu.Dataset, opts ...Option) *Engine {
	silent := logrus.New()
	silent.SetOutput(io.Discard)

	e := &Engine{
		data:         data,
		weeks:        calendar.NewWeekCalculator(data.Catalog.WeekReference),
		cycles:       calendar.NewCycles(data.Cycles),
		versionKeys:  sortedKeys(data.Versions),
		overrideKeys: sortedKeys(data.Overrides),
		logger:       silent,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func sortedKeys(m map[string]*menu.Node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Catalog returns the static catalog.
func (e *Engine) Catalog() menu.Catalog { return e.data.Catalog }

// Cycles returns the cycle resolver.
func (e *Engine) Cycles() *calendar.Cycles { return e.cycles }

// WeekFor returns the rotation week for date and category.
func (e *Engine) WeekFor(date time.Time, category menu.Category) menu.Week {
	return e.weeks.WeekFor(date, category)
}

// CycleForDate returns the cycle in effect on date.
func (e *Engine) CycleForDate(date time.Time) (menu.Cycle, bool) {
	return e.cycles.ForDate(date)
}

// Resolved is a base menu: the active version with permanent overrides
// applied.
type Resolved struct {
	VersionID string
	Content   menu.Content
}

// MenuContentForDate picks the latest version effective on date and applies
// every override dated between that version and date, oldest first. It
// returns nil, nil when no version applies.
func (e *Engine) MenuContentForDate(date time.Time) (*Resolved, error) {
	target := clock.DateKey(date)

	base := ""
	for i := len(e.versionKeys) - 1; i >= 0; i-- {
		if e.versionKeys[i] <= target {
			base = e.versionKeys[i]
			break
		}
	}
	if base == "" {
		return nil, nil
	}

	tree := e.data.Versions[base].Clone()
	for _, key := range e.overrideKeys {
		if key < base || key > target {
			continue
		}
		tree = menu.Merge(tree, e.data.Overrides[key])
	}

	content, err := menu.DecodeContent(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to decode menu for %s (version %s): %w", target, base, err)
	}
	return &Resolved{VersionID: base, Content: content}, nil
}
