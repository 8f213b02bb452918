// Package menudata reads the static menu dataset from a directory:
//
//	catalog.yaml               categories, meal windows, rotation anchor
//	cycles.yaml                named cycles
//	versions/<date>.jsonc      complete menu snapshots
//	overrides/<date>.jsonc     partial patches merged onto the active version
//	events.jsonc               temporary event windows and their rules
//
// JSON files may carry comments and trailing commas.
package menudata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"digimess/internal/clock"
	"digimess/internal/menu"
)

const (
	CatalogFile  = "catalog.yaml"
	CyclesFile   = "cycles.yaml"
	EventsFile   = "events.jsonc"
	VersionsDir  = "versions"
	OverridesDir = "overrides"
)

type catalogFile struct {
	Categories []menu.CategoryInfo `yaml:"categories"`
	Meals      []struct {
		Slot  string `yaml:"slot"`
		Label string `yaml:"label"`
		Start string `yaml:"start"`
		End   string `yaml:"end"`
	} `yaml:"meals"`
	WeekReference *struct {
		Date        string            `yaml:"date"`
		Week        string            `yaml:"week"`
		PerCategory map[string]string `yaml:"per_category"`
	} `yaml:"week_reference"`
}

type cycleFile struct {
	Name      string `yaml:"name"`
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
}

type eventFile struct {
	EventName   string     `json:"eventName"`
	Description string     `json:"description"`
	StartDate   string     `json:"startDate"`
	EndDate     string     `json:"endDate"`
	Rules       []ruleFile `json:"rules"`
}

type ruleFile struct {
	OnDate      string                 `json:"onDate"`
	Type        string                 `json:"type"`
	TargetMeal  string                 `json:"targetMeal"`
	Description string                 `json:"description"`
	SourceDay   string                 `json:"sourceDay"`
	Items       map[string][]menu.Item `json:"items"`
}

// Load reads the dataset under dir. Files are parsed concurrently; the
// first failure cancels the rest. A missing catalog.yaml falls back to
// menu.DefaultCatalog, and other missing files mean "none".
func Load(ctx context.Context, dir string) (*menu.Dataset, error) {
	if info, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("failed to open dataset directory: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("dataset path %s is not a directory", dir)
	}

	ds := &menu.Dataset{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cat, err := loadCatalog(filepath.Join(dir, CatalogFile))
		if err != nil {
			return err
		}
		ds.Catalog = cat
		return nil
	})
	g.Go(func() error {
		cycles, err := loadCycles(filepath.Join(dir, CyclesFile))
		if err != nil {
			return err
		}
		ds.Cycles = cycles
		return nil
	})
	g.Go(func() error {
		events, err := loadEvents(filepath.Join(dir, EventsFile))
		if err != nil {
			return err
		}
		ds.Events = events
		return nil
	})
	g.Go(func() error {
		versions, err := loadNodes(ctx, filepath.Join(dir, VersionsDir))
		if err != nil {
			return err
		}
		ds.Versions = versions
		return nil
	})
	g.Go(func() error {
		overrides, err := loadNodes(ctx, filepath.Join(dir, OverridesDir))
		if err != nil {
			return err
		}
		ds.Overrides = overrides
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ds, nil
}

func readOptional(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, true, nil
}

func loadCatalog(path string) (menu.Catalog, error) {
	cat := menu.DefaultCatalog()
	data, ok, err := readOptional(path)
	if err != nil || !ok {
		return cat, err
	}

	var raw catalogFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cat, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if len(raw.Categories) > 0 {
		cat.Categories = raw.Categories
	}
	if len(raw.Meals) > 0 {
		cat.Meals = cat.Meals[:0:0]
		for _, m := range raw.Meals {
			slot, err := menu.ParseMealSlot(m.Slot)
			if err != nil {
				return cat, fmt.Errorf("%s: %w", path, err)
			}
			start, err := menu.ParseClock(m.Start)
			if err != nil {
				return cat, fmt.Errorf("%s: %s start: %w", path, slot, err)
			}
			end, err := menu.ParseClock(m.End)
			if err != nil {
				return cat, fmt.Errorf("%s: %s end: %w", path, slot, err)
			}
			label := m.Label
			if label == "" {
				label = string(slot)
			}
			cat.Meals = append(cat.Meals, menu.MealWindow{Slot: slot, Label: label, Start: start, End: end})
		}
	}
	if ref := raw.WeekReference; ref != nil {
		date, err := clock.ParseDateKey(ref.Date)
		if err != nil {
			return cat, fmt.Errorf("%s: week_reference.date: %w", path, err)
		}
		week, err := menu.ParseWeek(ref.Week)
		if err != nil {
			return cat, fmt.Errorf("%s: week_reference.week: %w", path, err)
		}
		cat.WeekReference = menu.WeekReference{Date: date, Week: week}
		if len(ref.PerCategory) > 0 {
			cat.WeekReference.PerCategory = make(map[menu.Category]time.Time, len(ref.PerCategory))
			for c, d := range ref.PerCategory {
				t, err := clock.ParseDateKey(d)
				if err != nil {
					return cat, fmt.Errorf("%s: week_reference.per_category.%s: %w", path, c, err)
				}
				cat.WeekReference.PerCategory[menu.Category(c)] = t
			}
		}
	}
	return cat, nil
}

func loadCycles(path string) ([]menu.Cycle, error) {
	data, ok, err := readOptional(path)
	if err != nil || !ok {
		return nil, err
	}

	var raw []cycleFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cycles := make([]menu.Cycle, 0, len(raw))
	for i, c := range raw {
		start, err := clock.ParseDateKey(c.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%s: cycle %d (%s) start_date: %w", path, i, c.Name, err)
		}
		end, err := clock.ParseDateKey(c.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%s: cycle %d (%s) end_date: %w", path, i, c.Name, err)
		}
		cycles = append(cycles, menu.Cycle{Name: c.Name, StartDate: start, EndDate: end})
	}
	return cycles, nil
}

func loadEvents(path string) ([]menu.Event, error) {
	data, ok, err := readOptional(path)
	if err != nil || !ok {
		return nil, err
	}

	events, err := ParseEvents(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}

// ParseEvents decodes an events document.
func ParseEvents(data []byte) ([]menu.Event, error) {
	var raw []eventFile
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse events: %w", err)
	}
	return convertEvents(raw)
}

func convertEvents(raw []eventFile) ([]menu.Event, error) {
	events := make([]menu.Event, 0, len(raw))
	for i, e := range raw {
		start, err := clock.ParseDateKey(e.StartDate)
		if err != nil {
			return nil, fmt.Errorf("event %d (%s) startDate: %w", i, e.EventName, err)
		}
		end, err := clock.ParseDateKey(e.EndDate)
		if err != nil {
			return nil, fmt.Errorf("event %d (%s) endDate: %w", i, e.EventName, err)
		}

		ev := menu.Event{Name: e.EventName, Description: e.Description, StartDate: start, EndDate: end}
		for _, r := range e.Rules {
			rule := menu.Rule{
				OnDate:      r.OnDate,
				Type:        menu.RuleType(r.Type),
				TargetMeal:  menu.MealSlot(r.TargetMeal),
				Description: r.Description,
				SourceDay:   menu.Day(r.SourceDay),
			}
			if len(r.Items) > 0 {
				rule.Items = make(map[menu.Category][]menu.Item, len(r.Items))
				for c, items := range r.Items {
					rule.Items[menu.Category(c)] = items
				}
			}
			ev.Rules = append(ev.Rules, rule)
		}
		events = append(events, ev)
	}
	return events, nil
}

// loadNodes reads every <date>.jsonc (or .json) file in dir, keyed by date.
func loadNodes(ctx context.Context, dir string) (map[string]*menu.Node, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]*menu.Node{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".jsonc" && ext != ".json" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	nodes := make(map[string]*menu.Node, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key := strings.TrimSuffix(name, filepath.Ext(name))
		if _, err := clock.ParseDateKey(key); err != nil {
			return nil, fmt.Errorf("%s: file name must be a date: %w", filepath.Join(dir, name), err)
		}
		if _, dup := nodes[key]; dup {
			return nil, fmt.Errorf("%s: both .json and .jsonc files exist for %s", dir, key)
		}

		n, err := ReadNode(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		nodes[key] = n
	}
	return nodes, nil
}

// ReadNode parses a single JSONC file into a tree.
func ReadNode(path string) (*menu.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	n, err := menu.ParseNode(jsonc.ToJSON(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if n.Kind() != menu.KindObject {
		return nil, fmt.Errorf("%s: top level must be an object", path)
	}
	return n, nil
}
