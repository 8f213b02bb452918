package menu

import (
	"fmt"
	"time"

	"digimess/internal/clock"
)

// Cycle is a named administrative period, e.g. a semester. Preferences are
// stored per cycle.
type Cycle struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// Contains reports whether t falls within [StartDate, EndDate], the end
// day being inclusive.
func (c Cycle) Contains(t time.Time) bool {
	return !t.Before(clock.Midnight(c.StartDate)) && !t.After(clock.EndOfDay(c.EndDate))
}

// RuleType selects how an event rule changes a meal.
type RuleType string

const (
	RuleRemap    RuleType = "remap"
	RuleOverride RuleType = "override"
	RuleAddon    RuleType = "addon"
)

// Rule adjusts one meal on one date during an event.
type Rule struct {
	OnDate      string
	Type        RuleType
	TargetMeal  MealSlot
	Description string

	// SourceDay is read by remap rules.
	SourceDay Day
	// Items is read by override and addon rules. AllCategories applies to
	// every category without its own entry.
	Items map[Category][]Item
}

// ItemsFor resolves the rule items for a category: the category's own entry
// wins, otherwise the AllCategories entry.
func (r Rule) ItemsFor(cat Category) ([]Item, bool) {
	if items, ok := r.Items[cat]; ok {
		return items, true
	}
	items, ok := r.Items[AllCategories]
	return items, ok
}

// Event is a temporary window of rules, e.g. a festival.
type Event struct {
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Rules       []Rule
}

// Contains reports whether t falls within the event, end day inclusive.
func (e Event) Contains(t time.Time) bool {
	return !t.Before(clock.Midnight(e.StartDate)) && !t.After(clock.EndOfDay(e.EndDate))
}

// RulesOn returns the rules scheduled for dateKey, in authored order.
func (e Event) RulesOn(dateKey string) []Rule {
	var out []Rule
	for _, r := range e.Rules {
		if r.OnDate == dateKey {
			out = append(out, r)
		}
	}
	return out
}

// CategoryInfo is a selectable mess with its display label.
type CategoryInfo struct {
	Value Category `json:"value"`
	Label string   `json:"label"`
}

// MealWindow is a service window in minutes since midnight.
type MealWindow struct {
	Slot  MealSlot `json:"slot"`
	Label string   `json:"label"`
	Start int      `json:"start"`
	End   int      `json:"end"`
}

// Timing renders the window as "07:00-09:30".
func (w MealWindow) Timing() string {
	return fmt.Sprintf("%s-%s", FormatClock(w.Start), FormatClock(w.End))
}

// FormatClock renders minutes since midnight as HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseClock parses HH:MM into minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// WeekReference anchors the rotation: Date is a Monday that was Week.
// PerCategory lets a category run phase-shifted from the rest.
type WeekReference struct {
	Date        time.Time
	Week        Week
	PerCategory map[Category]time.Time
}

// Catalog is the static list of messes, service windows and the rotation
// anchor.
type Catalog struct {
	Categories    []CategoryInfo
	Meals         []MealWindow
	WeekReference WeekReference
}

// Label returns the display label of a category, or the raw value.
func (c Catalog) Label(cat Category) string {
	for _, info := range c.Categories {
		if info.Value == cat {
			return info.Label
		}
	}
	return string(cat)
}

// Has reports whether cat is in the catalog.
func (c Catalog) Has(cat Category) bool {
	for _, info := range c.Categories {
		if info.Value == cat {
			return true
		}
	}
	return false
}

// DefaultCatalog mirrors the messes and timings the app shipped with.
func DefaultCatalog() Catalog {
	return Catalog{
		Categories: []CategoryInfo{
			{Value: "South_Veg", Label: "South Indian (Veg)"},
			{Value: "South_Non_Veg", Label: "South Indian (Non-Veg)"},
			{Value: "North_Veg", Label: "North Indian (Veg)"},
			{Value: "North_Non_Veg", Label: "North Indian (Non-Veg)"},
			{Value: "North_Veg_No_Onion_Garlic", Label: "North Indian (No Onion/Garlic)"},
			{Value: "Unified_Veg", Label: "Unified (Veg)"},
			{Value: "Unified_Non_Veg", Label: "Unified (Non-Veg)"},
		},
		Meals: []MealWindow{
			{Slot: Breakfast, Label: "Breakfast", Start: 7 * 60, End: 9*60 + 30},
			{Slot: Lunch, Label: "Lunch", Start: 12 * 60, End: 14*60 + 30},
			{Slot: Snacks, Label: "Snacks", Start: 16*60 + 30, End: 17*60 + 30},
			{Slot: Dinner, Label: "Dinner", Start: 19 * 60, End: 21*60 + 30},
		},
		WeekReference: WeekReference{
			Date: clock.MustParseDateKey("2025-07-28"),
			Week: WeekA,
		},
	}
}

// Dataset is every static input the engine reads. It is loaded once and
// never mutated by resolution.
type Dataset struct {
	Catalog   Catalog
	Versions  map[string]*Node
	Overrides map[string]*Node
	Cycles    []Cycle
	Events    []Event
}
