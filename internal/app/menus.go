package app

import (
	"context"
	"fmt"
	"time"

	"digimess/internal/calendar"
	"digimess/internal/clock"
	"digimess/internal/mealtime"
	"digimess/internal/menu"
	"digimess/internal/resolver"
)

// Meal is one service of a day as shown to the user.
type Meal struct {
	Slot   menu.MealSlot  `json:"slot"`
	Label  string         `json:"label"`
	Timing string         `json:"timing"`
	Items  []menu.Item    `json:"items"`
	Common string         `json:"common,omitempty"`
	State  mealtime.State `json:"state,omitempty"`
}

// DayView is the final menu of one category on one date.
type DayView struct {
	Date                string              `json:"date"`
	Day                 menu.Day            `json:"day"`
	Week                menu.Week           `json:"week,omitempty"`
	Cycle               string              `json:"cycle,omitempty"`
	Category            menu.Category       `json:"category,omitempty"`
	CategoryLabel       string              `json:"category_label,omitempty"`
	VersionID           string              `json:"version_id"`
	EventName           string              `json:"event_name,omitempty"`
	EventDescription    string              `json:"event_description,omitempty"`
	ActiveMeal          menu.MealSlot       `json:"active_meal,omitempty"`
	Meals               []Meal              `json:"meals,omitempty"`
	AvailableCategories []menu.CategoryInfo `json:"available_categories"`
}

// DayMenu resolves the menu of one category on date. category overrides
// the user's stored preference for the date's cycle when non-empty.
//
// On ErrMissingPreference and ErrCategoryUnavailable the returned view is
// still set, without meals, so callers can offer the available categories.
func (a *App) DayMenu(ctx context.Context, userID string, date time.Time, category menu.Category) (*DayView, error) {
	started := time.Now()
	view, err := a.dayMenu(ctx, userID, date, category)
	var cat menu.Category
	if view != nil {
		cat = view.Category
	}
	a.record(ctx, "day", date, cat, err, started)
	return view, err
}

func (a *App) dayMenu(ctx context.Context, userID string, date time.Time, category menu.Category) (*DayView, error) {
	rctx, err := a.context(date)
	if err != nil {
		return nil, err
	}

	view := &DayView{
		Date:                clock.DateKey(date),
		Day:                 menu.DayOf(date),
		Cycle:               rctx.CycleName,
		VersionID:           rctx.VersionID,
		EventName:           rctx.EventName,
		EventDescription:    rctx.EventDescription,
		AvailableCategories: rctx.AvailableCategories,
	}

	cat, err := a.categoryFor(ctx, userID, rctx, category)
	if err != nil {
		return view, err
	}
	view.Category = cat
	view.CategoryLabel = a.Catalog().Label(cat)
	view.Week = rctx.Weeks[cat]
	view.Meals = a.meals(rctx.Content, cat, view.Week, view.Day)
	return view, nil
}

// categoryFor picks the explicit category or the stored preference and
// checks it is served in rctx.
func (a *App) categoryFor(ctx context.Context, userID string, rctx *resolver.Context, category menu.Category) (menu.Category, error) {
	if category == "" {
		// Preferences are kept per cycle; a date outside every cycle has none.
		if rctx.CycleName == "" {
			return "", fmt.Errorf("%w: %s is outside every cycle", ErrMissingPreference, clock.DateKey(rctx.Date))
		}
		stored, ok, err := a.prefs.ForUser(userID).PreferenceForCycle(ctx, rctx.CycleName)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%w %q", ErrMissingPreference, rctx.CycleName)
		}
		category = stored
	}
	if !rctx.HasCategory(category) {
		return "", fmt.Errorf("%w: %s on %s", ErrCategoryUnavailable, category, clock.DateKey(rctx.Date))
	}
	return category, nil
}

func (a *App) meals(content menu.Content, cat menu.Category, week menu.Week, day menu.Day) []Meal {
	wm, _ := content.Week(cat, week)
	windows := a.Catalog().Meals
	out := make([]Meal, 0, len(windows))
	for _, w := range windows {
		items, _ := content.Meal(cat, week, day, w.Slot)
		out = append(out, Meal{
			Slot:   w.Slot,
			Label:  w.Label,
			Timing: w.Timing(),
			Items:  menu.VisibleItems(items),
			Common: wm.CommonItems[w.Slot],
		})
	}
	return out
}

// TodaysMenu is DayMenu for the current date, with each meal marked past,
// active or future.
func (a *App) TodaysMenu(ctx context.Context, userID string, category menu.Category) (*DayView, error) {
	now := a.Now()
	started := time.Now()
	view, err := a.dayMenu(ctx, userID, now, category)
	var cat menu.Category
	if view != nil {
		cat = view.Category
	}
	a.record(ctx, "today", now, cat, err, started)
	if err != nil {
		return view, err
	}

	states := mealtime.States(now, a.Catalog().Meals)
	for i := range view.Meals {
		view.Meals[i].State = mealtime.StateOf(states, view.Meals[i].Slot)
	}
	if slot, ok := mealtime.ActiveSlot(states); ok {
		view.ActiveMeal = slot
	}
	return view, nil
}

// WeekDay is one day inside a WeekView.
type WeekDay struct {
	Date      string   `json:"date"`
	Day       menu.Day `json:"day"`
	EventName string   `json:"event_name,omitempty"`
	Meals     []Meal   `json:"meals,omitempty"`
	NoData    bool     `json:"no_data,omitempty"`
}

// WeekView is the Monday to Sunday menu of one category.
type WeekView struct {
	StartDate     string                   `json:"start_date"`
	Week          menu.Week                `json:"week"`
	Cycle         string                   `json:"cycle,omitempty"`
	Category      menu.Category            `json:"category"`
	CategoryLabel string                   `json:"category_label"`
	Source        string                   `json:"source,omitempty"`
	CommonItems   map[menu.MealSlot]string `json:"common_items,omitempty"`
	Days          []WeekDay                `json:"days"`
}

// WeekMenu resolves the week containing date. Each day is resolved on its
// own date, so event rules show on the days they apply to. A non-empty
// week shows that rotation letter instead of the scheduled one, as the
// menu explorer does.
func (a *App) WeekMenu(ctx context.Context, userID string, date time.Time, category menu.Category, week menu.Week) (*WeekView, error) {
	started := time.Now()
	view, err := a.weekMenu(ctx, userID, date, category, week)
	var cat menu.Category
	if view != nil {
		cat = view.Category
	}
	a.record(ctx, "week", date, cat, err, started)
	return view, err
}

func (a *App) weekMenu(ctx context.Context, userID string, date time.Time, category menu.Category, week menu.Week) (*WeekView, error) {
	if week != "" && week.Index() < 0 {
		return nil, fmt.Errorf("unknown week %q", week)
	}
	anchor, err := a.context(date)
	if err != nil {
		return nil, err
	}
	cat, err := a.categoryFor(ctx, userID, anchor, category)
	if err != nil {
		return nil, err
	}
	if week == "" {
		week = anchor.Weeks[cat]
	}

	monday := calendar.MondayOf(date)
	view := &WeekView{
		StartDate:     clock.DateKey(monday),
		Week:          week,
		Cycle:         anchor.CycleName,
		Category:      cat,
		CategoryLabel: a.Catalog().Label(cat),
	}
	if wm, ok := anchor.Content.Week(cat, week); ok {
		view.Source = wm.Source
		view.CommonItems = wm.CommonItems
	}

	for i := 0; i < 7; i++ {
		d := monday.AddDate(0, 0, i)
		entry := WeekDay{Date: clock.DateKey(d), Day: menu.DayOf(d)}

		rctx, err := a.engine.ContextForDate(d)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve menu for %s: %w", entry.Date, err)
		}
		if rctx == nil || !rctx.HasCategory(cat) {
			entry.NoData = true
			view.Days = append(view.Days, entry)
			continue
		}
		entry.EventName = rctx.EventName
		entry.Meals = a.meals(rctx.Content, cat, week, entry.Day)
		view.Days = append(view.Days, entry)
	}
	return view, nil
}
