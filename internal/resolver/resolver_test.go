package resolver

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"digimess/internal/clock"
	"digimess/internal/menu"
)

func day(s string) time.Time { return clock.MustParseDateKey(s) }

func node(t *testing.T, s string) *menu.Node {
	t.Helper()
	n, err := menu.ParseNode([]byte(s))
	if err != nil {
		t.Fatalf("Failed to parse %s: %v", s, err)
	}
	return n
}

// fullVersion renders a complete version where every meal holds a single
// item named "<tag>:<category>:<week>:<day>:<meal>".
func fullVersion(t *testing.T, tag string, categories ...string) *menu.Node {
	t.Helper()
	var cats []string
	for _, cat := range categories {
		var weeks []string
		for _, w := range menu.Weeks {
			var days []string
			for _, d := range menu.Days {
				var meals []string
				for _, m := range menu.MealSlots {
					meals = append(meals, fmt.Sprintf(`%q:[%q]`, m, strings.Join([]string{tag, cat, string(w), string(d), string(m)}, ":")))
				}
				days = append(days, fmt.Sprintf(`%q:{%s}`, d, strings.Join(meals, ",")))
			}
			weeks = append(weeks, fmt.Sprintf(`%q:{"schedule":{%s},"common_items":{"Lunch":"Curd"},"source":%q}`, w, strings.Join(days, ","), tag))
		}
		cats = append(cats, fmt.Sprintf(`%q:{%s}`, cat, strings.Join(weeks, ",")))
	}
	return node(t, "{"+strings.Join(cats, ",")+"}")
}

func names(items []menu.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestMenuContentForDateOverrideExample(t *testing.T) {
	ds := &menu.Dataset{
		Catalog: menu.DefaultCatalog(),
		Versions: map[string]*menu.Node{
			"2025-07-01": node(t, `{"South_Veg":{"A":{"schedule":{"Monday":{"Lunch":["Rice","Dal"]}}}}}`),
		},
		Overrides: map[string]*menu.Node{
			"2025-07-15": node(t, `{"South_Veg":{"A":{"schedule":{"Monday":{"Lunch":["Rice","Dal","Papad"]}}}}}`),
		},
	}
	engine := NewEngine(ds)

	after, err := engine.MenuContentForDate(day("2025-07-20"))
	if err != nil || after == nil {
		t.Fatalf("Expected content, got %v / %v", after, err)
	}
	items, _ := after.Content.Meal("South_Veg", menu.WeekA, menu.Monday, menu.Lunch)
	if got := names(items); !reflect.DeepEqual(got, []string{"Rice", "Dal", "Papad"}) {
		t.Errorf("Expected override list, got %v", got)
	}
	if after.VersionID != "2025-07-01" {
		t.Errorf("Expected version 2025-07-01, got %s", after.VersionID)
	}

	before, _ := engine.MenuContentForDate(day("2025-07-10"))
	items, _ = before.Content.Meal("South_Veg", menu.WeekA, menu.Monday, menu.Lunch)
	if got := names(items); !reflect.DeepEqual(got, []string{"Rice", "Dal"}) {
		t.Errorf("Expected original list, got %v", got)
	}

	onDay, _ := engine.MenuContentForDate(day("2025-07-15"))
	items, _ = onDay.Content.Meal("South_Veg", menu.WeekA, menu.Monday, menu.Lunch)
	if len(items) != 3 {
		t.Errorf("Expected the override to apply on its own date, got %v", names(items))
	}
}

func TestMenuContentForDateNoVersion(t *testing.T) {
	ds := &menu.Dataset{
		Catalog:   menu.DefaultCatalog(),
		Versions:  map[string]*menu.Node{"2025-07-01": fullVersion(t, "v1", "South_Veg")},
		Overrides: map[string]*menu.Node{"2025-06-01": node(t, `{"South_Veg":{}}`)},
	}
	got, err := NewEngine(ds).MenuContentForDate(day("2025-06-15"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil before the first version, got %+v", got)
	}

	ctx, err := NewEngine(ds).ContextForDate(day("2025-06-15"))
	if err != nil || ctx != nil {
		t.Errorf("Expected nil context before the first version, got %v / %v", ctx, err)
	}
}

func TestOverrideBeforeBaseVersionIsIgnored(t *testing.T) {
	ds := &menu.Dataset{
		Catalog: menu.DefaultCatalog(),
		Versions: map[string]*menu.Node{
			"2025-07-01": fullVersion(t, "v1", "South_Veg"),
			"2025-08-01": fullVersion(t, "v2", "South_Veg"),
		},
		Overrides: map[string]*menu.Node{
			"2025-07-15": node(t, `{"South_Veg":{"A":{"source":"patched"}}}`),
		},
	}
	engine := NewEngine(ds)

	mid, _ := engine.MenuContentForDate(day("2025-07-20"))
	if wm, _ := mid.Content.Week("South_Veg", menu.WeekA); wm.Source != "patched" {
		t.Errorf("Expected override on v1, got source %q", wm.Source)
	}

	later, _ := engine.MenuContentForDate(day("2025-08-05"))
	if later.VersionID != "2025-08-01" {
		t.Errorf("Expected version 2025-08-01, got %s", later.VersionID)
	}
	if wm, _ := later.Content.Week("South_Veg", menu.WeekA); wm.Source != "v2" {
		t.Errorf("Expected stale override to be skipped, got source %q", wm.Source)
	}
}

func TestLaterOverridesWin(t *testing.T) {
	ds := &menu.Dataset{
		Catalog:  menu.DefaultCatalog(),
		Versions: map[string]*menu.Node{"2025-07-01": fullVersion(t, "v1", "South_Veg")},
		Overrides: map[string]*menu.Node{
			"2025-07-20": node(t, `{"South_Veg":{"B":{"schedule":{"Monday":{"Lunch":["second"]}}}}}`),
			"2025-07-10": node(t, `{"South_Veg":{"B":{"schedule":{"Monday":{"Lunch":["first"],"Dinner":["kept"]}}}}}`),
		},
	}
	got, _ := NewEngine(ds).MenuContentForDate(day("2025-07-25"))

	lunch, _ := got.Content.Meal("South_Veg", menu.WeekB, menu.Monday, menu.Lunch)
	dinner, _ := got.Content.Meal("South_Veg", menu.WeekB, menu.Monday, menu.Dinner)
	if names(lunch)[0] != "second" || names(dinner)[0] != "kept" {
		t.Errorf("Expected cumulative overrides, got lunch=%v dinner=%v", names(lunch), names(dinner))
	}
}

func TestResolutionDoesNotMutateDataset(t *testing.T) {
	version := fullVersion(t, "v1", "South_Veg")
	pristine := version.Clone()
	ds := &menu.Dataset{
		Catalog:   menu.DefaultCatalog(),
		Versions:  map[string]*menu.Node{"2025-07-01": version},
		Overrides: map[string]*menu.Node{"2025-07-10": node(t, `{"South_Veg":{"C":{"schedule":{"Friday":{"Lunch":["o"]}}}}}`)},
		Events: []menu.Event{{
			Name: "Feast", StartDate: day("2025-08-15"), EndDate: day("2025-08-15"),
			Rules: []menu.Rule{{OnDate: "2025-08-15", Type: menu.RuleAddon, TargetMeal: menu.Lunch,
				Items: map[menu.Category][]menu.Item{menu.AllCategories: {{Name: "Sweet"}}}}},
		}},
	}
	engine := NewEngine(ds)
	for i := 0; i < 3; i++ {
		if _, err := engine.ContextForDate(day("2025-08-15")); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}
	if !version.Equal(pristine) {
		t.Error("Expected the version tree to be left untouched")
	}
	if got := ds.Events[0].Rules[0].Items[menu.AllCategories]; len(got) != 1 {
		t.Errorf("Expected rule items to be left untouched, got %v", got)
	}
}

func TestMalformedVersionIsAnError(t *testing.T) {
	ds := &menu.Dataset{
		Catalog:  menu.DefaultCatalog(),
		Versions: map[string]*menu.Node{"2025-07-01": node(t, `{"South_Veg":{"Z":{}}}`)},
	}
	if _, err := NewEngine(ds).MenuContentForDate(day("2025-07-02")); err == nil {
		t.Error("Expected a decode error for an unknown week")
	}
}
