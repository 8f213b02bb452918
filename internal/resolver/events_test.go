package resolver

import (
	"reflect"
	"testing"
	"time"

	"digimess/internal/menu"
)

// 2025-08-15 is a Friday in week C with the default anchor (2025-07-28 = A).
const eventDate = "2025-08-15"

func eventEngine(t *testing.T, rules []menu.Rule) *Engine {
	t.Helper()
	cat := menu.DefaultCatalog()
	cat.WeekReference.PerCategory = map[menu.Category]time.Time{
		"North_Veg": day("2025-08-04"), // North_Veg runs one week behind: B on the event date
	}
	ds := &menu.Dataset{
		Catalog:  cat,
		Versions: map[string]*menu.Node{"2025-07-01": fullVersion(t, "v1", "South_Veg", "North_Veg", "Guest_Mess")},
		Cycles: []menu.Cycle{
			{Name: "Fall 2025", StartDate: day("2025-08-01"), EndDate: day("2025-12-05")},
		},
		Events: []menu.Event{{
			Name:        "Independence Day",
			Description: "National holiday menu",
			StartDate:   day("2025-08-14"),
			EndDate:     day("2025-08-16"),
			Rules:       rules,
		}},
	}
	return NewEngine(ds)
}

func meal(t *testing.T, ctx *Context, cat menu.Category, week menu.Week, d menu.Day, m menu.MealSlot) []string {
	t.Helper()
	items, ok := ctx.Content.Meal(cat, week, d, m)
	if !ok {
		t.Fatalf("Missing %s/%s/%s/%s", cat, week, d, m)
	}
	return names(items)
}

func TestRemapExample(t *testing.T) {
	engine := eventEngine(t, []menu.Rule{
		{OnDate: eventDate, Type: menu.RuleRemap, TargetMeal: menu.Lunch, SourceDay: menu.Sunday},
	})

	ctx, err := engine.ContextForDate(day(eventDate))
	if err != nil || ctx == nil {
		t.Fatalf("Expected context, got %v / %v", ctx, err)
	}

	if got := meal(t, ctx, "South_Veg", menu.WeekC, menu.Friday, menu.Lunch); got[0] != "v1:South_Veg:C:Sunday:Lunch" {
		t.Errorf("Expected Friday lunch remapped from Sunday, got %v", got)
	}
	if got := meal(t, ctx, "South_Veg", menu.WeekC, menu.Sunday, menu.Lunch); got[0] != "v1:South_Veg:C:Sunday:Lunch" {
		t.Errorf("Expected Sunday lunch unchanged, got %v", got)
	}
	if got := meal(t, ctx, "South_Veg", menu.WeekC, menu.Friday, menu.Dinner); got[0] != "v1:South_Veg:C:Friday:Dinner" {
		t.Errorf("Expected Friday dinner unchanged, got %v", got)
	}
	// Each category remaps within its own rotation week.
	if got := meal(t, ctx, "North_Veg", menu.WeekB, menu.Friday, menu.Lunch); got[0] != "v1:North_Veg:B:Sunday:Lunch" {
		t.Errorf("Expected North_Veg remapped within week B, got %v", got)
	}
	if ctx.Weeks["North_Veg"] != menu.WeekB || ctx.Weeks["South_Veg"] != menu.WeekC {
		t.Errorf("Unexpected weeks %v", ctx.Weeks)
	}
}

func TestRemapReadsSnapshot(t *testing.T) {
	t.Run("OverrideThenRemap", func(t *testing.T) {
		engine := eventEngine(t, []menu.Rule{
			{OnDate: eventDate, Type: menu.RuleOverride, TargetMeal: menu.Lunch,
				Items: map[menu.Category][]menu.Item{menu.AllCategories: {{Name: "Flag Cake"}}}},
			{OnDate: eventDate, Type: menu.RuleRemap, TargetMeal: menu.Lunch, SourceDay: menu.Friday},
		})
		ctx, _ := engine.ContextForDate(day(eventDate))

		got := meal(t, ctx, "South_Veg", menu.WeekC, menu.Friday, menu.Lunch)
		if !reflect.DeepEqual(got, []string{"v1:South_Veg:C:Friday:Lunch"}) {
			t.Errorf("Expected remap to read the pre-event Friday lunch, got %v", got)
		}
	})

	t.Run("RemapThenOverride", func(t *testing.T) {
		engine := eventEngine(t, []menu.Rule{
			{OnDate: eventDate, Type: menu.RuleRemap, TargetMeal: menu.Dinner, SourceDay: menu.Sunday},
			{OnDate: eventDate, Type: menu.RuleOverride, TargetMeal: menu.Lunch,
				Items: map[menu.Category][]menu.Item{menu.AllCategories: {{Name: "Flag Cake"}}}},
			{OnDate: eventDate, Type: menu.RuleRemap, TargetMeal: menu.Lunch, SourceDay: menu.Saturday},
		})
		ctx, _ := engine.ContextForDate(day(eventDate))

		if got := meal(t, ctx, "South_Veg", menu.WeekC, menu.Friday, menu.Dinner); got[0] != "v1:South_Veg:C:Sunday:Dinner" {
			t.Errorf("Expected dinner remapped from Sunday, got %v", got)
		}
		if got := meal(t, ctx, "South_Veg", menu.WeekC, menu.Friday, menu.Lunch); got[0] != "v1:South_Veg:C:Saturday:Lunch" {
			t.Errorf("Expected final remap to win over the override, got %v", got)
		}
	})
}

func TestOverrideAndAddonCompose(t *testing.T) {
	engine := eventEngine(t, []menu.Rule{
		{OnDate: eventDate, Type: menu.RuleOverride, TargetMeal: menu.Dinner,
			Items: map[menu.Category][]menu.Item{
				menu.AllCategories: {{Name: "Pulao"}},
				"North_Veg":        {{Name: "Chole", Special: true}},
			}},
		{OnDate: eventDate, Type: menu.RuleAddon, TargetMeal: menu.Dinner,
			Items: map[menu.Category][]menu.Item{menu.AllCategories: {{Name: "Jalebi", Special: true}}}},
		{OnDate: eventDate, Type: menu.RuleAddon, TargetMeal: menu.Snacks,
			Items: map[menu.Category][]menu.Item{"South_Veg": {{Name: "Sundal"}}}},
	})
	ctx, _ := engine.ContextForDate(day(eventDate))

	if got := meal(t, ctx, "South_Veg", menu.WeekC, menu.Friday, menu.Dinner); !reflect.DeepEqual(got, []string{"Pulao", "Jalebi"}) {
		t.Errorf("Expected global override plus addon, got %v", got)
	}
	if got := meal(t, ctx, "North_Veg", menu.WeekB, menu.Friday, menu.Dinner); !reflect.DeepEqual(got, []string{"Chole", "Jalebi"}) {
		t.Errorf("Expected category entry to beat the global one, got %v", got)
	}
	if got := meal(t, ctx, "South_Veg", menu.WeekC, menu.Friday, menu.Snacks); !reflect.DeepEqual(got, []string{"v1:South_Veg:C:Friday:Snacks", "Sundal"}) {
		t.Errorf("Expected addon appended to base snacks, got %v", got)
	}
	if got := meal(t, ctx, "North_Veg", menu.WeekB, menu.Friday, menu.Snacks); !reflect.DeepEqual(got, []string{"v1:North_Veg:B:Friday:Snacks"}) {
		t.Errorf("Expected other categories untouched, got %v", got)
	}
}

func TestAddonCreatesMissingMeal(t *testing.T) {
	ds := &menu.Dataset{
		Catalog:  menu.DefaultCatalog(),
		Versions: map[string]*menu.Node{"2025-07-01": node(t, `{"South_Veg":{"C":{"schedule":{"Monday":{"Lunch":["x"]}}}}}`)},
		Events: []menu.Event{{
			Name: "Feast", StartDate: day(eventDate), EndDate: day(eventDate),
			Rules: []menu.Rule{
				{OnDate: eventDate, Type: menu.RuleAddon, TargetMeal: menu.Snacks,
					Items: map[menu.Category][]menu.Item{menu.AllCategories: {{Name: "Laddu"}}}},
				{OnDate: eventDate, Type: menu.RuleRemap, TargetMeal: menu.Lunch, SourceDay: menu.Tuesday},
			},
		}},
	}
	ctx, err := NewEngine(ds).ContextForDate(day(eventDate))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := meal(t, ctx, "South_Veg", menu.WeekC, menu.Friday, menu.Snacks); !reflect.DeepEqual(got, []string{"Laddu"}) {
		t.Errorf("Expected addon to create the meal, got %v", got)
	}
	if _, ok := ctx.Content.Meal("South_Veg", menu.WeekC, menu.Friday, menu.Lunch); ok {
		t.Error("Expected remap with no source data to be a no-op")
	}
}

func TestEventDescriptions(t *testing.T) {
	t.Run("JoinedRuleDescriptions", func(t *testing.T) {
		engine := eventEngine(t, []menu.Rule{
			{OnDate: eventDate, Type: menu.RuleRemap, TargetMeal: menu.Lunch, SourceDay: menu.Sunday, Description: "Sunday lunch today."},
			{OnDate: eventDate, Type: menu.RuleAddon, TargetMeal: menu.Dinner,
				Items: map[menu.Category][]menu.Item{menu.AllCategories: {{Name: "Kheer"}}}},
			{OnDate: eventDate, Type: menu.RuleAddon, TargetMeal: menu.Dinner, Description: "Kheer at dinner.",
				Items: map[menu.Category][]menu.Item{menu.AllCategories: {{Name: "Kheer"}}}},
		})
		ctx, _ := engine.ContextForDate(day(eventDate))
		if ctx.EventName != "Independence Day" {
			t.Errorf("Expected event name, got %q", ctx.EventName)
		}
		if ctx.EventDescription != "Sunday lunch today. Kheer at dinner." {
			t.Errorf("Unexpected description %q", ctx.EventDescription)
		}
	})

	t.Run("FallbackToEventDescription", func(t *testing.T) {
		engine := eventEngine(t, []menu.Rule{
			{OnDate: eventDate, Type: menu.RuleRemap, TargetMeal: menu.Lunch, SourceDay: menu.Sunday},
		})
		ctx, _ := engine.ContextForDate(day(eventDate))
		if ctx.EventDescription != "National holiday menu" {
			t.Errorf("Expected event description fallback, got %q", ctx.EventDescription)
		}
	})

	t.Run("InsideWindowWithoutRules", func(t *testing.T) {
		engine := eventEngine(t, []menu.Rule{
			{OnDate: eventDate, Type: menu.RuleRemap, TargetMeal: menu.Lunch, SourceDay: menu.Sunday},
		})
		ctx, _ := engine.ContextForDate(day("2025-08-16"))
		if ctx.EventName != "Independence Day" || ctx.EventDescription != "National holiday menu" {
			t.Errorf("Expected event banner, got %q / %q", ctx.EventName, ctx.EventDescription)
		}
		if got := meal(t, ctx, "South_Veg", menu.WeekC, menu.Saturday, menu.Lunch); got[0] != "v1:South_Veg:C:Saturday:Lunch" {
			t.Errorf("Expected no rules applied on the 16th, got %v", got)
		}
	})

	t.Run("OutsideWindow", func(t *testing.T) {
		engine := eventEngine(t, nil)
		ctx, _ := engine.ContextForDate(day("2025-08-17"))
		if ctx.EventName != "" || ctx.EventDescription != "" {
			t.Errorf("Expected no event, got %q", ctx.EventName)
		}
	})

	t.Run("EndDayIsInclusive", func(t *testing.T) {
		engine := eventEngine(t, nil)
		late := day("2025-08-16").Add(23*time.Hour + 59*time.Minute)
		if _, ok := engine.EventForDate(late); !ok {
			t.Error("Expected the event to cover the whole end day")
		}
	})
}

func TestMalformedRulesAreSkipped(t *testing.T) {
	engine := eventEngine(t, []menu.Rule{
		{OnDate: eventDate, Type: "swap", TargetMeal: menu.Lunch, Description: "ignored"},
		{OnDate: eventDate, Type: menu.RuleRemap, SourceDay: menu.Sunday, Description: "no meal"},
		{OnDate: eventDate, Type: menu.RuleRemap, TargetMeal: menu.Lunch},
		{OnDate: eventDate, Type: menu.RuleOverride, TargetMeal: menu.Lunch,
			Items: map[menu.Category][]menu.Item{"Unknown_Mess": {{Name: "x"}}}},
	})
	ctx, err := engine.ContextForDate(day(eventDate))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := meal(t, ctx, "South_Veg", menu.WeekC, menu.Friday, menu.Lunch); got[0] != "v1:South_Veg:C:Friday:Lunch" {
		t.Errorf("Expected lunch untouched, got %v", got)
	}
	if _, ok := ctx.Content["Unknown_Mess"]; ok {
		t.Error("Expected rules not to invent categories")
	}
	if ctx.EventDescription != "National holiday menu" {
		t.Errorf("Expected skipped rules to contribute no description, got %q", ctx.EventDescription)
	}
}

func TestContextForDateIsIdempotent(t *testing.T) {
	engine := eventEngine(t, []menu.Rule{
		{OnDate: eventDate, Type: menu.RuleRemap, TargetMeal: menu.Lunch, SourceDay: menu.Sunday},
		{OnDate: eventDate, Type: menu.RuleAddon, TargetMeal: menu.Lunch,
			Items: map[menu.Category][]menu.Item{menu.AllCategories: {{Name: "Kheer"}}}},
	})

	first, err := engine.ContextForDate(day(eventDate))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, _ := engine.ContextForDate(day(eventDate))
	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical contexts for repeated calls")
	}

	// Mutating a returned context must not leak into the next call.
	first.Content.SetMeal("South_Veg", menu.WeekC, menu.Friday, menu.Lunch, nil)
	third, _ := engine.ContextForDate(day(eventDate))
	if !reflect.DeepEqual(second, third) {
		t.Error("Expected caller edits not to affect later resolutions")
	}
}

func TestContextMetadata(t *testing.T) {
	engine := eventEngine(t, nil)
	ctx, _ := engine.ContextForDate(day("2025-09-01"))

	if ctx.CycleName != "Fall 2025" || ctx.VersionID != "2025-07-01" {
		t.Errorf("Unexpected cycle/version %q/%q", ctx.CycleName, ctx.VersionID)
	}
	var got []menu.Category
	for _, info := range ctx.AvailableCategories {
		got = append(got, info.Value)
	}
	// Catalog order, and only catalog categories.
	if !reflect.DeepEqual(got, []menu.Category{"South_Veg", "North_Veg"}) {
		t.Errorf("Unexpected available categories %v", got)
	}
	if !ctx.HasCategory("North_Veg") || ctx.HasCategory("Guest_Mess") {
		t.Error("Unexpected HasCategory result")
	}

	early, _ := engine.ContextForDate(day("2025-07-15"))
	if early.CycleName != "" {
		t.Errorf("Expected no cycle before Fall 2025, got %q", early.CycleName)
	}

	byCycle, _ := engine.ContextForCycle(menu.Cycle{Name: "Fall 2025", StartDate: day("2025-08-01")})
	if byCycle.CycleName != "Fall 2025" {
		t.Errorf("Expected cycle context, got %q", byCycle.CycleName)
	}
}
