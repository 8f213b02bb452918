package menudata

import (
	"fmt"
	"sort"

	"digimess/internal/calendar"
	"digimess/internal/clock"
	"digimess/internal/menu"
)

// Severity grades a validation issue.
type Severity string

const (
	// SeverityError marks data the engine cannot use as authored.
	SeverityError Severity = "error"
	// SeverityWarning marks data the engine handles but probably should not.
	SeverityWarning Severity = "warning"
)

// Issue is one problem found in a dataset.
type Issue struct {
	Severity Severity
	Where    string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Where, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

type validator struct {
	ds     *menu.Dataset
	issues []Issue
}

func (v *validator) errorf(where, format string, args ...any) {
	v.issues = append(v.issues, Issue{SeverityError, where, fmt.Sprintf(format, args...)})
}

func (v *validator) warnf(where, format string, args ...any) {
	v.issues = append(v.issues, Issue{SeverityWarning, where, fmt.Sprintf(format, args...)})
}

// Validate checks a loaded dataset for authoring mistakes. Resolution
// tolerates all of them; the report is for whoever edits the data.
func Validate(ds *menu.Dataset) []Issue {
	v := &validator{ds: ds}
	v.catalog()
	v.versions()
	v.cycles()
	v.events()
	return v.issues
}

func (v *validator) catalog() {
	seen := make(map[menu.Category]bool)
	for _, info := range v.ds.Catalog.Categories {
		if info.Value == menu.AllCategories {
			v.errorf(CatalogFile, "%s is reserved for event rules", menu.AllCategories)
		}
		if seen[info.Value] {
			v.errorf(CatalogFile, "duplicate category %s", info.Value)
		}
		seen[info.Value] = true
	}

	slots := make(map[menu.MealSlot]bool)
	for _, w := range v.ds.Catalog.Meals {
		if slots[w.Slot] {
			v.errorf(CatalogFile, "duplicate meal window %s", w.Slot)
		}
		slots[w.Slot] = true
		if w.Start > w.End {
			v.errorf(CatalogFile, "meal %s starts after it ends (%s)", w.Slot, w.Timing())
		}
	}
	for _, slot := range menu.MealSlots {
		if !slots[slot] {
			v.warnf(CatalogFile, "no service window for %s", slot)
		}
	}
	for i := 1; i < len(v.ds.Catalog.Meals); i++ {
		prev, cur := v.ds.Catalog.Meals[i-1], v.ds.Catalog.Meals[i]
		if cur.Start <= prev.End {
			v.warnf(CatalogFile, "meal %s overlaps %s", cur.Slot, prev.Slot)
		}
	}

	ref := v.ds.Catalog.WeekReference
	if !ref.Date.IsZero() && menu.DayOf(ref.Date) != menu.Monday {
		v.warnf(CatalogFile, "week reference %s is not a Monday", clock.DateKey(ref.Date))
	}
	for cat, d := range ref.PerCategory {
		if menu.DayOf(d) != menu.Monday {
			v.warnf(CatalogFile, "week reference for %s (%s) is not a Monday", cat, clock.DateKey(d))
		}
		if !v.ds.Catalog.Has(cat) {
			v.warnf(CatalogFile, "week reference names unknown category %s", cat)
		}
	}
}

func (v *validator) versions() {
	if len(v.ds.Versions) == 0 {
		v.errorf(VersionsDir, "no menu versions")
		return
	}

	keys := sortedKeys(v.ds.Versions)
	for _, key := range keys {
		where := fmt.Sprintf("%s/%s", VersionsDir, key)
		content, err := menu.DecodeContent(v.ds.Versions[key])
		if err != nil {
			v.errorf(where, "%v", err)
			continue
		}
		cats := content.Categories()
		sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
		for _, cat := range cats {
			if !v.ds.Catalog.Has(cat) {
				v.warnf(where, "category %s is not in the catalog and will not be offered", cat)
			}
		}
	}

	first := keys[0]
	for _, key := range sortedKeys(v.ds.Overrides) {
		where := fmt.Sprintf("%s/%s", OverridesDir, key)
		if key < first {
			v.warnf(where, "dated before the first version (%s) and never applies", first)
			continue
		}
		// The override must still decode once merged onto its base.
		base := ""
		for _, vk := range keys {
			if vk <= key {
				base = vk
			}
		}
		merged := menu.Merge(v.ds.Versions[base].Clone(), v.ds.Overrides[key])
		if _, err := menu.DecodeContent(merged); err != nil {
			v.errorf(where, "breaks version %s: %v", base, err)
		}
	}
}

func sortedKeys(m map[string]*menu.Node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (v *validator) cycles() {
	sorted := calendar.NewCycles(v.ds.Cycles).All()
	names := make(map[string]bool)
	for i, c := range sorted {
		where := fmt.Sprintf("%s/%s", CyclesFile, c.Name)
		if c.Name == "" {
			v.errorf(CyclesFile, "cycle starting %s has no name", clock.DateKey(c.StartDate))
		}
		if names[c.Name] {
			v.errorf(where, "duplicate cycle name")
		}
		names[c.Name] = true
		if c.EndDate.Before(c.StartDate) {
			v.errorf(where, "ends before it starts")
		}
		if i > 0 && !sorted[i-1].EndDate.Before(c.StartDate) {
			v.warnf(where, "overlaps %s", sorted[i-1].Name)
		}
	}
}

func (v *validator) events() {
	events := append([]menu.Event(nil), v.ds.Events...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].StartDate.Before(events[j].StartDate) })

	for i, ev := range events {
		where := fmt.Sprintf("%s/%s", EventsFile, ev.Name)
		if ev.EndDate.Before(ev.StartDate) {
			v.errorf(where, "ends before it starts")
		}
		if i > 0 && !events[i-1].EndDate.Before(ev.StartDate) {
			v.warnf(where, "overlaps %s; only the first matching event applies", events[i-1].Name)
		}
		for j, rule := range ev.Rules {
			v.rule(fmt.Sprintf("%s rule %d", where, j), ev, rule)
		}
	}
}

func (v *validator) rule(where string, ev menu.Event, rule menu.Rule) {
	on, err := clock.ParseDateKey(rule.OnDate)
	if err != nil {
		v.errorf(where, "onDate %q is not a date", rule.OnDate)
	} else if !ev.Contains(on) {
		v.warnf(where, "onDate %s is outside the event window and never applies", rule.OnDate)
	}

	if _, err := menu.ParseMealSlot(string(rule.TargetMeal)); err != nil {
		v.errorf(where, "targetMeal: %v", err)
	}

	switch rule.Type {
	case menu.RuleRemap:
		if _, err := menu.ParseDay(string(rule.SourceDay)); err != nil {
			v.errorf(where, "sourceDay: %v", err)
		}
		if len(rule.Items) > 0 {
			v.warnf(where, "remap rules ignore items")
		}
	case menu.RuleOverride, menu.RuleAddon:
		if len(rule.Items) == 0 {
			v.errorf(where, "%s rule has no items", rule.Type)
		}
		_, hasAll := rule.Items[menu.AllCategories]
		cats := make([]menu.Category, 0, len(rule.Items))
		for cat := range rule.Items {
			cats = append(cats, cat)
		}
		sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
		for _, cat := range cats {
			if cat == menu.AllCategories {
				continue
			}
			if !v.ds.Catalog.Has(cat) {
				v.warnf(where, "items name unknown category %s", cat)
			}
			if hasAll {
				v.warnf(where, "items name both %s and %s; the %s entry replaces the global one", cat, menu.AllCategories, cat)
			}
		}
	default:
		v.errorf(where, "unknown rule type %q", rule.Type)
	}
}
