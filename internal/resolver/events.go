package resolver

import (
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"digimess/internal/clock"
	"digimess/internal/menu"
)

// Context is everything a surface needs to render one date.
type Context struct {
	Date                time.Time
	CycleName           string
	VersionID           string
	EventName           string
	EventDescription    string
	Content             menu.Content
	Weeks               map[menu.Category]menu.Week
	AvailableCategories []menu.CategoryInfo
}

// HasCategory reports whether cat is served on this date.
func (c *Context) HasCategory(cat menu.Category) bool {
	for _, info := range c.AvailableCategories {
		if info.Value == cat {
			return true
		}
	}
	return false
}

// EventForDate returns the event whose window contains date.
func (e *Engine) EventForDate(date time.Time) (menu.Event, bool) {
	for _, ev := range e.data.Events {
		if ev.Contains(date) {
			return ev, true
		}
	}
	return menu.Event{}, false
}

// ContextForDate resolves the final menu for date: cycle, base version,
// overrides and the active event's rules for that day. It returns nil, nil
// when no version applies.
func (e *Engine) ContextForDate(date time.Time) (*Context, error) {
	resolved, err := e.MenuContentForDate(date)
	if err != nil || resolved == nil {
		return nil, err
	}

	ctx := &Context{
		Date:      date,
		VersionID: resolved.VersionID,
		Content:   resolved.Content,
	}
	if cycle, ok := e.cycles.ForDate(date); ok {
		ctx.CycleName = cycle.Name
	}

	if ev, ok := e.EventForDate(date); ok {
		ctx.EventName = ev.Name
		ctx.EventDescription = ev.Description
		if rules := ev.RulesOn(clock.DateKey(date)); len(rules) > 0 {
			if descriptions := e.applyRules(ctx.Content, date, rules); len(descriptions) > 0 {
				ctx.EventDescription = strings.Join(descriptions, " ")
			}
		}
	}

	ctx.Weeks = make(map[menu.Category]menu.Week, len(ctx.Content))
	for cat := range ctx.Content {
		ctx.Weeks[cat] = e.weeks.WeekFor(date, cat)
	}
	for _, info := range e.data.Catalog.Categories {
		if _, ok := ctx.Content[info.Value]; ok {
			ctx.AvailableCategories = append(ctx.AvailableCategories, info)
		}
	}
	return ctx, nil
}

// ContextForCycle resolves the menu in effect when cycle starts.
func (e *Engine) ContextForCycle(cycle menu.Cycle) (*Context, error) {
	return e.ContextForDate(cycle.StartDate)
}

// applyRules edits content in place for date. Remaps read from a snapshot
// taken before the first rule runs; overrides and addons see earlier edits.
// It returns the rule descriptions in order.
func (e *Engine) applyRules(content menu.Content, date time.Time, rules []menu.Rule) []string {
	snapshot := content.Clone()
	day := menu.DayOf(date)

	categories := content.Categories()
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	var descriptions []string
	for _, rule := range rules {
		log := e.logger.WithFields(logrus.Fields{
			"date": rule.OnDate,
			"type": rule.Type,
			"meal": rule.TargetMeal,
		})
		if rule.TargetMeal == "" {
			log.Debug("skipping event rule without target meal")
			continue
		}

		switch rule.Type {
		case menu.RuleRemap:
			if rule.SourceDay == "" {
				log.Debug("skipping remap rule without source day")
				continue
			}
			for _, cat := range categories {
				week := e.weeks.WeekFor(date, cat)
				items, ok := snapshot.Meal(cat, week, rule.SourceDay, rule.TargetMeal)
				if !ok {
					continue
				}
				content.SetMeal(cat, week, day, rule.TargetMeal, append([]menu.Item(nil), items...))
			}
		case menu.RuleOverride:
			for _, cat := range categories {
				items, ok := rule.ItemsFor(cat)
				if !ok {
					continue
				}
				week := e.weeks.WeekFor(date, cat)
				content.SetMeal(cat, week, day, rule.TargetMeal, append([]menu.Item(nil), items...))
			}
		case menu.RuleAddon:
			for _, cat := range categories {
				items, ok := rule.ItemsFor(cat)
				if !ok {
					continue
				}
				week := e.weeks.WeekFor(date, cat)
				existing, _ := content.Meal(cat, week, day, rule.TargetMeal)
				merged := make([]menu.Item, 0, len(existing)+len(items))
				merged = append(merged, existing...)
				merged = append(merged, items...)
				content.SetMeal(cat, week, day, rule.TargetMeal, merged)
			}
		default:
			log.Debug("skipping event rule with unknown type")
			continue
		}

		if rule.Description != "" {
			descriptions = append(descriptions, rule.Description)
		}
	}
	return descriptions
}
