package menu

import (
	"fmt"
)

// DayMenu maps each meal to its dishes.
type DayMenu map[MealSlot][]Item

// WeekMenu is one rotation week of a category.
type WeekMenu struct {
	Schedule    map[Day]DayMenu     `json:"schedule"`
	CommonItems map[MealSlot]string `json:"common_items,omitempty"`
	Source      string              `json:"source,omitempty"`
}

// CategoryMenu holds the four rotation weeks of a category.
type CategoryMenu map[Week]WeekMenu

// Content is the fully resolved menu tree:
// category → week → schedule → day → meal → items.
type Content map[Category]CategoryMenu

// Clone returns a deep copy.
func (c Content) Clone() Content {
	out := make(Content, len(c))
	for cat, weeks := range c {
		cw := make(CategoryMenu, len(weeks))
		for w, wm := range weeks {
			cw[w] = wm.clone()
		}
		out[cat] = cw
	}
	return out
}

func (wm WeekMenu) clone() WeekMenu {
	out := WeekMenu{Source: wm.Source}
	if wm.Schedule != nil {
		out.Schedule = make(map[Day]DayMenu, len(wm.Schedule))
		for d, dm := range wm.Schedule {
			out.Schedule[d] = dm.Clone()
		}
	}
	if wm.CommonItems != nil {
		out.CommonItems = make(map[MealSlot]string, len(wm.CommonItems))
		for m, s := range wm.CommonItems {
			out.CommonItems[m] = s
		}
	}
	return out
}

// Clone returns a deep copy.
func (dm DayMenu) Clone() DayMenu {
	if dm == nil {
		return nil
	}
	out := make(DayMenu, len(dm))
	for m, items := range dm {
		out[m] = append([]Item(nil), items...)
	}
	return out
}

// Week returns the week menu for a category.
func (c Content) Week(cat Category, week Week) (WeekMenu, bool) {
	weeks, ok := c[cat]
	if !ok {
		return WeekMenu{}, false
	}
	wm, ok := weeks[week]
	return wm, ok
}

// Meal looks up the dishes for one meal.
func (c Content) Meal(cat Category, week Week, day Day, meal MealSlot) ([]Item, bool) {
	wm, ok := c.Week(cat, week)
	if !ok {
		return nil, false
	}
	dm, ok := wm.Schedule[day]
	if !ok {
		return nil, false
	}
	items, ok := dm[meal]
	return items, ok
}

// SetMeal writes the dishes for one meal, creating missing levels.
func (c Content) SetMeal(cat Category, week Week, day Day, meal MealSlot, items []Item) {
	weeks, ok := c[cat]
	if !ok {
		weeks = CategoryMenu{}
		c[cat] = weeks
	}
	wm := weeks[week]
	if wm.Schedule == nil {
		wm.Schedule = map[Day]DayMenu{}
	}
	dm, ok := wm.Schedule[day]
	if !ok {
		dm = DayMenu{}
		wm.Schedule[day] = dm
	}
	dm[meal] = items
	weeks[week] = wm
}

// Categories returns the category keys present in c.
func (c Content) Categories() []Category {
	out := make([]Category, 0, len(c))
	for cat := range c {
		out = append(out, cat)
	}
	return out
}

// DecodeContent converts a merged tree into typed content, rejecting
// unknown weeks, days and meals.
func DecodeContent(n *Node) (Content, error) {
	if n == nil || n.Kind() != KindObject {
		return nil, fmt.Errorf("menu content must be an object")
	}
	out := Content{}
	for _, catKey := range n.Keys() {
		catNode, _ := n.Get(catKey)
		if catNode.Kind() != KindObject {
			return nil, fmt.Errorf("category %s: expected object", catKey)
		}
		weeks := CategoryMenu{}
		for _, weekKey := range catNode.Keys() {
			week, err := ParseWeek(weekKey)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", catKey, err)
			}
			weekNode, _ := catNode.Get(weekKey)
			wm, err := decodeWeek(weekNode)
			if err != nil {
				return nil, fmt.Errorf("category %s week %s: %w", catKey, weekKey, err)
			}
			weeks[week] = wm
		}
		out[Category(catKey)] = weeks
	}
	return out, nil
}

func decodeWeek(n *Node) (WeekMenu, error) {
	var raw struct {
		Schedule    map[string]map[string][]Item `json:"schedule"`
		CommonItems map[string]string            `json:"common_items"`
		Source      string                       `json:"source"`
	}
	if err := n.Decode(&raw); err != nil {
		return WeekMenu{}, err
	}
	wm := WeekMenu{Source: raw.Source, Schedule: map[Day]DayMenu{}}
	for dayKey, meals := range raw.Schedule {
		day, err := ParseDay(dayKey)
		if err != nil {
			return WeekMenu{}, err
		}
		dm := DayMenu{}
		for mealKey, items := range meals {
			meal, err := ParseMealSlot(mealKey)
			if err != nil {
				return WeekMenu{}, fmt.Errorf("%s: %w", dayKey, err)
			}
			dm[meal] = items
		}
		wm.Schedule[day] = dm
	}
	if len(raw.CommonItems) > 0 {
		wm.CommonItems = map[MealSlot]string{}
		for mealKey, s := range raw.CommonItems {
			meal, err := ParseMealSlot(mealKey)
			if err != nil {
				return WeekMenu{}, fmt.Errorf("common_items: %w", err)
			}
			wm.CommonItems[meal] = s
		}
	}
	return wm, nil
}
