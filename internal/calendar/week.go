package calendar

import (
	"time"

	"digimess/internal/clock"
	"digimess/internal/menu"
)

// WeekCalculator maps dates onto the four-week rotation. Reference is a
// Monday that served ReferenceWeek; a category listed in PerCategory uses
// its own Monday, which must also have served ReferenceWeek.
type WeekCalculator struct {
	Reference     time.Time
	ReferenceWeek menu.Week
	PerCategory   map[menu.Category]time.Time
}

// NewWeekCalculator builds a calculator from the catalog anchor.
func NewWeekCalculator(ref menu.WeekReference) WeekCalculator {
	w := ref.Week
	if w.Index() < 0 {
		w = menu.WeekA
	}
	return WeekCalculator{
		Reference:     ref.Date,
		ReferenceWeek: w,
		PerCategory:   ref.PerCategory,
	}
}

// WeekFor returns the rotation week serving date. An empty category uses
// the global anchor.
func (c WeekCalculator) WeekFor(date time.Time, category menu.Category) menu.Week {
	ref := c.Reference
	if category != "" {
		if own, ok := c.PerCategory[category]; ok {
			ref = own
		}
	}

	weeks := floorDiv(clock.DaysBetween(ref, date), 7)
	n := len(menu.Weeks)
	idx := ((c.ReferenceWeek.Index()+weeks)%n + n) % n
	return menu.Weeks[idx]
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// MondayOf returns the Monday starting date's rotation week.
func MondayOf(date time.Time) time.Time {
	offset := (int(date.Weekday()) + 6) % 7
	return clock.Midnight(date).AddDate(0, 0, -offset)
}
