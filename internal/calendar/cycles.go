package calendar

import (
	"sort"
	"time"

	"digimess/internal/clock"
	"digimess/internal/menu"
)

// Cycles resolves dates against the configured cycles, kept sorted by
// start date.
type Cycles struct {
	list []menu.Cycle
}

// NewCycles copies and sorts the given cycles.
func NewCycles(list []menu.Cycle) *Cycles {
	sorted := append([]menu.Cycle(nil), list...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartDate.Before(sorted[j].StartDate)
	})
	return &Cycles{list: sorted}
}

// All returns the cycles in start order.
func (c *Cycles) All() []menu.Cycle {
	return append([]menu.Cycle(nil), c.list...)
}

// ForDate returns the latest cycle that started on or before date.
func (c *Cycles) ForDate(date time.Time) (menu.Cycle, bool) {
	for i := len(c.list) - 1; i >= 0; i-- {
		if clock.OnOrBefore(c.list[i].StartDate, date) {
			return c.list[i], true
		}
	}
	return menu.Cycle{}, false
}

// ByName finds a cycle by name.
func (c *Cycles) ByName(name string) (menu.Cycle, bool) {
	for _, cy := range c.list {
		if cy.Name == name {
			return cy, true
		}
	}
	return menu.Cycle{}, false
}

// Neighbors are the cycles around "now" shown in settings.
type Neighbors struct {
	Previous *menu.Cycle `json:"previous"`
	Current  *menu.Cycle `json:"current"`
	Next     *menu.Cycle `json:"next"`
}

// Neighboring finds the current cycle for now and its neighbours. Between
// cycles the upcoming one counts as current; after the last cycle the
// last one stays current and Next is nil.
func (c *Cycles) Neighboring(now time.Time) Neighbors {
	if len(c.list) == 0 {
		return Neighbors{}
	}

	today := clock.Midnight(now)
	current := -1
	for i, cy := range c.list {
		if cy.Contains(today) {
			current = i
			break
		}
	}
	if current < 0 {
		for i, cy := range c.list {
			if clock.Midnight(cy.StartDate).After(today) {
				current = i
				break
			}
		}
	}
	if current < 0 {
		current = len(c.list) - 1
	}

	out := Neighbors{Current: c.at(current)}
	if current > 0 {
		out.Previous = c.at(current - 1)
	}
	if current+1 < len(c.list) {
		out.Next = c.at(current + 1)
	}
	return out
}

func (c *Cycles) at(i int) *menu.Cycle {
	cy := c.list[i]
	return &cy
}

// DateRange returns the span a user may browse: first start to last end.
func (c *Cycles) DateRange() (time.Time, time.Time, bool) {
	if len(c.list) == 0 {
		return time.Time{}, time.Time{}, false
	}
	min := c.list[0].StartDate
	max := c.list[0].EndDate
	for _, cy := range c.list[1:] {
		if cy.EndDate.After(max) {
			max = cy.EndDate
		}
	}
	return min, max, true
}
