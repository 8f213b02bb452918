package calendar

import (
	"testing"
	"time"

	"digimess/internal/clock"
	"digimess/internal/menu"
)

func day(s string) time.Time { return clock.MustParseDateKey(s) }

func TestWeekFor(t *testing.T) {
	calc := WeekCalculator{Reference: day("2025-07-28"), ReferenceWeek: menu.WeekA}

	tests := []struct {
		date string
		want menu.Week
	}{
		{"2025-07-28", menu.WeekA},
		{"2025-08-03", menu.WeekA}, // Sunday closes the week
		{"2025-08-04", menu.WeekB},
		{"2025-08-11", menu.WeekC},
		{"2025-08-18", menu.WeekD},
		{"2025-08-25", menu.WeekA},
		{"2025-07-27", menu.WeekD},
		{"2025-07-21", menu.WeekD},
		{"2025-07-20", menu.WeekC},
		{"2025-06-30", menu.WeekA},
		{"2024-01-01", calc.WeekFor(day("2024-01-29"), "")},
	}
	for _, tt := range tests {
		if got := calc.WeekFor(day(tt.date), ""); got != tt.want {
			t.Errorf("WeekFor(%s) = %s, want %s", tt.date, got, tt.want)
		}
	}
}

func TestWeekForIsPeriodic(t *testing.T) {
	calc := WeekCalculator{Reference: day("2025-07-28"), ReferenceWeek: menu.WeekC}
	for _, from := range []string{"2023-01-01", "2399-12-01", "1600-01-03", "9990-01-01"} {
		start := day(from)
		for i := 0; i < 3*365; i++ {
			d := start.AddDate(0, 0, i)
			if calc.WeekFor(d, "") != calc.WeekFor(d.AddDate(0, 0, 28), "") {
				t.Fatalf("Week rotation is not 28-day periodic at %s", clock.DateKey(d))
			}
		}
	}
}

func TestWeekForFarDatesRotate(t *testing.T) {
	calc := WeekCalculator{Reference: day("2025-07-28"), ReferenceWeek: menu.WeekA}
	for _, from := range []string{"2400-01-03", "1600-01-03"} {
		d := day(from)
		seen := make(map[menu.Week]bool)
		for i := 0; i < 4; i++ {
			seen[calc.WeekFor(d.AddDate(0, 0, 7*i), "")] = true
		}
		if len(seen) != 4 {
			t.Errorf("Expected four consecutive weeks from %s to cover A-D, got %v", from, seen)
		}
	}
}

func TestWeekForPerCategory(t *testing.T) {
	calc := NewWeekCalculator(menu.WeekReference{
		Date: day("2025-07-28"),
		Week: menu.WeekA,
		PerCategory: map[menu.Category]time.Time{
			"North_Veg": day("2025-08-04"),
		},
	})

	d := day("2025-08-06")
	if got := calc.WeekFor(d, "South_Veg"); got != menu.WeekB {
		t.Errorf("Expected South_Veg on B, got %s", got)
	}
	if got := calc.WeekFor(d, "North_Veg"); got != menu.WeekA {
		t.Errorf("Expected North_Veg shifted to A, got %s", got)
	}
	if got := calc.WeekFor(d, ""); got != menu.WeekB {
		t.Errorf("Expected global B, got %s", got)
	}
}

func TestNewWeekCalculatorDefaultsWeek(t *testing.T) {
	calc := NewWeekCalculator(menu.WeekReference{Date: day("2025-07-28")})
	if calc.ReferenceWeek != menu.WeekA {
		t.Errorf("Expected default reference week A, got %q", calc.ReferenceWeek)
	}
}

func TestMondayOf(t *testing.T) {
	for _, d := range []string{"2025-08-04", "2025-08-06", "2025-08-10"} {
		if got := clock.DateKey(MondayOf(day(d))); got != "2025-08-04" {
			t.Errorf("MondayOf(%s) = %s, want 2025-08-04", d, got)
		}
	}
}

func testCycles() *Cycles {
	return NewCycles([]menu.Cycle{
		{Name: "Fall 2025", StartDate: day("2025-08-01"), EndDate: day("2025-12-05")},
		{Name: "Summer 2025", StartDate: day("2025-05-01"), EndDate: day("2025-07-15")},
		{Name: "Spring 2026", StartDate: day("2026-01-05"), EndDate: day("2026-05-01")},
	})
}

func TestForDate(t *testing.T) {
	cycles := testCycles()
	tests := []struct {
		date string
		want string
		ok   bool
	}{
		{"2025-04-30", "", false},
		{"2025-05-01", "Summer 2025", true},
		{"2025-07-20", "Summer 2025", true}, // gap keeps the last started cycle
		{"2025-08-01", "Fall 2025", true},
		{"2026-06-01", "Spring 2026", true},
	}
	for _, tt := range tests {
		got, ok := cycles.ForDate(day(tt.date))
		if ok != tt.ok || got.Name != tt.want {
			t.Errorf("ForDate(%s) = %q/%v, want %q/%v", tt.date, got.Name, ok, tt.want, tt.ok)
		}
	}
}

func TestNeighboring(t *testing.T) {
	cycles := testCycles()
	name := func(c *menu.Cycle) string {
		if c == nil {
			return ""
		}
		return c.Name
	}

	tests := []struct {
		now                 string
		prev, current, next string
	}{
		{"2025-09-10", "Summer 2025", "Fall 2025", "Spring 2026"},
		{"2025-12-05", "Summer 2025", "Fall 2025", "Spring 2026"},
		{"2025-12-20", "Fall 2025", "Spring 2026", ""},
		{"2025-04-01", "", "Summer 2025", "Fall 2025"},
		{"2026-08-01", "Fall 2025", "Spring 2026", ""},
	}
	for _, tt := range tests {
		n := cycles.Neighboring(day(tt.now).Add(15 * time.Hour))
		if name(n.Previous) != tt.prev || name(n.Current) != tt.current || name(n.Next) != tt.next {
			t.Errorf("Neighboring(%s) = %s/%s/%s, want %s/%s/%s", tt.now,
				name(n.Previous), name(n.Current), name(n.Next), tt.prev, tt.current, tt.next)
		}
	}

	empty := NewCycles(nil).Neighboring(day("2025-01-01"))
	if empty.Current != nil || empty.Previous != nil || empty.Next != nil {
		t.Error("Expected no neighbours without cycles")
	}
}

func TestDateRange(t *testing.T) {
	min, max, ok := testCycles().DateRange()
	if !ok || clock.DateKey(min) != "2025-05-01" || clock.DateKey(max) != "2026-05-01" {
		t.Errorf("Unexpected range %s..%s (%v)", clock.DateKey(min), clock.DateKey(max), ok)
	}
	if _, _, ok := NewCycles(nil).DateRange(); ok {
		t.Error("Expected no range without cycles")
	}
}

func TestByName(t *testing.T) {
	if c, ok := testCycles().ByName("Fall 2025"); !ok || clock.DateKey(c.StartDate) != "2025-08-01" {
		t.Errorf("Unexpected cycle %+v", c)
	}
	if _, ok := testCycles().ByName("Winter"); ok {
		t.Error("Expected unknown cycle lookup to fail")
	}
}
