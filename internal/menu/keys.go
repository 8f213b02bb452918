package menu

import (
	"fmt"
	"time"
)

// Category identifies a mess variant, e.g. "South_Veg".
type Category string

// AllCategories is the wildcard category key accepted in event rule items.
const AllCategories Category = "All_Categories"

// Week is a rotation letter.
type Week string

const (
	WeekA Week = "A"
	WeekB Week = "B"
	WeekC Week = "C"
	WeekD Week = "D"
)

// Weeks is the rotation order.
var Weeks = []Week{WeekA, WeekB, WeekC, WeekD}

// Index returns the position of w in the rotation, or -1.
func (w Week) Index() int {
	for i, candidate := range Weeks {
		if candidate == w {
			return i
		}
	}
	return -1
}

// ParseWeek validates a week letter.
func ParseWeek(s string) (Week, error) {
	w := Week(s)
	if w.Index() < 0 {
		return "", fmt.Errorf("unknown week %q", s)
	}
	return w, nil
}

// Day is a weekday name as used in schedules.
type Day string

const (
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
	Friday    Day = "Friday"
	Saturday  Day = "Saturday"
	Sunday    Day = "Sunday"
)

// Days lists weekdays Monday first, matching the week rotation boundary.
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// DayOf returns the schedule day for t.
func DayOf(t time.Time) Day {
	return Day(t.Weekday().String())
}

// ParseDay validates a day name.
func ParseDay(s string) (Day, error) {
	for _, d := range Days {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown day %q", s)
}

// MealSlot is one of the four daily services.
type MealSlot string

const (
	Breakfast MealSlot = "Breakfast"
	Lunch     MealSlot = "Lunch"
	Snacks    MealSlot = "Snacks"
	Dinner    MealSlot = "Dinner"
)

// MealSlots is the canonical serving order.
var MealSlots = []MealSlot{Breakfast, Lunch, Snacks, Dinner}

// ParseMealSlot validates a meal name.
func ParseMealSlot(s string) (MealSlot, error) {
	for _, m := range MealSlots {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown meal %q", s)
}
