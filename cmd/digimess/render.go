package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"digimess/internal/app"
	"digimess/internal/calendar"
	"digimess/internal/clock"
	"digimess/internal/mealtime"
	"digimess/internal/menu"
	"digimess/internal/metrics"
)

// plainItem marks special items with a trailing star.
func plainItem(it menu.Item) string {
	var sb strings.Builder
	for _, seg := range it.Segments() {
		sb.WriteString(seg.Text)
		if seg.Highlight {
			sb.WriteString("*")
		}
	}
	return sb.String()
}

func plainItems(items []menu.Item) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, plainItem(it))
	}
	return strings.Join(parts, ", ")
}

func stateTag(s mealtime.State) string {
	switch s {
	case mealtime.Past:
		return " (over)"
	case mealtime.Active:
		return " (now serving)"
	default:
		return ""
	}
}

func printDay(out io.Writer, view *app.DayView) {
	fmt.Fprintf(out, "%s, %s %s (week %s, %s)\n", view.CategoryLabel, view.Day, view.Date, view.Week, view.Cycle)
	if view.EventName != "" {
		if view.EventDescription != "" {
			fmt.Fprintf(out, "Event: %s: %s\n", view.EventName, view.EventDescription)
		} else {
			fmt.Fprintf(out, "Event: %s\n", view.EventName)
		}
	}
	for _, m := range view.Meals {
		fmt.Fprintf(out, "\n%s %s%s\n", m.Label, m.Timing, stateTag(m.State))
		if len(m.Items) == 0 {
			fmt.Fprintln(out, "  not served")
			continue
		}
		for _, it := range m.Items {
			fmt.Fprintf(out, "  - %s\n", plainItem(it))
		}
		if m.Common != "" {
			fmt.Fprintf(out, "  also: %s\n", m.Common)
		}
	}
}

func printWeek(out io.Writer, view *app.WeekView) {
	fmt.Fprintf(out, "%s, week %s from %s\n", view.CategoryLabel, view.Week, view.StartDate)
	if view.Source != "" {
		fmt.Fprintf(out, "Source: %s\n", view.Source)
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, d := range view.Days {
		header := fmt.Sprintf("%s %s", d.Day, d.Date)
		if d.EventName != "" {
			header += " [" + d.EventName + "]"
		}
		fmt.Fprintf(w, "\n%s\n", header)
		if d.NoData {
			fmt.Fprintln(w, "  no menu published")
			continue
		}
		for _, m := range d.Meals {
			if len(m.Items) == 0 {
				continue
			}
			fmt.Fprintf(w, "  %s\t%s\n", m.Label, plainItems(m.Items))
		}
	}
	w.Flush()

	if len(view.CommonItems) > 0 {
		fmt.Fprintln(out, "\nEvery day")
		for _, slot := range menu.MealSlots {
			if common, ok := view.CommonItems[slot]; ok {
				fmt.Fprintf(out, "  %s: %s\n", slot, common)
			}
		}
	}
}

func printCycles(out io.Writer, cycles *calendar.Cycles, now time.Time) {
	all := cycles.All()
	if len(all) == 0 {
		fmt.Fprintln(out, "No cycles configured.")
		return
	}
	current := cycles.Neighboring(now).Current
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTART\tEND\t")
	for _, c := range all {
		mark := ""
		if current != nil && current.Name == c.Name {
			mark = "current"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Name, clock.DateKey(c.StartDate), clock.DateKey(c.EndDate), mark)
	}
	w.Flush()
	if start, end, ok := cycles.DateRange(); ok {
		fmt.Fprintf(out, "Browsable: %s to %s\n", clock.DateKey(start), clock.DateKey(end))
	}
}

func printPreferences(out io.Writer, view *app.PreferencesView) {
	if view.Previous == nil && view.Current == nil && view.Next == nil {
		fmt.Fprintln(out, "No cycles configured.")
		return
	}
	for _, row := range []struct {
		title string
		cp    *app.CyclePreference
	}{
		{"Previous", view.Previous},
		{"Current", view.Current},
		{"Next", view.Next},
	} {
		if row.cp == nil {
			continue
		}
		choice := "not set"
		if row.cp.Category != "" {
			choice = row.cp.CategoryLabel
		}
		fmt.Fprintf(out, "%-8s %s: %s\n", row.title, row.cp.Cycle.Name, choice)
	}
}

func printUsageReport(out io.Writer, usage []metrics.DailyUsage) {
	if len(usage) == 0 {
		fmt.Fprintln(out, "No lookups recorded.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "DATE\tLOOKUPS\tMISSES\tAVG µs\t")
	for _, d := range usage {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t\n", d.Date, d.Lookups, d.Misses, d.AvgLatencyUs)
	}
	w.Flush()
}
