package clock

import (
	"testing"
	"time"
)

func TestDateKey(t *testing.T) {
	// 00:10 IST on the 15th is still the 14th in UTC.
	at := time.Date(2025, 8, 15, 0, 10, 0, 0, IST)
	if got := DateKey(at); got != "2025-08-15" {
		t.Errorf("Expected '2025-08-15', got '%s'", got)
	}
	if got := DateKey(at.UTC()); got != "2025-08-14" {
		t.Errorf("Expected UTC view '2025-08-14', got '%s'", got)
	}
}

func TestParseDateKey(t *testing.T) {
	got, err := ParseDateKey("2025-07-28")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got.Location() != IST || got.Hour() != 0 || got.Weekday() != time.Monday {
		t.Errorf("Expected Monday midnight IST, got %v", got)
	}

	for _, bad := range []string{"", "2025-13-01", "28/07/2025", "2025-7-1"} {
		if _, err := ParseDateKey(bad); err == nil {
			t.Errorf("Expected an error for %q, got nil", bad)
		}
	}
}

func TestSystemNowIsIST(t *testing.T) {
	now := System{}.Now()
	if _, offset := now.Zone(); offset != 19800 {
		t.Errorf("Expected offset 19800, got %d", offset)
	}
}

func TestFromEnv(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		c, err := FromEnv("")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if _, ok := c.(System); !ok {
			t.Errorf("Expected System clock, got %T", c)
		}
	})

	t.Run("DateKey", func(t *testing.T) {
		c, err := FromEnv("2025-08-15")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if got := DateKey(c.Now()); got != "2025-08-15" {
			t.Errorf("Expected '2025-08-15', got '%s'", got)
		}
	})

	t.Run("RFC3339", func(t *testing.T) {
		c, err := FromEnv("2025-08-14T20:00:00Z")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		now := c.Now()
		if DateKey(now) != "2025-08-15" || now.Hour() != 1 || now.Minute() != 30 {
			t.Errorf("Expected 2025-08-15 01:30 IST, got %v", now)
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		if _, err := FromEnv("yesterday"); err == nil {
			t.Fatal("Expected an error, got nil")
		}
	})
}

func TestDaysBetween(t *testing.T) {
	ref := MustParseDateKey("2025-07-28")
	tests := []struct {
		date string
		want int
	}{
		{"2025-07-28", 0},
		{"2025-08-04", 7},
		{"2025-07-21", -7},
		{"2025-07-27", -1},
		{"2026-07-28", 365},
		{"2025-08-25", 28},
	}
	for _, tt := range tests {
		if got := DaysBetween(ref, MustParseDateKey(tt.date)); got != tt.want {
			t.Errorf("DaysBetween(%s) = %d, want %d", tt.date, got, tt.want)
		}
	}

	// Spans beyond time.Duration's ~292 years stay exact.
	for _, from := range []string{"2400-01-03", "1600-01-03", "9999-01-01"} {
		d := MustParseDateKey(from)
		if got := DaysBetween(d, d.AddDate(0, 0, 28)); got != 28 {
			t.Errorf("DaysBetween across 28 days from %s = %d", from, got)
		}
		if got := DaysBetween(ref, d.AddDate(0, 0, 28)) - DaysBetween(ref, d); got != 28 {
			t.Errorf("Expected counts from the reference to differ by 28 at %s, got %d", from, got)
		}
	}

	late := time.Date(2025, 7, 29, 23, 59, 0, 0, IST)
	if got := DaysBetween(ref, late); got != 1 {
		t.Errorf("Expected time of day to be ignored, got %d", got)
	}
}

func TestOnOrBeforeAndBounds(t *testing.T) {
	a := time.Date(2025, 7, 1, 23, 0, 0, 0, IST)
	b := time.Date(2025, 7, 1, 1, 0, 0, 0, IST)
	if !OnOrBefore(a, b) {
		t.Error("Expected same-day instants to compare on-or-before")
	}
	if OnOrBefore(a.AddDate(0, 0, 1), b) {
		t.Error("Expected the next day not to be on-or-before")
	}
	if !Midnight(a).Equal(time.Date(2025, 7, 1, 0, 0, 0, 0, IST)) {
		t.Errorf("Unexpected midnight %v", Midnight(a))
	}
	if DateKey(EndOfDay(a)) != "2025-07-01" || EndOfDay(a).Hour() != 23 {
		t.Errorf("Unexpected end of day %v", EndOfDay(a))
	}
}
