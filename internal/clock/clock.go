package clock

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the layout of every date key in the dataset.
const DateLayout = "2006-01-02"

// IST is the fixed +05:30 zone all menu dates are evaluated in, regardless
// of where the host runs.
var IST = time.FixedZone("IST", 5*60*60+30*60)

// Clock supplies the current instant to date-dependent code.
type Clock interface {
	Now() time.Time
}

// System is the wall clock, normalized to IST.
type System struct{}

// Now returns the current instant in IST.
func (System) Now() time.Time {
	return time.Now().In(IST)
}

// Fixed always reports the same instant. Used by tests and by the
// DIGIMESS_FAKE_NOW override.
type Fixed struct {
	At time.Time
}

// Now returns the fixed instant in IST.
func (f Fixed) Now() time.Time {
	return f.At.In(IST)
}

// FromEnv returns a Fixed clock when fakeNow is set, System otherwise.
// fakeNow accepts RFC3339 or a bare date key.
func FromEnv(fakeNow string) (Clock, error) {
	fakeNow = strings.TrimSpace(fakeNow)
	if fakeNow == "" {
		return System{}, nil
	}
	if t, err := time.Parse(time.RFC3339, fakeNow); err == nil {
		return Fixed{At: t}, nil
	}
	t, err := ParseDateKey(fakeNow)
	if err != nil {
		return nil, fmt.Errorf("invalid fake now %q: %w", fakeNow, err)
	}
	return Fixed{At: t}, nil
}

// DateKey formats t as YYYY-MM-DD from its own calendar fields. It never
// converts to UTC first, so an instant just after midnight keeps its day.
func DateKey(t time.Time) string {
	y, m, d := t.Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

// ParseDateKey parses a YYYY-MM-DD key to midnight IST.
func ParseDateKey(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), IST)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// MustParseDateKey is ParseDateKey for literals known to be valid.
func MustParseDateKey(s string) time.Time {
	t, err := ParseDateKey(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Midnight returns the start of t's calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last nanosecond of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return Midnight(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// OnOrBefore reports whether a's calendar day is not after b's.
func OnOrBefore(a, b time.Time) bool {
	return DateKey(a) <= DateKey(b)
}

// DaysBetween returns the number of whole calendar days from a to b,
// negative when b precedes a. It works from Unix seconds, so the count
// stays exact for any year.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int((ub.Unix() - ua.Unix()) / 86400)
}
