// Package timefmt renders stored 24-hour time-of-day text as 12-hour
// display strings.
//
// Stored values come from Postgres TIME columns read back as text, so they
// arrive as "HH:mm" or "HH:mm:ss". Anything that does not parse is shown
// to the user as-is instead of being hidden.
package timefmt

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Placeholder is shown when no time was recorded.
const Placeholder = "—"

const (
	layout24h = "15:04"
	layout12h = "3:04 PM"
)

// ErrInvalidTime is returned by ParseClock for text that is not a 24-hour time.
var ErrInvalidTime = errors.New("invalid time of day")

// Clock is a parsed wall-clock time with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:mm" or "HH:mm:ss" text. Only the first two
// colon-separated segments are considered; seconds are dropped without
// being validated.
func ParseClock(input string) (Clock, error) {
	segments := strings.Split(input, ":")
	if len(segments) > 2 {
		segments = segments[:2]
	}
	normalized := strings.Join(segments, ":")

	// time.Parse anchors the result on 0000-01-01; only the clock is kept.
	t, err := time.Parse(layout24h, normalized)
	if err != nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidTime, input)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Format12h renders c as "h:mm AM" / "h:mm PM".
func (c Clock) Format12h() string {
	return c.anchor().Format(layout12h)
}

// Format24h renders c as "HH:mm".
func (c Clock) Format24h() string {
	return c.anchor().Format(layout24h)
}

func (c Clock) anchor() time.Time {
	return time.Date(2000, time.January, 1, c.Hour, c.Minute, 0, 0, time.UTC)
}

// ClockOf returns the time of day of t in its own location.
func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute()}
}

// Format12h converts stored 24-hour text into a 12-hour display string.
//
//	""           -> "—"
//	"14:30"      -> "2:30 PM"
//	"14:30:00"   -> "2:30 PM"
//	"not-a-time" -> "not-a-time"
func Format12h(input string) string {
	if input == "" {
		return Placeholder
	}
	c, err := ParseClock(input)
	if err != nil {
		return input
	}
	return c.Format12h()
}

// Format12hPtr is Format12h for nullable columns; nil renders as Placeholder.
func Format12hPtr(input *string) string {
	if input == nil {
		return Placeholder
	}
	return Format12h(*input)
}
