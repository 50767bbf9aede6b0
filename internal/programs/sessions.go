// Package programs expands recurring programs into concrete sessions and
// publishes them as calendar feeds.
package programs

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/Nixie-Tech-LLC/attendance/internal/model"
	"github.com/Nixie-Tech-LLC/attendance/internal/timefmt"
)

// MaxSessions caps a single expansion.
const MaxSessions = 500

var (
	ErrInvalidStartTime  = errors.New("program start time must be HH:mm")
	ErrInvalidRecurrence = errors.New("invalid program recurrence")
	ErrInvalidRange      = errors.New("session range end is before start")
)

// Validate checks the fields Sessions depends on.
func Validate(p model.Program) error {
	if _, err := timefmt.ParseClock(p.StartTime); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidStartTime, p.StartTime)
	}
	if p.DurationMinutes <= 0 {
		return errors.New("program duration must be positive")
	}
	if p.Recurrence != "" {
		if _, err := parseRecurrence(p.Recurrence); err != nil {
			return err
		}
	}
	return nil
}

// parseRecurrence accepts daily or coarser rules; programs meet at most
// once per day.
func parseRecurrence(text string) (*rrule.RRule, error) {
	r, err := rrule.StrToRRule(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecurrence, err)
	}
	if r.OrigOptions.Freq > rrule.DAILY {
		return nil, fmt.Errorf("%w: %s repeats more often than daily", ErrInvalidRecurrence, r.OrigOptions.Freq)
	}
	return r, nil
}

// Sessions lists the sessions of p starting within [from, to], in loc.
// Programs without a recurrence have exactly one session on FirstSession.
func Sessions(p model.Program, from, to time.Time, loc *time.Location) ([]model.ProgramSession, error) {
	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	if loc == nil {
		loc = time.UTC
	}

	clock, err := timefmt.ParseClock(p.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStartTime, p.StartTime)
	}
	first := time.Date(
		p.FirstSession.Year(), p.FirstSession.Month(), p.FirstSession.Day(),
		clock.Hour, clock.Minute, 0, 0, loc,
	)
	duration := time.Duration(p.DurationMinutes) * time.Minute

	var starts []time.Time
	if p.Recurrence == "" {
		if !first.Before(from) && !first.After(to) {
			starts = append(starts, first)
		}
	} else {
		r, err := parseRecurrence(p.Recurrence)
		if err != nil {
			return nil, err
		}
		r.DTStart(first)
		next := r.Iterator()
		for len(starts) < MaxSessions {
			start, ok := next()
			if !ok || start.After(to) {
				break
			}
			if !start.Before(from) {
				starts = append(starts, start)
			}
		}
	}

	sessions := make([]model.ProgramSession, 0, len(starts))
	for _, start := range starts {
		start = start.In(loc)
		sessions = append(sessions, model.ProgramSession{
			ProgramID:    p.ID,
			Start:        start,
			End:          start.Add(duration),
			StartDisplay: timefmt.ClockOf(start).Format12h(),
		})
	}
	return sessions, nil
}
