// Package timeofday provides wall-clock time values without a date component
// and the derived computations the prayer schedule needs: the next occurrence
// of a time relative to an instant, and a display countdown.
package timeofday

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time of day in 24-hour form.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Countdown is a duration decomposed for display.
type Countdown struct {
	Hours   int
	Minutes int
	Seconds int
}

// Parse parses a strict "HH:MM" 24-hour string. Seconds, timezone suffixes,
// and non-numeric input are rejected.
func Parse(s string) (TimeOfDay, error) {
	if len(s) != 5 || s[2] != ':' {
		return TimeOfDay{}, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}

	hour, err := parseTwoDigits(s[0:2])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	minute, err := parseTwoDigits(s[3:5])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q: %w", s, err)
	}

	if hour > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid time %q: hour out of range", s)
	}
	if minute > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid time %q: minute out of range", s)
	}

	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// parseTwoDigits parses exactly two ASCII digits.
func parseTwoDigits(s string) (int, error) {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, fmt.Errorf("not a two-digit number: %q", s)
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), nil
}

// String returns the canonical "HH:MM" representation.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// At anchors the time of day on the given calendar date, in date's location.
func (t TimeOfDay) At(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, 0, 0, date.Location())
}

// NextOccurrence returns today's date at t if that instant is strictly after
// now, otherwise tomorrow's date at t.
func (t TimeOfDay) NextOccurrence(now time.Time) time.Time {
	today := t.At(now)
	if today.After(now) {
		return today
	}
	return t.At(now.AddDate(0, 0, 1))
}

// Remaining returns target minus now truncated to whole seconds and
// decomposed into hours, minutes and seconds. A past target yields a zero
// countdown.
func Remaining(target, now time.Time) Countdown {
	d := target.Sub(now)
	if d < 0 {
		d = 0
	}

	total := int(d / time.Second)
	return Countdown{
		Hours:   total / 3600,
		Minutes: (total % 3600) / 60,
		Seconds: total % 60,
	}
}

// Duration converts the countdown back to a time.Duration.
func (c Countdown) Duration() time.Duration {
	return time.Duration(c.Hours)*time.Hour +
		time.Duration(c.Minutes)*time.Minute +
		time.Duration(c.Seconds)*time.Second
}

// String formats the countdown as "HH:MM:SS".
func (c Countdown) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hours, c.Minutes, c.Seconds)
}
