package prayer

import (
	"strings"
	"time"

	"github.com/vakitapp/vakit-agent/pkg/timeofday"
)

// DaySchedule holds the six raw "HH:MM" event times for a single calendar
// day. It is immutable after creation and replaced wholesale on refresh.
type DaySchedule struct {
	year  int
	month time.Month
	day   int
	loc   *time.Location
	times map[Event]string
}

// NextEvent is the result of a resolution scan. It is derived on every tick
// and never persisted.
type NextEvent struct {
	Event     Event
	Time      timeofday.TimeOfDay
	At        time.Time
	Remaining timeofday.Countdown
}

// defaultEvent is returned when every entry of a schedule fails to parse.
// Callers must never observe an absent next event.
var defaultEvent = struct {
	event Event
	time  timeofday.TimeOfDay
}{Ogle, timeofday.TimeOfDay{Hour: 13, Minute: 0}}

// NewDaySchedule builds a schedule for the calendar date of the given
// instant. Times are raw upstream strings keyed by canonical event; they are
// validated lazily during resolution so one malformed field cannot poison the
// whole day.
func NewDaySchedule(date time.Time, times map[Event]string) DaySchedule {
	copied := make(map[Event]string, len(times))
	for ev, v := range times {
		copied[ev] = v
	}
	return DaySchedule{
		year:  date.Year(),
		month: date.Month(),
		day:   date.Day(),
		loc:   date.Location(),
		times: copied,
	}
}

// Date returns midnight of the schedule's calendar date.
func (s DaySchedule) Date() time.Time {
	return time.Date(s.year, s.month, s.day, 0, 0, 0, 0, s.location())
}

// IsFor reports whether the schedule covers the calendar date of now. A false
// result signals date rollover and the need to refetch.
func (s DaySchedule) IsFor(now time.Time) bool {
	y, m, d := now.In(s.location()).Date()
	return y == s.year && m == s.month && d == s.day
}

// Time returns the raw time string for the event, if present.
func (s DaySchedule) Time(ev Event) (string, bool) {
	v, ok := s.times[ev]
	return v, ok
}

// Times returns a copy of the raw event time map.
func (s DaySchedule) Times() map[Event]string {
	out := make(map[Event]string, len(s.times))
	for ev, v := range s.times {
		out[ev] = v
	}
	return out
}

// Empty reports whether the schedule carries no event times at all.
func (s DaySchedule) Empty() bool {
	return len(s.times) == 0
}

func (s DaySchedule) location() *time.Location {
	if s.loc == nil {
		return time.Local
	}
	return s.loc
}

// ResolveNext scans the schedule in canonical order and returns the first
// event not yet passed today. Malformed entries are skipped. If every
// parsable event has passed, the first valid event is returned rolled over to
// tomorrow. If nothing parses at all, a fixed midday default is returned with
// a zero countdown.
func ResolveNext(s DaySchedule, now time.Time) NextEvent {
	type parsed struct {
		event Event
		tod   timeofday.TimeOfDay
	}

	var first *parsed
	for _, ev := range CanonicalOrder {
		raw, ok := s.times[ev]
		if !ok {
			continue
		}
		tod, err := timeofday.Parse(CleanTime(raw))
		if err != nil {
			continue
		}
		if first == nil {
			first = &parsed{event: ev, tod: tod}
		}

		at := tod.At(now)
		if at.After(now) {
			return NextEvent{
				Event:     ev,
				Time:      tod,
				At:        at,
				Remaining: timeofday.Remaining(at, now),
			}
		}
	}

	// All of today's events have passed; the next one is tomorrow's first.
	if first != nil {
		at := first.tod.At(now.AddDate(0, 0, 1))
		return NextEvent{
			Event:     first.event,
			Time:      first.tod,
			At:        at,
			Remaining: timeofday.Remaining(at, now),
		}
	}

	// Nothing parsed. Fall back to the documented midday default.
	return NextEvent{
		Event: defaultEvent.event,
		Time:  defaultEvent.time,
		At:    defaultEvent.time.At(now),
	}
}

// CleanTime strips annotations some providers append after the time, such as
// "17:39 (BST)" or "05:30 (+03)".
func CleanTime(raw string) string {
	s := strings.TrimSpace(raw)
	if idx := strings.IndexByte(s, ' '); idx != -1 {
		s = s[:idx]
	}
	return s
}
