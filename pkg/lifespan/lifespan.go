// ABOUTME: Standing query life spans: start/stop events and update frequency
// ABOUTME: Resolves absolute, relative and calendar day events into concrete instants

package lifespan

import (
	"time"

	"github.com/aptible/supercronic/cronexpr"
	"github.com/rs/zerolog"
)

// EventKind discriminates the Event union
type EventKind string

const (
	AbsoluteTime EventKind = "ABSOLUTE_TIME"
	RelativeTime EventKind = "RELATIVE_TIME"
	DayEventTime EventKind = "DAY_EVENT_TIME"
	NamedEvent   EventKind = "NAMED_EVENT"
)

// DayEvent is a recurring calendar day
type DayEvent string

const (
	FirstOfMonth DayEvent = "FIRST_OF_MONTH"
	EndOfMonth   DayEvent = "END_OF_MONTH"
	Monday       DayEvent = "MON"
	Tuesday      DayEvent = "TUE"
	Wednesday    DayEvent = "WED"
	Thursday     DayEvent = "THU"
	Friday       DayEvent = "FRI"
	Saturday     DayEvent = "SAT"
	Sunday       DayEvent = "SUN"
)

// Month events resolve within the current month, weekdays to the next or same day.
var dayEventSchedules = map[DayEvent]*cronexpr.Expression{
	FirstOfMonth: cronexpr.MustParse("0 0 1 * *"),
	EndOfMonth:   cronexpr.MustParse("0 0 L * *"),
	Sunday:       cronexpr.MustParse("0 0 * * 0"),
	Monday:       cronexpr.MustParse("0 0 * * 1"),
	Tuesday:      cronexpr.MustParse("0 0 * * 2"),
	Wednesday:    cronexpr.MustParse("0 0 * * 3"),
	Thursday:     cronexpr.MustParse("0 0 * * 4"),
	Friday:       cronexpr.MustParse("0 0 * * 5"),
	Saturday:     cronexpr.MustParse("0 0 * * 6"),
}

// Event is one life-span event
type Event struct {
	Kind EventKind `json:"kind" yaml:"kind"`
	// At is the instant of an absolute event
	At time.Time `json:"at,omitzero" yaml:"at,omitempty"`
	// Offset is the delay of a relative event, or the period of a frequency event
	Offset time.Duration `json:"offset,omitempty" yaml:"offset,omitempty"`
	Day    DayEvent      `json:"day,omitempty" yaml:"day,omitempty"`
	// TimeOfDay is added to the resolved day of a day event
	TimeOfDay time.Duration `json:"time_of_day,omitempty" yaml:"time_of_day,omitempty"`
	Name      string        `json:"name,omitempty" yaml:"name,omitempty"`
}

// Absolute creates an event at t
func Absolute(t time.Time) *Event { return &Event{Kind: AbsoluteTime, At: t} }

// Relative creates an event d after resolution time
func Relative(d time.Duration) *Event { return &Event{Kind: RelativeTime, Offset: d} }

// Day creates a calendar day event
func Day(day DayEvent, timeOfDay time.Duration) *Event {
	return &Event{Kind: DayEventTime, Day: day, TimeOfDay: timeOfDay}
}

// Named creates an external named event
func Named(name string) *Event { return &Event{Kind: NamedEvent, Name: name} }

// Resolve converts the event to an instant relative to now.
// Named events and malformed day events resolve to false.
func (e *Event) Resolve(now time.Time) (time.Time, bool) {
	if e == nil {
		return time.Time{}, false
	}
	switch e.Kind {
	case AbsoluteTime:
		if e.At.IsZero() {
			return time.Time{}, false
		}
		return e.At.UTC(), true
	case RelativeTime:
		return now.Add(e.Offset).UTC(), true
	case DayEventTime:
		schedule, ok := dayEventSchedules[e.Day]
		if !ok {
			return time.Time{}, false
		}
		now = now.UTC()
		from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if e.Day == FirstOfMonth || e.Day == EndOfMonth {
			from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		}
		day := schedule.Next(from.Add(-time.Second))
		if day.IsZero() {
			return time.Time{}, false
		}
		return day.Add(e.TimeOfDay), true
	default:
		return time.Time{}, false
	}
}

// LifeSpan bounds a standing query
type LifeSpan struct {
	Start     *Event  `json:"start,omitempty" yaml:"start,omitempty"`
	Stop      *Event  `json:"stop,omitempty" yaml:"stop,omitempty"`
	Frequency []Event `json:"frequency,omitempty" yaml:"frequency,omitempty"`
}

// Window is a resolved life span. Zero bounds are open.
type Window struct {
	Start time.Time
	Stop  time.Time
}

// Started reports whether t is at or after the start bound
func (w Window) Started(t time.Time) bool {
	return w.Start.IsZero() || !t.Before(w.Start)
}

// Expired reports whether t is past the stop bound
func (w Window) Expired(t time.Time) bool {
	return !w.Stop.IsZero() && t.After(w.Stop)
}

// Resolve fixes the start and stop instants at now. Events that cannot be resolved are logged and leave the bound open.
func (s LifeSpan) Resolve(now time.Time, log zerolog.Logger) Window {
	var w Window
	if t, ok := s.Start.Resolve(now); ok {
		w.Start = t
	} else if s.Start != nil {
		log.Warn().Str("kind", string(s.Start.Kind)).Str("name", s.Start.Name).Msg("Unsupported life span start ignored")
	}
	if t, ok := s.Stop.Resolve(now); ok {
		w.Stop = t
	} else if s.Stop != nil {
		log.Warn().Str("kind", string(s.Stop.Kind)).Str("name", s.Stop.Name).Msg("Unsupported life span stop ignored")
	}
	return w
}

// Interval returns the period of the first relative frequency event
func (s LifeSpan) Interval() (time.Duration, bool) {
	for _, e := range s.Frequency {
		if e.Kind == RelativeTime && e.Offset > 0 {
			return e.Offset, true
		}
	}
	return 0, false
}
