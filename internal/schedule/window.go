// Package schedule answers whether an instant falls inside a campaign's
// business-hours window and finds the next instant that does.
package schedule

import (
	"strings"
	"time"

	"github.com/unclebandit/dripline/internal/model"
)

// MaxSearch bounds how far Next looks ahead for an open slot.
const MaxSearch = 8 * 24 * time.Hour

// RetryInterval is how long a send blocked only by the window waits before
// it is looked at again.
const RetryInterval = 15 * time.Minute

// Window is the evaluated form of a model.ScheduleSpec. The zero value is
// always open.
type Window struct {
	loc     *time.Location
	start   int
	end     int
	days    [7]bool
	enabled bool
}

// FromSpec builds a Window. A spec without days or with an empty hour range
// is treated as absent. Unknown or empty timezones fall back to UTC.
func FromSpec(spec model.ScheduleSpec) Window {
	w := Window{loc: time.UTC}
	if len(spec.Days) == 0 || spec.StartHour < 0 || spec.EndHour > 24 || spec.StartHour >= spec.EndHour {
		return w
	}
	if tz := strings.TrimSpace(spec.Timezone); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			w.loc = loc
		}
	}
	for _, d := range spec.Days {
		if d >= 0 && d < 7 {
			w.days[d] = true
			w.enabled = true
		}
	}
	w.start, w.end = spec.StartHour, spec.EndHour
	return w
}

// Enabled reports whether the window restricts anything at all.
func (w Window) Enabled() bool { return w.enabled }

// Location is the timezone the window is evaluated in.
func (w Window) Location() *time.Location {
	if w.loc == nil {
		return time.UTC
	}
	return w.loc
}

// Sendable reports whether t is inside the window.
func (w Window) Sendable(t time.Time) bool {
	if !w.enabled {
		return true
	}
	local := t.In(w.Location())
	if !w.days[local.Weekday()] {
		return false
	}
	h := local.Hour()
	return h >= w.start && h < w.end
}

// Next returns the first sendable instant at or after from+delay. Outside the
// window it walks forward hour by hour, landing on the top of the hour, and
// gives up after MaxSearch by returning from+delay unchanged.
func (w Window) Next(from time.Time, delay time.Duration) time.Time {
	t := from.Add(delay)
	if w.Sendable(t) {
		return t
	}
	loc := w.Location()
	local := t.In(loc)
	for i := 0; i < int(MaxSearch/time.Hour); i++ {
		local = time.Date(local.Year(), local.Month(), local.Day(), local.Hour()+1, 0, 0, 0, loc)
		if w.Sendable(local) {
			return local
		}
	}
	return t
}

// Retry is the reschedule time for a send deferred by the window alone: a
// short fixed wait, pushed into the window if the wait still lands outside.
func (w Window) Retry(now time.Time) time.Time {
	return w.Next(now, RetryInterval)
}
