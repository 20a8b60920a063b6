// Package timer has helpers for wall-clock schedules.
package timer

import (
	"fmt"
	"time"

	"github.com/infrahq/trustlist/internal/logging"
)

// TimeOfDay is a local wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// OneAM is the default time of the daily certificate refresh.
var OneAM = TimeOfDay{Hour: 1}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q, expected HH:MM", s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Set implements pflag.Value.
func (t *TimeOfDay) Set(s string) error {
	v, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Type implements pflag.Value.
func (t *TimeOfDay) Type() string {
	return "time-of-day"
}

// On returns the instant of t on the calendar day of day, in the location of
// day.
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, day.Location())
}

// NextAfter returns the first occurrence of at strictly after now, in the
// location of now. When now is exactly at, the result is one day later.
func NextAfter(now time.Time, at TimeOfDay) time.Time {
	next := at.On(now)
	if !next.After(now) {
		y, m, d := now.Date()
		next = at.On(time.Date(y, m, d+1, 12, 0, 0, 0, now.Location()))
	}
	return next
}

// LogTimeElapsed logs the amount of time since this function was defered at the debug level
func LogTimeElapsed(start time.Time, task string) {
	elapsed := time.Since(start)
	logging.Debugf("%s in %s", task, elapsed)
}
