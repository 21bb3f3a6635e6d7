package jobs

import (
	"fmt"
	"time"
)

// Clock is a daily local time of day.
type Clock struct {
	Hour   int
	Minute int
}

func ParseClock(value string) (Clock, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid schedule %q, expected HH:MM", value)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// NextRun returns the first occurrence of the clock strictly after the given instant.
func (c Clock) NextRun(after time.Time, loc *time.Location) time.Time {
	local := after.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), c.Hour, c.Minute, 0, 0, loc)
	if !candidate.After(after) {
		candidate = time.Date(local.Year(), local.Month(), local.Day()+1, c.Hour, c.Minute, 0, 0, loc)
	}
	return candidate
}

func (j *Job) NextRun(after time.Time, loc *time.Location) time.Time {
	return j.clock.NextRun(after, loc)
}
