package clock

import (
	"fmt"
	"time"
)

func Now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}

// Day returns the calendar date key for a moment in the given location,
// formatted as 2006-01-02. Check-in markers and daily counters are keyed
// by this value, so the location must stay fixed for the lifetime of the
// deployment.
func Day(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// Duration duration between two times represented as strings
func Duration(from, to string) (time.Duration, error) {
	fromTime, err := time.Parse("2006-01-02T15:04:05Z", from)
	if err != nil {
		return 0, fmt.Errorf("from is not a valid time: %s", from)
	}
	toTime, err := time.Parse("2006-01-02T15:04:05Z", to)
	if err != nil {
		return 0, fmt.Errorf("to is not a valid time: %s", to)
	}
	return toTime.Sub(fromTime), nil
}
