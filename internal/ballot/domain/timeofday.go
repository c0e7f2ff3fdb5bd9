package domain

import (
	"errors"
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time within a day, in seconds since midnight.
// Session windows are configured at minute resolution, but keeping seconds
// lets the clock gate compare the current instant exactly.
type TimeOfDay int

var ErrInvalidTimeOfDay = errors.New("invalid time of day")

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m, sec int
	switch n, _ := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); n {
	case 2, 3:
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return TimeOfDay(h*3600 + m*60 + sec), nil
}

// MustTimeOfDay parses or panics. Useful for hard-coded times in tests.
func MustTimeOfDay(s string) TimeOfDay {
	tod, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return tod
}

// TimeOfDayOf extracts the wall-clock time of t, in t's location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", int(t)/3600, int(t)%3600/60, int(t)%60)
}
