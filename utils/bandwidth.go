package utils

import (
	"fmt"
	"time"
)

// Countdown is a zero-floored time-until-reset breakdown.
type Countdown struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

func (c Countdown) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hours, c.Minutes, c.Seconds)
}

// NextResetTime returns the next UTC midnight strictly after now. The
// schedule is fixed, not rolling: any two calls on the same UTC day return
// the identical instant.
func NextResetTime(now time.Time) time.Time {
	u := now.UTC()
	midnight := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.Add(24 * time.Hour)
}

// IsPastReset reports whether the reset instant has been reached.
func IsPastReset(resetAt, now time.Time) bool {
	return !now.Before(resetAt)
}

// TimeUntilReset returns the countdown to resetAt, floored at zero.
func TimeUntilReset(resetAt, now time.Time) Countdown {
	d := resetAt.Sub(now)
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return Countdown{
		Hours:   secs / 3600,
		Minutes: (secs % 3600) / 60,
		Seconds: secs % 60,
	}
}
