package utils

import (
	"testing"
	"time"
)

func TestNextResetTime(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	want := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)
	if got := NextResetTime(now); !got.Equal(want) {
		t.Errorf("NextResetTime(%v) = %v, want %v", now, got, want)
	}
}

// Two calls on the same UTC day must compute the identical reset instant:
// the schedule is fixed, not "24 hours from last use".
func TestNextResetTimeSameDayDeterminism(t *testing.T) {
	t.Parallel()

	morning := time.Date(2024, 3, 15, 0, 0, 1, 0, time.UTC)
	evening := time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC)
	if !NextResetTime(morning).Equal(NextResetTime(evening)) {
		t.Errorf("same-day calls disagree: %v vs %v",
			NextResetTime(morning), NextResetTime(evening))
	}
}

// Exactly at midnight the next reset is the following midnight, strictly
// after now.
func TestNextResetTimeAtMidnight(t *testing.T) {
	t.Parallel()

	midnight := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	want := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)
	if got := NextResetTime(midnight); !got.Equal(want) {
		t.Errorf("NextResetTime(midnight) = %v, want %v", got, want)
	}
}

func TestNextResetTimeNonUTCCaller(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+5", 5*3600)
	// 02:00 +05:00 is 21:00 UTC the previous day.
	local := time.Date(2024, 3, 15, 2, 0, 0, 0, loc)
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if got := NextResetTime(local); !got.Equal(want) {
		t.Errorf("NextResetTime(%v) = %v, want %v", local, got, want)
	}
}

func TestIsPastReset(t *testing.T) {
	t.Parallel()

	resetAt := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)

	if IsPastReset(resetAt, resetAt.Add(-time.Second)) {
		t.Error("IsPastReset before the instant = true, want false")
	}
	if !IsPastReset(resetAt, resetAt) {
		t.Error("IsPastReset at the instant = false, want true")
	}
	if !IsPastReset(resetAt, resetAt.Add(time.Hour)) {
		t.Error("IsPastReset after the instant = false, want true")
	}
}

func TestTimeUntilReset(t *testing.T) {
	t.Parallel()

	resetAt := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 3, 15, 21, 14, 30, 0, time.UTC)

	got := TimeUntilReset(resetAt, now)
	want := Countdown{Hours: 2, Minutes: 45, Seconds: 30}
	if got != want {
		t.Errorf("TimeUntilReset = %+v, want %+v", got, want)
	}

	// Never negative once the reset has passed.
	got = TimeUntilReset(resetAt, resetAt.Add(5*time.Minute))
	if got != (Countdown{}) {
		t.Errorf("TimeUntilReset past reset = %+v, want zero", got)
	}
}

func TestCountdownString(t *testing.T) {
	t.Parallel()

	c := Countdown{Hours: 2, Minutes: 5, Seconds: 9}
	if got := c.String(); got != "02:05:09" {
		t.Errorf("Countdown.String() = %q, want %q", got, "02:05:09")
	}
}
