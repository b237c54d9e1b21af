package utils

import (
	"testing"
	"time"
)

func TestIsPurgeEligible(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	// Exactly 30 days is eligible (inclusive boundary).
	if !IsPurgeEligible(now.Add(-TrashRetention), now) {
		t.Error("item deleted exactly 30 days ago should be purge-eligible")
	}

	// One second short of 30 days is not.
	if IsPurgeEligible(now.Add(-TrashRetention+time.Second), now) {
		t.Error("item deleted 29d23h59m59s ago should not be purge-eligible")
	}

	if IsPurgeEligible(now.Add(-time.Hour), now) {
		t.Error("freshly trashed item should not be purge-eligible")
	}
}

func TestPurgeDeadline(t *testing.T) {
	t.Parallel()

	deletedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	want := deletedAt.Add(30 * 24 * time.Hour)
	if got := PurgeDeadline(deletedAt); !got.Equal(want) {
		t.Errorf("PurgeDeadline = %v, want %v", got, want)
	}
}
