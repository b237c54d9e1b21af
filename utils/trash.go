package utils

import "time"

// TrashRetention is how long a trashed item survives before it becomes
// eligible for permanent purge.
const TrashRetention = 30 * 24 * time.Hour

// IsPurgeEligible reports whether a trashed item may be permanently purged.
// Exactly at the retention boundary counts as eligible.
func IsPurgeEligible(deletedAt, now time.Time) bool {
	return now.Sub(deletedAt) >= TrashRetention
}

// PurgeDeadline is the instant a trashed item becomes purge-eligible.
func PurgeDeadline(deletedAt time.Time) time.Time {
	return deletedAt.Add(TrashRetention)
}
