package services

import (
	"errors"
	"time"
)

var (
	// ErrNotFound covers missing drives, folders, files and subjects.
	// Terminal for the specific operation, no retry.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied is returned whole-batch when the source drive
	// denies copying, and per-item when a private item needs an "allow"
	// policy the source doesn't grant.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrQuotaExceeded means the destination drive's storage limit would be
	// exceeded. User-correctable.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrBandwidthExceeded means the daily egress limit is spent until the
	// next reset.
	ErrBandwidthExceeded = errors.New("bandwidth limit exceeded")

	// ErrStoredNameTaken surfaces the stored_name unique-index violation;
	// callers re-mint and retry.
	ErrStoredNameTaken = errors.New("stored name already taken")

	// ErrCircularMove rejects moving a folder under its own subtree.
	ErrCircularMove = errors.New("cannot move a folder into its own subtree")

	// ErrDuplicateName rejects creating a folder whose (parent, name) slot
	// is already occupied.
	ErrDuplicateName = errors.New("name already exists in this location")
)

// BandwidthError is an ErrBandwidthExceeded carrying the instant the
// window rolls over, for the 429 response surface.
type BandwidthError struct {
	ResetAt time.Time
}

func (e *BandwidthError) Error() string {
	return ErrBandwidthExceeded.Error()
}

func (e *BandwidthError) Unwrap() error {
	return ErrBandwidthExceeded
}
