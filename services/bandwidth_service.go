package services

import (
	"context"
	"fmt"
	"time"

	"github.com/KakashiUchiha12/studyHi-sub002/models"
	"github.com/KakashiUchiha12/studyHi-sub002/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// consumeRetries bounds the CAS loop when concurrent downloads race over
// the same reset window.
const consumeRetries = 3

// BandwidthDecision is the outcome of a throttle check. When denied,
// ResetAt tells the caller when the window rolls over.
type BandwidthDecision struct {
	Allowed bool
	ResetAt time.Time
}

// BandwidthService gates egress through each drive's daily byte budget.
// The window resets at a fixed schedule (next UTC midnight), evaluated
// lazily on the next consume rather than by a timer.
type BandwidthService struct {
	drives DriveStore
	clock  Clock
}

func NewBandwidthService(drives DriveStore, clock Clock) *BandwidthService {
	return &BandwidthService{drives: drives, clock: clock}
}

// TryConsume records bytes of egress against the drive, rolling the window
// first when the reset instant has passed. The check-and-increment itself
// happens atomically at the store so two concurrent downloads cannot both
// squeeze past the limit.
func (bs *BandwidthService) TryConsume(ctx context.Context, driveID primitive.ObjectID, bytes int64) (*BandwidthDecision, error) {
	for attempt := 0; attempt < consumeRetries; attempt++ {
		drive, err := bs.drives.GetByID(ctx, driveID)
		if err != nil {
			return nil, fmt.Errorf("%w: drive %s", ErrNotFound, driveID.Hex())
		}

		now := bs.clock.Now()

		if utils.IsPastReset(drive.BandwidthResetAt, now) {
			next := utils.NextResetTime(now)
			swapped, err := bs.drives.ResetBandwidth(ctx, driveID, drive.BandwidthResetAt, bytes, next)
			if err != nil {
				return nil, fmt.Errorf("failed to reset bandwidth window: %v", err)
			}
			if swapped {
				return &BandwidthDecision{Allowed: true, ResetAt: next}, nil
			}
			// Someone else rolled the window first; re-read and go again.
			continue
		}

		if utils.WouldExceed(drive.BandwidthUsed, drive.BandwidthLimit, bytes) {
			return &BandwidthDecision{Allowed: false, ResetAt: drive.BandwidthResetAt}, nil
		}

		ok, err := bs.drives.ConsumeBandwidth(ctx, driveID, bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to consume bandwidth: %v", err)
		}
		if ok {
			return &BandwidthDecision{Allowed: true, ResetAt: drive.BandwidthResetAt}, nil
		}
		// Conditional increment refused: a concurrent consumer moved the
		// counter. Re-read for an accurate denial or another attempt.
	}

	drive, err := bs.drives.GetByID(ctx, driveID)
	if err != nil {
		return nil, fmt.Errorf("%w: drive %s", ErrNotFound, driveID.Hex())
	}
	return &BandwidthDecision{Allowed: false, ResetAt: drive.BandwidthResetAt}, nil
}

// Status reports the current window without consuming anything.
func (bs *BandwidthService) Status(ctx context.Context, driveID primitive.ObjectID) (*models.Drive, utils.Countdown, error) {
	drive, err := bs.drives.GetByID(ctx, driveID)
	if err != nil {
		return nil, utils.Countdown{}, fmt.Errorf("%w: drive %s", ErrNotFound, driveID.Hex())
	}
	now := bs.clock.Now()
	if utils.IsPastReset(drive.BandwidthResetAt, now) {
		drive.BandwidthUsed = 0
		drive.BandwidthResetAt = utils.NextResetTime(now)
	}
	return drive, utils.TimeUntilReset(drive.BandwidthResetAt, now), nil
}
