package services

import (
	"context"
	"fmt"

	"github.com/KakashiUchiha12/studyHi-sub002/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultActivityLimit = 50

// ActivityService exposes the append-only audit trail. Entries are only
// ever inserted; there is no update or delete path.
type ActivityService struct {
	activity ActivityStore
	clock    Clock
}

func NewActivityService(activity ActivityStore, clock Clock) *ActivityService {
	return &ActivityService{activity: activity, clock: clock}
}

// Record appends one entry. Callers on mutation paths treat a failure
// here as non-fatal; the mutation itself has already happened.
func (as *ActivityService) Record(ctx context.Context, driveID, actorID primitive.ObjectID, action, targetType string, targetID primitive.ObjectID, targetName string, metadata map[string]interface{}) error {
	entry := &models.Activity{
		ID:         primitive.NewObjectID(),
		DriveID:    driveID,
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		TargetName: targetName,
		Metadata:   metadata,
		CreatedAt:  as.clock.Now(),
	}
	if err := as.activity.Insert(ctx, entry); err != nil {
		return fmt.Errorf("failed to record activity: %v", err)
	}
	return nil
}

// Recent returns the newest entries for a drive, most recent first.
func (as *ActivityService) Recent(ctx context.Context, driveID primitive.ObjectID, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	entries, err := as.activity.ListByDrive(ctx, driveID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %v", err)
	}
	return entries, nil
}
