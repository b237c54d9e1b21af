package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/KakashiUchiha12/studyHi-sub002/models"
	"github.com/KakashiUchiha12/studyHi-sub002/services"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// DriveRepository is the mongo-backed services.DriveStore. All counter
// mutations go through atomic updates; nothing here reads a counter and
// writes it back.
type DriveRepository struct {
	collection *mongo.Collection
}

func NewDriveRepository(db *mongo.Database, collection string) *DriveRepository {
	return &DriveRepository{collection: db.Collection(collection)}
}

func (r *DriveRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Drive, error) {
	var drive models.Drive
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&drive)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get drive: %v", err)
	}
	return &drive, nil
}

func (r *DriveRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Drive, error) {
	var drive models.Drive
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&drive)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get drive: %v", err)
	}
	return &drive, nil
}

func (r *DriveRepository) Create(ctx context.Context, drive *models.Drive) error {
	if _, err := r.collection.InsertOne(ctx, drive); err != nil {
		return fmt.Errorf("failed to create drive: %v", err)
	}
	return nil
}

func (r *DriveRepository) SetCopyPolicy(ctx context.Context, id primitive.ObjectID, policy models.CopyPolicy) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"allow_copying": policy, "updated_at": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to update copy policy: %v", err)
	}
	if result.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}

// IncrementStorage applies the delta atomically and floors the counter at
// zero, so a double release can never leave it negative.
func (r *DriveRepository) IncrementStorage(ctx context.Context, id primitive.ObjectID, delta int64) error {
	pipeline := bson.A{bson.M{"$set": bson.M{
		"storage_used": bson.M{"$max": bson.A{int64(0), bson.M{"$add": bson.A{"$storage_used", delta}}}},
		"updated_at":   "$$NOW",
	}}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, pipeline)
	if err != nil {
		return fmt.Errorf("failed to update storage counter: %v", err)
	}
	if result.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}

// ResetBandwidth swaps in a fresh window only while the stored reset
// instant still equals prevResetAt. Two racing resets cannot both match.
func (r *DriveRepository) ResetBandwidth(ctx context.Context, id primitive.ObjectID, prevResetAt time.Time, used int64, nextResetAt time.Time) (bool, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "bandwidth_reset_at": prevResetAt},
		bson.M{"$set": bson.M{
			"bandwidth_used":     used,
			"bandwidth_reset_at": nextResetAt,
			"updated_at":         time.Now(),
		}})
	if err != nil {
		return false, fmt.Errorf("failed to reset bandwidth window: %v", err)
	}
	return result.ModifiedCount > 0, nil
}

// ConsumeBandwidth increments the used counter only when the result stays
// within the limit; the condition and the increment are one atomic update.
func (r *DriveRepository) ConsumeBandwidth(ctx context.Context, id primitive.ObjectID, bytes int64) (bool, error) {
	filter := bson.M{
		"_id": id,
		"$expr": bson.M{"$lte": bson.A{
			bson.M{"$add": bson.A{"$bandwidth_used", bytes}},
			"$bandwidth_limit",
		}},
	}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{
		"$inc": bson.M{"bandwidth_used": bytes},
		"$set": bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return false, fmt.Errorf("failed to consume bandwidth: %v", err)
	}
	return result.ModifiedCount > 0, nil
}
