package repository

import (
	"context"
	"fmt"

	"github.com/KakashiUchiha12/studyHi-sub002/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ActivityRepository is the mongo-backed services.ActivityStore. Entries
// are append-only; there is no update or delete.
type ActivityRepository struct {
	collection *mongo.Collection
}

func NewActivityRepository(db *mongo.Database, collection string) *ActivityRepository {
	return &ActivityRepository{collection: db.Collection(collection)}
}

func (r *ActivityRepository) Insert(ctx context.Context, entry *models.Activity) error {
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert activity: %v", err)
	}
	return nil
}

func (r *ActivityRepository) ListByDrive(ctx context.Context, driveID primitive.ObjectID, limit int) ([]models.Activity, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"drive_id": driveID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %v", err)
	}
	defer cursor.Close(ctx)

	var entries []models.Activity
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode activities: %v", err)
	}
	return entries, nil
}
