package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the drive subsystem relies on. Two of
// them carry correctness, not just performance: the global unique index on
// files.stored_name (concurrent imports may mint colliding names; the
// index, not an application check, rejects the loser) and the unique
// (drive_id, parent_id, name) index on active folders.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)
	activeOnly := options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{
		"deleted_at": bson.M{"$exists": false},
	})

	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		DrivesCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique},
		},
		FoldersCollection: {
			{Keys: bson.D{{Key: "drive_id", Value: 1}, {Key: "parent_id", Value: 1}, {Key: "name", Value: 1}}, Options: activeOnly},
			{Keys: bson.D{{Key: "drive_id", Value: 1}, {Key: "path", Value: 1}}},
			{Keys: bson.D{{Key: "drive_id", Value: 1}, {Key: "sync_ref", Value: 1}}},
		},
		FilesCollection: {
			{Keys: bson.D{{Key: "stored_name", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "drive_id", Value: 1}, {Key: "folder_id", Value: 1}}},
			{Keys: bson.D{{Key: "drive_id", Value: 1}, {Key: "hash", Value: 1}, {Key: "size", Value: 1}}},
			{Keys: bson.D{{Key: "deleted_at", Value: 1}}},
		},
		SubjectsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "name", Value: 1}}},
		},
		ChaptersCollection: {
			{Keys: bson.D{{Key: "subject_id", Value: 1}, {Key: "order", Value: 1}}},
		},
		MaterialsCollection: {
			{Keys: bson.D{{Key: "subject_id", Value: 1}, {Key: "order", Value: 1}}},
			{Keys: bson.D{{Key: "chapter_id", Value: 1}}},
		},
		ActivitiesCollection: {
			{Keys: bson.D{{Key: "drive_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %v", name, err)
		}
	}
	return nil
}
