package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/KakashiUchiha12/studyHi-sub002/models"
	"github.com/KakashiUchiha12/studyHi-sub002/services"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// FolderRepository is the mongo-backed services.FolderStore.
type FolderRepository struct {
	collection *mongo.Collection
}

func NewFolderRepository(db *mongo.Database, collection string) *FolderRepository {
	return &FolderRepository{collection: db.Collection(collection)}
}

func parentFilter(parentID *primitive.ObjectID) interface{} {
	if parentID == nil {
		return bson.M{"$exists": false}
	}
	return *parentID
}

func (r *FolderRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Folder, error) {
	var folder models.Folder
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&folder)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get folder: %v", err)
	}
	return &folder, nil
}

func (r *FolderRepository) FindChild(ctx context.Context, driveID primitive.ObjectID, parentID *primitive.ObjectID, name string) (*models.Folder, error) {
	filter := bson.M{
		"drive_id":   driveID,
		"parent_id":  parentFilter(parentID),
		"name":       name,
		"deleted_at": bson.M{"$exists": false},
	}
	var folder models.Folder
	err := r.collection.FindOne(ctx, filter).Decode(&folder)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find folder: %v", err)
	}
	return &folder, nil
}

func (r *FolderRepository) FindBySyncRef(ctx context.Context, driveID, refID primitive.ObjectID) (*models.Folder, error) {
	var folder models.Folder
	err := r.collection.FindOne(ctx, bson.M{"drive_id": driveID, "sync_ref": refID}).Decode(&folder)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find folder: %v", err)
	}
	return &folder, nil
}

func (r *FolderRepository) Insert(ctx context.Context, folder *models.Folder) error {
	if _, err := r.collection.InsertOne(ctx, folder); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return services.ErrDuplicateName
		}
		return fmt.Errorf("failed to insert folder: %v", err)
	}
	return nil
}

func (r *FolderRepository) ListChildren(ctx context.Context, driveID primitive.ObjectID, parentID *primitive.ObjectID, includeTrashed bool) ([]models.Folder, error) {
	filter := bson.M{"drive_id": driveID, "parent_id": parentFilter(parentID)}
	if !includeTrashed {
		filter["deleted_at"] = bson.M{"$exists": false}
	}
	return r.list(ctx, filter)
}

func (r *FolderRepository) ListByPathPrefix(ctx context.Context, driveID primitive.ObjectID, prefix string) ([]models.Folder, error) {
	filter := bson.M{
		"drive_id": driveID,
		"path":     bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)},
	}
	return r.list(ctx, filter)
}

func (r *FolderRepository) SetName(ctx context.Context, id primitive.ObjectID, name, path string) error {
	return r.update(ctx, id, bson.M{"name": name, "path": path})
}

func (r *FolderRepository) SetParent(ctx context.Context, id primitive.ObjectID, parentID *primitive.ObjectID, path string) error {
	if parentID == nil {
		_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
			"$set":   bson.M{"path": path, "updated_at": time.Now()},
			"$unset": bson.M{"parent_id": ""},
		})
		if err != nil {
			return fmt.Errorf("failed to update folder: %v", err)
		}
		return nil
	}
	return r.update(ctx, id, bson.M{"parent_id": *parentID, "path": path})
}

func (r *FolderRepository) SetPath(ctx context.Context, id primitive.ObjectID, path string) error {
	return r.update(ctx, id, bson.M{"path": path})
}

func (r *FolderRepository) SetDeleted(ctx context.Context, id primitive.ObjectID, deletedAt *time.Time) error {
	if deletedAt == nil {
		_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
			"$set":   bson.M{"updated_at": time.Now()},
			"$unset": bson.M{"deleted_at": ""},
		})
		if err != nil {
			return fmt.Errorf("failed to update folder: %v", err)
		}
		return nil
	}
	return r.update(ctx, id, bson.M{"deleted_at": *deletedAt})
}

func (r *FolderRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete folder: %v", err)
	}
	return nil
}

func (r *FolderRepository) ListTrashed(ctx context.Context, driveID primitive.ObjectID) ([]models.Folder, error) {
	return r.list(ctx, bson.M{"drive_id": driveID, "deleted_at": bson.M{"$exists": true}})
}

func (r *FolderRepository) ListTrashedBefore(ctx context.Context, cutoff time.Time) ([]models.Folder, error) {
	return r.list(ctx, bson.M{"deleted_at": bson.M{"$lte": cutoff}})
}

func (r *FolderRepository) CountByDrive(ctx context.Context, driveID primitive.ObjectID) (int, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"drive_id":   driveID,
		"deleted_at": bson.M{"$exists": false},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count folders: %v", err)
	}
	return int(count), nil
}

func (r *FolderRepository) list(ctx context.Context, filter bson.M) ([]models.Folder, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %v", err)
	}
	defer cursor.Close(ctx)

	var folders []models.Folder
	if err := cursor.All(ctx, &folders); err != nil {
		return nil, fmt.Errorf("failed to decode folders: %v", err)
	}
	return folders, nil
}

func (r *FolderRepository) update(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now()
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update folder: %v", err)
	}
	if result.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}
