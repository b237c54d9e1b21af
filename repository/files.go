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

// FileRepository is the mongo-backed services.FileStore. The stored_name
// unique index does the real work on Insert: a duplicate-key error comes
// back as ErrStoredNameTaken for the caller's re-mint loop.
type FileRepository struct {
	collection *mongo.Collection
}

func NewFileRepository(db *mongo.Database, collection string) *FileRepository {
	return &FileRepository{collection: db.Collection(collection)}
}

func folderFilter(folderID *primitive.ObjectID) interface{} {
	if folderID == nil {
		return bson.M{"$exists": false}
	}
	return *folderID
}

func (r *FileRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.File, error) {
	var file models.File
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&file)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %v", err)
	}
	return &file, nil
}

func (r *FileRepository) ListByFolder(ctx context.Context, driveID primitive.ObjectID, folderID *primitive.ObjectID, includeTrashed bool) ([]models.File, error) {
	filter := bson.M{"drive_id": driveID, "folder_id": folderFilter(folderID)}
	if !includeTrashed {
		filter["deleted_at"] = bson.M{"$exists": false}
	}
	return r.list(ctx, filter)
}

func (r *FileRepository) FindByStoredName(ctx context.Context, driveID primitive.ObjectID, storedName string) (*models.File, error) {
	return r.findOne(ctx, bson.M{
		"drive_id":    driveID,
		"stored_name": storedName,
		"deleted_at":  bson.M{"$exists": false},
	})
}

func (r *FileRepository) FindByName(ctx context.Context, driveID primitive.ObjectID, folderID *primitive.ObjectID, originalName string) (*models.File, error) {
	return r.findOne(ctx, bson.M{
		"drive_id":      driveID,
		"folder_id":     folderFilter(folderID),
		"original_name": originalName,
		"deleted_at":    bson.M{"$exists": false},
	})
}

func (r *FileRepository) FindByOriginalName(ctx context.Context, driveID primitive.ObjectID, originalName string) (*models.File, error) {
	return r.findOne(ctx, bson.M{
		"drive_id":      driveID,
		"original_name": originalName,
		"deleted_at":    bson.M{"$exists": false},
	})
}

func (r *FileRepository) FindByHash(ctx context.Context, driveID primitive.ObjectID, hash string, size int64) (*models.File, error) {
	return r.findOne(ctx, bson.M{
		"drive_id":   driveID,
		"hash":       hash,
		"size":       size,
		"deleted_at": bson.M{"$exists": false},
	})
}

func (r *FileRepository) Insert(ctx context.Context, file *models.File) error {
	if _, err := r.collection.InsertOne(ctx, file); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return services.ErrStoredNameTaken
		}
		return fmt.Errorf("failed to insert file: %v", err)
	}
	return nil
}

func (r *FileRepository) SetFolder(ctx context.Context, id primitive.ObjectID, folderID *primitive.ObjectID) error {
	if folderID == nil {
		_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
			"$set":   bson.M{"updated_at": time.Now()},
			"$unset": bson.M{"folder_id": ""},
		})
		if err != nil {
			return fmt.Errorf("failed to update file: %v", err)
		}
		return nil
	}
	return r.update(ctx, id, bson.M{"folder_id": *folderID})
}

func (r *FileRepository) SetDeleted(ctx context.Context, id primitive.ObjectID, deletedAt *time.Time) error {
	if deletedAt == nil {
		_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
			"$set":   bson.M{"updated_at": time.Now()},
			"$unset": bson.M{"deleted_at": ""},
		})
		if err != nil {
			return fmt.Errorf("failed to update file: %v", err)
		}
		return nil
	}
	return r.update(ctx, id, bson.M{"deleted_at": *deletedAt})
}

func (r *FileRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete file: %v", err)
	}
	return nil
}

func (r *FileRepository) ListTrashed(ctx context.Context, driveID primitive.ObjectID) ([]models.File, error) {
	return r.list(ctx, bson.M{"drive_id": driveID, "deleted_at": bson.M{"$exists": true}})
}

func (r *FileRepository) ListTrashedBefore(ctx context.Context, cutoff time.Time) ([]models.File, error) {
	return r.list(ctx, bson.M{"deleted_at": bson.M{"$lte": cutoff}})
}

func (r *FileRepository) CountByDrive(ctx context.Context, driveID primitive.ObjectID) (int, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"drive_id":   driveID,
		"deleted_at": bson.M{"$exists": false},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count files: %v", err)
	}
	return int(count), nil
}

func (r *FileRepository) findOne(ctx context.Context, filter bson.M) (*models.File, error) {
	var file models.File
	err := r.collection.FindOne(ctx, filter).Decode(&file)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find file: %v", err)
	}
	return &file, nil
}

func (r *FileRepository) list(ctx context.Context, filter bson.M) ([]models.File, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %v", err)
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err := cursor.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("failed to decode files: %v", err)
	}
	return files, nil
}

func (r *FileRepository) update(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now()
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update file: %v", err)
	}
	if result.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}
