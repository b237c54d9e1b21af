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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SubjectRepository is the mongo-backed services.SubjectStore. It spans the
// subjects, chapters and materials collections plus the file records the
// subject references.
type SubjectRepository struct {
	subjects  *mongo.Collection
	chapters  *mongo.Collection
	materials *mongo.Collection
	files     *FileRepository
}

func NewSubjectRepository(db *mongo.Database, subjects, chapters, materials string, files *FileRepository) *SubjectRepository {
	return &SubjectRepository{
		subjects:  db.Collection(subjects),
		chapters:  db.Collection(chapters),
		materials: db.Collection(materials),
		files:     files,
	}
}

func (r *SubjectRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Subject, error) {
	var subject models.Subject
	err := r.subjects.FindOne(ctx, bson.M{"_id": id}).Decode(&subject)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subject: %v", err)
	}
	return &subject, nil
}

func (r *SubjectRepository) FindByName(ctx context.Context, userID primitive.ObjectID, name string) (*models.Subject, error) {
	var subject models.Subject
	err := r.subjects.FindOne(ctx, bson.M{"user_id": userID, "name": name}).Decode(&subject)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find subject: %v", err)
	}
	return &subject, nil
}

func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if _, err := r.subjects.InsertOne(ctx, subject); err != nil {
		return fmt.Errorf("failed to create subject: %v", err)
	}
	return nil
}

// GetTree loads the full curriculum hierarchy in one pass, chapters and
// materials in their stored order.
func (r *SubjectRepository) GetTree(ctx context.Context, subjectID primitive.ObjectID) (*models.SubjectTree, error) {
	subject, err := r.GetByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	tree := &models.SubjectTree{Subject: subject}

	sortByOrder := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})

	cursor, err := r.chapters.Find(ctx, bson.M{"subject_id": subjectID}, sortByOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %v", err)
	}
	if err := cursor.All(ctx, &tree.Chapters); err != nil {
		return nil, fmt.Errorf("failed to decode chapters: %v", err)
	}

	cursor, err = r.materials.Find(ctx, bson.M{"subject_id": subjectID}, sortByOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %v", err)
	}
	if err := cursor.All(ctx, &tree.Materials); err != nil {
		return nil, fmt.Errorf("failed to decode materials: %v", err)
	}

	for _, fileID := range subject.FileIDs {
		file, err := r.files.GetByID(ctx, fileID)
		if err != nil {
			continue // a purged file drops out of the tree
		}
		tree.Files = append(tree.Files, *file)
	}
	return tree, nil
}

func (r *SubjectRepository) CreateChapter(ctx context.Context, chapter *models.Chapter) error {
	if _, err := r.chapters.InsertOne(ctx, chapter); err != nil {
		return fmt.Errorf("failed to create chapter: %v", err)
	}
	return nil
}

func (r *SubjectRepository) CreateMaterial(ctx context.Context, material *models.Material) error {
	if _, err := r.materials.InsertOne(ctx, material); err != nil {
		return fmt.Errorf("failed to create material: %v", err)
	}
	return nil
}

func (r *SubjectRepository) SetMaterialContent(ctx context.Context, id primitive.ObjectID, content string) error {
	result, err := r.materials.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"content": content},
	})
	if err != nil {
		return fmt.Errorf("failed to update material: %v", err)
	}
	if result.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}

func (r *SubjectRepository) AddSubjectFile(ctx context.Context, subjectID, fileID primitive.ObjectID) error {
	result, err := r.subjects.UpdateOne(ctx, bson.M{"_id": subjectID}, bson.M{
		"$addToSet": bson.M{"file_ids": fileID},
		"$set":      bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to attach file to subject: %v", err)
	}
	if result.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}
