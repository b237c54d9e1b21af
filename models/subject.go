package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subject is the root of a curriculum tree owned by one user. The sync
// engine mirrors the tree into the owner's drive; the import engine copies
// it across accounts.
type Subject struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID   `bson:"user_id" json:"user_id"`
	Name      string               `bson:"name" json:"name" validate:"required"`
	IsPublic  bool                 `bson:"is_public" json:"is_public"`
	FileIDs   []primitive.ObjectID `bson:"file_ids,omitempty" json:"file_ids,omitempty"` // standalone subject-level files
	CreatedAt time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time            `bson:"updated_at" json:"updated_at"`
}

type Chapter struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SubjectID primitive.ObjectID `bson:"subject_id" json:"subject_id"`
	Title     string             `bson:"title" json:"title"`
	Order     int                `bson:"order" json:"order"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Material belongs to a chapter, or directly to a subject when ChapterID is
// nil ("subject-level" material). Content is a JSON payload listing the
// file references and external links embedded in the material.
type Material struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	SubjectID primitive.ObjectID  `bson:"subject_id" json:"subject_id"`
	ChapterID *primitive.ObjectID `bson:"chapter_id,omitempty" json:"chapter_id,omitempty"`
	Title     string              `bson:"title" json:"title"`
	Order     int                 `bson:"order" json:"order"`
	Content   string              `bson:"content" json:"content"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}

// MaterialContent is the parsed form of Material.Content.
type MaterialContent struct {
	Files []MaterialFileRef `json:"files"`
	Links []MaterialLink    `json:"links"`
}

// MaterialFileRef points a material at a drive file.
type MaterialFileRef struct {
	FileID       string `json:"file_id"`
	StoredName   string `json:"stored_name"`
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`
}

type MaterialLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ParseContent decodes the material's embedded payload. A malformed payload
// isolates the one material; callers log and skip it.
func (m *Material) ParseContent() (*MaterialContent, error) {
	content := &MaterialContent{}
	if m.Content == "" {
		return content, nil
	}
	if err := json.Unmarshal([]byte(m.Content), content); err != nil {
		return nil, err
	}
	return content, nil
}

// EncodeContent re-serializes a rewritten payload back into the material.
func EncodeContent(content *MaterialContent) (string, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// SubjectTree is the fully loaded curriculum hierarchy consumed by the sync
// and import engines. Files holds the standalone subject-level files.
type SubjectTree struct {
	Subject   *Subject   `json:"subject"`
	Chapters  []Chapter  `json:"chapters"`
	Materials []Material `json:"materials"` // all materials, chapter and subject-level
	Files     []File     `json:"files"`
}

// ChapterMaterials returns the materials of one chapter in stable order.
func (t *SubjectTree) ChapterMaterials(chapterID primitive.ObjectID) []Material {
	var out []Material
	for _, m := range t.Materials {
		if m.ChapterID != nil && *m.ChapterID == chapterID {
			out = append(out, m)
		}
	}
	return out
}

// SubjectLevelMaterials returns the chapter-less materials in stable order.
func (t *SubjectTree) SubjectLevelMaterials() []Material {
	var out []Material
	for _, m := range t.Materials {
		if m.ChapterID == nil {
			out = append(out, m)
		}
	}
	return out
}
