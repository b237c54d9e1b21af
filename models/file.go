package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// File is a stored file owned by exactly one drive. StoredName is the
// globally unique identifier the physical path is derived from: it is unique
// across ALL drives (enforced by a unique index), so importing a file into
// another drive always mints a new StoredName and copies the bytes. Records
// are never shared by reference across drives.
type File struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	DriveID      primitive.ObjectID  `bson:"drive_id" json:"drive_id"`
	FolderID     *primitive.ObjectID `bson:"folder_id,omitempty" json:"folder_id,omitempty"`
	OriginalName string              `bson:"original_name" json:"original_name" validate:"required"`
	StoredName   string              `bson:"stored_name" json:"stored_name"`
	Size         int64               `bson:"size" json:"size"`
	MimeType     string              `bson:"mime_type" json:"mime_type"`
	FileType     string              `bson:"file_type" json:"file_type"` // coarse category: image, video, audio, document, other
	Hash         string              `bson:"hash" json:"hash"`           // content hash for duplicate detection
	PhysicalPath string              `bson:"physical_path" json:"-"`
	IsPublic     bool                `bson:"is_public" json:"is_public"`
	DeletedAt    *time.Time          `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time           `bson:"updated_at" json:"updated_at"`
}

// Trashed reports whether the file is in the trash.
func (f *File) Trashed() bool {
	return f.DeletedAt != nil
}
