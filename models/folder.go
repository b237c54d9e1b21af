package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Folder is a node in a drive's tree. Path is materialized from the parent
// chain and rewritten for all descendants on move/rename. SyncRef is a
// back-reference to the curriculum node (subject, chapter or material) the
// folder mirrors; it lets a re-sync find the folder after the node was
// renamed. It is never used for ownership.
type Folder struct {
	ID       primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	DriveID  primitive.ObjectID  `bson:"drive_id" json:"drive_id"`
	ParentID *primitive.ObjectID `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	SyncRef  *primitive.ObjectID `bson:"sync_ref,omitempty" json:"sync_ref,omitempty"`
	Name      string              `bson:"name" json:"name" validate:"required"`
	Path      string              `bson:"path" json:"path"`
	IsPublic  bool                `bson:"is_public" json:"is_public"`
	DeletedAt *time.Time          `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
}

// Trashed reports whether the folder is in the trash.
func (f *Folder) Trashed() bool {
	return f.DeletedAt != nil
}

// FolderContents is one level of the tree: the folder itself plus its
// immediate children.
type FolderContents struct {
	Folder  *Folder  `json:"folder,omitempty"`
	Folders []Folder `json:"folders"`
	Files   []File   `json:"files"`
}
