package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity actions recorded for drive mutations.
const (
	ActionUpload       = "upload"
	ActionDownload     = "download"
	ActionDelete       = "delete"
	ActionRestore      = "restore"
	ActionPurge        = "purge"
	ActionCopy         = "copy"
	ActionImport       = "import"
	ActionCreateFolder = "create_folder"
	ActionMove         = "move"
	ActionSync         = "sync"
)

// Activity is an append-only record of a storage operation. Entries are
// never updated or deleted by normal flow.
type Activity struct {
	ID         primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	DriveID    primitive.ObjectID     `bson:"drive_id" json:"drive_id"`
	ActorID    primitive.ObjectID     `bson:"actor_id" json:"actor_id"`
	Action     string                 `bson:"action" json:"action"`
	TargetType string                 `bson:"target_type" json:"target_type"` // file, folder, subject
	TargetID   primitive.ObjectID     `bson:"target_id" json:"target_id"`
	TargetName string                 `bson:"target_name" json:"target_name"`
	Metadata   map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt  time.Time              `bson:"created_at" json:"created_at"`
}
