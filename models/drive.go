package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CopyPolicy controls whether other accounts may import content from a drive.
type CopyPolicy string

const (
	CopyAllow    CopyPolicy = "allow"    // anything may be imported
	CopyApproval CopyPolicy = "approval" // only public items may be imported
	CopyDeny     CopyPolicy = "deny"     // no imports at all
)

func (p CopyPolicy) Valid() bool {
	switch p {
	case CopyAllow, CopyApproval, CopyDeny:
		return true
	}
	return false
}

// Drive is a user's quota-limited storage space. Storage and bandwidth
// counters are only ever mutated through atomic updates at the repository
// layer; bandwidth resets at the next UTC midnight after last use.
type Drive struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           primitive.ObjectID `bson:"user_id" json:"user_id"`
	StorageUsed      int64              `bson:"storage_used" json:"storage_used"`
	StorageLimit     int64              `bson:"storage_limit" json:"storage_limit"`
	BandwidthUsed    int64              `bson:"bandwidth_used" json:"bandwidth_used"`
	BandwidthLimit   int64              `bson:"bandwidth_limit" json:"bandwidth_limit"`
	BandwidthResetAt time.Time          `bson:"bandwidth_reset_at" json:"bandwidth_reset_at"`
	AllowCopying     CopyPolicy         `bson:"allow_copying" json:"allow_copying"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// DriveStats is the quota summary shown to the drive owner.
type DriveStats struct {
	StorageUsed        int64   `json:"storage_used"`
	StorageLimit       int64   `json:"storage_limit"`
	StorageUsedHuman   string  `json:"storage_used_human"`
	StorageLimitHuman  string  `json:"storage_limit_human"`
	StoragePercent     float64 `json:"storage_percent"`
	BandwidthUsed      int64   `json:"bandwidth_used"`
	BandwidthLimit     int64   `json:"bandwidth_limit"`
	BandwidthPercent   float64 `json:"bandwidth_percent"`
	BandwidthResetAt   string  `json:"bandwidth_reset_at"`
	BandwidthResetsIn  string  `json:"bandwidth_resets_in"`
	FilesCount         int     `json:"files_count"`
	FoldersCount       int     `json:"folders_count"`
	TrashedItemsCount  int     `json:"trashed_items_count"`
}
