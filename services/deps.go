package services

import (
	"context"
	"time"

	"github.com/KakashiUchiha12/studyHi-sub002/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Clock supplies the current time. Reset and retention logic never calls
// time.Now directly so the schedules stay deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// DriveStore is the persistence surface for quota-carrying drive accounts.
// IncrementStorage, ResetBandwidth and ConsumeBandwidth must be atomic per
// drive: a read-then-write of the counters is a known double-count race.
type DriveStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Drive, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Drive, error)
	Create(ctx context.Context, drive *models.Drive) error
	SetCopyPolicy(ctx context.Context, id primitive.ObjectID, policy models.CopyPolicy) error
	IncrementStorage(ctx context.Context, id primitive.ObjectID, delta int64) error

	// ResetBandwidth swaps in a fresh window but only when the stored reset
	// instant still equals prevResetAt, so two racing resets cannot both
	// apply. Returns false when the precondition no longer holds.
	ResetBandwidth(ctx context.Context, id primitive.ObjectID, prevResetAt time.Time, used int64, nextResetAt time.Time) (bool, error)

	// ConsumeBandwidth adds bytes to the used counter only when the result
	// stays within the limit. Returns false when the increment was refused.
	ConsumeBandwidth(ctx context.Context, id primitive.ObjectID, bytes int64) (bool, error)
}

// FolderStore persists folder nodes. "Child" lookups match non-trashed
// folders only. FindChild reports a missing child through its error;
// FindBySyncRef returns (nil, nil) when no folder carries the reference.
type FolderStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Folder, error)
	FindChild(ctx context.Context, driveID primitive.ObjectID, parentID *primitive.ObjectID, name string) (*models.Folder, error)
	FindBySyncRef(ctx context.Context, driveID, refID primitive.ObjectID) (*models.Folder, error)
	Insert(ctx context.Context, folder *models.Folder) error
	ListChildren(ctx context.Context, driveID primitive.ObjectID, parentID *primitive.ObjectID, includeTrashed bool) ([]models.Folder, error)
	ListByPathPrefix(ctx context.Context, driveID primitive.ObjectID, prefix string) ([]models.Folder, error)
	SetName(ctx context.Context, id primitive.ObjectID, name, path string) error
	SetParent(ctx context.Context, id primitive.ObjectID, parentID *primitive.ObjectID, path string) error
	SetPath(ctx context.Context, id primitive.ObjectID, path string) error
	SetDeleted(ctx context.Context, id primitive.ObjectID, deletedAt *time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListTrashed(ctx context.Context, driveID primitive.ObjectID) ([]models.Folder, error)
	ListTrashedBefore(ctx context.Context, cutoff time.Time) ([]models.Folder, error)
	CountByDrive(ctx context.Context, driveID primitive.ObjectID) (int, error)
}

// FileStore persists file records. Insert must surface the stored_name
// unique-index violation as ErrStoredNameTaken so callers can re-mint; the
// index, not an application check, is what makes stored names globally
// unique under concurrent imports. The FindBy* lookups return (nil, nil)
// when no active record matches.
type FileStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.File, error)
	ListByFolder(ctx context.Context, driveID primitive.ObjectID, folderID *primitive.ObjectID, includeTrashed bool) ([]models.File, error)
	FindByStoredName(ctx context.Context, driveID primitive.ObjectID, storedName string) (*models.File, error)
	FindByName(ctx context.Context, driveID primitive.ObjectID, folderID *primitive.ObjectID, originalName string) (*models.File, error)
	FindByOriginalName(ctx context.Context, driveID primitive.ObjectID, originalName string) (*models.File, error)
	FindByHash(ctx context.Context, driveID primitive.ObjectID, hash string, size int64) (*models.File, error)
	Insert(ctx context.Context, file *models.File) error
	SetFolder(ctx context.Context, id primitive.ObjectID, folderID *primitive.ObjectID) error
	SetDeleted(ctx context.Context, id primitive.ObjectID, deletedAt *time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListTrashed(ctx context.Context, driveID primitive.ObjectID) ([]models.File, error)
	ListTrashedBefore(ctx context.Context, cutoff time.Time) ([]models.File, error)
	CountByDrive(ctx context.Context, driveID primitive.ObjectID) (int, error)
}

// SubjectStore persists the curriculum hierarchy.
type SubjectStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Subject, error)
	FindByName(ctx context.Context, userID primitive.ObjectID, name string) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	GetTree(ctx context.Context, subjectID primitive.ObjectID) (*models.SubjectTree, error)
	CreateChapter(ctx context.Context, chapter *models.Chapter) error
	CreateMaterial(ctx context.Context, material *models.Material) error
	SetMaterialContent(ctx context.Context, id primitive.ObjectID, content string) error
	AddSubjectFile(ctx context.Context, subjectID, fileID primitive.ObjectID) error
}

// ActivityStore is the append-only audit sink.
type ActivityStore interface {
	Insert(ctx context.Context, entry *models.Activity) error
	ListByDrive(ctx context.Context, driveID primitive.ObjectID, limit int) ([]models.Activity, error)
}

// UserStore is the thin account surface the auth boundary needs.
type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// FileCandidate is one entry of a duplicate-detection batch.
type FileCandidate struct {
	Name string
	Hash string
	Size int64
}

// DuplicateResult mirrors its candidate positionally.
type DuplicateResult struct {
	IsDuplicate    bool
	DuplicateType  string // "exact" or "name"
	ExistingFileID primitive.ObjectID
}

// DuplicateDetector reports which candidates already exist in the target
// drive. The check is a pure query, idempotent, and result order matches
// input order exactly: callers zip results against candidates positionally.
type DuplicateDetector interface {
	CheckBatch(ctx context.Context, driveID primitive.ObjectID, candidates []FileCandidate) ([]DuplicateResult, error)
}
