package services

import (
	"context"
	"fmt"
	"time"

	"github.com/KakashiUchiha12/studyHi-sub002/models"
	"github.com/KakashiUchiha12/studyHi-sub002/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DriveService provisions drive accounts and answers quota queries.
type DriveService struct {
	drives  DriveStore
	folders FolderStore
	files   FileStore
	clock   Clock

	defaultStorageLimit   int64
	defaultBandwidthLimit int64
}

func NewDriveService(drives DriveStore, folders FolderStore, files FileStore, clock Clock, storageLimit, bandwidthLimit int64) *DriveService {
	return &DriveService{
		drives:                drives,
		folders:               folders,
		files:                 files,
		clock:                 clock,
		defaultStorageLimit:   storageLimit,
		defaultBandwidthLimit: bandwidthLimit,
	}
}

// GetOrProvision returns the user's drive, creating it with default limits
// on first access.
func (ds *DriveService) GetOrProvision(ctx context.Context, userID primitive.ObjectID) (*models.Drive, error) {
	drive, err := ds.drives.GetByUserID(ctx, userID)
	if err == nil {
		return drive, nil
	}

	now := ds.clock.Now()
	drive = &models.Drive{
		ID:               primitive.NewObjectID(),
		UserID:           userID,
		StorageLimit:     ds.defaultStorageLimit,
		BandwidthLimit:   ds.defaultBandwidthLimit,
		BandwidthResetAt: utils.NextResetTime(now),
		AllowCopying:     models.CopyApproval,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := ds.drives.Create(ctx, drive); err != nil {
		return nil, fmt.Errorf("failed to provision drive: %v", err)
	}
	return drive, nil
}

// GetByUserID returns the user's drive without provisioning.
func (ds *DriveService) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Drive, error) {
	drive, err := ds.drives.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: drive for user %s", ErrNotFound, userID.Hex())
	}
	return drive, nil
}

// SetCopyPolicy updates who may import from this drive.
func (ds *DriveService) SetCopyPolicy(ctx context.Context, userID primitive.ObjectID, policy models.CopyPolicy) error {
	if !policy.Valid() {
		return fmt.Errorf("invalid copy policy %q", policy)
	}
	drive, err := ds.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	return ds.drives.SetCopyPolicy(ctx, drive.ID, policy)
}

// Stats assembles the quota summary for the drive owner. Bandwidth numbers
// are reported as zero-used when the reset instant has passed but no
// download has rolled the window yet; the stored counter is stale, not
// wrong.
func (ds *DriveService) Stats(ctx context.Context, userID primitive.ObjectID) (*models.DriveStats, error) {
	drive, err := ds.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := ds.clock.Now()
	bandwidthUsed := drive.BandwidthUsed
	resetAt := drive.BandwidthResetAt
	if utils.IsPastReset(resetAt, now) {
		bandwidthUsed = 0
		resetAt = utils.NextResetTime(now)
	}

	filesCount, err := ds.files.CountByDrive(ctx, drive.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count files: %v", err)
	}
	foldersCount, err := ds.folders.CountByDrive(ctx, drive.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count folders: %v", err)
	}

	trashedFiles, err := ds.files.ListTrashed(ctx, drive.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trash: %v", err)
	}
	trashedFolders, err := ds.folders.ListTrashed(ctx, drive.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trash: %v", err)
	}

	return &models.DriveStats{
		StorageUsed:       drive.StorageUsed,
		StorageLimit:      drive.StorageLimit,
		StorageUsedHuman:  utils.FormatFileSize(drive.StorageUsed),
		StorageLimitHuman: utils.FormatFileSize(drive.StorageLimit),
		StoragePercent:    utils.CalculatePercentage(drive.StorageUsed, drive.StorageLimit),
		BandwidthUsed:     bandwidthUsed,
		BandwidthLimit:    drive.BandwidthLimit,
		BandwidthPercent:  utils.CalculatePercentage(bandwidthUsed, drive.BandwidthLimit),
		BandwidthResetAt:  resetAt.UTC().Format(time.RFC3339),
		BandwidthResetsIn: utils.TimeUntilReset(resetAt, now).String(),
		FilesCount:        filesCount,
		FoldersCount:      foldersCount,
		TrashedItemsCount: len(trashedFiles) + len(trashedFolders),
	}, nil
}
