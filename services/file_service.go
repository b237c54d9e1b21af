package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/KakashiUchiha12/studyHi-sub002/models"
	"github.com/KakashiUchiha12/studyHi-sub002/storage"
	"github.com/KakashiUchiha12/studyHi-sub002/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FileService handles uploads and downloads against one drive. Uploads
// charge the storage quota; downloads pass through the bandwidth throttle
// before a single byte is served.
type FileService struct {
	drives    DriveStore
	files     FileStore
	folders   FolderStore
	bandwidth *BandwidthService
	activity  ActivityStore
	backend   storage.Interface
	clock     Clock
}

func NewFileService(drives DriveStore, files FileStore, folders FolderStore, bandwidth *BandwidthService, activity ActivityStore, backend storage.Interface, clock Clock) *FileService {
	return &FileService{
		drives:    drives,
		files:     files,
		folders:   folders,
		bandwidth: bandwidth,
		activity:  activity,
		backend:   backend,
		clock:     clock,
	}
}

// GetFile returns a non-trashed file owned by the drive.
func (fs *FileService) GetFile(ctx context.Context, driveID, fileID primitive.ObjectID) (*models.File, error) {
	file, err := fs.files.GetByID(ctx, fileID)
	if err != nil || file.DriveID != driveID || file.Trashed() {
		return nil, fmt.Errorf("%w: file %s", ErrNotFound, fileID.Hex())
	}
	return file, nil
}

// Upload validates, hashes and stores one multipart upload, then records
// it against the drive's storage quota. The database record is inserted
// only after the bytes landed.
func (fs *FileService) Upload(ctx context.Context, actorID, driveID primitive.ObjectID, folderID *primitive.ObjectID, header *multipart.FileHeader, isPublic bool) (*models.File, error) {
	drive, err := fs.drives.GetByID(ctx, driveID)
	if err != nil {
		return nil, fmt.Errorf("%w: drive %s", ErrNotFound, driveID.Hex())
	}
	if utils.WouldExceed(drive.StorageUsed, drive.StorageLimit, header.Size) {
		return nil, fmt.Errorf("%w: %s needed, %s free", ErrQuotaExceeded,
			utils.FormatFileSize(header.Size),
			utils.FormatFileSize(drive.StorageLimit-drive.StorageUsed))
	}
	if folderID != nil {
		folder, err := fs.folders.GetByID(ctx, *folderID)
		if err != nil || folder.DriveID != driveID || folder.Trashed() {
			return nil, fmt.Errorf("%w: folder %s", ErrNotFound, folderID.Hex())
		}
	}

	var file *models.File
	for attempt := 0; attempt < mintAttempts; attempt++ {
		info, err := utils.ProcessFileUpload(header)
		if err != nil {
			return nil, err
		}

		src, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open upload: %v", err)
		}
		err = fs.backend.Upload(ctx, info.PhysicalPath, src, info.Size)
		src.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to store file: %v", err)
		}

		now := fs.clock.Now()
		file = &models.File{
			ID:           primitive.NewObjectID(),
			DriveID:      driveID,
			FolderID:     folderID,
			OriginalName: info.OriginalName,
			StoredName:   info.StoredName,
			Size:         info.Size,
			MimeType:     info.MimeType,
			FileType:     info.FileType,
			Hash:         info.Hash,
			PhysicalPath: info.PhysicalPath,
			IsPublic:     isPublic,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		err = fs.files.Insert(ctx, file)
		if err == nil {
			break
		}
		_ = fs.backend.Delete(ctx, info.PhysicalPath)
		if !errors.Is(err, ErrStoredNameTaken) {
			return nil, fmt.Errorf("failed to insert file record: %v", err)
		}
		file = nil
	}
	if file == nil {
		return nil, fmt.Errorf("failed to mint unique stored name")
	}

	if err := fs.drives.IncrementStorage(ctx, driveID, file.Size); err != nil {
		return nil, fmt.Errorf("failed to charge storage: %v", err)
	}

	fs.record(ctx, driveID, actorID, models.ActionUpload, file)
	return file, nil
}

// Download opens the file's bytes after the bandwidth throttle admits the
// transfer. A denial returns ErrBandwidthExceeded with the window's reset
// time so the surface can answer 429.
func (fs *FileService) Download(ctx context.Context, actorID, driveID, fileID primitive.ObjectID) (io.ReadCloser, *models.File, error) {
	file, err := fs.GetFile(ctx, driveID, fileID)
	if err != nil {
		return nil, nil, err
	}

	decision, err := fs.bandwidth.TryConsume(ctx, driveID, file.Size)
	if err != nil {
		return nil, nil, err
	}
	if !decision.Allowed {
		return nil, nil, &BandwidthError{ResetAt: decision.ResetAt}
	}

	reader, err := fs.backend.Download(ctx, file.PhysicalPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file bytes: %v", err)
	}

	fs.record(ctx, driveID, actorID, models.ActionDownload, file)
	return reader, file, nil
}

func (fs *FileService) record(ctx context.Context, driveID, actorID primitive.ObjectID, action string, file *models.File) {
	_ = fs.activity.Insert(ctx, &models.Activity{
		ID:         primitive.NewObjectID(),
		DriveID:    driveID,
		ActorID:    actorID,
		Action:     action,
		TargetType: "file",
		TargetID:   file.ID,
		TargetName: file.OriginalName,
		CreatedAt:  fs.clock.Now(),
	})
}
