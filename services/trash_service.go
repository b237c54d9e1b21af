package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/KakashiUchiha12/studyHi-sub002/models"
	"github.com/KakashiUchiha12/studyHi-sub002/storage"
	"github.com/KakashiUchiha12/studyHi-sub002/utils"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrashService handles the soft-delete lifecycle: trash, restore, and the
// eventual purge after the retention window. Trashing does not change
// quota accounting; the drive owns the bytes until purge.
type TrashService struct {
	drives   DriveStore
	folders  FolderStore
	files    FileStore
	activity ActivityStore
	backend  storage.Interface
	clock    Clock
	logger   *logrus.Logger
}

func NewTrashService(drives DriveStore, folders FolderStore, files FileStore, activity ActivityStore, backend storage.Interface, clock Clock, logger *logrus.Logger) *TrashService {
	return &TrashService{
		drives:   drives,
		folders:  folders,
		files:    files,
		activity: activity,
		backend:  backend,
		clock:    clock,
		logger:   logger,
	}
}

// TrashContents lists everything currently in a drive's trash with each
// item's purge deadline.
type TrashContents struct {
	Folders []models.Folder `json:"folders"`
	Files   []models.File   `json:"files"`
}

// TrashFile soft-deletes a file.
func (ts *TrashService) TrashFile(ctx context.Context, actorID, driveID, fileID primitive.ObjectID) error {
	file, err := ts.files.GetByID(ctx, fileID)
	if err != nil || file.DriveID != driveID || file.Trashed() {
		return fmt.Errorf("%w: file %s", ErrNotFound, fileID.Hex())
	}

	now := ts.clock.Now()
	if err := ts.files.SetDeleted(ctx, fileID, &now); err != nil {
		return fmt.Errorf("failed to trash file: %v", err)
	}

	ts.record(ctx, driveID, actorID, models.ActionDelete, "file", fileID, file.OriginalName)
	return nil
}

// TrashFolder soft-deletes a folder. Children are not cascaded eagerly;
// they disappear from active listings because their ancestor is trashed.
func (ts *TrashService) TrashFolder(ctx context.Context, actorID, driveID, folderID primitive.ObjectID) error {
	folder, err := ts.folders.GetByID(ctx, folderID)
	if err != nil || folder.DriveID != driveID || folder.Trashed() {
		return fmt.Errorf("%w: folder %s", ErrNotFound, folderID.Hex())
	}

	now := ts.clock.Now()
	if err := ts.folders.SetDeleted(ctx, folderID, &now); err != nil {
		return fmt.Errorf("failed to trash folder: %v", err)
	}

	ts.record(ctx, driveID, actorID, models.ActionDelete, "folder", folderID, folder.Name)
	return nil
}

// RestoreFile clears the trash marker. A file whose folder has been
// trashed or purged in the meantime lands at the drive root rather than
// failing.
func (ts *TrashService) RestoreFile(ctx context.Context, actorID, driveID, fileID primitive.ObjectID) error {
	file, err := ts.files.GetByID(ctx, fileID)
	if err != nil || file.DriveID != driveID || !file.Trashed() {
		return fmt.Errorf("%w: trashed file %s", ErrNotFound, fileID.Hex())
	}

	if file.FolderID != nil {
		parent, err := ts.folders.GetByID(ctx, *file.FolderID)
		if err != nil || parent.Trashed() {
			if err := ts.files.SetFolder(ctx, fileID, nil); err != nil {
				return fmt.Errorf("failed to re-parent restored file: %v", err)
			}
		}
	}

	if err := ts.files.SetDeleted(ctx, fileID, nil); err != nil {
		return fmt.Errorf("failed to restore file: %v", err)
	}

	ts.record(ctx, driveID, actorID, models.ActionRestore, "file", fileID, file.OriginalName)
	return nil
}

// RestoreFolder clears the trash marker, re-parenting to the drive root if
// the original parent is itself trashed or gone.
func (ts *TrashService) RestoreFolder(ctx context.Context, actorID, driveID, folderID primitive.ObjectID) error {
	folder, err := ts.folders.GetByID(ctx, folderID)
	if err != nil || folder.DriveID != driveID || !folder.Trashed() {
		return fmt.Errorf("%w: trashed folder %s", ErrNotFound, folderID.Hex())
	}

	if folder.ParentID != nil {
		parent, err := ts.folders.GetByID(ctx, *folder.ParentID)
		if err != nil || parent.Trashed() {
			newPath := "/" + folder.Name
			if err := ts.folders.SetParent(ctx, folderID, nil, newPath); err != nil {
				return fmt.Errorf("failed to re-parent restored folder: %v", err)
			}
			if err := ts.rewriteDescendantPaths(ctx, driveID, folder.Path, newPath); err != nil {
				return err
			}
		}
	}

	if err := ts.folders.SetDeleted(ctx, folderID, nil); err != nil {
		return fmt.Errorf("failed to restore folder: %v", err)
	}

	ts.record(ctx, driveID, actorID, models.ActionRestore, "folder", folderID, folder.Name)
	return nil
}

// PurgeFile permanently deletes a trashed file: bytes first, then the
// record, then the storage counter comes down by the file's size.
func (ts *TrashService) PurgeFile(ctx context.Context, actorID, driveID, fileID primitive.ObjectID) error {
	file, err := ts.files.GetByID(ctx, fileID)
	if err != nil || file.DriveID != driveID || !file.Trashed() {
		return fmt.Errorf("%w: trashed file %s", ErrNotFound, fileID.Hex())
	}

	if err := ts.backend.Delete(ctx, file.PhysicalPath); err != nil {
		return fmt.Errorf("failed to delete file bytes: %v", err)
	}
	if err := ts.files.Delete(ctx, fileID); err != nil {
		return fmt.Errorf("failed to delete file record: %v", err)
	}
	if err := ts.drives.IncrementStorage(ctx, driveID, -file.Size); err != nil {
		return fmt.Errorf("failed to release storage: %v", err)
	}

	ts.record(ctx, driveID, actorID, models.ActionPurge, "file", fileID, file.OriginalName)
	return nil
}

// PurgeFolder permanently deletes a trashed folder and everything under
// it. Descendants go regardless of their own trash markers: purging the
// trashed root consumes the whole subtree. The folder itself contributes
// zero bytes; contained files are purged individually so every release is
// accounted exactly once.
func (ts *TrashService) PurgeFolder(ctx context.Context, actorID, driveID, folderID primitive.ObjectID) error {
	folder, err := ts.folders.GetByID(ctx, folderID)
	if err != nil || folder.DriveID != driveID || !folder.Trashed() {
		return fmt.Errorf("%w: trashed folder %s", ErrNotFound, folderID.Hex())
	}

	if err := ts.purgeSubtree(ctx, driveID, folderID); err != nil {
		return err
	}

	ts.record(ctx, driveID, actorID, models.ActionPurge, "folder", folderID, folder.Name)
	return nil
}

// purgeSubtree hard-deletes a folder, its files, and its subfolders. Only
// PurgeFolder checks the trash marker; descendants are consumed as part of
// their trashed root.
func (ts *TrashService) purgeSubtree(ctx context.Context, driveID, folderID primitive.ObjectID) error {
	files, err := ts.files.ListByFolder(ctx, driveID, &folderID, true)
	if err != nil {
		return fmt.Errorf("failed to list folder files: %v", err)
	}
	for _, file := range files {
		if err := ts.backend.Delete(ctx, file.PhysicalPath); err != nil {
			ts.logger.WithError(err).WithField("file_id", file.ID.Hex()).Warn("failed to delete file bytes during folder purge")
			continue
		}
		if err := ts.files.Delete(ctx, file.ID); err != nil {
			return fmt.Errorf("failed to delete file record: %v", err)
		}
		if err := ts.drives.IncrementStorage(ctx, driveID, -file.Size); err != nil {
			return fmt.Errorf("failed to release storage: %v", err)
		}
	}

	children, err := ts.folders.ListChildren(ctx, driveID, &folderID, true)
	if err != nil {
		return fmt.Errorf("failed to list subfolders: %v", err)
	}
	for _, child := range children {
		if err := ts.purgeSubtree(ctx, driveID, child.ID); err != nil {
			return err
		}
	}

	if err := ts.folders.Delete(ctx, folderID); err != nil {
		return fmt.Errorf("failed to delete folder record: %v", err)
	}
	return nil
}

// ListTrash returns the drive's trashed items.
func (ts *TrashService) ListTrash(ctx context.Context, driveID primitive.ObjectID) (*TrashContents, error) {
	folders, err := ts.folders.ListTrashed(ctx, driveID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trashed folders: %v", err)
	}
	files, err := ts.files.ListTrashed(ctx, driveID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trashed files: %v", err)
	}
	return &TrashContents{Folders: folders, Files: files}, nil
}

// PurgeExpired sweeps trashed files and folders whose retention window has
// lapsed. Reset and purge are otherwise evaluated lazily; this sweep is
// operational hygiene run from the background job.
func (ts *TrashService) PurgeExpired(ctx context.Context) (int, error) {
	now := ts.clock.Now()
	cutoff := now.Add(-utils.TrashRetention)

	expired, err := ts.files.ListTrashedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired trash: %v", err)
	}

	purged := 0
	for _, file := range expired {
		if !utils.IsPurgeEligible(*file.DeletedAt, now) {
			continue
		}
		if err := ts.PurgeFile(ctx, primitive.NilObjectID, file.DriveID, file.ID); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			ts.logger.WithError(err).WithField("file_id", file.ID.Hex()).Warn("failed to purge expired file")
			continue
		}
		purged++
	}

	expiredFolders, err := ts.folders.ListTrashedBefore(ctx, cutoff)
	if err != nil {
		return purged, fmt.Errorf("failed to list expired trashed folders: %v", err)
	}
	for _, folder := range expiredFolders {
		if !utils.IsPurgeEligible(*folder.DeletedAt, now) {
			continue
		}
		if err := ts.PurgeFolder(ctx, primitive.NilObjectID, folder.DriveID, folder.ID); err != nil {
			// an ancestor's purge in this sweep may have consumed it already
			if errors.Is(err, ErrNotFound) {
				continue
			}
			ts.logger.WithError(err).WithField("folder_id", folder.ID.Hex()).Warn("failed to purge expired folder")
			continue
		}
		purged++
	}
	return purged, nil
}

func (ts *TrashService) rewriteDescendantPaths(ctx context.Context, driveID primitive.ObjectID, oldPath, newPath string) error {
	descendants, err := ts.folders.ListByPathPrefix(ctx, driveID, oldPath+"/")
	if err != nil {
		return fmt.Errorf("failed to list descendants: %v", err)
	}
	for _, d := range descendants {
		rewritten := newPath + strings.TrimPrefix(d.Path, oldPath)
		if err := ts.folders.SetPath(ctx, d.ID, rewritten); err != nil {
			return fmt.Errorf("failed to update descendant path: %v", err)
		}
	}
	return nil
}

func (ts *TrashService) record(ctx context.Context, driveID, actorID primitive.ObjectID, action, targetType string, targetID primitive.ObjectID, targetName string) {
	_ = ts.activity.Insert(ctx, &models.Activity{
		ID:         primitive.NewObjectID(),
		DriveID:    driveID,
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		TargetName: targetName,
		CreatedAt:  ts.clock.Now(),
	})
}
