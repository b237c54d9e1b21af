package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/KakashiUchiha12/studyHi-sub002/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FolderService maintains each drive's folder tree. Paths are materialized:
// a folder's path is its parent's path plus its own name, and moves/renames
// rewrite the prefix for every descendant.
type FolderService struct {
	folders  FolderStore
	files    FileStore
	activity ActivityStore
	clock    Clock
}

func NewFolderService(folders FolderStore, files FileStore, activity ActivityStore, clock Clock) *FolderService {
	return &FolderService{folders: folders, files: files, activity: activity, clock: clock}
}

// GetFolder returns a non-trashed folder owned by the drive.
func (fs *FolderService) GetFolder(ctx context.Context, driveID, folderID primitive.ObjectID) (*models.Folder, error) {
	folder, err := fs.folders.GetByID(ctx, folderID)
	if err != nil || folder.DriveID != driveID || folder.Trashed() {
		return nil, fmt.Errorf("%w: folder %s", ErrNotFound, folderID.Hex())
	}
	return folder, nil
}

// EnsureFolder finds or creates the folder at (parentID, name). The lookup
// matches non-trashed folders only, so ensure after trash creates a fresh
// sibling. Idempotent: an existing folder comes back unchanged.
func (fs *FolderService) EnsureFolder(ctx context.Context, driveID primitive.ObjectID, parentID *primitive.ObjectID, name string, syncRef *primitive.ObjectID) (*models.Folder, error) {
	existing, err := fs.folders.FindChild(ctx, driveID, parentID, name)
	if err == nil {
		return existing, nil
	}

	path, err := fs.pathFor(ctx, parentID, name)
	if err != nil {
		return nil, err
	}

	now := fs.clock.Now()
	folder := &models.Folder{
		ID:        primitive.NewObjectID(),
		DriveID:   driveID,
		ParentID:  parentID,
		SyncRef:   syncRef,
		Name:      name,
		Path:      path,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := fs.folders.Insert(ctx, folder); err != nil {
		// Lost a race to a concurrent ensure; the winner's folder is the
		// one we wanted.
		if winner, ferr := fs.folders.FindChild(ctx, driveID, parentID, name); ferr == nil {
			return winner, nil
		}
		return nil, fmt.Errorf("failed to create folder: %v", err)
	}
	return folder, nil
}

// CreateFolder creates a new folder for the HTTP surface and rejects an
// occupied (parent, name) slot rather than silently reusing it.
func (fs *FolderService) CreateFolder(ctx context.Context, actorID, driveID primitive.ObjectID, parentID *primitive.ObjectID, name string, isPublic bool) (*models.Folder, error) {
	if parentID != nil {
		if _, err := fs.GetFolder(ctx, driveID, *parentID); err != nil {
			return nil, fmt.Errorf("%w: parent folder", ErrNotFound)
		}
	}
	if _, err := fs.folders.FindChild(ctx, driveID, parentID, name); err == nil {
		return nil, ErrDuplicateName
	}

	path, err := fs.pathFor(ctx, parentID, name)
	if err != nil {
		return nil, err
	}

	now := fs.clock.Now()
	folder := &models.Folder{
		ID:        primitive.NewObjectID(),
		DriveID:   driveID,
		ParentID:  parentID,
		Name:      name,
		Path:      path,
		IsPublic:  isPublic,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := fs.folders.Insert(ctx, folder); err != nil {
		return nil, fmt.Errorf("failed to create folder: %v", err)
	}

	fs.record(ctx, driveID, actorID, models.ActionCreateFolder, "folder", folder.ID, folder.Name, nil)
	return folder, nil
}

// ListChildren returns one level of the tree. folderID nil means drive
// root. Trashed children are excluded from active listings.
func (fs *FolderService) ListChildren(ctx context.Context, driveID primitive.ObjectID, folderID *primitive.ObjectID, includeTrashed bool) (*models.FolderContents, error) {
	contents := &models.FolderContents{}

	if folderID != nil {
		folder, err := fs.GetFolder(ctx, driveID, *folderID)
		if err != nil {
			return nil, err
		}
		contents.Folder = folder
	}

	folders, err := fs.folders.ListChildren(ctx, driveID, folderID, includeTrashed)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %v", err)
	}
	files, err := fs.files.ListByFolder(ctx, driveID, folderID, includeTrashed)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %v", err)
	}

	contents.Folders = folders
	contents.Files = files
	return contents, nil
}

// Move re-parents a folder and rewrites the path prefix of its whole
// subtree.
func (fs *FolderService) Move(ctx context.Context, actorID, driveID, folderID primitive.ObjectID, newParentID *primitive.ObjectID) error {
	folder, err := fs.GetFolder(ctx, driveID, folderID)
	if err != nil {
		return err
	}

	if newParentID != nil {
		if *newParentID == folderID {
			return ErrCircularMove
		}
		if _, err := fs.GetFolder(ctx, driveID, *newParentID); err != nil {
			return fmt.Errorf("%w: destination folder", ErrNotFound)
		}
		if err := fs.checkCircular(ctx, folderID, *newParentID); err != nil {
			return err
		}
	}

	newPath, err := fs.pathFor(ctx, newParentID, folder.Name)
	if err != nil {
		return err
	}

	oldPath := folder.Path
	if err := fs.folders.SetParent(ctx, folderID, newParentID, newPath); err != nil {
		return fmt.Errorf("failed to move folder: %v", err)
	}
	if err := fs.rewriteDescendantPaths(ctx, driveID, oldPath, newPath); err != nil {
		return err
	}

	fs.record(ctx, driveID, actorID, models.ActionMove, "folder", folderID, folder.Name, map[string]interface{}{
		"from": oldPath,
		"to":   newPath,
	})
	return nil
}

// Rename changes a folder's name and propagates the path change downward.
func (fs *FolderService) Rename(ctx context.Context, actorID, driveID, folderID primitive.ObjectID, newName string) (*models.Folder, error) {
	folder, err := fs.GetFolder(ctx, driveID, folderID)
	if err != nil {
		return nil, err
	}
	if folder.Name == newName {
		return folder, nil
	}
	if _, err := fs.folders.FindChild(ctx, driveID, folder.ParentID, newName); err == nil {
		return nil, ErrDuplicateName
	}

	newPath, err := fs.pathFor(ctx, folder.ParentID, newName)
	if err != nil {
		return nil, err
	}

	oldPath := folder.Path
	if err := fs.folders.SetName(ctx, folderID, newName, newPath); err != nil {
		return nil, fmt.Errorf("failed to rename folder: %v", err)
	}
	if err := fs.rewriteDescendantPaths(ctx, driveID, oldPath, newPath); err != nil {
		return nil, err
	}

	folder.Name = newName
	folder.Path = newPath
	return folder, nil
}

// MoveFile relocates a file record to another folder (nil = drive root).
func (fs *FolderService) MoveFile(ctx context.Context, actorID, driveID, fileID primitive.ObjectID, folderID *primitive.ObjectID) error {
	file, err := fs.files.GetByID(ctx, fileID)
	if err != nil || file.DriveID != driveID || file.Trashed() {
		return fmt.Errorf("%w: file %s", ErrNotFound, fileID.Hex())
	}
	if folderID != nil {
		if _, err := fs.GetFolder(ctx, driveID, *folderID); err != nil {
			return fmt.Errorf("%w: destination folder", ErrNotFound)
		}
	}
	if err := fs.files.SetFolder(ctx, fileID, folderID); err != nil {
		return fmt.Errorf("failed to move file: %v", err)
	}

	fs.record(ctx, driveID, actorID, models.ActionMove, "file", fileID, file.OriginalName, nil)
	return nil
}

func (fs *FolderService) pathFor(ctx context.Context, parentID *primitive.ObjectID, name string) (string, error) {
	if parentID == nil {
		return "/" + name, nil
	}
	parent, err := fs.folders.GetByID(ctx, *parentID)
	if err != nil {
		return "", fmt.Errorf("%w: parent folder", ErrNotFound)
	}
	return parent.Path + "/" + name, nil
}

// checkCircular walks up from the destination; finding the moved folder on
// the way to the root means the move would orphan the subtree.
func (fs *FolderService) checkCircular(ctx context.Context, folderID, destID primitive.ObjectID) error {
	current := &destID
	for current != nil {
		if *current == folderID {
			return ErrCircularMove
		}
		node, err := fs.folders.GetByID(ctx, *current)
		if err != nil {
			return nil
		}
		current = node.ParentID
	}
	return nil
}

func (fs *FolderService) rewriteDescendantPaths(ctx context.Context, driveID primitive.ObjectID, oldPath, newPath string) error {
	descendants, err := fs.folders.ListByPathPrefix(ctx, driveID, oldPath+"/")
	if err != nil {
		return fmt.Errorf("failed to list descendants: %v", err)
	}
	for _, d := range descendants {
		rewritten := newPath + strings.TrimPrefix(d.Path, oldPath)
		if err := fs.folders.SetPath(ctx, d.ID, rewritten); err != nil {
			return fmt.Errorf("failed to update descendant path: %v", err)
		}
	}
	return nil
}

func (fs *FolderService) record(ctx context.Context, driveID, actorID primitive.ObjectID, action, targetType string, targetID primitive.ObjectID, targetName string, metadata map[string]interface{}) {
	entry := &models.Activity{
		ID:         primitive.NewObjectID(),
		DriveID:    driveID,
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		TargetName: targetName,
		Metadata:   metadata,
		CreatedAt:  fs.clock.Now(),
	}
	// Audit failures never fail the mutation they describe.
	_ = fs.activity.Insert(ctx, entry)
}
