package services

import (
	"context"
	"fmt"

	"github.com/KakashiUchiha12/studyHi-sub002/models"
	"github.com/KakashiUchiha12/studyHi-sub002/utils"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SyncService mirrors a curriculum subject into its owner's drive so that
// authored course content shows up next to uploaded files. The mirror is a
// same-account operation: records point at the bytes the drive already
// owns, so nothing is copied and no quota moves. Re-running against an
// unchanged subject is a no-op.
type SyncService struct {
	drives   DriveStore
	folders  *FolderService
	folderst FolderStore
	files    FileStore
	subjects SubjectStore
	activity ActivityStore
	clock    Clock
	logger   *logrus.Logger
}

func NewSyncService(drives DriveStore, folders *FolderService, folderStore FolderStore, files FileStore, subjects SubjectStore, activity ActivityStore, clock Clock, logger *logrus.Logger) *SyncService {
	return &SyncService{
		drives:   drives,
		folders:  folders,
		folderst: folderStore,
		files:    files,
		subjects: subjects,
		activity: activity,
		clock:    clock,
		logger:   logger,
	}
}

// SubjectRootName is the naming convention for a subject's mirror folder.
func SubjectRootName(subjectName string) string {
	return "Subjects - " + subjectName
}

// SyncSubject runs one synchronization pass for the subject, against the
// subject owner's drive.
func (ss *SyncService) SyncSubject(ctx context.Context, actorID, subjectID primitive.ObjectID) (*models.SyncResult, error) {
	tree, err := ss.subjects.GetTree(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: subject %s", ErrNotFound, subjectID.Hex())
	}
	drive, err := ss.drives.GetByUserID(ctx, tree.Subject.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: drive for user %s", ErrNotFound, tree.Subject.UserID.Hex())
	}

	result := &models.SyncResult{}

	root, err := ss.ensureMirrorFolder(ctx, drive.ID, nil, SubjectRootName(tree.Subject.Name), tree.Subject.ID, result)
	if err != nil {
		return nil, err
	}

	// Standalone subject-level files, matched drive-wide by stored name so
	// a file the user has since moved stays where they put it.
	for _, src := range tree.Files {
		existing, err := ss.files.FindByStoredName(ctx, drive.ID, src.StoredName)
		if err != nil {
			return nil, fmt.Errorf("failed to look up mirrored file: %v", err)
		}
		if existing != nil {
			continue
		}
		if err := ss.mirrorFile(ctx, drive.ID, &root.ID, src.OriginalName, src.StoredName, src.Size, src.Hash); err != nil {
			ss.logger.WithError(err).WithField("stored_name", src.StoredName).Warn("failed to mirror subject file")
			result.Skipped = append(result.Skipped, src.OriginalName)
			continue
		}
		result.FilesCreated++
	}

	for _, chapter := range tree.Chapters {
		chapterFolder, err := ss.ensureMirrorFolder(ctx, drive.ID, &root.ID, chapter.Title, chapter.ID, result)
		if err != nil {
			return nil, err
		}
		for _, material := range tree.ChapterMaterials(chapter.ID) {
			ss.syncMaterial(ctx, drive.ID, chapterFolder.ID, material, result)
		}
	}

	// Chapter-less materials mirror directly under the subject root.
	for _, material := range tree.SubjectLevelMaterials() {
		ss.syncMaterial(ctx, drive.ID, root.ID, material, result)
	}

	ss.record(ctx, drive.ID, actorID, tree.Subject, result)
	return result, nil
}

// ensureMirrorFolder resolves the drive folder mirroring one curriculum
// node. The sync back-reference, not the name, is the identity: a renamed
// subject or chapter renames the existing folder in place instead of
// abandoning it for a fresh one.
func (ss *SyncService) ensureMirrorFolder(ctx context.Context, driveID primitive.ObjectID, parentID *primitive.ObjectID, name string, refID primitive.ObjectID, result *models.SyncResult) (*models.Folder, error) {
	existing, err := ss.folderst.FindBySyncRef(ctx, driveID, refID)
	if err == nil && existing != nil && !existing.Trashed() {
		if existing.Name != name {
			renamed, err := ss.folders.Rename(ctx, primitive.NilObjectID, driveID, existing.ID, name)
			if err != nil {
				return nil, fmt.Errorf("failed to rename mirror folder: %v", err)
			}
			return renamed, nil
		}
		return existing, nil
	}

	folder, err := ss.folders.EnsureFolder(ctx, driveID, parentID, name, &refID)
	if err != nil {
		return nil, err
	}
	// No folder carried this ref before the call, so a ref on the result
	// means EnsureFolder created it; a bare folder was a manual one reused.
	if folder.SyncRef != nil && *folder.SyncRef == refID {
		result.FoldersCreated++
	}
	return folder, nil
}

// syncMaterial mirrors one material's folder and file references. Failures
// inside one material never abort its siblings.
func (ss *SyncService) syncMaterial(ctx context.Context, driveID, parentID primitive.ObjectID, material models.Material, result *models.SyncResult) {
	content, err := material.ParseContent()
	if err != nil {
		ss.logger.WithError(err).WithField("material_id", material.ID.Hex()).Warn("failed to parse material content, skipping")
		result.Skipped = append(result.Skipped, material.Title)
		return
	}
	if len(content.Files) == 0 && len(content.Links) == 0 {
		return
	}

	folder, err := ss.ensureMirrorFolder(ctx, driveID, &parentID, material.Title, material.ID, result)
	if err != nil {
		ss.logger.WithError(err).WithField("material_id", material.ID.Hex()).Warn("failed to ensure material folder, skipping")
		result.Skipped = append(result.Skipped, material.Title)
		return
	}

	rewritten := false
	for i, ref := range content.Files {
		record, err := ss.files.FindByStoredName(ctx, driveID, ref.StoredName)
		if err != nil {
			ss.logger.WithError(err).WithField("stored_name", ref.StoredName).Warn("failed to look up material file")
			result.Skipped = append(result.Skipped, ref.OriginalName)
			continue
		}
		switch {
		case record == nil:
			if err := ss.mirrorFile(ctx, driveID, &folder.ID, ref.OriginalName, ref.StoredName, ref.Size, ""); err != nil {
				ss.logger.WithError(err).WithField("stored_name", ref.StoredName).Warn("failed to mirror material file")
				result.Skipped = append(result.Skipped, ref.OriginalName)
				continue
			}
			record, err = ss.files.FindByStoredName(ctx, driveID, ref.StoredName)
			if err != nil || record == nil {
				continue
			}
			result.FilesCreated++
		case record.FolderID == nil || *record.FolderID != folder.ID:
			if err := ss.files.SetFolder(ctx, record.ID, &folder.ID); err != nil {
				ss.logger.WithError(err).WithField("file_id", record.ID.Hex()).Warn("failed to relocate material file")
				result.Skipped = append(result.Skipped, ref.OriginalName)
				continue
			}
			result.FilesMoved++
		}
		if content.Files[i].FileID != record.ID.Hex() {
			content.Files[i].FileID = record.ID.Hex()
			rewritten = true
		}
	}

	if rewritten {
		encoded, err := models.EncodeContent(content)
		if err != nil {
			ss.logger.WithError(err).WithField("material_id", material.ID.Hex()).Warn("failed to encode rewritten material content")
			return
		}
		if err := ss.subjects.SetMaterialContent(ctx, material.ID, encoded); err != nil {
			ss.logger.WithError(err).WithField("material_id", material.ID.Hex()).Warn("failed to store rewritten material content")
		}
	}
}

// mirrorFile creates a drive record over bytes the drive already owns. The
// stored name carries over unchanged and no storage is charged; the bytes
// were counted when they first entered the drive.
func (ss *SyncService) mirrorFile(ctx context.Context, driveID primitive.ObjectID, folderID *primitive.ObjectID, originalName, storedName string, size int64, hash string) error {
	now := ss.clock.Now()
	mimeType := utils.MimeTypeOf(originalName)
	file := &models.File{
		ID:           primitive.NewObjectID(),
		DriveID:      driveID,
		FolderID:     folderID,
		OriginalName: originalName,
		StoredName:   storedName,
		Size:         size,
		MimeType:     mimeType,
		FileType:     utils.FileTypeOf(mimeType),
		Hash:         hash,
		PhysicalPath: utils.PhysicalPathFor(storedName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := ss.files.Insert(ctx, file); err != nil {
		return fmt.Errorf("failed to insert mirror record: %v", err)
	}
	return nil
}

func (ss *SyncService) record(ctx context.Context, driveID, actorID primitive.ObjectID, subject *models.Subject, result *models.SyncResult) {
	_ = ss.activity.Insert(ctx, &models.Activity{
		ID:         primitive.NewObjectID(),
		DriveID:    driveID,
		ActorID:    actorID,
		Action:     models.ActionSync,
		TargetType: "subject",
		TargetID:   subject.ID,
		TargetName: subject.Name,
		Metadata: map[string]interface{}{
			"folders_created": result.FoldersCreated,
			"files_created":   result.FilesCreated,
			"files_moved":     result.FilesMoved,
		},
		CreatedAt: ss.clock.Now(),
	})
}
