package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/KakashiUchiha12/studyHi-sub002/models"
	"github.com/KakashiUchiha12/studyHi-sub002/storage"
	"github.com/KakashiUchiha12/studyHi-sub002/utils"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// mintAttempts bounds the stored-name re-mint loop when the unique index
// rejects a collision.
const mintAttempts = 3

// ImportService copies files, folders, or whole subjects from another
// user's drive into the caller's. Bytes are always physically duplicated
// with a freshly minted stored name; accounts never share physical files.
// Batches are best-effort: a per-item failure lands in the result's skipped
// list and the batch continues.
type ImportService struct {
	drives     DriveStore
	folders    *FolderService
	files      FileStore
	subjects   SubjectStore
	duplicates DuplicateDetector
	backend    storage.Interface
	activity   ActivityStore
	clock      Clock
	logger     *logrus.Logger
}

func NewImportService(drives DriveStore, folders *FolderService, files FileStore, subjects SubjectStore, duplicates DuplicateDetector, backend storage.Interface, activity ActivityStore, clock Clock, logger *logrus.Logger) *ImportService {
	return &ImportService{
		drives:     drives,
		folders:    folders,
		files:      files,
		subjects:   subjects,
		duplicates: duplicates,
		backend:    backend,
		activity:   activity,
		clock:      clock,
		logger:     logger,
	}
}

// resolveDrives checks the operation-fatal preconditions in order: the
// caller's drive must exist, the source drive must exist, and a source set
// to deny rejects the whole operation before any mutation.
func (is *ImportService) resolveDrives(ctx context.Context, destUserID, sourceUserID primitive.ObjectID) (dest, source *models.Drive, err error) {
	dest, err = is.drives.GetByUserID(ctx, destUserID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: destination drive", ErrNotFound)
	}
	source, err = is.drives.GetByUserID(ctx, sourceUserID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: source drive", ErrNotFound)
	}
	if source.AllowCopying == models.CopyDeny {
		return nil, nil, fmt.Errorf("%w: source drive does not allow copying", ErrPermissionDenied)
	}
	return dest, source, nil
}

// itemCopyable applies the per-item permission rule: private items need the
// source drive to allow copying outright, not just by approval.
func itemCopyable(source *models.Drive, isPublic bool) bool {
	return isPublic || source.AllowCopying == models.CopyAllow
}

// ImportFiles copies the given source files into the caller's drive, under
// destFolderID (nil = drive root).
func (is *ImportService) ImportFiles(ctx context.Context, actorID, sourceUserID primitive.ObjectID, fileIDs []primitive.ObjectID, destFolderID *primitive.ObjectID, skipDuplicates bool) (*models.ImportResult, error) {
	dest, source, err := is.resolveDrives(ctx, actorID, sourceUserID)
	if err != nil {
		return nil, err
	}
	if destFolderID != nil {
		if _, err := is.folders.GetFolder(ctx, dest.ID, *destFolderID); err != nil {
			return nil, fmt.Errorf("%w: destination folder", ErrNotFound)
		}
	}

	result := &models.ImportResult{}

	// Load sources in input order; a missing id is a skipped item, not a
	// batch failure.
	sources := make([]*models.File, len(fileIDs))
	for i, id := range fileIDs {
		file, err := is.files.GetByID(ctx, id)
		if err != nil || file.DriveID != source.ID || file.Trashed() {
			result.Skipped = append(result.Skipped, models.SkippedItem{
				SourceID: id.Hex(),
				Reason:   models.SkipReasonNotFound,
			})
			continue
		}
		sources[i] = file
	}

	dupResults, err := is.checkDuplicates(ctx, dest.ID, sources)
	if err != nil {
		return nil, err
	}

	copied := int64(0)
	for i, src := range sources {
		if src == nil {
			continue
		}
		outcome := is.importOneFile(ctx, dest, source, src, destFolderID, dupResults[i], skipDuplicates, copied, result)
		copied += outcome
		if outcome > 0 {
			if err := is.drives.IncrementStorage(ctx, dest.ID, outcome); err != nil {
				return nil, fmt.Errorf("failed to charge storage: %v", err)
			}
		}
	}
	result.TotalSizeCopied = copied
	return result, nil
}

// ImportFolder copies a source folder and its files. The destination
// folder is created first, so an all-duplicates source still yields the
// folder; duplicate detection runs once for the whole batch.
func (is *ImportService) ImportFolder(ctx context.Context, actorID, sourceUserID, sourceFolderID primitive.ObjectID, skipDuplicates bool) (*models.ImportResult, error) {
	dest, source, err := is.resolveDrives(ctx, actorID, sourceUserID)
	if err != nil {
		return nil, err
	}

	srcFolder, err := is.folders.GetFolder(ctx, source.ID, sourceFolderID)
	if err != nil {
		return nil, fmt.Errorf("%w: source folder", ErrNotFound)
	}
	if !itemCopyable(source, srcFolder.IsPublic) {
		return nil, fmt.Errorf("%w: source folder is private", ErrPermissionDenied)
	}

	destFolder, err := is.folders.EnsureFolder(ctx, dest.ID, nil, srcFolder.Name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination folder: %v", err)
	}

	result := &models.ImportResult{}
	result.Imported = append(result.Imported, models.ImportedItem{
		ID:       destFolder.ID.Hex(),
		SourceID: srcFolder.ID.Hex(),
		Name:     destFolder.Name,
		Type:     "folder",
	})

	contained, err := is.files.ListByFolder(ctx, source.ID, &sourceFolderID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list source folder: %v", err)
	}
	sources := make([]*models.File, len(contained))
	for i := range contained {
		sources[i] = &contained[i]
	}

	dupResults, err := is.checkDuplicates(ctx, dest.ID, sources)
	if err != nil {
		return nil, err
	}

	copied := int64(0)
	for i, src := range sources {
		outcome := is.importOneFile(ctx, dest, source, src, &destFolder.ID, dupResults[i], skipDuplicates, copied, result)
		copied += outcome
		if outcome > 0 {
			if err := is.drives.IncrementStorage(ctx, dest.ID, outcome); err != nil {
				return nil, fmt.Errorf("failed to charge storage: %v", err)
			}
		}
	}
	result.TotalSizeCopied = copied

	is.record(ctx, dest.ID, actorID, "folder", destFolder.ID, destFolder.Name, map[string]interface{}{
		"source_folder_id": srcFolder.ID.Hex(),
	})
	return result, nil
}

// ImportSubject copies a whole curriculum subject: its standalone files,
// chapters, materials, and the files those materials embed. The destination
// subject is reused when one with the same name already exists. Storage is
// charged once at the end, by the bytes actually copied.
func (is *ImportService) ImportSubject(ctx context.Context, actorID, sourceUserID, subjectID primitive.ObjectID, skipDuplicates bool) (*models.ImportResult, error) {
	dest, source, err := is.resolveDrives(ctx, actorID, sourceUserID)
	if err != nil {
		return nil, err
	}

	tree, err := is.subjects.GetTree(ctx, subjectID)
	if err != nil || tree.Subject.UserID != sourceUserID {
		return nil, fmt.Errorf("%w: subject %s", ErrNotFound, subjectID.Hex())
	}
	if !itemCopyable(source, tree.Subject.IsPublic) {
		return nil, fmt.Errorf("%w: subject is private", ErrPermissionDenied)
	}

	destSubject, err := is.subjects.FindByName(ctx, actorID, tree.Subject.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up destination subject: %v", err)
	}
	if destSubject == nil {
		now := is.clock.Now()
		destSubject = &models.Subject{
			ID:        primitive.NewObjectID(),
			UserID:    actorID,
			Name:      tree.Subject.Name,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := is.subjects.Create(ctx, destSubject); err != nil {
			return nil, fmt.Errorf("failed to create destination subject: %v", err)
		}
	}

	root, err := is.folders.EnsureFolder(ctx, dest.ID, nil, SubjectRootName(destSubject.Name), &destSubject.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create subject root folder: %v", err)
	}

	result := &models.ImportResult{}
	copied := int64(0)

	// Standalone subject files. A duplicate here is a stored-name match
	// anywhere in the drive or an original-name match in the root folder;
	// either alone settles it.
	for i := range tree.Files {
		src := &tree.Files[i]
		dup, err := is.subjectFileDuplicate(ctx, dest.ID, &root.ID, src.StoredName, src.OriginalName)
		if err != nil {
			return nil, err
		}
		if dup != nil {
			result.Duplicates = append(result.Duplicates, models.DuplicateItem{
				SourceID:      src.ID.Hex(),
				Name:          src.OriginalName,
				ExistingID:    dup.ID.Hex(),
				DuplicateType: dup.Type,
			})
			continue
		}
		newFile, outcome := is.copyIntoDrive(ctx, dest, source, src, &root.ID, src.OriginalName, copied, result)
		copied += outcome
		if newFile != nil {
			if err := is.subjects.AddSubjectFile(ctx, destSubject.ID, newFile.ID); err != nil {
				is.logger.WithError(err).WithField("file_id", newFile.ID.Hex()).Warn("failed to attach file to destination subject")
			}
		}
	}

	for _, chapter := range tree.Chapters {
		now := is.clock.Now()
		destChapter := &models.Chapter{
			ID:        primitive.NewObjectID(),
			SubjectID: destSubject.ID,
			Title:     chapter.Title,
			Order:     chapter.Order,
			CreatedAt: now,
		}
		if err := is.subjects.CreateChapter(ctx, destChapter); err != nil {
			return nil, fmt.Errorf("failed to create destination chapter: %v", err)
		}
		chapterFolder, err := is.folders.EnsureFolder(ctx, dest.ID, &root.ID, chapter.Title, &destChapter.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create chapter folder: %v", err)
		}
		for _, material := range tree.ChapterMaterials(chapter.ID) {
			copied += is.importMaterial(ctx, dest, source, destSubject.ID, &destChapter.ID, chapterFolder.ID, material, copied, result)
		}
	}

	// Subject-level materials mirror under the root folder.
	for _, material := range tree.SubjectLevelMaterials() {
		copied += is.importMaterial(ctx, dest, source, destSubject.ID, nil, root.ID, material, copied, result)
	}

	if copied > 0 {
		if err := is.drives.IncrementStorage(ctx, dest.ID, copied); err != nil {
			return nil, fmt.Errorf("failed to charge storage: %v", err)
		}
	}
	result.TotalSizeCopied = copied

	is.record(ctx, dest.ID, actorID, "subject", destSubject.ID, destSubject.Name, map[string]interface{}{
		"source_subject_id": tree.Subject.ID.Hex(),
		"bytes_copied":      copied,
	})
	return result, nil
}

// importMaterial copies one material and the files it embeds, rewriting
// the embedded references to the destination file ids. A malformed content
// payload isolates the material; siblings continue. Returns the bytes
// copied for this material.
func (is *ImportService) importMaterial(ctx context.Context, dest, source *models.Drive, destSubjectID primitive.ObjectID, destChapterID *primitive.ObjectID, parentFolderID primitive.ObjectID, material models.Material, copiedSoFar int64, result *models.ImportResult) int64 {
	content, err := material.ParseContent()
	if err != nil {
		is.logger.WithError(err).WithField("material_id", material.ID.Hex()).Warn("failed to parse material content, skipping")
		result.Skipped = append(result.Skipped, models.SkippedItem{
			SourceID: material.ID.Hex(),
			Name:     material.Title,
			Reason:   models.SkipReasonParseFailed,
		})
		return 0
	}

	now := is.clock.Now()
	destMaterial := &models.Material{
		ID:        primitive.NewObjectID(),
		SubjectID: destSubjectID,
		ChapterID: destChapterID,
		Title:     material.Title,
		Order:     material.Order,
		CreatedAt: now,
	}
	if err := is.subjects.CreateMaterial(ctx, destMaterial); err != nil {
		is.logger.WithError(err).WithField("material_id", material.ID.Hex()).Warn("failed to create destination material, skipping")
		result.Skipped = append(result.Skipped, models.SkippedItem{
			SourceID: material.ID.Hex(),
			Name:     material.Title,
			Reason:   models.SkipReasonCopyFailed,
			Detail:   err.Error(),
		})
		return 0
	}

	copied := int64(0)
	if len(content.Files) > 0 {
		materialFolder, err := is.folders.EnsureFolder(ctx, dest.ID, &parentFolderID, material.Title, &destMaterial.ID)
		if err != nil {
			is.logger.WithError(err).WithField("material_id", material.ID.Hex()).Warn("failed to create material folder, skipping")
			result.Skipped = append(result.Skipped, models.SkippedItem{
				SourceID: material.ID.Hex(),
				Name:     material.Title,
				Reason:   models.SkipReasonCopyFailed,
				Detail:   err.Error(),
			})
			return 0
		}

		for i, ref := range content.Files {
			srcFile, err := is.files.FindByStoredName(ctx, source.ID, ref.StoredName)
			if err != nil || srcFile == nil {
				result.Skipped = append(result.Skipped, models.SkippedItem{
					SourceID: ref.FileID,
					Name:     ref.OriginalName,
					Reason:   models.SkipReasonNotFound,
				})
				continue
			}

			dup, err := is.subjectFileDuplicate(ctx, dest.ID, &materialFolder.ID, srcFile.StoredName, srcFile.OriginalName)
			if err != nil {
				is.logger.WithError(err).Warn("duplicate check failed for material file")
				result.Skipped = append(result.Skipped, models.SkippedItem{
					SourceID: srcFile.ID.Hex(),
					Name:     srcFile.OriginalName,
					Reason:   models.SkipReasonCopyFailed,
					Detail:   err.Error(),
				})
				continue
			}
			if dup != nil {
				result.Duplicates = append(result.Duplicates, models.DuplicateItem{
					SourceID:      srcFile.ID.Hex(),
					Name:          srcFile.OriginalName,
					ExistingID:    dup.ID.Hex(),
					DuplicateType: dup.Type,
				})
				content.Files[i].FileID = dup.ID.Hex()
				content.Files[i].StoredName = dup.StoredName
				continue
			}

			newFile, outcome := is.copyIntoDrive(ctx, dest, source, srcFile, &materialFolder.ID, srcFile.OriginalName, copiedSoFar+copied, result)
			copied += outcome
			if newFile != nil {
				content.Files[i].FileID = newFile.ID.Hex()
				content.Files[i].StoredName = newFile.StoredName
			}
		}
	}

	encoded, err := models.EncodeContent(content)
	if err != nil {
		is.logger.WithError(err).WithField("material_id", destMaterial.ID.Hex()).Warn("failed to encode material content")
		return copied
	}
	if err := is.subjects.SetMaterialContent(ctx, destMaterial.ID, encoded); err != nil {
		is.logger.WithError(err).WithField("material_id", destMaterial.ID.Hex()).Warn("failed to store material content")
	}
	return copied
}

// subjectDup describes an existing destination file that settles a
// subject-import duplicate check.
type subjectDup struct {
	ID         primitive.ObjectID
	StoredName string
	Type       string
}

// subjectFileDuplicate applies the subject-import duplicate rule: a
// stored-name match anywhere in the drive, or an original-name match in
// the target folder, either alone counts.
func (is *ImportService) subjectFileDuplicate(ctx context.Context, driveID primitive.ObjectID, folderID *primitive.ObjectID, storedName, originalName string) (*subjectDup, error) {
	byStored, err := is.files.FindByStoredName(ctx, driveID, storedName)
	if err != nil {
		return nil, fmt.Errorf("failed to check stored-name duplicate: %v", err)
	}
	if byStored != nil {
		return &subjectDup{ID: byStored.ID, StoredName: byStored.StoredName, Type: "exact"}, nil
	}
	byName, err := is.files.FindByName(ctx, driveID, folderID, originalName)
	if err != nil {
		return nil, fmt.Errorf("failed to check name duplicate: %v", err)
	}
	if byName != nil {
		return &subjectDup{ID: byName.ID, StoredName: byName.StoredName, Type: "name"}, nil
	}
	return nil, nil
}

// checkDuplicates runs one batched detector call over the non-nil sources;
// results stay positionally aligned with the input slice.
func (is *ImportService) checkDuplicates(ctx context.Context, destDriveID primitive.ObjectID, sources []*models.File) ([]DuplicateResult, error) {
	candidates := make([]FileCandidate, 0, len(sources))
	indexes := make([]int, 0, len(sources))
	for i, src := range sources {
		if src == nil {
			continue
		}
		candidates = append(candidates, FileCandidate{Name: src.OriginalName, Hash: src.Hash, Size: src.Size})
		indexes = append(indexes, i)
	}

	aligned := make([]DuplicateResult, len(sources))
	if len(candidates) == 0 {
		return aligned, nil
	}
	results, err := is.duplicates.CheckBatch(ctx, destDriveID, candidates)
	if err != nil {
		return nil, fmt.Errorf("failed to check duplicates: %v", err)
	}
	for j, res := range results {
		aligned[indexes[j]] = res
	}
	return aligned, nil
}

// importOneFile applies the per-file pipeline: permission, duplicate
// policy, quota, copy. Returns the bytes copied (zero when the item was a
// duplicate or was skipped).
func (is *ImportService) importOneFile(ctx context.Context, dest, source *models.Drive, src *models.File, destFolderID *primitive.ObjectID, dup DuplicateResult, skipDuplicates bool, copiedSoFar int64, result *models.ImportResult) int64 {
	name := src.OriginalName
	if dup.IsDuplicate {
		if skipDuplicates {
			result.Duplicates = append(result.Duplicates, models.DuplicateItem{
				SourceID:      src.ID.Hex(),
				Name:          src.OriginalName,
				ExistingID:    dup.ExistingFileID.Hex(),
				DuplicateType: dup.DuplicateType,
			})
			return 0
		}
		name = utils.CopyVariantName(name)
	}

	_, outcome := is.copyIntoDrive(ctx, dest, source, src, destFolderID, name, copiedSoFar, result)
	return outcome
}

// copyIntoDrive performs the physical copy and record insert for one file.
// The record is written only after the copy confirms, so a failed or
// cancelled copy leaves no orphan record. The inserted file and the bytes
// copied come back; a skip returns (nil, 0) after recording the reason.
func (is *ImportService) copyIntoDrive(ctx context.Context, dest, source *models.Drive, src *models.File, destFolderID *primitive.ObjectID, name string, copiedSoFar int64, result *models.ImportResult) (*models.File, int64) {
	if !itemCopyable(source, src.IsPublic) {
		result.Skipped = append(result.Skipped, models.SkippedItem{
			SourceID: src.ID.Hex(),
			Name:     src.OriginalName,
			Reason:   models.SkipReasonPermission,
		})
		return nil, 0
	}
	if utils.WouldExceed(dest.StorageUsed+copiedSoFar, dest.StorageLimit, src.Size) {
		result.Skipped = append(result.Skipped, models.SkippedItem{
			SourceID: src.ID.Hex(),
			Name:     src.OriginalName,
			Reason:   models.SkipReasonQuota,
		})
		return nil, 0
	}

	file, err := is.copyPhysical(ctx, dest.ID, destFolderID, src, name)
	if err != nil {
		is.logger.WithError(err).WithField("source_file_id", src.ID.Hex()).Warn("failed to copy file")
		result.Skipped = append(result.Skipped, models.SkippedItem{
			SourceID: src.ID.Hex(),
			Name:     src.OriginalName,
			Reason:   models.SkipReasonCopyFailed,
			Detail:   err.Error(),
		})
		return nil, 0
	}

	result.Imported = append(result.Imported, models.ImportedItem{
		ID:       file.ID.Hex(),
		SourceID: src.ID.Hex(),
		Name:     file.OriginalName,
		Type:     "file",
		Size:     file.Size,
	})
	is.record(ctx, dest.ID, dest.UserID, "file", file.ID, file.OriginalName, map[string]interface{}{
		"source_file_id": src.ID.Hex(),
	})
	return file, file.Size
}

// copyPhysical mints a stored name, duplicates the bytes, and inserts the
// record. A unique-index collision on the stored name deletes the copied
// bytes and re-mints; the loop is bounded.
func (is *ImportService) copyPhysical(ctx context.Context, destDriveID primitive.ObjectID, destFolderID *primitive.ObjectID, src *models.File, name string) (*models.File, error) {
	var lastErr error
	for attempt := 0; attempt < mintAttempts; attempt++ {
		storedName := utils.NewStoredName(src.OriginalName)
		destPath := utils.PhysicalPathFor(storedName)

		if err := is.backend.Copy(ctx, src.PhysicalPath, destPath); err != nil {
			return nil, fmt.Errorf("failed to copy bytes: %v", err)
		}

		now := is.clock.Now()
		file := &models.File{
			ID:           primitive.NewObjectID(),
			DriveID:      destDriveID,
			FolderID:     destFolderID,
			OriginalName: name,
			StoredName:   storedName,
			Size:         src.Size,
			MimeType:     src.MimeType,
			FileType:     src.FileType,
			Hash:         src.Hash,
			PhysicalPath: destPath,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		err := is.files.Insert(ctx, file)
		if err == nil {
			return file, nil
		}

		// Copied bytes for a record that will not exist must not linger.
		if derr := is.backend.Delete(ctx, destPath); derr != nil {
			is.logger.WithError(derr).WithField("path", destPath).Warn("failed to clean up orphaned copy")
		}
		if !errors.Is(err, ErrStoredNameTaken) {
			return nil, fmt.Errorf("failed to insert file record: %v", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("failed to mint unique stored name: %v", lastErr)
}

func (is *ImportService) record(ctx context.Context, driveID, actorID primitive.ObjectID, targetType string, targetID primitive.ObjectID, targetName string, metadata map[string]interface{}) {
	_ = is.activity.Insert(ctx, &models.Activity{
		ID:         primitive.NewObjectID(),
		DriveID:    driveID,
		ActorID:    actorID,
		Action:     models.ActionImport,
		TargetType: targetType,
		TargetID:   targetID,
		TargetName: targetName,
		Metadata:   metadata,
		CreatedAt:  is.clock.Now(),
	})
}
