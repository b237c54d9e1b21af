package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/KakashiUchiha12/studyHi-sub002/models"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestImportFileDuplicateSkipped(t *testing.T) {
	t.Parallel()

	env := newTestEnv(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	resetAt := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	userA := primitive.NewObjectID()
	userB := primitive.NewObjectID()
	driveA := env.addDrive(userA, 10000, 10000, models.CopyApproval, resetAt)
	driveB := env.addDrive(userB, 10000, 10000, models.CopyAllow, resetAt)

	content := []byte("identical bytes")
	srcFile := env.addFile(driveB, nil, "notes.txt", "aa01source", content, true)
	env.addFile(driveA, nil, "notes.txt", "bb02mine00", content, false)

	result, err := env.importSvc.ImportFiles(context.Background(), userA, userB, []primitive.ObjectID{srcFile.ID}, nil, true)
	require.NoError(t, err)

	require.Len(t, result.Duplicates, 1)
	require.Equal(t, "exact", result.Duplicates[0].DuplicateType)
	require.Empty(t, result.Imported)
	require.Empty(t, result.Skipped)
	require.Equal(t, int64(0), result.TotalSizeCopied)

	d, _ := env.drives.GetByID(context.Background(), driveA.ID)
	require.Equal(t, int64(len(content)), d.StorageUsed) // only the original
}

func TestImportFolderDeniedSourceAbortsWholeBatch(t *testing.T) {
	t.Parallel()

	env := newTestEnv(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	resetAt := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	userA := primitive.NewObjectID()
	userB := primitive.NewObjectID()
	driveA := env.addDrive(userA, 10000, 10000, models.CopyApproval, resetAt)
	driveB := env.addDrive(userB, 10000, 10000, models.CopyDeny, resetAt)

	folder, err := env.folderSvc.EnsureFolder(context.Background(), driveB.ID, nil, "Shared", nil)
	require.NoError(t, err)
	for i, sn := range []string{"cc01file00", "cc02file00", "cc03file00", "cc04file00", "cc05file00"} {
		env.addFile(driveB, &folder.ID, sn+".txt", sn, []byte(strings.Repeat("x", i+1)), true)
	}

	_, err = env.importSvc.ImportFolder(context.Background(), userA, userB, folder.ID, true)
	require.ErrorIs(t, err, ErrPermissionDenied)

	// Nothing was touched in the destination.
	d, _ := env.drives.GetByID(context.Background(), driveA.ID)
	require.Equal(t, int64(0), d.StorageUsed)
	count, _ := env.files.CountByDrive(context.Background(), driveA.ID)
	require.Equal(t, 0, count)
	folders, _ := env.folders.CountByDrive(context.Background(), driveA.ID)
	require.Equal(t, 0, folders)
}

func TestImportFileCopyVariantWhenNotSkipping(t *testing.T) {
	t.Parallel()

	env := newTestEnv(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	resetAt := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	userA := primitive.NewObjectID()
	userB := primitive.NewObjectID()
	driveA := env.addDrive(userA, 10000, 10000, models.CopyApproval, resetAt)
	driveB := env.addDrive(userB, 10000, 10000, models.CopyAllow, resetAt)

	content := []byte("same payload")
	srcFile := env.addFile(driveB, nil, "draft.txt", "dd01src000", content, true)
	env.addFile(driveA, nil, "draft.txt", "ee02dst000", content, false)

	result, err := env.importSvc.ImportFiles(context.Background(), userA, userB, []primitive.ObjectID{srcFile.ID}, nil, false)
	require.NoError(t, err)

	require.Len(t, result.Imported, 1)
	require.Empty(t, result.Duplicates)
	require.Equal(t, "draft (Copy).txt", result.Imported[0].Name)
	require.Equal(t, int64(len(content)), result.TotalSizeCopied)

	imported, err := env.files.GetByID(context.Background(), mustOID(t, result.Imported[0].ID))
	require.NoError(t, err)
	require.NotEqual(t, srcFile.StoredName, imported.StoredName)
	require.NotEqual(t, srcFile.PhysicalPath, imported.PhysicalPath)
}

func TestImportFilesPerItemIsolation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	resetAt := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	userA := primitive.NewObjectID()
	userB := primitive.NewObjectID()
	env.addDrive(userA, 10000, 10000, models.CopyApproval, resetAt)
	driveB := env.addDrive(userB, 10000, 10000, models.CopyApproval, resetAt)

	public1 := env.addFile(driveB, nil, "a.txt", "ff01pub000", []byte("aaa"), true)
	private := env.addFile(driveB, nil, "b.txt", "ff02priv00", []byte("bbb"), false)
	public2 := env.addFile(driveB, nil, "c.txt", "ff03pub000", []byte("ccc"), true)

	result, err := env.importSvc.ImportFiles(context.Background(), userA, userB,
		[]primitive.ObjectID{public1.ID, private.ID, public2.ID}, nil, true)
	require.NoError(t, err)

	// The private item needs an outright "allow" policy; its failure never
	// touches its neighbors.
	require.Len(t, result.Imported, 2)
	require.Len(t, result.Skipped, 1)
	require.Equal(t, models.SkipReasonPermission, result.Skipped[0].Reason)
	require.Equal(t, private.ID.Hex(), result.Skipped[0].SourceID)
	require.Equal(t, int64(6), result.TotalSizeCopied)
}

func TestImportFilesQuotaExceededPerItem(t *testing.T) {
	t.Parallel()

	env := newTestEnv(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	resetAt := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	userA := primitive.NewObjectID()
	userB := primitive.NewObjectID()
	driveA := env.addDrive(userA, 10, 10000, models.CopyApproval, resetAt)
	driveB := env.addDrive(userB, 10000, 10000, models.CopyAllow, resetAt)

	small := env.addFile(driveB, nil, "small.txt", "aa11small0", []byte("12345678"), true)
	big := env.addFile(driveB, nil, "big.txt", "aa12big000", []byte("1234567890x"), true)

	result, err := env.importSvc.ImportFiles(context.Background(), userA, userB,
		[]primitive.ObjectID{small.ID, big.ID}, nil, true)
	require.NoError(t, err)

	require.Len(t, result.Imported, 1)
	require.Equal(t, "small.txt", result.Imported[0].Name)
	require.Len(t, result.Skipped, 1)
	require.Equal(t, models.SkipReasonQuota, result.Skipped[0].Reason)

	d, _ := env.drives.GetByID(context.Background(), driveA.ID)
	require.Equal(t, int64(8), d.StorageUsed)
}

func TestImportFolderCreatesDestinationFirst(t *testing.T) {
	t.Parallel()

	env := newTestEnv(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	resetAt := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	userA := primitive.NewObjectID()
	userB := primitive.NewObjectID()
	driveA := env.addDrive(userA, 10000, 10000, models.CopyApproval, resetAt)
	driveB := env.addDrive(userB, 10000, 10000, models.CopyAllow, resetAt)

	content := []byte("dup bytes")
	folder, err := env.folderSvc.EnsureFolder(context.Background(), driveB.ID, nil, "Papers", nil)
	require.NoError(t, err)
	env.addFile(driveB, &folder.ID, "paper.pdf", "bb11paper0", content, true)
	env.addFile(driveA, nil, "paper.pdf", "bb12paper0", content, false)

	result, err := env.importSvc.ImportFolder(context.Background(), userA, userB, folder.ID, true)
	require.NoError(t, err)

	// The folder lands even though its only file was a duplicate.
	require.Len(t, result.Imported, 1)
	require.Equal(t, "folder", result.Imported[0].Type)
	require.Len(t, result.Duplicates, 1)
	require.Equal(t, int64(0), result.TotalSizeCopied)

	_, err = env.folderSvc.EnsureFolder(context.Background(), driveA.ID, nil, "Papers", nil)
	require.NoError(t, err)
	count, _ := env.folders.CountByDrive(context.Background(), driveA.ID)
	require.Equal(t, 1, count)
}

func TestImportSubjectChargesStorageOnce(t *testing.T) {
	t.Parallel()

	env := newTestEnv(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	resetAt := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	userA := primitive.NewObjectID()
	userB := primitive.NewObjectID()
	driveA := env.addDrive(userA, 10000, 10000, models.CopyApproval, resetAt)
	driveB := env.addDrive(userB, 10000, 10000, models.CopyAllow, resetAt)

	now := env.clock.Now()
	subject := &models.Subject{ID: primitive.NewObjectID(), UserID: userB, Name: "Physics", IsPublic: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, env.subjects.Create(context.Background(), subject))

	standalone := env.addFile(driveB, nil, "syllabus.pdf", "cc11syll00", []byte("syllabus!"), true)
	require.NoError(t, env.subjects.AddSubjectFile(context.Background(), subject.ID, standalone.ID))

	chapter := models.Chapter{ID: primitive.NewObjectID(), SubjectID: subject.ID, Title: "Mechanics", Order: 0, CreatedAt: now}
	require.NoError(t, env.subjects.CreateChapter(context.Background(), &chapter))

	matFile := env.addFile(driveB, nil, "lab.pdf", "cc12lab000", []byte("lab notes"), true)
	content, err := models.EncodeContent(&models.MaterialContent{
		Files: []models.MaterialFileRef{{
			FileID:       matFile.ID.Hex(),
			StoredName:   matFile.StoredName,
			OriginalName: matFile.OriginalName,
			Size:         matFile.Size,
		}},
	})
	require.NoError(t, err)
	material := models.Material{ID: primitive.NewObjectID(), SubjectID: subject.ID, ChapterID: &chapter.ID, Title: "Lab", Order: 0, Content: content, CreatedAt: now}
	require.NoError(t, env.subjects.CreateMaterial(context.Background(), &material))

	result, err := env.importSvc.ImportSubject(context.Background(), userA, userB, subject.ID, true)
	require.NoError(t, err)

	require.Len(t, result.Imported, 2)
	wantBytes := standalone.Size + matFile.Size
	require.Equal(t, wantBytes, result.TotalSizeCopied)

	d, _ := env.drives.GetByID(context.Background(), driveA.ID)
	require.Equal(t, wantBytes, d.StorageUsed)

	// The destination got its own subject, pointing at the copied files.
	destSubject, err := env.subjects.FindByName(context.Background(), userA, "Physics")
	require.NoError(t, err)
	require.NotNil(t, destSubject)
	require.Len(t, destSubject.FileIDs, 1)
	require.NotEqual(t, standalone.ID, destSubject.FileIDs[0])

	// Re-importing finds everything already there.
	again, err := env.importSvc.ImportSubject(context.Background(), userA, userB, subject.ID, true)
	require.NoError(t, err)
	require.Empty(t, again.Imported)
	require.Equal(t, int64(0), again.TotalSizeCopied)
	d, _ = env.drives.GetByID(context.Background(), driveA.ID)
	require.Equal(t, wantBytes, d.StorageUsed)
}

func mustOID(t *testing.T, hex string) primitive.ObjectID {
	t.Helper()
	id, err := primitive.ObjectIDFromHex(hex)
	require.NoError(t, err)
	return id
}
