package services

import (
	"context"
	"testing"
	"time"

	"github.com/KakashiUchiha12/studyHi-sub002/models"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPurgeReleasesStorageExactlyOnce(t *testing.T) {
	t.Parallel()

	env := newTestEnv(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	drive := env.addDrive(primitive.NewObjectID(), 1000, 1000, models.CopyApproval, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC))
	actor := drive.UserID
	file := env.addFile(drive, nil, "report.pdf", "aa11report", []byte("0123456789"), false)

	err := env.trashSvc.TrashFile(context.Background(), actor, drive.ID, file.ID)
	require.NoError(t, err)

	// Trashing alone releases nothing.
	d, _ := env.drives.GetByID(context.Background(), drive.ID)
	require.Equal(t, int64(10), d.StorageUsed)

	err = env.trashSvc.PurgeFile(context.Background(), actor, drive.ID, file.ID)
	require.NoError(t, err)

	d, _ = env.drives.GetByID(context.Background(), drive.ID)
	require.Equal(t, int64(0), d.StorageUsed)

	exists, _ := env.backend.Exists(context.Background(), file.PhysicalPath)
	require.False(t, exists)

	// A second purge of the same id cannot drive the counter negative.
	err = env.trashSvc.PurgeFile(context.Background(), actor, drive.ID, file.ID)
	require.ErrorIs(t, err, ErrNotFound)
	d, _ = env.drives.GetByID(context.Background(), drive.ID)
	require.Equal(t, int64(0), d.StorageUsed)
}

func TestRestoreReparentsWhenFolderTrashed(t *testing.T) {
	t.Parallel()

	env := newTestEnv(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	drive := env.addDrive(primitive.NewObjectID(), 1000, 1000, models.CopyApproval, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC))
	actor := drive.UserID

	folder, err := env.folderSvc.EnsureFolder(context.Background(), drive.ID, nil, "Projects", nil)
	require.NoError(t, err)
	file := env.addFile(drive, &folder.ID, "plan.txt", "bb22plan00", []byte("plan"), false)

	require.NoError(t, env.trashSvc.TrashFile(context.Background(), actor, drive.ID, file.ID))
	require.NoError(t, env.trashSvc.TrashFolder(context.Background(), actor, drive.ID, folder.ID))

	require.NoError(t, env.trashSvc.RestoreFile(context.Background(), actor, drive.ID, file.ID))

	restored, err := env.files.GetByID(context.Background(), file.ID)
	require.NoError(t, err)
	require.False(t, restored.Trashed())
	require.Nil(t, restored.FolderID) // landed at the drive root
}

func TestPurgeExpiredRetentionBoundary(t *testing.T) {
	t.Parallel()

	env := newTestEnv(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	drive := env.addDrive(primitive.NewObjectID(), 1000, 1000, models.CopyApproval, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	actor := drive.UserID

	old := env.addFile(drive, nil, "old.txt", "cc33old000", []byte("old"), false)
	fresh := env.addFile(drive, nil, "fresh.txt", "dd44fresh0", []byte("fresh"), false)

	require.NoError(t, env.trashSvc.TrashFile(context.Background(), actor, drive.ID, old.ID))

	// Trash the second file one second later; at the sweep the first sits
	// exactly on the 30-day boundary (eligible, inclusive) and the second
	// one second short of it.
	env.clock.Advance(1 * time.Second)
	require.NoError(t, env.trashSvc.TrashFile(context.Background(), actor, drive.ID, fresh.ID))

	env.clock.Advance(30*24*time.Hour - time.Second)

	purged, err := env.trashSvc.PurgeExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, purged)

	_, err = env.files.GetByID(context.Background(), old.ID)
	require.ErrorIs(t, err, ErrNotFound)

	kept, err := env.files.GetByID(context.Background(), fresh.ID)
	require.NoError(t, err)
	require.True(t, kept.Trashed())
}

func TestPurgeFolderReleasesContainedFiles(t *testing.T) {
	t.Parallel()

	env := newTestEnv(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	drive := env.addDrive(primitive.NewObjectID(), 1000, 1000, models.CopyApproval, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC))
	actor := drive.UserID

	folder, err := env.folderSvc.EnsureFolder(context.Background(), drive.ID, nil, "Bulk", nil)
	require.NoError(t, err)
	env.addFile(drive, &folder.ID, "one.txt", "ee55one000", []byte("aaaa"), false)
	env.addFile(drive, &folder.ID, "two.txt", "ff66two000", []byte("bbbbbb"), false)

	require.NoError(t, env.trashSvc.TrashFolder(context.Background(), actor, drive.ID, folder.ID))
	require.NoError(t, env.trashSvc.PurgeFolder(context.Background(), actor, drive.ID, folder.ID))

	d, _ := env.drives.GetByID(context.Background(), drive.ID)
	require.Equal(t, int64(0), d.StorageUsed)

	_, err = env.folders.GetByID(context.Background(), folder.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPurgeFolderConsumesUntrashedSubtree(t *testing.T) {
	t.Parallel()

	env := newTestEnv(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	drive := env.addDrive(primitive.NewObjectID(), 1000, 1000, models.CopyApproval, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC))
	actor := drive.UserID

	parent, err := env.folderSvc.EnsureFolder(context.Background(), drive.ID, nil, "Archive", nil)
	require.NoError(t, err)
	child, err := env.folderSvc.EnsureFolder(context.Background(), drive.ID, &parent.ID, "Photos", nil)
	require.NoError(t, err)

	direct := env.addFile(drive, &parent.ID, "notes.txt", "aa77notes0", []byte("notes"), false)
	nested := env.addFile(drive, &child.ID, "pic.jpg", "bb88pic000", []byte("picture"), false)

	// Only the root goes to the trash; the subtree keeps its live markers.
	require.NoError(t, env.trashSvc.TrashFolder(context.Background(), actor, drive.ID, parent.ID))

	require.NoError(t, env.trashSvc.PurgeFolder(context.Background(), actor, drive.ID, parent.ID))

	_, err = env.folders.GetByID(context.Background(), parent.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = env.folders.GetByID(context.Background(), child.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = env.files.GetByID(context.Background(), direct.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = env.files.GetByID(context.Background(), nested.ID)
	require.ErrorIs(t, err, ErrNotFound)

	d, _ := env.drives.GetByID(context.Background(), drive.ID)
	require.Equal(t, int64(0), d.StorageUsed)
}

func TestRestoreFolderRewritesDescendantPaths(t *testing.T) {
	t.Parallel()

	env := newTestEnv(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	drive := env.addDrive(primitive.NewObjectID(), 1000, 1000, models.CopyApproval, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC))
	actor := drive.UserID

	a, err := env.folderSvc.EnsureFolder(context.Background(), drive.ID, nil, "a", nil)
	require.NoError(t, err)
	b, err := env.folderSvc.EnsureFolder(context.Background(), drive.ID, &a.ID, "b", nil)
	require.NoError(t, err)
	c, err := env.folderSvc.EnsureFolder(context.Background(), drive.ID, &b.ID, "c", nil)
	require.NoError(t, err)

	require.NoError(t, env.trashSvc.TrashFolder(context.Background(), actor, drive.ID, b.ID))
	require.NoError(t, env.trashSvc.TrashFolder(context.Background(), actor, drive.ID, a.ID))

	// a is trashed, so b lands at the root and drags its subtree's paths
	// along.
	require.NoError(t, env.trashSvc.RestoreFolder(context.Background(), actor, drive.ID, b.ID))

	restored, err := env.folders.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	require.Nil(t, restored.ParentID)
	require.Equal(t, "/b", restored.Path)

	descendant, err := env.folders.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, "/b/c", descendant.Path)
}

func TestPurgeExpiredSweepsFolders(t *testing.T) {
	t.Parallel()

	env := newTestEnv(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	drive := env.addDrive(primitive.NewObjectID(), 1000, 1000, models.CopyApproval, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	actor := drive.UserID

	old, err := env.folderSvc.EnsureFolder(context.Background(), drive.ID, nil, "Stale", nil)
	require.NoError(t, err)
	contained := env.addFile(drive, &old.ID, "inside.txt", "cc99inside", []byte("inside"), false)

	require.NoError(t, env.trashSvc.TrashFolder(context.Background(), actor, drive.ID, old.ID))

	env.clock.Advance(1 * time.Second)
	fresh, err := env.folderSvc.EnsureFolder(context.Background(), drive.ID, nil, "Recent", nil)
	require.NoError(t, err)
	require.NoError(t, env.trashSvc.TrashFolder(context.Background(), actor, drive.ID, fresh.ID))

	env.clock.Advance(30*24*time.Hour - time.Second)

	purged, err := env.trashSvc.PurgeExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, purged)

	_, err = env.folders.GetByID(context.Background(), old.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = env.files.GetByID(context.Background(), contained.ID)
	require.ErrorIs(t, err, ErrNotFound)

	kept, err := env.folders.GetByID(context.Background(), fresh.ID)
	require.NoError(t, err)
	require.True(t, kept.Trashed())

	d, _ := env.drives.GetByID(context.Background(), drive.ID)
	require.Equal(t, int64(0), d.StorageUsed)
}
