package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/KakashiUchiha12/studyHi-sub002/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeClock hands out a fixed instant so reset and retention schedules are
// deterministic under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func oidPtrEq(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// memDrives is an in-memory DriveStore with the same atomicity contract as
// the mongo implementation.
type memDrives struct {
	mu     sync.Mutex
	drives map[primitive.ObjectID]*models.Drive
}

func newMemDrives() *memDrives {
	return &memDrives{drives: make(map[primitive.ObjectID]*models.Drive)}
}

func (m *memDrives) GetByID(_ context.Context, id primitive.ObjectID) (*models.Drive, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drives[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memDrives) GetByUserID(_ context.Context, userID primitive.ObjectID) (*models.Drive, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.drives {
		if d.UserID == userID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memDrives) Create(_ context.Context, drive *models.Drive) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *drive
	m.drives[drive.ID] = &cp
	return nil
}

func (m *memDrives) SetCopyPolicy(_ context.Context, id primitive.ObjectID, policy models.CopyPolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drives[id]
	if !ok {
		return ErrNotFound
	}
	d.AllowCopying = policy
	return nil
}

func (m *memDrives) IncrementStorage(_ context.Context, id primitive.ObjectID, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drives[id]
	if !ok {
		return ErrNotFound
	}
	d.StorageUsed += delta
	if d.StorageUsed < 0 {
		d.StorageUsed = 0
	}
	return nil
}

func (m *memDrives) ResetBandwidth(_ context.Context, id primitive.ObjectID, prevResetAt time.Time, used int64, nextResetAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drives[id]
	if !ok {
		return false, ErrNotFound
	}
	if !d.BandwidthResetAt.Equal(prevResetAt) {
		return false, nil
	}
	d.BandwidthUsed = used
	d.BandwidthResetAt = nextResetAt
	return true, nil
}

func (m *memDrives) ConsumeBandwidth(_ context.Context, id primitive.ObjectID, bytes int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drives[id]
	if !ok {
		return false, ErrNotFound
	}
	if d.BandwidthUsed+bytes > d.BandwidthLimit {
		return false, nil
	}
	d.BandwidthUsed += bytes
	return true, nil
}

// memFolders is an in-memory FolderStore.
type memFolders struct {
	mu      sync.Mutex
	folders map[primitive.ObjectID]*models.Folder
}

func newMemFolders() *memFolders {
	return &memFolders{folders: make(map[primitive.ObjectID]*models.Folder)}
}

func (m *memFolders) all() []*models.Folder {
	out := make([]*models.Folder, 0, len(m.folders))
	for _, f := range m.folders {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (m *memFolders) GetByID(_ context.Context, id primitive.ObjectID) (*models.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.folders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *memFolders) FindChild(_ context.Context, driveID primitive.ObjectID, parentID *primitive.ObjectID, name string) (*models.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.all() {
		if f.DriveID == driveID && oidPtrEq(f.ParentID, parentID) && f.Name == name && f.DeletedAt == nil {
			cp := *f
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memFolders) FindBySyncRef(_ context.Context, driveID, refID primitive.ObjectID) (*models.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.all() {
		if f.DriveID == driveID && f.SyncRef != nil && *f.SyncRef == refID {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memFolders) Insert(_ context.Context, folder *models.Folder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.folders {
		if f.DriveID == folder.DriveID && oidPtrEq(f.ParentID, folder.ParentID) && f.Name == folder.Name && f.DeletedAt == nil {
			return fmt.Errorf("duplicate folder name")
		}
	}
	cp := *folder
	m.folders[folder.ID] = &cp
	return nil
}

func (m *memFolders) ListChildren(_ context.Context, driveID primitive.ObjectID, parentID *primitive.ObjectID, includeTrashed bool) ([]models.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Folder
	for _, f := range m.all() {
		if f.DriveID == driveID && oidPtrEq(f.ParentID, parentID) && (includeTrashed || f.DeletedAt == nil) {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *memFolders) ListByPathPrefix(_ context.Context, driveID primitive.ObjectID, prefix string) ([]models.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Folder
	for _, f := range m.all() {
		if f.DriveID == driveID && len(f.Path) >= len(prefix) && f.Path[:len(prefix)] == prefix {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *memFolders) SetName(_ context.Context, id primitive.ObjectID, name, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.folders[id]
	if !ok {
		return ErrNotFound
	}
	f.Name = name
	f.Path = path
	return nil
}

func (m *memFolders) SetParent(_ context.Context, id primitive.ObjectID, parentID *primitive.ObjectID, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.folders[id]
	if !ok {
		return ErrNotFound
	}
	f.ParentID = parentID
	f.Path = path
	return nil
}

func (m *memFolders) SetPath(_ context.Context, id primitive.ObjectID, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.folders[id]
	if !ok {
		return ErrNotFound
	}
	f.Path = path
	return nil
}

func (m *memFolders) SetDeleted(_ context.Context, id primitive.ObjectID, deletedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.folders[id]
	if !ok {
		return ErrNotFound
	}
	f.DeletedAt = deletedAt
	return nil
}

func (m *memFolders) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.folders, id)
	return nil
}

func (m *memFolders) ListTrashed(_ context.Context, driveID primitive.ObjectID) ([]models.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Folder
	for _, f := range m.all() {
		if f.DriveID == driveID && f.DeletedAt != nil {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *memFolders) ListTrashedBefore(_ context.Context, cutoff time.Time) ([]models.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Folder
	for _, f := range m.all() {
		if f.DeletedAt != nil && !f.DeletedAt.After(cutoff) {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *memFolders) CountByDrive(_ context.Context, driveID primitive.ObjectID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, f := range m.folders {
		if f.DriveID == driveID && f.DeletedAt == nil {
			n++
		}
	}
	return n, nil
}

// memFiles is an in-memory FileStore enforcing global stored-name
// uniqueness the way the mongo unique index does.
type memFiles struct {
	mu          sync.Mutex
	files       map[primitive.ObjectID]*models.File
	storedNames map[string]primitive.ObjectID
	order       []primitive.ObjectID
}

func newMemFiles() *memFiles {
	return &memFiles{
		files:       make(map[primitive.ObjectID]*models.File),
		storedNames: make(map[string]primitive.ObjectID),
	}
}

func (m *memFiles) inOrder() []*models.File {
	out := make([]*models.File, 0, len(m.order))
	for _, id := range m.order {
		if f, ok := m.files[id]; ok {
			out = append(out, f)
		}
	}
	return out
}

func (m *memFiles) GetByID(_ context.Context, id primitive.ObjectID) (*models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *memFiles) ListByFolder(_ context.Context, driveID primitive.ObjectID, folderID *primitive.ObjectID, includeTrashed bool) ([]models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.File
	for _, f := range m.inOrder() {
		if f.DriveID == driveID && oidPtrEq(f.FolderID, folderID) && (includeTrashed || f.DeletedAt == nil) {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *memFiles) FindByStoredName(_ context.Context, driveID primitive.ObjectID, storedName string) (*models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.inOrder() {
		if f.DriveID == driveID && f.StoredName == storedName && f.DeletedAt == nil {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memFiles) FindByName(_ context.Context, driveID primitive.ObjectID, folderID *primitive.ObjectID, originalName string) (*models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.inOrder() {
		if f.DriveID == driveID && oidPtrEq(f.FolderID, folderID) && f.OriginalName == originalName && f.DeletedAt == nil {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memFiles) FindByOriginalName(_ context.Context, driveID primitive.ObjectID, originalName string) (*models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.inOrder() {
		if f.DriveID == driveID && f.OriginalName == originalName && f.DeletedAt == nil {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memFiles) FindByHash(_ context.Context, driveID primitive.ObjectID, hash string, size int64) (*models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.inOrder() {
		if f.DriveID == driveID && f.Hash == hash && f.Size == size && f.DeletedAt == nil {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memFiles) Insert(_ context.Context, file *models.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.storedNames[file.StoredName]; taken {
		return ErrStoredNameTaken
	}
	cp := *file
	m.files[file.ID] = &cp
	m.storedNames[file.StoredName] = file.ID
	m.order = append(m.order, file.ID)
	return nil
}

func (m *memFiles) SetFolder(_ context.Context, id primitive.ObjectID, folderID *primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return ErrNotFound
	}
	f.FolderID = folderID
	return nil
}

func (m *memFiles) SetDeleted(_ context.Context, id primitive.ObjectID, deletedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return ErrNotFound
	}
	f.DeletedAt = deletedAt
	return nil
}

func (m *memFiles) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.files[id]; ok {
		delete(m.storedNames, f.StoredName)
		delete(m.files, id)
	}
	return nil
}

func (m *memFiles) ListTrashed(_ context.Context, driveID primitive.ObjectID) ([]models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.File
	for _, f := range m.inOrder() {
		if f.DriveID == driveID && f.DeletedAt != nil {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *memFiles) ListTrashedBefore(_ context.Context, cutoff time.Time) ([]models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.File
	for _, f := range m.inOrder() {
		if f.DeletedAt != nil && !f.DeletedAt.After(cutoff) {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *memFiles) CountByDrive(_ context.Context, driveID primitive.ObjectID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, f := range m.files {
		if f.DriveID == driveID && f.DeletedAt == nil {
			n++
		}
	}
	return n, nil
}

// memSubjects is an in-memory SubjectStore.
type memSubjects struct {
	mu        sync.Mutex
	subjects  map[primitive.ObjectID]*models.Subject
	chapters  []models.Chapter
	materials []models.Material
	files     *memFiles
}

func newMemSubjects(files *memFiles) *memSubjects {
	return &memSubjects{subjects: make(map[primitive.ObjectID]*models.Subject), files: files}
}

func (m *memSubjects) GetByID(_ context.Context, id primitive.ObjectID) (*models.Subject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subjects[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSubjects) FindByName(_ context.Context, userID primitive.ObjectID, name string) (*models.Subject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subjects {
		if s.UserID == userID && s.Name == name {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memSubjects) Create(_ context.Context, subject *models.Subject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *subject
	m.subjects[subject.ID] = &cp
	return nil
}

func (m *memSubjects) GetTree(ctx context.Context, subjectID primitive.ObjectID) (*models.SubjectTree, error) {
	m.mu.Lock()
	subject, ok := m.subjects[subjectID]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	cp := *subject
	tree := &models.SubjectTree{Subject: &cp}
	for _, c := range m.chapters {
		if c.SubjectID == subjectID {
			tree.Chapters = append(tree.Chapters, c)
		}
	}
	for _, mat := range m.materials {
		if mat.SubjectID == subjectID {
			tree.Materials = append(tree.Materials, mat)
		}
	}
	fileIDs := append([]primitive.ObjectID(nil), cp.FileIDs...)
	m.mu.Unlock()

	for _, id := range fileIDs {
		f, err := m.files.GetByID(ctx, id)
		if err != nil {
			continue
		}
		tree.Files = append(tree.Files, *f)
	}
	return tree, nil
}

func (m *memSubjects) CreateChapter(_ context.Context, chapter *models.Chapter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chapters = append(m.chapters, *chapter)
	return nil
}

func (m *memSubjects) CreateMaterial(_ context.Context, material *models.Material) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.materials = append(m.materials, *material)
	return nil
}

func (m *memSubjects) SetMaterialContent(_ context.Context, id primitive.ObjectID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.materials {
		if m.materials[i].ID == id {
			m.materials[i].Content = content
			return nil
		}
	}
	return ErrNotFound
}

func (m *memSubjects) AddSubjectFile(_ context.Context, subjectID, fileID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subjects[subjectID]
	if !ok {
		return ErrNotFound
	}
	s.FileIDs = append(s.FileIDs, fileID)
	return nil
}

func (m *memSubjects) renameChapter(id primitive.ObjectID, title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.chapters {
		if m.chapters[i].ID == id {
			m.chapters[i].Title = title
		}
	}
}

// memActivity is an in-memory ActivityStore.
type memActivity struct {
	mu      sync.Mutex
	entries []models.Activity
}

func (m *memActivity) Insert(_ context.Context, entry *models.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memActivity) ListByDrive(_ context.Context, driveID primitive.ObjectID, limit int) ([]models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Activity
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if m.entries[i].DriveID == driveID {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

// memBackend is an in-memory storage.Interface.
type memBackend struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemBackend() *memBackend {
	return &memBackend{objects: make(map[string][]byte)}
}

func (m *memBackend) Upload(_ context.Context, key string, reader io.Reader, _ int64) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memBackend) Download(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memBackend) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memBackend) GetSize(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return 0, fmt.Errorf("object %s not found", key)
	}
	return int64(len(data)), nil
}

func (m *memBackend) Copy(_ context.Context, sourceKey, destKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[sourceKey]
	if !ok {
		return fmt.Errorf("object %s not found", sourceKey)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[destKey] = cp
	return nil
}

// testEnv wires every service over one shared set of fakes.
type testEnv struct {
	clock    *fakeClock
	drives   *memDrives
	folders  *memFolders
	files    *memFiles
	subjects *memSubjects
	activity *memActivity
	backend  *memBackend

	folderSvc *FolderService
	trashSvc  *TrashService
	bwSvc     *BandwidthService
	syncSvc   *SyncService
	importSvc *ImportService
}

func newTestEnv(now time.Time) *testEnv {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	env := &testEnv{
		clock:    newFakeClock(now),
		drives:   newMemDrives(),
		folders:  newMemFolders(),
		files:    newMemFiles(),
		activity: &memActivity{},
		backend:  newMemBackend(),
	}
	env.subjects = newMemSubjects(env.files)

	env.folderSvc = NewFolderService(env.folders, env.files, env.activity, env.clock)
	env.trashSvc = NewTrashService(env.drives, env.folders, env.files, env.activity, env.backend, env.clock, logger)
	env.bwSvc = NewBandwidthService(env.drives, env.clock)
	env.syncSvc = NewSyncService(env.drives, env.folderSvc, env.folders, env.files, env.subjects, env.activity, env.clock, logger)
	env.importSvc = NewImportService(env.drives, env.folderSvc, env.files, env.subjects,
		NewDuplicateService(env.files), env.backend, env.activity, env.clock, logger)
	return env
}

// addDrive seeds a drive and returns it.
func (env *testEnv) addDrive(userID primitive.ObjectID, storageLimit, bandwidthLimit int64, policy models.CopyPolicy, resetAt time.Time) *models.Drive {
	drive := &models.Drive{
		ID:               primitive.NewObjectID(),
		UserID:           userID,
		StorageLimit:     storageLimit,
		BandwidthLimit:   bandwidthLimit,
		BandwidthResetAt: resetAt,
		AllowCopying:     policy,
		CreatedAt:        env.clock.Now(),
		UpdatedAt:        env.clock.Now(),
	}
	_ = env.drives.Create(context.Background(), drive)
	return drive
}

// addFile seeds a file record and its bytes.
func (env *testEnv) addFile(drive *models.Drive, folderID *primitive.ObjectID, name, storedName string, content []byte, isPublic bool) *models.File {
	path := "drives/" + storedName[:2] + "/" + storedName
	_ = env.backend.Upload(context.Background(), path, bytes.NewReader(content), int64(len(content)))
	file := &models.File{
		ID:           primitive.NewObjectID(),
		DriveID:      drive.ID,
		FolderID:     folderID,
		OriginalName: name,
		StoredName:   storedName,
		Size:         int64(len(content)),
		Hash:         fmt.Sprintf("hash-%x", content),
		PhysicalPath: path,
		IsPublic:     isPublic,
		CreatedAt:    env.clock.Now(),
		UpdatedAt:    env.clock.Now(),
	}
	if err := env.files.Insert(context.Background(), file); err != nil {
		panic(err)
	}
	_ = env.drives.IncrementStorage(context.Background(), drive.ID, file.Size)
	drive.StorageUsed += file.Size
	return file
}
