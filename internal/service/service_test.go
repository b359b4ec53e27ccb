package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"Go_FileStore/config"
	"Go_FileStore/internal/repo"
	"Go_FileStore/model"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingReporter struct {
	mu   sync.Mutex
	errs []error
}

func (r *recordingReporter) Report(_ context.Context, err error, _ ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recordingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

type recordingMirror struct {
	mu      sync.Mutex
	puts    []uint64
	removes []uint64
	err     error
}

func (m *recordingMirror) EnqueuePut(_ context.Context, file *model.File, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts = append(m.puts, file.ID)
	return m.err
}

func (m *recordingMirror) EnqueueRemove(_ context.Context, file *model.File, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removes = append(m.removes, file.ID)
	return m.err
}

// failingFs fails Open and OpenFile for paths ending in suffix.
type failingFs struct {
	afero.Fs
	suffix string
}

var errInjected = errors.New("injected failure")

func (f failingFs) Open(name string) (afero.File, error) {
	if strings.HasSuffix(name, f.suffix) {
		return nil, &os.PathError{Op: "open", Path: name, Err: errInjected}
	}
	return f.Fs.Open(name)
}

func (f failingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if strings.HasSuffix(name, f.suffix) {
		return nil, &os.PathError{Op: "open", Path: name, Err: errInjected}
	}
	return f.Fs.OpenFile(name, flag, perm)
}

type fixture struct {
	ctx      context.Context
	root     string
	cfg      config.FileConfig
	fs       afero.Fs
	db       *gorm.DB
	sessions *repo.UploadSessionRepo
	files    *repo.FileRepo
	locker   *repo.LocalLocker
	reporter *recordingReporter
	mirror   *recordingMirror
	now      time.Time
	svc      *Container
}

func newFixture(t *testing.T, mutate ...func(*Options)) *fixture {
	t.Helper()
	root := t.TempDir()
	cfg := config.FileConfig{
		SaveFolder:        filepath.Join(root, "files"),
		TempFolder:        filepath.Join(root, "temps"),
		ZipFolder:         filepath.Join(root, "zips"),
		PerformGC:         true,
		TempExpiredAt:     24,
		ZipExpiredAt:      24,
		MaxFilenameLength: 128,
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repo.AutoMigrate(db))

	f := &fixture{
		ctx:      context.Background(),
		root:     root,
		cfg:      cfg,
		fs:       afero.NewOsFs(),
		db:       db,
		sessions: repo.NewUploadSessionRepo(db),
		files:    repo.NewFileRepo(db),
		locker:   repo.NewLocalLocker(),
		reporter: &recordingReporter{},
		mirror:   &recordingMirror{},
		now:      time.Now().Truncate(time.Second),
	}
	opts := Options{
		Config:   cfg,
		Fs:       f.fs,
		Sessions: f.sessions,
		Files:    f.files,
		Locker:   f.locker,
		Mirror:   f.mirror,
		Reporter: f.reporter,
		Now:      func() time.Time { return f.now },
	}
	for _, m := range mutate {
		m(&opts)
	}
	f.cfg = opts.Config
	f.fs = opts.Fs
	f.svc = NewContainer(opts)
	require.NoError(t, f.svc.Paths.Ensure(f.fs))
	return f
}

func (f *fixture) storedBytes(t *testing.T, file *model.File) []byte {
	t.Helper()
	data, err := afero.ReadFile(f.fs, filepath.Join(f.cfg.SaveFolder, file.Folder, file.Filename))
	require.NoError(t, err)
	return data
}

func (f *fixture) fileByID(t *testing.T, id uint64) *model.File {
	t.Helper()
	var file model.File
	require.NoError(t, f.db.First(&file, id).Error)
	return &file
}

func (f *fixture) countFiles(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.File{}).Count(&n).Error)
	return n
}

func (f *fixture) writeStored(t *testing.T, display, name string, content []byte) *model.File {
	t.Helper()
	file := &model.File{
		UserID:           1,
		Folder:           "s-" + display,
		Filename:         "n-" + display,
		DisplayFolder:    display,
		OriginalFilename: name,
		IsValid:          true,
	}
	require.NoError(t, f.files.Create(f.ctx, file))
	path := filepath.Join(f.cfg.SaveFolder, file.Folder, file.Filename)
	require.NoError(t, f.fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(f.fs, path, content, 0o644))
	return file
}
