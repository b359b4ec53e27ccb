package service

import (
	"context"
	"time"

	"Go_FileStore/config"
	"Go_FileStore/internal/repo"
	"Go_FileStore/internal/report"
	"Go_FileStore/internal/storage"
	"Go_FileStore/model"

	"github.com/spf13/afero"
)

// SessionStore is the upload session persistence used by the services.
type SessionStore interface {
	FindByUploadID(ctx context.Context, uploadID string) (*model.UploadSession, error)
	FindFinishedByUserAndFilename(ctx context.Context, userID uint64, filename string) (*model.UploadSession, error)
	Create(ctx context.Context, session *model.UploadSession) (*model.UploadSession, error)
	UpdateStatus(ctx context.Context, id uint64, status model.UploadStatus) error
	Touch(ctx context.Context, id uint64, t time.Time) error
	Delete(ctx context.Context, id uint64) (int64, error)
	FindStale(ctx context.Context, before time.Time) ([]model.UploadSession, error)
}

// FileStore is the file record persistence used by the services.
type FileStore interface {
	Create(ctx context.Context, file *model.File) error
	FindByDisplay(ctx context.Context, folder, filename string) (*model.File, error)
	FindByDisplayRefs(ctx context.Context, refs []repo.DisplayRef) ([]model.File, error)
	SoftDelete(ctx context.Context, id uint64) (int64, error)
}

// MirrorEnqueuer schedules replication of stored files. Errors are
// reported by the caller and never fail the user facing operation.
type MirrorEnqueuer interface {
	EnqueuePut(ctx context.Context, file *model.File, localPath string) error
	EnqueueRemove(ctx context.Context, file *model.File, localPath string) error
}

// NoopMirror is used when mirroring is disabled.
type NoopMirror struct{}

func (NoopMirror) EnqueuePut(context.Context, *model.File, string) error    { return nil }
func (NoopMirror) EnqueueRemove(context.Context, *model.File, string) error { return nil }

// Options wires the collaborators shared by every service.
type Options struct {
	Config   config.FileConfig
	Fs       afero.Fs
	Sessions SessionStore
	Files    FileStore
	Locker   repo.Locker
	Mirror   MirrorEnqueuer
	Reporter report.Reporter
	Now      func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.Locker == nil {
		o.Locker = repo.NewLocalLocker()
	}
	if o.Mirror == nil {
		o.Mirror = NoopMirror{}
	}
	if o.Reporter == nil {
		o.Reporter = report.NewLogReporter()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Container groups the services behind the HTTP layer and the CLI.
type Container struct {
	Upload  *UploadService
	Files   *FileService
	Archive *ArchiveService
	GC      *GarbageCollector

	Fs    afero.Fs
	Paths storage.Paths
}

// NewContainer builds every service over one set of collaborators.
func NewContainer(opts Options) *Container {
	opts = opts.withDefaults()
	gc := NewGarbageCollector(opts)
	return &Container{
		Upload:  newUploadService(opts, gc),
		Files:   newFileService(opts),
		Archive: newArchiveService(opts, gc),
		GC:      gc,
		Fs:      opts.Fs,
		Paths:   storage.NewPaths(opts.Config),
	}
}
