// Package app wires configuration, storage and services for the binaries.
package app

import (
	"context"

	"Go_FileStore/config"
	"Go_FileStore/internal/logging"
	"Go_FileStore/internal/mq"
	"Go_FileStore/internal/repo"
	"Go_FileStore/internal/report"
	"Go_FileStore/internal/service"
	"Go_FileStore/internal/storage"
	"Go_FileStore/internal/task"

	"github.com/spf13/afero"
	"gorm.io/gorm"
)

// App holds the shared collaborators of a running process.
type App struct {
	Config   config.Config
	DB       *gorm.DB
	Fs       afero.Fs
	Tasks    *repo.MirrorTaskRepo
	Services *service.Container

	closers []func()
}

// New connects to MySQL and Redis and builds the service container.
// Redis is optional: without it merges are locked per process.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := repo.InitMysql(cfg)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, DB: db, Fs: afero.NewOsFs(), Tasks: repo.NewMirrorTaskRepo(db)}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, func() { _ = sqlDB.Close() })
	}

	var locker repo.Locker
	if rdb, err := repo.InitRedis(ctx, cfg); err != nil {
		logging.Warn("redis unavailable, using local merge lock", "err", err)
		locker = repo.NewLocalLocker()
	} else {
		locker = repo.NewRedisLocker(rdb, "filestore:lock:", cfg.LockTTL)
		a.closers = append(a.closers, func() { _ = rdb.Close() })
	}

	paths := storage.NewPaths(cfg.File())
	if err := paths.Ensure(a.Fs); err != nil {
		a.Close()
		return nil, err
	}

	var mirror service.MirrorEnqueuer = service.NoopMirror{}
	if cfg.MirrorEnabled {
		mirror = task.NewEnqueuer(a.Tasks, mq.Publisher{URL: cfg.RabbitMQURL}, cfg.BucketName)
	}

	a.Services = service.NewContainer(service.Options{
		Config:   cfg.File(),
		Fs:       a.Fs,
		Sessions: repo.NewUploadSessionRepo(db),
		Files:    repo.NewFileRepo(db),
		Locker:   locker,
		Mirror:   mirror,
		Reporter: report.FromConfig(cfg.SMTP()),
	})
	return a, nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
