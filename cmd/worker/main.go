package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"Go_FileStore/config"
	"Go_FileStore/internal/logging"
	"Go_FileStore/internal/repo"
	"Go_FileStore/internal/storage"
	"Go_FileStore/internal/worker"

	"github.com/spf13/afero"
)

func main() {
	config.InitConfig()
	cfg := config.AppConfig
	logging.CreateLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repo.InitMysql(cfg)
	if err != nil {
		logging.Fatal("init mysql failed", "err", err)
	}
	store, err := storage.InitMinio(ctx, cfg.Mirror())
	if err != nil {
		logging.Fatal("init minio failed", "err", err)
	}

	logging.Info("mirror worker started", "bucket", cfg.BucketName)
	if err := worker.RunMirrorWorker(ctx, cfg, repo.NewMirrorTaskRepo(db), store, afero.NewOsFs()); err != nil {
		logging.Fatal("mirror worker stopped", "err", err)
	}
}
