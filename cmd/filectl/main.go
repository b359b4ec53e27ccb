package main

import (
	"context"
	"os"

	"Go_FileStore/config"
	"Go_FileStore/internal/app"
	"Go_FileStore/internal/logging"
)

func main() {
	config.InitConfig()
	cfg := config.AppConfig
	logging.CreateLogger(cfg.LogLevel)

	open := func(ctx context.Context) (sweeper, func(), error) {
		a, err := app.New(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return a.Services.GC, a.Close, nil
	}
	if err := newRootCommand(context.Background(), cfg, open).Execute(); err != nil {
		os.Exit(1)
	}
}
