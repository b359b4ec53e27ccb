package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"Go_FileStore/config"
	"Go_FileStore/internal/app"
	"Go_FileStore/internal/handler"
	"Go_FileStore/internal/logging"
	"Go_FileStore/router"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/netutil"
)

// main initializes services and starts the HTTP server.
func main() {
	config.InitConfig()
	cfg := config.AppConfig
	logging.CreateLogger(cfg.LogLevel)
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logging.Fatal("init failed", "err", err)
	}
	defer a.Close()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.InitRouter(handler.NewFileHandler(a.Services), cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		logging.Fatal("listen failed", "addr", cfg.HTTPAddr, "err", err)
	}
	if cfg.HTTPMaxConns > 0 {
		ln = netutil.LimitListener(ln, cfg.HTTPMaxConns)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		logging.Info("starting server", "addr", cfg.HTTPAddr, "max_conns", cfg.HTTPMaxConns)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("server stopped", "err", err)
			stop()
		}
	}()
	go func() {
		defer wg.Done()
		a.Services.GC.Run(ctx, cfg.GCInterval)
	}()

	<-ctx.Done()
	logging.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error("shutdown failed", "err", err)
	}
	wg.Wait()
}
