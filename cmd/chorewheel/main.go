package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmckenna/chorewheel/internal/backup"
	"github.com/jmckenna/chorewheel/internal/catalog"
	"github.com/jmckenna/chorewheel/internal/database"
	"github.com/jmckenna/chorewheel/internal/logging"
	"github.com/jmckenna/chorewheel/internal/push"
	"github.com/jmckenna/chorewheel/internal/server"
	"github.com/jmckenna/chorewheel/internal/store"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := logging.Setup(env("CHOREWHEEL_LOG_LEVEL", "info"))

	port := env("CHOREWHEEL_PORT", "8080")
	dbPath := env("CHOREWHEEL_DB_PATH", "chorewheel.db")
	catalogPath := env("CHOREWHEEL_CATALOG", "data.json")
	staticDir := env("CHOREWHEEL_STATIC_DIR", "web/static")

	location := time.Local
	if tz := os.Getenv("CHOREWHEEL_TZ"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			logger.Error("invalid CHOREWHEEL_TZ", "tz", tz, "error", err)
			os.Exit(1)
		}
		location = loc
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cat, err := catalog.Load(catalogPath)
	if err != nil {
		logger.Error("load catalog", "path", catalogPath, "error", err)
		os.Exit(1)
	}
	if err := catalog.Seed(cat, store.NewPersonStore(db), store.NewChoreStore(db), logger.With("component", "catalog")); err != nil {
		logger.Error("seed catalog", "error", err)
		os.Exit(1)
	}

	cfg := server.Config{
		StaticDir:      staticDir,
		Location:       location,
		SMSServerToken: os.Getenv("CHOREWHEEL_SMS_TOKEN"),
		SMSFromEmail:   os.Getenv("CHOREWHEEL_SMS_FROM"),
		Push: push.Config{
			VAPIDPublicKey:  os.Getenv("CHOREWHEEL_VAPID_PUBLIC_KEY"),
			VAPIDPrivateKey: os.Getenv("CHOREWHEEL_VAPID_PRIVATE_KEY"),
			Subscriber:      os.Getenv("CHOREWHEEL_VAPID_SUBSCRIBER"),
		},
		Backup: backup.Config{
			DBPath: dbPath,
			Hour:   3,
			S3: backup.S3Config{
				Endpoint:  os.Getenv("CHOREWHEEL_S3_ENDPOINT"),
				Bucket:    os.Getenv("CHOREWHEEL_S3_BUCKET"),
				Region:    env("CHOREWHEEL_S3_REGION", "us-east-1"),
				AccessKey: os.Getenv("CHOREWHEEL_S3_ACCESS_KEY"),
				SecretKey: os.Getenv("CHOREWHEEL_S3_SECRET_KEY"),
			},
		},
	}

	srv := server.New(db, cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv.Scheduler().Start(ctx)
	srv.BackupManager().Start(ctx)

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("chorewheel running", "addr", "http://localhost:"+port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	srv.Scheduler().Stop()
	srv.BackupManager().Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
