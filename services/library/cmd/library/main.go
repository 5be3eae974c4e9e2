package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"arcanearchives/internal/ratelimit"
	"arcanearchives/internal/util"
	"arcanearchives/pkg/storage"
	"arcanearchives/services/library/internal/app"
	"arcanearchives/services/library/internal/config"
	"arcanearchives/services/library/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, config.ConfigPath); err != nil {
		stop()
		log.Fatal(err)
	}
}

// run wires the service and blocks until ctx is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	appCfg := app.Config{
		DatabaseURL:       cfg.DatabaseURL,
		UploadDir:         cfg.UploadDir,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		AllowedExtensions: cfg.AllowedExtensions,
	}
	if cfg.StorageBackend == config.StorageMinio {
		appCfg.Minio = &storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Prefix:    cfg.MinioPrefix,
			UseSSL:    cfg.MinioUseSSL,
		}
	}
	appCore, err := app.New(appCfg)
	if err != nil {
		return fmt.Errorf("failed to init app: %w", err)
	}
	defer func() {
		if err := appCore.Close(); err != nil {
			logger.Warn("close database", "err", err)
		}
	}()

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("failed to parse trusted proxies: %w", err)
	}

	serverCfg := server.Config{App: appCore, TrustedProxies: trusted}
	if cfg.UploadRateLimitPerMinute > 0 {
		limiter, err := ratelimit.NewFixedWindowLimiter(ctx, ratelimit.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Prefix:   "archives:uploads",
			Limit:    cfg.UploadRateLimitPerMinute,
			Window:   time.Minute,
		})
		if err != nil {
			return fmt.Errorf("failed to init upload rate limiter: %w", err)
		}
		defer limiter.Close()
		serverCfg.UploadLimiter = limiter
	}

	httpServer, err := server.New(serverCfg)
	if err != nil {
		return fmt.Errorf("failed to init server: %w", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		// Uploads of up to maxUploadBytes need generous body timeouts.
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("library server listening", "addr", addr, "storage", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("library server stopped")
	return nil
}
