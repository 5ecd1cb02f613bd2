package app

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/dashboard/internal/bookmarks"
	"github.com/MrSnakeDoc/dashboard/internal/config"
	"github.com/MrSnakeDoc/dashboard/internal/httpserver"
	"github.com/MrSnakeDoc/dashboard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dashboard/internal/httpserver/mw"
	"github.com/MrSnakeDoc/dashboard/internal/logger"
	"github.com/MrSnakeDoc/dashboard/internal/scheduler"
	"github.com/MrSnakeDoc/dashboard/internal/version"
)

type App struct {
	cfg      *config.Config
	logger   logger.Logger
	backend  *Backend
	service  *bookmarks.Service
	server   *httpserver.Server
	importer *scheduler.Importer
}

// New wires config -> backend -> bookmark service -> HTTP server (+ optional importer).
// It fails when the configured store cannot be reached.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	backend, err := OpenBackend(ctx, cfg, loggerClient)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store, err)
	}
	loggerClient.Info("bookmark store ready", logger.String("store", backend.Name))

	service := backend.NewService(loggerClient)

	var (
		importer      *scheduler.Importer
		importTrigger chan struct{}
		importStatus  func() deps.ImportStatus
	)
	if cfg.BookmarkFile != "" {
		loggerClient.Info("bookmark file configured, initializing importer",
			logger.String("file", cfg.BookmarkFile))
		importTrigger = make(chan struct{}, 1)
		importer = scheduler.NewImporter(
			cfg.BookmarkFile,
			service,
			loggerClient,
			cfg.ImportInterval,
			importTrigger,
		)
		importStatus = func() deps.ImportStatus {
			s := importer.Status()
			return deps.ImportStatus{
				Enabled:   true,
				File:      s.File,
				LastRun:   s.LastRun,
				LastAdded: s.LastAdded,
				LastError: s.LastError,
			}
		}
	} else {
		loggerClient.Info("bookmark file not configured, import disabled")
	}

	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AllowedHosts: cfg.AllowedHosts,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		Bookmarks:    service,
		StoreName:    backend.Name,
		RateLimit: mw.RateLimitConfig{
			Burst:             cfg.RateBurst,
			RefillPerIPPerMin: cfg.RatePerMin,
			MaxEntries:        10000,
			TrustProxy:        cfg.TrustProxy,
		},
		ImportStatus:  importStatus,
		ImportTrigger: importTrigger,
	}

	return &App{
		cfg:      cfg,
		logger:   loggerClient,
		backend:  backend,
		service:  service,
		server:   httpserver.New(cfg, loggerClient, d),
		importer: importer,
	}, nil
}

// Run serves until ctx is canceled or the server fails, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🚀 Starting dashboard %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("dashboard %s", version.String())

	if a.importer != nil {
		a.importer.Start(ctx)
		a.logger.Info("bookmark importer started",
			logger.Duration("interval", a.cfg.ImportInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
		a.logger.Error("http server stopped", logger.Error(runErr))
	}

	if a.importer != nil {
		a.importer.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	if err := a.backend.Close(shutdownCtx); err != nil {
		a.logger.Warn("failed to close store", logger.String("store", a.backend.Name), logger.Error(err))
	} else {
		a.logger.Info("✅ store closed cleanly", logger.String("store", a.backend.Name))
	}

	if runErr == nil {
		a.logger.Info("✅ dashboard stopped cleanly")
	}
	return runErr
}
