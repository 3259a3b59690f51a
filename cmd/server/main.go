package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"organ/internal/composer"
	"organ/internal/config"
	"organ/internal/db"
	"organ/internal/db/mock"
	applog "organ/internal/log"
	"organ/internal/server"
	"organ/internal/wheel"
	"organ/models"
)

type serverLifecycle interface {
	Start() error
	Stop() error
}

var (
	loadConfigFunc      = config.Load
	setLogLevelFunc     = applog.SetLevel
	newMockDatabaseFunc = mock.New
	configureDatabase   = db.Configure
	installWheelFunc    = installWheel
	newServerFunc       = func(cfg server.Config) (serverLifecycle, error) {
		return server.New(cfg)
	}
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		return ch, func() { signal.Stop(ch) }
	}
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	cfg, err := loadConfigFunc()
	if err != nil {
		applog.Error(ctx, "failed to load configuration", "error", err)
		return 1
	}

	if err := setLogLevelFunc(cfg.Logging.Level); err != nil {
		applog.Error(ctx, "invalid log level", "level", cfg.Logging.Level, "error", err)
		return 1
	}

	var database *gorm.DB
	if cfg.Database.UseMock || cfg.Database.URL == "" {
		applog.Info(ctx, "using in-memory mock database")
		database, err = newMockDatabaseFunc(ctx)
	} else {
		database, err = configureDatabase(cfg.Database)
	}
	if err != nil {
		applog.Error(ctx, "failed to configure database", "error", err)
		return 1
	}

	if cfg.Composer.WheelPath != "" {
		if err := installWheelFunc(ctx, database, cfg.Composer.WheelPath); err != nil {
			applog.Error(ctx, "failed to install wheel", "path", cfg.Composer.WheelPath, "error", err)
			return 1
		}
	}

	srv, err := newServerFunc(server.Config{
		Addr:            cfg.Server.Addr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Session: server.SessionConfig{
			Lifetime:     cfg.Session.Lifetime,
			CookieName:   cfg.Session.CookieName,
			CookieDomain: cfg.Session.CookieDomain,
			CookieSecure: cfg.Session.CookieSecure,
		},
		Database: database,
		Settings: composer.Settings{
			DropsPerVolumeUnit: cfg.Composer.DropsPerMl,
			Currency:           cfg.Composer.Currency,
			Compatibility:      cfg.Composer.Compatibility,
		},
		WheelCacheSize: cfg.Composer.WheelCacheSize,
		WheelCacheTTL:  cfg.Composer.WheelCacheTTL,
	})
	if err != nil {
		applog.Error(ctx, "failed to build server", "error", err)
		return 1
	}

	sigCh, stop := subscribeShutdownSig()
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		applog.Info(ctx, "starting http server", "addr", cfg.Server.Addr)
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error(ctx, "server encountered an error", "error", err)
			return 1
		}
		return 0
	case sig := <-sigCh:
		applog.Info(ctx, "shutting down http server", "signal", sig.String())
	}

	if err := srv.Stop(); err != nil {
		applog.Error(ctx, "graceful shutdown failed", "error", err)
		return 1
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		applog.Error(ctx, "server exited with error", "error", err)
		return 1
	}
	applog.Info(ctx, "server stopped")
	return 0
}

// installWheel stores the wheel at path and makes it the active wheel.
func installWheel(ctx context.Context, database *gorm.DB, path string) error {
	g, err := wheel.LoadFile(path)
	if err != nil {
		return err
	}
	store := db.NewStore(database)
	if err := store.SaveWheel(ctx, g); err != nil {
		return err
	}
	if err := store.SaveSettings(ctx, map[string]string{models.SettingWheel: g.ID()}); err != nil {
		return err
	}
	applog.Info(ctx, "wheel installed", "id", g.ID(), "families", len(g.Families()))
	return nil
}
