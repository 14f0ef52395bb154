// Package app composes the session process: one engine, one render
// surface, one exclusive lock over the session directory.
package app

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/veil-im/veil/internal/bus"
	"github.com/veil-im/veil/internal/capability"
	"github.com/veil-im/veil/internal/config"
	"github.com/veil-im/veil/internal/engine"
	"github.com/veil-im/veil/internal/lock"
	"github.com/veil-im/veil/internal/logging"
	"github.com/veil-im/veil/internal/session"
	"github.com/veil-im/veil/internal/status"
	"github.com/veil-im/veil/internal/store"
	"github.com/veil-im/veil/internal/tui"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
}

// Module returns the fx module composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("veil",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideMediaStore,
			provideCapabilities,
			provideEngine,
			provideTUI,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	return logging.New(session.LogPath(p.SessionName), p.SessionName)
}

func provideConfig(logger *zap.Logger) *config.Config {
	cfg, err := config.Load(session.ConfigPath())
	if err != nil {
		logger.Info("no usable config file, using defaults", zap.Error(err))
		return config.Default()
	}
	return cfg
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.DBPath(p.SessionName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideMediaStore(p Params) (*capability.MediaStore, error) {
	return capability.NewMediaStore(session.MediaDir(p.SessionName))
}

// provideCapabilities wires what the host can actually do. The stego
// codec is self-contained; speech recognition and audio capture need
// hardware integration and stay absent, degrading those features to
// flash notices.
func provideCapabilities(media *capability.MediaStore) capability.Set {
	return capability.Set{
		Stego: capability.NewLSBCodec(media),
	}
}

func provideEngine(db *store.DB, media *capability.MediaStore, caps capability.Set, b *bus.Bus, machine *status.Machine, logger *zap.Logger, cfg *config.Config) *engine.Engine {
	ecfg := engine.Config{
		ReloadDelay:     time.Duration(cfg.Sync.ReloadDelayMS) * time.Millisecond,
		TranscribeDelay: time.Duration(cfg.Sync.TranscribeDelayMS) * time.Millisecond,
	}
	return engine.New(db, media, caps, b, machine, logger, ecfg)
}

func provideTUI(p Params, e *engine.Engine, b *bus.Bus, logger *zap.Logger) *tui.App {
	return tui.NewApp(e, b, logger, p.SessionName)
}

func registerLifecycle(lc fx.Lifecycle, e *engine.Engine, ui *tui.App, db *store.DB, lk *lock.Lock, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return e.Start(context.WithoutCancel(ctx))
		},
		OnStop: func(context.Context) error {
			ui.Stop()
			e.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("session stopped")
			return nil
		},
	})
}
