package daemon

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/matheus3301/guestbook/internal/api"
	"github.com/matheus3301/guestbook/internal/bus"
	"github.com/matheus3301/guestbook/internal/config"
	"github.com/matheus3301/guestbook/internal/lock"
	"github.com/matheus3301/guestbook/internal/logging"
	"github.com/matheus3301/guestbook/internal/paths"
	"github.com/matheus3301/guestbook/internal/status"
	"github.com/matheus3301/guestbook/internal/store"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Params holds the resolved server configuration passed to the fx module.
type Params struct {
	Server      config.Server
	LogPath     string // empty = paths.LogPath("gbd")
	LogToStderr bool
}

// Module returns the fx module for gbd, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideRouter,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	path := p.LogPath
	if path == "" {
		path = paths.LogPath("gbd")
	}
	return logging.New(path, "gbd", p.LogToStderr)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring data dir lock", zap.String("data_dir", p.Server.DataDir))
	l, err := lock.Acquire(p.Server.DataDir, p.Server.Addr)
	if err != nil {
		return nil, err
	}
	logger.Info("data dir lock acquired", zap.String("path", l.Path()))
	return l, nil
}

// provideStore opens and migrates the database. It depends on the lock so two
// daemons never migrate the same file.
func provideStore(p Params, _ *lock.Lock, m *status.Machine, logger *zap.Logger) (*store.DB, error) {
	dbPath := paths.DBPath(p.Server.DataDir)
	db, err := store.Open(dbPath)
	if err != nil {
		_ = m.Transition(status.Error)
		return nil, err
	}
	_ = m.Transition(status.Migrating)
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		_ = m.Transition(status.Error)
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

func provideRouter(p Params, db *store.DB, m *status.Machine, logger *zap.Logger) *chi.Mux {
	return api.NewRouter(db, m, p.Server, logger.Named("http"))
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, db *store.DB, lk *lock.Lock, machine *status.Machine, b *bus.Bus, logger *zap.Logger) {
	events, unsub := b.Subscribe("server.", 16)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case evt := <-events:
				if change, ok := evt.Payload.(status.StatusChange); ok {
					logger.Info("status changed", zap.String("from", string(change.From)), zap.String("to", string(change.To)))
				}
			case <-done:
				return
			}
		}
	}()

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("http server error", zap.Error(err))
					_ = machine.Transition(status.Error)
				}
			}()
			return machine.Transition(status.Serving)
		},
		OnStop: func(ctx context.Context) error {
			_ = machine.Transition(status.Stopping)
			if err := srv.Stop(ctx); err != nil {
				logger.Warn("http shutdown incomplete", zap.Error(err))
			}
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			_ = machine.Transition(status.Stopped)
			unsub()
			close(done)
			logger.Info("daemon stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
