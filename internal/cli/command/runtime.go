package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/fintrack-go/internal/config"
	"github.com/yndnr/fintrack-go/internal/core/domain"
	"github.com/yndnr/fintrack-go/internal/core/service"
	"github.com/yndnr/fintrack-go/internal/gateway"
	"github.com/yndnr/fintrack-go/internal/infra/shutdown"
	"github.com/yndnr/fintrack-go/internal/storage"
	"github.com/yndnr/fintrack-go/internal/storage/memory"
	"github.com/yndnr/fintrack-go/internal/telemetry/logger"
	"github.com/yndnr/fintrack-go/internal/telemetry/metric"
)

// shutdownTimeout bounds draining in-flight calls and closing the store.
const shutdownTimeout = 10 * time.Second

// Runtime holds everything one CLI invocation needs.
type Runtime struct {
	Config   *config.ClientConfig
	Logger   logger.Logger
	Metrics  *metric.Registry
	Gateway  *gateway.Client
	Store    *storage.CredentialStore
	Sessions *service.SessionManager

	shutdown *shutdown.Handler
}

// LoadConfig loads the configuration selected by the global flags.
func LoadConfig(c *cli.Context) (*config.ClientConfig, error) {
	flags := ParseGlobalFlags(c)
	return config.Load(config.LoadOptions{
		Path:      flags.ConfigPath,
		Overrides: flags.Overrides(),
	})
}

// EnsureSession builds the runtime on first use and restores any
// persisted session. Later calls return the same runtime.
func EnsureSession(c *cli.Context) (*Runtime, error) {
	if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
		return rt, nil
	}

	cfg, err := LoadConfig(c)
	if err != nil {
		return nil, err
	}

	rt, err := newRuntime(c.Context, c, cfg)
	if err != nil {
		return nil, err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[runtimeKey] = rt

	if _, err := rt.Sessions.Restore(c.Context); err != nil {
		if !errors.Is(err, domain.ErrCredentialCorrupt) {
			return nil, err
		}
		rt.Logger.Warn("discarded unreadable credential record", "error", err)
	}
	return rt, nil
}

func newRuntime(ctx context.Context, c *cli.Context, cfg *config.ClientConfig) (*Runtime, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return nil, domain.ErrConfig.WithDetails("logger").WithCause(err)
	}
	logger.SetDefault(log)

	rt := &Runtime{
		Config:   cfg,
		Logger:   log,
		Metrics:  metric.NewRegistry(),
		shutdown: shutdown.NewHandler(shutdownTimeout),
	}

	engine, err := openEngine(cfg, log, rt.Metrics)
	if err != nil {
		return nil, err
	}
	rt.shutdown.OnClose(engine.Close)

	storeOpts := []storage.CredentialOption{storage.WithLogger(log.Slog())}
	if p := cfg.Storage.Encryption.Passphrase; p != "" {
		sealer, err := storage.NewPassphraseSealer(ctx, engine, []byte(p))
		if err != nil {
			rt.shutdown.Shutdown()
			return nil, domain.ErrStorage.WithDetails("unlock credential store").WithCause(err)
		}
		storeOpts = append(storeOpts, storage.WithSealer(sealer))
	}
	rt.Store = storage.NewCredentialStore(engine, storeOpts...)

	rt.Gateway, err = gateway.New(cfg.GatewayConfig(),
		gateway.WithLogger(log),
		gateway.WithMetrics(rt.Metrics))
	if err != nil {
		rt.shutdown.Shutdown()
		return nil, err
	}

	rt.Sessions = service.NewSessionManager(rt.Gateway, rt.Store,
		service.WithLogger(log),
		service.WithMetrics(rt.Metrics))
	rt.shutdown.OnShutdown(rt.Sessions.Wait)

	log.Debug("runtime ready",
		"base_url", rt.Gateway.BaseURL(),
		"engine", cfg.Storage.Engine,
		"sealed", cfg.Storage.Encryption.Passphrase != "")
	return rt, nil
}

// openEngine opens the configured KV engine.
func openEngine(cfg *config.ClientConfig, log logger.Logger, reg *metric.Registry) (storage.KVEngine, error) {
	switch cfg.Storage.Engine {
	case config.EngineMemory:
		return memory.New(), nil
	case config.EngineBadger:
		if err := os.MkdirAll(cfg.Storage.Dir, 0o700); err != nil {
			return nil, domain.ErrStorage.WithDetails("create " + cfg.Storage.Dir).WithCause(err)
		}
		engine, err := storage.NewBadgerEngine(cfg.KVConfig(), log.Slog())
		if err != nil {
			return nil, domain.ErrStorage.WithDetails("open credential store").WithCause(err)
		}
		return engine.RegisterMetrics(reg.Registerer()), nil
	default:
		return nil, domain.ErrConfig.WithDetails(fmt.Sprintf("unknown storage engine %q", cfg.Storage.Engine))
	}
}

// Close waits for in-flight calls to settle, then closes the store.
func (r *Runtime) Close() error {
	return r.shutdown.Shutdown()
}
