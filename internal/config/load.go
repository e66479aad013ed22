package config

import (
	"github.com/yndnr/fintrack-go/internal/core/domain"
	"github.com/yndnr/fintrack-go/internal/gateway"
	"github.com/yndnr/fintrack-go/internal/infra/confloader"
	"github.com/yndnr/fintrack-go/internal/storage"
)

// LoadOptions selects the configuration sources.
type LoadOptions struct {
	// Path is the config file. Empty means DefaultConfigPath, which may be absent.
	Path string

	// Overrides holds flag values as dotted keys; they win over every other source.
	Overrides map[string]any
}

// Load builds the configuration from defaults, file, environment and
// overrides, then verifies it.
func Load(opts LoadOptions) (*ClientConfig, error) {
	file := confloader.WithOptionalConfigFile(DefaultConfigPath())
	if opts.Path != "" {
		file = confloader.WithConfigFile(ExpandHome(opts.Path))
	}

	cfg := &ClientConfig{}
	l := confloader.NewLoader(
		confloader.WithDefaults(Default().Map()),
		file,
		confloader.WithOverrides(opts.Overrides),
	)
	if err := l.Load(cfg); err != nil {
		return nil, domain.ErrConfig.WithDetails("load configuration").WithCause(err)
	}

	cfg.Storage.Dir = ExpandHome(cfg.Storage.Dir)
	cfg.Gateway.CAFile = ExpandHome(cfg.Gateway.CAFile)
	if err := Verify(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GatewayConfig converts the gateway section for gateway.New.
func (c *ClientConfig) GatewayConfig() gateway.Config {
	return gateway.Config{
		BaseURL:   c.Gateway.BaseURL,
		Timeout:   c.Gateway.Timeout,
		RateLimit: c.Gateway.RateLimit,
		RateBurst: c.Gateway.RateBurst,
		CAFile:    c.Gateway.CAFile,
	}
}

// KVConfig converts the storage section for the KV engine.
func (c *ClientConfig) KVConfig() storage.KVConfig {
	kv := storage.DefaultKVConfig(c.Storage.Dir)
	kv.Engine = c.Storage.Engine
	kv.Badger.SyncWrites = c.Storage.SyncWrites
	kv.Badger.GCInterval = c.Storage.GCInterval
	return kv
}
