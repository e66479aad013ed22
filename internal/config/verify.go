package config

import (
	"fmt"
	"net/url"

	"github.com/yndnr/fintrack-go/internal/core/domain"
	"github.com/yndnr/fintrack-go/internal/storage"
	"github.com/yndnr/fintrack-go/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *ClientConfig) error {
	if err := verifyGateway(&cfg.Gateway); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyGateway(cfg *GatewaySection) error {
	if cfg.BaseURL == "" {
		return domain.ErrConfig.WithDetails("gateway.base_url is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.ErrConfig.WithDetails(fmt.Sprintf("gateway.base_url %q must be an http(s) URL", cfg.BaseURL))
	}
	if cfg.Timeout <= 0 {
		return domain.ErrConfig.WithDetails("gateway.timeout must be positive")
	}
	if cfg.RateLimit < 0 {
		return domain.ErrConfig.WithDetails("gateway.rate_limit must not be negative")
	}
	if cfg.RateLimit > 0 && cfg.RateBurst < 1 {
		return domain.ErrConfig.WithDetails("gateway.rate_burst must be at least 1")
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Engine {
	case EngineBadger:
		if cfg.Dir == "" {
			return domain.ErrConfig.WithDetails("storage.dir is required for the badger engine")
		}
		if cfg.GCInterval <= 0 {
			return domain.ErrConfig.WithDetails("storage.gc_interval must be positive")
		}
	case EngineMemory:
	default:
		return domain.ErrConfig.WithDetails(fmt.Sprintf("storage.engine %q is not one of badger, memory", cfg.Engine))
	}

	if p := cfg.Encryption.Passphrase; p != "" && len(p) < storage.MinPassphraseLength {
		return domain.ErrConfig.WithDetails(
			fmt.Sprintf("storage.encryption.passphrase must be at least %d characters", storage.MinPassphraseLength))
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return domain.ErrConfig.WithDetails("log.level").WithCause(err)
	}
	if _, err := logger.ParseFormat(cfg.Format); err != nil {
		return domain.ErrConfig.WithDetails("log.format").WithCause(err)
	}
	return nil
}
