package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultBaseURL   = "http://localhost:8000/api"
	DefaultTimeout   = 15 * time.Second
	DefaultRateBurst = 1

	DefaultEngine     = EngineBadger
	DefaultGCInterval = 10 * time.Minute

	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"

	// homeDirName is the per-user directory under $HOME.
	homeDirName = ".fintrack"
)

// Default returns the default client configuration.
func Default() *ClientConfig {
	return &ClientConfig{
		Gateway: GatewaySection{
			BaseURL:   DefaultBaseURL,
			Timeout:   DefaultTimeout,
			RateBurst: DefaultRateBurst,
		},
		Storage: StorageSection{
			Engine:     DefaultEngine,
			Dir:        DefaultStorageDir(),
			SyncWrites: true,
			GCInterval: DefaultGCInterval,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Map returns the defaults as dotted keys for the loader.
func (c *ClientConfig) Map() map[string]any {
	return map[string]any{
		"gateway.base_url":              c.Gateway.BaseURL,
		"gateway.timeout":               c.Gateway.Timeout.String(),
		"gateway.rate_limit":            c.Gateway.RateLimit,
		"gateway.rate_burst":            c.Gateway.RateBurst,
		"gateway.ca_file":               c.Gateway.CAFile,
		"storage.engine":                c.Storage.Engine,
		"storage.dir":                   c.Storage.Dir,
		"storage.sync_writes":           c.Storage.SyncWrites,
		"storage.gc_interval":           c.Storage.GCInterval.String(),
		"storage.encryption.passphrase": c.Storage.Encryption.Passphrase,
		"log.level":                     c.Log.Level,
		"log.format":                    c.Log.Format,
	}
}

// HomeDir returns ~/.fintrack, or ./.fintrack when $HOME is unknown.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return homeDirName
	}
	return filepath.Join(home, homeDirName)
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(HomeDir(), "cli.yaml")
}

// DefaultStorageDir returns the default credential store directory.
func DefaultStorageDir() string {
	return filepath.Join(HomeDir(), "credentials")
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
