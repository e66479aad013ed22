package config

import "time"

// ClientConfig is the root configuration for fintrack-cli.
type ClientConfig struct {
	Gateway GatewaySection `koanf:"gateway" yaml:"gateway" json:"gateway"`
	Storage StorageSection `koanf:"storage" yaml:"storage" json:"storage"`
	Log     LogSection     `koanf:"log" yaml:"log" json:"log"`
}

// GatewaySection configures the auth API client.
type GatewaySection struct {
	BaseURL   string        `koanf:"base_url" yaml:"base_url" json:"base_url"`
	Timeout   time.Duration `koanf:"timeout" yaml:"timeout" json:"timeout"`
	RateLimit float64       `koanf:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
	RateBurst int           `koanf:"rate_burst" yaml:"rate_burst" json:"rate_burst"`

	// CAFile adds trusted roots (PEM file or directory) for https base URLs.
	CAFile string `koanf:"ca_file" yaml:"ca_file" json:"ca_file"`
}

// StorageSection configures the credential store.
type StorageSection struct {
	Engine     string            `koanf:"engine" yaml:"engine" json:"engine"`
	Dir        string            `koanf:"dir" yaml:"dir" json:"dir"`
	SyncWrites bool              `koanf:"sync_writes" yaml:"sync_writes" json:"sync_writes"`
	GCInterval time.Duration     `koanf:"gc_interval" yaml:"gc_interval" json:"gc_interval"`
	Encryption EncryptionSection `koanf:"encryption" yaml:"encryption" json:"encryption"`
}

// EncryptionSection configures at-rest sealing of credentials.
type EncryptionSection struct {
	// Passphrase enables sealing when non-empty.
	Passphrase string `koanf:"passphrase" yaml:"passphrase" json:"passphrase"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level" json:"level"`
	Format string `koanf:"format" yaml:"format" json:"format"`
}

// Storage engines.
const (
	EngineBadger = "badger"
	EngineMemory = "memory"
)
