package storage

import (
	"context"
	"errors"
	"time"
)

// Common errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("kv engine closed")
)

// KVEngine defines the interface for embedded key-value storage.
//
// Implementation requirements:
//   - Thread-safe: concurrent reads/writes must be safe
//   - Atomic batches: a WriteBatch is applied entirely or not at all
//   - Consistent reads: GetMany observes a single point in time
type KVEngine interface {
	// Get retrieves a value by key.
	// Returns ErrKeyNotFound if key doesn't exist.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// GetMany reads several keys in one consistent view.
	// Missing keys are absent from the result map rather than an error.
	GetMany(ctx context.Context, keys [][]byte) (map[string][]byte, error)

	// Set stores a single key-value pair.
	Set(ctx context.Context, key, value []byte) error

	// WriteBatch atomically applies puts and deletes.
	WriteBatch(ctx context.Context, batch *Batch) error

	// Close gracefully shuts down the KV engine.
	Close() error
}

// Batch is an ordered set of mutations applied atomically by WriteBatch.
type Batch struct {
	Puts    []KV
	Deletes [][]byte
}

// KV is a single key-value pair.
type KV struct {
	Key   []byte
	Value []byte
}

// Put appends a put to the batch.
func (b *Batch) Put(key, value []byte) *Batch {
	b.Puts = append(b.Puts, KV{Key: key, Value: value})
	return b
}

// Delete appends a delete to the batch.
func (b *Batch) Delete(key []byte) *Batch {
	b.Deletes = append(b.Deletes, key)
	return b
}

// Len returns the number of mutations in the batch.
func (b *Batch) Len() int {
	return len(b.Puts) + len(b.Deletes)
}

// KVConfig configures an embedded KV engine.
type KVConfig struct {
	// Engine specifies the KV engine type ("badger", "memory").
	// Default: "badger"
	Engine string

	// Dir is the storage directory (badger only).
	Dir string

	// Badger-specific configuration
	Badger BadgerConfig
}

// BadgerConfig contains Badger-specific tuning parameters.
//
// Credential records are tiny, so the defaults keep memory low rather
// than chase throughput.
type BadgerConfig struct {
	// GCInterval is the interval between automatic value log GC runs.
	// Zero or negative disables the background loop.
	// Default: 10m
	GCInterval time.Duration

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 1MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 16MB
	ValueLogFileSize int64

	// SyncWrites enables fsync after each write.
	// Default: true (a lost token rotation cannot be recovered)
	SyncWrites bool
}

// DefaultKVConfig returns the default KV configuration.
func DefaultKVConfig(dir string) KVConfig {
	return KVConfig{
		Engine: "badger",
		Dir:    dir,
		Badger: DefaultBadgerConfig(),
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:       10 * time.Minute,
		GCThreshold:      0.5,
		CacheSize:        1 << 20,  // 1MB
		ValueLogFileSize: 16 << 20, // 16MB
		SyncWrites:       true,
	}
}
