package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// gcTimeout bounds one background GC pass.
const gcTimeout = time.Minute

// BadgerEngine implements KVEngine on Badger v3. Every batch is one
// Badger transaction, so a crash mid-write never exposes part of it.
type BadgerEngine struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger *slog.Logger

	closed    atomic.Bool
	stop      chan struct{}
	loops     sync.WaitGroup
	closeOnce sync.Once
}

// NewBadgerEngine opens (or creates) a Badger database under cfg.Dir.
func NewBadgerEngine(cfg KVConfig, logger *slog.Logger) (*BadgerEngine, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "badger")

	opts := badger.DefaultOptions(cfg.Dir).
		WithLogger(badgerLog{logger}).
		WithBlockCacheSize(cfg.Badger.CacheSize).
		WithValueLogFileSize(cfg.Badger.ValueLogFileSize).
		WithSyncWrites(cfg.Badger.SyncWrites).
		WithMemTableSize(8 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open %s: %w", cfg.Dir, err)
	}

	e := &BadgerEngine{
		db:     db,
		cfg:    cfg.Badger,
		logger: logger,
		stop:   make(chan struct{}),
	}
	if e.cfg.GCInterval > 0 {
		e.loops.Add(1)
		go e.gcLoop(e.cfg.GCInterval)
	}

	logger.Debug("opened", "dir", cfg.Dir, "sync_writes", e.cfg.SyncWrites, "gc_interval", e.cfg.GCInterval)
	return e, nil
}

// Get returns the value of key, or ErrKeyNotFound.
func (e *BadgerEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	found, err := e.GetMany(ctx, [][]byte{key})
	if err != nil {
		return nil, err
	}
	value, ok := found[string(key)]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return value, nil
}

// GetMany reads keys inside one read transaction.
func (e *BadgerEngine) GetMany(_ context.Context, keys [][]byte) (map[string][]byte, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}

	found := make(map[string][]byte, len(keys))
	err := e.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			item, err := txn.Get(key)
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
				continue
			case err != nil:
				return fmt.Errorf("get %q: %w", key, err)
			}
			if found[string(key)], err = item.ValueCopy(nil); err != nil {
				return fmt.Errorf("copy %q: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Set stores a single pair.
func (e *BadgerEngine) Set(ctx context.Context, key, value []byte) error {
	return e.WriteBatch(ctx, new(Batch).Put(key, value))
}

// WriteBatch applies puts then deletes in one transaction.
func (e *BadgerEngine) WriteBatch(_ context.Context, batch *Batch) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if batch == nil || batch.Len() == 0 {
		return nil
	}

	return e.db.Update(func(txn *badger.Txn) error {
		for _, kv := range batch.Puts {
			if err := txn.Set(kv.Key, kv.Value); err != nil {
				return fmt.Errorf("set %q: %w", kv.Key, err)
			}
		}
		for _, key := range batch.Deletes {
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("delete %q: %w", key, err)
			}
		}
		return nil
	})
}

// GC rewrites value log files until Badger reports nothing left to reclaim.
func (e *BadgerEngine) GC(ctx context.Context) error {
	if e.closed.Load() {
		return ErrClosed
	}

	for rewrites := 0; ; rewrites++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := e.db.RunValueLogGC(e.cfg.GCThreshold)
		if errors.Is(err, badger.ErrNoRewrite) {
			e.logger.Debug("value log gc done", "rewrites", rewrites)
			return nil
		}
		if err != nil {
			return fmt.Errorf("badger: value log gc: %w", err)
		}
	}
}

// Close stops the GC loop and closes the database. Later calls return nil.
func (e *BadgerEngine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		close(e.stop)
		e.loops.Wait()

		if cerr := e.db.Close(); cerr != nil {
			err = fmt.Errorf("badger: close: %w", cerr)
		}
		e.logger.Debug("closed")
	})
	return err
}

// RegisterMetrics exposes the LSM and value log sizes as gauges and
// returns the engine.
func (e *BadgerEngine) RegisterMetrics(registerer prometheus.Registerer) *BadgerEngine {
	size := func(name, help string, pick func(lsm, vlog int64) int64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "fintrack",
			Subsystem: "credential_store",
			Name:      name,
			Help:      help,
		}, func() float64 {
			return float64(pick(e.db.Size()))
		})
	}

	registerer.MustRegister(
		size("lsm_size_bytes", "Badger LSM tree size in bytes",
			func(lsm, _ int64) int64 { return lsm }),
		size("value_log_size_bytes", "Badger value log size in bytes",
			func(_, vlog int64) int64 { return vlog }),
	)
	return e
}

func (e *BadgerEngine) gcLoop(interval time.Duration) {
	defer e.loops.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), gcTimeout)
			if err := e.GC(ctx); err != nil && !errors.Is(err, ErrClosed) {
				e.logger.Warn("background gc failed", "error", err)
			}
			cancel()
		}
	}
}

// badgerLog routes Badger's printf logging into slog. Badger's info
// output is demoted to debug.
type badgerLog struct{ l *slog.Logger }

func (b badgerLog) Errorf(format string, args ...interface{})   { b.emit(slog.LevelError, format, args) }
func (b badgerLog) Warningf(format string, args ...interface{}) { b.emit(slog.LevelWarn, format, args) }
func (b badgerLog) Infof(format string, args ...interface{})    { b.emit(slog.LevelDebug, format, args) }
func (b badgerLog) Debugf(format string, args ...interface{})   { b.emit(slog.LevelDebug, format, args) }

func (b badgerLog) emit(level slog.Level, format string, args []interface{}) {
	if !b.l.Enabled(context.Background(), level) {
		return
	}
	b.l.Log(context.Background(), level, strings.TrimSpace(fmt.Sprintf(format, args...)))
}
