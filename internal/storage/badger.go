// Package storage provides the expiring reference store for refstate.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/fxamacker/cbor/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/refstate-go/internal/core/domain"
)

// keyPrefix namespaces reference records in the Badger keyspace.
var keyPrefix = []byte("ref/")

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// Dir is the storage directory.
	Dir string

	// GCInterval is the interval between automatic value log GC runs.
	// Default: 10m
	GCInterval time.Duration

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 64MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 256MB
	ValueLogFileSize int64

	// SyncWrites enables fsync after each write.
	// Default: false
	SyncWrites bool
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig(dir string) BadgerConfig {
	return BadgerConfig{
		Dir:              dir,
		GCInterval:       10 * time.Minute,
		GCThreshold:      0.5,
		CacheSize:        64 << 20,  // 64MB
		ValueLogFileSize: 256 << 20, // 256MB
	}
}

// BadgerStore implements Engine on Badger v3.
//
// Entries carry a Badger TTL so the LSM drops them on compaction. Badger
// TTLs have second granularity, so reads also check ExpiresAt.
type BadgerStore struct {
	db      *badger.DB
	cfg     BadgerConfig
	logger  *slog.Logger
	encMode cbor.EncMode

	closed    atomic.Bool
	closeOnce sync.Once

	lastGCTime atomic.Int64 // Unix milliseconds

	// Shutdown
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewBadgerStore opens a Badger-backed store.
func NewBadgerStore(cfg BadgerConfig, logger *slog.Logger) (*BadgerStore, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = 10 * time.Minute
	}
	if cfg.GCThreshold <= 0 || cfg.GCThreshold >= 1 {
		cfg.GCThreshold = 0.5
	}

	opts := badger.DefaultOptions(cfg.Dir)
	opts.Logger = &badgerLogger{logger: logger}
	opts.SyncWrites = cfg.SyncWrites
	if cfg.CacheSize > 0 {
		opts.BlockCacheSize = cfg.CacheSize
	}
	if cfg.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = cfg.ValueLogFileSize
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("badger: cbor enc mode: %w", err)
	}

	s := &BadgerStore{
		db:      db,
		cfg:     cfg,
		logger:  logger,
		encMode: em,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	go s.gcLoop()

	logger.Info("badger store started",
		"dir", cfg.Dir,
		"cache_size", cfg.CacheSize,
		"gc_interval", cfg.GCInterval)

	return s, nil
}

func recordKey(id string) []byte {
	k := make([]byte, 0, len(keyPrefix)+len(id))
	k = append(k, keyPrefix...)
	return append(k, id...)
}

// Set stores rec under id with the given ttl.
func (s *BadgerStore) Set(_ context.Context, id string, rec *domain.ReferenceRecord, ttl time.Duration) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if rec == nil {
		return ErrNilRecord
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	clone := rec.Clone()
	clone.ExpiresAt = ExpiresAt(time.Now(), ttl)

	value, err := s.encMode.Marshal(clone)
	if err != nil {
		return fmt.Errorf("badger: encode record: %w", err)
	}

	// Round the Badger TTL up so the entry never disappears before ExpiresAt.
	entry := badger.NewEntry(recordKey(id), value).WithTTL(ttl + time.Second)
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	}); err != nil {
		return err
	}

	rec.ExpiresAt = clone.ExpiresAt
	return nil
}

// Get retrieves the record stored under id.
func (s *BadgerStore) Get(_ context.Context, id string) (*domain.ReferenceRecord, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	var rec domain.ReferenceRecord
	if err := cbor.Unmarshal(value, &rec); err != nil {
		return nil, fmt.Errorf("badger: decode record %q: %w", id, err)
	}

	if rec.IsExpired() {
		if _, err := s.deleteIfExpired(id); err != nil && !errors.Is(err, ErrClosed) {
			s.logger.Warn("failed to remove expired record", "error", err)
		}
		return nil, ErrNotFound
	}

	if rec.DocumentIDs == nil {
		rec.DocumentIDs = []string{}
	}
	return &rec, nil
}

// deleteIfExpired removes the record under id only if the copy read inside
// the write transaction is still expired, so a concurrent Set survives.
func (s *BadgerStore) deleteIfExpired(id string) (bool, error) {
	if s.closed.Load() {
		return false, ErrClosed
	}

	deleted := false
	err := s.db.Update(func(txn *badger.Txn) error {
		key := recordKey(id)
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		var rec domain.ReferenceRecord
		if err := cbor.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("badger: decode record %q: %w", id, err)
		}
		if !rec.IsExpired() {
			return nil
		}

		deleted = true
		return txn.Delete(key)
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// Has reports whether a live record is stored under id.
func (s *BadgerStore) Has(ctx context.Context, id string) (bool, error) {
	_, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the record stored under id.
func (s *BadgerStore) Delete(_ context.Context, id string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKey(id))
	})
}

// Len counts the records Badger still considers live.
func (s *BadgerStore) Len() int {
	if s.closed.Load() {
		return 0
	}

	count := 0
	_ = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // Only need keys
		opts.Prefix = keyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count
}

// GC runs value log garbage collection until nothing is left to rewrite.
func (s *BadgerStore) GC() (int, error) {
	startTime := time.Now()

	runs := 0
	for {
		err := s.db.RunValueLogGC(s.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return runs, fmt.Errorf("gc: %w", err)
		}
		runs++
	}

	s.lastGCTime.Store(time.Now().UnixMilli())

	s.logger.Debug("gc completed",
		"rewrites", runs,
		"elapsed", time.Since(startTime))

	return runs, nil
}

// Close gracefully shuts down the store.
func (s *BadgerStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.logger.Info("shutting down badger store")
		s.closed.Store(true)

		close(s.stopCh)
		<-s.doneCh

		if cerr := s.db.Close(); cerr != nil {
			err = fmt.Errorf("close db: %w", cerr)
		}
	})
	return err
}

// RegisterMetrics registers Badger size gauges with reg.
func (s *BadgerStore) RegisterMetrics(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "refstate",
			Subsystem: "badger",
			Name:      "lsm_size_bytes",
			Help:      "Badger LSM tree size in bytes",
		}, func() float64 {
			lsm, _ := s.db.Size()
			return float64(lsm)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "refstate",
			Subsystem: "badger",
			Name:      "value_log_size_bytes",
			Help:      "Badger value log size in bytes",
		}, func() float64 {
			_, vlog := s.db.Size()
			return float64(vlog)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "refstate",
			Subsystem: "badger",
			Name:      "last_gc_timestamp_seconds",
			Help:      "Unix timestamp of the last Badger GC run",
		}, func() float64 {
			return float64(s.lastGCTime.Load()) / 1000.0
		}),
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("register badger metrics: %w", err)
		}
	}
	return nil
}

// gcLoop runs periodic garbage collection.
func (s *BadgerStore) gcLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.GC(); err != nil {
				s.logger.Error("auto gc failed", "error", err)
			}
		case <-s.stopCh:
			return
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

var _ Engine = (*BadgerStore)(nil)
