// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/footfall/internal/logging"
)

const manifestKeyPrefix = "fetch:"

// ErrNoRecord is returned by Manifest.Get for a file that was never fetched.
var ErrNoRecord = errors.New("no fetch record")

// FetchRecord describes the last successful fetch of one report file.
type FetchRecord struct {
	ID            string    `json:"id"`
	File          string    `json:"file"`
	Report        string    `json:"report"`
	Page          string    `json:"page"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	SiteCode      string    `json:"site_code,omitempty"`
	Bytes         int       `json:"bytes"`
	ContentType   string    `json:"content_type,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// Manifest stores FetchRecords in badger, one key per file.
type Manifest struct {
	db *badger.DB
}

// OpenManifest opens (or creates) the manifest database in dir. An empty dir
// keeps the manifest in memory.
func OpenManifest(dir string) (*Manifest, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{})
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(badgerLogger{})
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	return &Manifest{db: db}, nil
}

// NewManifest wraps an already opened database.
func NewManifest(db *badger.DB) *Manifest {
	return &Manifest{db: db}
}

// Close closes the database.
func (m *Manifest) Close() error {
	return m.db.Close()
}

// Put stores rec, replacing any earlier record for the same file.
func (m *Manifest) Put(ctx context.Context, rec *FetchRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal fetch record: %w", err)
	}
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(manifestKeyPrefix+rec.File), data); err != nil {
			return fmt.Errorf("set fetch record: %w", err)
		}
		return nil
	})
}

// Get returns the record for file or ErrNoRecord.
func (m *Manifest) Get(ctx context.Context, file string) (*FetchRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rec FetchRecord
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(manifestKeyPrefix + file))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoRecord
		}
		if err != nil {
			return fmt.Errorf("get fetch record: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns every record ordered by file name.
func (m *Manifest) List(ctx context.Context) ([]FetchRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []FetchRecord
	err := m.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(manifestKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec FetchRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode fetch record: %w", err)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out, nil
}

// badgerLogger routes badger's internal logging to zerolog at debug level,
// keeping warnings and errors visible.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Debug().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Debug().Str("component", "badger").Msgf(format, args...)
}
