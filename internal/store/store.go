// Package store persists the conversion table in an embedded Badger database and
// holds the product query builder shared by the SQL backends.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/ShoMaruoka/color-size-tool/internal/domain"
)

const countKey = metaPrefix + "entry_count"

// Store wraps a Badger database instance holding conversion entries.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// New opens (or creates) the Badger database at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Every table save must survive a crash
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	return open(opts, logger)
}

// NewInMemory opens a Badger database that lives only in memory.
func NewInMemory(logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	return open(opts, logger)
}

func open(opts badger.Options, logger *slog.Logger) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", opts.Dir, "in_memory", opts.InMemory)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// LoadEntries returns every stored entry, superseded ones included, in table order.
func (s *Store) LoadEntries(ctx context.Context) ([]domain.ConversionEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []domain.ConversionEntry
	want := -1

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(countKey))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			want = 0
		case err != nil:
			return err
		default:
			if err := item.Value(func(val []byte) error {
				n, err := strconv.Atoi(string(val))
				want = n
				return err
			}); err != nil {
				return ErrCorruptData.WithCause(err)
			}
		}

		prefix := []byte(entryPrefix)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		next := 0
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			pos, err := parseEntryKey(item.Key())
			if err != nil {
				return ErrCorruptData.WithCause(err)
			}
			if pos != next {
				return ErrCorruptData.WithMessage(fmt.Sprintf("entry position %d missing", next))
			}
			next++

			var e domain.ConversionEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return ErrCorruptData.WithCause(err)
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	if len(entries) != want {
		return nil, fmt.Errorf("load entries: %w",
			ErrCorruptData.WithMessage(fmt.Sprintf("expected %d entries, found %d", want, len(entries))))
	}
	return entries, nil
}

// SaveEntries replaces the stored table with entries in a single transaction.
func (s *Store) SaveEntries(ctx context.Context, entries []domain.ConversionEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := deletePrefixInTxn(txn, []byte(entryPrefix)); err != nil {
			return err
		}

		for pos, e := range entries {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("failed to marshal entry %s: %w", e.EntryID, err)
			}

			if err := txn.Set(entryKey(pos), data); err != nil {
				return err
			}
		}

		return txn.Set([]byte(countKey), []byte(strconv.Itoa(len(entries))))
	})
	if err != nil {
		return fmt.Errorf("save entries: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug("conversion entries saved", "entries", len(entries))
	}
	return nil
}

// deletePrefixInTxn removes every key under prefix.
func deletePrefixInTxn(txn *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, key := range keys {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
