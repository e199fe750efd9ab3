package leveldb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/polkiloo/creditscore/internal/domain/repository"
)

// Storage implements the ledger store and account repository on an embedded
// LevelDB database. Writers are serialized; readers work on snapshots.
type Storage struct {
	db     *leveldb.DB
	mu     sync.Mutex
	sync   bool
	logger *slog.Logger
}

// Open opens or creates the database at path.
func Open(path string, logger *slog.Logger) (*Storage, error) {
	if path == "" {
		return nil, fmt.Errorf("leveldb path required")
	}
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("resolve leveldb path: %w", err)
	}
	db, err := leveldb.OpenFile(abs, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb: %w", err)
	}
	if logger != nil {
		logger.Info("leveldb storage opened", slog.String("path", abs))
	}
	return &Storage{db: db, sync: true, logger: logger}, nil
}

// OpenMemory opens a database kept entirely in memory.
func OpenMemory(logger *slog.Logger) (*Storage, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("open memory leveldb: %w", err)
	}
	return &Storage{db: db, logger: logger}, nil
}

// Close releases the database.
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Accounts returns the account repository backed by this storage.
func (s *Storage) Accounts() repository.AccountRepository {
	return &accountRepository{storage: s}
}

// Atomically runs fn with exclusive write access. Writes are staged and
// flushed in one batch only when fn succeeds.
func (s *Storage) Atomically(ctx context.Context, fn func(repository.State) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.db.GetSnapshot()
	if err != nil {
		return fmt.Errorf("leveldb snapshot: %w", err)
	}
	defer snap.Release()

	st := newKVState(snap, true)
	if err := fn(st); err != nil {
		return err
	}
	if st.batch.Len() == 0 {
		return nil
	}
	if err := s.db.Write(st.batch, &opt.WriteOptions{Sync: s.sync}); err != nil {
		return fmt.Errorf("leveldb commit: %w", err)
	}
	return nil
}

// View runs fn against a consistent snapshot.
func (s *Storage) View(ctx context.Context, fn func(repository.State) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snap, err := s.db.GetSnapshot()
	if err != nil {
		return fmt.Errorf("leveldb snapshot: %w", err)
	}
	defer snap.Release()
	return fn(newKVState(snap, false))
}

func isNotFound(err error) bool {
	return errors.Is(err, leveldb.ErrNotFound)
}
