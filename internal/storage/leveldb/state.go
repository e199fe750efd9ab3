package leveldb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/polkiloo/creditscore/internal/domain/model"
	"github.com/polkiloo/creditscore/internal/domain/repository"
)

const (
	metaKey          = "meta/ledger"
	creditKeyPrefix  = "credit/"
	loanKeyPrefix    = "loan/"
	authKeyPrefix    = "auth/"
	accountKeyPrefix = "account/"
	staleKeyPrefix   = "stale/"
)

var errReadOnly = errors.New("leveldb: write in read-only view")

func creditKey(p model.Principal) []byte  { return []byte(creditKeyPrefix + p.String()) }
func loanKey(id uint64) []byte            { return []byte(fmt.Sprintf("%s%020d", loanKeyPrefix, id)) }
func authKey(p model.Principal) []byte    { return []byte(authKeyPrefix + p.String()) }
func accountKey(p model.Principal) []byte { return []byte(accountKeyPrefix + p.String()) }

// staleKey orders credit records by LastUpdated, then principal.
func staleKey(height uint64, p model.Principal) []byte {
	return []byte(fmt.Sprintf("%s%020d/%s", staleKeyPrefix, height, p))
}

func principalFromStaleKey(key string) model.Principal {
	return model.Principal(key[len(staleKeyPrefix)+21:])
}

type reader interface {
	Get(key []byte, ro *opt.ReadOptions) ([]byte, error)
	NewIterator(slice *util.Range, ro *opt.ReadOptions) iterator.Iterator
}

// kvState implements repository.State over a snapshot plus staged writes.
type kvState struct {
	r        reader
	writable bool
	batch    *leveldb.Batch
	staged   map[string][]byte
	deleted  map[string]bool
}

var _ repository.State = (*kvState)(nil)

func newKVState(r reader, writable bool) *kvState {
	return &kvState{
		r:        r,
		writable: writable,
		batch:    new(leveldb.Batch),
		staged:   make(map[string][]byte),
		deleted:  make(map[string]bool),
	}
}

func (s *kvState) get(key []byte) ([]byte, bool, error) {
	k := string(key)
	if s.deleted[k] {
		return nil, false, nil
	}
	if v, ok := s.staged[k]; ok {
		return v, true, nil
	}
	v, err := s.r.Get(key, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return v, true, nil
}

func (s *kvState) put(key []byte, value any) error {
	if !s.writable {
		return errReadOnly
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	k := string(key)
	delete(s.deleted, k)
	s.staged[k] = raw
	s.batch.Put(key, raw)
	return nil
}

func (s *kvState) delete(key []byte) error {
	if !s.writable {
		return errReadOnly
	}
	k := string(key)
	delete(s.staged, k)
	s.deleted[k] = true
	s.batch.Delete(key)
	return nil
}

func (s *kvState) load(key []byte, dst any) (bool, error) {
	raw, ok, err := s.get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *kvState) Meta(ctx context.Context) (model.LedgerMeta, bool, error) {
	var meta model.LedgerMeta
	ok, err := s.load([]byte(metaKey), &meta)
	if err != nil {
		return model.LedgerMeta{}, false, fmt.Errorf("load ledger meta: %w", err)
	}
	return meta, ok, nil
}

func (s *kvState) PutMeta(ctx context.Context, meta model.LedgerMeta) error {
	return s.put([]byte(metaKey), meta)
}

func (s *kvState) CreditRecord(ctx context.Context, p model.Principal) (*model.CreditRecord, bool, error) {
	var rec model.CreditRecord
	ok, err := s.load(creditKey(p), &rec)
	if err != nil {
		return nil, false, fmt.Errorf("load credit record %s: %w", p, err)
	}
	if !ok {
		return nil, false, nil
	}
	return &rec, true, nil
}

// PutCreditRecord stores rec and moves its entry in the stale index.
func (s *kvState) PutCreditRecord(ctx context.Context, rec *model.CreditRecord) error {
	prev, ok, err := s.CreditRecord(ctx, rec.Principal)
	if err != nil {
		return err
	}
	if ok && prev.LastUpdated != rec.LastUpdated {
		if err := s.delete(staleKey(prev.LastUpdated, prev.Principal)); err != nil {
			return err
		}
	}
	if err := s.put(creditKey(rec.Principal), rec); err != nil {
		return err
	}
	return s.put(staleKey(rec.LastUpdated, rec.Principal), rec.Principal)
}

// StaleCreditRecords walks the stale index in (LastUpdated, principal) order
// and stops after limit records.
func (s *kvState) StaleCreditRecords(ctx context.Context, before uint64, limit int) ([]model.CreditRecord, error) {
	upper := string(staleKey(before, ""))

	var staged []string
	for key := range s.staged {
		if strings.HasPrefix(key, staleKeyPrefix) && key < upper {
			staged = append(staged, key)
		}
	}
	sort.Strings(staged)

	iter := s.r.NewIterator(&util.Range{Start: []byte(staleKeyPrefix), Limit: []byte(upper)}, nil)
	defer iter.Release()

	var result []model.CreditRecord
	hasNext := iter.Next()
	for hasNext || len(staged) > 0 {
		if limit > 0 && len(result) >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var key string
		switch {
		case !hasNext:
			key, staged = staged[0], staged[1:]
		case len(staged) > 0 && staged[0] <= string(iter.Key()):
			if staged[0] == string(iter.Key()) {
				hasNext = iter.Next()
			}
			key, staged = staged[0], staged[1:]
		default:
			key = string(iter.Key())
			hasNext = iter.Next()
		}
		if s.deleted[key] {
			continue
		}

		rec, ok, err := s.CreditRecord(ctx, principalFromStaleKey(key))
		if err != nil {
			return nil, err
		}
		if !ok || rec.LastUpdated >= before {
			continue
		}
		result = append(result, *rec)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("scan stale index: %w", err)
	}
	return result, nil
}

func (s *kvState) Loan(ctx context.Context, id uint64) (*model.LoanRecord, bool, error) {
	var loan model.LoanRecord
	ok, err := s.load(loanKey(id), &loan)
	if err != nil {
		return nil, false, fmt.Errorf("load loan %d: %w", id, err)
	}
	if !ok {
		return nil, false, nil
	}
	return &loan, true, nil
}

func (s *kvState) PutLoan(ctx context.Context, loan *model.LoanRecord) error {
	return s.put(loanKey(loan.ID), loan)
}

func (s *kvState) IsAuthorized(ctx context.Context, p model.Principal) (bool, error) {
	_, ok, err := s.get(authKey(p))
	if err != nil {
		return false, fmt.Errorf("check reporter %s: %w", p, err)
	}
	return ok, nil
}

func (s *kvState) SetAuthorized(ctx context.Context, p model.Principal, authorized bool) error {
	if authorized {
		return s.put(authKey(p), true)
	}
	return s.delete(authKey(p))
}
