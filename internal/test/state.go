package test

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/polkiloo/creditscore/internal/domain/model"
	"github.com/polkiloo/creditscore/internal/domain/repository"
)

// MemoryStore keeps ledger state in maps. Writes made inside Atomically are
// staged and only become visible when fn returns nil.
type MemoryStore struct {
	mu         sync.Mutex
	meta       *model.LedgerMeta
	credits    map[model.Principal]model.CreditRecord
	loans      map[uint64]model.LoanRecord
	authorized map[model.Principal]bool

	// Err, when set, is returned by every state accessor.
	Err error
	// Commits counts successful Atomically invocations.
	Commits int32
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		credits:    make(map[model.Principal]model.CreditRecord),
		loans:      make(map[uint64]model.LoanRecord),
		authorized: make(map[model.Principal]bool),
	}
}

// Atomically runs fn against a staged view and commits it on success.
func (s *MemoryStore) Atomically(ctx context.Context, fn func(repository.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := newStagedState(s)
	if err := fn(staged); err != nil {
		return err
	}
	staged.commit()
	atomic.AddInt32(&s.Commits, 1)
	return nil
}

// View runs fn against a staged view that is always discarded.
func (s *MemoryStore) View(ctx context.Context, fn func(repository.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(newStagedState(s))
}

// SeedCredit stores rec directly.
func (s *MemoryStore) SeedCredit(rec model.CreditRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits[rec.Principal] = rec
}

// SeedMeta stores meta directly.
func (s *MemoryStore) SeedMeta(meta model.LedgerMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = &meta
}

// Credit returns a copy of the committed record of p.
func (s *MemoryStore) Credit(p model.Principal) (model.CreditRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.credits[p]
	return rec, ok
}

// LoanByID returns a copy of the committed loan id.
func (s *MemoryStore) LoanByID(id uint64) (model.LoanRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loan, ok := s.loans[id]
	return loan, ok
}

// CommittedMeta returns the committed ledger scalars.
func (s *MemoryStore) CommittedMeta() model.LedgerMeta {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.meta == nil {
		return model.LedgerMeta{}
	}
	return *s.meta
}

type stagedState struct {
	store      *MemoryStore
	meta       *model.LedgerMeta
	credits    map[model.Principal]model.CreditRecord
	loans      map[uint64]model.LoanRecord
	authorized map[model.Principal]bool
}

func newStagedState(s *MemoryStore) *stagedState {
	return &stagedState{
		store:      s,
		credits:    make(map[model.Principal]model.CreditRecord),
		loans:      make(map[uint64]model.LoanRecord),
		authorized: make(map[model.Principal]bool),
	}
}

func (st *stagedState) commit() {
	if st.meta != nil {
		meta := *st.meta
		st.store.meta = &meta
	}
	for k, v := range st.credits {
		st.store.credits[k] = v
	}
	for k, v := range st.loans {
		st.store.loans[k] = v
	}
	for k, v := range st.authorized {
		st.store.authorized[k] = v
	}
}

func (st *stagedState) Meta(context.Context) (model.LedgerMeta, bool, error) {
	if st.store.Err != nil {
		return model.LedgerMeta{}, false, st.store.Err
	}
	if st.meta != nil {
		return *st.meta, true, nil
	}
	if st.store.meta != nil {
		return *st.store.meta, true, nil
	}
	return model.LedgerMeta{}, false, nil
}

func (st *stagedState) PutMeta(_ context.Context, meta model.LedgerMeta) error {
	if st.store.Err != nil {
		return st.store.Err
	}
	st.meta = &meta
	return nil
}

func (st *stagedState) CreditRecord(_ context.Context, p model.Principal) (*model.CreditRecord, bool, error) {
	if st.store.Err != nil {
		return nil, false, st.store.Err
	}
	if rec, ok := st.credits[p]; ok {
		return &rec, true, nil
	}
	if rec, ok := st.store.credits[p]; ok {
		return &rec, true, nil
	}
	return nil, false, nil
}

func (st *stagedState) PutCreditRecord(_ context.Context, rec *model.CreditRecord) error {
	if st.store.Err != nil {
		return st.store.Err
	}
	st.credits[rec.Principal] = *rec
	return nil
}

func (st *stagedState) StaleCreditRecords(_ context.Context, before uint64, limit int) ([]model.CreditRecord, error) {
	if st.store.Err != nil {
		return nil, st.store.Err
	}
	var result []model.CreditRecord
	for _, rec := range st.store.credits {
		if rec.LastUpdated < before {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LastUpdated < result[j].LastUpdated })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (st *stagedState) Loan(_ context.Context, id uint64) (*model.LoanRecord, bool, error) {
	if st.store.Err != nil {
		return nil, false, st.store.Err
	}
	if loan, ok := st.loans[id]; ok {
		return &loan, true, nil
	}
	if loan, ok := st.store.loans[id]; ok {
		return &loan, true, nil
	}
	return nil, false, nil
}

func (st *stagedState) PutLoan(_ context.Context, loan *model.LoanRecord) error {
	if st.store.Err != nil {
		return st.store.Err
	}
	st.loans[loan.ID] = *loan
	return nil
}

func (st *stagedState) IsAuthorized(_ context.Context, p model.Principal) (bool, error) {
	if st.store.Err != nil {
		return false, st.store.Err
	}
	if v, ok := st.authorized[p]; ok {
		return v, nil
	}
	return st.store.authorized[p], nil
}

func (st *stagedState) SetAuthorized(_ context.Context, p model.Principal, authorized bool) error {
	if st.store.Err != nil {
		return st.store.Err
	}
	st.authorized[p] = authorized
	return nil
}

// HeightStub reports a settable block height.
type HeightStub struct {
	height atomic.Uint64
	Err    error
}

// NewHeightStub returns a HeightStub positioned at height.
func NewHeightStub(height uint64) *HeightStub {
	h := &HeightStub{}
	h.height.Store(height)
	return h
}

// Current returns the configured height.
func (h *HeightStub) Current(context.Context) (uint64, error) {
	if h.Err != nil {
		return 0, h.Err
	}
	return h.height.Load(), nil
}

// Set moves the stub to height.
func (h *HeightStub) Set(height uint64) {
	h.height.Store(height)
}

var _ repository.Store = (*MemoryStore)(nil)
