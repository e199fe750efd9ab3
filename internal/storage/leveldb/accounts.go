package leveldb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/syndtr/goleveldb/leveldb/opt"

	domainErrors "github.com/polkiloo/creditscore/internal/domain/errors"
	"github.com/polkiloo/creditscore/internal/domain/model"
)

type accountRepository struct {
	storage *Storage
}

func (r *accountRepository) Create(ctx context.Context, p model.Principal, passwordHash string) (*model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.storage.mu.Lock()
	defer r.storage.mu.Unlock()

	key := accountKey(p)
	exists, err := r.storage.db.Has(key, nil)
	if err != nil {
		return nil, fmt.Errorf("check account %s: %w", p, err)
	}
	if exists {
		return nil, domainErrors.ErrAlreadyExists
	}

	acc := model.Account{Principal: p, PasswordHash: passwordHash, CreatedAt: time.Now().UTC()}
	raw, err := json.Marshal(acc)
	if err != nil {
		return nil, err
	}
	if err := r.storage.db.Put(key, raw, &opt.WriteOptions{Sync: r.storage.sync}); err != nil {
		return nil, fmt.Errorf("store account %s: %w", p, err)
	}
	return &acc, nil
}

func (r *accountRepository) GetByPrincipal(ctx context.Context, p model.Principal) (*model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := r.storage.db.Get(accountKey(p), nil)
	if err != nil {
		if isNotFound(err) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("load account %s: %w", p, err)
	}
	var acc model.Account
	if err := json.Unmarshal(raw, &acc); err != nil {
		return nil, fmt.Errorf("decode account %s: %w", p, err)
	}
	return &acc, nil
}
