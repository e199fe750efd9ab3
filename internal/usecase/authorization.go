package usecase

import (
	"context"

	domainErrors "github.com/polkiloo/creditscore/internal/domain/errors"
	"github.com/polkiloo/creditscore/internal/domain/model"
	"github.com/polkiloo/creditscore/internal/domain/repository"
)

// AuthorizationRegistry tracks principals allowed to report repayments and
// defaults on behalf of borrowers. Only the owner may change it.
type AuthorizationRegistry struct {
	store repository.Store
}

// NewAuthorizationRegistry constructs AuthorizationRegistry.
func NewAuthorizationRegistry(store repository.Store) *AuthorizationRegistry {
	return &AuthorizationRegistry{store: store}
}

// Deploy fixes the ledger owner and authorizes it on first start. Subsequent
// calls with the same owner are no-ops.
func (r *AuthorizationRegistry) Deploy(ctx context.Context, owner model.Principal) error {
	if !owner.Valid() {
		return domainErrors.ErrInvalidPrincipal
	}
	return r.store.Atomically(ctx, func(st repository.State) error {
		meta, err := loadMeta(ctx, st)
		if err != nil {
			return err
		}
		if meta.Owner != "" {
			if meta.Owner != owner {
				return domainErrors.ErrOwnerImmutable
			}
			return nil
		}
		meta.Owner = owner
		if err := st.PutMeta(ctx, meta); err != nil {
			return err
		}
		return st.SetAuthorized(ctx, owner, true)
	})
}

// Owner returns the deployed owner.
func (r *AuthorizationRegistry) Owner(ctx context.Context) (model.Principal, error) {
	var owner model.Principal
	err := r.store.View(ctx, func(st repository.State) error {
		meta, err := loadMeta(ctx, st)
		owner = meta.Owner
		return err
	})
	return owner, err
}

// IsAuthorized reports whether p may act as a reporter.
func (r *AuthorizationRegistry) IsAuthorized(ctx context.Context, p model.Principal) (bool, error) {
	var authorized bool
	err := r.store.View(ctx, func(st repository.State) error {
		var err error
		authorized, err = st.IsAuthorized(ctx, p)
		return err
	})
	return authorized, err
}

// AddReporter authorizes reporter.
func (r *AuthorizationRegistry) AddReporter(ctx context.Context, caller, reporter model.Principal) error {
	return r.SetAuthorized(ctx, caller, reporter, true)
}

// RemoveReporter revokes reporter.
func (r *AuthorizationRegistry) RemoveReporter(ctx context.Context, caller, reporter model.Principal) error {
	return r.SetAuthorized(ctx, caller, reporter, false)
}

// SetAuthorized changes the flag of target. Fails with ErrNotAuthorized unless
// caller is the owner.
func (r *AuthorizationRegistry) SetAuthorized(ctx context.Context, caller, target model.Principal, authorized bool) error {
	return r.store.Atomically(ctx, func(st repository.State) error {
		meta, err := loadMeta(ctx, st)
		if err != nil {
			return err
		}
		if meta.Owner == "" || caller != meta.Owner {
			return domainErrors.ErrNotAuthorized
		}
		if !target.Valid() {
			return domainErrors.ErrInvalidPrincipal
		}
		return st.SetAuthorized(ctx, target, authorized)
	})
}
