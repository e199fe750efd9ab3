package usecase

import (
	"context"
	"testing"

	domainErrors "github.com/polkiloo/creditscore/internal/domain/errors"
	"github.com/polkiloo/creditscore/internal/domain/model"
	testhelpers "github.com/polkiloo/creditscore/internal/test"
)

func deployedRegistry(t *testing.T) (*AuthorizationRegistry, *testhelpers.MemoryStore) {
	t.Helper()
	store := testhelpers.NewMemoryStore()
	registry := NewAuthorizationRegistry(store)
	if err := registry.Deploy(context.Background(), "owner"); err != nil {
		t.Fatalf("deploy returned error: %v", err)
	}
	return registry, store
}

func TestDeployAuthorizesOwner(t *testing.T) {
	registry, store := deployedRegistry(t)
	ctx := context.Background()

	owner, err := registry.Owner(ctx)
	if err != nil || owner != "owner" {
		t.Fatalf("unexpected owner %q, err %v", owner, err)
	}
	ok, err := registry.IsAuthorized(ctx, "owner")
	if err != nil || !ok {
		t.Fatalf("expected owner to be authorized, got %v %v", ok, err)
	}
	if store.CommittedMeta().Owner != "owner" {
		t.Fatalf("owner not persisted: %+v", store.CommittedMeta())
	}
}

func TestDeployIsIdempotentAndOwnerImmutable(t *testing.T) {
	registry, _ := deployedRegistry(t)
	ctx := context.Background()

	if err := registry.Deploy(ctx, "owner"); err != nil {
		t.Fatalf("redeploy with same owner returned error: %v", err)
	}
	if err := registry.Deploy(ctx, "mallory"); err != domainErrors.ErrOwnerImmutable {
		t.Fatalf("expected ErrOwnerImmutable, got %v", err)
	}
	if err := registry.Deploy(ctx, ""); err != domainErrors.ErrInvalidPrincipal {
		t.Fatalf("expected ErrInvalidPrincipal, got %v", err)
	}
}

func TestOwnerManagesReporters(t *testing.T) {
	registry, _ := deployedRegistry(t)
	ctx := context.Background()

	if err := registry.AddReporter(ctx, "owner", "bureau"); err != nil {
		t.Fatalf("add reporter returned error: %v", err)
	}
	if ok, _ := registry.IsAuthorized(ctx, "bureau"); !ok {
		t.Fatal("expected bureau to be authorized")
	}
	if err := registry.AddReporter(ctx, "owner", "bureau"); err != nil {
		t.Fatalf("adding twice must succeed, got %v", err)
	}

	if err := registry.RemoveReporter(ctx, "owner", "bureau"); err != nil {
		t.Fatalf("remove reporter returned error: %v", err)
	}
	if ok, _ := registry.IsAuthorized(ctx, "bureau"); ok {
		t.Fatal("expected bureau to be revoked")
	}
	if err := registry.RemoveReporter(ctx, "owner", "never-added"); err != nil {
		t.Fatalf("removing unknown reporter must succeed, got %v", err)
	}
}

func TestOwnerCanRevokeItself(t *testing.T) {
	registry, _ := deployedRegistry(t)
	ctx := context.Background()

	if err := registry.RemoveReporter(ctx, "owner", "owner"); err != nil {
		t.Fatalf("remove returned error: %v", err)
	}
	if ok, _ := registry.IsAuthorized(ctx, "owner"); ok {
		t.Fatal("expected owner to lose reporter rights")
	}
	if err := registry.AddReporter(ctx, "owner", "bureau"); err != nil {
		t.Fatalf("owner must keep managing reporters, got %v", err)
	}
}

func TestNonOwnerCannotManageReporters(t *testing.T) {
	registry, _ := deployedRegistry(t)
	ctx := context.Background()
	if err := registry.AddReporter(ctx, "owner", "bureau"); err != nil {
		t.Fatalf("add reporter returned error: %v", err)
	}

	cases := []struct {
		name   string
		caller model.Principal
		apply  func(model.Principal) error
	}{
		{"stranger adds", "mallory", func(c model.Principal) error { return registry.AddReporter(ctx, c, "mallory") }},
		{"reporter adds", "bureau", func(c model.Principal) error { return registry.AddReporter(ctx, c, "friend") }},
		{"stranger removes", "mallory", func(c model.Principal) error { return registry.RemoveReporter(ctx, c, "bureau") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.apply(tc.caller); err != domainErrors.ErrNotAuthorized {
				t.Fatalf("expected ErrNotAuthorized, got %v", err)
			}
		})
	}
	if ok, _ := registry.IsAuthorized(ctx, "bureau"); !ok {
		t.Fatal("bureau must remain authorized")
	}
	if ok, _ := registry.IsAuthorized(ctx, "mallory"); ok {
		t.Fatal("mallory must not be authorized")
	}
}

func TestSetAuthorizedBeforeDeploy(t *testing.T) {
	registry := NewAuthorizationRegistry(testhelpers.NewMemoryStore())
	if err := registry.AddReporter(context.Background(), "", "bureau"); err != domainErrors.ErrNotAuthorized {
		t.Fatalf("expected ErrNotAuthorized without owner, got %v", err)
	}
}

func TestSetAuthorizedRejectsInvalidTarget(t *testing.T) {
	registry, _ := deployedRegistry(t)
	if err := registry.AddReporter(context.Background(), "owner", "not valid"); err != domainErrors.ErrInvalidPrincipal {
		t.Fatalf("expected ErrInvalidPrincipal, got %v", err)
	}
}
