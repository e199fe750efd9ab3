package height

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLocalClockCountsIntervals(t *testing.T) {
	genesis := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewLocalClock(genesis, time.Minute)

	now := genesis.Add(-time.Hour)
	clock.SetNowFunc(func() time.Time { return now })

	h, err := clock.Current(context.Background())
	if err != nil || h != 0 {
		t.Fatalf("expected 0 before genesis, got %d err=%v", h, err)
	}

	now = genesis.Add(90 * time.Second)
	if h, _ = clock.Current(context.Background()); h != 1 {
		t.Fatalf("expected 1, got %d", h)
	}

	now = genesis.Add(100 * time.Minute)
	if h, _ = clock.Current(context.Background()); h != 100 {
		t.Fatalf("expected 100, got %d", h)
	}
}

func TestLocalClockNeverGoesBackwards(t *testing.T) {
	genesis := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewLocalClock(genesis, time.Second)

	now := genesis.Add(50 * time.Second)
	clock.SetNowFunc(func() time.Time { return now })
	if h, _ := clock.Current(context.Background()); h != 50 {
		t.Fatalf("expected 50, got %d", h)
	}

	now = genesis.Add(10 * time.Second)
	if h, _ := clock.Current(context.Background()); h != 50 {
		t.Fatalf("expected clock to hold at 50, got %d", h)
	}
}

func TestLocalClockDefaultsAndCancellation(t *testing.T) {
	clock := NewLocalClock(time.Now(), 0)
	if clock.interval != 10*time.Minute {
		t.Fatalf("unexpected default interval %v", clock.interval)
	}
	clock.SetNowFunc(nil)
	if clock.now == nil {
		t.Fatal("expected time.Now to be restored")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := clock.Current(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}
