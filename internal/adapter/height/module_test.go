package height

import (
	"testing"
	"time"

	"github.com/polkiloo/creditscore/internal/config"
)

func TestNewSourceUsesConfig(t *testing.T) {
	cfg := &config.Config{HeightSourceAddress: "http://example.com"}
	source, err := newSource(sourceParams{Config: cfg, Logger: testLogger()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := source.(*HTTPSource); !ok {
		t.Fatalf("expected HTTPSource, got %T", source)
	}
}

func TestNewSourceFallsBackToLocalClock(t *testing.T) {
	cfg := &config.Config{GenesisTime: time.Now(), BlockInterval: time.Second}
	source, err := newSource(sourceParams{Config: cfg, Logger: testLogger()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clock, ok := source.(*LocalClock)
	if !ok {
		t.Fatalf("expected LocalClock, got %T", source)
	}
	if clock.interval != time.Second {
		t.Fatalf("unexpected interval %v", clock.interval)
	}
}

func TestNewSourceRejectsRelativeURL(t *testing.T) {
	cfg := &config.Config{HeightSourceAddress: "/node"}
	if _, err := newSource(sourceParams{Config: cfg, Logger: testLogger()}); err == nil {
		t.Fatal("expected error")
	}
}
