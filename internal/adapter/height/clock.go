package height

import (
	"context"
	"sync"
	"time"
)

// LocalClock derives the block height from wall time: one block per interval
// since genesis. Useful when no node is reachable.
type LocalClock struct {
	genesis  time.Time
	interval time.Duration

	mu   sync.Mutex
	now  func() time.Time
	last uint64
}

// NewLocalClock constructs LocalClock.
func NewLocalClock(genesis time.Time, interval time.Duration) *LocalClock {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &LocalClock{genesis: genesis, interval: interval, now: time.Now}
}

// SetNowFunc overrides the time source. Passing nil restores time.Now.
func (c *LocalClock) SetNowFunc(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if now == nil {
		now = time.Now
	}
	c.now = now
}

// Current returns the number of whole intervals elapsed since genesis.
func (c *LocalClock) Current(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var h uint64
	if elapsed := c.now().Sub(c.genesis); elapsed > 0 {
		h = uint64(elapsed / c.interval)
	}
	if h < c.last {
		return c.last, nil
	}
	c.last = h
	return h, nil
}
