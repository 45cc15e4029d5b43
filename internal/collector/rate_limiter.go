package collector

import (
	"context"
	"sync"
	"time"
)

// fixedPacer implements Pacer with a fixed pause after every Nth page.
// The pause is a pure scheduling delay to stay under the source's rate
// limits, not a correctness requirement.
type fixedPacer struct {
	mu    sync.Mutex
	every int
	delay time.Duration
}

// NewPacer creates a pacer that pauses for delay after every Nth fetched
// page. every <= 0 or delay <= 0 disables pacing.
func NewPacer(every int, delay time.Duration) Pacer {
	return &fixedPacer{every: every, delay: delay}
}

// Pace blocks for the configured delay when page is a multiple of the
// pacing interval, returning early with the context error on cancellation.
func (p *fixedPacer) Pace(ctx context.Context, page int) error {
	p.mu.Lock()
	every, delay := p.every, p.delay
	p.mu.Unlock()

	if every <= 0 || delay <= 0 || page%every != 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
