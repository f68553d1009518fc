// Package pace holds the randomized waits used between requests and while
// simulating a human reader.
package pace

import (
	"context"
	"math/rand"
	"time"
)

// Range is an inclusive interval of durations. The zero Range never waits.
type Range struct {
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`
}

func Between(min, max time.Duration) Range {
	return Range{Min: min, Max: max}
}

// Pick returns a duration uniformly distributed over the range.
func (r Range) Pick() time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(rand.Int63n(int64(r.Max-r.Min)+1))
}

func (r Range) IsZero() bool {
	return r.Min <= 0 && r.Max <= 0
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
