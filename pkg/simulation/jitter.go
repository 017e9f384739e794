package simulation

import (
	"context"
	"math/rand/v2"
	"time"
)

// JitterFunc returns the delay to wait before a mower's next step. It is
// called from several goroutines at once.
type JitterFunc func() time.Duration

// NoJitter never delays
func NoJitter() time.Duration { return 0 }

// UniformJitter returns delays drawn uniformly from [0, max)
func UniformJitter(max time.Duration) JitterFunc {
	if max <= 0 {
		return NoJitter
	}
	return func() time.Duration {
		return rand.N(max)
	}
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
