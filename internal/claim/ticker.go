package claim

import (
	"context"
	"time"
)

// Watch emits a countdown immediately and then once per second until the
// cooldown reaches zero, at which point it emits the final zero value and
// closes the channel. Cancelling ctx releases the ticker; there is no way to
// leak it past the owning session.
func Watch(ctx context.Context, cooldownEndMillis int64, total time.Duration) <-chan Countdown {
	out := make(chan Countdown, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		emit := func(now time.Time) bool {
			c := DeriveCountdown(cooldownEndMillis, now, total)
			select {
			case out <- c:
			case <-ctx.Done():
				return false
			}
			return c.Remaining > 0
		}

		if !emit(time.Now()) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if !emit(now) {
					return
				}
			}
		}
	}()

	return out
}
