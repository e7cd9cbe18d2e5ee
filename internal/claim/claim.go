// Package claim holds the pure pieces of the claim state machine: the
// eligibility predicate, countdown derivation and receipt generation.
package claim

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// CanClaim reports whether a claim is permitted at now. The comparison is
// strict: at the exact boundary instant the claim is still locked; it opens
// one tick after expiry. A zero cooldownEndMillis means never claimed.
func CanClaim(cooldownEndMillis int64, now time.Time) bool {
	return cooldownEndMillis == 0 || now.UnixMilli() > cooldownEndMillis
}

// Remaining is the time left on the cooldown, floored at zero.
func Remaining(cooldownEndMillis int64, now time.Time) time.Duration {
	if cooldownEndMillis == 0 {
		return 0
	}
	ms := cooldownEndMillis - now.UnixMilli()
	if ms < 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// Countdown is a display-only decomposition of the remaining cooldown.
type Countdown struct {
	Remaining       time.Duration `json:"-"`
	RemainingMillis int64         `json:"remainingMs"`
	Hours           int           `json:"hours"`
	Minutes         int           `json:"minutes"`
	Seconds         int           `json:"seconds"`
	// Progress is remaining/total clamped to [0,1].
	Progress float64 `json:"progress"`
}

// DeriveCountdown computes the countdown for one instant. Pure; callers
// re-evaluate it on a tick. It does not flip eligibility, that is CanClaim's
// job against the same timestamp.
func DeriveCountdown(cooldownEndMillis int64, now time.Time, total time.Duration) Countdown {
	remaining := Remaining(cooldownEndMillis, now)
	ms := remaining.Milliseconds()

	c := Countdown{
		Remaining:       remaining,
		RemainingMillis: ms,
		Hours:           int(ms/(1000*60*60)) % 24,
		Minutes:         int(ms/(1000*60)) % 60,
		Seconds:         int(ms/1000) % 60,
	}
	if total > 0 {
		c.Progress = float64(remaining) / float64(total)
		if c.Progress > 1 {
			c.Progress = 1
		}
		if c.Progress < 0 {
			c.Progress = 0
		}
	}
	return c
}

// NewReceipt returns a 0x-prefixed 256-bit hex identifier for a successful
// claim. It is a display artifact only: nothing on any chain corresponds to
// it. crypto/rand keeps receipts from colliding across sessions.
func NewReceipt() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate claim receipt: %w", err)
	}
	return "0x" + hex.EncodeToString(buf), nil
}
