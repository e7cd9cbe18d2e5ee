package claim

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrClaimInFlight rejects a second claim while one is already being written
// for the same identity from this process.
var ErrClaimInFlight = errors.New("claim already in flight")

// CooldownError reports a claim attempt during an active cooldown. Callers
// treat it as a no-op outcome, not a failure.
type CooldownError struct {
	CooldownEndTime int64
	Remaining       time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("claim on cooldown for another %s", e.Remaining.Round(time.Second))
}

// Result is what a successful claim hands back for display.
type Result struct {
	Receipt         string    `json:"receipt"`
	Amount          int64     `json:"amount"`
	NewBalance      int64     `json:"newBalance"`
	LastClaimTime   time.Time `json:"lastClaimTime"`
	CooldownEndTime int64     `json:"cooldownEndTime"`
}

// Status is the claim card's view of one profile at one instant.
type Status struct {
	CanClaim        bool       `json:"canClaim"`
	TotalTokens     int64      `json:"totalTokens"`
	CooldownEndTime int64      `json:"cooldownEndTime"`
	LastClaimTime   *time.Time `json:"lastClaimTime"`
	Countdown       Countdown  `json:"countdown"`
	// Stale marks a status built from the local cooldown hint because the
	// store was unreachable. Stale statuses never report CanClaim true.
	Stale bool `json:"stale,omitempty"`
}

// Event is the audit-trail record of one successful claim.
type Event struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Receipt   string    `json:"receipt"`
	ClaimedAt time.Time `json:"claimed_at"`
}
