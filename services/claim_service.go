package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"tokenTapAPI/internal/claim"
	"tokenTapAPI/internal/store"
	"tokenTapAPI/internal/types/user"
)

// ClaimConfig carries the fixed reward parameters. Zero values fall back to
// the defaults the app ships with.
type ClaimConfig struct {
	Amount   int64
	Cooldown time.Duration
}

const (
	DefaultClaimAmount = 50
	DefaultCooldown    = 24 * time.Hour
)

// ClaimService owns claim eligibility, the cooldown and the balance. All
// profile mutations after creation go through here.
type ClaimService struct {
	store    store.Store
	history  *HistoryService
	amount   int64
	cooldown time.Duration
	now      func() time.Time

	mu       sync.Mutex
	inFlight map[string]bool
	// hints caches the last cooldownEndTime seen per identity. Advisory
	// only: reconciled on every authoritative read, consulted only when the
	// store is unreachable, and never used to grant a claim.
	hints map[string]int64
}

func NewClaimService(st store.Store, history *HistoryService, cfg ClaimConfig) *ClaimService {
	if cfg.Amount <= 0 {
		cfg.Amount = DefaultClaimAmount
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	return &ClaimService{
		store:    st,
		history:  history,
		amount:   cfg.Amount,
		cooldown: cfg.Cooldown,
		now:      time.Now,
		inFlight: make(map[string]bool),
		hints:    make(map[string]int64),
	}
}

func (s *ClaimService) Amount() int64           { return s.amount }
func (s *ClaimService) Cooldown() time.Duration { return s.cooldown }

// Claim credits the fixed amount and arms the cooldown in one transactional
// write. The eligibility check is re-run inside the transaction, so two
// sessions racing on the same identity serialize at the store and the loser
// comes back with a CooldownError.
func (s *ClaimService) Claim(ctx context.Context, uid string) (*claim.Result, error) {
	if !s.acquire(uid) {
		return nil, claim.ErrClaimInFlight
	}
	defer s.release(uid)

	receipt, err := claim.NewReceipt()
	if err != nil {
		return nil, err
	}

	var result *claim.Result

	err = s.store.RunTransaction(ctx, user.Collection, uid, func(fields map[string]interface{}, exists bool) (map[string]interface{}, error) {
		if !exists {
			return nil, fmt.Errorf("profile not found for %s", uid)
		}

		now := s.now()
		cooldownEnd := user.AsInt64(fields[user.FieldCooldownEndTime])
		if !claim.CanClaim(cooldownEnd, now) {
			return nil, &claim.CooldownError{
				CooldownEndTime: cooldownEnd,
				Remaining:       claim.Remaining(cooldownEnd, now),
			}
		}

		newBalance := user.AsInt64(fields[user.FieldTotalTokens]) + s.amount
		newCooldownEnd := now.UnixMilli() + s.cooldown.Milliseconds()

		result = &claim.Result{
			Receipt:         receipt,
			Amount:          s.amount,
			NewBalance:      newBalance,
			LastClaimTime:   now,
			CooldownEndTime: newCooldownEnd,
		}

		// Balance, last claim time and cooldown end travel in one write.
		return map[string]interface{}{
			user.FieldTotalTokens:     newBalance,
			user.FieldLastClaimTime:   now,
			user.FieldCooldownEndTime: newCooldownEnd,
		}, nil
	})
	if err != nil {
		var cdErr *claim.CooldownError
		if errors.As(err, &cdErr) {
			s.rememberHint(uid, cdErr.CooldownEndTime)
			return nil, cdErr
		}
		return nil, fmt.Errorf("failed to claim for %s: %w", uid, err)
	}

	s.rememberHint(uid, result.CooldownEndTime)
	s.recordEvent(uid, result)

	log.Printf("Claim succeeded for %s: +%d tokens, receipt %s", uid, result.Amount, result.Receipt)
	return result, nil
}

// Status reads the authoritative profile and derives the claim card state.
// If the store is unreachable it fails closed: CanClaim false, countdown
// built from the advisory hint, Stale set.
func (s *ClaimService) Status(ctx context.Context, uid string) (*claim.Status, error) {
	doc, err := s.store.GetDocument(ctx, user.Collection, uid)
	if err != nil {
		hint, ok := s.hint(uid)
		if !ok {
			return nil, fmt.Errorf("failed to read profile for %s: %w", uid, err)
		}
		log.Printf("Status for %s falling back to cooldown hint: %v", uid, err)
		return &claim.Status{
			CanClaim:        false,
			CooldownEndTime: hint,
			Countdown:       claim.DeriveCountdown(hint, s.now(), s.cooldown),
			Stale:           true,
		}, nil
	}

	p := user.ProfileFromFields(doc.ID, doc.Fields)
	s.rememberHint(uid, p.CooldownEndTime)

	now := s.now()
	return &claim.Status{
		CanClaim:        claim.CanClaim(p.CooldownEndTime, now),
		TotalTokens:     p.TotalTokens,
		CooldownEndTime: p.CooldownEndTime,
		LastClaimTime:   p.LastClaimTime,
		Countdown:       claim.DeriveCountdown(p.CooldownEndTime, now, s.cooldown),
	}, nil
}

// recordEvent appends the audit record. Best effort: the claim is already
// committed, so a history failure is logged, not propagated.
func (s *ClaimService) recordEvent(uid string, result *claim.Result) {
	if s.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ev := &claim.Event{
		ID:        uuid.New(),
		UserID:    uid,
		Amount:    result.Amount,
		Receipt:   result.Receipt,
		ClaimedAt: result.LastClaimTime,
	}
	if err := s.history.RecordClaim(ctx, ev); err != nil {
		log.Printf("Warning: failed to record claim event for %s: %v", uid, err)
	}
}

func (s *ClaimService) acquire(uid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[uid] {
		return false
	}
	s.inFlight[uid] = true
	return true
}

func (s *ClaimService) release(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, uid)
}

func (s *ClaimService) rememberHint(uid string, cooldownEnd int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hints[uid] = cooldownEnd
}

func (s *ClaimService) hint(uid string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.hints[uid]
	return v, ok
}
