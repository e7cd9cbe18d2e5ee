package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"tokenTapAPI/internal/claim"
)

// HistoryService keeps the append-only claim audit trail in Postgres. The
// live profile in the document store only carries the latest claim; history
// questions (how many, when) are answered here.
type HistoryService struct {
	db *pgxpool.Pool
}

func NewHistoryService(db *pgxpool.Pool) *HistoryService {
	return &HistoryService{db: db}
}

// EnsureSchema creates the audit table when it is missing. Called once at
// startup.
func (s *HistoryService) EnsureSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS claim_events (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		amount BIGINT NOT NULL,
		receipt TEXT NOT NULL,
		claimed_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS claim_events_user_idx ON claim_events (user_id, claimed_at DESC);
	`
	if _, err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure claim_events schema: %w", err)
	}
	return nil
}

func (s *HistoryService) RecordClaim(ctx context.Context, ev *claim.Event) error {
	query := `
	INSERT INTO claim_events (id, user_id, amount, receipt, claimed_at)
	VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.Exec(ctx, query, ev.ID, ev.UserID, ev.Amount, ev.Receipt, ev.ClaimedAt)
	if err != nil {
		return fmt.Errorf("failed to record claim event: %w", err)
	}
	return nil
}

func (s *HistoryService) GetUserClaims(ctx context.Context, uid string, limit int) ([]*claim.Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
	SELECT id, user_id, amount, receipt, claimed_at
	FROM claim_events
	WHERE user_id = $1
	ORDER BY claimed_at DESC
	LIMIT $2
	`
	rows, err := s.db.Query(ctx, query, uid, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get claim history: %w", err)
	}
	defer rows.Close()

	events := make([]*claim.Event, 0)
	for rows.Next() {
		ev := &claim.Event{}
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.Amount, &ev.Receipt, &ev.ClaimedAt); err != nil {
			return nil, fmt.Errorf("failed to scan claim event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *HistoryService) GetClaimCount(ctx context.Context, uid string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM claim_events WHERE user_id = $1`, uid).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count claim events: %w", err)
	}
	return count, nil
}
