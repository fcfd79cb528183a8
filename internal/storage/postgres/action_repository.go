package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dvirla/calendar-agent-backend/internal/domain"
)

// ActionRepository persists pending actions. Expiry is enforced in every
// read: a row past its expires_at is invisible here even before a sweep
// physically removes it.
type ActionRepository struct {
	pool *pgxpool.Pool
}

func NewActionRepository(pool *pgxpool.Pool) *ActionRepository {
	return &ActionRepository{pool: pool}
}

func (r *ActionRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *ActionRepository) CreateAction(ctx context.Context, action domain.PendingAction) error {
	const stmt = `
INSERT INTO pending_actions (action_id, owner_id, action_type, description, details, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if !action.Type.Valid() {
		return fmt.Errorf("unknown action type %q", action.Type)
	}

	details, err := json.Marshal(action.Details)
	if err != nil {
		return fmt.Errorf("marshal action details: %w", err)
	}

	_, err = db(ctx, r.pool).Exec(ctx, stmt,
		action.ActionID,
		action.OwnerID,
		string(action.Type),
		action.Description,
		details,
		action.CreatedAt,
		action.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create pending action: %w", err)
	}
	return nil
}

// GetActive returns the unexpired action with the given id for the given
// owner, or nil when no such row exists. Wrong owner and expired both read
// as absent.
func (r *ActionRepository) GetActive(ctx context.Context, ownerID, actionID string, now time.Time) (*domain.PendingAction, error) {
	const query = `
SELECT action_id, owner_id, action_type, description, details, created_at, expires_at
FROM pending_actions
WHERE action_id = $1 AND owner_id = $2 AND expires_at > $3`

	action, err := scanAction(db(ctx, r.pool).QueryRow(ctx, query, actionID, ownerID, now))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get pending action: %w", err)
	}
	return &action, nil
}

// ListActive returns the owner's unexpired actions, oldest first.
func (r *ActionRepository) ListActive(ctx context.Context, ownerID string, now time.Time) ([]domain.PendingAction, error) {
	const query = `
SELECT action_id, owner_id, action_type, description, details, created_at, expires_at
FROM pending_actions
WHERE owner_id = $1 AND expires_at > $2
ORDER BY created_at ASC`

	rows, err := db(ctx, r.pool).Query(ctx, query, ownerID, now)
	if err != nil {
		return nil, fmt.Errorf("list pending actions: %w", err)
	}
	defer rows.Close()

	var actions []domain.PendingAction
	for rows.Next() {
		action, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending action: %w", err)
		}
		actions = append(actions, action)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending actions: %w", err)
	}
	return actions, nil
}

// DeleteAction removes the row if it still exists for the owner and reports
// whether anything was removed. Idempotent; a lost race reads as false.
func (r *ActionRepository) DeleteAction(ctx context.Context, ownerID, actionID string) (bool, error) {
	const stmt = `DELETE FROM pending_actions WHERE action_id = $1 AND owner_id = $2`

	tag, err := db(ctx, r.pool).Exec(ctx, stmt, actionID, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete pending action: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SweepExpired removes every row past its expiry, across all owners.
func (r *ActionRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	const stmt = `DELETE FROM pending_actions WHERE expires_at <= $1`

	tag, err := db(ctx, r.pool).Exec(ctx, stmt, now)
	if err != nil {
		return 0, fmt.Errorf("sweep expired actions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanAction(row pgx.Row) (domain.PendingAction, error) {
	var (
		action     domain.PendingAction
		actionType string
		details    []byte
	)
	if err := row.Scan(
		&action.ActionID,
		&action.OwnerID,
		&actionType,
		&action.Description,
		&details,
		&action.CreatedAt,
		&action.ExpiresAt,
	); err != nil {
		return domain.PendingAction{}, err
	}
	action.Type = domain.ActionType(actionType)
	if err := json.Unmarshal(details, &action.Details); err != nil {
		return domain.PendingAction{}, fmt.Errorf("unmarshal action details: %w", err)
	}
	return action, nil
}
