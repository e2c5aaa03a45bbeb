package blocks

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brightpath-tutoring/backend/internal/models"
)

// ErrNotFound is returned when a block does not exist.
var ErrNotFound = errors.New("block not found")

const selectColumns = `id, title, description, starts_on, capacity, current_bookings, status,
	registration_fee, session_fee, total_sessions, created_at, updated_at`

// Repository handles session block persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a block repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetBlockByID returns a block, or (nil, nil) when it does not exist.
func (r *Repository) GetBlockByID(ctx context.Context, id uuid.UUID) (*models.SessionBlock, error) {
	b, err := scanBlock(r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM session_blocks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// CheckCapacity returns the capacity snapshot of a block, or (nil, nil) when it does not exist.
func (r *Repository) CheckCapacity(ctx context.Context, id uuid.UUID) (*models.BlockCapacity, error) {
	var c models.BlockCapacity
	var status string
	err := r.pool.QueryRow(ctx, `SELECT capacity, current_bookings, status FROM session_blocks WHERE id = $1`, id).
		Scan(&c.Capacity, &c.CurrentBookings, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Status = models.BlockStatus(status)
	return &c, nil
}

// List returns blocks ordered by start date. With publicOnly, drafts and cancelled blocks are hidden.
func (r *Repository) List(ctx context.Context, publicOnly bool) ([]models.SessionBlock, error) {
	q := `SELECT ` + selectColumns + ` FROM session_blocks`
	if publicOnly {
		q += ` WHERE status IN ('published', 'full')`
	}
	q += ` ORDER BY starts_on NULLS LAST, created_at`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.SessionBlock
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *b)
	}
	return list, rows.Err()
}

// Create inserts a new block.
func (r *Repository) Create(ctx context.Context, b *models.SessionBlock) error {
	const q = `INSERT INTO session_blocks (id, title, description, starts_on, capacity, current_bookings, status,
		registration_fee, session_fee, total_sessions)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, b.Title, b.Description, b.StartsOn, b.Capacity, b.CurrentBookings, string(b.Status),
		b.RegistrationFee, b.SessionFee, b.TotalSessions).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

// Update stores the editable fields of a block and reloads it into b. current_bookings is left
// to bookings; an open status is settled against it as models.SettleStatus does.
func (r *Repository) Update(ctx context.Context, b *models.SessionBlock) error {
	const q = `UPDATE session_blocks SET title = $2, description = $3, starts_on = $4, capacity = $5,
		status = CASE WHEN $6::text IN ('published', 'full')
			THEN CASE WHEN current_bookings >= $5 THEN 'full' ELSE 'published' END
			ELSE $6::text END,
		registration_fee = $7, session_fee = $8, total_sessions = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + selectColumns
	got, err := scanBlock(r.pool.QueryRow(ctx, q, b.ID, b.Title, b.Description, b.StartsOn, b.Capacity, string(b.Status),
		b.RegistrationFee, b.SessionFee, b.TotalSessions))
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update block: %w", err)
	}
	*b = *got
	return nil
}

func scanBlock(row pgx.Row) (*models.SessionBlock, error) {
	var b models.SessionBlock
	var status string
	err := row.Scan(&b.ID, &b.Title, &b.Description, &b.StartsOn, &b.Capacity, &b.CurrentBookings, &status,
		&b.RegistrationFee, &b.SessionFee, &b.TotalSessions, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Status = models.BlockStatus(status)
	return &b, nil
}
