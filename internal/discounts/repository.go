package discounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brightpath-tutoring/backend/internal/models"
)

// ErrCodeExists is returned when creating a code that is already taken.
var ErrCodeExists = errors.New("discount code already exists")

const selectColumns = `id, code, type, value, valid_from, valid_until, usage_limit, times_used,
	applicable_to, applicable_block_ids, status, created_at, updated_at`

// Repository handles discount code persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a discount repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByCode returns a code by its normalised string, or (nil, nil) when unknown.
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	d, err := scanDiscount(r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM discount_codes WHERE code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Create inserts a new discount code.
func (r *Repository) Create(ctx context.Context, d *models.DiscountCode) error {
	const q = `INSERT INTO discount_codes (id, code, type, value, valid_from, valid_until, usage_limit,
		applicable_to, applicable_block_ids, status)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8::uuid[], $9)
		RETURNING id, times_used, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, d.Code, string(d.Type), d.Value, d.ValidFrom, d.ValidUntil, d.UsageLimit,
		string(d.ApplicableTo), uuidStrings(d.ApplicableBlockIDs), string(d.Status)).
		Scan(&d.ID, &d.TimesUsed, &d.CreatedAt, &d.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrCodeExists
	}
	return err
}

// List returns all codes, newest first.
func (r *Repository) List(ctx context.Context) ([]models.DiscountCode, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM discount_codes ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.DiscountCode
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *d)
	}
	return list, rows.Err()
}

// SetStatus changes the status of a code.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status models.DiscountStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE discount_codes SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update discount status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDiscount(row pgx.Row) (*models.DiscountCode, error) {
	var d models.DiscountCode
	var typ, scope, status string
	err := row.Scan(&d.ID, &d.Code, &typ, &d.Value, &d.ValidFrom, &d.ValidUntil, &d.UsageLimit, &d.TimesUsed,
		&scope, &d.ApplicableBlockIDs, &status, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Type = models.DiscountType(typ)
	d.ApplicableTo = models.DiscountScope(scope)
	d.Status = models.DiscountStatus(status)
	return &d, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
