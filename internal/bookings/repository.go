package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brightpath-tutoring/backend/internal/discounts"
	"github.com/brightpath-tutoring/backend/internal/models"
)

const selectColumns = `id, block_id, parent_name, parent_email, parent_phone, child_name, child_age, notes,
	status, payment_status, discount_code, subtotal, discount_amount, total, amount_paid, created_at, updated_at`

// Repository handles booking persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a booking repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create locks the block row, re-checks capacity and inserts the booking in one transaction.
// It returns ErrBlockUnavailable when the last place was taken concurrently and
// discounts.ErrNotApplicable when the code's usage limit was reached concurrently.
func (r *Repository) Create(ctx context.Context, b *models.Booking, discountID *uuid.UUID) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var capacity, current int
	var status string
	err = tx.QueryRow(ctx, `SELECT capacity, current_bookings, status FROM session_blocks WHERE id = $1 FOR UPDATE`, b.BlockID).
		Scan(&capacity, &current, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrBlockNotFound
	}
	if err != nil {
		return fmt.Errorf("lock block: %w", err)
	}
	if models.BlockStatus(status) != models.BlockPublished || current >= capacity {
		return ErrBlockUnavailable
	}

	const bump = `UPDATE session_blocks SET current_bookings = current_bookings + 1,
		status = CASE WHEN current_bookings + 1 >= capacity THEN 'full' ELSE status END,
		updated_at = NOW()
		WHERE id = $1`
	if _, err := tx.Exec(ctx, bump, b.BlockID); err != nil {
		return fmt.Errorf("take place: %w", err)
	}

	if discountID != nil {
		tag, err := tx.Exec(ctx, `UPDATE discount_codes SET times_used = times_used + 1, updated_at = NOW()
			WHERE id = $1 AND (usage_limit IS NULL OR times_used < usage_limit)`, *discountID)
		if err != nil {
			return fmt.Errorf("use discount: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return discounts.ErrNotApplicable
		}
	}

	const insert = `INSERT INTO bookings (id, block_id, parent_name, parent_email, parent_phone, child_name, child_age,
		notes, status, payment_status, discount_code, subtotal, discount_amount, total, amount_paid)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRow(ctx, insert, b.BlockID, b.ParentName, b.ParentEmail, b.ParentPhone, b.ChildName, b.ChildAge,
		b.Notes, string(b.Status), string(b.PaymentStatus), b.DiscountCode, b.Subtotal, b.DiscountAmount, b.Total, b.AmountPaid).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return tx.Commit(ctx)
}

// GetByID returns a booking, or (nil, nil) when it does not exist.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	b, err := scanBooking(r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM bookings WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// List returns bookings newest first, optionally filtered by block.
func (r *Repository) List(ctx context.Context, blockID *uuid.UUID) ([]models.Booking, error) {
	q := `SELECT ` + selectColumns + ` FROM bookings`
	var args []interface{}
	if blockID != nil {
		q += ` WHERE block_id = $1`
		args = append(args, *blockID)
	}
	q += ` ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *b)
	}
	return list, rows.Err()
}

// ApplyPayment locks the booking row, lets apply change its payment fields and stores
// amount_paid, payment_status and status. An error from apply rolls back and is returned as is.
func (r *Repository) ApplyPayment(ctx context.Context, id uuid.UUID, apply func(b *models.Booking) error) (*models.Booking, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	b, err := scanBooking(tx.QueryRow(ctx, `SELECT `+selectColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock booking: %w", err)
	}
	if err := apply(b); err != nil {
		return nil, err
	}

	const q = `UPDATE bookings SET amount_paid = $2, payment_status = $3, status = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	if err := tx.QueryRow(ctx, q, id, b.AmountPaid, string(b.PaymentStatus), string(b.Status)).Scan(&b.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return b, nil
}

// Cancel cancels the booking and releases its place. A full block reopens.
// With refund the payment is marked refunded, including on an already cancelled booking.
func (r *Repository) Cancel(ctx context.Context, id uuid.UUID, refund bool) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var blockID uuid.UUID
	var status, payment string
	err = tx.QueryRow(ctx, `SELECT block_id, status, payment_status FROM bookings WHERE id = $1 FOR UPDATE`, id).
		Scan(&blockID, &status, &payment)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock booking: %w", err)
	}
	if refund && models.PaymentStatus(payment) == models.PaymentRefunded {
		return ErrInvalidTransition
	}
	if !refund && models.BookingStatus(status) == models.BookingCancelled {
		return ErrInvalidTransition
	}

	if models.BookingStatus(status) != models.BookingCancelled {
		const release = `UPDATE session_blocks SET current_bookings = GREATEST(current_bookings - 1, 0),
			status = CASE WHEN status = 'full' THEN 'published' ELSE status END,
			updated_at = NOW()
			WHERE id = $1`
		if _, err := tx.Exec(ctx, release, blockID); err != nil {
			return fmt.Errorf("release place: %w", err)
		}
	}

	newPayment := payment
	if refund {
		newPayment = string(models.PaymentRefunded)
	}
	if _, err := tx.Exec(ctx, `UPDATE bookings SET status = 'cancelled', payment_status = $2, updated_at = NOW() WHERE id = $1`,
		id, newPayment); err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	return tx.Commit(ctx)
}

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var b models.Booking
	var status, payment string
	err := row.Scan(&b.ID, &b.BlockID, &b.ParentName, &b.ParentEmail, &b.ParentPhone, &b.ChildName, &b.ChildAge, &b.Notes,
		&status, &payment, &b.DiscountCode, &b.Subtotal, &b.DiscountAmount, &b.Total, &b.AmountPaid, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Status = models.BookingStatus(status)
	b.PaymentStatus = models.PaymentStatus(payment)
	return &b, nil
}
