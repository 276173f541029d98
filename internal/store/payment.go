package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/payledger/apiserver/types"
)

// PaymentRepository handles persistence for payments.
type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `
	p.id, p.amount, p.payment_type, p.category, p.status, p.date,
	p.created_by, u.name, p.receipt_key, p.created_at, p.updated_at`

func (r *PaymentRepository) List(ctx context.Context) ([]types.Payment, error) {
	const query = `
		SELECT` + paymentColumns + `
		FROM payments p
		JOIN users u ON u.id = p.created_by
		ORDER BY p.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]types.Payment, 0)
	for rows.Next() {
		payment, err := scanPayment(rows.Scan)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *PaymentRepository) Get(ctx context.Context, id int) (types.Payment, error) {
	const query = `
		SELECT` + paymentColumns + `
		FROM payments p
		JOIN users u ON u.id = p.created_by
		WHERE p.id = $1`
	payment, err := scanPayment(r.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Payment{}, ErrNotFound
		}
		return types.Payment{}, err
	}
	return payment, nil
}

func (r *PaymentRepository) Create(ctx context.Context, payment types.Payment) (types.Payment, error) {
	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	const query = `
		INSERT INTO payments (amount, payment_type, category, status, date, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		payment.Amount,
		payment.PaymentType,
		payment.Category,
		payment.Status,
		payment.Date,
		payment.CreatedByID,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Scan(&payment.ID); err != nil {
		return types.Payment{}, err
	}
	return payment, nil
}

// Update overwrites the four mutable fields. Date and creator are untouched.
func (r *PaymentRepository) Update(ctx context.Context, payment types.Payment) (types.Payment, error) {
	payment.UpdatedAt = time.Now()

	const query = `
		UPDATE payments
		SET amount = $1,
			payment_type = $2,
			category = $3,
			status = $4,
			updated_at = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		payment.Amount,
		payment.PaymentType,
		payment.Category,
		payment.Status,
		payment.UpdatedAt,
		payment.ID,
	)
	if err != nil {
		return types.Payment{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Payment{}, err
	}
	if affected == 0 {
		return types.Payment{}, ErrNotFound
	}
	return payment, nil
}

func (r *PaymentRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM payments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetReceiptKey records the object storage key of an attached receipt.
func (r *PaymentRepository) SetReceiptKey(ctx context.Context, id int, key string) error {
	const query = `
		UPDATE payments
		SET receipt_key = $1,
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, key, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPayment(scan func(dest ...any) error) (types.Payment, error) {
	var payment types.Payment
	var receiptKey sql.NullString
	if err := scan(
		&payment.ID,
		&payment.Amount,
		&payment.PaymentType,
		&payment.Category,
		&payment.Status,
		&payment.Date,
		&payment.CreatedByID,
		&payment.CreatedBy,
		&receiptKey,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	); err != nil {
		return types.Payment{}, err
	}
	payment.ReceiptKey = receiptKey.String
	return payment, nil
}
