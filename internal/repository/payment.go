package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sourpls22-ux/marketplace-backend/internal/domain"
)

const paymentColumns = `payment_id, user_id, amount_to_pay, credit_amount,
	method, status, created_at`

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// UpsertPending inserts a pending payment row unless one already exists for
// the payment id. Returns whether a row was actually inserted; a duplicate
// is not an error.
func (r *PaymentRepository) UpsertPending(ctx context.Context, tx *sql.Tx, p *domain.Payment) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO payments (payment_id, user_id, amount_to_pay, credit_amount, method, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (payment_id) DO NOTHING`,
		p.PaymentID, p.UserID, p.AmountToPay, p.CreditAmount, p.Method, p.Status, p.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("UpsertPending: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("UpsertPending: rows affected: %w", err)
	}
	return rows > 0, nil
}

// TryComplete transitions the payment to completed only if it is not
// completed already. Returns whether this call performed the transition;
// false means either another caller won the race or the row is missing, and
// the caller must distinguish the two. The UPDATE takes a row lock, so two
// concurrent transactions can never both observe changed = true.
func (r *PaymentRepository) TryComplete(ctx context.Context, tx *sql.Tx, orderID string) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE payments SET status = $1 WHERE payment_id = $2 AND status <> $1`,
		domain.PaymentStatusCompleted, orderID,
	)
	if err != nil {
		return false, fmt.Errorf("TryComplete: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("TryComplete: rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *PaymentRepository) GetCreditInfo(ctx context.Context, tx *sql.Tx, orderID string) (*domain.CreditInfo, error) {
	var info domain.CreditInfo
	err := tx.QueryRowContext(ctx,
		`SELECT user_id, credit_amount FROM payments WHERE payment_id = $1`, orderID,
	).Scan(&info.UserID, &info.CreditAmount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetCreditInfo: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetCreditInfo: %w", err)
	}
	return &info, nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, orderID string) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE payment_id = $1`, orderID,
	)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return p, nil
}

// ListUnfinished returns up to limit payment ids whose status has not
// reached completed, oldest first. The scheduler resyncs these against the
// provider.
func (r *PaymentRepository) ListUnfinished(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT payment_id FROM payments WHERE status <> $1 ORDER BY created_at LIMIT $2`,
		domain.PaymentStatusCompleted, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ListUnfinished: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ListUnfinished: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListUnfinished: rows: %w", err)
	}
	return ids, nil
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByUser: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByUser: scan: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByUser: rows: %w", err)
	}
	return payments, nil
}

func scanPayment(s scanner) (*domain.Payment, error) {
	var p domain.Payment
	err := s.Scan(
		&p.PaymentID, &p.UserID, &p.AmountToPay, &p.CreditAmount,
		&p.Method, &p.Status, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
