package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sourpls22-ux/marketplace-backend/internal/domain"
)

const profileColumns = `id, user_id, name, age, city, country, description,
	price, media_url, is_active, boost_expires_at, created_at`

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(ctx context.Context, p *domain.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, user_id, name, age, city, country, description,
			price, media_url, is_active, boost_expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.UserID, p.Name, p.Age, p.City, p.Country, p.Description,
		p.Price, p.MediaURL, p.IsActive, p.BoostExpiresAt, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id,
	)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return p, nil
}

// ListActive returns active profiles, boosted ones first, newest boost wins
// ties.
func (r *ProfileRepository) ListActive(ctx context.Context, city string, limit, offset int) ([]domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE is_active = true`
	args := []any{}
	if city != "" {
		query += ` AND city = $1`
		args = append(args, city)
	}
	query += fmt.Sprintf(` ORDER BY (boost_expires_at IS NOT NULL AND boost_expires_at > now()) DESC,
		boost_expires_at DESC NULLS LAST, created_at DESC
		LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	defer rows.Close()
	return collectProfiles(rows, "ListActive")
}

func (r *ProfileRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Profile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByUser: %w", err)
	}
	defer rows.Close()
	return collectProfiles(rows, "ListByUser")
}

func (r *ProfileRepository) Update(ctx context.Context, p *domain.Profile) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET name = $1, age = $2, city = $3, country = $4,
			description = $5, price = $6, media_url = $7
		WHERE id = $8 AND user_id = $9`,
		p.Name, p.Age, p.City, p.Country, p.Description, p.Price, p.MediaURL,
		p.ID, p.UserID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Update: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Update: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *ProfileRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM profiles WHERE id = $1 AND user_id = $2`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// SetActivation runs inside the activation transaction alongside the balance
// debit.
func (r *ProfileRepository) SetActivation(ctx context.Context, tx *sql.Tx, id uuid.UUID, active bool, boostExpiresAt *time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE profiles SET is_active = $1, boost_expires_at = COALESCE($2, boost_expires_at)
		WHERE id = $3`,
		active, boostExpiresAt, id,
	)
	if err != nil {
		return fmt.Errorf("SetActivation: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("SetActivation: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("SetActivation: %w", domain.ErrNotFound)
	}
	return nil
}

func collectProfiles(rows *sql.Rows, op string) ([]domain.Profile, error) {
	var profiles []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return profiles, nil
}

func scanProfile(s scanner) (*domain.Profile, error) {
	var p domain.Profile
	err := s.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Age, &p.City, &p.Country, &p.Description,
		&p.Price, &p.MediaURL, &p.IsActive, &p.BoostExpiresAt, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
