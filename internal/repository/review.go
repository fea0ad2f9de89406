package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/sourpls22-ux/marketplace-backend/internal/domain"
)

type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Upsert keeps one review per (profile, user) pair; a repeat submission
// replaces the earlier rating and comment.
func (r *ReviewRepository) Upsert(ctx context.Context, review *domain.Review) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (id, profile_id, user_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (profile_id, user_id)
		DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment`,
		review.ID, review.ProfileID, review.UserID, review.Rating, review.Comment, review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

func (r *ReviewRepository) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, profile_id, user_id, rating, comment, created_at
		FROM reviews WHERE profile_id = $1 ORDER BY created_at DESC`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByProfile: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.ProfileID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListByProfile: scan: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByProfile: rows: %w", err)
	}
	return reviews, nil
}

// Like records a like once; liking twice is a no-op and reported as such.
func (r *ReviewRepository) Like(ctx context.Context, profileID, userID uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO likes (profile_id, user_id) VALUES ($1, $2)
		ON CONFLICT (profile_id, user_id) DO NOTHING`,
		profileID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("Like: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("Like: rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *ReviewRepository) Unlike(ctx context.Context, profileID, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM likes WHERE profile_id = $1 AND user_id = $2`,
		profileID, userID,
	)
	if err != nil {
		return fmt.Errorf("Unlike: %w", err)
	}
	return nil
}

func (r *ReviewRepository) LikeCount(ctx context.Context, profileID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE profile_id = $1`, profileID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("LikeCount: %w", err)
	}
	return count, nil
}

func (r *ReviewRepository) Liked(ctx context.Context, profileID, userID uuid.UUID) (bool, error) {
	var liked bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM likes WHERE profile_id = $1 AND user_id = $2)`,
		profileID, userID,
	).Scan(&liked)
	if err != nil {
		return false, fmt.Errorf("Liked: %w", err)
	}
	return liked, nil
}
