package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sourpls22-ux/marketplace-backend/internal/domain"
	"github.com/sourpls22-ux/marketplace-backend/internal/logging"
)

type activationProfileRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	SetActivation(ctx context.Context, tx *sql.Tx, id uuid.UUID, active bool, boostExpiresAt *time.Time) error
}

type activationUserRepo interface {
	DebitBalance(ctx context.Context, tx *sql.Tx, userID uuid.UUID, amount decimal.Decimal) error
}

// ActivationService charges for profile activation. It is the debit
// counterpart of the reconciliation credit: the balance only ever moves
// through the same transactional UPDATE discipline, so the non-negative
// invariant holds no matter which flow touches it.
type ActivationService struct {
	profiles activationProfileRepo
	users    activationUserRepo
	db       *sql.DB
	cost     decimal.Decimal
	boostTTL time.Duration
}

func NewActivationService(profiles activationProfileRepo, users activationUserRepo, db *sql.DB, cost decimal.Decimal) *ActivationService {
	return &ActivationService{
		profiles: profiles,
		users:    users,
		db:       db,
		cost:     cost,
		boostTTL: 24 * time.Hour,
	}
}

type ActivationResult struct {
	BoostExpiresAt time.Time
	Charged        bool
}

func (s *ActivationService) Activate(ctx context.Context, profileID, userID uuid.UUID) (*ActivationResult, error) {
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("Activate: %w", err)
	}
	if profile.UserID != userID {
		return nil, fmt.Errorf("Activate: %w", domain.ErrNotOwner)
	}

	now := time.Now().UTC()
	log := logging.FromContext(ctx)

	// A still-running boost re-activates for free.
	if profile.Boosted(now) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("Activate: begin tx: %w", err)
		}
		defer tx.Rollback()

		if err := s.profiles.SetActivation(ctx, tx, profileID, true, nil); err != nil {
			return nil, fmt.Errorf("Activate: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("Activate: commit: %w", err)
		}

		log.Info("profile re-activated within boost window", "profile_id", profileID)
		return &ActivationResult{BoostExpiresAt: *profile.BoostExpiresAt, Charged: false}, nil
	}

	expiry := now.Add(s.boostTTL)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Activate: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.users.DebitBalance(ctx, tx, userID, s.cost); err != nil {
		return nil, fmt.Errorf("Activate: %w", err)
	}
	if err := s.profiles.SetActivation(ctx, tx, profileID, true, &expiry); err != nil {
		return nil, fmt.Errorf("Activate: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Activate: commit: %w", err)
	}

	log.Info("profile activated", "profile_id", profileID, "cost", s.cost.String())
	return &ActivationResult{BoostExpiresAt: expiry, Charged: true}, nil
}

func (s *ActivationService) Deactivate(ctx context.Context, profileID, userID uuid.UUID) error {
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return fmt.Errorf("Deactivate: %w", err)
	}
	if profile.UserID != userID {
		return fmt.Errorf("Deactivate: %w", domain.ErrNotOwner)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Deactivate: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.profiles.SetActivation(ctx, tx, profileID, false, nil); err != nil {
		return fmt.Errorf("Deactivate: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Deactivate: commit: %w", err)
	}
	return nil
}
