package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourpls22-ux/marketplace-backend/internal/domain"
	"github.com/sourpls22-ux/marketplace-backend/internal/repository"
	"github.com/sourpls22-ux/marketplace-backend/internal/testutil"
)

func TestActivate_ChargesAndBoosts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.SeedTestUser(t, db, "alice@example.com", "Alice", domain.AccountTypeModel)
	profile := testutil.SeedTestProfile(t, db, user.ID, "Alice's listing", "Berlin")

	_, err := db.Exec(`UPDATE users SET balance = 10 WHERE id = $1`, user.ID)
	require.NoError(t, err)

	profiles := repository.NewProfileRepository(db)
	svc := NewActivationService(profiles, repository.NewUserRepository(db), db, decimal.NewFromInt(5))

	result, err := svc.Activate(context.Background(), profile.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, result.Charged)
	assert.True(t, result.BoostExpiresAt.After(time.Now()))

	assert.True(t, testutil.UserBalance(t, db, user.ID).Equal(decimal.NewFromInt(5)))

	got, err := profiles.GetByID(context.Background(), profile.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	require.NotNil(t, got.BoostExpiresAt)
}

func TestActivate_FreeWithinBoostWindow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.SeedTestUser(t, db, "bob@example.com", "Bob", domain.AccountTypeModel)
	profile := testutil.SeedTestProfile(t, db, user.ID, "Bob's listing", "Paris")

	_, err := db.Exec(`UPDATE users SET balance = 5 WHERE id = $1`, user.ID)
	require.NoError(t, err)

	profiles := repository.NewProfileRepository(db)
	svc := NewActivationService(profiles, repository.NewUserRepository(db), db, decimal.NewFromInt(5))
	ctx := context.Background()

	first, err := svc.Activate(ctx, profile.ID, user.ID)
	require.NoError(t, err)
	require.True(t, first.Charged)

	require.NoError(t, svc.Deactivate(ctx, profile.ID, user.ID))

	second, err := svc.Activate(ctx, profile.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, second.Charged, "re-activation inside the boost window is free")

	assert.True(t, testutil.UserBalance(t, db, user.ID).IsZero(), "only the first activation charges")
}

func TestActivate_InsufficientBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.SeedTestUser(t, db, "carol@example.com", "Carol", domain.AccountTypeModel)
	profile := testutil.SeedTestProfile(t, db, user.ID, "Carol's listing", "Madrid")

	profiles := repository.NewProfileRepository(db)
	svc := NewActivationService(profiles, repository.NewUserRepository(db), db, decimal.NewFromInt(5))

	_, err := svc.Activate(context.Background(), profile.ID, user.ID)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	got, err := profiles.GetByID(context.Background(), profile.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive, "failed charge must not activate")
}

func TestActivate_RejectsNonOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	owner := testutil.SeedTestUser(t, db, "dave@example.com", "Dave", domain.AccountTypeModel)
	other := testutil.SeedTestUser(t, db, "eve@example.com", "Eve", domain.AccountTypeMember)
	profile := testutil.SeedTestProfile(t, db, owner.ID, "Dave's listing", "Rome")

	svc := NewActivationService(repository.NewProfileRepository(db), repository.NewUserRepository(db), db, decimal.NewFromInt(5))

	_, err := svc.Activate(context.Background(), profile.ID, other.ID)
	require.ErrorIs(t, err, domain.ErrNotOwner)
}
