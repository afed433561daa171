package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaimaJr/CoffeeHop/internal/models"
)

func (env *testEnv) createOffer(t *testing.T, title string, points int64, active bool, from time.Time, until *time.Time) *models.LoyaltyOffer {
	t.Helper()
	offer := models.LoyaltyOffer{
		Title:          title,
		PointsRequired: points,
		IsActive:       active,
		ValidFrom:      from,
		ValidUntil:     until,
	}
	require.NoError(t, env.DB.Create(&offer).Error)
	return &offer
}

func (env *testEnv) setPoints(t *testing.T, userID uint, points int64) {
	t.Helper()
	require.NoError(t, env.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Update("loyalty_points", points).Error)
}

func TestRedeem_DeductsPointsAndIssuesCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer := env.createUser(t, "alice", models.RoleCustomer)
	env.setPoints(t, customer.ID, 100)
	offer := env.createOffer(t, "Free Espresso", 50, true, time.Now().Add(-time.Hour), nil)

	redemption, err := env.Loyalty.Redeem(ctx, customer.ID, offer.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(50), redemption.PointsSpent)
	assert.NotEmpty(t, redemption.RedemptionCode)
	assert.False(t, redemption.IsUsed)
	assert.Equal(t, int64(50), env.reloadUser(t, customer.ID).LoyaltyPoints)

	// A second redemption gets its own code.
	second, err := env.Loyalty.Redeem(ctx, customer.ID, offer.ID)
	require.NoError(t, err)
	assert.NotEqual(t, redemption.RedemptionCode, second.RedemptionCode)
	assert.Equal(t, int64(0), env.reloadUser(t, customer.ID).LoyaltyPoints)
}

func TestRedeem_ExactBalanceGoesToZero(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer := env.createUser(t, "bob", models.RoleCustomer)
	env.setPoints(t, customer.ID, 50)
	offer := env.createOffer(t, "Free Espresso", 50, true, time.Now().Add(-time.Hour), nil)

	_, err := env.Loyalty.Redeem(ctx, customer.ID, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), env.reloadUser(t, customer.ID).LoyaltyPoints)
}

func TestRedeem_InsufficientPointsLeavesBalanceUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer := env.createUser(t, "carol", models.RoleCustomer)
	env.setPoints(t, customer.ID, 49)
	offer := env.createOffer(t, "Free Espresso", 50, true, time.Now().Add(-time.Hour), nil)

	_, err := env.Loyalty.Redeem(ctx, customer.ID, offer.ID)
	require.ErrorIs(t, err, ErrInsufficientPoints)

	assert.Equal(t, int64(49), env.reloadUser(t, customer.ID).LoyaltyPoints)

	var count int64
	require.NoError(t, env.DB.Model(&models.LoyaltyRedemption{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestRedeem_OfferValidityWindows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer := env.createUser(t, "dave", models.RoleCustomer)
	env.setPoints(t, customer.ID, 1000)

	now := time.Now()
	past := now.Add(-time.Hour)
	farPast := now.Add(-48 * time.Hour)
	expired := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	tests := []struct {
		name  string
		offer *models.LoyaltyOffer
		want  error
	}{
		{"inactive", env.createOffer(t, "Retired", 10, false, past, nil), ErrOfferNotValid},
		{"not started yet", env.createOffer(t, "Soon", 10, true, future, nil), ErrOfferNotValid},
		{"expired", env.createOffer(t, "Gone", 10, true, farPast, &expired), ErrOfferNotValid},
		{"open ended", env.createOffer(t, "Evergreen", 10, true, past, nil), nil},
		{"inside window", env.createOffer(t, "Limited", 10, true, past, &future), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Loyalty.Redeem(ctx, customer.ID, tt.offer.ID)
			if tt.want == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestRedeem_UnknownOfferAndUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer := env.createUser(t, "erin", models.RoleCustomer)
	offer := env.createOffer(t, "Free Espresso", 50, true, time.Now().Add(-time.Hour), nil)

	_, err := env.Loyalty.Redeem(ctx, customer.ID, 9999)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = env.Loyalty.Redeem(ctx, 9999, offer.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMarkRedemptionUsed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer := env.createUser(t, "frank", models.RoleCustomer)
	stranger := env.createUser(t, "mallory", models.RoleCustomer)
	barista := env.createUser(t, "barista", models.RoleBarista)
	env.setPoints(t, customer.ID, 100)
	offer := env.createOffer(t, "Free Espresso", 50, true, time.Now().Add(-time.Hour), nil)

	redemption, err := env.Loyalty.Redeem(ctx, customer.ID, offer.ID)
	require.NoError(t, err)

	require.ErrorIs(t, env.Loyalty.MarkRedemptionUsed(ctx, redemption.ID, asRequester(stranger)), ErrForbidden)

	// The barista scans the code at the counter.
	require.NoError(t, env.Loyalty.MarkRedemptionUsed(ctx, redemption.ID, asRequester(barista)))

	// Marking again is a no-op.
	require.NoError(t, env.Loyalty.MarkRedemptionUsed(ctx, redemption.ID, asRequester(customer)))

	var reloaded models.LoyaltyRedemption
	require.NoError(t, env.DB.First(&reloaded, redemption.ID).Error)
	assert.True(t, reloaded.IsUsed)

	require.ErrorIs(t, env.Loyalty.MarkRedemptionUsed(ctx, 9999, asRequester(customer)), ErrNotFound)
}

func TestListOffers_OnlyCurrentlyRedeemable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	now := time.Now()
	past := now.Add(-time.Hour)
	expired := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	env.createOffer(t, "Retired", 10, false, past, nil)
	env.createOffer(t, "Soon", 10, true, future, nil)
	env.createOffer(t, "Gone", 10, true, past.Add(-time.Hour), &expired)
	env.createOffer(t, "Pricey", 200, true, past, nil)
	env.createOffer(t, "Cheap", 25, true, past, &future)

	offers, err := env.Loyalty.ListOffers(ctx)
	require.NoError(t, err)
	require.Len(t, offers, 2)

	// Cheapest first.
	assert.Equal(t, "Cheap", offers[0].Title)
	assert.Equal(t, "Pricey", offers[1].Title)
}

func TestListRedemptionsAndPoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer := env.createUser(t, "grace", models.RoleCustomer)
	other := env.createUser(t, "heidi", models.RoleCustomer)
	env.setPoints(t, customer.ID, 100)
	env.setPoints(t, other.ID, 100)
	offer := env.createOffer(t, "Free Espresso", 30, true, time.Now().Add(-time.Hour), nil)

	_, err := env.Loyalty.Redeem(ctx, customer.ID, offer.ID)
	require.NoError(t, err)
	_, err = env.Loyalty.Redeem(ctx, other.ID, offer.ID)
	require.NoError(t, err)

	redemptions, err := env.Loyalty.ListRedemptions(ctx, customer.ID)
	require.NoError(t, err)
	require.Len(t, redemptions, 1)
	assert.Equal(t, customer.ID, redemptions[0].CustomerID)

	points, err := env.Loyalty.Points(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(70), points)

	_, err = env.Loyalty.Points(ctx, 9999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAccrueTx_RejectsNegative(t *testing.T) {
	env := newTestEnv(t)

	customer := env.createUser(t, "ivan", models.RoleCustomer)

	require.ErrorIs(t, env.Loyalty.AccrueTx(env.DB, customer.ID, -5), ErrValidation)
	require.NoError(t, env.Loyalty.AccrueTx(env.DB, customer.ID, 0))
	require.ErrorIs(t, env.Loyalty.AccrueTx(env.DB, 9999, 5), ErrNotFound)

	assert.Equal(t, int64(0), env.reloadUser(t, customer.ID).LoyaltyPoints)
}
