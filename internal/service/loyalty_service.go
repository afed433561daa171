package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chaimaJr/CoffeeHop/internal/models"
)

// LoyaltyService owns point balances and offer redemption. Balance updates
// are single-statement read-modify-writes so overlapping accruals and
// redemptions never lose points.
type LoyaltyService struct {
	DB *gorm.DB
}

// AccrueTx adds points to the customer's balance inside the caller's
// transaction. A zero amount is a no-op.
func (s *LoyaltyService) AccrueTx(tx *gorm.DB, customerID uint, points int64) error {
	if points < 0 {
		return fmt.Errorf("%w: negative accrual", ErrValidation)
	}
	if points == 0 {
		return nil
	}
	res := tx.Model(&models.User{}).
		Where("id = ?", customerID).
		UpdateColumn("loyalty_points", gorm.Expr("loyalty_points + ?", points))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %d", ErrNotFound, customerID)
	}
	return nil
}

// Redeem exchanges points for an offer. The deduction and the redemption
// record are committed atomically; the deduction only applies when the
// balance covers the offer's cost.
func (s *LoyaltyService) Redeem(ctx context.Context, customerID, offerID uint) (*models.LoyaltyRedemption, error) {
	var redemption models.LoyaltyRedemption

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var offer models.LoyaltyOffer
		if err := tx.First(&offer, offerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: offer %d", ErrNotFound, offerID)
			}
			return err
		}
		if !offer.ValidAt(time.Now()) {
			return fmt.Errorf("%w: offer %d", ErrOfferNotValid, offerID)
		}

		res := tx.Model(&models.User{}).
			Where("id = ? AND loyalty_points >= ?", customerID, offer.PointsRequired).
			UpdateColumn("loyalty_points", gorm.Expr("loyalty_points - ?", offer.PointsRequired))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var user models.User
			if err := tx.First(&user, customerID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: user %d", ErrNotFound, customerID)
				}
				return err
			}
			return fmt.Errorf("%w: need %d, have %d", ErrInsufficientPoints, offer.PointsRequired, user.LoyaltyPoints)
		}

		redemption = models.LoyaltyRedemption{
			CustomerID:     customerID,
			OfferID:        offer.ID,
			PointsSpent:    offer.PointsRequired,
			RedemptionCode: uuid.NewString(),
			IsUsed:         false,
			RedeemedAt:     time.Now(),
		}
		return tx.Create(&redemption).Error
	})
	if err != nil {
		return nil, err
	}
	return &redemption, nil
}

// MarkRedemptionUsed is idempotent: marking an already-used redemption again
// is a no-op, not an error.
func (s *LoyaltyService) MarkRedemptionUsed(ctx context.Context, redemptionID uint, req Requester) error {
	var redemption models.LoyaltyRedemption
	if err := s.DB.WithContext(ctx).First(&redemption, redemptionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: redemption %d", ErrNotFound, redemptionID)
		}
		return err
	}
	if redemption.CustomerID != req.UserID && !req.IsStaff() {
		return fmt.Errorf("%w: not your redemption", ErrForbidden)
	}
	if redemption.IsUsed {
		return nil
	}
	return s.DB.WithContext(ctx).Model(&redemption).Update("is_used", true).Error
}

// ListOffers returns offers redeemable right now, cheapest first.
func (s *LoyaltyService) ListOffers(ctx context.Context) ([]models.LoyaltyOffer, error) {
	now := time.Now()
	var offers []models.LoyaltyOffer
	err := s.DB.WithContext(ctx).
		Where("is_active = ? AND valid_from <= ?", true, now).
		Where("valid_until IS NULL OR valid_until >= ?", now).
		Order("points_required ASC").
		Find(&offers).Error
	if err != nil {
		return nil, err
	}
	return offers, nil
}

func (s *LoyaltyService) ListRedemptions(ctx context.Context, customerID uint) ([]models.LoyaltyRedemption, error) {
	var redemptions []models.LoyaltyRedemption
	err := s.DB.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("redeemed_at DESC").
		Find(&redemptions).Error
	if err != nil {
		return nil, err
	}
	return redemptions, nil
}

// Points returns the customer's current balance.
func (s *LoyaltyService) Points(ctx context.Context, userID uint) (int64, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return 0, err
	}
	return user.LoyaltyPoints, nil
}
