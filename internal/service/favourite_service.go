package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/chaimaJr/CoffeeHop/internal/models"
)

// CreateFavourite saves one of the customer's orders as a named template.
// Names are unique per customer.
func (s *OrderService) CreateFavourite(ctx context.Context, req Requester, name string, orderID uint) (*models.FavouriteOrder, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}

	var order models.Order
	if err := s.DB.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, err
	}
	if order.CustomerID != req.UserID {
		return nil, fmt.Errorf("%w: not your order", ErrForbidden)
	}

	var existing models.FavouriteOrder
	err := s.DB.WithContext(ctx).
		Where("customer_id = ? AND name = ?", req.UserID, name).
		First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%w: favourite %q already exists", ErrConflict, name)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fav := models.FavouriteOrder{
		CustomerID:      req.UserID,
		Name:            name,
		TemplateOrderID: order.ID,
	}
	if err := s.DB.WithContext(ctx).Create(&fav).Error; err != nil {
		return nil, err
	}
	return &fav, nil
}

func (s *OrderService) ListFavourites(ctx context.Context, req Requester) ([]models.FavouriteOrder, error) {
	var favs []models.FavouriteOrder
	err := s.DB.WithContext(ctx).
		Where("customer_id = ?", req.UserID).
		Order("created_at DESC").
		Find(&favs).Error
	if err != nil {
		return nil, err
	}
	return favs, nil
}

// DeleteFavourite removes a template; the template order itself stays.
func (s *OrderService) DeleteFavourite(ctx context.Context, favouriteID uint, req Requester) error {
	var fav models.FavouriteOrder
	if err := s.DB.WithContext(ctx).First(&fav, favouriteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: favourite %d", ErrNotFound, favouriteID)
		}
		return err
	}
	if fav.CustomerID != req.UserID {
		return fmt.Errorf("%w: not your favourite", ErrForbidden)
	}
	return s.DB.WithContext(ctx).Delete(&fav).Error
}
