package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/chaimaJr/CoffeeHop/internal/models"
)

// CatalogItem is the snapshot the order engine needs from the menu: the
// current price (captured onto the order line) and availability.
type CatalogItem struct {
	ID        uint
	Price     decimal.Decimal
	Available bool
}

// Catalog resolves menu item ids at order-creation time. The engine performs
// exactly one lookup per line and never re-reads the price afterwards.
type Catalog interface {
	GetItem(ctx context.Context, id uint) (CatalogItem, error)
}

type GormCatalog struct {
	DB *gorm.DB
}

func (c *GormCatalog) GetItem(ctx context.Context, id uint) (CatalogItem, error) {
	var item models.MenuItem
	if err := c.DB.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CatalogItem{}, fmt.Errorf("%w: menu item %d", ErrNotFound, id)
		}
		return CatalogItem{}, err
	}
	return CatalogItem{ID: item.ID, Price: item.Price, Available: item.IsAvailable}, nil
}
