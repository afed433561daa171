package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/chaimaJr/CoffeeHop/internal/models"
)

// maxTransitionRetries bounds the optimistic-write loop. Each retry
// re-evaluates the requested transition against the winner's state, so the
// loop only repeats while other writers keep landing in between.
const maxTransitionRetries = 5

// OrderService is the order lifecycle engine: it validates and applies
// status transitions, computes totals, accrues loyalty points and hands
// events to the notification dispatcher.
type OrderService struct {
	DB       *gorm.DB
	Catalog  Catalog
	Loyalty  *LoyaltyService
	Notifier *NotificationService
}

type CreateOrderItem struct {
	MenuItemID     uint   `json:"menu_item_id"`
	Quantity       int    `json:"quantity"`
	Customizations string `json:"customizations"`
}

type CreateOrderInput struct {
	Items        []CreateOrderItem `json:"items"`
	Notes        string            `json:"notes"`
	ScheduledFor *time.Time        `json:"scheduled_for"`
}

type ModifyOrderInput struct {
	Items        []CreateOrderItem `json:"items"`
	Notes        *string           `json:"notes"`
	ScheduledFor *time.Time        `json:"scheduled_for"`
}

// OrderSummary is the lightweight shape used for lists and the barista queue.
type OrderSummary struct {
	ID           uint               `json:"id"`
	CustomerID   uint               `json:"customer_id"`
	CustomerName string             `json:"customer_name"`
	Status       models.OrderStatus `json:"status"`
	TotalPrice   decimal.Decimal    `json:"total_price"`
	ItemsCount   int                `json:"items_count"`
	ScheduledFor *time.Time         `json:"scheduled_for,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// captureItems validates the requested lines against the catalog and builds
// order items with the current price captured onto each line.
func (s *OrderService) captureItems(ctx context.Context, lines []CreateOrderItem) ([]models.OrderItem, decimal.Decimal, error) {
	if len(lines) == 0 {
		return nil, decimal.Zero, fmt.Errorf("%w: items required", ErrValidation)
	}

	items := make([]models.OrderItem, 0, len(lines))
	total := decimal.Zero
	for _, line := range lines {
		if line.MenuItemID == 0 {
			return nil, decimal.Zero, fmt.Errorf("%w: menu_item_id required", ErrValidation)
		}
		if line.Quantity < 1 {
			return nil, decimal.Zero, fmt.Errorf("%w: quantity must be >= 1", ErrValidation)
		}
		ci, err := s.Catalog.GetItem(ctx, line.MenuItemID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if !ci.Available {
			return nil, decimal.Zero, fmt.Errorf("%w: menu item %d is not available", ErrValidation, line.MenuItemID)
		}

		item := models.OrderItem{
			MenuItemID:     line.MenuItemID,
			Quantity:       line.Quantity,
			Price:          ci.Price,
			Customizations: line.Customizations,
		}
		total = total.Add(item.LineTotal())
		items = append(items, item)
	}
	return items, total, nil
}

// createOrder persists a new order with its items, accrues points and emits
// the RECEIVED notification, all in one transaction.
func (s *OrderService) createOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	msg, _ := models.MessageFor(models.StatusReceived)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		if err := s.Loyalty.AccrueTx(tx, order.CustomerID, order.Points()); err != nil {
			return err
		}
		oid := order.ID
		_, err := s.Notifier.EmitTx(tx, order.CustomerID, msg.Type, msg.Title, msg.Message, &oid)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Notifier.PublishOrderEvent(ctx, order, msg)
	return order, nil
}

func (s *OrderService) CreateOrder(ctx context.Context, customerID uint, in CreateOrderInput) (*models.Order, error) {
	items, total, err := s.captureItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		CustomerID:   customerID,
		Status:       models.StatusReceived,
		TotalPrice:   total,
		Notes:        in.Notes,
		ScheduledFor: in.ScheduledFor,
		Items:        items,
	}
	return s.createOrder(ctx, order)
}

// Reorder spawns a new order from a favourite template. Line prices are the
// template's captured prices, not the catalog's current ones.
func (s *OrderService) Reorder(ctx context.Context, favouriteID uint, req Requester, scheduledFor *time.Time) (*models.Order, error) {
	var fav models.FavouriteOrder
	if err := s.DB.WithContext(ctx).First(&fav, favouriteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: favourite %d", ErrNotFound, favouriteID)
		}
		return nil, err
	}
	if fav.CustomerID != req.UserID {
		return nil, fmt.Errorf("%w: not your favourite", ErrForbidden)
	}

	var template models.Order
	if err := s.DB.WithContext(ctx).Preload("Items").First(&template, fav.TemplateOrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: template order %d", ErrNotFound, fav.TemplateOrderID)
		}
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(template.Items))
	total := decimal.Zero
	for _, it := range template.Items {
		item := models.OrderItem{
			MenuItemID:     it.MenuItemID,
			Quantity:       it.Quantity,
			Price:          it.Price,
			Customizations: it.Customizations,
		}
		total = total.Add(item.LineTotal())
		items = append(items, item)
	}

	order := &models.Order{
		CustomerID:   req.UserID,
		Status:       models.StatusReceived,
		TotalPrice:   total,
		Notes:        template.Notes,
		ScheduledFor: scheduledFor,
		Items:        items,
	}
	return s.createOrder(ctx, order)
}

// applyTransition commits the status change guarded by the order's version
// and emits the destination status' notification in the same transaction.
// applied == false means another writer got there first.
func (s *OrderService) applyTransition(ctx context.Context, order *models.Order, to models.OrderStatus) (bool, *models.Order, error) {
	msg, ok := models.MessageFor(to)
	if !ok {
		return false, nil, fmt.Errorf("%w: unknown status %q", ErrValidation, to)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":     to,
		"version":    order.Version + 1,
		"updated_at": now,
	}
	if to == models.StatusCompleted {
		updates["completed_at"] = now
	}

	applied := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND version = ?", order.ID, order.Version).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true
		oid := order.ID
		_, err := s.Notifier.EmitTx(tx, order.CustomerID, msg.Type, msg.Title, msg.Message, &oid)
		return err
	})
	if err != nil || !applied {
		return false, nil, err
	}

	var fresh models.Order
	if err := s.DB.WithContext(ctx).Preload("Items").First(&fresh, order.ID).Error; err != nil {
		return true, nil, err
	}
	s.Notifier.PublishOrderEvent(ctx, &fresh, msg)
	return true, &fresh, nil
}

// UpdateStatus advances an order along the state machine. Only staff may
// call it. When two writers race, the first one wins and the loser's
// transition is re-evaluated against the winner's state.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, req Requester, newStatus models.OrderStatus) (*models.Order, error) {
	if !req.IsStaff() {
		return nil, fmt.Errorf("%w: barista or admin required", ErrForbidden)
	}
	if !models.KnownStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, newStatus)
	}

	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		var order models.Order
		if err := s.DB.WithContext(ctx).First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return nil, err
		}
		if !models.CanTransition(order.Status, newStatus) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, newStatus)
		}

		applied, fresh, err := s.applyTransition(ctx, &order, newStatus)
		if err != nil {
			return nil, err
		}
		if applied {
			return fresh, nil
		}
	}
	return nil, fmt.Errorf("%w: too many concurrent updates on order %d", ErrConflict, orderID)
}

// CancelOrder is the owning customer's cancellation, legal only while the
// order is still RECEIVED.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uint, req Requester) error {
	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		var order models.Order
		if err := s.DB.WithContext(ctx).First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return err
		}
		if order.CustomerID != req.UserID {
			return fmt.Errorf("%w: not your order", ErrForbidden)
		}
		if !order.CanBeModified() {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, models.StatusCancelled)
		}

		applied, _, err := s.applyTransition(ctx, &order, models.StatusCancelled)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}
	}
	return fmt.Errorf("%w: too many concurrent updates on order %d", ErrConflict, orderID)
}

// ModifyOrder lets the owning customer change items, notes or schedule while
// the order is still RECEIVED. Changing items recomputes the total from
// freshly captured prices.
func (s *OrderService) ModifyOrder(ctx context.Context, orderID uint, req Requester, in ModifyOrderInput) (*models.Order, error) {
	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
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
		if !order.CanBeModified() {
			return nil, fmt.Errorf("%w: order is %s", ErrInvalidTransition, order.Status)
		}

		var newItems []models.OrderItem
		updates := map[string]interface{}{
			"version":    order.Version + 1,
			"updated_at": time.Now(),
		}
		if in.Items != nil {
			items, total, err := s.captureItems(ctx, in.Items)
			if err != nil {
				return nil, err
			}
			newItems = items
			updates["total_price"] = total
		}
		if in.Notes != nil {
			updates["notes"] = *in.Notes
		}
		if in.ScheduledFor != nil {
			updates["scheduled_for"] = *in.ScheduledFor
		}

		applied := false
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.Order{}).
				Where("id = ? AND version = ?", order.ID, order.Version).
				Updates(updates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return nil
			}
			applied = true
			if newItems == nil {
				return nil
			}
			if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
				return err
			}
			for i := range newItems {
				newItems[i].OrderID = order.ID
			}
			return tx.Create(&newItems).Error
		})
		if err != nil {
			return nil, err
		}
		if applied {
			var fresh models.Order
			if err := s.DB.WithContext(ctx).Preload("Items").First(&fresh, order.ID).Error; err != nil {
				return nil, err
			}
			return &fresh, nil
		}
	}
	return nil, fmt.Errorf("%w: too many concurrent updates on order %d", ErrConflict, orderID)
}

// GetOrder returns one order with its items; customers only see their own.
func (s *OrderService) GetOrder(ctx context.Context, orderID uint, req Requester) (*models.Order, error) {
	var order models.Order
	if err := s.DB.WithContext(ctx).Preload("Items").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, err
	}
	if order.CustomerID != req.UserID && !req.IsStaff() {
		return nil, fmt.Errorf("%w: not your order", ErrForbidden)
	}
	return &order, nil
}

// ListOrders returns summaries, newest first. Customers see their own
// orders; staff see everyone's. statusFilter may be empty.
func (s *OrderService) ListOrders(ctx context.Context, req Requester, statusFilter models.OrderStatus, offset, limit int) ([]OrderSummary, error) {
	q := s.DB.WithContext(ctx).Model(&models.Order{}).Preload("Items")
	if !req.IsStaff() {
		q = q.Where("customer_id = ?", req.UserID)
	}
	if statusFilter != "" {
		if !models.KnownStatus(statusFilter) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, statusFilter)
		}
		q = q.Where("status = ?", statusFilter)
	}

	var orders []models.Order
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, err
	}
	return s.summarize(ctx, orders)
}

// Queue returns orders a barista still has to act on, oldest first so
// preparation stays first-come-first-served.
func (s *OrderService) Queue(ctx context.Context, req Requester) ([]OrderSummary, error) {
	if !req.IsStaff() {
		return nil, fmt.Errorf("%w: barista or admin required", ErrForbidden)
	}

	var orders []models.Order
	err := s.DB.WithContext(ctx).Preload("Items").
		Where("status IN ?", []models.OrderStatus{models.StatusReceived, models.StatusPreparing}).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, orders)
}

func (s *OrderService) summarize(ctx context.Context, orders []models.Order) ([]OrderSummary, error) {
	ids := make([]uint, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.CustomerID)
	}
	names := map[uint]string{}
	if len(ids) > 0 {
		var users []models.User
		if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
			return nil, err
		}
		for _, u := range users {
			names[u.ID] = u.Username
		}
	}

	summaries := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		summaries = append(summaries, OrderSummary{
			ID:           o.ID,
			CustomerID:   o.CustomerID,
			CustomerName: names[o.CustomerID],
			Status:       o.Status,
			TotalPrice:   o.TotalPrice,
			ItemsCount:   len(o.Items),
			ScheduledFor: o.ScheduledFor,
			CreatedAt:    o.CreatedAt,
		})
	}
	return summaries, nil
}

// MarkFavourite toggles the favourite flag on the customer's own order.
func (s *OrderService) MarkFavourite(ctx context.Context, orderID uint, req Requester, flag bool) error {
	var order models.Order
	if err := s.DB.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return err
	}
	if order.CustomerID != req.UserID {
		return fmt.Errorf("%w: not your order", ErrForbidden)
	}
	return s.DB.WithContext(ctx).Model(&order).Update("is_favourite", flag).Error
}
