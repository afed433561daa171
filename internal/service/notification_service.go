package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/chaimaJr/CoffeeHop/internal/hub"
	"github.com/chaimaJr/CoffeeHop/internal/logging"
	"github.com/chaimaJr/CoffeeHop/internal/models"
	"github.com/chaimaJr/CoffeeHop/internal/mykafka"
)

// NotificationService persists notifications and fans order events out to
// live subscribers. Persistence is part of the triggering state change (it
// runs inside the caller's transaction); live delivery is best-effort and
// never fails the operation that produced it.
type NotificationService struct {
	DB       *gorm.DB
	Hub      *hub.Hub
	Producer *mykafka.Producer
}

// EmitTx writes the notification inside tx so it commits or rolls back
// together with the order mutation that caused it.
func (s *NotificationService) EmitTx(tx *gorm.DB, userID uint, typ, title, message string, orderID *uint) (*models.Notification, error) {
	n := models.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
		OrderID: orderID,
		IsRead:  false,
		SentAt:  time.Now(),
	}
	if err := tx.Create(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// PublishOrderEvent pushes a committed status change to the order's live
// topic and to the notification event stream. Failures are logged and
// swallowed: the persisted notification is authoritative.
func (s *NotificationService) PublishOrderEvent(ctx context.Context, order *models.Order, msg models.StatusMessage) {
	event := hub.Event{
		OrderID: order.ID,
		Status:  string(order.Status),
		Title:   msg.Title,
		Message: msg.Message,
		SentAt:  time.Now(),
	}
	if s.Hub != nil {
		s.Hub.Publish(event)
		if models.IsTerminal(order.Status) {
			s.Hub.CloseTopic(order.ID)
		}
	}

	if s.Producer != nil {
		if err := s.Producer.PublishEvent(ctx, "notification_events", fmt.Sprint(order.ID), event); err != nil {
			logging.FromContext(ctx).Error("kafka publish failed", "order_id", order.ID, "error", err)
		}
	}
}

// SendPromotion records a manual promotional notification for one user.
func (s *NotificationService) SendPromotion(ctx context.Context, userID uint, title, message string) (*models.Notification, error) {
	if title == "" || message == "" {
		return nil, fmt.Errorf("%w: title and message required", ErrValidation)
	}
	var n *models.Notification
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: user %d", ErrNotFound, userID)
			}
			return err
		}
		var err error
		n, err = s.EmitTx(tx, userID, models.NotificationPromotion, title, message, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uint, offset, limit int) ([]models.Notification, error) {
	var notifs []models.Notification
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("sent_at DESC").
		Offset(offset).Limit(limit).
		Find(&notifs).Error
	if err != nil {
		return nil, err
	}
	return notifs, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, notificationID uint, req Requester) error {
	var n models.Notification
	if err := s.DB.WithContext(ctx).First(&n, notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: notification %d", ErrNotFound, notificationID)
		}
		return err
	}
	if n.UserID != req.UserID {
		return fmt.Errorf("%w: not your notification", ErrForbidden)
	}
	return s.DB.WithContext(ctx).Model(&n).Update("is_read", true).Error
}

// MarkAllRead flips every unread notification of the user and returns how
// many were affected.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := s.DB.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
