package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaimaJr/CoffeeHop/internal/models"
)

func TestMarkAllRead_CountsOnlyUnread(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer := env.createUser(t, "alice", models.RoleCustomer)
	other := env.createUser(t, "bob", models.RoleCustomer)

	for i := 0; i < 3; i++ {
		_, err := env.Notifier.SendPromotion(ctx, customer.ID, "Happy Hour", "Half price lattes until 5pm.")
		require.NoError(t, err)
	}
	read, err := env.Notifier.SendPromotion(ctx, customer.ID, "Old News", "You have already seen this.")
	require.NoError(t, err)
	require.NoError(t, env.Notifier.MarkRead(ctx, read.ID, asRequester(customer)))

	_, err = env.Notifier.SendPromotion(ctx, other.ID, "Happy Hour", "Half price lattes until 5pm.")
	require.NoError(t, err)

	count, err := env.Notifier.MarkAllRead(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	// Everything is read now, so a second sweep touches nothing.
	count, err = env.Notifier.MarkAllRead(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// The other customer's notification was left alone.
	var unread int64
	require.NoError(t, env.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", other.ID, false).
		Count(&unread).Error)
	assert.Equal(t, int64(1), unread)
}

func TestMarkRead_OnlyOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer := env.createUser(t, "carol", models.RoleCustomer)
	stranger := env.createUser(t, "mallory", models.RoleCustomer)

	notif, err := env.Notifier.SendPromotion(ctx, customer.ID, "Happy Hour", "Half price lattes until 5pm.")
	require.NoError(t, err)

	require.ErrorIs(t, env.Notifier.MarkRead(ctx, notif.ID, asRequester(stranger)), ErrForbidden)
	require.NoError(t, env.Notifier.MarkRead(ctx, notif.ID, asRequester(customer)))
	require.ErrorIs(t, env.Notifier.MarkRead(ctx, 9999, asRequester(customer)), ErrNotFound)
}

func TestList_NewestFirstAndScopedToUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer := env.createUser(t, "dave", models.RoleCustomer)
	other := env.createUser(t, "erin", models.RoleCustomer)

	for _, title := range []string{"first", "second", "third"} {
		_, err := env.Notifier.SendPromotion(ctx, customer.ID, title, "msg")
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}
	_, err := env.Notifier.SendPromotion(ctx, other.ID, "not yours", "msg")
	require.NoError(t, err)

	notifs, err := env.Notifier.List(ctx, customer.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, notifs, 3)
	assert.Equal(t, "third", notifs[0].Title)
	assert.Equal(t, "first", notifs[2].Title)

	// Pagination applies after ordering.
	page, err := env.Notifier.List(ctx, customer.ID, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "second", page[0].Title)
}

func TestSendPromotion_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer := env.createUser(t, "frank", models.RoleCustomer)

	_, err := env.Notifier.SendPromotion(ctx, 9999, "Hi", "msg")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = env.Notifier.SendPromotion(ctx, customer.ID, "", "msg")
	require.ErrorIs(t, err, ErrValidation)

	_, err = env.Notifier.SendPromotion(ctx, customer.ID, "Hi", "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestPublishOrderEvent_ReachesOnlyTheOrdersSubscribers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer := env.createUser(t, "grace", models.RoleCustomer)
	barista := env.createUser(t, "barista", models.RoleBarista)
	latte := env.createMenuItem(t, "Latte", "3.70", true)

	orderX, err := env.Orders.CreateOrder(ctx, customer.ID, CreateOrderInput{
		Items: []CreateOrderItem{{MenuItemID: latte.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	orderY, err := env.Orders.CreateOrder(ctx, customer.ID, CreateOrderInput{
		Items: []CreateOrderItem{{MenuItemID: latte.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	chX, cancelX := env.Hub.Subscribe(orderX.ID)
	defer cancelX()
	chY, cancelY := env.Hub.Subscribe(orderY.ID)
	defer cancelY()

	_, err = env.Orders.UpdateStatus(ctx, orderX.ID, asRequester(barista), models.StatusPreparing)
	require.NoError(t, err)

	select {
	case e := <-chX:
		assert.Equal(t, orderX.ID, e.OrderID)
		assert.Equal(t, string(models.StatusPreparing), e.Status)
		assert.Equal(t, "Order is Being Prepared", e.Title)
	case <-time.After(time.Second):
		t.Fatal("no event on the updated order's channel")
	}

	select {
	case e := <-chY:
		t.Fatalf("event leaked to another order's channel: %+v", e)
	default:
	}
}

func TestPublishOrderEvent_TerminalStatusClosesTopic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer := env.createUser(t, "heidi", models.RoleCustomer)
	latte := env.createMenuItem(t, "Latte", "3.70", true)

	order, err := env.Orders.CreateOrder(ctx, customer.ID, CreateOrderInput{
		Items: []CreateOrderItem{{MenuItemID: latte.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	ch, cancel := env.Hub.Subscribe(order.ID)
	defer cancel()

	require.NoError(t, env.Orders.CancelOrder(ctx, order.ID, asRequester(customer)))

	// The buffered CANCELLED event arrives, then the channel closes.
	select {
	case e, ok := <-ch:
		require.True(t, ok)
		assert.Equal(t, string(models.StatusCancelled), e.Status)
	case <-time.After(time.Second):
		t.Fatal("no cancellation event")
	}

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "topic should be closed after a terminal status")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after terminal status")
	}

	assert.Equal(t, 0, env.Hub.Subscribers(order.ID))
}
