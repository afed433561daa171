package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		ok   bool
	}{
		{"received to preparing", StatusReceived, StatusPreparing, true},
		{"received to cancelled", StatusReceived, StatusCancelled, true},
		{"preparing to ready", StatusPreparing, StatusReady, true},
		{"ready to completed", StatusReady, StatusCompleted, true},
		{"received to ready skips a step", StatusReceived, StatusReady, false},
		{"received to completed skips steps", StatusReceived, StatusCompleted, false},
		{"preparing to cancelled", StatusPreparing, StatusCancelled, false},
		{"ready to received reverts", StatusReady, StatusReceived, false},
		{"completed is terminal", StatusCompleted, StatusReceived, false},
		{"cancelled is terminal", StatusCancelled, StatusPreparing, false},
		{"no self transition", StatusPreparing, StatusPreparing, false},
		{"unknown status", OrderStatus("BREWING"), StatusReady, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, CanTransition(tt.from, tt.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()

	assert.True(t, IsTerminal(StatusCompleted))
	assert.True(t, IsTerminal(StatusCancelled))
	assert.False(t, IsTerminal(StatusReceived))
	assert.False(t, IsTerminal(StatusPreparing))
	assert.False(t, IsTerminal(StatusReady))
	assert.False(t, IsTerminal(OrderStatus("BREWING")))
}

func TestMessageFor(t *testing.T) {
	t.Parallel()

	msg, ok := MessageFor(StatusReady)
	require.True(t, ok)
	assert.Equal(t, NotificationOrderReady, msg.Type)
	assert.Equal(t, "Order Ready for Pickup!", msg.Title)
	assert.Equal(t, "Your order is ready! Please come pick it up.", msg.Message)

	_, ok = MessageFor(OrderStatus("BREWING"))
	assert.False(t, ok)
}
