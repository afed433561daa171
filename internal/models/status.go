package models

type OrderStatus string

const (
	StatusReceived  OrderStatus = "RECEIVED"
	StatusPreparing OrderStatus = "PREPARING"
	StatusReady     OrderStatus = "READY"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
)

const (
	NotificationOrderReceived  = "ORDER_RECEIVED"
	NotificationOrderPreparing = "ORDER_PREPARING"
	NotificationOrderReady     = "ORDER_READY"
	NotificationOrderCompleted = "ORDER_COMPLETED"
	NotificationOrderCancelled = "ORDER_CANCELLED"
	NotificationPromotion      = "PROMOTION"
)

// transitions holds every legal status edge. Anything not listed is rejected.
var transitions = map[OrderStatus][]OrderStatus{
	StatusReceived:  {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady},
	StatusReady:     {StatusCompleted},
	StatusCompleted: {},
	StatusCancelled: {},
}

// KnownStatus reports whether s is one of the defined order statuses.
func KnownStatus(s OrderStatus) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether moving from -> to is a legal edge.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s has no outgoing edges.
func IsTerminal(s OrderStatus) bool {
	return len(transitions[s]) == 0 && KnownStatus(s)
}

type StatusMessage struct {
	Type    string
	Title   string
	Message string
}

var statusMessages = map[OrderStatus]StatusMessage{
	StatusReceived: {
		Type:    NotificationOrderReceived,
		Title:   "Order Received",
		Message: "Your order has been received and will be prepared soon.",
	},
	StatusPreparing: {
		Type:    NotificationOrderPreparing,
		Title:   "Order is Being Prepared",
		Message: "Your order is now being prepared by our barista.",
	},
	StatusReady: {
		Type:    NotificationOrderReady,
		Title:   "Order Ready for Pickup!",
		Message: "Your order is ready! Please come pick it up.",
	},
	StatusCompleted: {
		Type:    NotificationOrderCompleted,
		Title:   "Order Completed",
		Message: "Thank you for your order! Enjoy your coffee and dessert.",
	},
	StatusCancelled: {
		Type:    NotificationOrderCancelled,
		Title:   "Order Cancelled",
		Message: "Your order has been cancelled.",
	},
}

// MessageFor returns the fixed notification for a destination status.
func MessageFor(s OrderStatus) (StatusMessage, bool) {
	m, ok := statusMessages[s]
	return m, ok
}
