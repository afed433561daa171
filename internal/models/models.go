package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleCustomer = "CUSTOMER"
	RoleBarista  = "BARISTA"
	RoleAdmin    = "ADMIN"
)

type User struct {
	ID            uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username      string `gorm:"unique;not null"          json:"username"`
	Email         string `gorm:"index"                    json:"email"`
	PasswordHash  string `gorm:"not null"                 json:"-"`
	Role          string `gorm:"not null;index"           json:"role"`
	Phone         string `json:"phone"`
	LoyaltyPoints int64  `gorm:"not null;default:0"       json:"loyalty_points"`
}

// IsStaff reports whether the user may act on other customers' orders.
func (u *User) IsStaff() bool {
	return u.Role == RoleBarista || u.Role == RoleAdmin
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"          json:"id"`
	Token     string `gorm:"unique;not null"     json:"token"`
	UserID    uint   `gorm:"index;not null"      json:"user_id"`
	Role      string `gorm:"not null"            json:"role"`
	ExpiresAt int64  `gorm:"not null"            json:"expires_at"`
	Revoked   bool   `gorm:"default:false"       json:"revoked"`
}

const (
	ItemTypeCoffee  = "COFFEE"
	ItemTypeDessert = "DESSERT"
)

type MenuItem struct {
	ID              uint            `gorm:"primaryKey;autoIncrement"               json:"id"`
	Title           string          `gorm:"not null"                               json:"title"`
	Description     string          `json:"description"`
	ItemType        string          `gorm:"not null;index:idx_menu_type_avail"     json:"item_type"`
	Price           decimal.Decimal `gorm:"type:decimal(6,2);not null"             json:"price"`
	IsAvailable     bool            `gorm:"default:true;index:idx_menu_type_avail" json:"is_available"`
	PreparationTime int             `gorm:"default:5"                              json:"preparation_time"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type Order struct {
	ID           uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID   uint            `gorm:"index;not null"           json:"customer_id"`
	Status       OrderStatus     `gorm:"type:varchar(20);not null;index:idx_orders_status_created,priority:1" json:"status"`
	TotalPrice   decimal.Decimal `gorm:"type:decimal(8,2);not null" json:"total_price"`
	Notes        string          `json:"notes"`
	ScheduledFor *time.Time      `gorm:"index"                    json:"scheduled_for,omitempty"`
	IsFavourite  bool            `gorm:"default:false"            json:"is_favourite"`
	// Version backs the optimistic check that serializes writers per order.
	Version     int64       `gorm:"not null;default:0"           json:"-"`
	Items       []OrderItem `gorm:"constraint:OnDelete:CASCADE"  json:"items,omitempty"`
	CreatedAt   time.Time   `gorm:"index:idx_orders_status_created,priority:2" json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// CanBeModified reports whether the owning customer may still edit or cancel.
func (o *Order) CanBeModified() bool {
	return o.Status == StatusReceived
}

// Points earned by this order: 1 point per whole currency unit spent.
func (o *Order) Points() int64 {
	return o.TotalPrice.IntPart()
}

type OrderItem struct {
	ID         uint `gorm:"primaryKey;autoIncrement"  json:"id"`
	OrderID    uint `gorm:"index;not null"            json:"order_id"`
	MenuItemID uint `gorm:"not null"                  json:"menu_item_id"`
	Quantity   int  `gorm:"not null;check:quantity>0" json:"quantity"`
	// Price is captured from the menu at order time and never refreshed.
	Price          decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"price"`
	Customizations string          `json:"customizations"`
}

// LineTotal is price x quantity for this line.
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type FavouriteOrder struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"                   json:"id"`
	CustomerID      uint      `gorm:"not null;uniqueIndex:idx_fav_customer_name" json:"customer_id"`
	Name            string    `gorm:"not null;uniqueIndex:idx_fav_customer_name" json:"name"`
	TemplateOrderID uint      `gorm:"not null"                                   json:"template_order_id"`
	CreatedAt       time.Time `json:"created_at"`
}

type LoyaltyOffer struct {
	ID             uint       `gorm:"primaryKey;autoIncrement"         json:"id"`
	Title          string     `gorm:"not null"                         json:"title"`
	Description    string     `json:"description"`
	PointsRequired int64      `gorm:"not null;check:points_required>0" json:"points_required"`
	IsActive       bool       `gorm:"default:true;index"               json:"is_active"`
	ValidFrom      time.Time  `gorm:"not null"                         json:"valid_from"`
	ValidUntil     *time.Time `json:"valid_until,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ValidAt reports whether the offer can be redeemed at instant t.
func (o *LoyaltyOffer) ValidAt(t time.Time) bool {
	if !o.IsActive {
		return false
	}
	if o.ValidFrom.After(t) {
		return false
	}
	if o.ValidUntil != nil && o.ValidUntil.Before(t) {
		return false
	}
	return true
}

type LoyaltyRedemption struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID     uint      `gorm:"index;not null"           json:"customer_id"`
	OfferID        uint      `gorm:"not null"                 json:"offer_id"`
	PointsSpent    int64     `gorm:"not null"                 json:"points_spent"`
	RedemptionCode string    `gorm:"unique;not null"          json:"redemption_code"`
	IsUsed         bool      `gorm:"default:false"            json:"is_used"`
	OrderID        *uint     `json:"order_id,omitempty"`
	RedeemedAt     time.Time `json:"redeemed_at"`
}

type Notification struct {
	ID      uint      `gorm:"primaryKey;autoIncrement"                json:"id"`
	UserID  uint      `gorm:"not null;index:idx_notif_user_read"      json:"user_id"`
	Type    string    `gorm:"type:varchar(30);not null"               json:"type"`
	Title   string    `gorm:"not null"                                json:"title"`
	Message string    `gorm:"not null"                                json:"message"`
	OrderID *uint     `json:"order_id,omitempty"`
	IsRead  bool      `gorm:"default:false;index:idx_notif_user_read" json:"is_read"`
	SentAt  time.Time `gorm:"index"                                   json:"sent_at"`
}
