package models

import "time"

// OrderStatus is one-way: Not-Accepted until the restaurant accepts.
type OrderStatus string

const (
	OrderAccepted    OrderStatus = "Accepted"
	OrderNotAccepted OrderStatus = "Not-Accepted"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderAccepted, OrderNotAccepted:
		return true
	}
	return false
}

// Cart is one line a customer intends to order. OrderedAt is set when an Order is
// created from it; an ordered cart is frozen.
type Cart struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	CustomerID    uint       `json:"customer_id" gorm:"not null;index"`
	ItemID        uint       `json:"item_id" gorm:"not null;index"`
	Item          *Item      `json:"item,omitempty"`
	Quantity      int        `json:"quantity" gorm:"not null"`
	Customization string     `json:"customization"`
	OrderedAt     *time.Time `json:"ordered_at,omitempty"`
	AuditFields
}

type Order struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	CustomerID   uint        `json:"customer_id" gorm:"not null;index"`
	Customer     *User       `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	RestaurantID uint        `json:"restaurant_id" gorm:"not null;index"`
	Restaurant   *Restaurant `json:"restaurant,omitempty"`
	CartID       uint        `json:"cart_id" gorm:"not null;uniqueIndex"`
	Cart         *Cart       `json:"cart,omitempty"`
	Status       OrderStatus `json:"status" gorm:"not null;index"`
	// snapshot of the item price at the time of order
	UnitPrice       float64    `json:"unit_price"`
	Quantity        int        `json:"quantity"`
	TotalPrice      float64    `json:"total_price"`
	DeliveryAddress string     `json:"delivery_address" gorm:"not null"`
	AcceptedByID    *uint      `json:"accepted_by,omitempty" gorm:"column:accepted_by"`
	AcceptedAt      *time.Time `json:"accepted_at,omitempty"`
	AuditFields
}

// StatusChange is the audit trail of every workflow transition.
type StatusChange struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Entity     string    `json:"entity" gorm:"not null;index:idx_status_change_entity"`
	EntityID   uint      `json:"entity_id" gorm:"not null;index:idx_status_change_entity"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status" gorm:"not null"`
	ChangedBy  uint      `json:"changed_by"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	EntityRestaurantRequest = "restaurant_request"
	EntityOrder             = "order"
)
