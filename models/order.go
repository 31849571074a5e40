package models

import "time"

// Payment statuses for a placed order.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

const OrderStatusPlaced = "placed"

// CartLine is one pre-checkout line for a device. Price is the unit price
// captured when the line was first inserted; later merges only bump Quantity.
// Name, Description and Category are joined from menu_items for display.
type CartLine struct {
	DeviceID    string
	MenuItemID  int64
	Quantity    int
	Price       int64
	Name        string
	Description string
	Category    string
}

// PlacedOrder is an immutable snapshot of a cart at placement time.
type PlacedOrder struct {
	ID               int64
	DeviceID         string
	TotalAmount      int64
	PaymentStatus    string
	PaymentReference string
	ScheduledFor     *time.Time
	Status           string
	CreatedAt        time.Time
	Items            []OrderItem
}

// OrderItem is a denormalized copy of a cart line; independent of later
// menu changes.
type OrderItem struct {
	OrderID    int64
	MenuItemID int64
	Quantity   int
	Price      int64
	ItemName   string
}
