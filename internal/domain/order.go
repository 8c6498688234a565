package domain

import "time"

// OrderDirection distinguishes restocking purchases from client sales.
type OrderDirection string

const (
	OrderInbound  OrderDirection = "INBOUND"
	OrderOutbound OrderDirection = "OUTBOUND"
)

// IsValidDirection checks whether the given string is a known direction.
func IsValidDirection(d string) bool {
	return d == string(OrderInbound) || d == string(OrderOutbound)
}

// Order status constants.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusConfirmed = "CONFIRMED"
	OrderStatusFulfilled = "FULFILLED"
	OrderStatusCanceled  = "CANCELED"
)

// Order represents a purchase (INBOUND, from a supplier) or a sale
// (OUTBOUND, to a client). Exactly one of SupplierID/ClientID is set,
// matching the direction.
type Order struct {
	ID          string         `json:"id"`
	Number      string         `json:"number"`
	Direction   OrderDirection `json:"direction"`
	Status      string         `json:"status"`
	ClientID    *string        `json:"client_id,omitempty"`
	SupplierID  *string        `json:"supplier_id,omitempty"`
	Items       []OrderItem    `json:"items"`
	TotalAmount int64          `json:"total_amount"`
	Currency    string         `json:"currency"`
	Notes       string         `json:"notes,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// OrderItem is one product line on an order.
type OrderItem struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// Subtotal returns the line total in cents.
func (it OrderItem) Subtotal() int64 {
	return it.UnitPrice * int64(it.Quantity)
}

// ValidOrderStatuses returns all valid order statuses.
func ValidOrderStatuses() []string {
	return []string{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusFulfilled,
		OrderStatusCanceled,
	}
}

// IsValidOrderStatus checks if a status string is valid.
func IsValidOrderStatus(status string) bool {
	for _, s := range ValidOrderStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// orderTransitions defines which status transitions are allowed.
var orderTransitions = map[string][]string{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCanceled},
	OrderStatusConfirmed: {OrderStatusFulfilled, OrderStatusCanceled},
	OrderStatusFulfilled: {},
	OrderStatusCanceled:  {},
}

// CanTransitionTo checks if the order may move to the target status.
func (o *Order) CanTransitionTo(target string) bool {
	for _, s := range orderTransitions[o.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// RecalculateTotal sums the line subtotals into TotalAmount.
func (o *Order) RecalculateTotal() {
	var total int64
	for _, it := range o.Items {
		total += it.Subtotal()
	}
	o.TotalAmount = total
}
