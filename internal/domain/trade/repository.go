package trade

import (
	"context"
	"strings"
	"time"
)

// OrderFilter narrows an order listing. Zero values mean "no constraint".
// From is inclusive and To is exclusive.
type OrderFilter struct {
	Status *OrderStatus
	From   *time.Time
	To     *time.Time
	Search string
}

// Matches reports whether order satisfies the filter. The core applies it
// itself because the data service may ignore some parameters.
func (f OrderFilter) Matches(order *SalesOrder) bool {
	if f.Status != nil && order.Status != *f.Status {
		return false
	}
	if f.From != nil && order.SaleDate.Before(*f.From) {
		return false
	}
	if f.To != nil && !order.SaleDate.Before(*f.To) {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		if !strings.Contains(strings.ToLower(order.CustomerName), term) &&
			!strings.Contains(strings.ToLower(order.ProductName), term) &&
			!strings.Contains(strings.ToLower(order.Notes), term) {
			return false
		}
	}
	return true
}

// Apply returns the orders matching the filter, preserving order
func (f OrderFilter) Apply(orders []SalesOrder) []SalesOrder {
	out := make([]SalesOrder, 0, len(orders))
	for i := range orders {
		if f.Matches(&orders[i]) {
			out = append(out, orders[i])
		}
	}
	return out
}

// TransitionCommand is a status write. When RestockQuantity is positive the
// persistence layer must return that many units of ProductID to stock in the
// same atomic write.
type TransitionCommand struct {
	OrderID         int64
	ProductID       int64
	From            OrderStatus
	To              OrderStatus
	DeliveryDate    *time.Time
	RestockQuantity int
}

// EditCommand is an edited pending order plus the line it replaces, so the
// persistence layer can move stock from the previous product and quantity to
// the new ones in the same write.
type EditCommand struct {
	Order             *SalesOrder
	PreviousProductID int64
	PreviousQuantity  int
}

// NewEditCommand pairs the edited order with the line it replaces
func NewEditCommand(before, after *SalesOrder) EditCommand {
	return EditCommand{
		Order:             after,
		PreviousProductID: before.ProductID,
		PreviousQuantity:  before.Quantity,
	}
}

// StockDelta is the change in on-hand stock of the order's current product:
// negative when the edit takes more units, positive when it hands units back.
// Switching product takes the full new quantity.
func (c EditCommand) StockDelta() int {
	if c.PreviousProductID != c.Order.ProductID {
		return -c.Order.Quantity
	}
	return c.PreviousQuantity - c.Order.Quantity
}

// OrderReader loads persisted orders
type OrderReader interface {
	FetchOrders(ctx context.Context, filter OrderFilter) ([]SalesOrder, error)
	GetOrder(ctx context.Context, id int64) (*SalesOrder, error)
}

// OrderWriter commits orders produced by the core. PersistOrder must decrement
// stock atomically with the insert; PersistEdit applies the edit's stock
// movement with the update.
type OrderWriter interface {
	PersistOrder(ctx context.Context, order *SalesOrder) (*SalesOrder, error)
	PersistEdit(ctx context.Context, cmd EditCommand) (*SalesOrder, error)
	PersistTransition(ctx context.Context, cmd TransitionCommand) (*SalesOrder, error)
	DeleteOrder(ctx context.Context, id int64) error
}

// OrderRepository combines reads and writes
type OrderRepository interface {
	OrderReader
	OrderWriter
}
