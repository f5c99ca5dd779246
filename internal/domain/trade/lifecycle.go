package trade

import (
	"fmt"
	"time"

	"github.com/retaildesk/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// Lifecycle applies status transitions and edits to sales orders.
// It never mutates the order it is given: every result is a fresh copy,
// so a rejected change leaves the caller's order untouched.
type Lifecycle struct {
	now func() time.Time
}

// NewLifecycle creates a lifecycle using now as its clock; nil means time.Now.
func NewLifecycle(now func() time.Time) *Lifecycle {
	if now == nil {
		now = time.Now
	}
	return &Lifecycle{now: now}
}

// Create validates input and stamps the sale date.
func (l *Lifecycle) Create(input OrderInput, snap Snapshot) (*SalesOrder, error) {
	order, err := ValidateOrder(input, snap)
	if err != nil {
		return nil, err
	}
	order.SaleDate = l.now()
	return order, nil
}

// TransitionResult is a transitioned order plus the stock the persistence
// layer must put back together with the status write.
type TransitionResult struct {
	Order           *SalesOrder
	From            OrderStatus
	RestockQuantity int
}

// Command returns the write the persistence layer has to commit
func (r *TransitionResult) Command() TransitionCommand {
	return TransitionCommand{
		OrderID:         r.Order.ID,
		ProductID:       r.Order.ProductID,
		From:            r.From,
		To:              r.Order.Status,
		DeliveryDate:    r.Order.DeliveryDate,
		RestockQuantity: r.RestockQuantity,
	}
}

// Transition moves order to status to. Entering delivered stamps the delivery
// date unless one is already set; a delivery date is never cleared.
// Entering cancelled restocks the order's quantity.
// Only the edge and the quantity are checked; price and payment method are
// not revalidated on a status-only change.
func (l *Lifecycle) Transition(order *SalesOrder, to OrderStatus) (*TransitionResult, error) {
	from := order.Status
	if !to.IsValid() || !from.CanTransitionTo(to) {
		return nil, &TransitionError{
			Kind:    KindIllegalTransition,
			From:    from,
			To:      to,
			Message: fmt.Sprintf("cannot change order status from %s to %s", from, to),
		}
	}
	if order.Quantity < 1 {
		return nil, newValidationError(KindInvalidAmount, "quantity", "quantity must be at least 1, got %d", order.Quantity)
	}

	next := order.Clone()
	next.Status = to
	result := &TransitionResult{Order: next, From: from}

	switch to {
	case OrderStatusDelivered:
		if next.DeliveryDate == nil {
			now := l.now()
			next.DeliveryDate = &now
		}
	case OrderStatusCancelled:
		result.RestockQuantity = next.Quantity
	}
	return result, nil
}

// OrderPatch holds the fields to change on a pending order; nil fields are kept.
type OrderPatch struct {
	CustomerID    *int64
	ProductID     *int64
	Quantity      *int
	UnitPrice     decimal.NullDecimal
	PaymentMethod *PaymentMethod
	Notes         *string
}

// Edit applies patch to a pending order and re-validates it against snap.
// Switching product without an explicit price resets the price to the new
// product's selling price.
func (l *Lifecycle) Edit(order *SalesOrder, patch OrderPatch, snap Snapshot) (*SalesOrder, error) {
	if order.Status != OrderStatusPending {
		return nil, &TransitionError{
			Kind:    KindImmutable,
			From:    order.Status,
			To:      order.Status,
			Message: fmt.Sprintf("order in status %s can no longer be edited", order.Status),
		}
	}

	next := order.Clone()
	if patch.CustomerID != nil {
		customer, ok := snap.Customers[*patch.CustomerID]
		if !ok {
			return nil, newValidationError(KindInvalidReference, "customer", "customer %d not found", *patch.CustomerID)
		}
		next.CustomerID = customer.ID
		next.CustomerName = customer.Name
	}

	productID := order.ProductID
	if patch.ProductID != nil {
		productID = *patch.ProductID
	}
	productChanged := productID != order.ProductID
	product, err := resolveProduct(catalog.NewView(snap.Products), productID)
	if err != nil {
		return nil, err
	}
	if productChanged {
		next.ProductID = product.ID
		next.ProductName = product.Name
		next.UnitPrice = product.SellingPrice
		next.UnitCost = decimal.NewNullDecimal(product.PurchasePrice)
	} else if !next.UnitCost.Valid {
		next.UnitCost = decimal.NewNullDecimal(product.PurchasePrice)
	}

	if patch.Quantity != nil {
		next.Quantity = *patch.Quantity
	}
	if patch.UnitPrice.Valid {
		next.UnitPrice = patch.UnitPrice.Decimal
	}
	if patch.PaymentMethod != nil {
		next.PaymentMethod = *patch.PaymentMethod
	}
	if patch.Notes != nil {
		next.Notes = *patch.Notes
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}
	held := 0
	if !productChanged {
		held = order.Quantity
	}
	if err := checkStock(product, next.Quantity, held); err != nil {
		return nil, err
	}
	return next, nil
}
