package trade

import (
	"time"

	"github.com/retaildesk/backend/internal/domain/catalog"
	"github.com/retaildesk/backend/internal/domain/partner"
	"github.com/retaildesk/backend/internal/domain/shared"
	"github.com/retaildesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SalesOrder is a single-line sale of one product to one customer.
// The total is always derived from quantity and unit price and is never stored.
type SalesOrder struct {
	ID            int64
	CustomerID    int64
	CustomerName  string
	ProductID     int64
	ProductName   string
	Quantity      int
	UnitPrice     decimal.Decimal
	UnitCost      decimal.NullDecimal // purchase price at time of sale, when known
	PaymentMethod PaymentMethod
	Status        OrderStatus
	Notes         string
	SaleDate      time.Time
	DeliveryDate  *time.Time
}

// TotalAmount returns quantity * unitPrice
func (o *SalesOrder) TotalAmount() decimal.Decimal {
	return o.UnitPrice.Mul(decimal.NewFromInt(int64(o.Quantity)))
}

// Clone returns a deep copy so callers can mutate the result freely
func (o *SalesOrder) Clone() *SalesOrder {
	c := *o
	if o.DeliveryDate != nil {
		d := *o.DeliveryDate
		c.DeliveryDate = &d
	}
	return &c
}

// Validate checks the structural invariants every persisted order must hold.
// It does not consult the catalog.
func (o *SalesOrder) Validate() error {
	if err := validateAmounts(o.Quantity, o.UnitPrice); err != nil {
		return err
	}
	if !o.PaymentMethod.IsValid() {
		return newValidationError(KindInvalidPaymentMethod, "payment_method", "unknown payment method %q", o.PaymentMethod)
	}
	if !o.Status.IsValid() {
		return shared.NewDomainError("INVALID_STATE", "order has an unknown status "+string(o.Status))
	}
	return nil
}

// OrderInput is the caller-supplied data for a new order.
// A null UnitPrice defaults to the product's current selling price.
type OrderInput struct {
	CustomerID    int64
	ProductID     int64
	Quantity      int
	UnitPrice     decimal.NullDecimal
	PaymentMethod PaymentMethod
	Notes         string
}

// Snapshot is the reference data an order is validated against
type Snapshot struct {
	Products  catalog.Snapshot
	Customers partner.CustomerIndex
}

// ValidateOrder checks input against the snapshot and returns a pending order.
// It only checks stock; decrementing it is the persistence layer's job.
func ValidateOrder(input OrderInput, snap Snapshot) (*SalesOrder, error) {
	if !input.PaymentMethod.IsValid() {
		return nil, newValidationError(KindInvalidPaymentMethod, "payment_method", "unknown payment method %q", input.PaymentMethod)
	}
	if input.Quantity < 1 {
		return nil, newValidationError(KindInvalidAmount, "quantity", "quantity must be at least 1, got %d", input.Quantity)
	}

	customer, ok := snap.Customers[input.CustomerID]
	if !ok {
		return nil, newValidationError(KindInvalidReference, "customer", "customer %d not found", input.CustomerID)
	}
	view := catalog.NewView(snap.Products)
	product, err := resolveProduct(view, input.ProductID)
	if err != nil {
		return nil, err
	}

	unitPrice, _ := view.DefaultUnitPrice(product.ID)
	if input.UnitPrice.Valid {
		unitPrice = input.UnitPrice.Decimal
	}
	if err := validateAmounts(input.Quantity, unitPrice); err != nil {
		return nil, err
	}
	if err := checkStock(product, input.Quantity, 0); err != nil {
		return nil, err
	}

	return &SalesOrder{
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		ProductID:     product.ID,
		ProductName:   product.Name,
		Quantity:      input.Quantity,
		UnitPrice:     unitPrice,
		UnitCost:      decimal.NewNullDecimal(product.PurchasePrice),
		PaymentMethod: input.PaymentMethod,
		Status:        OrderStatusPending,
		Notes:         input.Notes,
	}, nil
}

// resolveProduct looks up id in the view and rejects catalog entries whose
// prices or stock are negative.
func resolveProduct(view *catalog.View, id int64) (catalog.Product, error) {
	product, ok := view.Lookup(id)
	if !ok {
		return catalog.Product{}, newValidationError(KindInvalidReference, "product", "product %d not found", id)
	}
	if err := product.Validate(); err != nil {
		return catalog.Product{}, newValidationError(KindInvalidReference, "product", "product %d: %v", id, err)
	}
	return product, nil
}

func validateAmounts(quantity int, unitPrice decimal.Decimal) error {
	if quantity < 1 {
		return newValidationError(KindInvalidAmount, "quantity", "quantity must be at least 1, got %d", quantity)
	}
	if unitPrice.IsNegative() {
		return newValidationError(KindInvalidAmount, "unit_price", "unit price cannot be negative")
	}
	if !valueobject.HasValidScale(unitPrice) {
		return newValidationError(KindInvalidAmount, "unit_price", "unit price allows at most %d decimal places", valueobject.MoneyScale)
	}
	return nil
}

// checkStock rejects quantities above onHand + held, where held is stock the
// order already reserves for the same product.
func checkStock(product catalog.Product, quantity, held int) error {
	available := product.QuantityOnHand + held
	if quantity > available {
		return newValidationError(KindOutOfStock, "quantity",
			"only %d of %q in stock, requested %d", available, product.Name, quantity)
	}
	return nil
}
