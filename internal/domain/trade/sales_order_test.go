package trade

import (
	"errors"
	"testing"

	"github.com/retaildesk/backend/internal/domain/catalog"
	"github.com/retaildesk/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers
func testSnapshot() Snapshot {
	return Snapshot{
		Products: catalog.NewSnapshot([]catalog.Product{
			{ID: 1, Name: "Shirt", PurchasePrice: decimal.NewFromInt(6000), SellingPrice: decimal.NewFromInt(10000), QuantityOnHand: 5},
			{ID: 2, Name: "Jeans", PurchasePrice: decimal.NewFromInt(20000), SellingPrice: decimal.NewFromInt(35000), QuantityOnHand: 2},
			{ID: 3, Name: "Cap", PurchasePrice: decimal.NewFromInt(1000), SellingPrice: decimal.NewFromInt(3000), QuantityOnHand: 0},
		}),
		Customers: partner.NewCustomerIndex([]partner.Customer{
			{ID: 10, Name: "Aziz", Phone: "+998901234567"},
			{ID: 11, Name: "Dilnoza", Phone: "+998907654321"},
		}),
	}
}

func validInput() OrderInput {
	return OrderInput{
		CustomerID:    10,
		ProductID:     1,
		Quantity:      2,
		PaymentMethod: PaymentMethodCash,
	}
}

// ============================================
// Status Tests
// ============================================

func TestOrderStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  OrderStatus
		isValid bool
	}{
		{OrderStatusPending, true},
		{OrderStatusConfirmed, true},
		{OrderStatusDelivered, true},
		{OrderStatusCancelled, true},
		{OrderStatus("shipped"), false},
		{OrderStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestPaymentMethod_IsValid(t *testing.T) {
	assert.True(t, PaymentMethodCash.IsValid())
	assert.True(t, PaymentMethodCard.IsValid())
	assert.True(t, PaymentMethodCredit.IsValid())
	assert.False(t, PaymentMethod("naqd").IsValid())
}

// ============================================
// SalesOrder Tests
// ============================================

func TestSalesOrder_TotalAmount(t *testing.T) {
	tests := []struct {
		name      string
		quantity  int
		unitPrice string
		want      string
	}{
		{"single unit free", 1, "0", "0"},
		{"single unit", 1, "10000", "10000"},
		{"many units", 3, "12500.50", "37501.50"},
		{"cents stay exact", 7, "0.01", "0.07"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &SalesOrder{Quantity: tt.quantity, UnitPrice: decimal.RequireFromString(tt.unitPrice)}
			assert.True(t, order.TotalAmount().Equal(decimal.RequireFromString(tt.want)), "got %s", order.TotalAmount())
		})
	}
}

func TestSalesOrder_Clone(t *testing.T) {
	order := &SalesOrder{ID: 1, Quantity: 1}
	delivered := order.Clone()
	now := fixedNow()
	delivered.DeliveryDate = &now

	assert.Nil(t, order.DeliveryDate)

	copied := delivered.Clone()
	later := now.AddDate(0, 0, 1)
	*copied.DeliveryDate = later
	assert.Equal(t, now, *delivered.DeliveryDate)
}

// ============================================
// ValidateOrder Tests
// ============================================

func TestValidateOrder(t *testing.T) {
	snap := testSnapshot()

	t.Run("valid input creates pending order with defaults", func(t *testing.T) {
		order, err := ValidateOrder(validInput(), snap)
		require.NoError(t, err)
		assert.Equal(t, OrderStatusPending, order.Status)
		assert.Equal(t, "Aziz", order.CustomerName)
		assert.Equal(t, "Shirt", order.ProductName)
		assert.True(t, order.UnitPrice.Equal(decimal.NewFromInt(10000)))
		assert.True(t, order.TotalAmount().Equal(decimal.NewFromInt(20000)))
		require.True(t, order.UnitCost.Valid)
		assert.True(t, order.UnitCost.Decimal.Equal(decimal.NewFromInt(6000)))
		assert.Nil(t, order.DeliveryDate)
	})

	t.Run("explicit unit price overrides selling price", func(t *testing.T) {
		input := validInput()
		input.UnitPrice = decimal.NewNullDecimal(decimal.RequireFromString("9500.50"))
		order, err := ValidateOrder(input, snap)
		require.NoError(t, err)
		assert.True(t, order.UnitPrice.Equal(decimal.RequireFromString("9500.50")))
	})

	t.Run("zero unit price is allowed", func(t *testing.T) {
		input := validInput()
		input.Quantity = 1
		input.UnitPrice = decimal.NewNullDecimal(decimal.Zero)
		order, err := ValidateOrder(input, snap)
		require.NoError(t, err)
		assert.True(t, order.TotalAmount().IsZero())
	})

	t.Run("quantity equal to stock is allowed", func(t *testing.T) {
		input := validInput()
		input.Quantity = 5
		_, err := ValidateOrder(input, snap)
		assert.NoError(t, err)
	})

	tests := []struct {
		name   string
		mutate func(*OrderInput)
		want   error
	}{
		{"stock plus one", func(in *OrderInput) { in.Quantity = 6 }, ErrOutOfStock},
		{"product with no stock", func(in *OrderInput) { in.ProductID = 3; in.Quantity = 1 }, ErrOutOfStock},
		{"unknown customer", func(in *OrderInput) { in.CustomerID = 99 }, ErrInvalidReference},
		{"unknown product", func(in *OrderInput) { in.ProductID = 99 }, ErrInvalidReference},
		{"zero quantity", func(in *OrderInput) { in.Quantity = 0 }, ErrInvalidAmount},
		{"negative quantity", func(in *OrderInput) { in.Quantity = -1 }, ErrInvalidAmount},
		{"negative price", func(in *OrderInput) { in.UnitPrice = decimal.NewNullDecimal(decimal.NewFromInt(-1)) }, ErrInvalidAmount},
		{"three decimal places", func(in *OrderInput) { in.UnitPrice = decimal.NewNullDecimal(decimal.RequireFromString("1.005")) }, ErrInvalidAmount},
		{"unknown payment method", func(in *OrderInput) { in.PaymentMethod = "barter" }, ErrInvalidPaymentMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(&input)
			order, err := ValidateOrder(input, snap)
			assert.Nil(t, order)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestValidateOrder_StockRejectionAtOnHandPlusOne(t *testing.T) {
	snap := testSnapshot()
	for _, product := range snap.Products {
		input := validInput()
		input.ProductID = product.ID
		input.Quantity = product.QuantityOnHand + 1

		_, err := ValidateOrder(input, snap)

		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr), "product %d", product.ID)
		assert.Equal(t, KindOutOfStock, vErr.Kind)
		assert.Equal(t, "OUT_OF_STOCK", vErr.ErrorCode())
	}
}

func TestValidateOrder_DoesNotTouchCatalog(t *testing.T) {
	snap := testSnapshot()
	_, err := ValidateOrder(validInput(), snap)
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Products[1].QuantityOnHand)
}

func TestValidateOrder_RejectsInvalidCatalogEntry(t *testing.T) {
	snap := testSnapshot()
	broken := snap.Products[1]
	broken.QuantityOnHand = -3
	snap.Products[1] = broken

	_, err := ValidateOrder(validInput(), snap)
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestValidateOrder_DefaultsToSellingPrice(t *testing.T) {
	order, err := ValidateOrder(validInput(), testSnapshot())
	require.NoError(t, err)
	assert.True(t, order.UnitPrice.Equal(decimal.NewFromInt(10000)))
}
