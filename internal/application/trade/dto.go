package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/retaildesk/backend/internal/domain/catalog"
	"github.com/retaildesk/backend/internal/domain/shared"
	"github.com/retaildesk/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// ==================== Sales Order DTOs ====================

// CreateSalesOrderRequest represents a request to create a sales order.
// An omitted unit price defaults to the product's selling price.
type CreateSalesOrderRequest struct {
	CustomerID    int64            `json:"customer_id" binding:"required"`
	ProductID     int64            `json:"product_id" binding:"required"`
	Quantity      int              `json:"quantity"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
	PaymentMethod string           `json:"payment_method" binding:"required,payment_method"`
	Notes         string           `json:"notes" binding:"max=1000"`
}

// UpdateSalesOrderRequest represents a request to edit a pending sales order
type UpdateSalesOrderRequest struct {
	CustomerID    *int64           `json:"customer_id"`
	ProductID     *int64           `json:"product_id"`
	Quantity      *int             `json:"quantity"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
	PaymentMethod *string          `json:"payment_method" binding:"omitempty,payment_method"`
	Notes         *string          `json:"notes" binding:"omitempty,max=1000"`
}

// TransitionRequest represents a request to change an order's status
type TransitionRequest struct {
	Status string `json:"status" binding:"required,order_status"`
}

// SalesOrderListFilter represents filter options for the sales list.
// From and To are calendar dates (2006-01-02), both inclusive.
type SalesOrderListFilter struct {
	Status string `form:"status" binding:"omitempty,order_status"`
	From   string `form:"from"`
	To     string `form:"to"`
	Search string `form:"search" binding:"max=100"`
}

// ToDomain converts the filter into a domain filter with dates interpreted in loc
func (f SalesOrderListFilter) ToDomain(loc *time.Location) (trade.OrderFilter, error) {
	if loc == nil {
		loc = time.Local
	}
	filter := trade.OrderFilter{Search: strings.TrimSpace(f.Search)}

	if f.Status != "" {
		status, err := trade.ParseOrderStatus(f.Status)
		if err != nil {
			return trade.OrderFilter{}, err
		}
		filter.Status = &status
	}
	if f.From != "" {
		from, err := parseDate(f.From, loc)
		if err != nil {
			return trade.OrderFilter{}, err
		}
		filter.From = &from
	}
	if f.To != "" {
		to, err := parseDate(f.To, loc)
		if err != nil {
			return trade.OrderFilter{}, err
		}
		end := to.AddDate(0, 0, 1)
		filter.To = &end
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return trade.OrderFilter{}, shared.NewDomainError("VALIDATION_ERROR", "from must not be after to")
	}
	return filter, nil
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s))
	}
	return t, nil
}

// SalesOrderResponse represents a sales order in API responses
type SalesOrderResponse struct {
	ID                 int64            `json:"id"`
	CustomerID         int64            `json:"customer_id"`
	CustomerName       string           `json:"customer_name"`
	ProductID          int64            `json:"product_id"`
	ProductName        string           `json:"product_name"`
	Quantity           int              `json:"quantity"`
	UnitPrice          decimal.Decimal  `json:"unit_price"`
	UnitCost           *decimal.Decimal `json:"unit_cost,omitempty"`
	TotalAmount        decimal.Decimal  `json:"total_amount"`
	PaymentMethod      string           `json:"payment_method"`
	Status             string           `json:"status"`
	Notes              string           `json:"notes"`
	SaleDate           time.Time        `json:"sale_date"`
	DeliveryDate       *time.Time       `json:"delivery_date,omitempty"`
	Editable           bool             `json:"editable"`
	AllowedTransitions []string         `json:"allowed_transitions"`
}

// ToSalesOrderResponse converts a domain SalesOrder to a response DTO
func ToSalesOrderResponse(order *trade.SalesOrder) SalesOrderResponse {
	allowed := make([]string, 0, 2)
	for _, s := range trade.AllOrderStatuses {
		if order.Status.CanTransitionTo(s) {
			allowed = append(allowed, s.String())
		}
	}

	resp := SalesOrderResponse{
		ID:                 order.ID,
		CustomerID:         order.CustomerID,
		CustomerName:       order.CustomerName,
		ProductID:          order.ProductID,
		ProductName:        order.ProductName,
		Quantity:           order.Quantity,
		UnitPrice:          order.UnitPrice,
		TotalAmount:        order.TotalAmount(),
		PaymentMethod:      order.PaymentMethod.String(),
		Status:             order.Status.String(),
		Notes:              order.Notes,
		SaleDate:           order.SaleDate,
		DeliveryDate:       order.DeliveryDate,
		Editable:           order.Status == trade.OrderStatusPending,
		AllowedTransitions: allowed,
	}
	if order.UnitCost.Valid {
		cost := order.UnitCost.Decimal
		resp.UnitCost = &cost
	}
	return resp
}

// ToSalesOrderResponses converts a slice of orders
func ToSalesOrderResponses(orders []trade.SalesOrder) []SalesOrderResponse {
	out := make([]SalesOrderResponse, len(orders))
	for i := range orders {
		out[i] = ToSalesOrderResponse(&orders[i])
	}
	return out
}

// ==================== Product Picker DTOs ====================

// ProductResponse is a product offered when entering an order line
type ProductResponse struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Size           string          `json:"size"`
	Color          string          `json:"color"`
	SellingPrice   decimal.Decimal `json:"selling_price"`
	QuantityOnHand int             `json:"quantity_on_hand"`
}

// ToProductResponses converts catalog products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = ProductResponse{
			ID:             p.ID,
			Name:           p.Name,
			Category:       p.Category,
			Size:           p.Size,
			Color:          p.Color,
			SellingPrice:   p.SellingPrice,
			QuantityOnHand: p.QuantityOnHand,
		}
	}
	return out
}
