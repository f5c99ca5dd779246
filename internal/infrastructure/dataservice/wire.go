package dataservice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/retaildesk/backend/internal/domain/catalog"
	"github.com/retaildesk/backend/internal/domain/partner"
	"github.com/retaildesk/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// Payment methods as the data service spells them
const (
	wirePaymentCash   = "naqd"
	wirePaymentCard   = "plastik"
	wirePaymentCredit = "nasiya"
)

func encodePaymentMethod(m trade.PaymentMethod) string {
	switch m {
	case trade.PaymentMethodCash:
		return wirePaymentCash
	case trade.PaymentMethodCard:
		return wirePaymentCard
	case trade.PaymentMethodCredit:
		return wirePaymentCredit
	}
	return string(m)
}

// decodePaymentMethod accepts both spellings. Unknown values pass through so
// that SalesOrder.Validate reports them.
func decodePaymentMethod(s string) trade.PaymentMethod {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case wirePaymentCash, "cash":
		return trade.PaymentMethodCash
	case wirePaymentCard, "card":
		return trade.PaymentMethodCard
	case wirePaymentCredit, "credit":
		return trade.PaymentMethodCredit
	}
	return trade.PaymentMethod(s)
}

// decodeList accepts a paginated {"results": [...]} envelope or a bare array.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}
	if raw[0] == '[' {
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, err
	}
	if page.Results == nil {
		return []T{}, nil
	}
	return page.Results, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime reads the timestamp formats the data service emits. Values
// without an offset are read in loc.
func parseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for i, layout := range timeLayouts {
		var (
			t   time.Time
			err error
		)
		if i == 0 {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, loc)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

type productWire struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Size          string          `json:"size"`
	Color         string          `json:"color"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	Quantity      int             `json:"quantity"`
}

func (w productWire) toDomain() catalog.Product {
	return catalog.Product{
		ID:             w.ID,
		Name:           w.Name,
		Category:       w.Category,
		Size:           w.Size,
		Color:          w.Color,
		PurchasePrice:  w.PurchasePrice,
		SellingPrice:   w.SellingPrice,
		QuantityOnHand: w.Quantity,
	}
}

type customerWire struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	Notes     string `json:"notes"`
	CreatedAt string `json:"created_at"`
}

func (w customerWire) toDomain(loc *time.Location) partner.Customer {
	c := partner.Customer{
		ID:      w.ID,
		Name:    w.Name,
		Phone:   w.Phone,
		Email:   w.Email,
		Address: w.Address,
		Notes:   w.Notes,
	}
	if w.CreatedAt != "" {
		if t, err := parseTime(w.CreatedAt, loc); err == nil {
			c.CreatedAt = t
		}
	}
	return c
}

type supplierWire struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Company string `json:"company"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

func (w supplierWire) toDomain() partner.Supplier {
	return partner.Supplier{
		ID:      w.ID,
		Name:    w.Name,
		Company: w.Company,
		Phone:   w.Phone,
		Email:   w.Email,
		Address: w.Address,
	}
}

// saleWire is a sale as the data service reads and writes it
type saleWire struct {
	ID            int64               `json:"id,omitempty"`
	Customer      int64               `json:"customer"`
	CustomerName  string              `json:"customer_name,omitempty"`
	Product       int64               `json:"product"`
	ProductName   string              `json:"product_name,omitempty"`
	Quantity      int                 `json:"quantity"`
	UnitPrice     decimal.Decimal     `json:"unit_price"`
	UnitCost      decimal.NullDecimal `json:"unit_cost"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	PaymentMethod string              `json:"payment_method"`
	Status        string              `json:"status"`
	Notes         string              `json:"notes"`
	SaleDate      string              `json:"sale_date,omitempty"`
	DeliveryDate  *string             `json:"delivery_date"`
}

func saleToWire(o *trade.SalesOrder) saleWire {
	w := saleWire{
		ID:            o.ID,
		Customer:      o.CustomerID,
		Product:       o.ProductID,
		Quantity:      o.Quantity,
		UnitPrice:     o.UnitPrice,
		UnitCost:      o.UnitCost,
		TotalAmount:   o.TotalAmount(),
		PaymentMethod: encodePaymentMethod(o.PaymentMethod),
		Status:        o.Status.String(),
		Notes:         o.Notes,
	}
	if !o.SaleDate.IsZero() {
		w.SaleDate = o.SaleDate.Format(time.RFC3339)
	}
	if o.DeliveryDate != nil {
		d := o.DeliveryDate.Format(time.RFC3339)
		w.DeliveryDate = &d
	}
	return w
}

// toDomain converts a sale. The stored total is ignored because the core
// always derives it.
func (w saleWire) toDomain(loc *time.Location) (trade.SalesOrder, error) {
	o := trade.SalesOrder{
		ID:            w.ID,
		CustomerID:    w.Customer,
		CustomerName:  w.CustomerName,
		ProductID:     w.Product,
		ProductName:   w.ProductName,
		Quantity:      w.Quantity,
		UnitPrice:     w.UnitPrice,
		UnitCost:      w.UnitCost,
		PaymentMethod: decodePaymentMethod(w.PaymentMethod),
		Status:        trade.OrderStatus(strings.ToLower(w.Status)),
		Notes:         w.Notes,
	}
	if w.SaleDate != "" {
		t, err := parseTime(w.SaleDate, loc)
		if err != nil {
			return trade.SalesOrder{}, fmt.Errorf("sale %d: sale_date: %w", w.ID, err)
		}
		o.SaleDate = t
	}
	if w.DeliveryDate != nil && *w.DeliveryDate != "" {
		t, err := parseTime(*w.DeliveryDate, loc)
		if err != nil {
			return trade.SalesOrder{}, fmt.Errorf("sale %d: delivery_date: %w", w.ID, err)
		}
		o.DeliveryDate = &t
	}
	return o, nil
}

// transitionWire is the PATCH body of a status change
// editWire is a full sale replacement plus the line it replaces
type editWire struct {
	saleWire
	PreviousProduct  int64 `json:"previous_product"`
	PreviousQuantity int   `json:"previous_quantity"`
	StockDelta       int   `json:"stock_delta"`
}

func editToWire(cmd trade.EditCommand) editWire {
	return editWire{
		saleWire:         saleToWire(cmd.Order),
		PreviousProduct:  cmd.PreviousProductID,
		PreviousQuantity: cmd.PreviousQuantity,
		StockDelta:       cmd.StockDelta(),
	}
}

type transitionWire struct {
	Status          string  `json:"status"`
	FromStatus      string  `json:"from_status"`
	DeliveryDate    *string `json:"delivery_date,omitempty"`
	RestockQuantity int     `json:"restock_quantity"`
}

func transitionToWire(cmd trade.TransitionCommand) transitionWire {
	w := transitionWire{
		Status:          cmd.To.String(),
		FromStatus:      cmd.From.String(),
		RestockQuantity: cmd.RestockQuantity,
	}
	if cmd.DeliveryDate != nil {
		d := cmd.DeliveryDate.Format(time.RFC3339)
		w.DeliveryDate = &d
	}
	return w
}
