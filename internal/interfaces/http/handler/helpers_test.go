package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/retaildesk/backend/internal/domain/catalog"
	"github.com/retaildesk/backend/internal/domain/partner"
	"github.com/retaildesk/backend/internal/domain/trade"
	"github.com/retaildesk/backend/internal/interfaces/http/dto"
	"github.com/retaildesk/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

var testNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

// MockOrderRepository implements trade.OrderRepository for testing
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FetchOrders(ctx context.Context, filter trade.OrderFilter) ([]trade.SalesOrder, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.SalesOrder), args.Error(1)
}

func (m *MockOrderRepository) GetOrder(ctx context.Context, id int64) (*trade.SalesOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SalesOrder), args.Error(1)
}

func (m *MockOrderRepository) PersistOrder(ctx context.Context, order *trade.SalesOrder) (*trade.SalesOrder, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SalesOrder), args.Error(1)
}

func (m *MockOrderRepository) PersistEdit(ctx context.Context, cmd trade.EditCommand) (*trade.SalesOrder, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SalesOrder), args.Error(1)
}

func (m *MockOrderRepository) PersistTransition(ctx context.Context, cmd trade.TransitionCommand) (*trade.SalesOrder, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SalesOrder), args.Error(1)
}

func (m *MockOrderRepository) DeleteOrder(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCatalogReader implements catalog.Reader for testing
type MockCatalogReader struct {
	mock.Mock
}

func (m *MockCatalogReader) FetchCatalogSnapshot(ctx context.Context) (catalog.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(catalog.Snapshot), args.Error(1)
}

// MockPartnerReader implements partner.Reader for testing
type MockPartnerReader struct {
	mock.Mock
}

func (m *MockPartnerReader) FetchCustomers(ctx context.Context) ([]partner.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Customer), args.Error(1)
}

func (m *MockPartnerReader) FetchSuppliers(ctx context.Context) ([]partner.Supplier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Supplier), args.Error(1)
}

func testCatalog() catalog.Snapshot {
	return catalog.NewSnapshot([]catalog.Product{
		{
			ID:             1,
			Name:           "Denim Jacket",
			Category:       "Outerwear",
			Size:           "M",
			Color:          "Blue",
			PurchasePrice:  decimal.NewFromInt(11000),
			SellingPrice:   decimal.NewFromInt(15000),
			QuantityOnHand: 10,
		},
		{
			ID:             2,
			Name:           "Wool Scarf",
			PurchasePrice:  decimal.NewFromInt(4000),
			SellingPrice:   decimal.NewFromInt(6000),
			QuantityOnHand: 0,
		},
	})
}

func testCustomers() []partner.Customer {
	return []partner.Customer{{ID: 7, Name: "Aziza Karimova"}}
}

func testOrder(id int64, status trade.OrderStatus) *trade.SalesOrder {
	return &trade.SalesOrder{
		ID:            id,
		CustomerID:    7,
		CustomerName:  "Aziza Karimova",
		ProductID:     1,
		ProductName:   "Denim Jacket",
		Quantity:      2,
		UnitPrice:     decimal.NewFromInt(15000),
		UnitCost:      decimal.NewNullDecimal(decimal.NewFromInt(11000)),
		PaymentMethod: trade.PaymentMethodCard,
		Status:        status,
		SaleDate:      testNow,
	}
}

// apiResponse mirrors dto.Response with a raw payload
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.RequestIDHeader, "test-request")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func decodeData[T any](t *testing.T, resp apiResponse) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	return out
}

func newTestRouter() *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	return router
}

var anyCtx = mock.Anything

func assertStatus(t *testing.T, expected int, w *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, expected, w.Code, "body: %s", w.Body.String())
}
