package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	tradeapp "github.com/retaildesk/backend/internal/application/trade"
	"github.com/retaildesk/backend/internal/domain/shared"
	"github.com/retaildesk/backend/internal/domain/trade"
	"github.com/retaildesk/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type salesOrderTestEnv struct {
	router   *gin.Engine
	orders   *MockOrderRepository
	products *MockCatalogReader
	partners *MockPartnerReader
}

func setupSalesOrderTestRouter() *salesOrderTestEnv {
	env := &salesOrderTestEnv{
		orders:   new(MockOrderRepository),
		products: new(MockCatalogReader),
		partners: new(MockPartnerReader),
	}

	service := tradeapp.NewSalesOrderService(env.orders, env.products, env.partners,
		trade.NewLifecycle(func() time.Time { return testNow }))
	service.SetLocation(time.UTC)
	handler := NewSalesOrderHandler(service)

	env.router = newTestRouter()
	api := env.router.Group("/api/v1")
	api.GET("/products/available", handler.AvailableProducts)
	api.GET("/sales", handler.List)
	api.GET("/sales/:id", handler.Get)
	api.POST("/sales", handler.Create)
	api.PUT("/sales/:id", handler.Update)
	api.PATCH("/sales/:id/status", handler.Transition)
	api.DELETE("/sales/:id", handler.Delete)
	return env
}

func (env *salesOrderTestEnv) withSnapshot() {
	env.products.On("FetchCatalogSnapshot", anyCtx).Return(testCatalog(), nil)
	env.partners.On("FetchCustomers", anyCtx).Return(testCustomers(), nil)
}

func TestSalesOrderHandler_Create(t *testing.T) {
	t.Run("creates pending order at selling price", func(t *testing.T) {
		env := setupSalesOrderTestRouter()
		env.withSnapshot()

		saved := testOrder(42, trade.OrderStatusPending)
		env.orders.On("PersistOrder", anyCtx, mock.MatchedBy(func(o *trade.SalesOrder) bool {
			return o.ProductID == 1 && o.Quantity == 2 &&
				o.UnitPrice.Equal(decimal.NewFromInt(15000)) &&
				o.CustomerName == "Aziza Karimova" &&
				o.SaleDate.Equal(testNow)
		})).Return(saved, nil)

		w, resp := doRequest(t, env.router, http.MethodPost, "/api/v1/sales", map[string]any{
			"customer_id":    7,
			"product_id":     1,
			"quantity":       2,
			"payment_method": "plastik",
		})

		assertStatus(t, http.StatusCreated, w)
		assert.True(t, resp.Success)
		order := decodeData[tradeapp.SalesOrderResponse](t, resp)
		assert.Equal(t, int64(42), order.ID)
		assert.Equal(t, "pending", order.Status)
		assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(30000)))
		assert.True(t, order.Editable)
		assert.Equal(t, []string{"confirmed", "cancelled"}, order.AllowedTransitions)
		env.orders.AssertExpectations(t)
	})

	t.Run("rejects quantity above stock", func(t *testing.T) {
		env := setupSalesOrderTestRouter()
		env.withSnapshot()

		w, resp := doRequest(t, env.router, http.MethodPost, "/api/v1/sales", map[string]any{
			"customer_id":    7,
			"product_id":     1,
			"quantity":       11,
			"payment_method": "cash",
		})

		assertStatus(t, http.StatusUnprocessableEntity, w)
		assert.Equal(t, dto.ErrCodeOutOfStock, resp.Error.Code)
		assert.Equal(t, "test-request", resp.Error.RequestID)
		env.orders.AssertNotCalled(t, "PersistOrder", mock.Anything, mock.Anything)
	})

	t.Run("rejects unknown customer", func(t *testing.T) {
		env := setupSalesOrderTestRouter()
		env.withSnapshot()

		w, resp := doRequest(t, env.router, http.MethodPost, "/api/v1/sales", map[string]any{
			"customer_id":    99,
			"product_id":     1,
			"quantity":       1,
			"payment_method": "cash",
		})

		assertStatus(t, http.StatusUnprocessableEntity, w)
		assert.Equal(t, dto.ErrCodeInvalidReference, resp.Error.Code)
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		env := setupSalesOrderTestRouter()
		env.withSnapshot()

		w, resp := doRequest(t, env.router, http.MethodPost, "/api/v1/sales", map[string]any{
			"customer_id":    7,
			"product_id":     1,
			"quantity":       0,
			"payment_method": "cash",
		})

		assertStatus(t, http.StatusBadRequest, w)
		assert.Equal(t, dto.ErrCodeInvalidAmount, resp.Error.Code)
	})

	t.Run("rejects unknown payment method before any fetch", func(t *testing.T) {
		env := setupSalesOrderTestRouter()

		w, resp := doRequest(t, env.router, http.MethodPost, "/api/v1/sales", map[string]any{
			"customer_id":    7,
			"product_id":     1,
			"quantity":       1,
			"payment_method": "cheque",
		})

		assertStatus(t, http.StatusBadRequest, w)
		assert.Equal(t, dto.ErrCodeInvalidPaymentMethod, resp.Error.Code)
		env.products.AssertNotCalled(t, "FetchCatalogSnapshot", mock.Anything)
	})

	t.Run("reports missing fields", func(t *testing.T) {
		env := setupSalesOrderTestRouter()

		w, resp := doRequest(t, env.router, http.MethodPost, "/api/v1/sales", `{"quantity": 1}`)

		assertStatus(t, http.StatusBadRequest, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Len(t, resp.Error.Details, 3)
	})

	t.Run("data service down", func(t *testing.T) {
		env := setupSalesOrderTestRouter()
		unavailable := shared.NewDomainError("SERVICE_UNAVAILABLE", "data service unavailable")
		env.products.On("FetchCatalogSnapshot", anyCtx).
			Return(nil, fmt.Errorf("%w: GET http://10.0.0.5/products: dial tcp", unavailable))

		w, resp := doRequest(t, env.router, http.MethodPost, "/api/v1/sales", map[string]any{
			"customer_id":    7,
			"product_id":     1,
			"quantity":       1,
			"payment_method": "cash",
		})

		assertStatus(t, http.StatusServiceUnavailable, w)
		assert.Equal(t, dto.ErrCodeServiceUnavailable, resp.Error.Code)
		assert.NotContains(t, resp.Error.Message, "10.0.0.5")
	})
}

func TestSalesOrderHandler_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		env := setupSalesOrderTestRouter()
		env.orders.On("GetOrder", anyCtx, int64(5)).Return(testOrder(5, trade.OrderStatusConfirmed), nil)

		w, resp := doRequest(t, env.router, http.MethodGet, "/api/v1/sales/5", nil)

		assertStatus(t, http.StatusOK, w)
		order := decodeData[tradeapp.SalesOrderResponse](t, resp)
		assert.Equal(t, "confirmed", order.Status)
		assert.False(t, order.Editable)
		assert.Equal(t, []string{"delivered", "cancelled"}, order.AllowedTransitions)
		require.NotNil(t, order.UnitCost)
		assert.True(t, order.UnitCost.Equal(decimal.NewFromInt(11000)))
	})

	t.Run("not found", func(t *testing.T) {
		env := setupSalesOrderTestRouter()
		env.orders.On("GetOrder", anyCtx, int64(9)).
			Return(nil, fmt.Errorf("GET /sales/9: %w", shared.ErrNotFound))

		w, resp := doRequest(t, env.router, http.MethodGet, "/api/v1/sales/9", nil)

		assertStatus(t, http.StatusNotFound, w)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		env := setupSalesOrderTestRouter()

		w, resp := doRequest(t, env.router, http.MethodGet, "/api/v1/sales/abc", nil)

		assertStatus(t, http.StatusBadRequest, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	})

	t.Run("unexpected error is masked", func(t *testing.T) {
		env := setupSalesOrderTestRouter()
		env.orders.On("GetOrder", anyCtx, int64(3)).Return(nil, errors.New("decode: unexpected token"))

		w, resp := doRequest(t, env.router, http.MethodGet, "/api/v1/sales/3", nil)

		assertStatus(t, http.StatusInternalServerError, w)
		assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
		assert.Equal(t, "An unexpected error occurred", resp.Error.Message)
	})
}

func TestSalesOrderHandler_List(t *testing.T) {
	t.Run("filters and sorts newest first", func(t *testing.T) {
		env := setupSalesOrderTestRouter()
		older := *testOrder(1, trade.OrderStatusPending)
		older.SaleDate = testNow.Add(-48 * time.Hour)
		newer := *testOrder(2, trade.OrderStatusPending)
		env.orders.On("FetchOrders", anyCtx, mock.MatchedBy(func(f trade.OrderFilter) bool {
			return f.Status != nil && *f.Status == trade.OrderStatusPending &&
				f.From != nil && f.From.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) &&
				f.To != nil && f.To.Equal(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
		})).Return([]trade.SalesOrder{older, newer}, nil)

		w, resp := doRequest(t, env.router, http.MethodGet,
			"/api/v1/sales?status=pending&from=2026-03-01&to=2026-03-14", nil)

		assertStatus(t, http.StatusOK, w)
		orders := decodeData[[]tradeapp.SalesOrderResponse](t, resp)
		require.Len(t, orders, 2)
		assert.Equal(t, int64(2), orders[0].ID)
		assert.Equal(t, int64(1), orders[1].ID)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, 2, resp.Meta.Total)
	})

	t.Run("unknown status", func(t *testing.T) {
		env := setupSalesOrderTestRouter()

		w, resp := doRequest(t, env.router, http.MethodGet, "/api/v1/sales?status=shipped", nil)

		assertStatus(t, http.StatusBadRequest, w)
		assert.Equal(t, dto.ErrCodeInvalidStatus, resp.Error.Code)
	})

	t.Run("inverted date range", func(t *testing.T) {
		env := setupSalesOrderTestRouter()

		w, resp := doRequest(t, env.router, http.MethodGet, "/api/v1/sales?from=2026-03-10&to=2026-03-01", nil)

		assertStatus(t, http.StatusBadRequest, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	})
}

func TestSalesOrderHandler_Transition(t *testing.T) {
	t.Run("cancel restocks", func(t *testing.T) {
		env := setupSalesOrderTestRouter()
		env.orders.On("GetOrder", anyCtx, int64(5)).Return(testOrder(5, trade.OrderStatusConfirmed), nil)
		env.orders.On("PersistTransition", anyCtx, mock.MatchedBy(func(cmd trade.TransitionCommand) bool {
			return cmd.OrderID == 5 && cmd.To == trade.OrderStatusCancelled &&
				cmd.ProductID == 1 && cmd.RestockQuantity == 2
		})).Return(testOrder(5, trade.OrderStatusCancelled), nil)

		w, resp := doRequest(t, env.router, http.MethodPatch, "/api/v1/sales/5/status",
			map[string]string{"status": "cancelled"})

		assertStatus(t, http.StatusOK, w)
		order := decodeData[tradeapp.SalesOrderResponse](t, resp)
		assert.Equal(t, "cancelled", order.Status)
		assert.Empty(t, order.AllowedTransitions)
		env.orders.AssertExpectations(t)
	})

	t.Run("illegal transition", func(t *testing.T) {
		env := setupSalesOrderTestRouter()
		env.orders.On("GetOrder", anyCtx, int64(5)).Return(testOrder(5, trade.OrderStatusDelivered), nil)

		w, resp := doRequest(t, env.router, http.MethodPatch, "/api/v1/sales/5/status",
			map[string]string{"status": "pending"})

		assertStatus(t, http.StatusConflict, w)
		assert.Equal(t, dto.ErrCodeIllegalTransition, resp.Error.Code)
		env.orders.AssertNotCalled(t, "PersistTransition", mock.Anything, mock.Anything)
	})

	t.Run("unknown status", func(t *testing.T) {
		env := setupSalesOrderTestRouter()

		w, resp := doRequest(t, env.router, http.MethodPatch, "/api/v1/sales/5/status",
			map[string]string{"status": "returned"})

		assertStatus(t, http.StatusBadRequest, w)
		assert.Equal(t, dto.ErrCodeInvalidStatus, resp.Error.Code)
	})
}

func TestSalesOrderHandler_Update(t *testing.T) {
	t.Run("edits pending order", func(t *testing.T) {
		env := setupSalesOrderTestRouter()
		env.withSnapshot()
		env.orders.On("GetOrder", anyCtx, int64(5)).Return(testOrder(5, trade.OrderStatusPending), nil)

		edited := testOrder(5, trade.OrderStatusPending)
		edited.Quantity = 12
		env.orders.On("PersistEdit", anyCtx, mock.MatchedBy(func(cmd trade.EditCommand) bool {
			return cmd.Order.ID == 5 && cmd.Order.Quantity == 12 && cmd.PreviousQuantity == 2
		})).Return(edited, nil)

		// 12 fits because the order already holds 2 of the 10 on hand
		w, resp := doRequest(t, env.router, http.MethodPut, "/api/v1/sales/5", map[string]any{"quantity": 12})

		assertStatus(t, http.StatusOK, w)
		order := decodeData[tradeapp.SalesOrderResponse](t, resp)
		assert.Equal(t, 12, order.Quantity)
	})

	t.Run("confirmed order is immutable", func(t *testing.T) {
		env := setupSalesOrderTestRouter()
		env.withSnapshot()
		env.orders.On("GetOrder", anyCtx, int64(5)).Return(testOrder(5, trade.OrderStatusConfirmed), nil)

		w, resp := doRequest(t, env.router, http.MethodPut, "/api/v1/sales/5", map[string]any{"notes": "gift wrap"})

		assertStatus(t, http.StatusConflict, w)
		assert.Equal(t, dto.ErrCodeImmutable, resp.Error.Code)
	})
}

func TestSalesOrderHandler_Delete(t *testing.T) {
	env := setupSalesOrderTestRouter()
	env.orders.On("DeleteOrder", anyCtx, int64(5)).Return(nil)

	w, _ := doRequest(t, env.router, http.MethodDelete, "/api/v1/sales/5", nil)

	assertStatus(t, http.StatusNoContent, w)
	env.orders.AssertExpectations(t)
}

func TestSalesOrderHandler_AvailableProducts(t *testing.T) {
	env := setupSalesOrderTestRouter()
	env.products.On("FetchCatalogSnapshot", anyCtx).Return(testCatalog(), nil)

	w, resp := doRequest(t, env.router, http.MethodGet, "/api/v1/products/available?search=den", nil)

	assertStatus(t, http.StatusOK, w)
	products := decodeData[[]tradeapp.ProductResponse](t, resp)
	require.Len(t, products, 1)
	assert.Equal(t, "Denim Jacket", products[0].Name)
	assert.Equal(t, 10, products[0].QuantityOnHand)
}
