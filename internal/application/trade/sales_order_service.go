package trade

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/retaildesk/backend/internal/domain/catalog"
	"github.com/retaildesk/backend/internal/domain/partner"
	"github.com/retaildesk/backend/internal/domain/shared"
	"github.com/retaildesk/backend/internal/domain/trade"
	"github.com/retaildesk/backend/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderMetrics records business metrics for order operations
type OrderMetrics interface {
	RecordOrderCreated(ctx context.Context, paymentMethod string, amount decimal.Decimal)
	RecordTransition(ctx context.Context, from, to string)
	RecordRejected(ctx context.Context, reason string)
}

// DashboardInvalidator drops cached statistics after a write
type DashboardInvalidator interface {
	InvalidateDashboard(ctx context.Context) error
}

// SalesOrderService handles sales order business operations
type SalesOrderService struct {
	orders      trade.OrderRepository
	products    catalog.Reader
	partners    partner.Reader
	lifecycle   *trade.Lifecycle
	location    *time.Location
	metrics     OrderMetrics
	invalidator DashboardInvalidator
}

// NewSalesOrderService creates a new SalesOrderService.
// A nil lifecycle uses the wall clock.
func NewSalesOrderService(
	orders trade.OrderRepository,
	products catalog.Reader,
	partners partner.Reader,
	lifecycle *trade.Lifecycle,
) *SalesOrderService {
	if lifecycle == nil {
		lifecycle = trade.NewLifecycle(nil)
	}
	return &SalesOrderService{
		orders:    orders,
		products:  products,
		partners:  partners,
		lifecycle: lifecycle,
		location:  time.Local,
	}
}

// SetMetrics sets the business metrics recorder
func (s *SalesOrderService) SetMetrics(metrics OrderMetrics) {
	s.metrics = metrics
}

// SetDashboardInvalidator sets the hook called after every successful write
func (s *SalesOrderService) SetDashboardInvalidator(invalidator DashboardInvalidator) {
	s.invalidator = invalidator
}

// SetLocation sets the time zone used to interpret list date filters
func (s *SalesOrderService) SetLocation(loc *time.Location) {
	if loc != nil {
		s.location = loc
	}
}

// CreateOrder validates and persists a new pending order.
// Stock is decremented by the data service together with the insert.
func (s *SalesOrderService) CreateOrder(ctx context.Context, req CreateSalesOrderRequest) (*SalesOrderResponse, error) {
	method, err := trade.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, s.rejected(ctx, "create", 0, err)
	}

	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	input := trade.OrderInput{
		CustomerID:    req.CustomerID,
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
		PaymentMethod: method,
		Notes:         req.Notes,
	}
	if req.UnitPrice != nil {
		input.UnitPrice = decimal.NewNullDecimal(*req.UnitPrice)
	}

	order, err := s.lifecycle.Create(input, snap)
	if err != nil {
		return nil, s.rejected(ctx, "create", 0, err)
	}

	saved, err := s.orders.PersistOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCreated(ctx, saved.PaymentMethod.String(), saved.TotalAmount())
	}
	logger.L(ctx).Info("Sales order created",
		zap.Int64("order_id", saved.ID),
		zap.Int64("product_id", saved.ProductID),
		zap.Int("quantity", saved.Quantity),
		zap.String("total_amount", saved.TotalAmount().String()),
	)
	s.invalidate(ctx)

	response := ToSalesOrderResponse(saved)
	return &response, nil
}

// GetOrder retrieves a sales order by ID
func (s *SalesOrderService) GetOrder(ctx context.Context, id int64) (*SalesOrderResponse, error) {
	order, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToSalesOrderResponse(order)
	return &response, nil
}

// ListOrders returns the orders matching filter, newest first
func (s *SalesOrderService) ListOrders(ctx context.Context, filter SalesOrderListFilter) ([]SalesOrderResponse, error) {
	domainFilter, err := filter.ToDomain(s.location)
	if err != nil {
		return nil, err
	}

	orders, err := s.orders.FetchOrders(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].SaleDate.Equal(orders[j].SaleDate) {
			return orders[i].SaleDate.After(orders[j].SaleDate)
		}
		return orders[i].ID > orders[j].ID
	})
	return ToSalesOrderResponses(orders), nil
}

// TransitionOrder moves an order to a new status. Cancelling hands the
// order's quantity back to stock in the same write.
func (s *SalesOrderService) TransitionOrder(ctx context.Context, id int64, req TransitionRequest) (*SalesOrderResponse, error) {
	to, err := trade.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, s.rejected(ctx, "transition", id, err)
	}

	order, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := s.lifecycle.Transition(order, to)
	if err != nil {
		return nil, s.rejected(ctx, "transition", id, err)
	}

	saved, err := s.orders.PersistTransition(ctx, result.Command())
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordTransition(ctx, result.From.String(), to.String())
	}
	logger.L(ctx).Info("Sales order status changed",
		zap.Int64("order_id", id),
		zap.String("from", result.From.String()),
		zap.String("to", to.String()),
		zap.Int("restock_quantity", result.RestockQuantity),
	)
	s.invalidate(ctx)

	response := ToSalesOrderResponse(saved)
	return &response, nil
}

// EditOrder changes the fields of a pending order
func (s *SalesOrderService) EditOrder(ctx context.Context, id int64, req UpdateSalesOrderRequest) (*SalesOrderResponse, error) {
	patch := trade.OrderPatch{
		CustomerID: req.CustomerID,
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
		Notes:      req.Notes,
	}
	if req.UnitPrice != nil {
		patch.UnitPrice = decimal.NewNullDecimal(*req.UnitPrice)
	}
	if req.PaymentMethod != nil {
		method, err := trade.ParsePaymentMethod(*req.PaymentMethod)
		if err != nil {
			return nil, s.rejected(ctx, "edit", id, err)
		}
		patch.PaymentMethod = &method
	}

	order, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	edited, err := s.lifecycle.Edit(order, patch, snap)
	if err != nil {
		return nil, s.rejected(ctx, "edit", id, err)
	}

	saved, err := s.orders.PersistEdit(ctx, trade.NewEditCommand(order, edited))
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("Sales order edited",
		zap.Int64("order_id", id),
		zap.Int64("product_id", saved.ProductID),
		zap.Int("quantity", saved.Quantity),
	)
	s.invalidate(ctx)

	response := ToSalesOrderResponse(saved)
	return &response, nil
}

// DeleteOrder removes an order. Stock is not adjusted; cancel an order
// first to return its quantity.
func (s *SalesOrderService) DeleteOrder(ctx context.Context, id int64) error {
	if err := s.orders.DeleteOrder(ctx, id); err != nil {
		return err
	}
	logger.L(ctx).Info("Sales order deleted", zap.Int64("order_id", id))
	s.invalidate(ctx)
	return nil
}

// AvailableProducts lists products with stock on hand, optionally filtered
func (s *SalesOrderService) AvailableProducts(ctx context.Context, search string) ([]ProductResponse, error) {
	snap, err := s.products.FetchCatalogSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ToProductResponses(catalog.NewView(snap).Search(search)), nil
}

func (s *SalesOrderService) snapshot(ctx context.Context) (trade.Snapshot, error) {
	products, err := s.products.FetchCatalogSnapshot(ctx)
	if err != nil {
		return trade.Snapshot{}, err
	}
	customers, err := s.partners.FetchCustomers(ctx)
	if err != nil {
		return trade.Snapshot{}, err
	}
	return trade.Snapshot{
		Products:  products,
		Customers: partner.NewCustomerIndex(customers),
	}, nil
}

// rejected logs and counts a business rule violation, then returns err unchanged
func (s *SalesOrderService) rejected(ctx context.Context, op string, orderID int64, err error) error {
	var (
		validationErr *trade.ValidationError
		transitionErr *trade.TransitionError
		domainErr     *shared.DomainError
	)
	if !errors.As(err, &validationErr) && !errors.As(err, &transitionErr) && !errors.As(err, &domainErr) {
		return err
	}

	code := shared.CodeOf(err)
	if s.metrics != nil {
		s.metrics.RecordRejected(ctx, code)
	}
	fields := []zap.Field{zap.String("operation", op), zap.String("reason", code), zap.Error(err)}
	if orderID != 0 {
		fields = append(fields, zap.Int64("order_id", orderID))
	}
	logger.L(ctx).Warn("Sales order rejected", fields...)
	return err
}

func (s *SalesOrderService) invalidate(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.InvalidateDashboard(ctx); err != nil {
		logger.L(ctx).Warn("Failed to invalidate dashboard cache", zap.Error(err))
	}
}
