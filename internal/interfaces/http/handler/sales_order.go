package handler

import (
	"github.com/gin-gonic/gin"
	tradeapp "github.com/retaildesk/backend/internal/application/trade"
)

// SalesOrderHandler handles sales order API endpoints
type SalesOrderHandler struct {
	BaseHandler
	orderService *tradeapp.SalesOrderService
}

// NewSalesOrderHandler creates a new SalesOrderHandler
func NewSalesOrderHandler(orderService *tradeapp.SalesOrderService) *SalesOrderHandler {
	return &SalesOrderHandler{
		orderService: orderService,
	}
}

// List godoc
// @ID           listSalesOrders
// @Summary      List sales orders
// @Description  Newest first. from and to are inclusive dates (YYYY-MM-DD) in the store's time zone.
// @Tags         sales
// @Produce      json
// @Param        status query string false "Order status" Enums(pending, confirmed, delivered, cancelled)
// @Param        from   query string false "First sale date"
// @Param        to     query string false "Last sale date"
// @Param        search query string false "Customer or product name"
// @Success      200 {object} dto.Response{data=[]tradeapp.SalesOrderResponse}
// @Failure      400 {object} dto.Response
// @Router       /sales [get]
func (h *SalesOrderHandler) List(c *gin.Context) {
	var filter tradeapp.SalesOrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	orders, err := h.orderService.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, orders, len(orders))
}

// Get godoc
// @ID           getSalesOrder
// @Summary      Get a sales order
// @Tags         sales
// @Produce      json
// @Param        id path int true "Order ID"
// @Success      200 {object} dto.Response{data=tradeapp.SalesOrderResponse}
// @Failure      404 {object} dto.Response
// @Router       /sales/{id} [get]
func (h *SalesOrderHandler) Get(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Create godoc
// @ID           createSalesOrder
// @Summary      Create a sales order
// @Description  Creates a pending order and takes its quantity out of stock.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        request body tradeapp.CreateSalesOrderRequest true "Order"
// @Success      201 {object} dto.Response{data=tradeapp.SalesOrderResponse}
// @Failure      400 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /sales [post]
func (h *SalesOrderHandler) Create(c *gin.Context) {
	var req tradeapp.CreateSalesOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// Update godoc
// @ID           updateSalesOrder
// @Summary      Edit a pending sales order
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id      path int                              true "Order ID"
// @Param        request body tradeapp.UpdateSalesOrderRequest true "Changed fields"
// @Success      200 {object} dto.Response{data=tradeapp.SalesOrderResponse}
// @Failure      409 {object} dto.Response
// @Router       /sales/{id} [put]
func (h *SalesOrderHandler) Update(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	var req tradeapp.UpdateSalesOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	order, err := h.orderService.EditOrder(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Transition godoc
// @ID           transitionSalesOrder
// @Summary      Change a sales order's status
// @Description  pending → confirmed|cancelled, confirmed → delivered|cancelled. Cancelling restocks.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id      path int                        true "Order ID"
// @Param        request body tradeapp.TransitionRequest true "Target status"
// @Success      200 {object} dto.Response{data=tradeapp.SalesOrderResponse}
// @Failure      409 {object} dto.Response
// @Router       /sales/{id}/status [patch]
func (h *SalesOrderHandler) Transition(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	var req tradeapp.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	order, err := h.orderService.TransitionOrder(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Delete godoc
// @ID           deleteSalesOrder
// @Summary      Delete a sales order
// @Description  Stock is not returned; cancel the order first for that.
// @Tags         sales
// @Param        id path int true "Order ID"
// @Success      204
// @Failure      404 {object} dto.Response
// @Router       /sales/{id} [delete]
func (h *SalesOrderHandler) Delete(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	if err := h.orderService.DeleteOrder(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AvailableProducts godoc
// @ID           listAvailableProducts
// @Summary      Products that can be sold now
// @Description  In-stock products sorted by name, optionally filtered by name or code.
// @Tags         products
// @Produce      json
// @Param        search query string false "Name or code fragment"
// @Success      200 {object} dto.Response{data=[]tradeapp.ProductResponse}
// @Router       /products/available [get]
func (h *SalesOrderHandler) AvailableProducts(c *gin.Context) {
	products, err := h.orderService.AvailableProducts(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, products, len(products))
}
