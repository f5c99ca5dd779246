package dataservice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/retaildesk/backend/internal/domain/catalog"
	"github.com/retaildesk/backend/internal/domain/partner"
	"github.com/retaildesk/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// Compile-time checks that Client implements the domain ports
var (
	_ catalog.Reader        = (*Client)(nil)
	_ partner.Reader        = (*Client)(nil)
	_ trade.OrderRepository = (*Client)(nil)
)

const (
	productsPath  = "/products/"
	customersPath = "/customers/"
	suppliersPath = "/suppliers/"
	salesPath     = "/sales/"
)

func salePath(id int64) string {
	return salesPath + strconv.FormatInt(id, 10) + "/"
}

func fetchList[W any](ctx context.Context, c *Client, path string, query map[string]string) ([]W, error) {
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, path, nil, &raw, query); err != nil {
		return nil, err
	}
	items, err := decodeList[W](raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return items, nil
}

// FetchCatalogSnapshot loads every product with its current stock
func (c *Client) FetchCatalogSnapshot(ctx context.Context) (catalog.Snapshot, error) {
	items, err := fetchList[productWire](ctx, c, productsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	products := make([]catalog.Product, 0, len(items))
	for _, w := range items {
		products = append(products, w.toDomain())
	}
	return catalog.NewSnapshot(products), nil
}

// FetchCustomers lists all customers
func (c *Client) FetchCustomers(ctx context.Context) ([]partner.Customer, error) {
	items, err := fetchList[customerWire](ctx, c, customersPath, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch customers: %w", err)
	}
	customers := make([]partner.Customer, 0, len(items))
	for _, w := range items {
		customers = append(customers, w.toDomain(c.loc))
	}
	return customers, nil
}

// FetchSuppliers lists all suppliers
func (c *Client) FetchSuppliers(ctx context.Context) ([]partner.Supplier, error) {
	items, err := fetchList[supplierWire](ctx, c, suppliersPath, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch suppliers: %w", err)
	}
	suppliers := make([]partner.Supplier, 0, len(items))
	for _, w := range items {
		suppliers = append(suppliers, w.toDomain())
	}
	return suppliers, nil
}

// FetchOrders lists sales. Status and search are forwarded to the service and
// the filter is applied again locally, since the service may ignore them.
// Sales that cannot be decoded are skipped and logged.
func (c *Client) FetchOrders(ctx context.Context, filter trade.OrderFilter) ([]trade.SalesOrder, error) {
	query := map[string]string{}
	if filter.Status != nil {
		query["status"] = filter.Status.String()
	}
	if filter.Search != "" {
		query["search"] = filter.Search
	}
	if filter.From != nil {
		query["sale_date_after"] = filter.From.Format(time.RFC3339)
	}
	if filter.To != nil {
		query["sale_date_before"] = filter.To.Format(time.RFC3339)
	}

	items, err := fetchList[saleWire](ctx, c, salesPath, query)
	if err != nil {
		return nil, fmt.Errorf("fetch sales: %w", err)
	}
	orders := make([]trade.SalesOrder, 0, len(items))
	for _, w := range items {
		o, err := w.toDomain(c.loc)
		if err != nil {
			c.logger.Warn("Skipping undecodable sale", zap.Int64("sale_id", w.ID), zap.Error(err))
			continue
		}
		orders = append(orders, o)
	}
	return filter.Apply(orders), nil
}

// GetOrder loads one sale
func (c *Client) GetOrder(ctx context.Context, id int64) (*trade.SalesOrder, error) {
	var w saleWire
	if err := c.call(ctx, http.MethodGet, salePath(id), nil, &w, nil); err != nil {
		return nil, fmt.Errorf("get sale %d: %w", id, err)
	}
	o, err := w.toDomain(c.loc)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// PersistOrder creates a sale. The service decrements product stock in the
// same write.
func (c *Client) PersistOrder(ctx context.Context, order *trade.SalesOrder) (*trade.SalesOrder, error) {
	var w saleWire
	if err := c.call(ctx, http.MethodPost, salesPath, saleToWire(order), &w, nil); err != nil {
		return nil, fmt.Errorf("create sale: %w", err)
	}
	return c.merge(order, w)
}

// PersistEdit replaces an editable sale. The request carries the previous
// product and quantity so the service moves stock in the same write.
func (c *Client) PersistEdit(ctx context.Context, cmd trade.EditCommand) (*trade.SalesOrder, error) {
	order := cmd.Order
	var w saleWire
	if err := c.call(ctx, http.MethodPut, salePath(order.ID), editToWire(cmd), &w, nil); err != nil {
		return nil, fmt.Errorf("update sale %d: %w", order.ID, err)
	}
	return c.merge(order, w)
}

// PersistTransition writes a status change, returning restock_quantity units
// to stock in the same request.
func (c *Client) PersistTransition(ctx context.Context, cmd trade.TransitionCommand) (*trade.SalesOrder, error) {
	var w saleWire
	if err := c.call(ctx, http.MethodPatch, salePath(cmd.OrderID), transitionToWire(cmd), &w, nil); err != nil {
		return nil, fmt.Errorf("transition sale %d: %w", cmd.OrderID, err)
	}
	if w.ID == 0 {
		return c.GetOrder(ctx, cmd.OrderID)
	}
	o, err := w.toDomain(c.loc)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// DeleteOrder removes a sale. Stock is left untouched.
func (c *Client) DeleteOrder(ctx context.Context, id int64) error {
	if err := c.call(ctx, http.MethodDelete, salePath(id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete sale %d: %w", id, err)
	}
	return nil
}

// merge prefers the service's echo of the written sale and falls back to the
// order that was sent when the body is empty.
func (c *Client) merge(sent *trade.SalesOrder, echo saleWire) (*trade.SalesOrder, error) {
	if echo.ID == 0 {
		return sent.Clone(), nil
	}
	o, err := echo.toDomain(c.loc)
	if err != nil {
		return nil, err
	}
	if !o.UnitCost.Valid {
		o.UnitCost = sent.UnitCost
	}
	if o.CustomerName == "" {
		o.CustomerName = sent.CustomerName
	}
	if o.ProductName == "" {
		o.ProductName = sent.ProductName
	}
	return &o, nil
}
