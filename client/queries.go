package client

import (
	"context"

	"dine-in-ordering/models"
	"dine-in-ordering/query"
)

// Resources hands out cached queries over the API. Every mutation made
// through it invalidates the shared clock, so the next Get of any query
// refetches.
type Resources struct {
	c     *Client
	Clock *query.Clock
}

func (c *Client) Resources() *Resources {
	return &Resources{c: c, Clock: query.NewClock()}
}

func (r *Resources) Tables(branchID string) *query.Query[[]models.Table] {
	return query.New("tables:"+branchID, r.Clock, func(ctx context.Context) ([]models.Table, error) {
		return r.c.FetchTables(ctx, branchID)
	})
}

func (r *Resources) QRCodes(branchID string) *query.Query[[]models.QRCode] {
	return query.New("qr-codes:"+branchID, r.Clock, func(ctx context.Context) ([]models.QRCode, error) {
		return r.c.FetchQRCodes(ctx, branchID)
	})
}

func (r *Resources) Menus(f MenuFilter) *query.Query[[]models.MenuItem] {
	return query.New("menus:"+f.TenantID+":"+f.BranchID, r.Clock, func(ctx context.Context) ([]models.MenuItem, error) {
		return r.c.FetchMenus(ctx, f)
	})
}

func (r *Resources) Orders(f OrderFilter) *query.Query[models.Page[models.Order]] {
	return query.New("orders:"+string(f.Status), r.Clock, func(ctx context.Context) (models.Page[models.Order], error) {
		return r.c.FetchOrders(ctx, f)
	})
}

func (r *Resources) Cart() *query.Query[CartView] {
	return query.New("cart", r.Clock, r.c.GetCart)
}

func (r *Resources) CreateTable() *query.Mutation[TableInput, models.Table] {
	return query.NewMutation(r.Clock, r.c.CreateTable)
}

func (r *Resources) DeleteTable() *query.Mutation[string, struct{}] {
	return query.NewMutation(r.Clock, func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, r.c.DeleteTable(ctx, id)
	})
}

// OrderTransition is the input of UpdateOrder.
type OrderTransition struct {
	ID     string
	Status models.OrderStatus
	Note   string
}

func (r *Resources) UpdateOrder() *query.Mutation[OrderTransition, struct{}] {
	return query.NewMutation(r.Clock, func(ctx context.Context, in OrderTransition) (struct{}, error) {
		return struct{}{}, r.c.UpdateOrder(ctx, in.ID, in.Status, in.Note)
	})
}

func (r *Resources) CreateOrder() *query.Mutation[CheckoutInput, models.Order] {
	return query.NewMutation(r.Clock, r.c.CreateOrder)
}
