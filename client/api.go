package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"dine-in-ordering/cart"
	"dine-in-ordering/models"

	"github.com/shopspring/decimal"
)

// ── Auth ─────────────────────────────────────────────────────────────────────

// Session is the token answer of login and register.
type Session struct {
	Access   string          `json:"access"`
	Refresh  string          `json:"refresh"`
	UserID   string          `json:"user_id"`
	UserType models.UserType `json:"user_type"`
}

func (c *Client) storeSession(s Session) error {
	for k, v := range map[string]string{
		KeyAccessToken:  s.Access,
		KeyRefreshToken: s.Refresh,
		KeyUserID:       s.UserID,
		KeyUserType:     string(s.UserType),
	} {
		if err := c.tokens.Set(k, v); err != nil {
			return fmt.Errorf("store session: %w", err)
		}
	}
	return nil
}

// Login authenticates and stores the session tokens.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var s Session
	err := c.do(ctx, request{
		method: http.MethodPost, path: "/login/", auth: true,
		body: map[string]string{"email": email, "password": password},
	}, &s)
	if err != nil {
		return Session{}, fmt.Errorf("login: %w", err)
	}
	return s, c.storeSession(s)
}

// RegisterInput is a new customer account.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

// Register creates a customer account and stores its session.
func (c *Client) Register(ctx context.Context, in RegisterInput) (Session, error) {
	var s Session
	if err := c.do(ctx, request{method: http.MethodPost, path: "/register/", auth: true, body: in}, &s); err != nil {
		return Session{}, fmt.Errorf("register: %w", err)
	}
	return s, c.storeSession(s)
}

// Logout forgets the session and runs the logout hook.
func (c *Client) Logout() {
	c.endSession()
}

// Profile returns the signed-in user.
func (c *Client) Profile(ctx context.Context) (models.User, error) {
	var u models.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/profile/", auth: true}, &u); err != nil {
		return models.User{}, fmt.Errorf("fetch profile: %w", err)
	}
	return u, nil
}

// Locale returns the stored language preference.
func (c *Client) Locale() (string, error) { return c.tokens.Get(KeyLocale) }

// SetLocale stores the language preference.
func (c *Client) SetLocale(locale string) error { return c.tokens.Set(KeyLocale, locale) }

// list fetches a whole collection with ?nopage=1.
func list[T any](ctx context.Context, c *Client, what, path string, query map[string]string) ([]T, error) {
	q := map[string]string{"nopage": "1"}
	for k, v := range query {
		q[k] = v
	}
	var out []T
	if err := c.do(ctx, request{method: http.MethodGet, path: path, query: q}, &out); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", what, err)
	}
	return out, nil
}

func call[T any](ctx context.Context, c *Client, what string, r request) (T, error) {
	var out T
	if err := c.do(ctx, r, &out); err != nil {
		return out, fmt.Errorf("%s: %w", what, err)
	}
	return out, nil
}

// ── Tables & QR codes ────────────────────────────────────────────────────────

func (c *Client) FetchTables(ctx context.Context, branchID string) ([]models.Table, error) {
	return list[models.Table](ctx, c, "tables", "/table/", map[string]string{"branch": branchID})
}

func (c *Client) FetchTable(ctx context.Context, id string) (models.Table, error) {
	return call[models.Table](ctx, c, "fetch table", request{method: http.MethodGet, path: "/table/" + id + "/"})
}

// TableInput creates a table.
type TableInput struct {
	BranchID        string `json:"branch_id"`
	IsFastTable     bool   `json:"is_fast_table"`
	IsDeliveryTable bool   `json:"is_delivery_table"`
	IsInsideTable   bool   `json:"is_inside_table"`
}

func (c *Client) CreateTable(ctx context.Context, in TableInput) (models.Table, error) {
	return call[models.Table](ctx, c, "create table", request{method: http.MethodPost, path: "/table/", body: in})
}

// TablePatch changes the flags that are set.
type TablePatch struct {
	IsFastTable     *bool `json:"is_fast_table,omitempty"`
	IsDeliveryTable *bool `json:"is_delivery_table,omitempty"`
	IsInsideTable   *bool `json:"is_inside_table,omitempty"`
	IsActive        *bool `json:"is_active,omitempty"`
}

func (c *Client) UpdateTable(ctx context.Context, id string, patch TablePatch) (models.Table, error) {
	return call[models.Table](ctx, c, "update table", request{method: http.MethodPatch, path: "/table/" + id + "/", body: patch})
}

func (c *Client) DeleteTable(ctx context.Context, id string) error {
	if err := c.do(ctx, request{method: http.MethodDelete, path: "/table/" + id + "/"}, nil); err != nil {
		return fmt.Errorf("delete table: %w", err)
	}
	return nil
}

func (c *Client) FetchQRCodes(ctx context.Context, branchID string) ([]models.QRCode, error) {
	return list[models.QRCode](ctx, c, "qr codes", "/qr-code/", map[string]string{"branch": branchID})
}

func (c *Client) CreateQRCode(ctx context.Context, tableID, link string) (models.QRCode, error) {
	return call[models.QRCode](ctx, c, "create qr code", request{
		method: http.MethodPost, path: "/qr-code/",
		body: map[string]string{"table_id": tableID, "link": link},
	})
}

// QRCodePatch changes the fields that are set.
type QRCodePatch struct {
	Link     *string `json:"link,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (c *Client) UpdateQRCode(ctx context.Context, id string, patch QRCodePatch) (models.QRCode, error) {
	return call[models.QRCode](ctx, c, "update qr code", request{method: http.MethodPatch, path: "/qr-code/" + id + "/", body: patch})
}

// ── Catalogue ────────────────────────────────────────────────────────────────

// MenuFilter narrows FetchMenus. Empty fields are ignored.
type MenuFilter struct {
	TenantID string
	Category string
	BranchID string
	Search   string
}

func (c *Client) FetchMenus(ctx context.Context, f MenuFilter) ([]models.MenuItem, error) {
	return list[models.MenuItem](ctx, c, "menus", "/menu/", map[string]string{
		"tenant": f.TenantID, "category": f.Category, "branch": f.BranchID, "search": f.Search,
	})
}

func (c *Client) FetchMenu(ctx context.Context, id string) (models.MenuItem, error) {
	return call[models.MenuItem](ctx, c, "fetch menu", request{method: http.MethodGet, path: "/menu/" + id + "/"})
}

func (c *Client) FetchMenuAvailability(ctx context.Context, branchID string) ([]models.MenuAvailability, error) {
	return list[models.MenuAvailability](ctx, c, "menu availability", "/menu-availability/", map[string]string{"branch": branchID})
}

func (c *Client) FetchRelatedMenus(ctx context.Context, menuItemID string) ([]models.RelatedMenuItem, error) {
	return list[models.RelatedMenuItem](ctx, c, "related menus", "/related-menu/", map[string]string{"menu_item": menuItemID})
}

func (c *Client) FetchBranches(ctx context.Context, tenantID string) ([]models.Branch, error) {
	return list[models.Branch](ctx, c, "branches", "/branch/", map[string]string{"tenant": tenantID})
}

func (c *Client) FetchCombos(ctx context.Context, branchID string) ([]models.Combo, error) {
	return list[models.Combo](ctx, c, "combos", "/combo/", map[string]string{"branch": branchID})
}

func (c *Client) FetchPosts(ctx context.Context, tenantID string) ([]models.Post, error) {
	return list[models.Post](ctx, c, "posts", "/posts/", map[string]string{"tenant": tenantID})
}

// CouponCheck is the discount a coupon would give.
type CouponCheck struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

func (c *Client) ValidateCoupon(ctx context.Context, code, branchID string, subtotal decimal.Decimal) (CouponCheck, error) {
	return call[CouponCheck](ctx, c, "validate coupon", request{
		method: http.MethodPost, path: "/coupon/validate/",
		body: map[string]any{"code": code, "branch_id": branchID, "subtotal": subtotal},
	})
}

// ── Orders ───────────────────────────────────────────────────────────────────

// OrderFilter selects a page of orders. Page 0 means the first page.
type OrderFilter struct {
	Status   models.OrderStatus
	BranchID string
	TableID  string
	Page     int
}

func (c *Client) FetchOrders(ctx context.Context, f OrderFilter) (models.Page[models.Order], error) {
	q := map[string]string{"status": string(f.Status), "branch": f.BranchID, "table": f.TableID}
	if f.Page > 0 {
		q["page"] = strconv.Itoa(f.Page)
	}
	return call[models.Page[models.Order]](ctx, c, "fetch orders", request{method: http.MethodGet, path: "/order/", query: q})
}

// CheckoutInput options for CreateOrder.
type CheckoutInput struct {
	PayNow        bool   `json:"pay_now"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// CreateOrder checks out the signed-in customer's cart.
func (c *Client) CreateOrder(ctx context.Context, in CheckoutInput) (models.Order, error) {
	return call[models.Order](ctx, c, "create order", request{method: http.MethodPost, path: "/order/", body: in})
}

// UpdateOrder moves an order to status.
func (c *Client) UpdateOrder(ctx context.Context, id string, status models.OrderStatus, note string) error {
	err := c.do(ctx, request{
		method: http.MethodPatch, path: "/order/" + id + "/",
		body: map[string]string{"status": string(status), "note": note},
	}, nil)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	return nil
}

func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	if err := c.do(ctx, request{method: http.MethodDelete, path: "/order/" + id + "/"}, nil); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// ── Cart ─────────────────────────────────────────────────────────────────────

// CartView is the server-held cart with its derived figures.
type CartView struct {
	cart.State
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Total     decimal.Decimal `json:"total"`
}

func (c *Client) cartCall(ctx context.Context, what string, r request) (CartView, error) {
	v, err := call[CartView](ctx, c, what, r)
	if err == nil {
		c.mirrorCart(v)
	}
	return v, err
}

func (c *Client) mirrorCart(v CartView) {
	if c.cart != nil {
		c.cart.Dispatch(cart.Hydrate(v.State))
	}
}

func (c *Client) GetCart(ctx context.Context) (CartView, error) {
	return c.cartCall(ctx, "fetch cart", request{method: http.MethodGet, path: "/cart/"})
}

// CartAdd puts a menu item in the cart. When the cart belongs to another
// restaurant or branch the unchanged cart is returned with ErrCartConflict.
func (c *Client) CartAdd(ctx context.Context, tableID, menuItemID string, quantity int) (CartView, error) {
	v, err := c.cartCall(ctx, "add to cart", request{
		method: http.MethodPost, path: "/cart/items/",
		body: map[string]any{"table_id": tableID, "menu_item_id": menuItemID, "quantity": quantity},
	})
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
		var conflicted CartView
		if json.Unmarshal(apiErr.Body, &conflicted) == nil {
			c.mirrorCart(conflicted)
			return conflicted, ErrCartConflict
		}
	}
	return v, err
}

func (c *Client) CartUpdateQuantity(ctx context.Context, menuItemID string, quantity int) (CartView, error) {
	return c.cartCall(ctx, "update cart quantity", request{
		method: http.MethodPatch, path: "/cart/items/" + menuItemID + "/",
		body: map[string]int{"quantity": quantity},
	})
}

func (c *Client) CartRemove(ctx context.Context, menuItemID string) (CartView, error) {
	return c.cartCall(ctx, "remove from cart", request{method: http.MethodDelete, path: "/cart/items/" + menuItemID + "/"})
}

// CartReorder refills the cart from a past order.
func (c *Client) CartReorder(ctx context.Context, orderID string) (CartView, error) {
	return c.cartCall(ctx, "reorder", request{method: http.MethodPost, path: "/cart/reorder/" + orderID + "/"})
}

func (c *Client) CartSetRemarks(ctx context.Context, remarks map[string]string) (CartView, error) {
	return c.cartCall(ctx, "set remarks", request{
		method: http.MethodPost, path: "/cart/remarks/",
		body: map[string]any{"remarks": remarks},
	})
}

// CartApplyCoupon applies code; an empty code removes the coupon.
func (c *Client) CartApplyCoupon(ctx context.Context, code string) (CartView, error) {
	return c.cartCall(ctx, "apply coupon", request{
		method: http.MethodPost, path: "/cart/coupon/",
		body: map[string]string{"code": code},
	})
}

func (c *Client) CartSetCustomer(ctx context.Context, info cart.SetCustomerInfo) (CartView, error) {
	return c.cartCall(ctx, "set customer", request{method: http.MethodPost, path: "/cart/customer/", body: info})
}

func (c *Client) CartClearError(ctx context.Context) (CartView, error) {
	return c.cartCall(ctx, "clear cart error", request{method: http.MethodDelete, path: "/cart/error/"})
}

func (c *Client) CartClear(ctx context.Context) (CartView, error) {
	return c.cartCall(ctx, "clear cart", request{method: http.MethodDelete, path: "/cart/"})
}
