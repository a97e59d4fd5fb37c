package handlers

import (
	"errors"
	"net/http"
	"sync"

	"dine-in-ordering/cart"
	"dine-in-ordering/config"
	"dine-in-ordering/metrics"
	"dine-in-ordering/middleware"
	"dine-in-ordering/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// cartLocks serialises cart changes per user; the DB row alone cannot stop
// two requests from reducing the same snapshot.
var cartLocks sync.Map

func lockCart(userID string) (unlock func()) {
	v, _ := cartLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func loadCart(db *gorm.DB, userID string) (cart.State, error) {
	var session models.CartSession
	res := db.Where("user_id = ?", userID).Limit(1).Find(&session)
	if res.Error != nil {
		return cart.State{}, res.Error
	}
	if res.RowsAffected == 0 {
		return cart.New(), nil
	}
	return session.State.Clone(), nil
}

func saveCart(db *gorm.DB, userID string, state cart.State) error {
	session := models.CartSession{UserID: userID, State: state}
	return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&session).Error
}

// dispatchCart runs actions through the reducer against the caller's stored
// cart and persists the result.
func dispatchCart(c *gin.Context, actions ...cart.Action) (cart.State, bool) {
	userID := middleware.GetUserID(c)
	unlock := lockCart(userID)
	defer unlock()

	state, err := loadCart(config.DB, userID)
	if err != nil {
		serverError(c, "Failed to load cart", err)
		return cart.State{}, false
	}
	for _, a := range actions {
		state = cart.Reduce(state, a)
	}
	if err := saveCart(config.DB, userID, state); err != nil {
		serverError(c, "Failed to save cart", err)
		return cart.State{}, false
	}
	return state, true
}

// CartResponse is the cart plus its derived figures.
type CartResponse struct {
	cart.State
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Total     decimal.Decimal `json:"total"`
}

func cartResponse(s cart.State) CartResponse {
	return CartResponse{State: s, ItemCount: s.ItemCount(), Subtotal: s.Subtotal(), Total: s.Total()}
}

// GetCart returns the caller's cart
func GetCart(c *gin.Context) {
	state, err := loadCart(config.DB, middleware.GetUserID(c))
	if err != nil {
		serverError(c, "Failed to load cart", err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(state))
}

// orderableItem resolves a table to its branch and restaurant and checks the
// menu item can be ordered there.
func orderableItem(c *gin.Context, tableID, menuItemID string) (*models.Table, *models.MenuItem, bool) {
	var table models.Table
	if err := config.DB.Preload("Branch.Tenant").First(&table, "id = ?", tableID).Error; err != nil ||
		table.Branch == nil || table.Branch.Tenant == nil {
		notFound(c, "Table not found")
		return nil, nil, false
	}
	if !table.IsActive {
		badRequest(c, "This table is not taking orders")
		return nil, nil, false
	}
	item, err := menuItemAt(config.DB, menuItemID, table.Branch)
	if err != nil {
		badRequest(c, err.Error())
		return nil, nil, false
	}
	return &table, item, true
}

var (
	errMenuItemMissing     = errors.New("menu item not found on this menu")
	errMenuItemUnavailable = errors.New("menu item is not available at this branch")
)

// menuItemAt loads a menu item and checks it is offered at branch.
func menuItemAt(db *gorm.DB, menuItemID string, branch *models.Branch) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := db.First(&item, "id = ? AND tenant_id = ?", menuItemID, branch.TenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errMenuItemMissing
		}
		return nil, err
	}
	// no availability row means available
	var avail models.MenuAvailability
	res := db.Where("branch_id = ? AND menu_item_id = ?", branch.ID, item.ID).Limit(1).Find(&avail)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected > 0 && !avail.IsAvailable {
		return nil, errMenuItemUnavailable
	}
	return &item, nil
}

func dishFrom(item *models.MenuItem, qty int) cart.Dish {
	return cart.Dish{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price,
		Quantity:    qty,
		Image:       item.Image,
	}
}

type AddCartItemRequest struct {
	TableID    string `json:"table_id" binding:"required"`
	MenuItemID string `json:"menu_item_id" binding:"required"`
	Quantity   int    `json:"quantity"`
}

// AddCartItem puts a menu item in the cart. Adding from another restaurant or
// branch leaves the cart untouched and answers 409 with the cart.
func AddCartItem(c *gin.Context) {
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	table, item, ok := orderableItem(c, req.TableID, req.MenuItemID)
	if !ok {
		return
	}
	tenant := table.Branch.Tenant

	state, ok := dispatchCart(c, cart.AddToCart{
		Item:             dishFrom(item, req.Quantity),
		RestaurantID:     tenant.ID,
		BranchID:         table.BranchID,
		TableID:          table.ID,
		PaymentPublicKey: tenant.PaymentPublicKey,
		Tax:              tenant.Tax,
		ServiceCharge:    tenant.ServiceCharge,
	})
	if !ok {
		return
	}
	if state.Error != "" {
		metrics.RecordCartConflict()
		c.JSON(http.StatusConflict, cartResponse(state))
		return
	}
	c.JSON(http.StatusOK, cartResponse(state))
}

// UpdateCartItem sets the quantity of a line; zero removes it
func UpdateCartItem(c *gin.Context) {
	var req struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	id := c.Param("id")
	state, ok := dispatchCart(c, cart.UpdateQuantity{ID: id, Quantity: *req.Quantity})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cartResponse(state))
}

// RemoveCartItem drops a line from the cart
func RemoveCartItem(c *gin.Context) {
	state, ok := dispatchCart(c, cart.RemoveFromCart{ID: c.Param("id")})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cartResponse(state))
}

type ReorderRequest struct {
	TableID string `json:"table_id" binding:"required"`
	Items   []struct {
		MenuItemID string `json:"menu_item_id" binding:"required"`
		Quantity   int    `json:"quantity" binding:"min=1"`
	} `json:"items" binding:"dive"`
}

// ReorderCart re-populates the cart with the given items at a table
func ReorderCart(c *gin.Context) {
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	var table models.Table
	if err := config.DB.Preload("Branch").First(&table, "id = ?", req.TableID).Error; err != nil || table.Branch == nil {
		notFound(c, "Table not found")
		return
	}
	dishes := make([]cart.Dish, 0, len(req.Items))
	for _, it := range req.Items {
		item, err := menuItemAt(config.DB, it.MenuItemID, table.Branch)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		dishes = append(dishes, dishFrom(item, it.Quantity))
	}

	state, ok := dispatchCart(c, cart.Reorder{
		Items:        dishes,
		RestaurantID: table.Branch.TenantID,
		BranchID:     table.BranchID,
		TableID:      table.ID,
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cartResponse(state))
}

// ReorderFromOrder re-populates the cart from one of the caller's past orders
func ReorderFromOrder(c *gin.Context) {
	var order models.Order
	if err := config.DB.Preload("Items").First(&order, "id = ?", c.Param("orderId")).Error; err != nil {
		notFound(c, "Order not found")
		return
	}
	if order.CustomerID != middleware.GetUserID(c) {
		forbidden(c, "This is not your order")
		return
	}
	state, ok := dispatchCart(c, cart.Reorder{
		Items:        order.CartDishes(),
		RestaurantID: order.TenantID,
		BranchID:     order.BranchID,
		TableID:      order.TableID,
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cartResponse(state))
}

// SetCartRemarks merges per-item notes for the kitchen
func SetCartRemarks(c *gin.Context) {
	var req struct {
		Remarks map[string]string `json:"remarks" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	state, ok := dispatchCart(c, cart.SetRemarks(req.Remarks))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cartResponse(state))
}

// ApplyCartCoupon validates a code against the cart's branch and stores the
// discount. An empty code removes the coupon.
func ApplyCartCoupon(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Code == "" {
		state, ok := dispatchCart(c, cart.SetCoupon(""), cart.SetDiscount(decimal.Zero))
		if ok {
			c.JSON(http.StatusOK, cartResponse(state))
		}
		return
	}

	current, err := loadCart(config.DB, middleware.GetUserID(c))
	if err != nil {
		serverError(c, "Failed to load cart", err)
		return
	}
	if current.IsEmpty() {
		badRequest(c, "Add items before applying a coupon")
		return
	}
	coupon, err := findCoupon(config.DB, req.Code, current.BranchID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		notFound(c, "Coupon not found")
		return
	case errors.Is(err, errCouponNotApplicable):
		badRequest(c, "Coupon is expired or not valid for this branch")
		return
	case err != nil:
		serverError(c, "Failed to load coupon", err)
		return
	}

	state, ok := dispatchCart(c,
		cart.SetCoupon(coupon.DiscountCode),
		cart.SetDiscount(coupon.DiscountFor(current.Subtotal())),
	)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cartResponse(state))
}

// SetCartCustomer records walk-in customer details for the receipt
func SetCartCustomer(c *gin.Context) {
	var req cart.SetCustomerInfo
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	state, ok := dispatchCart(c, req)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cartResponse(state))
}

// ClearCartError dismisses the last cart error
func ClearCartError(c *gin.Context) {
	state, ok := dispatchCart(c, cart.ClearCartError{})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cartResponse(state))
}

// ClearCart empties the caller's cart
func ClearCart(c *gin.Context) {
	state, ok := dispatchCart(c, cart.ClearCart{})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cartResponse(state))
}
