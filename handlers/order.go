package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"dine-in-ordering/cart"
	"dine-in-ordering/config"
	"dine-in-ordering/metrics"
	"dine-in-ordering/middleware"
	"dine-in-ordering/models"
	"dine-in-ordering/statemachine"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrEmptyCart = errors.New("your cart is empty")

	hundred = decimal.NewFromInt(100)
)

// codeSegment upper-cases s, strips spaces and cuts or pads it to five
// characters.
func codeSegment(s string) string { return fitCode(s, 5) }

// orderCode builds the human readable order id, e.g. BOLEE-MAINS-0001. The
// sequence counts the orders of the branch.
func orderCode(tx *gorm.DB, tenant *models.Tenant, branch *models.Branch) (string, error) {
	var count int64
	if err := tx.Model(&models.Order{}).Where("branch_id = ?", branch.ID).Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%04d", codeSegment(tenant.RestaurantName), codeSegment(branch.Address), count+1), nil
}

type CheckoutRequest struct {
	PayNow        bool   `json:"pay_now"`
	TransactionID string `json:"transaction_id"`
}

// checkoutError carries the HTTP status a failed checkout answers with.
type checkoutError struct {
	status int
	msg    string
}

func (e *checkoutError) Error() string { return e.msg }

// Checkout turns the caller's cart into an order. Prices are taken from the
// menu, not from the cart, and the coupon is re-validated.
func Checkout(c *gin.Context) {
	var req CheckoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	userID := middleware.GetUserID(c)
	unlock := lockCart(userID)
	defer unlock()

	state, err := loadCart(config.DB, userID)
	if err != nil {
		serverError(c, "Failed to load cart", err)
		return
	}
	if state.IsEmpty() {
		metrics.RecordCheckout("empty")
		badRequest(c, ErrEmptyCart.Error())
		return
	}

	var order models.Order
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var buildErr error
		order, buildErr = buildOrder(tx, userID, state, req)
		if buildErr != nil {
			return buildErr
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  order.Status,
			ChangedBy: userID,
			Note:      "Order placed by customer",
		}).Error; err != nil {
			return err
		}
		return saveCart(tx, userID, cart.Reduce(state, cart.ClearCart{}))
	})

	var coErr *checkoutError
	switch {
	case errors.As(err, &coErr):
		metrics.RecordCheckout("rejected")
		c.JSON(coErr.status, gin.H{"error": coErr.msg})
		return
	case err != nil:
		metrics.RecordCheckout("error")
		serverError(c, "Failed to place order", err)
		return
	}

	metrics.RecordCheckout("ok")
	zap.L().Info("order placed",
		zap.String("order_code", order.OrderCode),
		zap.String("tenant_id", order.TenantID),
		zap.String("total", order.Total.StringFixed(2)))
	config.DB.Preload("Items").Preload("StatusHistory").First(&order, "id = ?", order.ID)
	c.JSON(http.StatusCreated, order)
}

func buildOrder(tx *gorm.DB, userID string, state cart.State, req CheckoutRequest) (models.Order, error) {
	var table models.Table
	if err := tx.Preload("Branch.Tenant").First(&table, "id = ?", state.TableID).Error; err != nil ||
		table.Branch == nil || table.Branch.Tenant == nil {
		return models.Order{}, &checkoutError{http.StatusBadRequest, "The table of this cart no longer exists"}
	}
	if !table.IsActive {
		return models.Order{}, &checkoutError{http.StatusBadRequest, "This table is not taking orders"}
	}
	branch, tenant := table.Branch, table.Branch.Tenant
	if branch.ID != state.BranchID || tenant.ID != state.RestaurantID {
		return models.Order{}, &checkoutError{http.StatusConflict, "The cart is bound to a different branch than its table"}
	}

	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(state.Items))
	for _, line := range state.Items {
		item, err := menuItemAt(tx, line.ID, branch)
		if errors.Is(err, errMenuItemMissing) || errors.Is(err, errMenuItemUnavailable) {
			return models.Order{}, &checkoutError{http.StatusBadRequest, fmt.Sprintf("%s: %s", line.Name, err)}
		}
		if err != nil {
			return models.Order{}, err
		}
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, models.OrderItem{
			MenuItemID: item.ID,
			Name:       item.Name,
			Image:      item.Image,
			Price:      item.Price,
			Quantity:   line.Quantity,
			Remarks:    state.Remarks[item.ID],
		})
	}

	discount := decimal.Zero
	if state.Coupon != "" {
		coupon, err := findCoupon(tx, state.Coupon, branch.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, errCouponNotApplicable) {
				return models.Order{}, &checkoutError{http.StatusBadRequest, "Coupon " + state.Coupon + " can no longer be applied"}
			}
			return models.Order{}, err
		}
		discount = coupon.DiscountFor(subtotal)
	}

	tax := subtotal.Mul(tenant.Tax).Div(hundred).Round(2)
	serviceCharge := subtotal.Mul(tenant.ServiceCharge).Div(hundred).Round(2)
	total := subtotal.Add(tax).Add(serviceCharge).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	code, err := orderCode(tx, tenant, branch)
	if err != nil {
		return models.Order{}, err
	}

	var customer models.User
	if err := tx.First(&customer, "id = ?", userID).Error; err != nil {
		return models.Order{}, err
	}

	status := models.StatusPlaced
	if req.PayNow {
		status = models.StatusPendingPayment
	}
	return models.Order{
		OrderCode:     code,
		TenantID:      tenant.ID,
		BranchID:      branch.ID,
		TableID:       table.ID,
		CustomerID:    userID,
		CustomerName:  firstNonEmpty(state.CustomerName, customer.Name),
		CustomerPhone: firstNonEmpty(state.ContactNumber, customer.Phone),
		CustomerTinNo: state.TinNumber,
		Status:        status,
		Coupon:        state.Coupon,
		Subtotal:      subtotal,
		Discount:      discount,
		Tax:           tax,
		ServiceCharge: serviceCharge,
		Total:         total.Round(2),
		TransactionID: firstNonEmpty(req.TransactionID, state.TransactionID),
		Items:         items,
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// scopedOrders limits a query to the orders the caller may see.
func scopedOrders(c *gin.Context, query *gorm.DB) *gorm.DB {
	switch middleware.GetUserType(c) {
	case models.UserCustomer:
		return query.Where("customer_id = ?", middleware.GetUserID(c))
	case models.UserRestaurant:
		return query.Where("tenant_id = ?", middleware.GetTenantID(c))
	}
	return query
}

// ListOrders returns the caller's orders, newest first. Restaurant users see
// every order of their restaurant.
func ListOrders(c *gin.Context) {
	query := scopedOrders(c, config.DB.Model(&models.Order{})).Order("created_at desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if branchID := c.Query("branch"); branchID != "" {
		query = query.Where("branch_id = ?", branchID)
	}
	if tableID := c.Query("table"); tableID != "" {
		query = query.Where("table_id = ?", tableID)
	}
	listOrPage[models.Order](c, query, "Items")
}

// visibleOrder loads an order the caller may see, answering 404 otherwise.
func visibleOrder(c *gin.Context, preloads ...string) (*models.Order, bool) {
	var order models.Order
	query := withPreloads(scopedOrders(c, config.DB), preloads)
	if err := query.First(&order, "id = ?", c.Param("id")).Error; err != nil {
		notFound(c, "Order not found")
		return nil, false
	}
	return &order, true
}

// GetOrder returns one order with items and status history
func GetOrder(c *gin.Context) {
	order, ok := visibleOrder(c, "Items", "StatusHistory", "Tenant")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":             order,
		"valid_next_states": statemachine.ValidTransitionsFrom(order.Status),
	})
}

func actorFor(userType models.UserType) string {
	switch userType {
	case models.UserCustomer:
		return statemachine.ActorCustomer
	case models.UserRestaurant:
		return statemachine.ActorRestaurant
	}
	return statemachine.ActorSystem
}

// transitionOrder moves order to status as actor and records the history.
func transitionOrder(c *gin.Context, order *models.Order, to models.OrderStatus, actor, note string, extra map[string]any) bool {
	if err := statemachine.CanTransition(order.Status, to, actor); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":         "Invalid state transition",
			"reason":        err.Error(),
			"current_state": order.Status,
			"valid_next":    statemachine.ValidTransitionsFrom(order.Status),
		})
		return false
	}

	prev := order.Status
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(order).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Create(&models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: prev,
			ToStatus:   to,
			ChangedBy:  middleware.GetUserID(c),
			Note:       note,
		}).Error
	})
	if err != nil {
		serverError(c, "Failed to update order", err)
		return false
	}
	order.Status = to
	return true
}

type UpdateOrderRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Note   string             `json:"note"`
}

// UpdateOrder drives the order through its lifecycle
func UpdateOrder(c *gin.Context) {
	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	order, ok := visibleOrder(c)
	if !ok {
		return
	}
	prev := order.Status
	if !transitionOrder(c, order, req.Status, actorFor(middleware.GetUserType(c)), req.Note, nil) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         "Order status updated",
		"order_id":        order.ID,
		"previous_status": prev,
		"new_status":      order.Status,
		"valid_next":      statemachine.ValidTransitionsFrom(order.Status),
	})
}

// ConfirmPayment records a settled payment on behalf of restaurant staff or
// an admin. A prepaid order moves from pending_payment to placed as the
// system; a pay-after order moves from delivered to payment_complete as the
// caller.
func ConfirmPayment(c *gin.Context) {
	var req struct {
		TransactionID string `json:"transaction_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	order, ok := visibleOrder(c)
	if !ok {
		return
	}

	var to models.OrderStatus
	actor := statemachine.ActorSystem
	switch order.Status {
	case models.StatusPendingPayment:
		to = models.StatusPlaced
	case models.StatusDelivered:
		to = models.StatusPaymentComplete
		actor = actorFor(middleware.GetUserType(c))
	default:
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":         "Order is not awaiting payment",
			"current_state": order.Status,
		})
		return
	}
	extra := map[string]any{"transaction_id": req.TransactionID}
	if !transitionOrder(c, order, to, actor, "Payment "+req.TransactionID, extra) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment recorded", "order_id": order.ID, "status": order.Status})
}

// DeleteOrder removes a cancelled order and its lines
func DeleteOrder(c *gin.Context) {
	order, ok := visibleOrder(c)
	if !ok {
		return
	}
	if order.Status != models.StatusCancelled {
		c.JSON(http.StatusConflict, gin.H{"error": "Only cancelled orders can be deleted"})
		return
	}
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderStatusHistory{}).Error; err != nil {
			return err
		}
		return tx.Delete(order).Error
	})
	if err != nil {
		serverError(c, "Failed to delete order", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetStateMachineInfo documents the order lifecycle
func GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"states": []models.OrderStatus{
			models.StatusPendingPayment,
			models.StatusPlaced,
			models.StatusProgress,
			models.StatusDelivered,
			models.StatusPaymentComplete,
			models.StatusCancelled,
		},
		"transitions": statemachine.GetAllTransitions(),
		"terminal":    []models.OrderStatus{models.StatusPaymentComplete, models.StatusCancelled},
	})
}
