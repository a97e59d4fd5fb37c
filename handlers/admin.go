package handlers

import (
	"net/http"

	"dine-in-ordering/config"
	"dine-in-ordering/middleware"
	"dine-in-ordering/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CreateTenantRequest struct {
	RestaurantName   string          `json:"restaurant_name" binding:"required"`
	Description      string          `json:"description"`
	Tax              decimal.Decimal `json:"tax"`
	ServiceCharge    decimal.Decimal `json:"service_charge"`
	PaymentPublicKey string          `json:"payment_public_key"`
}

// AdminCreateTenant registers a restaurant
func AdminCreateTenant(c *gin.Context) {
	var req CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Tax.IsNegative() || req.ServiceCharge.IsNegative() {
		badRequest(c, "Tax and service charge must not be negative")
		return
	}
	tenant := models.Tenant{
		RestaurantName:   req.RestaurantName,
		Description:      req.Description,
		Tax:              req.Tax,
		ServiceCharge:    req.ServiceCharge,
		PaymentPublicKey: req.PaymentPublicKey,
	}
	if err := config.DB.Create(&tenant).Error; err != nil {
		serverError(c, "Failed to create tenant", err)
		return
	}
	c.JSON(http.StatusCreated, tenant)
}

type CreateStaffRequest struct {
	RegisterRequest
	UserType models.UserType `json:"user_type" binding:"required"`
	TenantID string          `json:"tenant_id"`
}

// AdminCreateUser creates restaurant staff or another admin
func AdminCreateUser(c *gin.Context) {
	var req CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !req.UserType.Valid() {
		badRequest(c, "Invalid user type. Must be: customer, restaurant, or admin")
		return
	}

	var tenantID *string
	if req.UserType == models.UserRestaurant {
		var tenant models.Tenant
		if err := config.DB.First(&tenant, "id = ?", req.TenantID).Error; err != nil {
			badRequest(c, "Restaurant users need an existing tenant_id")
			return
		}
		tenantID = &tenant.ID
	}

	user, status, msg := createUser(req.Name, req.Email, req.Password, req.Phone, req.UserType, tenantID)
	if user == nil {
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusCreated, user)
}

// AdminGetAllUsers returns all users, optionally filtered by user_type
func AdminGetAllUsers(c *gin.Context) {
	query := config.DB.Model(&models.User{}).Order("created_at desc")
	if t := c.Query("user_type"); t != "" {
		query = query.Where("user_type = ?", t)
	}
	listOrPage[models.User](c, query)
}

// OrderSummary aggregates the orders the caller can see by status, with the
// revenue of settled orders. Restaurant users get their own dashboard.
func OrderSummary(c *gin.Context) {
	query := scopedOrders(c, config.DB.Model(&models.Order{}))
	if tenantID := c.Query("tenant_id"); tenantID != "" {
		query = query.Where("tenant_id = ?", tenantID)
	}
	if branchID := c.Query("branch_id"); branchID != "" {
		query = query.Where("branch_id = ?", branchID)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		serverError(c, "Failed to load orders", err)
		return
	}

	summary := map[string]int{}
	revenue := decimal.Zero
	for _, o := range orders {
		summary[string(o.Status)]++
		if o.Status == models.StatusPaymentComplete {
			revenue = revenue.Add(o.Total)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"order_summary": summary,
		"total_revenue": revenue,
		"count":         len(orders),
	})
}

// AdminForceOrderStatus lets admin override any order state (emergency use)
func AdminForceOrderStatus(c *gin.Context) {
	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
		Reason string             `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !req.Status.Valid() {
		badRequest(c, "Unknown order status: "+string(req.Status))
		return
	}
	var order models.Order
	if err := config.DB.First(&order, "id = ?", c.Param("id")).Error; err != nil {
		notFound(c, "Order not found")
		return
	}
	prevStatus := order.Status
	if err := config.DB.Model(&order).Update("status", req.Status).Error; err != nil {
		serverError(c, "Failed to update order", err)
		return
	}
	config.DB.Create(&models.OrderStatusHistory{
		OrderID:    order.ID,
		FromStatus: prevStatus,
		ToStatus:   req.Status,
		ChangedBy:  middleware.GetUserID(c),
		Note:       "[ADMIN OVERRIDE] " + req.Reason,
	})

	c.JSON(http.StatusOK, gin.H{
		"message":         "Order status force-updated by admin",
		"order_id":        order.ID,
		"previous_status": prevStatus,
		"new_status":      req.Status,
	})
}
