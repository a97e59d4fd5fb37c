package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"dine-in-ordering/config"
	"dine-in-ordering/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var errCouponNotApplicable = errors.New("coupon is not valid for this branch")

// findCoupon loads the coupon with code and checks it applies at branchID now.
func findCoupon(db *gorm.DB, code, branchID string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := db.Where("discount_code = ?", strings.ToUpper(strings.TrimSpace(code))).First(&coupon).Error; err != nil {
		return nil, err
	}
	if !coupon.AppliesTo(branchID, time.Now()) {
		return nil, errCouponNotApplicable
	}
	return &coupon, nil
}

type ValidateCouponRequest struct {
	Code     string          `json:"code" binding:"required"`
	BranchID string          `json:"branch_id" binding:"required"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// ValidateCoupon answers the discount a code would give on subtotal
func ValidateCoupon(c *gin.Context) {
	var req ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	coupon, err := findCoupon(config.DB, req.Code, req.BranchID)
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
	c.JSON(http.StatusOK, gin.H{
		"code":     coupon.DiscountCode,
		"discount": coupon.DiscountFor(req.Subtotal),
	})
}

type CreateCouponRequest struct {
	TenantID       string          `json:"tenant_id"`
	DiscountCode   string          `json:"discount_code" binding:"required"`
	IsGlobal       bool            `json:"is_global"`
	BranchIDs      []string        `json:"branch_ids"`
	IsPercentage   bool            `json:"is_percentage"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	ValidFrom      *time.Time      `json:"valid_from"`
	ValidUntil     *time.Time      `json:"valid_until"`
}

// CreateCoupon issues a discount code. Global codes are admin-only.
func CreateCoupon(c *gin.Context) {
	var req CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !req.DiscountAmount.IsPositive() {
		badRequest(c, "Discount amount must be greater than zero")
		return
	}
	if req.IsPercentage && req.DiscountAmount.GreaterThan(decimal.NewFromInt(100)) {
		badRequest(c, "Percentage discount cannot exceed 100")
		return
	}
	if req.ValidFrom != nil && req.ValidUntil != nil && req.ValidUntil.Before(*req.ValidFrom) {
		badRequest(c, "valid_until must be after valid_from")
		return
	}

	coupon := models.Coupon{
		DiscountCode:   strings.ToUpper(strings.TrimSpace(req.DiscountCode)),
		IsGlobal:       req.IsGlobal,
		BranchIDs:      []string{},
		IsPercentage:   req.IsPercentage,
		IsValid:        true,
		DiscountAmount: req.DiscountAmount,
		ValidFrom:      req.ValidFrom,
		ValidUntil:     req.ValidUntil,
	}
	if req.IsGlobal {
		if !isAdmin(c) {
			forbidden(c, "Only admins can issue global coupons")
			return
		}
	} else {
		if len(req.BranchIDs) == 0 {
			badRequest(c, "branch_ids is required for a branch coupon")
			return
		}
		tenantID, ok := callerTenant(c, req.TenantID)
		if !ok {
			return
		}
		for _, id := range req.BranchIDs {
			if _, ok := tenantBranch(c, id, tenantID); !ok {
				return
			}
		}
		coupon.TenantID = &tenantID
		coupon.BranchIDs = req.BranchIDs
	}

	var existing int64
	config.DB.Model(&models.Coupon{}).Where("discount_code = ?", coupon.DiscountCode).Count(&existing)
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Discount code already exists"})
		return
	}
	if err := config.DB.Create(&coupon).Error; err != nil {
		serverError(c, "Failed to create coupon", err)
		return
	}
	c.JSON(http.StatusCreated, coupon)
}
