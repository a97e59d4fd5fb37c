package handlers

import (
	"errors"
	"net/http"

	"dine-in-ordering/config"
	"dine-in-ordering/middleware"
	"dine-in-ordering/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// callerTenant resolves the tenant a staff request acts on. Restaurant users
// are pinned to their own tenant; admins must name one.
func callerTenant(c *gin.Context, requested string) (string, bool) {
	if middleware.GetUserType(c) == models.UserAdmin {
		if requested == "" {
			badRequest(c, "tenant_id is required")
			return "", false
		}
		return requested, true
	}
	tenantID := middleware.GetTenantID(c)
	if tenantID == "" {
		forbidden(c, "Your account is not linked to a restaurant")
		return "", false
	}
	if requested != "" && requested != tenantID {
		forbidden(c, "You don't manage this restaurant")
		return "", false
	}
	return tenantID, true
}

// tenantBranch loads a branch and checks it belongs to tenantID.
func tenantBranch(c *gin.Context, branchID, tenantID string) (*models.Branch, bool) {
	var branch models.Branch
	if err := config.DB.First(&branch, "id = ?", branchID).Error; err != nil {
		notFound(c, "Branch not found")
		return nil, false
	}
	if branch.TenantID != tenantID {
		forbidden(c, "This branch does not belong to your restaurant")
		return nil, false
	}
	return &branch, true
}

// ── Tenants & branches ───────────────────────────────────────────────────────

// ListTenants returns all restaurants (public)
func ListTenants(c *gin.Context) {
	query := config.DB.Model(&models.Tenant{}).Order("restaurant_name")
	if search := c.Query("search"); search != "" {
		query = query.Where("restaurant_name LIKE ?", "%"+search+"%")
	}
	listOrPage[models.Tenant](c, query)
}

// GetTenant returns a restaurant with its branches (public)
func GetTenant(c *gin.Context) {
	var tenant models.Tenant
	if err := config.DB.Preload("Branches").First(&tenant, "id = ?", c.Param("id")).Error; err != nil {
		notFound(c, "Restaurant not found")
		return
	}
	c.JSON(http.StatusOK, tenant)
}

// ListBranches returns branches, optionally of one tenant (public)
func ListBranches(c *gin.Context) {
	query := config.DB.Model(&models.Branch{}).Order("created_at")
	if tenantID := c.Query("tenant"); tenantID != "" {
		query = query.Where("tenant_id = ?", tenantID)
	}
	listOrPage[models.Branch](c, query, "Tenant")
}

type CreateBranchRequest struct {
	TenantID  string `json:"tenant_id"`
	Address   string `json:"address" binding:"required"`
	IsDefault bool   `json:"is_default"`
}

// CreateBranch adds a branch to the caller's restaurant
func CreateBranch(c *gin.Context) {
	var req CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	tenantID, ok := callerTenant(c, req.TenantID)
	if !ok {
		return
	}
	branch := models.Branch{TenantID: tenantID, Address: req.Address, IsDefault: req.IsDefault}
	if err := config.DB.Create(&branch).Error; err != nil {
		serverError(c, "Failed to create branch", err)
		return
	}
	c.JSON(http.StatusCreated, branch)
}

// ── Menu ─────────────────────────────────────────────────────────────────────

// ListMenus returns menu items filtered by tenant, category or branch
// availability (public)
func ListMenus(c *gin.Context) {
	query := config.DB.Model(&models.MenuItem{}).Order("category, name")
	if tenantID := c.Query("tenant"); tenantID != "" {
		query = query.Where("tenant_id = ?", tenantID)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	if branchID := c.Query("branch"); branchID != "" {
		// items explicitly switched off at the branch are hidden
		query = query.Where("id NOT IN (?)", config.DB.Model(&models.MenuAvailability{}).
			Select("menu_item_id").
			Where("branch_id = ? AND is_available = ?", branchID, false))
	}
	listOrPage[models.MenuItem](c, query)
}

// GetMenu returns one menu item (public)
func GetMenu(c *gin.Context) {
	var item models.MenuItem
	if err := config.DB.First(&item, "id = ?", c.Param("id")).Error; err != nil {
		notFound(c, "Menu item not found")
		return
	}
	c.JSON(http.StatusOK, item)
}

type CreateMenuRequest struct {
	TenantID    string          `json:"tenant_id"`
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Category    string          `json:"category" binding:"required"`
	Tags        []string        `json:"tags"`
	Price       decimal.Decimal `json:"price"`
	IsSide      bool            `json:"is_side"`
}

// CreateMenu adds an item to the caller's menu
func CreateMenu(c *gin.Context) {
	var req CreateMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !req.Price.IsPositive() {
		badRequest(c, "Price must be greater than zero")
		return
	}
	tenantID, ok := callerTenant(c, req.TenantID)
	if !ok {
		return
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}
	item := models.MenuItem{
		TenantID:    tenantID,
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
		Category:    req.Category,
		Tags:        req.Tags,
		Price:       req.Price,
		IsSide:      req.IsSide,
	}
	if err := config.DB.Create(&item).Error; err != nil {
		serverError(c, "Failed to add menu item", err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// ListMenuAvailability returns availability rows of a branch (public)
func ListMenuAvailability(c *gin.Context) {
	query := config.DB.Model(&models.MenuAvailability{})
	if branchID := c.Query("branch"); branchID != "" {
		query = query.Where("branch_id = ?", branchID)
	}
	listOrPage[models.MenuAvailability](c, query, "MenuItem")
}

type SetAvailabilityRequest struct {
	BranchID    string `json:"branch_id" binding:"required"`
	MenuItemID  string `json:"menu_item_id" binding:"required"`
	IsAvailable bool   `json:"is_available"`
}

// SetMenuAvailability switches a menu item on or off at a branch
func SetMenuAvailability(c *gin.Context) {
	var req SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	var item models.MenuItem
	if err := config.DB.First(&item, "id = ?", req.MenuItemID).Error; err != nil {
		notFound(c, "Menu item not found")
		return
	}
	tenantID, ok := callerTenant(c, item.TenantID)
	if !ok {
		return
	}
	if _, ok := tenantBranch(c, req.BranchID, tenantID); !ok {
		return
	}

	var row models.MenuAvailability
	err := config.DB.Where("branch_id = ? AND menu_item_id = ?", req.BranchID, req.MenuItemID).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = models.MenuAvailability{BranchID: req.BranchID, MenuItemID: req.MenuItemID, IsAvailable: req.IsAvailable}
		err = config.DB.Create(&row).Error
	case err == nil:
		row.IsAvailable = req.IsAvailable
		err = config.DB.Model(&row).Update("is_available", req.IsAvailable).Error
	}
	if err != nil {
		serverError(c, "Failed to update availability", err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// ListRelatedMenus returns items related to ?menu_item= (public)
func ListRelatedMenus(c *gin.Context) {
	query := config.DB.Model(&models.RelatedMenuItem{})
	if menuID := c.Query("menu_item"); menuID != "" {
		query = query.Where("menu_item_id = ?", menuID)
	}
	if tag := c.Query("tag"); tag != "" {
		query = query.Where("tag = ?", tag)
	}
	listOrPage[models.RelatedMenuItem](c, query, "RelatedItem")
}

type CreateRelatedMenuRequest struct {
	MenuItemID    string `json:"menu_item_id" binding:"required"`
	RelatedItemID string `json:"related_item_id" binding:"required"`
	Tag           string `json:"tag" binding:"required,oneof='Best Paired With' 'Alternative' 'Customer Favorite'"`
}

// CreateRelatedMenu links two items of the caller's menu
func CreateRelatedMenu(c *gin.Context) {
	var req CreateRelatedMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.MenuItemID == req.RelatedItemID {
		badRequest(c, "An item cannot be related to itself")
		return
	}
	var items []models.MenuItem
	if err := config.DB.Where("id IN ?", []string{req.MenuItemID, req.RelatedItemID}).Find(&items).Error; err != nil {
		serverError(c, "Failed to load menu items", err)
		return
	}
	if len(items) != 2 || items[0].TenantID != items[1].TenantID {
		badRequest(c, "Both items must exist on the same menu")
		return
	}
	tenantID, ok := callerTenant(c, items[0].TenantID)
	if !ok {
		return
	}

	rel := models.RelatedMenuItem{
		TenantID:      tenantID,
		MenuItemID:    req.MenuItemID,
		RelatedItemID: req.RelatedItemID,
		Tag:           req.Tag,
	}
	if err := config.DB.Create(&rel).Error; err != nil {
		serverError(c, "Failed to relate menu items", err)
		return
	}
	c.JSON(http.StatusCreated, rel)
}

// ── Combos & posts ───────────────────────────────────────────────────────────

// ListCombos returns combos of ?branch= (public)
func ListCombos(c *gin.Context) {
	query := config.DB.Model(&models.Combo{}).Order("name")
	if branchID := c.Query("branch"); branchID != "" {
		query = query.Where("branch_id = ?", branchID)
	}
	listOrPage[models.Combo](c, query, "Items.MenuItem")
}

type CreateComboRequest struct {
	BranchID   string          `json:"branch_id" binding:"required"`
	Name       string          `json:"name" binding:"required"`
	IsCustom   bool            `json:"is_custom"`
	ComboPrice decimal.Decimal `json:"combo_price"`
	Items      []struct {
		MenuItemID string `json:"menu_item_id" binding:"required"`
		Quantity   int    `json:"quantity" binding:"min=0"`
		IsHalf     bool   `json:"is_half"`
	} `json:"combo_items" binding:"required,min=1,dive"`
}

// CreateCombo creates a fixed-price bundle at one of the caller's branches
func CreateCombo(c *gin.Context) {
	var req CreateComboRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.ComboPrice.IsNegative() {
		badRequest(c, "Combo price must not be negative")
		return
	}
	var branch models.Branch
	if err := config.DB.First(&branch, "id = ?", req.BranchID).Error; err != nil {
		notFound(c, "Branch not found")
		return
	}
	tenantID, ok := callerTenant(c, branch.TenantID)
	if !ok {
		return
	}

	combo := models.Combo{
		TenantID:   tenantID,
		BranchID:   branch.ID,
		Name:       req.Name,
		IsCustom:   req.IsCustom,
		ComboPrice: req.ComboPrice,
	}
	for _, it := range req.Items {
		var item models.MenuItem
		if err := config.DB.First(&item, "id = ? AND tenant_id = ?", it.MenuItemID, tenantID).Error; err != nil {
			badRequest(c, "Menu item not found on this menu: "+it.MenuItemID)
			return
		}
		qty := it.Quantity
		if qty == 0 {
			qty = 1
		}
		combo.Items = append(combo.Items, models.ComboItem{MenuItemID: item.ID, Quantity: qty, IsHalf: it.IsHalf})
	}

	if err := config.DB.Create(&combo).Error; err != nil {
		serverError(c, "Failed to create combo", err)
		return
	}
	c.JSON(http.StatusCreated, combo)
}

// ListPosts returns the feed, newest first (public)
func ListPosts(c *gin.Context) {
	query := config.DB.Model(&models.Post{}).Order("created_at desc")
	if tenantID := c.Query("tenant"); tenantID != "" {
		query = query.Where("tenant_id = ?", tenantID)
	}
	listOrPage[models.Post](c, query)
}

type CreatePostRequest struct {
	TenantID string   `json:"tenant_id"`
	Caption  string   `json:"caption" binding:"required"`
	Image    string   `json:"image"`
	Tags     []string `json:"tags"`
}

// CreatePost publishes a feed entry for the caller's restaurant
func CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	tenantID, ok := callerTenant(c, req.TenantID)
	if !ok {
		return
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}
	post := models.Post{TenantID: tenantID, Caption: req.Caption, Image: req.Image, Tags: req.Tags}
	if err := config.DB.Create(&post).Error; err != nil {
		serverError(c, "Failed to create post", err)
		return
	}
	c.JSON(http.StatusCreated, post)
}
