package handlers

import (
	"fmt"
	"net/http"

	"dine-in-ordering/config"
	"dine-in-ordering/middleware"
	"dine-in-ordering/models"

	"github.com/gin-gonic/gin"
)

// tableCodePrefix is the first three letters of the branch address, upper
// cased, with spaces removed. Short addresses are padded with X.
func tableCodePrefix(address string) string {
	return fitCode(address, 3)
}

// staffTable loads a table and checks the caller may manage it.
func staffTable(c *gin.Context, id string) (*models.Table, bool) {
	var table models.Table
	if err := config.DB.Preload("Branch").First(&table, "id = ?", id).Error; err != nil || table.Branch == nil {
		notFound(c, "Table not found")
		return nil, false
	}
	if _, ok := callerTenant(c, table.Branch.TenantID); !ok {
		return nil, false
	}
	return &table, true
}

// ListTables returns the tables of the caller's restaurant, optionally of one
// branch. ?nopage=1 returns the whole list.
func ListTables(c *gin.Context) {
	query := config.DB.Model(&models.Table{}).Order("table_code")
	if middleware.GetUserType(c) != models.UserAdmin {
		query = query.Where("branch_id IN (?)", config.DB.Model(&models.Branch{}).
			Select("id").Where("tenant_id = ?", middleware.GetTenantID(c)))
	}
	if branchID := c.Query("branch"); branchID != "" {
		query = query.Where("branch_id = ?", branchID)
	}
	listOrPage[models.Table](c, query)
}

// GetTable returns one table with its branch and restaurant. Customers reach
// it after scanning a QR code, so it is public.
func GetTable(c *gin.Context) {
	var table models.Table
	if err := config.DB.Preload("Branch.Tenant").First(&table, "id = ?", c.Param("id")).Error; err != nil {
		notFound(c, "Table not found")
		return
	}
	c.JSON(http.StatusOK, table)
}

type CreateTableRequest struct {
	BranchID        string `json:"branch_id" binding:"required"`
	IsFastTable     bool   `json:"is_fast_table"`
	IsDeliveryTable bool   `json:"is_delivery_table"`
	IsInsideTable   bool   `json:"is_inside_table"`
}

// CreateTable adds a table to a branch and assigns the next table code
func CreateTable(c *gin.Context) {
	var req CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	var branch models.Branch
	if err := config.DB.First(&branch, "id = ?", req.BranchID).Error; err != nil {
		notFound(c, "Branch not found")
		return
	}
	if _, ok := callerTenant(c, branch.TenantID); !ok {
		return
	}

	var count int64
	if err := config.DB.Model(&models.Table{}).Where("branch_id = ?", branch.ID).Count(&count).Error; err != nil {
		serverError(c, "Failed to count tables", err)
		return
	}
	table := models.Table{
		BranchID:        branch.ID,
		TableCode:       fmt.Sprintf("%s-%03d", tableCodePrefix(branch.Address), count+1),
		IsFastTable:     req.IsFastTable,
		IsDeliveryTable: req.IsDeliveryTable,
		IsInsideTable:   req.IsInsideTable,
		IsActive:        true,
	}
	if err := config.DB.Create(&table).Error; err != nil {
		serverError(c, "Failed to create table", err)
		return
	}
	c.JSON(http.StatusCreated, table)
}

type UpdateTableRequest struct {
	IsFastTable     *bool `json:"is_fast_table"`
	IsDeliveryTable *bool `json:"is_delivery_table"`
	IsInsideTable   *bool `json:"is_inside_table"`
	IsActive        *bool `json:"is_active"`
}

// UpdateTable patches the flags of a table
func UpdateTable(c *gin.Context) {
	var req UpdateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	table, ok := staffTable(c, c.Param("id"))
	if !ok {
		return
	}

	updates := map[string]any{}
	if req.IsFastTable != nil {
		updates["is_fast_table"] = *req.IsFastTable
	}
	if req.IsDeliveryTable != nil {
		updates["is_delivery_table"] = *req.IsDeliveryTable
	}
	if req.IsInsideTable != nil {
		updates["is_inside_table"] = *req.IsInsideTable
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) > 0 {
		if err := config.DB.Model(table).Updates(updates).Error; err != nil {
			serverError(c, "Failed to update table", err)
			return
		}
	}
	config.DB.First(table, "id = ?", table.ID)
	c.JSON(http.StatusOK, table)
}

// DeleteTable removes a table nobody has ordered from yet
func DeleteTable(c *gin.Context) {
	table, ok := staffTable(c, c.Param("id"))
	if !ok {
		return
	}
	var orders int64
	config.DB.Model(&models.Order{}).Where("table_id = ?", table.ID).Count(&orders)
	if orders > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Table has orders and cannot be deleted; deactivate it instead"})
		return
	}
	if err := config.DB.Where("table_id = ?", table.ID).Delete(&models.QRCode{}).Error; err != nil {
		serverError(c, "Failed to delete QR codes", err)
		return
	}
	if err := config.DB.Delete(table).Error; err != nil {
		serverError(c, "Failed to delete table", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── QR codes ─────────────────────────────────────────────────────────────────

// ListQRCodes returns the QR codes of the caller's restaurant
func ListQRCodes(c *gin.Context) {
	query := config.DB.Model(&models.QRCode{}).Order("created_at")
	if middleware.GetUserType(c) != models.UserAdmin {
		query = query.Where("tenant_id = ?", middleware.GetTenantID(c))
	}
	if branchID := c.Query("branch"); branchID != "" {
		query = query.Where("branch_id = ?", branchID)
	}
	listOrPage[models.QRCode](c, query, "Table")
}

type CreateQRCodeRequest struct {
	TableID string `json:"table_id" binding:"required"`
	Link    string `json:"link" binding:"required,url"`
}

// CreateQRCode attaches a scannable link to a table
func CreateQRCode(c *gin.Context) {
	var req CreateQRCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	table, ok := staffTable(c, req.TableID)
	if !ok {
		return
	}
	qr := models.QRCode{
		TableID:  table.ID,
		BranchID: table.BranchID,
		TenantID: table.Branch.TenantID,
		Link:     req.Link,
		IsActive: true,
	}
	if err := config.DB.Create(&qr).Error; err != nil {
		serverError(c, "Failed to create QR code", err)
		return
	}
	c.JSON(http.StatusCreated, qr)
}

type UpdateQRCodeRequest struct {
	Link     *string `json:"link" binding:"omitempty,url"`
	IsActive *bool   `json:"is_active"`
}

// UpdateQRCode changes the link or switches a QR code off
func UpdateQRCode(c *gin.Context) {
	var req UpdateQRCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	var qr models.QRCode
	if err := config.DB.First(&qr, "id = ?", c.Param("id")).Error; err != nil {
		notFound(c, "QR code not found")
		return
	}
	if _, ok := callerTenant(c, qr.TenantID); !ok {
		return
	}

	updates := map[string]any{}
	if req.Link != nil {
		updates["link"] = *req.Link
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) > 0 {
		if err := config.DB.Model(&qr).Updates(updates).Error; err != nil {
			serverError(c, "Failed to update QR code", err)
			return
		}
	}
	config.DB.First(&qr, "id = ?", qr.ID)
	c.JSON(http.StatusOK, qr)
}
