package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tenant is a restaurant. Tax and ServiceCharge are percentages.
type Tenant struct {
	Model
	RestaurantName   string          `json:"restaurant_name" gorm:"not null"`
	Description      string          `json:"description"`
	Tax              decimal.Decimal `json:"tax" gorm:"type:decimal(5,2)"`
	ServiceCharge    decimal.Decimal `json:"service_charge" gorm:"type:decimal(5,2)"`
	PaymentPublicKey string          `json:"payment_public_key"`
	Branches         []Branch        `json:"branches,omitempty" gorm:"foreignKey:TenantID"`
}

type Branch struct {
	Model
	TenantID  string  `json:"tenant_id" gorm:"type:varchar(36);not null;index"`
	Tenant    *Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
	Address   string  `json:"address" gorm:"not null"`
	IsDefault bool    `json:"is_default"`
}

type Table struct {
	Model
	BranchID        string  `json:"branch_id" gorm:"type:varchar(36);not null;index"`
	Branch          *Branch `json:"branch,omitempty" gorm:"foreignKey:BranchID"`
	TableCode       string  `json:"table_code"` // human readable, e.g. BOL-001
	IsFastTable     bool    `json:"is_fast_table"`
	IsDeliveryTable bool    `json:"is_delivery_table"`
	IsInsideTable   bool    `json:"is_inside_table"`
	IsActive        bool    `json:"is_active"`
}

type QRCode struct {
	Model
	TableID  string `json:"table_id" gorm:"type:varchar(36);not null;index"`
	Table    *Table `json:"table,omitempty" gorm:"foreignKey:TableID"`
	BranchID string `json:"branch_id" gorm:"type:varchar(36);index"`
	TenantID string `json:"tenant_id" gorm:"type:varchar(36);index"`
	Link     string `json:"link"`
	IsActive bool   `json:"is_active"`
}

type MenuItem struct {
	Model
	TenantID    string          `json:"tenant_id" gorm:"type:varchar(36);not null;index"`
	Name        string          `json:"name" gorm:"not null"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Category    string          `json:"category" gorm:"index"`
	Tags        []string        `json:"tags" gorm:"type:text;serializer:json"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	IsSide      bool            `json:"is_side"`
}

// MenuAvailability marks whether a menu item can be ordered at a branch.
type MenuAvailability struct {
	Model
	BranchID    string    `json:"branch_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_branch_menu"`
	MenuItemID  string    `json:"menu_item_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_branch_menu"`
	MenuItem    *MenuItem `json:"menu_item,omitempty" gorm:"foreignKey:MenuItemID"`
	IsAvailable bool      `json:"is_available"`
}

// RelatedMenuTag values accepted for related menu items.
const (
	TagBestPairedWith   = "Best Paired With"
	TagAlternative      = "Alternative"
	TagCustomerFavorite = "Customer Favorite"
)

type RelatedMenuItem struct {
	Model
	TenantID      string    `json:"tenant_id" gorm:"type:varchar(36);index"`
	MenuItemID    string    `json:"menu_item_id" gorm:"type:varchar(36);not null;index"`
	RelatedItemID string    `json:"related_item_id" gorm:"type:varchar(36);not null"`
	RelatedItem   *MenuItem `json:"related_item,omitempty" gorm:"foreignKey:RelatedItemID"`
	Tag           string    `json:"tag"`
}

type Combo struct {
	Model
	TenantID   string          `json:"tenant_id" gorm:"type:varchar(36);not null;index"`
	BranchID   string          `json:"branch_id" gorm:"type:varchar(36);not null;index"`
	Name       string          `json:"name" gorm:"not null"`
	IsCustom   bool            `json:"is_custom"`
	ComboPrice decimal.Decimal `json:"combo_price" gorm:"type:decimal(10,2)"`
	Items      []ComboItem     `json:"combo_items,omitempty" gorm:"foreignKey:ComboID"`
}

type ComboItem struct {
	Model
	ComboID    string    `json:"combo_id" gorm:"type:varchar(36);not null;index"`
	MenuItemID string    `json:"menu_item_id" gorm:"type:varchar(36);not null"`
	MenuItem   *MenuItem `json:"menu_item,omitempty" gorm:"foreignKey:MenuItemID"`
	Quantity   int       `json:"quantity" gorm:"default:1"`
	IsHalf     bool      `json:"is_half"`
}

// Coupon is either global or limited to the listed branches.
type Coupon struct {
	Model
	TenantID       *string         `json:"tenant_id" gorm:"type:varchar(36)"`
	IsGlobal       bool            `json:"is_global"`
	BranchIDs      []string        `json:"branch_ids" gorm:"type:text;serializer:json"`
	DiscountCode   string          `json:"discount_code" gorm:"uniqueIndex"`
	IsPercentage   bool            `json:"is_percentage"`
	IsValid        bool            `json:"is_valid"`
	DiscountAmount decimal.Decimal `json:"discount_amount" gorm:"type:decimal(10,2)"`
	ValidFrom      *time.Time      `json:"valid_from"`
	ValidUntil     *time.Time      `json:"valid_until"`
}

// AppliesTo reports whether the coupon can be used at branchID at time now.
func (c Coupon) AppliesTo(branchID string, now time.Time) bool {
	if !c.IsValid {
		return false
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return false
	}
	if c.IsGlobal {
		return true
	}
	for _, id := range c.BranchIDs {
		if id == branchID {
			return true
		}
	}
	return false
}

// DiscountFor computes the discount on subtotal, never more than subtotal.
func (c Coupon) DiscountFor(subtotal decimal.Decimal) decimal.Decimal {
	d := c.DiscountAmount
	if c.IsPercentage {
		d = subtotal.Mul(c.DiscountAmount).Div(decimal.NewFromInt(100)).Round(2)
	}
	if d.GreaterThan(subtotal) {
		return subtotal
	}
	return d
}

// Post is a restaurant feed entry.
type Post struct {
	Model
	TenantID string   `json:"tenant_id" gorm:"type:varchar(36);index"`
	Caption  string   `json:"caption"`
	Image    string   `json:"image"`
	Tags     []string `json:"tags" gorm:"type:text;serializer:json"`
}
