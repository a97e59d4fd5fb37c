package models

import (
	"time"

	"dine-in-ordering/cart"

	"github.com/shopspring/decimal"
)

// OrderStatus represents all possible states of a dine-in order
type OrderStatus string

const (
	StatusPendingPayment  OrderStatus = "pending_payment"
	StatusPlaced          OrderStatus = "placed"
	StatusProgress        OrderStatus = "progress"
	StatusDelivered       OrderStatus = "delivered"
	StatusPaymentComplete OrderStatus = "payment_complete"
	StatusCancelled       OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPendingPayment, StatusPlaced, StatusProgress, StatusDelivered, StatusPaymentComplete, StatusCancelled:
		return true
	}
	return false
}

type Order struct {
	Model
	OrderCode     string               `json:"order_id" gorm:"index"` // e.g. BOLEE-MAINS-0001
	TenantID      string               `json:"tenant_id" gorm:"type:varchar(36);not null;index"`
	Tenant        *Tenant              `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
	BranchID      string               `json:"branch_id" gorm:"type:varchar(36);not null;index"`
	TableID       string               `json:"table_id" gorm:"type:varchar(36);not null;index"`
	CustomerID    string               `json:"customer_id" gorm:"type:varchar(36);not null;index"`
	CustomerName  string               `json:"customer_name"`
	CustomerPhone string               `json:"customer_phone"`
	CustomerTinNo string               `json:"customer_tin_no"`
	Status        OrderStatus          `json:"status" gorm:"not null;default:'placed'"`
	Coupon        string               `json:"coupon"`
	Subtotal      decimal.Decimal      `json:"subtotal" gorm:"type:decimal(10,2)"`
	Discount      decimal.Decimal      `json:"discount" gorm:"type:decimal(10,2)"`
	Tax           decimal.Decimal      `json:"tax" gorm:"type:decimal(10,2)"`
	ServiceCharge decimal.Decimal      `json:"service_charge" gorm:"type:decimal(10,2)"`
	Total         decimal.Decimal      `json:"total" gorm:"type:decimal(10,2)"`
	TransactionID string               `json:"transaction_id"`
	Items         []OrderItem          `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	StatusHistory []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
}

type OrderItem struct {
	Model
	OrderID    string          `json:"order_id" gorm:"type:varchar(36);not null;index"`
	MenuItemID string          `json:"menu_item_id" gorm:"type:varchar(36);not null"`
	Name       string          `json:"name"`                                  // snapshot name
	Image      string          `json:"image"`                                 // snapshot image
	Price      decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"` // snapshot price at time of order
	Quantity   int             `json:"quantity" gorm:"not null"`
	Remarks    string          `json:"remarks"`
}

// OrderStatusHistory tracks every status change
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    string      `json:"order_id" gorm:"type:varchar(36);not null;index"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	ChangedBy  string      `json:"changed_by"` // user ID who triggered the transition
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}

// CartSession is the server-held cart of one user.
type CartSession struct {
	UserID    string     `json:"user_id" gorm:"primaryKey;type:varchar(36)"`
	State     cart.State `json:"state" gorm:"type:text;serializer:json"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartDishes converts order lines back into cart lines for a reorder.
func (o Order) CartDishes() []cart.Dish {
	dishes := make([]cart.Dish, 0, len(o.Items))
	for _, it := range o.Items {
		dishes = append(dishes, cart.Dish{
			ID:       it.MenuItemID,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
			Image:    it.Image,
		})
	}
	return dishes
}
