package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Model is the common primary key and timestamps. IDs are UUID strings.
type Model struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not set one.
func (m *Model) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// UserType defines allowed roles in the system
type UserType string

const (
	UserCustomer   UserType = "customer"
	UserRestaurant UserType = "restaurant"
	UserAdmin      UserType = "admin"
)

// Valid reports whether t is a known user type.
func (t UserType) Valid() bool {
	switch t {
	case UserCustomer, UserRestaurant, UserAdmin:
		return true
	}
	return false
}

type User struct {
	Model
	Name         string   `json:"name" gorm:"not null"`
	Email        string   `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string   `json:"-" gorm:"not null"`
	UserType     UserType `json:"user_type" gorm:"not null;default:'customer'"`
	Phone        string   `json:"phone"`
	TenantID     *string  `json:"tenant_id,omitempty" gorm:"type:varchar(36)"` // restaurant staff only
}

// All lists every model migrated by the server.
func All() []any {
	return []any{
		&User{},
		&Tenant{},
		&Branch{},
		&Table{},
		&QRCode{},
		&MenuItem{},
		&MenuAvailability{},
		&RelatedMenuItem{},
		&Combo{},
		&ComboItem{},
		&Coupon{},
		&Post{},
		&Order{},
		&OrderItem{},
		&OrderStatusHistory{},
		&CartSession{},
	}
}

// Page is the paginated list envelope used by every list endpoint.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}
