package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCoupon_AppliesTo(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past, future := now.Add(-time.Hour), now.Add(time.Hour)

	tests := []struct {
		name   string
		coupon Coupon
		branch string
		want   bool
	}{
		{"global", Coupon{IsValid: true, IsGlobal: true}, "b1", true},
		{"linked branch", Coupon{IsValid: true, BranchIDs: []string{"b1", "b2"}}, "b2", true},
		{"other branch", Coupon{IsValid: true, BranchIDs: []string{"b1"}}, "b3", false},
		{"switched off", Coupon{IsValid: false, IsGlobal: true}, "b1", false},
		{"not started", Coupon{IsValid: true, IsGlobal: true, ValidFrom: &future}, "b1", false},
		{"expired", Coupon{IsValid: true, IsGlobal: true, ValidUntil: &past}, "b1", false},
		{"in window", Coupon{IsValid: true, IsGlobal: true, ValidFrom: &past, ValidUntil: &future}, "b1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.coupon.AppliesTo(tt.branch, now))
		})
	}
}

func TestCoupon_DiscountFor(t *testing.T) {
	pct := Coupon{IsPercentage: true, DiscountAmount: decimal.NewFromInt(15)}
	assert.Equal(t, "18.75", pct.DiscountFor(decimal.NewFromInt(125)).StringFixed(2))

	fixed := Coupon{DiscountAmount: decimal.NewFromInt(50)}
	assert.Equal(t, "50.00", fixed.DiscountFor(decimal.NewFromInt(80)).StringFixed(2))
	assert.Equal(t, "30.00", fixed.DiscountFor(decimal.NewFromInt(30)).StringFixed(2))
}

func TestOrder_CartDishes(t *testing.T) {
	o := Order{Items: []OrderItem{
		{MenuItemID: "m1", Name: "Tibs", Price: decimal.NewFromInt(220), Quantity: 2},
		{MenuItemID: "m2", Name: "Tej", Price: decimal.NewFromInt(80), Quantity: 1},
	}}
	dishes := o.CartDishes()
	assert.Len(t, dishes, 2)
	assert.Equal(t, "m1", dishes[0].ID)
	assert.Equal(t, 2, dishes[0].Quantity)
	assert.True(t, decimal.NewFromInt(220).Equal(dishes[0].Price))
}

func TestStatusAndUserTypeValid(t *testing.T) {
	assert.True(t, StatusPaymentComplete.Valid())
	assert.False(t, OrderStatus("picked_up").Valid())
	assert.True(t, UserRestaurant.Valid())
	assert.False(t, UserType("driver").Valid())
}
