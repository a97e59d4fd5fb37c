package cart

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"
)

// ErrMsgEstablishmentConflict is stored in State.Error when an item from a
// different restaurant or branch is added to a non-empty cart.
const ErrMsgEstablishmentConflict = "You cannot add items from different restaurant or branch."

var hundred = decimal.NewFromInt(100)

// Dish is a single cart line.
type Dish struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Image       string          `json:"image"`
}

// State is the in-progress order of one session. An empty RestaurantID,
// BranchID or TableID means the cart is not bound to an establishment.
type State struct {
	Items         []Dish            `json:"items"`
	RestaurantID  string            `json:"restaurant_id"`
	BranchID      string            `json:"branch_id"`
	TableID       string            `json:"table_id"`
	Discount      decimal.Decimal   `json:"discount"`
	RedeemAmount  decimal.Decimal   `json:"redeem_amount"`
	Coupon        string            `json:"coupon"`
	Remarks       map[string]string `json:"remarks"`
	TransactionID string            `json:"transaction_id"`
	Error         string            `json:"error"`

	PaymentAPIKey    string          `json:"payment_api_key,omitempty"`
	PaymentPublicKey string          `json:"payment_public_key,omitempty"`
	Tax              decimal.Decimal `json:"tax"`            // percent of subtotal
	ServiceCharge    decimal.Decimal `json:"service_charge"` // percent of subtotal

	CustomerName  string `json:"customer_name"`
	ContactNumber string `json:"contact_number"`
	TinNumber     string `json:"tin_number"`
}

// New returns an empty, unbound cart.
func New() State {
	return State{
		Items:   []Dish{},
		Remarks: map[string]string{},
	}
}

// IsEmpty reports whether the cart holds no items.
func (s State) IsEmpty() bool {
	return len(s.Items) == 0
}

// IsBound reports whether the cart is locked to an establishment.
func (s State) IsBound() bool {
	return s.RestaurantID != "" || s.BranchID != ""
}

// Find returns the item with the given id.
func (s State) Find(id string) (Dish, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.Items[i], true
	}
	return Dish{}, false
}

// ItemCount is the sum of all quantities.
func (s State) ItemCount() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

// Subtotal is the sum of price * quantity over all items.
func (s State) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// Total applies tax and service charge percentages to the subtotal, then
// subtracts discount and redeemed amount. It never goes below zero.
func (s State) Total() decimal.Decimal {
	sub := s.Subtotal()
	total := sub.
		Add(sub.Mul(s.Tax).Div(hundred)).
		Add(sub.Mul(s.ServiceCharge).Div(hundred)).
		Sub(s.Discount).
		Sub(s.RedeemAmount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total.Round(2)
}

// Clone returns a deep copy that shares no slices or maps with s.
func (s State) Clone() State {
	c := s
	c.Items = slices.Clone(s.Items)
	if c.Items == nil {
		c.Items = []Dish{}
	}
	c.Remarks = maps.Clone(s.Remarks)
	if c.Remarks == nil {
		c.Remarks = map[string]string{}
	}
	return c
}

func (s *State) indexOf(id string) int {
	return slices.IndexFunc(s.Items, func(d Dish) bool { return d.ID == id })
}

// reset returns every order-scoped field to its initial value. Walk-in
// customer details and payment/tax metadata survive.
func (s *State) reset() {
	s.Items = []Dish{}
	s.RestaurantID = ""
	s.BranchID = ""
	s.TableID = ""
	s.Coupon = ""
	s.Remarks = map[string]string{}
	s.TransactionID = ""
	s.Discount = decimal.Zero
	s.Error = ""
}
