package cart

import "github.com/shopspring/decimal"

// Action is a cart transition. Actions are applied by Reduce or Store.Dispatch.
type Action interface {
	apply(s *State)
}

// itemAction marks actions that change Items. The empty-cart reset runs
// after every one of them.
type itemAction interface {
	Action
	touchesItems()
}

// AddToCart appends Item unless an item with the same id is already present.
// The binding and payment metadata are overwritten with the values supplied.
type AddToCart struct {
	Item             Dish
	RestaurantID     string
	BranchID         string
	TableID          string
	PaymentAPIKey    string
	PaymentPublicKey string
	Tax              decimal.Decimal
	ServiceCharge    decimal.Decimal
}

func (a AddToCart) apply(s *State) {
	if !s.IsEmpty() && (s.RestaurantID != a.RestaurantID || s.BranchID != a.BranchID) {
		s.Error = ErrMsgEstablishmentConflict
		return
	}
	s.Error = ""
	if s.indexOf(a.Item.ID) < 0 {
		item := a.Item
		if item.Quantity <= 0 {
			item.Quantity = 1
		}
		s.Items = append(s.Items, item)
	}
	s.RestaurantID = a.RestaurantID
	s.BranchID = a.BranchID
	s.TableID = a.TableID
	s.PaymentAPIKey = a.PaymentAPIKey
	s.PaymentPublicKey = a.PaymentPublicKey
	s.Tax = a.Tax
	s.ServiceCharge = a.ServiceCharge
}

func (AddToCart) touchesItems() {}

// UpdateQuantity sets an item's quantity to an absolute value. Zero or less
// removes the item.
type UpdateQuantity struct {
	ID       string
	Quantity int
}

func (a UpdateQuantity) apply(s *State) {
	i := s.indexOf(a.ID)
	if i < 0 {
		return
	}
	if a.Quantity <= 0 {
		s.Items = append(s.Items[:i], s.Items[i+1:]...)
		return
	}
	s.Items[i].Quantity = a.Quantity
}

func (UpdateQuantity) touchesItems() {}

// RemoveFromCart drops the item with the given id.
type RemoveFromCart struct {
	ID string
}

func (a RemoveFromCart) apply(s *State) {
	if i := s.indexOf(a.ID); i >= 0 {
		s.Items = append(s.Items[:i], s.Items[i+1:]...)
	}
}

func (RemoveFromCart) touchesItems() {}

// Reorder re-populates the cart from a past order. A different
// restaurant/branch/table discards the current items first; otherwise
// quantities of matching ids accumulate.
type Reorder struct {
	Items        []Dish
	RestaurantID string
	BranchID     string
	TableID      string
}

func (a Reorder) apply(s *State) {
	if s.RestaurantID != a.RestaurantID || s.BranchID != a.BranchID || s.TableID != a.TableID {
		s.Items = []Dish{}
		s.RestaurantID = a.RestaurantID
		s.BranchID = a.BranchID
		s.TableID = a.TableID
	}
	for _, in := range a.Items {
		if i := s.indexOf(in.ID); i >= 0 {
			s.Items[i].Quantity += in.Quantity
			continue
		}
		s.Items = append(s.Items, in)
	}
}

func (Reorder) touchesItems() {}

// SetRemarks merges per-item notes into the existing map. Stale entries are kept.
type SetRemarks map[string]string

func (a SetRemarks) apply(s *State) {
	if s.Remarks == nil {
		s.Remarks = map[string]string{}
	}
	for id, text := range a {
		s.Remarks[id] = text
	}
}

// SetCoupon replaces the applied coupon code.
type SetCoupon string

func (a SetCoupon) apply(s *State) { s.Coupon = string(a) }

// SetDiscount replaces the server-computed discount.
type SetDiscount decimal.Decimal

func (a SetDiscount) apply(s *State) { s.Discount = decimal.Decimal(a) }

// SetRedeemAmount replaces the loyalty redeem amount.
type SetRedeemAmount decimal.Decimal

func (a SetRedeemAmount) apply(s *State) { s.RedeemAmount = decimal.Decimal(a) }

// SetTransactionID records the last payment transaction reference.
type SetTransactionID string

func (a SetTransactionID) apply(s *State) { s.TransactionID = string(a) }

// SetCustomerInfo updates walk-in customer details. Empty fields keep the
// previous value.
type SetCustomerInfo struct {
	CustomerName  string `json:"customer_name"`
	ContactNumber string `json:"contact_number"`
	TinNumber     string `json:"tin_number"`
}

func (a SetCustomerInfo) apply(s *State) {
	s.CustomerName = orElse(a.CustomerName, s.CustomerName)
	s.ContactNumber = orElse(a.ContactNumber, s.ContactNumber)
	s.TinNumber = orElse(a.TinNumber, s.TinNumber)
}

// ClearCartError clears the last validation error.
type ClearCartError struct{}

func (ClearCartError) apply(s *State) { s.Error = "" }

// ClearCart empties the cart. Customer details are not touched.
type ClearCart struct{}

func (ClearCart) apply(s *State) { s.reset() }

func orElse(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

// Hydrate replaces the whole cart, e.g. with the copy the server holds.
type Hydrate State

func (a Hydrate) apply(s *State) { *s = State(a).Clone() }

func (Hydrate) touchesItems() {}
