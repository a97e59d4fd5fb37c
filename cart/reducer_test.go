package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dish(id string, price int64, qty int) Dish {
	return Dish{ID: id, Name: "dish " + id, Price: decimal.NewFromInt(price), Quantity: qty}
}

func add(item Dish, restaurant, branch, table string) AddToCart {
	return AddToCart{Item: item, RestaurantID: restaurant, BranchID: branch, TableID: table}
}

func ids(s State) []string {
	out := make([]string, 0, len(s.Items))
	for _, it := range s.Items {
		out = append(out, it.ID)
	}
	return out
}

func TestAddToCart_BindsEmptyCart(t *testing.T) {
	s := Reduce(New(), AddToCart{
		Item:          dish("a", 10, 1),
		RestaurantID:  "r1",
		BranchID:      "b1",
		TableID:       "t1",
		PaymentAPIKey: "key",
		Tax:           decimal.NewFromInt(15),
	})

	assert.Equal(t, []string{"a"}, ids(s))
	assert.Equal(t, "r1", s.RestaurantID)
	assert.Equal(t, "b1", s.BranchID)
	assert.Equal(t, "t1", s.TableID)
	assert.Equal(t, "key", s.PaymentAPIKey)
	assert.True(t, s.Tax.Equal(decimal.NewFromInt(15)))
	assert.Empty(t, s.Error)
}

func TestAddToCart_DuplicateIDDoesNotMergeQuantity(t *testing.T) {
	s := Reduce(New(), add(dish("a", 10, 2), "r1", "b1", "t1"))
	s = Reduce(s, add(dish("a", 10, 5), "r1", "b1", "t1"))
	s = Reduce(s, add(dish("b", 4, 1), "r1", "b1", "t1"))
	s = Reduce(s, add(dish("a", 10, 1), "r1", "b1", "t1"))

	require.Equal(t, []string{"a", "b"}, ids(s))
	assert.Equal(t, 2, s.Items[0].Quantity)
}

func TestAddToCart_DefaultsQuantityToOne(t *testing.T) {
	s := Reduce(New(), add(dish("a", 10, 0), "r1", "b1", "t1"))

	require.Len(t, s.Items, 1)
	assert.Equal(t, 1, s.Items[0].Quantity)
}

func TestAddToCart_RejectsOtherEstablishment(t *testing.T) {
	s := Reduce(New(), add(dish("a", 10, 1), "r1", "b1", "t1"))

	tests := []struct {
		name       string
		restaurant string
		branch     string
	}{
		{"other restaurant", "r2", "b1"},
		{"other branch", "r1", "b2"},
		{"both differ", "r2", "b2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(s, add(dish("b", 5, 1), tt.restaurant, tt.branch, "t9"))

			assert.Equal(t, ErrMsgEstablishmentConflict, got.Error)
			assert.Equal(t, []string{"a"}, ids(got))
			assert.Equal(t, "r1", got.RestaurantID)
			assert.Equal(t, "b1", got.BranchID)
			assert.Equal(t, "t1", got.TableID)
		})
	}
}

func TestAddToCart_SameEstablishmentClearsErrorAndRebindsTable(t *testing.T) {
	s := Reduce(New(), add(dish("a", 10, 1), "r1", "b1", "t1"))
	s = Reduce(s, add(dish("b", 5, 1), "r2", "b1", "t1"))
	require.NotEmpty(t, s.Error)

	s = Reduce(s, AddToCart{Item: dish("c", 3, 1), RestaurantID: "r1", BranchID: "b1", TableID: "t2"})

	assert.Empty(t, s.Error)
	assert.Equal(t, "t2", s.TableID)
	assert.Equal(t, []string{"a", "c"}, ids(s))
}

func TestAddToCart_OverwritesMetadata(t *testing.T) {
	s := Reduce(New(), AddToCart{
		Item: dish("a", 10, 1), RestaurantID: "r1", BranchID: "b1",
		PaymentAPIKey: "k1", ServiceCharge: decimal.NewFromInt(10),
	})
	s = Reduce(s, AddToCart{Item: dish("a", 10, 1), RestaurantID: "r1", BranchID: "b1"})

	assert.Empty(t, s.PaymentAPIKey)
	assert.True(t, s.ServiceCharge.IsZero())
}

func TestUpdateQuantity(t *testing.T) {
	s := Reduce(New(), add(dish("a", 10, 1), "r1", "b1", "t1"))
	s = Reduce(s, add(dish("b", 5, 1), "r1", "b1", "t1"))

	s = Reduce(s, UpdateQuantity{ID: "a", Quantity: 4})
	got, ok := s.Find("a")
	require.True(t, ok)
	assert.Equal(t, 4, got.Quantity)

	s = Reduce(s, UpdateQuantity{ID: "b", Quantity: -3})
	assert.Equal(t, []string{"a"}, ids(s))
	assert.Equal(t, "r1", s.RestaurantID)

	s = Reduce(s, UpdateQuantity{ID: "missing", Quantity: 9})
	assert.Equal(t, []string{"a"}, ids(s))
}

func TestUpdateQuantity_ZeroOnLastItemResetsCart(t *testing.T) {
	s := Reduce(New(), add(dish("a", 10, 1), "r1", "b1", "t1"))
	s = Reduce(s, SetCoupon("SAVE10"))
	s = Reduce(s, SetDiscount(decimal.NewFromInt(3)))
	s = Reduce(s, SetRemarks{"a": "no onions"})
	s = Reduce(s, SetTransactionID("tx-1"))
	s = Reduce(s, SetCustomerInfo{CustomerName: "Abebe"})

	s = Reduce(s, UpdateQuantity{ID: "a", Quantity: 0})

	assert.Empty(t, s.Items)
	assert.Empty(t, s.RestaurantID)
	assert.Empty(t, s.BranchID)
	assert.Empty(t, s.TableID)
	assert.Empty(t, s.Coupon)
	assert.Empty(t, s.Remarks)
	assert.Empty(t, s.TransactionID)
	assert.Empty(t, s.Error)
	assert.True(t, s.Discount.IsZero())
	assert.Equal(t, "Abebe", s.CustomerName)
}

func TestRemoveFromCart(t *testing.T) {
	s := Reduce(New(), add(dish("a", 10, 1), "r1", "b1", "t1"))
	s = Reduce(s, add(dish("b", 5, 1), "r1", "b1", "t1"))
	s = Reduce(s, SetRemarks{"a": "spicy", "b": "cold"})

	s = Reduce(s, RemoveFromCart{ID: "a"})
	assert.Equal(t, []string{"b"}, ids(s))
	// remarks of removed items stay until the cart empties
	assert.Equal(t, "spicy", s.Remarks["a"])

	s = Reduce(s, RemoveFromCart{ID: "b"})
	assert.Empty(t, s.Items)
	assert.Empty(t, s.RestaurantID)
	assert.Empty(t, s.Remarks)
}

func TestReorder_SameEstablishmentAccumulates(t *testing.T) {
	s := Reduce(New(), add(dish("x", 10, 1), "r1", "b1", "t1"))

	s = Reduce(s, Reorder{
		Items:        []Dish{dish("x", 10, 2), dish("y", 7, 1)},
		RestaurantID: "r1", BranchID: "b1", TableID: "t1",
	})

	require.Equal(t, []string{"x", "y"}, ids(s))
	assert.Equal(t, 3, s.Items[0].Quantity)
	assert.Equal(t, 1, s.Items[1].Quantity)
}

func TestReorder_DifferentEstablishmentDiscardsItems(t *testing.T) {
	s := Reduce(New(), add(dish("x", 10, 1), "r1", "b1", "t1"))
	s = Reduce(s, add(dish("z", 10, 1), "r1", "b1", "t1"))

	s = Reduce(s, Reorder{
		Items:        []Dish{dish("x", 10, 2)},
		RestaurantID: "r2", BranchID: "b2", TableID: "t5",
	})

	require.Equal(t, []string{"x"}, ids(s))
	assert.Equal(t, 2, s.Items[0].Quantity)
	assert.Equal(t, "r2", s.RestaurantID)
	assert.Equal(t, "b2", s.BranchID)
	assert.Equal(t, "t5", s.TableID)
}

func TestReorder_DifferentTableOnlyDiscardsItems(t *testing.T) {
	s := Reduce(New(), add(dish("x", 10, 1), "r1", "b1", "t1"))

	s = Reduce(s, Reorder{Items: []Dish{dish("x", 10, 2)}, RestaurantID: "r1", BranchID: "b1", TableID: "t2"})

	require.Len(t, s.Items, 1)
	assert.Equal(t, 2, s.Items[0].Quantity)
	assert.Equal(t, "t2", s.TableID)
}

func TestReorder_EmptyIncomingLeavesUnboundCart(t *testing.T) {
	s := Reduce(New(), Reorder{RestaurantID: "r1", BranchID: "b1", TableID: "t1"})

	assert.Empty(t, s.Items)
	assert.False(t, s.IsBound())
}

func TestReorder_DropsNonPositiveQuantities(t *testing.T) {
	s := Reduce(New(), Reorder{
		Items:        []Dish{dish("x", 10, 0), dish("y", 10, 2)},
		RestaurantID: "r1", BranchID: "b1", TableID: "t1",
	})

	assert.Equal(t, []string{"y"}, ids(s))
}

func TestSetRemarks_Merges(t *testing.T) {
	s := Reduce(New(), SetRemarks{"a": "one", "b": "two"})
	s = Reduce(s, SetRemarks{"b": "three", "c": "four"})

	assert.Equal(t, map[string]string{"a": "one", "b": "three", "c": "four"}, s.Remarks)
}

func TestScalarSetters(t *testing.T) {
	s := Reduce(New(), SetCoupon("WELCOME"))
	s = Reduce(s, SetDiscount(decimal.RequireFromString("12.50")))
	s = Reduce(s, SetRedeemAmount(decimal.NewFromInt(4)))
	s = Reduce(s, SetTransactionID("tx-9"))

	assert.Equal(t, "WELCOME", s.Coupon)
	assert.Equal(t, "12.5", s.Discount.String())
	assert.Equal(t, "4", s.RedeemAmount.String())
	assert.Equal(t, "tx-9", s.TransactionID)
}

func TestSetCustomerInfo_EmptyKeepsPrevious(t *testing.T) {
	s := Reduce(New(), SetCustomerInfo{CustomerName: "Hana", ContactNumber: "0911", TinNumber: "T1"})
	s = Reduce(s, SetCustomerInfo{CustomerName: ""})
	s = Reduce(s, SetCustomerInfo{ContactNumber: "0922"})

	assert.Equal(t, "Hana", s.CustomerName)
	assert.Equal(t, "0922", s.ContactNumber)
	assert.Equal(t, "T1", s.TinNumber)
}

func TestClearCartError(t *testing.T) {
	s := Reduce(New(), add(dish("a", 10, 1), "r1", "b1", "t1"))
	s = Reduce(s, add(dish("b", 10, 1), "r2", "b1", "t1"))
	require.NotEmpty(t, s.Error)

	s = Reduce(s, ClearCartError{})

	assert.Empty(t, s.Error)
	assert.Equal(t, []string{"a"}, ids(s))
}

func TestClearCart_KeepsCustomerInfo(t *testing.T) {
	s := Reduce(New(), add(dish("a", 10, 1), "r1", "b1", "t1"))
	s = Reduce(s, SetCustomerInfo{CustomerName: "Hana", ContactNumber: "0911", TinNumber: "T1"})
	s = Reduce(s, SetDiscount(decimal.NewFromInt(2)))
	s = Reduce(s, SetRedeemAmount(decimal.NewFromInt(1)))

	s = Reduce(s, ClearCart{})

	assert.Empty(t, s.Items)
	assert.False(t, s.IsBound())
	assert.True(t, s.Discount.IsZero())
	assert.Equal(t, "Hana", s.CustomerName)
	assert.Equal(t, "0911", s.ContactNumber)
	assert.Equal(t, "T1", s.TinNumber)
	assert.Equal(t, "1", s.RedeemAmount.String())
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	s := Reduce(New(), add(dish("a", 10, 1), "r1", "b1", "t1"))
	s = Reduce(s, add(dish("b", 10, 1), "r1", "b1", "t1"))
	s = Reduce(s, SetRemarks{"a": "x"})

	_ = Reduce(s, UpdateQuantity{ID: "a", Quantity: 7})
	_ = Reduce(s, RemoveFromCart{ID: "a"})
	_ = Reduce(s, SetRemarks{"a": "changed"})

	assert.Equal(t, []string{"a", "b"}, ids(s))
	assert.Equal(t, 1, s.Items[0].Quantity)
	assert.Equal(t, "x", s.Remarks["a"])
}

func TestConflictScenario(t *testing.T) {
	s := New()
	s = Reduce(s, add(dish("a", 10, 1), "1", "1", "1"))
	assert.Equal(t, []string{"a"}, ids(s))
	assert.Equal(t, "1", s.RestaurantID)

	s = Reduce(s, add(dish("b", 10, 1), "2", "1", "1"))
	assert.NotEmpty(t, s.Error)
	assert.Equal(t, []string{"a"}, ids(s))

	s = Reduce(s, UpdateQuantity{ID: "a", Quantity: 0})
	assert.Empty(t, s.Items)
	assert.Empty(t, s.RestaurantID)
	assert.Empty(t, s.Error)
}

func TestTotals(t *testing.T) {
	s := Reduce(New(), AddToCart{
		Item:          dish("a", 100, 1),
		RestaurantID:  "r1",
		BranchID:      "b1",
		Tax:           decimal.NewFromInt(15),
		ServiceCharge: decimal.NewFromInt(10),
	})
	s = Reduce(s, UpdateQuantity{ID: "a", Quantity: 2})
	s = Reduce(s, SetDiscount(decimal.NewFromInt(20)))

	assert.Equal(t, 2, s.ItemCount())
	assert.Equal(t, "200", s.Subtotal().String())
	// 200 + 30 tax + 20 service - 20 discount
	assert.Equal(t, "230", s.Total().String())

	s = Reduce(s, SetRedeemAmount(decimal.NewFromInt(1000)))
	assert.True(t, s.Total().IsZero())
}
