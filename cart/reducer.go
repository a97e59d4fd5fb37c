// Package cart holds the client-side cart: a pure reducer over State and a
// Store that owns one State and applies actions in dispatch order.
package cart

import "slices"

// Reduce applies a to a copy of s and returns the result. s is never modified.
// A nil action returns a copy of s unchanged.
func Reduce(s State, a Action) State {
	next := s.Clone()
	if a == nil {
		return next
	}
	a.apply(&next)
	if _, ok := a.(itemAction); ok {
		normalize(&next)
	}
	return next
}

// normalize enforces the item invariants after any action that touched
// Items: no line with a non-positive quantity, and an empty cart carries no
// binding, coupon, remarks, transaction or error.
func normalize(s *State) {
	s.Items = slices.DeleteFunc(s.Items, func(d Dish) bool { return d.Quantity <= 0 })
	if len(s.Items) == 0 {
		s.reset()
	}
}
