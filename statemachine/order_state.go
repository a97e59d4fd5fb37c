package statemachine

import (
	"errors"
	"strings"

	"dine-in-ordering/models"
)

// Actors allowed to drive a transition.
const (
	ActorCustomer   = "customer"
	ActorRestaurant = "restaurant"
	ActorSystem     = "system"
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
	Actor string             `json:"actor"`
}

// validTransitions is the authoritative state machine definition
var validTransitions = []Transition{
	// Payment gateway confirms a prepaid order
	{From: models.StatusPendingPayment, To: models.StatusPlaced, Actor: ActorSystem},
	{From: models.StatusPendingPayment, To: models.StatusCancelled, Actor: ActorCustomer},
	{From: models.StatusPendingPayment, To: models.StatusCancelled, Actor: ActorSystem},
	// Kitchen accepts, or either side cancels before cooking starts
	{From: models.StatusPlaced, To: models.StatusProgress, Actor: ActorRestaurant},
	{From: models.StatusPlaced, To: models.StatusCancelled, Actor: ActorRestaurant},
	{From: models.StatusPlaced, To: models.StatusCancelled, Actor: ActorCustomer},
	// Served at the table
	{From: models.StatusProgress, To: models.StatusDelivered, Actor: ActorRestaurant},
	// Paid at the table or by the gateway after serving
	{From: models.StatusDelivered, To: models.StatusPaymentComplete, Actor: ActorRestaurant},
	{From: models.StatusDelivered, To: models.StatusPaymentComplete, Actor: ActorSystem},
}

type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor string
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// IsTerminal reports whether no transition leaves status.
func IsTerminal(status models.OrderStatus) bool {
	return len(ValidTransitionsFrom(status)) == 0
}

// CanTransition checks if a given actor can move from one state to another
func CanTransition(from, to models.OrderStatus, actor string) error {
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return errors.New(
		"invalid transition: " + string(from) + " -> " + string(to) +
			" is not allowed for actor '" + actor + "'. " +
			"Valid transitions from " + string(from) + " are: " + describeValidFrom(from),
	)
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
