package statemachine

import (
	"testing"

	"dine-in-ordering/models"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.OrderStatus
		actor    string
		ok       bool
	}{
		{models.StatusPlaced, models.StatusProgress, ActorRestaurant, true},
		{models.StatusPlaced, models.StatusProgress, ActorCustomer, false},
		{models.StatusPlaced, models.StatusCancelled, ActorCustomer, true},
		{models.StatusProgress, models.StatusCancelled, ActorCustomer, false},
		{models.StatusProgress, models.StatusDelivered, ActorRestaurant, true},
		{models.StatusDelivered, models.StatusPaymentComplete, ActorSystem, true},
		{models.StatusPendingPayment, models.StatusPlaced, ActorSystem, true},
		{models.StatusPendingPayment, models.StatusPlaced, ActorCustomer, false},
		{models.StatusCancelled, models.StatusPlaced, ActorRestaurant, false},
	}
	for _, tt := range tests {
		err := CanTransition(tt.from, tt.to, tt.actor)
		if tt.ok {
			assert.NoError(t, err, "%s -> %s by %s", tt.from, tt.to, tt.actor)
		} else {
			assert.Error(t, err, "%s -> %s by %s", tt.from, tt.to, tt.actor)
		}
	}
}

func TestCanTransition_ErrorListsValidNextStates(t *testing.T) {
	err := CanTransition(models.StatusPlaced, models.StatusDelivered, ActorRestaurant)
	assert.ErrorContains(t, err, "progress, cancelled")

	err = CanTransition(models.StatusCancelled, models.StatusPlaced, ActorRestaurant)
	assert.ErrorContains(t, err, "none (terminal state)")
}

func TestValidTransitionsFrom(t *testing.T) {
	assert.Equal(t,
		[]models.OrderStatus{models.StatusPlaced, models.StatusCancelled},
		ValidTransitionsFrom(models.StatusPendingPayment))
	assert.Empty(t, ValidTransitionsFrom(models.StatusPaymentComplete))
	assert.True(t, IsTerminal(models.StatusCancelled))
	assert.False(t, IsTerminal(models.StatusProgress))
}
