package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitionTable(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusConfirmed, StatusShipped},
		{StatusConfirmed, StatusCancelled},
		{StatusShipped, StatusDelivered},
		{StatusShipped, StatusCancelled},
	}
	for _, tc := range allowed {
		assert.NoError(t, CheckTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}

	denied := []struct{ from, to Status }{
		{StatusConfirmed, StatusDelivered}, // no skipping shipment
		{StatusShipped, StatusConfirmed},
		{StatusDelivered, StatusCancelled}, // terminal
		{StatusDelivered, StatusShipped},
		{StatusCancelled, StatusConfirmed}, // terminal
		{StatusCancelled, StatusShipped},
	}
	for _, tc := range denied {
		assert.ErrorIs(t, CheckTransition(tc.from, tc.to), ErrInvalidTransition, "%s -> %s", tc.from, tc.to)
	}
}

func TestCheckTransitionUnknownStatus(t *testing.T) {
	assert.ErrorIs(t, CheckTransition(Status("pending"), StatusShipped), ErrInvalidTransition)
	assert.ErrorIs(t, CheckTransition(StatusConfirmed, Status("archived")), ErrInvalidTransition)
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled} {
		assert.True(t, s.Valid())
	}
	assert.False(t, Status("pending").Valid())
	assert.False(t, Status("").Valid())
}

func TestPaymentMethodValid(t *testing.T) {
	assert.True(t, PaymentCashOnDelivery.Valid())
	assert.True(t, PaymentCreditCard.Valid())
	assert.False(t, PaymentMethod("wire").Valid())
}
