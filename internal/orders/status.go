package orders

import (
	"errors"
	"fmt"
)

// Status is the order lifecycle state. Orders are created confirmed; the
// seller moves them to shipped and delivered, the customer may cancel before
// delivery. delivered and cancelled are terminal.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// ErrInvalidTransition rejects a status change the transition table does not
// allow.
var ErrInvalidTransition = errors.New("invalid status transition")

var validTransitions = map[Status][]Status{
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered, StatusCancelled},
	StatusDelivered: {},
	StatusCancelled: {},
}

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

// CanTransitionTo reports whether the transition table allows s -> target.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// CheckTransition returns nil when s -> target is allowed, or a descriptive
// ErrInvalidTransition otherwise.
func CheckTransition(s, target Status) error {
	if !s.Valid() || !target.Valid() {
		return fmt.Errorf("%w: unknown status %q -> %q", ErrInvalidTransition, s, target)
	}
	if !s.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, target)
	}
	return nil
}
