package domain

import (
	"canteen/internal/errors"
)

const (
	OrderStatusPlaced    = "placed"
	OrderStatusAccepted  = "accepted"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// allowedTransitions is the authoritative edge set of the order lifecycle.
// Key is the current status, value is the set of statuses it may move to.
// Completed and cancelled are terminal and have no outgoing edges.
var allowedTransitions = map[string][]string{
	OrderStatusPlaced:    {OrderStatusAccepted, OrderStatusCancelled},
	OrderStatusAccepted:  {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:     {OrderStatusCompleted, OrderStatusCancelled},
}

func IsValidStatus(s string) bool {
	switch s {
	case OrderStatusPlaced,
		OrderStatusAccepted,
		OrderStatusPreparing,
		OrderStatusReady,
		OrderStatusCompleted,
		OrderStatusCancelled:
		return true
	}
	return false
}

// Transition validates the edge from current to requested and returns the
// next status. It is a pure function: no clock, no store, no hidden state.
// Stamping completedAt/updatedAt on entry is the caller's job.
func Transition(current, requested string) (string, error) {
	allowed, ok := allowedTransitions[current]
	if !ok {
		return "", errors.NewInvalidTransitionError(current, requested)
	}
	for _, s := range allowed {
		if s == requested {
			return requested, nil
		}
	}
	return "", errors.NewInvalidTransitionError(current, requested)
}
