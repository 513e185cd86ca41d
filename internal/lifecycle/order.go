package lifecycle

import (
	"fmt"

	apperrors "cardshop/internal/errors"
	"cardshop/internal/model"
)

// OrderStateMachine validates and executes order status transitions.
type OrderStateMachine struct {
	transitions map[model.OrderStatus][]model.OrderStatus
}

// NewOrderStateMachine creates the purchase lifecycle: pending -> paid | cancelled.
func NewOrderStateMachine() *OrderStateMachine {
	return &OrderStateMachine{
		transitions: map[model.OrderStatus][]model.OrderStatus{
			model.OrderStatusPending:   {model.OrderStatusPaid, model.OrderStatusCancelled},
			model.OrderStatusPaid:      {}, // Terminal state
			model.OrderStatusCancelled: {}, // Terminal state
		},
	}
}

// CanTransition checks if a transition from `from` to `to` is valid.
func (sm *OrderStateMachine) CanTransition(from, to model.OrderStatus) bool {
	allowed, ok := sm.transitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves order to status `to`. It reports false without error when
// the order already has that status.
func (sm *OrderStateMachine) Transition(order *model.Order, to model.OrderStatus) (bool, error) {
	if order.Status == to {
		return false, nil
	}
	if !sm.CanTransition(order.Status, to) {
		return false, fmt.Errorf("%w: cannot transition order from %s to %s", apperrors.ErrInvalidTransition, order.Status, to)
	}
	order.Status = to
	return true, nil
}

// OrderTerminal reports whether no further transition leaves status.
func OrderTerminal(status model.OrderStatus) bool {
	return status == model.OrderStatusPaid || status == model.OrderStatusCancelled
}
