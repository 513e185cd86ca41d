// Package lifecycle holds the status machines of resale offers and shop orders.
package lifecycle

import (
	"fmt"

	apperrors "cardshop/internal/errors"
	"cardshop/internal/model"
)

// OfferAction names a transition of the resale workflow.
type OfferAction string

const (
	OfferAccept         OfferAction = "accept"
	OfferDeny           OfferAction = "deny"
	OfferAddTracking    OfferAction = "add-tracking"
	OfferConfirmPayment OfferAction = "confirm-payment"
)

type offerRule struct {
	from []model.OfferStatus
	to   model.OfferStatus
}

// OfferStateMachine validates offer transitions against the current status.
// A rule's source list contains its own target so re-applying a transition
// is a no-op.
type OfferStateMachine struct {
	rules map[OfferAction]offerRule
}

// NewOfferStateMachine creates the resale workflow:
// submitted -> accepted | denied, accepted -> sent -> success.
func NewOfferStateMachine() *OfferStateMachine {
	return &OfferStateMachine{
		rules: map[OfferAction]offerRule{
			OfferAccept: {
				from: []model.OfferStatus{model.OfferStatusSubmitted, model.OfferStatusAccepted},
				to:   model.OfferStatusAccepted,
			},
			OfferDeny: {
				from: []model.OfferStatus{model.OfferStatusSubmitted, model.OfferStatusAccepted, model.OfferStatusDenied},
				to:   model.OfferStatusDenied,
			},
			OfferAddTracking: {
				from: []model.OfferStatus{model.OfferStatusAccepted, model.OfferStatusSent},
				to:   model.OfferStatusSent,
			},
			OfferConfirmPayment: {
				from: []model.OfferStatus{model.OfferStatusSent, model.OfferStatusSuccess},
				to:   model.OfferStatusSuccess,
			},
		},
	}
}

// CanApply reports whether action is allowed from the current status.
func (sm *OfferStateMachine) CanApply(current model.OfferStatus, action OfferAction) bool {
	rule, ok := sm.rules[action]
	if !ok {
		return false
	}
	for _, s := range rule.from {
		if s == current {
			return true
		}
	}
	return false
}

// Next returns the status reached by applying action to current.
func (sm *OfferStateMachine) Next(current model.OfferStatus, action OfferAction) (model.OfferStatus, error) {
	if !sm.CanApply(current, action) {
		return current, fmt.Errorf("%w: cannot %s an offer in status %s", apperrors.ErrInvalidTransition, action, current)
	}
	return sm.rules[action].to, nil
}

// AllowedActions returns the actions that change the current status.
func (sm *OfferStateMachine) AllowedActions(current model.OfferStatus) []OfferAction {
	var actions []OfferAction
	for _, action := range []OfferAction{OfferAccept, OfferDeny, OfferAddTracking, OfferConfirmPayment} {
		rule := sm.rules[action]
		if rule.to != current && sm.CanApply(current, action) {
			actions = append(actions, action)
		}
	}
	return actions
}

// OfferEditable reports whether the owner may still change the offer content.
func OfferEditable(status model.OfferStatus) bool {
	return status == model.OfferStatusSubmitted
}

// OfferOwnerDeletable reports whether the owner may remove the offer. Once an
// admin reviewed it, accepted or denied, only an admin can delete it.
func OfferOwnerDeletable(status model.OfferStatus) bool {
	return status == model.OfferStatusSubmitted
}

// OfferTerminal reports whether no further transition leaves status.
func OfferTerminal(status model.OfferStatus) bool {
	return status == model.OfferStatusDenied || status == model.OfferStatusSuccess
}

// ValidOfferStatus reports whether s is one of the known statuses.
func ValidOfferStatus(s model.OfferStatus) bool {
	switch s {
	case model.OfferStatusSubmitted, model.OfferStatusAccepted, model.OfferStatusDenied,
		model.OfferStatusSent, model.OfferStatusSuccess:
		return true
	}
	return false
}
