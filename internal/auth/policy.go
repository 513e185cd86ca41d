package auth

import (
	"fmt"

	apperrors "cardshop/internal/errors"
	"cardshop/internal/lifecycle"
	"cardshop/internal/model"
)

// Capability checks for every mutating operation live here so that handlers
// and services never compare ids themselves. Each returns nil to allow.

func owns(s *Session, userID string) bool {
	return s != nil && s.UserID != "" && s.UserID == userID
}

func deny(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{apperrors.ErrForbidden}, args...)...)
}

// CanViewOffer allows the owner and admins.
func CanViewOffer(s *Session, offer *model.Offer) error {
	if s == nil {
		return apperrors.ErrUnauthorized
	}
	if s.IsAdmin() || owns(s, offer.UserID) {
		return nil
	}
	return deny("offer %s belongs to another user", offer.ID)
}

// CanEditOffer allows the owner while the offer is still submitted.
func CanEditOffer(s *Session, offer *model.Offer) error {
	if s == nil {
		return apperrors.ErrUnauthorized
	}
	if !owns(s, offer.UserID) {
		return deny("offer %s belongs to another user", offer.ID)
	}
	if !lifecycle.OfferEditable(offer.Status) {
		return fmt.Errorf("%w: offer in status %s can no longer be edited", apperrors.ErrInvalidTransition, offer.Status)
	}
	return nil
}

// CanTrackOffer allows only the owner, who is the one shipping the cards.
func CanTrackOffer(s *Session, offer *model.Offer) error {
	if s == nil {
		return apperrors.ErrUnauthorized
	}
	if !owns(s, offer.UserID) {
		return deny("offer %s belongs to another user", offer.ID)
	}
	return nil
}

// CanReviewOffer allows admins to accept, deny and confirm payment.
func CanReviewOffer(s *Session, _ *model.Offer) error {
	if s == nil {
		return apperrors.ErrUnauthorized
	}
	if !s.IsAdmin() {
		return deny("admin required")
	}
	return nil
}

// CanDeleteOffer allows admins at any time and owners before the offer is in shipment.
func CanDeleteOffer(s *Session, offer *model.Offer) error {
	if s == nil {
		return apperrors.ErrUnauthorized
	}
	if s.IsAdmin() {
		return nil
	}
	if !owns(s, offer.UserID) {
		return deny("offer %s belongs to another user", offer.ID)
	}
	if !lifecycle.OfferOwnerDeletable(offer.Status) {
		return fmt.Errorf("%w: offer in status %s can only be removed by an admin", apperrors.ErrInvalidTransition, offer.Status)
	}
	return nil
}

// CanViewOrder allows the buyer and admins.
func CanViewOrder(s *Session, order *model.Order) error {
	if s == nil {
		return apperrors.ErrUnauthorized
	}
	if s.IsAdmin() || owns(s, order.UserID) {
		return nil
	}
	return deny("order %s belongs to another user", order.ID)
}

// CanEditProfile allows a user to change only their own profile.
func CanEditProfile(s *Session, profile *model.Profile) error {
	if s == nil {
		return apperrors.ErrUnauthorized
	}
	if !owns(s, profile.UserID) {
		return deny("profile belongs to another user")
	}
	return nil
}

// CanViewImage allows the uploader and admins. Images uploaded by admins are
// catalog art and visible to every signed-in user.
func CanViewImage(s *Session, ownerID string, public bool) error {
	if s == nil {
		return apperrors.ErrUnauthorized
	}
	if public || s.IsAdmin() || owns(s, ownerID) {
		return nil
	}
	return deny("image belongs to another user")
}
