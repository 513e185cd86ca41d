package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cardshop/internal/auth"
	apperrors "cardshop/internal/errors"
	"cardshop/internal/lifecycle"
	"cardshop/internal/model"
	"cardshop/internal/repository"
)

const maxOfferImages = 10

// OfferInput is the content of a resale offer.
type OfferInput struct {
	Title       string          `validate:"required,max=255"`
	Description string          `validate:"max=5000"`
	Price       decimal.Decimal `validate:"-"`
	Images      []string        `validate:"min=1,max=10,dive,required,max=255"`
}

// OfferService runs the resale workflow: users submit cards for buyback,
// admins accept or deny, users ship and admins confirm the payout.
type OfferService interface {
	Create(ctx context.Context, session *auth.Session, in OfferInput) (*model.Offer, error)
	Update(ctx context.Context, session *auth.Session, id string, in OfferInput) (*model.Offer, error)
	Get(ctx context.Context, session *auth.Session, id string) (*model.Offer, error)
	ListMine(ctx context.Context, session *auth.Session) ([]model.Offer, error)
	ListAll(ctx context.Context, session *auth.Session, status model.OfferStatus) ([]model.Offer, error)
	Delete(ctx context.Context, session *auth.Session, id string) error

	Accept(ctx context.Context, session *auth.Session, id string) (*model.Offer, error)
	Deny(ctx context.Context, session *auth.Session, id string) (*model.Offer, error)
	AddTracking(ctx context.Context, session *auth.Session, id, trackNumber string) (*model.Offer, error)
	ConfirmPayment(ctx context.Context, session *auth.Session, id string) (*model.Offer, error)
}

type offerService struct {
	repo    repository.OfferRepository
	machine *lifecycle.OfferStateMachine
	logger  *zap.Logger
}

// NewOfferService creates a new offer service.
func NewOfferService(repo repository.OfferRepository, logger *zap.Logger) OfferService {
	return &offerService{
		repo:    repo,
		machine: lifecycle.NewOfferStateMachine(),
		logger:  logger,
	}
}

func (s *offerService) Create(ctx context.Context, session *auth.Session, in OfferInput) (*model.Offer, error) {
	if session == nil {
		return nil, apperrors.ErrUnauthorized
	}
	in, err := normalizeOffer(in)
	if err != nil {
		return nil, err
	}

	offer := &model.Offer{
		UserID:      session.UserID,
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Images:      in.Images,
		Status:      model.OfferStatusSubmitted,
	}
	if err := s.repo.Create(ctx, offer); err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}

	s.logger.Info("offer submitted",
		zap.String("offer_id", offer.ID),
		zap.String("user_id", offer.UserID),
		zap.String("price", offer.Price.String()),
	)
	return offer, nil
}

// Update replaces the content of an offer that has not been reviewed yet.
func (s *offerService) Update(ctx context.Context, session *auth.Session, id string, in OfferInput) (*model.Offer, error) {
	offer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.CanEditOffer(session, offer); err != nil {
		return nil, err
	}
	in, err = normalizeOffer(in)
	if err != nil {
		return nil, err
	}

	// map updates bypass the json serializer of the images column
	images, err := json.Marshal(in.Images)
	if err != nil {
		return nil, fmt.Errorf("encode images: %w", err)
	}
	fields := map[string]interface{}{
		"title":       in.Title,
		"description": in.Description,
		"price":       in.Price,
		"images":      string(images),
	}
	if err := s.repo.UpdateFields(ctx, offer.ID, offer.Version, fields); err != nil {
		return nil, fmt.Errorf("update offer: %w", err)
	}
	return s.repo.FindByID(ctx, offer.ID)
}

func (s *offerService) Get(ctx context.Context, session *auth.Session, id string) (*model.Offer, error) {
	offer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.CanViewOffer(session, offer); err != nil {
		return nil, err
	}
	return offer, nil
}

func (s *offerService) ListMine(ctx context.Context, session *auth.Session) ([]model.Offer, error) {
	if session == nil {
		return nil, apperrors.ErrUnauthorized
	}
	return s.repo.ListByUser(ctx, session.UserID)
}

// ListAll returns every offer, optionally in a single status. Admin only.
func (s *offerService) ListAll(ctx context.Context, session *auth.Session, status model.OfferStatus) ([]model.Offer, error) {
	if err := auth.CanReviewOffer(session, nil); err != nil {
		return nil, err
	}
	if status != "" && !lifecycle.ValidOfferStatus(status) {
		return nil, invalid("unknown offer status %q", status)
	}
	return s.repo.List(ctx, status)
}

func (s *offerService) Delete(ctx context.Context, session *auth.Session, id string) error {
	offer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.CanDeleteOffer(session, offer); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, offer.ID); err != nil {
		return fmt.Errorf("delete offer: %w", err)
	}
	s.logger.Info("offer deleted", zap.String("offer_id", offer.ID), zap.String("by", session.UserID))
	return nil
}

func (s *offerService) Accept(ctx context.Context, session *auth.Session, id string) (*model.Offer, error) {
	return s.apply(ctx, session, id, lifecycle.OfferAccept, auth.CanReviewOffer, nil)
}

func (s *offerService) Deny(ctx context.Context, session *auth.Session, id string) (*model.Offer, error) {
	return s.apply(ctx, session, id, lifecycle.OfferDeny, auth.CanReviewOffer, nil)
}

// AddTracking records the parcel the owner shipped the cards in. Calling it
// again while the offer is sent replaces the tracking number.
func (s *offerService) AddTracking(ctx context.Context, session *auth.Session, id, trackNumber string) (*model.Offer, error) {
	trackNumber = strings.TrimSpace(trackNumber)
	if trackNumber == "" {
		return nil, invalid("tracking number is required")
	}
	if len(trackNumber) > 100 {
		return nil, invalid("tracking number is too long")
	}
	return s.apply(ctx, session, id, lifecycle.OfferAddTracking, auth.CanTrackOffer, map[string]interface{}{
		"track_number": trackNumber,
	})
}

func (s *offerService) ConfirmPayment(ctx context.Context, session *auth.Session, id string) (*model.Offer, error) {
	return s.apply(ctx, session, id, lifecycle.OfferConfirmPayment, auth.CanReviewOffer, nil)
}

// apply loads the offer, checks the caller's capability and the transition
// table, then writes the new status guarded by the row version. Nothing is
// written when the offer already is in the target state with the same
// extra fields.
func (s *offerService) apply(
	ctx context.Context,
	session *auth.Session,
	id string,
	action lifecycle.OfferAction,
	allowed func(*auth.Session, *model.Offer) error,
	extra map[string]interface{},
) (*model.Offer, error) {
	offer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := allowed(session, offer); err != nil {
		return nil, err
	}

	next, err := s.machine.Next(offer.Status, action)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if next != offer.Status {
		fields["status"] = next
	}
	if track, ok := extra["track_number"].(string); ok && track != offer.TrackNumber {
		fields["track_number"] = track
	}
	if len(fields) == 0 {
		return offer, nil
	}

	if err := s.repo.UpdateFields(ctx, offer.ID, offer.Version, fields); err != nil {
		return nil, fmt.Errorf("%s offer: %w", action, err)
	}

	s.logger.Info("offer transition",
		zap.String("offer_id", offer.ID),
		zap.String("action", string(action)),
		zap.String("from", string(offer.Status)),
		zap.String("to", string(next)),
		zap.String("by", session.UserID),
	)
	return s.repo.FindByID(ctx, offer.ID)
}

func normalizeOffer(in OfferInput) (OfferInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validateStruct(in); err != nil {
		return in, err
	}
	if len(in.Images) > maxOfferImages {
		return in, invalid("at most %d images", maxOfferImages)
	}
	if !in.Price.IsPositive() {
		return in, invalid("price must be greater than zero")
	}
	in.Price = in.Price.Round(2)
	return in, nil
}
