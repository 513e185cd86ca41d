package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cardshop/internal/auth"
	apperrors "cardshop/internal/errors"
	"cardshop/internal/model"
)

var (
	seller = &auth.Session{UserID: "user-u", Email: "u@example.com", Admin: 0}
	other  = &auth.Session{UserID: "user-v", Email: "v@example.com", Admin: 0}
	admin  = &auth.Session{UserID: "admin-1", Email: "admin@example.com", Admin: 1}
)

func charizard() OfferInput {
	return OfferInput{
		Title:  "Charizard",
		Price:  decimal.NewFromInt(100),
		Images: []string{"0b8e2f7e-1c1a-4c35-9a2b-000000000001"},
	}
}

func newOfferService() (OfferService, *memOffers) {
	repo := newMemOffers()
	return NewOfferService(repo, zap.NewNop()), repo
}

func TestOfferService_CharizardFlow(t *testing.T) {
	service, _ := newOfferService()
	ctx := context.Background()

	offer, err := service.Create(ctx, seller, charizard())
	require.NoError(t, err)
	assert.Equal(t, model.OfferStatusSubmitted, offer.Status)
	assert.Equal(t, seller.UserID, offer.UserID)

	offer, err = service.Accept(ctx, admin, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OfferStatusAccepted, offer.Status)

	offer, err = service.AddTracking(ctx, seller, offer.ID, " 1Z999 ")
	require.NoError(t, err)
	assert.Equal(t, model.OfferStatusSent, offer.Status)
	assert.Equal(t, "1Z999", offer.TrackNumber)

	offer, err = service.ConfirmPayment(ctx, admin, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OfferStatusSuccess, offer.Status)

	// confirming again is a no-op
	again, err := service.ConfirmPayment(ctx, admin, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OfferStatusSuccess, again.Status)
	assert.Equal(t, offer.Version, again.Version)
}

func TestOfferService_DenyIsTerminal(t *testing.T) {
	service, repo := newOfferService()
	ctx := context.Background()

	offer := must(service.Create(ctx, seller, charizard()))
	offer, err := service.Deny(ctx, admin, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OfferStatusDenied, offer.Status)
	writes := repo.writes

	_, err = service.Deny(ctx, admin, offer.ID)
	require.NoError(t, err)

	_, err = service.AddTracking(ctx, seller, offer.ID, "X")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	_, err = service.Accept(ctx, admin, offer.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	_, err = service.ConfirmPayment(ctx, admin, offer.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	stored := must(repo.FindByID(ctx, offer.ID))
	assert.Equal(t, model.OfferStatusDenied, stored.Status)
	assert.Empty(t, stored.TrackNumber)
	assert.Equal(t, writes, repo.writes)
}

func TestOfferService_TransitionsRequireTheRightActor(t *testing.T) {
	service, _ := newOfferService()
	ctx := context.Background()
	offer := must(service.Create(ctx, seller, charizard()))

	_, err := service.Accept(ctx, seller, offer.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = service.Accept(ctx, nil, offer.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	must(service.Accept(ctx, admin, offer.ID))

	_, err = service.AddTracking(ctx, other, offer.ID, "1Z999")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = service.AddTracking(ctx, seller, offer.ID, "   ")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = service.Get(ctx, other, offer.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = service.Get(ctx, admin, offer.ID)
	assert.NoError(t, err)
}

func TestOfferService_AddTrackingReplacesNumberWhileSent(t *testing.T) {
	service, _ := newOfferService()
	ctx := context.Background()
	offer := must(service.Create(ctx, seller, charizard()))
	must(service.Accept(ctx, admin, offer.ID))
	must(service.AddTracking(ctx, seller, offer.ID, "1Z999"))

	offer, err := service.AddTracking(ctx, seller, offer.ID, "1Z000")
	require.NoError(t, err)
	assert.Equal(t, model.OfferStatusSent, offer.Status)
	assert.Equal(t, "1Z000", offer.TrackNumber)
}

func TestOfferService_StaleVersionConflicts(t *testing.T) {
	service, repo := newOfferService()
	ctx := context.Background()
	offer := must(service.Create(ctx, seller, charizard()))

	// another admin's deny lands between our read and our write
	repo.beforeUpdate = func(o *model.Offer) {
		o.Status = model.OfferStatusDenied
		o.Version++
		repo.beforeUpdate = nil
	}

	_, err := service.Accept(ctx, admin, offer.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	stored := must(repo.FindByID(ctx, offer.ID))
	assert.Equal(t, model.OfferStatusDenied, stored.Status)
}

func TestOfferService_NotFound(t *testing.T) {
	service, _ := newOfferService()

	_, err := service.Accept(context.Background(), admin, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	err = service.Delete(context.Background(), admin, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOfferService_CreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*OfferInput)
	}{
		{"missing title", func(in *OfferInput) { in.Title = " " }},
		{"zero price", func(in *OfferInput) { in.Price = decimal.Zero }},
		{"negative price", func(in *OfferInput) { in.Price = decimal.NewFromInt(-5) }},
		{"no images", func(in *OfferInput) { in.Images = nil }},
		{"too many images", func(in *OfferInput) {
			in.Images = make([]string, 11)
			for i := range in.Images {
				in.Images[i] = "img"
			}
		}},
		{"blank image id", func(in *OfferInput) { in.Images = []string{""} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _ := newOfferService()
			in := charizard()
			tt.mutate(&in)

			_, err := service.Create(context.Background(), seller, in)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}

	service, _ := newOfferService()
	_, err := service.Create(context.Background(), nil, charizard())
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestOfferService_Update(t *testing.T) {
	service, _ := newOfferService()
	ctx := context.Background()
	offer := must(service.Create(ctx, seller, charizard()))

	in := charizard()
	in.Title = "Charizard 1st edition"
	in.Price = decimal.RequireFromString("250.5")
	in.Images = []string{"img-a", "img-b"}

	updated, err := service.Update(ctx, seller, offer.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Charizard 1st edition", updated.Title)
	assert.True(t, decimal.RequireFromString("250.50").Equal(updated.Price))
	assert.Equal(t, []string{"img-a", "img-b"}, updated.Images)

	_, err = service.Update(ctx, other, offer.ID, in)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	must(service.Accept(ctx, admin, offer.ID))
	_, err = service.Update(ctx, seller, offer.ID, in)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestOfferService_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		session  *auth.Session
		prepare  func(OfferService, string)
		expected error
	}{
		{name: "owner while submitted", session: seller},
		{name: "owner after deny", session: seller, prepare: func(s OfferService, id string) {
			must(s.Deny(ctx, admin, id))
		}, expected: apperrors.ErrInvalidTransition},
		{name: "admin after deny", session: admin, prepare: func(s OfferService, id string) {
			must(s.Deny(ctx, admin, id))
		}},
		{name: "owner once accepted", session: seller, prepare: func(s OfferService, id string) {
			must(s.Accept(ctx, admin, id))
		}, expected: apperrors.ErrInvalidTransition},
		{name: "admin once sent", session: admin, prepare: func(s OfferService, id string) {
			must(s.Accept(ctx, admin, id))
			must(s.AddTracking(ctx, seller, id, "1Z999"))
		}},
		{name: "someone else", session: other, expected: apperrors.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo := newOfferService()
			offer := must(service.Create(ctx, seller, charizard()))
			if tt.prepare != nil {
				tt.prepare(service, offer.ID)
			}

			err := service.Delete(ctx, tt.session, offer.ID)
			if tt.expected != nil {
				assert.ErrorIs(t, err, tt.expected)
				_, ferr := repo.FindByID(ctx, offer.ID)
				assert.NoError(t, ferr)
				return
			}
			require.NoError(t, err)
			_, ferr := repo.FindByID(ctx, offer.ID)
			assert.ErrorIs(t, ferr, apperrors.ErrNotFound)
		})
	}
}

func TestOfferService_Lists(t *testing.T) {
	service, _ := newOfferService()
	ctx := context.Background()
	first := must(service.Create(ctx, seller, charizard()))
	must(service.Create(ctx, seller, charizard()))
	must(service.Create(ctx, other, charizard()))
	must(service.Accept(ctx, admin, first.ID))

	mine, err := service.ListMine(ctx, seller)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	accepted, err := service.ListAll(ctx, admin, model.OfferStatusAccepted)
	require.NoError(t, err)
	assert.Len(t, accepted, 1)

	_, err = service.ListAll(ctx, seller, "")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = service.ListAll(ctx, admin, "bogus")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
