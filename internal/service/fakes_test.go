package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	apperrors "cardshop/internal/errors"
	"cardshop/internal/mailer"
	"cardshop/internal/model"
	"cardshop/internal/payment"
	"cardshop/internal/repository"
	"cardshop/internal/storage"
)

// In-memory repositories mirroring the versioned update semantics of the
// gorm ones.

type memUsers struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	users map[string]*model.User
	seq   int
}

var _ repository.UserRepository = (*memUsers)(nil)

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]*model.User{}}
}

func (r *memUsers) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return apperrors.ErrUserAlreadyExists
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	r.seq++
	user.Version = 1
	user.CreatedAt = time.Unix(int64(r.seq), 0)
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUsers) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *memUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memUsers) List(_ context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memUsers) UpdateFields(_ context.Context, id string, version int, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if u.Version != version {
		return apperrors.ErrConflict
	}
	for k, v := range fields {
		switch k {
		case "name":
			u.Name = v.(string)
		case "password_hash":
			u.PasswordHash = v.(string)
		case "admin":
			u.Admin = v.(int)
		case "points":
			u.Points = v.(int)
		default:
			panic("memUsers: unknown field " + k)
		}
	}
	u.Version++
	return nil
}

func (r *memUsers) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.UserRepository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	return fn(ctx, r)
}

type memProfiles struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile
}

func newMemProfiles() *memProfiles {
	return &memProfiles{profiles: map[string]*model.Profile{}}
}

func (r *memProfiles) FindByUserID(_ context.Context, userID string) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memProfiles) Upsert(_ context.Context, profile *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.profiles[profile.UserID]; ok {
		profile.ID = existing.ID
	} else if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	cp := *profile
	r.profiles[profile.UserID] = &cp
	return nil
}

type memArticles struct {
	mu       sync.Mutex
	articles map[string]*model.Article
	finds    int
}

func newMemArticles(articles ...*model.Article) *memArticles {
	r := &memArticles{articles: map[string]*model.Article{}}
	for _, a := range articles {
		_ = r.Create(context.Background(), a)
	}
	return r
}

func (r *memArticles) Create(_ context.Context, a *model.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	cp := *a
	r.articles[a.ID] = &cp
	return nil
}

func (r *memArticles) Update(_ context.Context, a *model.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.articles[a.ID]; !ok {
		return apperrors.ErrNotFound
	}
	cp := *a
	r.articles[a.ID] = &cp
	return nil
}

func (r *memArticles) FindByID(_ context.Context, id string) (*model.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finds++
	a, ok := r.articles[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memArticles) List(_ context.Context, articleType string) ([]model.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Article
	for _, a := range r.articles {
		if articleType == "" || a.Type == articleType {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *memArticles) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.articles[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.articles, id)
	return nil
}

type memOffers struct {
	mu     sync.Mutex
	offers map[string]*model.Offer
	writes int
	// beforeUpdate runs ahead of every versioned update, e.g. to simulate
	// a concurrent writer.
	beforeUpdate func(o *model.Offer)
}

var _ repository.OfferRepository = (*memOffers)(nil)

func newMemOffers() *memOffers {
	return &memOffers{offers: map[string]*model.Offer{}}
}

func (r *memOffers) Create(_ context.Context, o *model.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.Version = 1
	cp := *o
	cp.Images = append([]string(nil), o.Images...)
	r.offers[o.ID] = &cp
	return nil
}

func (r *memOffers) FindByID(_ context.Context, id string) (*model.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.offers[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *o
	cp.Images = append([]string(nil), o.Images...)
	return &cp, nil
}

func (r *memOffers) ListByUser(_ context.Context, userID string) ([]model.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Offer
	for _, o := range r.offers {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *memOffers) List(_ context.Context, status model.OfferStatus) ([]model.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Offer
	for _, o := range r.offers {
		if status == "" || o.Status == status {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *memOffers) UpdateFields(_ context.Context, id string, version int, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.offers[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if r.beforeUpdate != nil {
		r.beforeUpdate(o)
	}
	if o.Version != version {
		return apperrors.ErrConflict
	}
	for k, v := range fields {
		switch k {
		case "status":
			o.Status = v.(model.OfferStatus)
		case "track_number":
			o.TrackNumber = v.(string)
		case "title":
			o.Title = v.(string)
		case "description":
			o.Description = v.(string)
		case "price":
			o.Price = v.(decimal.Decimal)
		case "images":
			var images []string
			if err := json.Unmarshal([]byte(v.(string)), &images); err != nil {
				return err
			}
			o.Images = images
		default:
			panic("memOffers: unknown field " + k)
		}
	}
	o.Version++
	r.writes++
	return nil
}

func (r *memOffers) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.offers[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.offers, id)
	return nil
}

type memOrders struct {
	mu     sync.Mutex
	orders map[string]*model.Order
	writes int
}

var _ repository.OrderRepository = (*memOrders)(nil)

func newMemOrders() *memOrders {
	return &memOrders{orders: map[string]*model.Order{}}
}

func (r *memOrders) Create(_ context.Context, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.Version = 1
	cp := *o
	r.orders[o.ID] = &cp
	r.writes++
	return nil
}

func (r *memOrders) FindByID(_ context.Context, id string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *memOrders) ListByUser(_ context.Context, userID string) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *memOrders) List(_ context.Context, status model.OrderStatus) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if status == "" || o.Status == status {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *memOrders) UpdateFields(_ context.Context, id string, version int, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if o.Version != version {
		return apperrors.ErrConflict
	}
	for k, v := range fields {
		switch k {
		case "status":
			o.Status = v.(model.OrderStatus)
		case "checkout_session_id":
			o.CheckoutSessionID = v.(string)
		default:
			panic("memOrders: unknown field " + k)
		}
	}
	o.Version++
	r.writes++
	return nil
}

// MockGateway is a mock implementation of payment.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CheckoutSession), args.Error(1)
}

func (m *MockGateway) VerifyWebhook(payload []byte, signature string) (*payment.Event, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Event), args.Error(1)
}

// MockSender is a mock implementation of mailer.Sender.
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg mailer.Message) error {
	return m.Called(ctx, msg).Error(0)
}

// MockStore is a mock implementation of storage.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Upload(ctx context.Context, info storage.ObjectInfo, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, info, data, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockStore) Stat(ctx context.Context, contentID string) (*storage.ObjectInfo, error) {
	args := m.Called(ctx, contentID)
	if info := args.Get(0); info != nil {
		return info.(*storage.ObjectInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) SignedURL(ctx context.Context, contentID string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, contentID, ttl)
	return args.String(0), args.Error(1)
}

// MockTokenStore is a mock implementation of auth.TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) StoreRefreshToken(ctx context.Context, tokenID, userID string, ttl time.Duration) error {
	return m.Called(ctx, tokenID, userID, ttl).Error(0)
}

func (m *MockTokenStore) GetRefreshToken(ctx context.Context, tokenID string) (string, error) {
	args := m.Called(ctx, tokenID)
	return args.String(0), args.Error(1)
}

func (m *MockTokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return m.Called(ctx, tokenID).Error(0)
}

func (m *MockTokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	return m.Called(ctx, tokenID, ttl).Error(0)
}

func (m *MockTokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenStore) TrackAccessToken(ctx context.Context, userID, tokenID string, ttl time.Duration) error {
	return m.Called(ctx, userID, tokenID, ttl).Error(0)
}

func (m *MockTokenStore) RevokeUserAccessTokens(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func article(title, articleType, price string) *model.Article {
	return &model.Article{
		Title:  title,
		Type:   articleType,
		Price:  decimal.RequireFromString(price),
		Amount: 5,
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("unexpected error: %v", err))
	}
	return v
}
