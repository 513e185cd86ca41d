package repository

import (
	"context"

	"gorm.io/gorm"

	"cardshop/internal/model"
)

// OrderRepository defines shop order persistence operations.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id string) (*model.Order, error)
	ListByUser(ctx context.Context, userID string) ([]model.Order, error)
	List(ctx context.Context, status model.OrderStatus) ([]model.Order, error)
	UpdateFields(ctx context.Context, id string, version int, fields map[string]interface{}) error
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, wrapError(err)
	}
	return &order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID string) ([]model.Order, error) {
	var orders []model.Order
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// List returns all orders newest first, optionally in one status.
func (r *orderRepository) List(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	var orders []model.Order
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) UpdateFields(ctx context.Context, id string, version int, fields map[string]interface{}) error {
	return updateVersioned(ctx, r.db, &model.Order{}, id, version, fields)
}
