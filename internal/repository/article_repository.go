package repository

import (
	"context"

	"gorm.io/gorm"

	"cardshop/internal/model"
)

// ArticleRepository defines catalog persistence operations.
type ArticleRepository interface {
	Create(ctx context.Context, article *model.Article) error
	Update(ctx context.Context, article *model.Article) error
	FindByID(ctx context.Context, id string) (*model.Article, error)
	List(ctx context.Context, articleType string) ([]model.Article, error)
	Delete(ctx context.Context, id string) error
}

type articleRepository struct {
	db *gorm.DB
}

// NewArticleRepository creates a new article repository.
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

// Create creates a new article.
func (r *articleRepository) Create(ctx context.Context, article *model.Article) error {
	return r.db.WithContext(ctx).Create(article).Error
}

// Update overwrites an existing article.
func (r *articleRepository) Update(ctx context.Context, article *model.Article) error {
	res := r.db.WithContext(ctx).Model(&model.Article{}).
		Where("id = ?", article.ID).
		Select("title", "description", "edition", "type", "price", "amount", "image").
		Updates(article)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// MySQL reports zero for unchanged rows, so confirm the row exists
		_, err := r.FindByID(ctx, article.ID)
		return err
	}
	return nil
}

// FindByID finds an article by ID.
func (r *articleRepository) FindByID(ctx context.Context, id string) (*model.Article, error) {
	var article model.Article
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&article).Error; err != nil {
		return nil, wrapError(err)
	}
	return &article, nil
}

// List returns articles newest first, optionally of one type.
func (r *articleRepository) List(ctx context.Context, articleType string) ([]model.Article, error) {
	var articles []model.Article
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if articleType != "" {
		q = q.Where("type = ?", articleType)
	}
	if err := q.Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

// Delete removes an article.
func (r *articleRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, &model.Article{}, id)
}
