package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cardshop/internal/cache"
	"cardshop/internal/model"
	"cardshop/internal/repository"
)

const (
	articleCacheTTL        = 5 * time.Minute
	articleListCachePrefix = "articles:list:"
	articleCachePrefix     = "articles:item:"
)

// ArticleInput is the admin payload for creating or replacing an article.
// ID is honored by Create only; empty means a generated id.
type ArticleInput struct {
	ID          string          `validate:"omitempty,uuid"`
	Title       string          `validate:"required,max=255"`
	Description string          `validate:"max=5000"`
	Edition     string          `validate:"max=255"`
	Type        string          `validate:"required,max=100"`
	Price       decimal.Decimal `validate:"-"`
	Amount      int             `validate:"gte=0"`
	Image       string          `validate:"max=255"`
}

// ArticleService exposes the shop catalog.
type ArticleService interface {
	List(ctx context.Context, articleType string) ([]model.Article, error)
	Get(ctx context.Context, id string) (*model.Article, error)
	Create(ctx context.Context, in ArticleInput) (*model.Article, error)
	Update(ctx context.Context, id string, in ArticleInput) (*model.Article, error)
	Delete(ctx context.Context, id string) error
}

type articleService struct {
	repo  repository.ArticleRepository
	cache *cache.Client
}

// NewArticleService builds an ArticleService with repository and cache.
func NewArticleService(repo repository.ArticleRepository, cache *cache.Client) ArticleService {
	return &articleService{repo: repo, cache: cache}
}

func (s *articleService) List(ctx context.Context, articleType string) ([]model.Article, error) {
	key := articleListCachePrefix + articleType
	var cached []model.Article
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	articles, err := s.repo.List(ctx, articleType)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	s.cache.SetJSON(ctx, key, articles, articleCacheTTL)
	return articles, nil
}

func (s *articleService) Get(ctx context.Context, id string) (*model.Article, error) {
	key := articleCachePrefix + id
	var cached model.Article
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	article, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, key, article, articleCacheTTL)
	return article, nil
}

func (s *articleService) Create(ctx context.Context, in ArticleInput) (*model.Article, error) {
	article, err := buildArticle(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, article); err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}
	s.invalidate(ctx, article)
	return article, nil
}

func (s *articleService) Update(ctx context.Context, id string, in ArticleInput) (*model.Article, error) {
	article, err := buildArticle(in)
	if err != nil {
		return nil, err
	}
	previous, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	article.ID = id
	article.CreatedAt = previous.CreatedAt
	if err := s.repo.Update(ctx, article); err != nil {
		return nil, fmt.Errorf("update article: %w", err)
	}
	s.invalidate(ctx, previous, article)
	return s.repo.FindByID(ctx, id)
}

func (s *articleService) Delete(ctx context.Context, id string) error {
	article, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	s.invalidate(ctx, article)
	return nil
}

// invalidate drops the item keys and the unfiltered and per-type list keys
// touched by the given articles.
func (s *articleService) invalidate(ctx context.Context, articles ...*model.Article) {
	keys := []string{articleListCachePrefix}
	for _, a := range articles {
		keys = append(keys, articleCachePrefix+a.ID, articleListCachePrefix+a.Type)
	}
	_ = s.cache.Delete(ctx, keys...)
}

func buildArticle(in ArticleInput) (*model.Article, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Type = strings.TrimSpace(in.Type)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if !in.Price.IsPositive() {
		return nil, invalid("price must be greater than zero")
	}
	return &model.Article{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		Edition:     in.Edition,
		Type:        in.Type,
		Price:       in.Price.Round(2),
		Amount:      in.Amount,
		Image:       in.Image,
	}, nil
}
