package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cardshop/internal/cache"
	"cardshop/internal/config"
	"cardshop/internal/db"
	apperrors "cardshop/internal/errors"
	"cardshop/internal/logger"
	"cardshop/internal/repository"
	"cardshop/internal/service"
)

// SeedArticle is one catalog entry in the seed document.
type SeedArticle struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Edition     string `json:"edition"`
	Type        string `json:"type"`
	Price       string `json:"price"`
	Amount      int    `json:"amount"`
	Image       string `json:"image"`
}

func main() {
	source := flag.String("source", "", "path or http(s) URL of a JSON array of articles")
	flag.Parse()

	if err := run(*source); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(source string) error {
	if source == "" {
		return errors.New("-source is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = log.Sync() }()

	gormDB, err := db.Open(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}
	if err := db.Migrate(gormDB, false, log); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	log.Info("fetching articles", zap.String("source", source))
	items, err := fetchArticles(ctx, source)
	if err != nil {
		return fmt.Errorf("fetch articles: %w", err)
	}
	log.Info("fetched articles", zap.Int("count", len(items)))

	// Seeding goes through the service so cached catalog pages are invalidated.
	cacheClient := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer func() { _ = cacheClient.Close() }()
	articles := service.NewArticleService(repository.NewArticleRepository(gormDB), cacheClient)

	created, updated, skipped := seedArticles(ctx, articles, items, log)

	log.Info("seed completed",
		zap.Int("created", created),
		zap.Int("updated", updated),
		zap.Int("skipped", skipped),
	)
	return nil
}

// fetchArticles reads the seed document from a local file or an http(s) URL.
func fetchArticles(ctx context.Context, source string) ([]SeedArticle, error) {
	var body io.ReadCloser
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("source returned status code: %d", resp.StatusCode)
		}
		body = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, err
		}
		body = f
	}
	defer body.Close()

	var items []SeedArticle
	if err := json.NewDecoder(body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return items, nil
}

// seedArticles creates new articles under their seed id, or a generated one
// when the entry has none, and replaces the ones whose id already exists.
// Invalid entries are logged and skipped.
func seedArticles(ctx context.Context, svc service.ArticleService, items []SeedArticle, log *zap.Logger) (created, updated, skipped int) {
	for _, item := range items {
		in, err := item.input()
		if err != nil {
			log.Warn("skipping article", zap.String("title", item.Title), zap.Error(err))
			skipped++
			continue
		}

		if item.ID != "" {
			_, err := svc.Update(ctx, item.ID, in)
			if err == nil {
				updated++
				continue
			}
			if !errors.Is(err, apperrors.ErrNotFound) {
				log.Warn("skipping article", zap.String("id", item.ID), zap.Error(err))
				skipped++
				continue
			}
		}

		if _, err := svc.Create(ctx, in); err != nil {
			log.Warn("skipping article", zap.String("title", item.Title), zap.Error(err))
			skipped++
			continue
		}
		created++
	}
	return created, updated, skipped
}

func (a SeedArticle) input() (service.ArticleInput, error) {
	price, err := decimal.NewFromString(a.Price)
	if err != nil {
		return service.ArticleInput{}, fmt.Errorf("invalid price %q", a.Price)
	}
	return service.ArticleInput{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Edition:     a.Edition,
		Type:        a.Type,
		Price:       price,
		Amount:      a.Amount,
		Image:       a.Image,
	}, nil
}
