package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"cardshop/internal/model"
	"cardshop/internal/repository"
	"cardshop/internal/service"
)

const seedDoc = `[
  {"title": "Base Set Booster", "type": "booster", "price": "4.50", "amount": 20},
  {"title": "Starter Deck", "type": "deck", "price": "12.99", "amount": 5},
  {"title": "Broken", "type": "booster", "price": "free"}
]`

func TestFetchArticles(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "articles.json")
		require.NoError(t, os.WriteFile(path, []byte(seedDoc), 0o600))

		items, err := fetchArticles(context.Background(), path)
		require.NoError(t, err)
		assert.Len(t, items, 3)
		assert.Equal(t, "Starter Deck", items[1].Title)
	})

	t.Run("url", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(seedDoc))
		}))
		defer srv.Close()

		items, err := fetchArticles(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Len(t, items, 3)
	})

	t.Run("bad status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := fetchArticles(context.Background(), srv.URL)
		assert.Error(t, err)
	})
}

func newSeedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	return db
}

func TestSeedArticles(t *testing.T) {
	db := newSeedDB(t)
	ctx := context.Background()
	repo := repository.NewArticleRepository(db)
	svc := service.NewArticleService(repo, nil)

	items := []SeedArticle{
		{Title: "Base Set Booster", Type: "booster", Price: "4.50", Amount: 20},
		{Title: "Broken", Type: "booster", Price: "free"},
		{Title: "No type", Price: "1.00"},
	}
	created, updated, skipped := seedArticles(ctx, svc, items, zap.NewNop())
	assert.Equal(t, 1, created)
	assert.Equal(t, 0, updated)
	assert.Equal(t, 2, skipped)

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)

	// a known id is replaced, an unknown one is created under that id
	again := []SeedArticle{
		{ID: all[0].ID, Title: "Base Set Booster", Type: "booster", Price: "3.99", Amount: 10},
		{ID: "a6f1f1a4-2c55-4f0e-8f1b-6d0f5a0e2b77", Title: "Jungle Booster", Type: "booster", Price: "5.00"},
	}
	created, updated, skipped = seedArticles(ctx, svc, again, zap.NewNop())
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, updated)
	assert.Equal(t, 0, skipped)

	jungle, err := repo.FindByID(ctx, "a6f1f1a4-2c55-4f0e-8f1b-6d0f5a0e2b77")
	require.NoError(t, err)
	assert.Equal(t, "Jungle Booster", jungle.Title)

	refreshed, err := repo.FindByID(ctx, all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "3.99", refreshed.Price.StringFixed(2))
	assert.Equal(t, 10, refreshed.Amount)
}

func TestSeedArticlesIsRepeatable(t *testing.T) {
	db := newSeedDB(t)
	ctx := context.Background()
	repo := repository.NewArticleRepository(db)
	svc := service.NewArticleService(repo, nil)

	doc := []SeedArticle{
		{ID: "a6f1f1a4-2c55-4f0e-8f1b-6d0f5a0e2b77", Title: "Jungle Booster", Type: "booster", Price: "5.00", Amount: 3},
		{ID: "0c7d52a1-8e43-4b0a-9a43-1f3c2b6a9e10", Title: "Fossil Booster", Type: "booster", Price: "5.50", Amount: 4},
	}

	for run := 0; run < 3; run++ {
		seedArticles(ctx, svc, doc, zap.NewNop())
	}

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	ids := []string{all[0].ID, all[1].ID}
	assert.ElementsMatch(t, []string{doc[0].ID, doc[1].ID}, ids)

	created, updated, skipped := seedArticles(ctx, svc, doc, zap.NewNop())
	assert.Equal(t, 0, created)
	assert.Equal(t, 2, updated)
	assert.Equal(t, 0, skipped)
}
