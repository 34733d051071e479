package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/apper-canvas/market-mosaic-media/internal/domain"
	"github.com/apper-canvas/market-mosaic-media/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProductStore(t *testing.T) *repository.ProductStore {
	// Use in-memory database for tests
	repo, err := repository.NewProductStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations())
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestListProducts_AllAfterMigrations(t *testing.T) {
	repo := setupProductStore(t)

	products, err := repo.ListProducts(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, products, 8)
	assert.Equal(t, int64(1), products[0].ID)
	assert.Equal(t, "89.99", products[0].Price.StringFixed(2))
	assert.False(t, products[0].CreatedAt.IsZero())
}

func TestListProducts_AllKeyword(t *testing.T) {
	repo := setupProductStore(t)

	products, err := repo.ListProducts(context.Background(), domain.CategoryAll)
	require.NoError(t, err)
	assert.Len(t, products, 8)
}

func TestListProducts_ByCategory(t *testing.T) {
	repo := setupProductStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	products, err := repo.ListProducts(ctx, "electronics")
	require.NoError(t, err)
	require.Len(t, products, 3)
	for _, p := range products {
		assert.Equal(t, "electronics", p.Category)
	}
}

func TestListProducts_CategoryIgnoresCase(t *testing.T) {
	repo := setupProductStore(t)
	ctx := context.Background()

	for _, category := range []string{"ALL", " All "} {
		products, err := repo.ListProducts(ctx, category)
		require.NoError(t, err)
		assert.Len(t, products, 8, category)
	}

	for _, category := range []string{"Electronics", "ELECTRONICS", " electronics "} {
		products, err := repo.ListProducts(ctx, category)
		require.NoError(t, err)
		assert.Len(t, products, 3, category)
	}
}

func TestListProducts_UnknownCategoryIsEmpty(t *testing.T) {
	repo := setupProductStore(t)

	products, err := repo.ListProducts(context.Background(), "garden")
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestGetProduct_Found(t *testing.T) {
	repo := setupProductStore(t)

	p, err := repo.GetProduct(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Facial Serum", p.Name)
	assert.Equal(t, "beauty", p.Category)
	assert.Equal(t, "34.50", p.Price.StringFixed(2))
	assert.InDelta(t, 4.6, p.Rating, 0.001)
}

func TestGetProduct_NotFound(t *testing.T) {
	repo := setupProductStore(t)

	p, err := repo.GetProduct(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, p)
}

func TestGetProduct_CancelledContext(t *testing.T) {
	repo := setupProductStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetProduct(ctx, 1)
	assert.Error(t, err)
}

func TestPing_AfterClose(t *testing.T) {
	repo := setupProductStore(t)

	require.NoError(t, repo.Ping(context.Background()))
	require.NoError(t, repo.Close())
	assert.Error(t, repo.Ping(context.Background()))
}
