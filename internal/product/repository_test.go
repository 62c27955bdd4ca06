package product_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/freshcart/internal/db/dbtest"
	"github.com/vasiliy-maslov/freshcart/internal/product"
)

func setup(t *testing.T) product.Repository {
	t.Helper()
	pg := dbtest.Open(t, "product_test")
	return product.NewRepository(pg.Pool)
}

func seedProduct(t *testing.T, repo product.Repository, name, category string) *product.Product {
	t.Helper()
	p := &product.Product{
		Name:     name,
		Category: category,
		Price:    decimal.RequireFromString("2.50"),
		Stock:    10,
		Unit:     "kg",
	}
	_, err := repo.Create(context.Background(), p)
	require.NoError(t, err)
	return p
}

func TestPostgresProductRepository_CreateAndGet(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	created := seedProduct(t, repo, "Apples", "Fruits")
	require.NotEqual(t, uuid.Nil, created.ID)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Apples", got.Name)
	assert.True(t, decimal.RequireFromString("2.50").Equal(got.Price))
	assert.Equal(t, 0, got.SoldCount)
	assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)
}

func TestPostgresProductRepository_ListSecondPage(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	for i := 0; i < 11; i++ {
		seedProduct(t, repo, fmt.Sprintf("Product %02d", i), "Pantry")
	}
	seedProduct(t, repo, "Milk", "Dairy")

	q := product.ListQuery{Page: 2, Limit: 10, Category: "Pantry"}
	products, total, err := repo.List(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	assert.Len(t, products, 1)
	assert.Equal(t, 2, product.TotalPages(total, q.Limit))

	all, total, err := repo.List(ctx, product.ListQuery{Page: 1, Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Len(t, all, 12)

	categories, err := repo.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dairy", "Pantry"}, categories)
}

func TestPostgresProductRepository_PartialUpdate(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	created := seedProduct(t, repo, "Carrots", "Vegetables")

	stock := 3
	updated, err := repo.Update(ctx, created.ID, product.Update{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Stock)
	assert.Equal(t, "Carrots", updated.Name, "untouched fields must survive")
	assert.Equal(t, "kg", updated.Unit)

	negative := -1
	_, err = repo.Update(ctx, created.ID, product.Update{Stock: &negative})
	require.ErrorIs(t, err, product.ErrInvalidProduct)

	_, err = repo.Update(ctx, uuid.Must(uuid.NewV4()), product.Update{Stock: &stock})
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestPostgresProductRepository_DeleteThenGet(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()

	created := seedProduct(t, repo, "Bread", "Bakery")

	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err := repo.GetByID(ctx, created.ID)
	require.ErrorIs(t, err, product.ErrNotFound)

	require.ErrorIs(t, repo.Delete(ctx, created.ID), product.ErrNotFound)
}
