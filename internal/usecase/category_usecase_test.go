package usecase

import (
	"context"
	"net/http"
	"testing"

	"shopping/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategory_CRUD(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	c, err := env.categories.Create(ctx, CategoryInput{Name: " Books ", Description: "paper"})
	require.NoError(t, err)
	assert.Equal(t, "Books", c.Name)

	_, err = env.categories.Create(ctx, CategoryInput{Name: "Books"})
	assertHTTPError(t, err, http.StatusBadRequest, "category name already exists")

	other, err := env.categories.Create(ctx, CategoryInput{Name: "Toys"})
	require.NoError(t, err)

	_, err = env.categories.Update(ctx, other.ID, CategoryInput{Name: "Books"})
	assertHTTPError(t, err, http.StatusBadRequest, "category name already exists")

	// 同じ名前のままなら更新できる
	updated, err := env.categories.Update(ctx, c.ID, CategoryInput{Name: "Books", Description: "paper and ebooks"})
	require.NoError(t, err)
	assert.Equal(t, "paper and ebooks", updated.Description)

	list, err := env.categories.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, env.categories.Delete(ctx, other.ID))
	_, err = env.categories.Get(ctx, other.ID)
	assertHTTPError(t, err, http.StatusNotFound, "category not found")

	_, err = env.categories.Create(ctx, CategoryInput{Name: "  "})
	assertHTTPError(t, err, http.StatusBadRequest, "name required")
}

func TestCategory_DeleteBlockedByProducts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	c := testutil.SeedCategory(t, env.db, "books")
	testutil.SeedProduct(t, env.db, c.ID, "A", "1", 1)

	err := env.categories.Delete(ctx, c.ID)
	assertHTTPError(t, err, http.StatusBadRequest, "category has products")

	err = env.categories.Delete(ctx, 999)
	assertHTTPError(t, err, http.StatusNotFound, "category not found")
}
