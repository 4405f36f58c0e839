package usecase

import (
	"context"
	"net/http"
	"testing"

	"shopping/internal/domain/model"
	"shopping/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productRating(t *testing.T, env *testEnv, id int64) (float64, int64) {
	t.Helper()
	p, err := env.products.GetProductDetail(context.Background(), id)
	require.NoError(t, err)
	return p.Rating, p.ReviewCount
}

func TestReview_LifecycleRecomputesRating(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	alice := testutil.SeedUser(t, env.db, "alice@example.com", model.RoleUser)
	bob := testutil.SeedUser(t, env.db, "bob@example.com", model.RoleUser)
	cat := testutil.SeedCategory(t, env.db, "books")
	p := testutil.SeedProduct(t, env.db, cat.ID, "A", "10", 1)

	ra, err := env.reviews.Create(ctx, alice.ID, CreateReviewInput{ProductID: p.ID, Rating: 5, Comment: "great"})
	require.NoError(t, err)
	_, err = env.reviews.Create(ctx, bob.ID, CreateReviewInput{ProductID: p.ID, Rating: 2})
	require.NoError(t, err)

	rating, count := productRating(t, env, p.ID)
	assert.InDelta(t, 3.5, rating, 0.001)
	assert.Equal(t, int64(2), count)

	_, err = env.reviews.Create(ctx, alice.ID, CreateReviewInput{ProductID: p.ID, Rating: 4})
	assertHTTPError(t, err, http.StatusBadRequest, "you have already reviewed this product")

	_, err = env.reviews.Update(ctx, alice.ID, ra.ID, UpdateReviewInput{Rating: 3, Comment: "ok"})
	require.NoError(t, err)
	rating, _ = productRating(t, env, p.ID)
	assert.InDelta(t, 2.5, rating, 0.001)

	_, err = env.reviews.Update(ctx, bob.ID, ra.ID, UpdateReviewInput{Rating: 1})
	assertHTTPError(t, err, http.StatusForbidden, "forbidden")

	err = env.reviews.Delete(ctx, bob.ID, ra.ID)
	assertHTTPError(t, err, http.StatusForbidden, "forbidden")

	require.NoError(t, env.reviews.Delete(ctx, alice.ID, ra.ID))
	rating, count = productRating(t, env, p.ID)
	assert.InDelta(t, 2.0, rating, 0.001)
	assert.Equal(t, int64(1), count)

	list, err := env.reviews.ListByProduct(ctx, p.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, bob.ID, list.Items[0].UserID)
}

func TestReview_RoundsAverage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	cat := testutil.SeedCategory(t, env.db, "books")
	p := testutil.SeedProduct(t, env.db, cat.ID, "A", "10", 1)
	for i, rating := range []int{5, 4, 4} {
		u := testutil.SeedUser(t, env.db, []string{"a@x.io", "b@x.io", "c@x.io"}[i], model.RoleUser)
		_, err := env.reviews.Create(ctx, u.ID, CreateReviewInput{ProductID: p.ID, Rating: rating})
		require.NoError(t, err)
	}

	rating, count := productRating(t, env, p.ID)
	assert.Equal(t, 4.33, rating)
	assert.Equal(t, int64(3), count)
}

func TestReview_Validation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := testutil.SeedUser(t, env.db, "a@example.com", model.RoleUser)

	_, err := env.reviews.Create(ctx, u.ID, CreateReviewInput{ProductID: 1, Rating: 6})
	assertHTTPError(t, err, http.StatusBadRequest, "rating must be between 1 and 5")

	_, err = env.reviews.Create(ctx, u.ID, CreateReviewInput{ProductID: 404, Rating: 3})
	assertHTTPError(t, err, http.StatusNotFound, "product not found")

	_, err = env.reviews.ListByProduct(ctx, 404, 1, 10)
	assertHTTPError(t, err, http.StatusNotFound, "product not found")

	err = env.reviews.Delete(ctx, u.ID, 404)
	assertHTTPError(t, err, http.StatusNotFound, "review not found")
}

func TestReview_OwnerCanEditAfterProductDeleted(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	admin := testutil.SeedUser(t, env.db, "admin@example.com", model.RoleAdmin)
	alice := testutil.SeedUser(t, env.db, "alice@example.com", model.RoleUser)
	cat := testutil.SeedCategory(t, env.db, "books")
	p := testutil.SeedProduct(t, env.db, cat.ID, "A", "10", 1)

	rv, err := env.reviews.Create(ctx, alice.ID, CreateReviewInput{ProductID: p.ID, Rating: 4})
	require.NoError(t, err)
	require.NoError(t, env.products.AdminDeleteProduct(ctx, admin.ID, p.ID))

	_, err = env.reviews.Update(ctx, alice.ID, rv.ID, UpdateReviewInput{Rating: 2})
	require.NoError(t, err)
	require.NoError(t, env.reviews.Delete(ctx, alice.ID, rv.ID))

	var got model.Product
	require.NoError(t, env.db.Unscoped().First(&got, p.ID).Error)
	assert.Equal(t, int64(0), got.ReviewCount)
}
