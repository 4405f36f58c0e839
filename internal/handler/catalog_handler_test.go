package handler

import (
	"net/http"
	"strconv"
	"testing"

	"shopping/internal/domain/model"
	"shopping/internal/testutil"
	"shopping/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_AdminProductLifecycle(t *testing.T) {
	s := newTestServer(t)
	_, adminAccess := s.login(t, "admin@example.com", model.RoleAdmin)
	_, userAccess := s.login(t, "user@example.com", model.RoleUser)

	resp, body := s.doJSON(t, http.MethodPost, "/admin/categories", adminAccess, CategoryRequest{Name: "coffee"})
	requireStatus(t, resp, http.StatusCreated, body)
	cat := decode[model.Category](t, body)

	discount := decimal.RequireFromString("15.00")
	req := ProductRequest{
		Name:          "Kenya AA",
		Price:         decimal.RequireFromString("19.99"),
		DiscountPrice: &discount,
		Stock:         7,
		CategoryID:    cat.ID,
	}

	// USERは作れない
	resp, body = s.doJSON(t, http.MethodPost, "/admin/products", userAccess, req)
	requireStatus(t, resp, http.StatusForbidden, body)

	resp, body = s.doJSON(t, http.MethodPost, "/admin/products", adminAccess, req)
	requireStatus(t, resp, http.StatusCreated, body)
	created := decode[model.Product](t, body)
	path := "/products/" + strconv.FormatInt(created.ID, 10)

	resp, body = s.doJSON(t, http.MethodGet, path, "", nil)
	requireStatus(t, resp, http.StatusOK, body)
	got := decode[model.Product](t, body)
	assert.Equal(t, "Kenya AA", got.Name)
	assert.True(t, decimal.RequireFromString("15").Equal(got.EffectivePrice()))

	req.Stock = 3
	req.DiscountPrice = nil
	resp, body = s.doJSON(t, http.MethodPut, "/admin"+path, adminAccess, req)
	requireStatus(t, resp, http.StatusOK, body)
	assert.Equal(t, int64(3), testutil.Stock(t, s.db, created.ID))

	resp, body = s.doJSON(t, http.MethodPut, "/admin/inventory/"+strconv.FormatInt(created.ID, 10), adminAccess,
		InventoryUpdateRequest{Stock: 12, Reason: "restock"})
	requireStatus(t, resp, http.StatusOK, body)
	assert.Equal(t, int64(12), decode[model.Product](t, body).Stock)

	resp, body = s.doJSON(t, http.MethodPut, "/admin/inventory/"+strconv.FormatInt(created.ID, 10), adminAccess,
		InventoryUpdateRequest{Stock: 1})
	requireStatus(t, resp, http.StatusBadRequest, body)
	assert.Equal(t, "reason is required", errorMessage(t, body))

	// 商品があるうちはカテゴリを消せない
	catPath := "/admin/categories/" + strconv.FormatInt(cat.ID, 10)
	resp, body = s.doJSON(t, http.MethodDelete, catPath, adminAccess, nil)
	requireStatus(t, resp, http.StatusBadRequest, body)
	assert.Equal(t, "category has products", errorMessage(t, body))

	resp, body = s.doJSON(t, http.MethodDelete, "/admin"+path, adminAccess, nil)
	requireStatus(t, resp, http.StatusOK, body)

	resp, body = s.doJSON(t, http.MethodGet, path, "", nil)
	requireStatus(t, resp, http.StatusNotFound, body)
}

func TestCatalog_ProductValidation(t *testing.T) {
	s := newTestServer(t)
	_, adminAccess := s.login(t, "admin@example.com", model.RoleAdmin)
	cat := testutil.SeedCategory(t, s.db, "coffee")

	resp, body := s.doJSON(t, http.MethodPost, "/admin/products", adminAccess, ProductRequest{
		Name: "Free", Price: decimal.Zero, CategoryID: cat.ID,
	})
	requireStatus(t, resp, http.StatusBadRequest, body)
	assert.Equal(t, "price must be > 0", errorMessage(t, body))

	resp, body = s.doJSON(t, http.MethodPost, "/admin/products", adminAccess, ProductRequest{
		Name: "Lost", Price: decimal.NewFromInt(1), CategoryID: 9999,
	})
	requireStatus(t, resp, http.StatusNotFound, body)
	assert.Equal(t, "category not found", errorMessage(t, body))
}

func TestCatalog_ListProducts(t *testing.T) {
	s := newTestServer(t)
	coffee := testutil.SeedCategory(t, s.db, "coffee")
	tea := testutil.SeedCategory(t, s.db, "tea")
	testutil.SeedProduct(t, s.db, coffee.ID, "Espresso", "3", 5)
	testutil.SeedProduct(t, s.db, coffee.ID, "Latte", "5", 5)
	testutil.SeedProduct(t, s.db, tea.ID, "Sencha", "4", 5)

	resp, body := s.doJSON(t, http.MethodGet, "/products?category_id="+strconv.FormatInt(coffee.ID, 10)+"&sort=price_desc", "", nil)
	requireStatus(t, resp, http.StatusOK, body)
	list := decode[usecase.ProductListOutput](t, body)
	assert.Equal(t, int64(2), list.Total)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "Latte", list.Items[0].Name)

	resp, body = s.doJSON(t, http.MethodGet, "/products?min_price=3.5&max_price=4.5", "", nil)
	requireStatus(t, resp, http.StatusOK, body)
	list = decode[usecase.ProductListOutput](t, body)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Sencha", list.Items[0].Name)

	resp, body = s.doJSON(t, http.MethodGet, "/products?min_price=abc", "", nil)
	requireStatus(t, resp, http.StatusBadRequest, body)
	assert.Equal(t, "invalid min_price", errorMessage(t, body))

	resp, body = s.doJSON(t, http.MethodGet, "/products?sort=random", "", nil)
	requireStatus(t, resp, http.StatusBadRequest, body)

	resp, body = s.doJSON(t, http.MethodGet, "/categories", "", nil)
	requireStatus(t, resp, http.StatusOK, body)
	assert.Len(t, decode[[]model.Category](t, body), 2)
}

func TestCatalog_CategoryAdmin(t *testing.T) {
	s := newTestServer(t)
	_, adminAccess := s.login(t, "admin@example.com", model.RoleAdmin)

	resp, body := s.doJSON(t, http.MethodPost, "/admin/categories", adminAccess, CategoryRequest{Name: "snacks"})
	requireStatus(t, resp, http.StatusCreated, body)
	cat := decode[model.Category](t, body)

	resp, body = s.doJSON(t, http.MethodPost, "/admin/categories", adminAccess, CategoryRequest{Name: "snacks"})
	requireStatus(t, resp, http.StatusBadRequest, body)
	assert.Equal(t, "category name already exists", errorMessage(t, body))

	path := "/admin/categories/" + strconv.FormatInt(cat.ID, 10)
	resp, body = s.doJSON(t, http.MethodPut, path, adminAccess, CategoryRequest{Name: "sweets", Description: "sugar"})
	requireStatus(t, resp, http.StatusOK, body)
	assert.Equal(t, "sweets", decode[model.Category](t, body).Name)

	resp, body = s.doJSON(t, http.MethodDelete, path, adminAccess, nil)
	requireStatus(t, resp, http.StatusOK, body)

	resp, body = s.doJSON(t, http.MethodGet, "/categories/"+strconv.FormatInt(cat.ID, 10), "", nil)
	requireStatus(t, resp, http.StatusNotFound, body)
}

func TestReviews_Lifecycle(t *testing.T) {
	s := newTestServer(t)
	_, alice := s.login(t, "alice@example.com", model.RoleUser)
	_, bob := s.login(t, "bob@example.com", model.RoleUser)

	cat := testutil.SeedCategory(t, s.db, "books")
	p := testutil.SeedProduct(t, s.db, cat.ID, "Go book", "10", 5)
	listPath := "/products/" + strconv.FormatInt(p.ID, 10) + "/reviews"

	resp, body := s.doJSON(t, http.MethodPost, "/reviews", alice, ReviewCreateRequest{ProductID: p.ID, Rating: 5, Comment: "great"})
	requireStatus(t, resp, http.StatusCreated, body)
	rv := decode[model.Review](t, body)

	resp, body = s.doJSON(t, http.MethodPost, "/reviews", alice, ReviewCreateRequest{ProductID: p.ID, Rating: 4})
	requireStatus(t, resp, http.StatusBadRequest, body)
	assert.Equal(t, "you have already reviewed this product", errorMessage(t, body))

	resp, body = s.doJSON(t, http.MethodPost, "/reviews", bob, ReviewCreateRequest{ProductID: p.ID, Rating: 6})
	requireStatus(t, resp, http.StatusBadRequest, body)

	resp, body = s.doJSON(t, http.MethodPost, "/reviews", bob, ReviewCreateRequest{ProductID: p.ID, Rating: 2})
	requireStatus(t, resp, http.StatusCreated, body)

	resp, body = s.doJSON(t, http.MethodGet, listPath, "", nil)
	requireStatus(t, resp, http.StatusOK, body)
	assert.Equal(t, int64(2), decode[usecase.ReviewListOutput](t, body).Total)

	resp, body = s.doJSON(t, http.MethodGet, "/products/"+strconv.FormatInt(p.ID, 10), "", nil)
	requireStatus(t, resp, http.StatusOK, body)
	got := decode[model.Product](t, body)
	assert.InDelta(t, 3.5, got.Rating, 0.001)
	assert.Equal(t, int64(2), got.ReviewCount)

	rvPath := "/reviews/" + strconv.FormatInt(rv.ID, 10)
	resp, body = s.doJSON(t, http.MethodPut, rvPath, bob, ReviewUpdateRequest{Rating: 1})
	requireStatus(t, resp, http.StatusForbidden, body)

	resp, body = s.doJSON(t, http.MethodPut, rvPath, alice, ReviewUpdateRequest{Rating: 4, Comment: "good"})
	requireStatus(t, resp, http.StatusOK, body)

	resp, body = s.doJSON(t, http.MethodDelete, rvPath, alice, nil)
	requireStatus(t, resp, http.StatusOK, body)

	resp, body = s.doJSON(t, http.MethodGet, listPath, "", nil)
	requireStatus(t, resp, http.StatusOK, body)
	assert.Equal(t, int64(1), decode[usecase.ReviewListOutput](t, body).Total)
}
