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

var orderBody = OrderCreateRequest{ShippingAddress: "Tokyo 1-2-3", PaymentID: "pay_123"}

func TestOrders_PlaceAndCancel(t *testing.T) {
	s := newTestServer(t)
	_, access := s.login(t, "buyer@example.com", model.RoleUser)

	cat := testutil.SeedCategory(t, s.db, "books")
	p := testutil.SeedProduct(t, s.db, cat.ID, "Go book", "80", 5)

	resp, body := s.doJSON(t, http.MethodPost, "/cart/items", access, AddCartRequest{ProductID: p.ID, Quantity: 3})
	requireStatus(t, resp, http.StatusOK, body)

	resp, body = s.doJSON(t, http.MethodPost, "/orders", access, orderBody)
	requireStatus(t, resp, http.StatusOK, body)

	order := decode[usecase.OrderOutput](t, body)
	assert.Equal(t, string(model.OrderStatusPending), order.Status)
	assert.True(t, decimal.NewFromInt(240).Equal(order.TotalAmount), "total=%s", order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.True(t, decimal.NewFromInt(80).Equal(order.Items[0].PriceAtPurchase))
	assert.Equal(t, int64(2), testutil.Stock(t, s.db, p.ID))

	//カートは空
	resp, body = s.doJSON(t, http.MethodGet, "/cart", access, nil)
	requireStatus(t, resp, http.StatusOK, body)
	assert.Empty(t, decode[usecase.CartResponse](t, body).Items)

	path := "/orders/" + strconv.FormatInt(order.ID, 10)
	resp, body = s.doJSON(t, http.MethodGet, path, access, nil)
	requireStatus(t, resp, http.StatusOK, body)

	resp, body = s.doJSON(t, http.MethodPost, path+"/cancel", access, nil)
	requireStatus(t, resp, http.StatusOK, body)
	assert.Equal(t, string(model.OrderStatusCancelled), decode[usecase.OrderOutput](t, body).Status)
	assert.Equal(t, int64(5), testutil.Stock(t, s.db, p.ID))

	resp, body = s.doJSON(t, http.MethodPost, path+"/cancel", access, nil)
	requireStatus(t, resp, http.StatusBadRequest, body)
	assert.Equal(t, "order already cancelled", errorMessage(t, body))
}

func TestOrders_InsufficientStock(t *testing.T) {
	s := newTestServer(t)
	u, access := s.login(t, "buyer@example.com", model.RoleUser)

	cat := testutil.SeedCategory(t, s.db, "books")
	p := testutil.SeedProduct(t, s.db, cat.ID, "Rare", "10", 1)
	testutil.SeedCart(t, s.db, u.ID, map[int64]int64{p.ID: 2})

	resp, body := s.doJSON(t, http.MethodPost, "/orders", access, orderBody)
	requireStatus(t, resp, http.StatusBadRequest, body)
	assert.Equal(t, "insufficient stock for product: Rare", errorMessage(t, body))
	assert.Equal(t, int64(1), testutil.Stock(t, s.db, p.ID))
}

func TestOrders_Validation(t *testing.T) {
	s := newTestServer(t)
	_, access := s.login(t, "buyer@example.com", model.RoleUser)

	resp, body := s.doJSON(t, http.MethodPost, "/orders", access, OrderCreateRequest{PaymentID: "pay"})
	requireStatus(t, resp, http.StatusBadRequest, body)
	assert.Equal(t, "shipping_address is required", errorMessage(t, body))

	resp, body = s.doJSON(t, http.MethodPost, "/orders", access, orderBody)
	requireStatus(t, resp, http.StatusBadRequest, body)
	assert.Equal(t, "cart empty", errorMessage(t, body))

	resp, body = s.doJSON(t, http.MethodGet, "/orders/abc", access, nil)
	requireStatus(t, resp, http.StatusBadRequest, body)

	resp, body = s.doJSON(t, http.MethodGet, "/orders?page=0", access, nil)
	requireStatus(t, resp, http.StatusBadRequest, body)
	assert.Equal(t, "invalid page", errorMessage(t, body))
}

func TestOrders_OtherUsersOrderIsForbidden(t *testing.T) {
	s := newTestServer(t)
	owner, ownerAccess := s.login(t, "owner@example.com", model.RoleUser)
	_, otherAccess := s.login(t, "other@example.com", model.RoleUser)

	cat := testutil.SeedCategory(t, s.db, "books")
	p := testutil.SeedProduct(t, s.db, cat.ID, "Go book", "10", 5)
	testutil.SeedCart(t, s.db, owner.ID, map[int64]int64{p.ID: 1})

	resp, body := s.doJSON(t, http.MethodPost, "/orders", ownerAccess, orderBody)
	requireStatus(t, resp, http.StatusOK, body)
	path := "/orders/" + strconv.FormatInt(decode[usecase.OrderOutput](t, body).ID, 10)

	resp, body = s.doJSON(t, http.MethodGet, path, otherAccess, nil)
	requireStatus(t, resp, http.StatusForbidden, body)

	resp, body = s.doJSON(t, http.MethodPost, path+"/cancel", otherAccess, nil)
	requireStatus(t, resp, http.StatusForbidden, body)

	resp, body = s.doJSON(t, http.MethodGet, "/orders", otherAccess, nil)
	requireStatus(t, resp, http.StatusOK, body)
	assert.Empty(t, decode[usecase.OrderListOutput](t, body).Items)
}

func TestOrders_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.doJSON(t, http.MethodGet, "/orders", "", nil)
	requireStatus(t, resp, http.StatusUnauthorized, body)
}

func TestAdminOrders_ListAndUpdateStatus(t *testing.T) {
	s := newTestServer(t)
	buyer, buyerAccess := s.login(t, "buyer@example.com", model.RoleUser)
	_, adminAccess := s.login(t, "admin@example.com", model.RoleAdmin)

	cat := testutil.SeedCategory(t, s.db, "books")
	p := testutil.SeedProduct(t, s.db, cat.ID, "Go book", "10", 5)
	testutil.SeedCart(t, s.db, buyer.ID, map[int64]int64{p.ID: 1})

	resp, body := s.doJSON(t, http.MethodPost, "/orders", buyerAccess, orderBody)
	requireStatus(t, resp, http.StatusOK, body)
	orderID := decode[usecase.OrderOutput](t, body).ID

	//USERは403
	resp, body = s.doJSON(t, http.MethodGet, "/orders/all", buyerAccess, nil)
	requireStatus(t, resp, http.StatusForbidden, body)
	assert.Equal(t, "admin only", errorMessage(t, body))

	resp, body = s.doJSON(t, http.MethodGet, "/orders/all?page=1&limit=10&status=pending", adminAccess, nil)
	requireStatus(t, resp, http.StatusOK, body)
	list := decode[usecase.OrderListOutput](t, body)
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, orderID, list.Items[0].ID)

	path := "/orders/" + strconv.FormatInt(orderID, 10) + "/status"
	resp, body = s.doJSON(t, http.MethodPut, path+"?status=SHIPPED", adminAccess, nil)
	requireStatus(t, resp, http.StatusOK, body)
	assert.Equal(t, string(model.OrderStatusShipped), decode[usecase.OrderOutput](t, body).Status)

	// body でも受ける
	resp, body = s.doJSON(t, http.MethodPut, path, adminAccess, OrderStatusUpdateRequest{Status: "DELIVERED"})
	requireStatus(t, resp, http.StatusOK, body)
	assert.Equal(t, string(model.OrderStatusDelivered), decode[usecase.OrderOutput](t, body).Status)

	resp, body = s.doJSON(t, http.MethodPut, path+"?status=LOST", adminAccess, nil)
	requireStatus(t, resp, http.StatusBadRequest, body)
	assert.Equal(t, "invalid status", errorMessage(t, body))

	resp, body = s.doJSON(t, http.MethodGet, "/orders/all?from=yesterday", adminAccess, nil)
	requireStatus(t, resp, http.StatusBadRequest, body)
	assert.Equal(t, "invalid datetime", errorMessage(t, body))
}
