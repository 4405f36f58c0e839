package usecase

import (
	"context"
	"sync"
	"testing"

	"shopping/internal/domain/model"
	infraRepo "shopping/internal/infra/repository"
	"shopping/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// sqlite 上で本物の gorm repository を組み立てる
type testEnv struct {
	db       *gorm.DB
	notifier *recordingNotifier

	orders     *OrderUsecase
	adminOrder *AdminOrderUsecase
	carts      *CartUsecase
	products   *ProductUsecase
	categories *CategoryUsecase
	reviews    *ReviewUsecase
	analytics  *AnalyticsUsecase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newEnvOn(t, testutil.OpenSQLite(t))
}

func newEnvOn(t *testing.T, db *gorm.DB) *testEnv {
	t.Helper()

	tx := infraRepo.NewTxManagerGorm(db)
	cart := infraRepo.NewCartGormRepository(db)
	products := infraRepo.NewProductGormRepository(db)
	categories := infraRepo.NewCategoryGormRepository(db)
	users := infraRepo.NewUserGormRepository(db)
	n := &recordingNotifier{}

	return &testEnv{
		db:         db,
		notifier:   n,
		orders:     NewOrderUsecase(tx, users, n, zap.NewNop()),
		adminOrder: NewAdminOrderUsecase(tx),
		carts:      NewCartUsecase(cart, cart, products, tx),
		products:   NewProductUsecase(products, categories, tx),
		categories: NewCategoryUsecase(categories, products),
		reviews:    NewReviewUsecase(tx, infraRepo.NewReviewGormRepository(db), products),
		analytics:  NewAnalyticsUsecase(infraRepo.NewAnalyticsGormRepository(db)),
	}
}

func setDiscount(t *testing.T, db *gorm.DB, productID int64, price string) {
	t.Helper()
	require.NoError(t, db.Model(&model.Product{}).
		Where("id = ?", productID).
		Update("discount_price", decimal.RequireFromString(price)).Error)
}

func cartLines(t *testing.T, db *gorm.DB, userID int64) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.CartItem{}).
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("carts.user_id = ?", userID).
		Count(&n).Error)
	return n
}

type recordingNotifier struct {
	mu     sync.Mutex
	orders []model.Order
}

func (r *recordingNotifier) SendOrderConfirmation(_ context.Context, _ model.User, order model.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, order)
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}
