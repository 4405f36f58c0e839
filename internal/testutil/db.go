// Package testutil はテスト用のDBとデータ作成を提供する。
package testutil

import (
	"path/filepath"
	"testing"

	"shopping/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// t.TempDir にファイルDBを作り、全モデルを migrate する。
// 接続は1本に絞るので、並行トランザクションは直列に実行される。
func OpenSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, gormDB.AutoMigrate(model.All()...))
	return gormDB
}

func SeedUser(t *testing.T, db *gorm.DB, email string, role model.Role) model.User {
	t.Helper()
	u := model.User{Email: email, PasswordHash: "x", Role: role, IsActive: true}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func SeedCategory(t *testing.T, db *gorm.DB, name string) model.Category {
	t.Helper()
	c := model.Category{Name: name}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func SeedProduct(t *testing.T, db *gorm.DB, categoryID int64, name string, price string, stock int64) model.Product {
	t.Helper()
	p := model.Product{
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		CategoryID: categoryID,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

// カートを作って明細を入れる
func SeedCart(t *testing.T, db *gorm.DB, userID int64, lines map[int64]int64) model.Cart {
	t.Helper()
	c := model.Cart{UserID: userID}
	require.NoError(t, db.Create(&c).Error)
	for productID, qty := range lines {
		require.NoError(t, db.Create(&model.CartItem{CartID: c.ID, ProductID: productID, Quantity: qty}).Error)
	}
	return c
}

func Stock(t *testing.T, db *gorm.DB, productID int64) int64 {
	t.Helper()
	var p model.Product
	require.NoError(t, db.Unscoped().First(&p, productID).Error)
	return p.Stock
}
