package repository

import (
	"context"
	"time"

	"shopping/internal/domain/model"

	"github.com/shopspring/decimal"
)

// キャンセル以外の注文の集計
type OrderSummary struct {
	Revenue    decimal.Decimal
	OrderCount int64
}

type TopProductRow struct {
	ProductID   int64
	ProductName string
	OrderCount  int64
	Quantity    int64
	Revenue     decimal.Decimal
}

type AnalyticsRepository interface {
	SummarizeOrders(ctx context.Context) (OrderSummary, error)
	// since 以降のキャンセル以外の注文（created_at 昇順）
	ListOrdersSince(ctx context.Context, since time.Time) ([]model.Order, error)
	TopProducts(ctx context.Context, limit int) ([]TopProductRow, error)
	CountUsers(ctx context.Context) (int64, error)
	CountProducts(ctx context.Context) (int64, error)
}
