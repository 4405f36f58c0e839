package repository

import (
	"context"
	"time"

	"shopping/internal/domain/model"
	repo "shopping/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AnalyticsGormRepository struct {
	db *gorm.DB
}

func NewAnalyticsGormRepository(db *gorm.DB) *AnalyticsGormRepository {
	return &AnalyticsGormRepository{db: db}
}

type orderSummaryRow struct {
	Revenue    decimal.NullDecimal
	OrderCount int64
}

func (r *AnalyticsGormRepository) SummarizeOrders(ctx context.Context) (repo.OrderSummary, error) {
	var row orderSummaryRow
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("SUM(total_amount) AS revenue, COUNT(*) AS order_count").
		Where("status <> ?", model.OrderStatusCancelled).
		Scan(&row).Error
	if err != nil {
		return repo.OrderSummary{}, err
	}

	out := repo.OrderSummary{Revenue: decimal.Zero, OrderCount: row.OrderCount}
	if row.Revenue.Valid {
		out.Revenue = row.Revenue.Decimal
	}
	return out, nil
}

func (r *AnalyticsGormRepository) ListOrdersSince(ctx context.Context, since time.Time) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Where("status <> ? AND created_at >= ?", model.OrderStatusCancelled, since).
		Order("created_at asc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

type topProductRow struct {
	ProductID   int64
	ProductName string
	OrderCount  int64
	Quantity    int64
	Revenue     decimal.NullDecimal
}

// 売上金額の多い順
func (r *AnalyticsGormRepository) TopProducts(ctx context.Context, limit int) ([]repo.TopProductRow, error) {
	if limit <= 0 {
		limit = 5
	}

	var rows []topProductRow
	err := r.db.WithContext(ctx).
		Table("order_items").
		Select(`order_items.product_id AS product_id,
			MAX(order_items.product_name_snapshot) AS product_name,
			COUNT(DISTINCT order_items.order_id) AS order_count,
			SUM(order_items.quantity) AS quantity,
			SUM(order_items.subtotal) AS revenue`).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status <> ?", model.OrderStatusCancelled).
		Group("order_items.product_id").
		Order("revenue DESC").
		Order("product_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]repo.TopProductRow, 0, len(rows))
	for _, row := range rows {
		rev := decimal.Zero
		if row.Revenue.Valid {
			rev = row.Revenue.Decimal
		}
		out = append(out, repo.TopProductRow{
			ProductID:   row.ProductID,
			ProductName: row.ProductName,
			OrderCount:  row.OrderCount,
			Quantity:    row.Quantity,
			Revenue:     rev,
		})
	}
	return out, nil
}

func (r *AnalyticsGormRepository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error
	return n, err
}

func (r *AnalyticsGormRepository) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&n).Error
	return n, err
}
