package usecase

import (
	"context"
	"net/http"
	"time"

	repo "shopping/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	revenueWindowDays = 30
	topProductsLimit  = 5
)

type AnalyticsUsecase struct {
	repo repo.AnalyticsRepository
	now  func() time.Time
}

func NewAnalyticsUsecase(r repo.AnalyticsRepository) *AnalyticsUsecase {
	return &AnalyticsUsecase{repo: r, now: time.Now}
}

type RevenueByDate struct {
	Date       string          `json:"date"`
	Revenue    decimal.Decimal `json:"revenue"`
	OrderCount int64           `json:"order_count"`
}

type TopProduct struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	OrderCount  int64           `json:"order_count"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

type AnalyticsOutput struct {
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalOrders   int64           `json:"total_orders"`
	TotalUsers    int64           `json:"total_users"`
	TotalProducts int64           `json:"total_products"`
	RevenueByDate []RevenueByDate `json:"revenue_by_date"`
	TopProducts   []TopProduct    `json:"top_products"`
}

// キャンセル済みの注文は売上に含めない
func (u *AnalyticsUsecase) Get(ctx context.Context) (AnalyticsOutput, error) {
	dbErr := NewHTTPError(http.StatusInternalServerError, "db error")

	summary, err := u.repo.SummarizeOrders(ctx)
	if err != nil {
		return AnalyticsOutput{}, dbErr
	}
	users, err := u.repo.CountUsers(ctx)
	if err != nil {
		return AnalyticsOutput{}, dbErr
	}
	products, err := u.repo.CountProducts(ctx)
	if err != nil {
		return AnalyticsOutput{}, dbErr
	}

	since := u.now().UTC().AddDate(0, 0, -revenueWindowDays)
	orders, err := u.repo.ListOrdersSince(ctx, since)
	if err != nil {
		return AnalyticsOutput{}, dbErr
	}

	// 日付ごとに集計（created_at 昇順で来るので出現順がそのまま日付順）
	byDate := make([]RevenueByDate, 0)
	index := map[string]int{}
	for _, o := range orders {
		day := o.CreatedAt.UTC().Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			i = len(byDate)
			index[day] = i
			byDate = append(byDate, RevenueByDate{Date: day, Revenue: decimal.Zero})
		}
		byDate[i].Revenue = byDate[i].Revenue.Add(o.TotalAmount)
		byDate[i].OrderCount++
	}

	rows, err := u.repo.TopProducts(ctx, topProductsLimit)
	if err != nil {
		return AnalyticsOutput{}, dbErr
	}
	top := make([]TopProduct, 0, len(rows))
	for _, row := range rows {
		top = append(top, TopProduct{
			ProductID:   row.ProductID,
			ProductName: row.ProductName,
			OrderCount:  row.OrderCount,
			Quantity:    row.Quantity,
			Revenue:     row.Revenue,
		})
	}

	return AnalyticsOutput{
		TotalRevenue:  summary.Revenue,
		TotalOrders:   summary.OrderCount,
		TotalUsers:    users,
		TotalProducts: products,
		RevenueByDate: byDate,
		TopProducts:   top,
	}, nil
}
