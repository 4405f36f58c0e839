package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細。商品名と価格は注文時点のスナップショット
type OrderItem struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64           `gorm:"not null;index" json:"order_id"`
	ProductID           int64           `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string          `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	Quantity            int64           `gorm:"not null" json:"quantity"`
	PriceAtPurchase     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price_at_purchase"`
	Subtotal            decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"subtotal"`
	CreatedAt           time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}

// NewOrderItem は商品の現在の実効価格を凍結して明細を作る
func NewOrderItem(p Product, quantity int64) OrderItem {
	price := p.EffectivePrice()
	return OrderItem{
		ProductID:           p.ID,
		ProductNameSnapshot: p.Name,
		Quantity:            quantity,
		PriceAtPurchase:     price,
		Subtotal:            price.Mul(decimal.NewFromInt(quantity)),
	}
}

// SumSubtotals は明細の小計合計
func SumSubtotals(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total
}
