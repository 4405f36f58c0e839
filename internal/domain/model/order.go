package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// ParseOrderStatus は文字列を OrderStatus に変換する。未知の値は false。
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return st, true
	}
	return "", false
}

// 作成後に変わるのは status（と updated_at）だけ
type Order struct {
	ID               int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           int64           `gorm:"not null;index" json:"user_id"`
	Status           OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalAmount      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	PaymentReference string          `gorm:"type:varchar(255);not null" json:"payment_reference"`
	ShippingAddress  string          `gorm:"type:text;not null" json:"shipping_address"`
	CreatedAt        time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null" json:"updated_at"`

	// 明細はrepositoryで明示的に読み込む
	Items []OrderItem `gorm:"-" json:"items"`
}
