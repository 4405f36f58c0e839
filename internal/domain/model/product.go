package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID            int64               `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string              `gorm:"type:varchar(255);not null" json:"name"`
	Description   string              `gorm:"type:text" json:"description"`
	Price         decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"price"`
	DiscountPrice decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"discount_price"`
	Stock         int64               `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	CategoryID    int64               `gorm:"not null;index" json:"category_id"`
	ImageURL      string              `gorm:"type:varchar(512)" json:"image_url"`
	Rating        float64             `gorm:"not null;default:0" json:"rating"`
	ReviewCount   int64               `gorm:"not null;default:0" json:"review_count"`
	CreatedAt     time.Time           `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt      `gorm:"index" json:"-"`
}

// 割引価格が設定されていて定価以下ならそれを使う
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice.Valid && p.DiscountPrice.Decimal.LessThanOrEqual(p.Price) {
		return p.DiscountPrice.Decimal
	}
	return p.Price
}
