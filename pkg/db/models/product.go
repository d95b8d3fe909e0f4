package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable item and the single source of truth for its stock.
type Product struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name              string          `gorm:"column:name;not null"`
	SKU               string          `gorm:"column:sku;not null;uniqueIndex:ux_products_sku"`
	Price             decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Stock             int             `gorm:"column:stock;not null;default:0"`
	InitialStock      int             `gorm:"column:initial_stock;not null;default:0"`
	LowStockThreshold int             `gorm:"column:low_stock_threshold;not null;default:5"`
	ImageURL          *string         `gorm:"column:image_url"`
	Description       *string         `gorm:"column:description"`
	Category          *string         `gorm:"column:category"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt         gorm.DeletedAt  `gorm:"column:deleted_at;index"`
}

// IsLowStock reports whether stock has fallen to the product's threshold.
func (p Product) IsLowStock() bool {
	return p.Stock <= p.LowStockThreshold
}
