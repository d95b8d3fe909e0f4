package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prejin2310/megora-inventory/pkg/enums"
)

// Order owns its line items, totals and history; all three are stored as JSON
// columns and never joined.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	PublicID         string              `gorm:"column:public_id;not null;index:idx_orders_public_id"`
	Status           enums.OrderStatus   `gorm:"column:status;not null;index:idx_orders_status"`
	Channel          enums.OrderChannel  `gorm:"column:channel;not null"`
	CustomerID       *uuid.UUID          `gorm:"column:customer_id;type:uuid;index:idx_orders_customer_id"`
	CustomerSnapshot *CustomerSnapshot   `gorm:"column:customer_snapshot;type:jsonb;serializer:json"`
	CustomerName     *string             `gorm:"column:customer_name"`
	Items            []OrderItem         `gorm:"column:items;type:jsonb;serializer:json;not null"`
	Totals           OrderTotals         `gorm:"column:totals;type:jsonb;serializer:json;not null"`
	Courier          *CourierInfo        `gorm:"column:courier;type:jsonb;serializer:json"`
	PaymentStatus    enums.PaymentStatus `gorm:"column:payment_status;not null;default:pending"`
	History          []HistoryEntry      `gorm:"column:history;type:jsonb;serializer:json;not null"`
	Notes            *string             `gorm:"column:notes"`
	Version          int                 `gorm:"column:version;not null;default:1"`
	CreatedBy        uuid.UUID           `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime;index:idx_orders_updated_at"`
}

// OrderItem is a line item with the product's name, SKU and price captured at
// order time.
type OrderItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"qty"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// OrderTotals is the monetary snapshot computed when the order was created.
type OrderTotals struct {
	SubTotal   decimal.Decimal `json:"subTotal"`
	Shipping   decimal.Decimal `json:"shipping"`
	Tax        decimal.Decimal `json:"tax"`
	Discount   decimal.Decimal `json:"discount"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

// HistoryEntry records one status change.
type HistoryEntry struct {
	Status enums.OrderStatus `json:"status"`
	At     time.Time         `json:"at"`
	By     uuid.UUID         `json:"by"`
	Note   *string           `json:"note,omitempty"`
}

// CustomerSnapshot is an inline customer embedded in the order instead of a
// customer reference. It is not kept in sync with any customer record.
type CustomerSnapshot struct {
	Name    string  `json:"name"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

// CourierInfo describes how the order is shipped.
type CourierInfo struct {
	Name           string  `json:"name"`
	TrackingNumber *string `json:"trackingNumber,omitempty"`
	TrackingURL    *string `json:"trackingUrl,omitempty"`
}
