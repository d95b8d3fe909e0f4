package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prejin2310/megora-inventory/pkg/enums"
)

// OrderLine is the slim line item carried in order events.
type OrderLine struct {
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	Quantity  int       `json:"qty"`
}

// OrderCreatedEvent signals a new order and the stock it reserved.
type OrderCreatedEvent struct {
	OrderID    uuid.UUID          `json:"order_id"`
	PublicID   string             `json:"public_id"`
	Channel    enums.OrderChannel `json:"channel"`
	Items      []OrderLine        `json:"items"`
	GrandTotal decimal.Decimal    `json:"grand_total"`
}

// OrderStatusChangedEvent is emitted for every forward status transition.
type OrderStatusChangedEvent struct {
	OrderID  uuid.UUID         `json:"order_id"`
	PublicID string            `json:"public_id"`
	From     enums.OrderStatus `json:"from"`
	To       enums.OrderStatus `json:"to"`
	Note     *string           `json:"note,omitempty"`
	At       time.Time         `json:"at"`
}

// OrderTerminatedEvent is emitted when an order is cancelled or returned and
// its stock restored.
type OrderTerminatedEvent struct {
	OrderID  uuid.UUID         `json:"order_id"`
	PublicID string            `json:"public_id"`
	From     enums.OrderStatus `json:"from"`
	Status   enums.OrderStatus `json:"status"`
	Reason   string            `json:"reason"`
	Restored []OrderLine       `json:"restored"`
	At       time.Time         `json:"at"`
}

// OrderUpdatedEvent is emitted for payment or courier edits.
type OrderUpdatedEvent struct {
	OrderID uuid.UUID `json:"order_id"`
	Fields  []string  `json:"fields"`
}

// StockAdjustedEvent is emitted for manual stock changes.
type StockAdjustedEvent struct {
	ProductID  uuid.UUID          `json:"product_id"`
	SKU        string             `json:"sku"`
	Change     int                `json:"change"`
	Reason     enums.LedgerReason `json:"reason"`
	StockAfter int                `json:"stock_after"`
	LowStock   bool               `json:"low_stock"`
}
