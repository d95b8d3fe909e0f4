package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/prejin2310/megora-inventory/pkg/enums"
)

// InventoryLedgerEntry is an append-only record of one stock change.
type InventoryLedgerEntry struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	ProductID   uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index:idx_ledger_product_created,priority:1"`
	Change      int                `gorm:"column:change;not null"`
	Reason      enums.LedgerReason `gorm:"column:reason;not null"`
	ReferenceID *uuid.UUID         `gorm:"column:reference_id;type:uuid;index:idx_ledger_reference"`
	ActorID     uuid.UUID          `gorm:"column:actor_id;type:uuid;not null"`
	Note        *string            `gorm:"column:note"`
	StockAfter  int                `gorm:"column:stock_after;not null"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime;index:idx_ledger_product_created,priority:2"`
}

// TableName pins the ledger table name.
func (InventoryLedgerEntry) TableName() string {
	return "inventory_ledger_entries"
}
