package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prejin2310/megora-inventory/internal/customers"
	"github.com/prejin2310/megora-inventory/internal/ledger"
	"github.com/prejin2310/megora-inventory/internal/products"
	"github.com/prejin2310/megora-inventory/pkg/db/models"
	"github.com/prejin2310/megora-inventory/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ProductCatalog reads the active products an order may reference.
type ProductCatalog interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// StockMover applies stock changes and their ledger entries inside a
// transaction.
type StockMover interface {
	ApplyMovements(ctx context.Context, tx *gorm.DB, movements []products.StockMovement) ([]models.InventoryLedgerEntry, error)
}

// CustomerDirectory resolves customers referenced by orders.
type CustomerDirectory interface {
	GetCustomer(ctx context.Context, customerID uuid.UUID) (*customers.CustomerDTO, error)
	NamesByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// LedgerReader lists the ledger entries an order produced.
type LedgerReader interface {
	ForReference(ctx context.Context, referenceID uuid.UUID) ([]ledger.EntryDTO, error)
}

type operationRecorder interface {
	RecordOperation(operation, outcome string)
	RecordConflict(operation string)
}
