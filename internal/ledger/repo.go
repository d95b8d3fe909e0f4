package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prejin2310/megora-inventory/pkg/db/models"
	"github.com/prejin2310/megora-inventory/pkg/pagination"
)

// Repository manages persistence for inventory ledger entries. There is no
// update or delete path: entries are append-only.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.InventoryLedgerEntry) error
	ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.InventoryLedgerEntry, error)
	ListByReference(ctx context.Context, referenceID uuid.UUID) ([]models.InventoryLedgerEntry, error)
	SumByProduct(ctx context.Context, productID uuid.UUID) (int, error)
	Balances(ctx context.Context) ([]Balance, error)
}

// Balance pairs a product's stock with the sum of its ledger entries.
type Balance struct {
	ProductID    uuid.UUID `gorm:"column:product_id"`
	SKU          string    `gorm:"column:sku"`
	Stock        int       `gorm:"column:stock"`
	InitialStock int       `gorm:"column:initial_stock"`
	LedgerSum    int       `gorm:"column:ledger_sum"`
}

const balancesQuery = `
SELECT p.id AS product_id,
       p.sku,
       p.stock,
       p.initial_stock,
       COALESCE(SUM(l.change), 0) AS ledger_sum
FROM products p
LEFT JOIN inventory_ledger_entries l ON l.product_id = p.id
GROUP BY p.id, p.sku, p.stock, p.initial_stock
ORDER BY p.sku ASC
`

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.InventoryLedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.InventoryLedgerEntry, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Where("product_id = ?", productID)
	if cursor != nil {
		query = query.Where("((created_at < ?) OR (created_at = ? AND id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var entries []models.InventoryLedgerEntry
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListByReference(ctx context.Context, referenceID uuid.UUID) ([]models.InventoryLedgerEntry, error) {
	var entries []models.InventoryLedgerEntry
	if err := r.db.WithContext(ctx).
		Where("reference_id = ?", referenceID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) SumByProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	var sum int
	if err := r.db.WithContext(ctx).
		Model(&models.InventoryLedgerEntry{}).
		Select("COALESCE(SUM(change), 0)").
		Where("product_id = ?", productID).
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum, nil
}

func (r *repository) Balances(ctx context.Context) ([]Balance, error) {
	var rows []Balance
	if err := r.db.WithContext(ctx).Raw(balancesQuery).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
