package products

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/prejin2310/megora-inventory/pkg/db/models"
	"github.com/prejin2310/megora-inventory/pkg/pagination"
)

// ListQuery narrows a product listing.
type ListQuery struct {
	Search       string
	Category     string
	LowStockOnly bool
	Pagination   pagination.Params
}

// Repository wires together all product persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Update writes the named columns of product. Stock is never written here;
// it only moves through ApplyStockDelta.
func (r *Repository) Update(ctx context.Context, product *models.Product, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(product).
		Select(append(columns, "updated_at")).
		Updates(product).Error
}

// Archive soft-deletes the product.
func (r *Repository) Archive(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	return res.RowsAffected > 0, res.Error
}

// FindByID loads an active product.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDForUpdate loads an active product and holds its row lock until the
// surrounding transaction ends. SQLite ignores the locking clause.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySKU loads an active product by its SKU.
func (r *Repository) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads the active products among ids. Missing ids are simply absent
// from the result.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Exists reports whether a product row exists, archived or not.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Unscoped().
		Model(&models.Product{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns one buffered page of products, newest first.
func (r *Repository) List(ctx context.Context, q ListQuery) ([]models.Product, error) {
	cursor, err := pagination.ParseCursor(q.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).Model(&models.Product{})
	if search := strings.ToLower(strings.TrimSpace(q.Search)); search != "" {
		like := "%" + search + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(sku) LIKE ?)", like, like)
	}
	if category := strings.TrimSpace(q.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	if q.LowStockOnly {
		query = query.Where("stock <= low_stock_threshold")
	}
	if cursor != nil {
		query = query.Where("((created_at < ?) OR (created_at = ? AND id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(q.Pagination.Limit)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ApplyStockDelta adds delta to the product's stock only when the result stays
// non-negative, and returns the stock after the write. applied is false when
// the guard rejected the write or the product does not exist. Increments also
// reach archived products so cancellations can restore their stock.
func (r *Repository) ApplyStockDelta(ctx context.Context, id uuid.UUID, delta int) (stockAfter int, applied bool, err error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if delta > 0 {
		query = query.Unscoped()
	}
	res := query.
		Where("id = ? AND stock + ? >= 0", id, delta).
		UpdateColumns(map[string]any{
			"stock":      gorm.Expr("stock + ?", delta),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, false, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, false, nil
	}

	if err := r.db.WithContext(ctx).
		Unscoped().
		Model(&models.Product{}).
		Select("stock").
		Where("id = ?", id).
		Scan(&stockAfter).Error; err != nil {
		return 0, false, err
	}
	return stockAfter, true, nil
}
