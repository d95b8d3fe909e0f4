package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prejin2310/megora-inventory/internal/repo"
	"github.com/prejin2310/megora-inventory/pkg/db/models"
	"github.com/prejin2310/megora-inventory/pkg/enums"
	"github.com/prejin2310/megora-inventory/pkg/pagination"
)

// Repository defines persistence operations for the orders table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByPublicID(ctx context.Context, publicID string) (*models.Order, error)
	UpdateVersioned(ctx context.Context, order *models.Order, columns ...string) (bool, error)
	List(ctx context.Context, q ListQuery) ([]models.Order, error)
}

// ListQuery filters the staff order listing.
type ListQuery struct {
	Status       enums.OrderStatus
	Channel      enums.OrderChannel
	CustomerID   *uuid.UUID
	PublicID     string
	UpdatedSince *time.Time
	Pagination   pagination.Params
}

type repository struct {
	base repo.Base
}

// NewRepository binds a repository to the provided database handle.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: r.base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.base.DB(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.base.DB(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByPublicID resolves a customer-facing id. Public ids are not unique at
// the store level; the oldest match wins.
func (r *repository) FindByPublicID(ctx context.Context, publicID string) (*models.Order, error) {
	var order models.Order
	if err := r.base.DB(ctx).
		Where("public_id = ?", publicID).
		Order("created_at ASC").
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateVersioned writes columns only if the stored version still matches
// order.Version, then bumps the version. It returns false when another writer
// changed the order first.
func (r *repository) UpdateVersioned(ctx context.Context, order *models.Order, columns ...string) (bool, error) {
	expected := order.Version
	order.Version = expected + 1
	res := r.base.DB(ctx).
		Model(order).
		Where("version = ?", expected).
		Select(append(columns, "version", "updated_at")).
		Updates(order)
	if res.Error != nil {
		order.Version = expected
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		order.Version = expected
		return false, nil
	}
	return true, nil
}

// List returns one buffered page of orders, newest first.
func (r *repository) List(ctx context.Context, q ListQuery) ([]models.Order, error) {
	cursor, err := pagination.ParseCursor(q.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.base.DB(ctx).Model(&models.Order{})
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.Channel != "" {
		query = query.Where("channel = ?", q.Channel)
	}
	if q.CustomerID != nil {
		query = query.Where("customer_id = ?", *q.CustomerID)
	}
	if publicID := strings.TrimSpace(q.PublicID); publicID != "" {
		query = query.Where("public_id LIKE ?", publicID+"%")
	}
	if q.UpdatedSince != nil {
		query = query.Where("updated_at > ?", q.UpdatedSince.UTC())
	}
	if cursor != nil {
		query = query.Where("((created_at < ?) OR (created_at = ? AND id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(q.Pagination.Limit)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
