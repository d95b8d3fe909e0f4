package customers

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prejin2310/megora-inventory/internal/repo"
	"github.com/prejin2310/megora-inventory/pkg/db/models"
	"github.com/prejin2310/megora-inventory/pkg/pagination"
)

// ListQuery filters the customer listing.
type ListQuery struct {
	Search     string
	Pagination pagination.Params
}

// Repository persists customers.
type Repository struct {
	repo.Base
}

// NewRepository binds a repository to the provided database handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts a customer row.
func (r *Repository) Create(ctx context.Context, customer *models.Customer) error {
	return r.DB(ctx).Create(customer).Error
}

// Update writes the named columns of customer.
func (r *Repository) Update(ctx context.Context, customer *models.Customer, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	return r.DB(ctx).
		Model(customer).
		Select(append(columns, "updated_at")).
		Updates(customer).Error
}

// FindByID loads a customer.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.DB(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindByIDs loads every customer among ids.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Customer, error) {
	if len(ids) == 0 {
		return []models.Customer{}, nil
	}
	var rows []models.Customer
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List returns one buffered page of customers, newest first.
func (r *Repository) List(ctx context.Context, q ListQuery) ([]models.Customer, error) {
	cursor, err := pagination.ParseCursor(q.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.DB(ctx).Model(&models.Customer{})
	if search := strings.ToLower(strings.TrimSpace(q.Search)); search != "" {
		like := "%" + search + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(COALESCE(email, '')) LIKE ? OR COALESCE(phone, '') LIKE ?)", like, like, like)
	}
	if cursor != nil {
		query = query.Where("((created_at < ?) OR (created_at = ? AND id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Customer
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(q.Pagination.Limit)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
