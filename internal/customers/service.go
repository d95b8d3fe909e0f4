package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prejin2310/megora-inventory/pkg/db/models"
	pkgerrors "github.com/prejin2310/megora-inventory/pkg/errors"
	"github.com/prejin2310/megora-inventory/pkg/pagination"
)

// Service manages the customer directory.
type Service interface {
	CreateCustomer(ctx context.Context, actorID uuid.UUID, input CreateCustomerInput) (*CustomerDTO, error)
	GetCustomer(ctx context.Context, customerID uuid.UUID) (*CustomerDTO, error)
	UpdateCustomer(ctx context.Context, actorID, customerID uuid.UUID, input UpdateCustomerInput) (*CustomerDTO, error)
	ListCustomers(ctx context.Context, input ListCustomersInput) (*CustomerListResult, error)
	NamesByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

var fieldValidator = validator.New()

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateCustomer(ctx context.Context, actorID uuid.UUID, input CreateCustomerInput) (*CustomerDTO, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}

	customer := &models.Customer{
		ID:      uuid.New(),
		Name:    name,
		Email:   email,
		Phone:   trimOptional(input.Phone),
		Address: trimOptional(input.Address),
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert customer")
	}
	return NewCustomerDTO(customer), nil
}

func (s *service) GetCustomer(ctx context.Context, customerID uuid.UUID) (*CustomerDTO, error) {
	customer, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return NewCustomerDTO(customer), nil
}

func (s *service) UpdateCustomer(ctx context.Context, actorID, customerID uuid.UUID, input UpdateCustomerInput) (*CustomerDTO, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}
	customer, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}

	columns := []string{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		customer.Name = name
		columns = append(columns, "name")
	}
	if input.Email != nil {
		email, err := normalizeEmail(input.Email)
		if err != nil {
			return nil, err
		}
		customer.Email = email
		columns = append(columns, "email")
	}
	if input.Phone != nil {
		customer.Phone = trimOptional(input.Phone)
		columns = append(columns, "phone")
	}
	if input.Address != nil {
		customer.Address = trimOptional(input.Address)
		columns = append(columns, "address")
	}

	if err := s.repo.Update(ctx, customer, columns...); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update customer")
	}
	return NewCustomerDTO(customer), nil
}

func (s *service) ListCustomers(ctx context.Context, input ListCustomersInput) (*CustomerListResult, error) {
	if _, err := pagination.ParseCursor(input.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, ListQuery{Search: input.Search, Pagination: input.Pagination})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	page, next := pagination.Trim(rows, input.Pagination.Limit, func(c models.Customer) pagination.Cursor {
		return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	})
	result := &CustomerListResult{Customers: make([]CustomerDTO, 0, len(page)), NextCursor: next}
	for i := range page {
		result.Customers = append(result.Customers, *NewCustomerDTO(&page[i]))
	}
	return result, nil
}

// NamesByID resolves display names for the given customer ids. Unknown ids are
// absent from the result.
func (s *service) NamesByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	rows, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: resolve customers")
	}
	names := make(map[uuid.UUID]string, len(rows))
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

func (s *service) load(ctx context.Context, customerID uuid.UUID) (*models.Customer, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load customer")
	}
	return customer, nil
}

func normalizeEmail(value *string) (*string, error) {
	email := trimOptional(value)
	if email == nil {
		return nil, nil
	}
	lowered := strings.ToLower(*email)
	if err := fieldValidator.Var(lowered, "email"); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is invalid")
	}
	return &lowered, nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
