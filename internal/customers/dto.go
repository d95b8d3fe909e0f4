package customers

import (
	"time"

	"github.com/google/uuid"

	"github.com/prejin2310/megora-inventory/pkg/db/models"
	"github.com/prejin2310/megora-inventory/pkg/pagination"
)

// CustomerDTO is the customer payload returned to clients.
type CustomerDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewCustomerDTO(c *models.Customer) *CustomerDTO {
	if c == nil {
		return nil
	}
	return &CustomerDTO{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type CreateCustomerInput struct {
	Name    string
	Email   *string
	Phone   *string
	Address *string
}

type UpdateCustomerInput struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
}

type ListCustomersInput struct {
	Search     string
	Pagination pagination.Params
}

type CustomerListResult struct {
	Customers  []CustomerDTO `json:"customers"`
	NextCursor string        `json:"next_cursor,omitempty"`
}
