package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prejin2310/megora-inventory/internal/ledger"
	"github.com/prejin2310/megora-inventory/pkg/db/models"
	"github.com/prejin2310/megora-inventory/pkg/enums"
	"github.com/prejin2310/megora-inventory/pkg/pagination"
)

// ProductDTO represents the product payload returned to clients.
type ProductDTO struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	SKU               string          `json:"sku"`
	Price             decimal.Decimal `json:"price"`
	Stock             int             `json:"stock"`
	InitialStock      int             `json:"initial_stock"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	LowStock          bool            `json:"low_stock"`
	ImageURL          *string         `json:"image_url,omitempty"`
	Description       *string         `json:"description,omitempty"`
	Category          *string         `json:"category,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:                p.ID,
		Name:              p.Name,
		SKU:               p.SKU,
		Price:             p.Price,
		Stock:             p.Stock,
		InitialStock:      p.InitialStock,
		LowStockThreshold: p.LowStockThreshold,
		LowStock:          p.IsLowStock(),
		ImageURL:          p.ImageURL,
		Description:       p.Description,
		Category:          p.Category,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name              string
	SKU               string
	Price             decimal.Decimal
	Stock             int
	LowStockThreshold *int
	ImageURL          *string
	Description       *string
	Category          *string
}

// UpdateProductInput holds optional mutation values for a product. A Stock
// value is applied as a manual_edit movement, never as a raw overwrite.
type UpdateProductInput struct {
	Name              *string
	SKU               *string
	Price             *decimal.Decimal
	Stock             *int
	StockNote         *string
	LowStockThreshold *int
	ImageURL          *string
	Description       *string
	Category          *string
}

// ListProductsInput captures the filters for the product listing.
type ListProductsInput struct {
	Search       string
	Category     string
	LowStockOnly bool
	Pagination   pagination.Params
}

// ProductListResult is one page of products.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// AdjustStockInput is a manual stock change made by staff.
type AdjustStockInput struct {
	ProductID uuid.UUID
	Delta     int
	Reason    enums.LedgerReason
	Note      *string
	ActorID   uuid.UUID
}

// StockAdjustmentResult returns the product after the change and its ledger entry.
type StockAdjustmentResult struct {
	Product *ProductDTO     `json:"product"`
	Entry   ledger.EntryDTO `json:"entry"`
}

// StockMovement is one stock change applied together with its ledger entry.
type StockMovement struct {
	ProductID   uuid.UUID
	Delta       int
	Reason      enums.LedgerReason
	ReferenceID *uuid.UUID
	ActorID     uuid.UUID
	Note        *string
}

// ShortfallDetail explains why a stock movement could not be applied.
type ShortfallDetail struct {
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku,omitempty"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}
