package products

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/prejin2310/megora-inventory/internal/ledger"
	"github.com/prejin2310/megora-inventory/pkg/db"
	"github.com/prejin2310/megora-inventory/pkg/db/models"
	"github.com/prejin2310/megora-inventory/pkg/enums"
	pkgerrors "github.com/prejin2310/megora-inventory/pkg/errors"
	"github.com/prejin2310/megora-inventory/pkg/outbox"
	"github.com/prejin2310/megora-inventory/pkg/outbox/payloads"
	"github.com/prejin2310/megora-inventory/pkg/pagination"
)

const defaultLowStockThreshold = 5

// Service exposes product catalogue and stock operations.
type Service interface {
	CreateProduct(ctx context.Context, actorID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, actorID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	ArchiveProduct(ctx context.Context, actorID, productID uuid.UUID) error
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	AdjustStock(ctx context.Context, input AdjustStockInput) (*StockAdjustmentResult, error)
	ApplyMovements(ctx context.Context, tx *gorm.DB, movements []StockMovement) ([]models.InventoryLedgerEntry, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ledgerRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, input ledger.RecordEntryInput) (*models.InventoryLedgerEntry, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type movementObserver interface {
	ObserveMovement(reason string, delta int)
}

type service struct {
	repo    *Repository
	tx      txRunner
	ledger  ledgerRecorder
	outbox  outboxEmitter
	metrics movementObserver
}

// NewService constructs a product service instance. metrics may be nil.
func NewService(repo *Repository, tx txRunner, ledgerSvc ledgerRecorder, emitter outboxEmitter, metrics movementObserver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		ledger:  ledgerSvc,
		outbox:  emitter,
		metrics: metrics,
	}, nil
}

func (s *service) CreateProduct(ctx context.Context, actorID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	sku := normalizeSKU(input.SKU)
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	threshold := defaultLowStockThreshold
	if input.LowStockThreshold != nil {
		threshold = *input.LowStockThreshold
	}
	if threshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "low_stock_threshold cannot be negative")
	}

	if err := s.ensureSKUAvailable(ctx, sku, uuid.Nil); err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:                uuid.New(),
		Name:              name,
		SKU:               sku,
		Price:             input.Price.Round(2),
		Stock:             input.Stock,
		InitialStock:      input.Stock,
		LowStockThreshold: threshold,
		ImageURL:          trimOptional(input.ImageURL),
		Description:       trimOptional(input.Description),
		Category:          trimOptional(input.Category),
	}
	if err := s.repo.Create(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, skuConflict(sku)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return NewProductDTO(product), nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.loadProduct(ctx, s.repo, productID)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

func (s *service) UpdateProduct(ctx context.Context, actorID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}
	if input.Stock != nil && *input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		load := s.loadProduct
		if input.Stock != nil {
			load = s.loadProductForUpdate
		}
		product, err := load(ctx, txRepo, productID)
		if err != nil {
			return err
		}

		columns, err := applyProductPatch(product, input)
		if err != nil {
			return err
		}
		if input.SKU != nil {
			if err := s.ensureSKUAvailableTx(ctx, txRepo, product.SKU, product.ID); err != nil {
				return err
			}
		}
		if err := txRepo.Update(ctx, product, columns...); err != nil {
			if db.IsUniqueViolation(err, "") {
				return skuConflict(product.SKU)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
		}

		if input.Stock != nil && *input.Stock != product.Stock {
			movement := StockMovement{
				ProductID: product.ID,
				Delta:     *input.Stock - product.Stock,
				Reason:    enums.LedgerReasonManualEdit,
				ActorID:   actorID,
				Note:      input.StockNote,
			}
			entries, err := s.ApplyMovements(ctx, tx, []StockMovement{movement})
			if err != nil {
				return err
			}
			// stock is set as an absolute value; another writer moving it
			// between the read and the delta must not shift the result
			if entries[0].StockAfter != *input.Stock {
				return pkgerrors.New(pkgerrors.CodeTxConflict, "product stock changed concurrently; retry")
			}
			if err := s.emitStockAdjusted(ctx, tx, product, entries[0], actorID); err != nil {
				return err
			}
		}

		updated, err = s.loadProduct(ctx, txRepo, product.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return NewProductDTO(updated), nil
}

func (s *service) ArchiveProduct(ctx context.Context, actorID, productID uuid.UUID) error {
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	archived, err := s.repo.Archive(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: archive product")
	}
	if !archived {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	if _, err := pagination.ParseCursor(input.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, ListQuery{
		Search:       input.Search,
		Category:     input.Category,
		LowStockOnly: input.LowStockOnly,
		Pagination:   input.Pagination,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	page, next := pagination.Trim(rows, input.Pagination.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	result := &ProductListResult{Products: make([]ProductDTO, 0, len(page)), NextCursor: next}
	for i := range page {
		result.Products = append(result.Products, *NewProductDTO(&page[i]))
	}
	return result, nil
}

// AdjustStock applies a manual stock change and records it in the ledger.
func (s *service) AdjustStock(ctx context.Context, input AdjustStockInput) (*StockAdjustmentResult, error) {
	if err := validateAdjustment(input); err != nil {
		return nil, err
	}

	var (
		product *models.Product
		entry   *models.InventoryLedgerEntry
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := s.loadProduct(ctx, txRepo, input.ProductID); err != nil {
			return err
		}
		entries, err := s.ApplyMovements(ctx, tx, []StockMovement{{
			ProductID: input.ProductID,
			Delta:     input.Delta,
			Reason:    input.Reason,
			ActorID:   input.ActorID,
			Note:      input.Note,
		}})
		if err != nil {
			return err
		}
		entry = &entries[0]

		product, err = s.loadProduct(ctx, txRepo, input.ProductID)
		if err != nil {
			return err
		}
		return s.emitStockAdjusted(ctx, tx, product, *entry, input.ActorID)
	})
	if err != nil {
		return nil, err
	}
	return &StockAdjustmentResult{
		Product: NewProductDTO(product),
		Entry:   ledger.NewEntryDTO(*entry),
	}, nil
}

// ApplyMovements moves stock for each movement inside tx and appends one
// ledger entry per movement. Rows are touched in product id order so
// concurrent transactions lock them in the same sequence. A movement that
// would drive stock negative fails with CodeInsufficientStock; an unknown
// product fails with CodeNotFound.
func (s *service) ApplyMovements(ctx context.Context, tx *gorm.DB, movements []StockMovement) ([]models.InventoryLedgerEntry, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	ordered := append([]StockMovement(nil), movements...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ProductID.String() < ordered[j].ProductID.String()
	})

	txRepo := s.repo.WithTx(tx)
	entries := make([]models.InventoryLedgerEntry, 0, len(ordered))
	for _, m := range ordered {
		if m.Delta == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock movement cannot be zero")
		}
		stockAfter, applied, err := txRepo.ApplyStockDelta(ctx, m.ProductID, m.Delta)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: apply stock delta")
		}
		if !applied {
			return nil, s.explainRejectedMovement(ctx, txRepo, m)
		}

		entry, err := s.ledger.Record(ctx, tx, ledger.RecordEntryInput{
			ProductID:   m.ProductID,
			Change:      m.Delta,
			Reason:      m.Reason,
			ReferenceID: m.ReferenceID,
			ActorID:     m.ActorID,
			Note:        m.Note,
			StockAfter:  stockAfter,
		})
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	if s.metrics != nil {
		for _, e := range entries {
			s.metrics.ObserveMovement(e.Reason.String(), e.Change)
		}
	}
	return entries, nil
}

func (s *service) explainRejectedMovement(ctx context.Context, repo *Repository, m StockMovement) error {
	exists, err := repo.Exists(ctx, m.ProductID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check product")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product missing").
			WithDetails(map[string]any{"product_id": m.ProductID})
	}
	detail := ShortfallDetail{ProductID: m.ProductID, Requested: -m.Delta}
	if product, err := repo.FindByID(ctx, m.ProductID); err == nil {
		detail.SKU = product.SKU
		detail.Available = product.Stock
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	} else {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product missing").
			WithDetails(map[string]any{"product_id": m.ProductID})
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
		WithDetails([]ShortfallDetail{detail})
}

func (s *service) emitStockAdjusted(ctx context.Context, tx *gorm.DB, product *models.Product, entry models.InventoryLedgerEntry, actorID uuid.UUID) error {
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventStockAdjusted,
		AggregateType: enums.AggregateProduct,
		AggregateID:   product.ID,
		Actor:         &outbox.ActorRef{ActorID: actorID},
		Data: payloads.StockAdjustedEvent{
			ProductID:  product.ID,
			SKU:        product.SKU,
			Change:     entry.Change,
			Reason:     entry.Reason,
			StockAfter: entry.StockAfter,
			LowStock:   entry.StockAfter <= product.LowStockThreshold,
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit stock adjusted event")
	}
	return nil
}

func (s *service) loadProduct(ctx context.Context, repo *Repository, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	return product, nil
}

func (s *service) loadProductForUpdate(ctx context.Context, repo *Repository, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := repo.FindByIDForUpdate(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock product")
	}
	return product, nil
}

func (s *service) ensureSKUAvailable(ctx context.Context, sku string, self uuid.UUID) error {
	return s.ensureSKUAvailableTx(ctx, s.repo, sku, self)
}

func (s *service) ensureSKUAvailableTx(ctx context.Context, repo *Repository, sku string, self uuid.UUID) error {
	existing, err := repo.FindBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lookup sku")
	}
	if existing.ID != self {
		return skuConflict(sku)
	}
	return nil
}

func applyProductPatch(product *models.Product, input UpdateProductInput) ([]string, error) {
	columns := []string{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		product.Name = name
		columns = append(columns, "name")
	}
	if input.SKU != nil {
		sku := normalizeSKU(*input.SKU)
		if sku == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku cannot be empty")
		}
		product.SKU = sku
		columns = append(columns, "sku")
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
		product.Price = input.Price.Round(2)
		columns = append(columns, "price")
	}
	if input.LowStockThreshold != nil {
		if *input.LowStockThreshold < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "low_stock_threshold cannot be negative")
		}
		product.LowStockThreshold = *input.LowStockThreshold
		columns = append(columns, "low_stock_threshold")
	}
	if input.ImageURL != nil {
		product.ImageURL = trimOptional(input.ImageURL)
		columns = append(columns, "image_url")
	}
	if input.Description != nil {
		product.Description = trimOptional(input.Description)
		columns = append(columns, "description")
	}
	if input.Category != nil {
		product.Category = trimOptional(input.Category)
		columns = append(columns, "category")
	}
	return columns, nil
}

func validateAdjustment(input AdjustStockInput) error {
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.ActorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}
	if input.Delta == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "delta cannot be zero")
	}
	if !input.Reason.IsManual() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("reason %q cannot be used for manual adjustments", input.Reason))
	}
	switch input.Reason {
	case enums.LedgerReasonRestock:
		if input.Delta < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "restock must add stock")
		}
	case enums.LedgerReasonDamage:
		if input.Delta > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "damage must remove stock")
		}
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	return nil
}

func normalizeSKU(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
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

func skuConflict(sku string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("sku %s already exists", sku))
}
