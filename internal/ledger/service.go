package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prejin2310/megora-inventory/pkg/db/models"
	"github.com/prejin2310/megora-inventory/pkg/enums"
	pkgerrors "github.com/prejin2310/megora-inventory/pkg/errors"
	"github.com/prejin2310/megora-inventory/pkg/pagination"
)

// Service records stock movements and answers audit queries over them.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordEntryInput) (*models.InventoryLedgerEntry, error)
	History(ctx context.Context, productID uuid.UUID, params pagination.Params) (*HistoryPage, error)
	ForReference(ctx context.Context, referenceID uuid.UUID) ([]EntryDTO, error)
	Reconcile(ctx context.Context) (*ReconcileReport, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// RecordEntryInput captures the immutable data a ledger entry requires.
type RecordEntryInput struct {
	ProductID   uuid.UUID
	Change      int
	Reason      enums.LedgerReason
	ReferenceID *uuid.UUID
	ActorID     uuid.UUID
	Note        *string
	StockAfter  int
}

// EntryDTO is the API shape of a ledger entry.
type EntryDTO struct {
	ID          uuid.UUID          `json:"id"`
	ProductID   uuid.UUID          `json:"product_id"`
	Change      int                `json:"change"`
	Reason      enums.LedgerReason `json:"reason"`
	ReferenceID *uuid.UUID         `json:"reference_id,omitempty"`
	ActorID     uuid.UUID          `json:"actor_id"`
	Note        *string            `json:"note,omitempty"`
	StockAfter  int                `json:"stock_after"`
	CreatedAt   time.Time          `json:"created_at"`
}

// HistoryPage is one page of a product's ledger, newest first.
type HistoryPage struct {
	Entries    []EntryDTO `json:"entries"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// Drift describes a product whose stock no longer matches its ledger.
type Drift struct {
	ProductID    uuid.UUID `json:"product_id"`
	SKU          string    `json:"sku"`
	Stock        int       `json:"stock"`
	InitialStock int       `json:"initial_stock"`
	LedgerSum    int       `json:"ledger_sum"`
	Difference   int       `json:"difference"`
}

func (d Drift) Error() string {
	return fmt.Sprintf("product %s (%s): stock %d - initial %d != ledger %d", d.SKU, d.ProductID, d.Stock, d.InitialStock, d.LedgerSum)
}

// ReconcileReport summarises a reconciliation run.
type ReconcileReport struct {
	CheckedProducts int       `json:"checked_products"`
	Drifts          []Drift   `json:"drifts"`
	CheckedAt       time.Time `json:"checked_at"`
}

// Consistent reports whether every product matched its ledger.
func (r ReconcileReport) Consistent() bool {
	return len(r.Drifts) == 0
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// Record appends an entry inside the caller's transaction.
func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordEntryInput) (*models.InventoryLedgerEntry, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if err := validateEntry(input); err != nil {
		return nil, err
	}

	entry := &models.InventoryLedgerEntry{
		ID:          uuid.New(),
		ProductID:   input.ProductID,
		Change:      input.Change,
		Reason:      input.Reason,
		ReferenceID: input.ReferenceID,
		ActorID:     input.ActorID,
		Note:        trimNote(input.Note),
		StockAfter:  input.StockAfter,
	}
	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert ledger entry")
	}
	return entry, nil
}

func (s *service) History(ctx context.Context, productID uuid.UUID, params pagination.Params) (*HistoryPage, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListByProduct(ctx, productID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}

	page, next := pagination.Trim(rows, params.Limit, func(e models.InventoryLedgerEntry) pagination.Cursor {
		return pagination.Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
	})
	return &HistoryPage{Entries: toDTOs(page), NextCursor: next}, nil
}

func (s *service) ForReference(ctx context.Context, referenceID uuid.UUID) ([]EntryDTO, error) {
	if referenceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference id is required")
	}
	rows, err := s.repo.ListByReference(ctx, referenceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}
	return toDTOs(rows), nil
}

// Reconcile checks Σ change == stock − initial_stock for every product,
// archived ones included.
func (s *service) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	balances, err := s.repo.Balances(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ledger balances")
	}

	report := &ReconcileReport{
		CheckedProducts: len(balances),
		Drifts:          []Drift{},
		CheckedAt:       s.now().UTC(),
	}
	for _, b := range balances {
		expected := b.Stock - b.InitialStock
		if b.LedgerSum == expected {
			continue
		}
		report.Drifts = append(report.Drifts, Drift{
			ProductID:    b.ProductID,
			SKU:          b.SKU,
			Stock:        b.Stock,
			InitialStock: b.InitialStock,
			LedgerSum:    b.LedgerSum,
			Difference:   expected - b.LedgerSum,
		})
	}
	return report, nil
}

func validateEntry(input RecordEntryInput) error {
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.ActorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}
	if input.Change == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "ledger change cannot be zero")
	}
	if !input.Reason.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid ledger reason %q", input.Reason))
	}
	if input.StockAfter < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot go negative")
	}
	return nil
}

func trimNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// NewEntryDTO converts a persisted entry.
func NewEntryDTO(e models.InventoryLedgerEntry) EntryDTO {
	return EntryDTO{
		ID:          e.ID,
		ProductID:   e.ProductID,
		Change:      e.Change,
		Reason:      e.Reason,
		ReferenceID: e.ReferenceID,
		ActorID:     e.ActorID,
		Note:        e.Note,
		StockAfter:  e.StockAfter,
		CreatedAt:   e.CreatedAt,
	}
}

func toDTOs(rows []models.InventoryLedgerEntry) []EntryDTO {
	out := make([]EntryDTO, 0, len(rows))
	for _, e := range rows {
		out = append(out, NewEntryDTO(e))
	}
	return out
}
