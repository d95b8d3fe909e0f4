package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/prejin2310/megora-inventory/pkg/db/dbtest"
	"github.com/prejin2310/megora-inventory/pkg/db/models"
	"github.com/prejin2310/megora-inventory/pkg/enums"
	"github.com/prejin2310/megora-inventory/pkg/pagination"
)

func seedProduct(t *testing.T, db *gorm.DB, sku string, stock, initial int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:                uuid.New(),
		Name:              "Pearl drop " + sku,
		SKU:               sku,
		Price:             decimal.NewFromInt(100),
		Stock:             stock,
		InitialStock:      initial,
		LowStockThreshold: 5,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func seedEntry(t *testing.T, db *gorm.DB, productID uuid.UUID, change int, reason enums.LedgerReason, ref *uuid.UUID) {
	t.Helper()
	require.NoError(t, db.Create(&models.InventoryLedgerEntry{
		ID:          uuid.New(),
		ProductID:   productID,
		Change:      change,
		Reason:      reason,
		ReferenceID: ref,
		ActorID:     uuid.New(),
	}).Error)
}

func TestRepository_BalancesAndSums(t *testing.T) {
	db := dbtest.Open(t, "ledger_balances")
	repo := NewRepository(db)
	ctx := context.Background()

	consistent := seedProduct(t, db, "MJ-0A1", 7, 10)
	seedEntry(t, db, consistent.ID, -5, enums.LedgerReasonOrder, nil)
	seedEntry(t, db, consistent.ID, 2, enums.LedgerReasonRestock, nil)

	untouched := seedProduct(t, db, "MJ-0B2", 4, 4)

	sum, err := repo.SumByProduct(ctx, consistent.ID)
	require.NoError(t, err)
	assert.Equal(t, -3, sum)

	sum, err = repo.SumByProduct(ctx, untouched.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, sum)

	balances, err := repo.Balances(ctx)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, "MJ-0A1", balances[0].SKU)
	assert.Equal(t, -3, balances[0].LedgerSum)
	assert.Equal(t, consistent.ID, balances[0].ProductID)
	assert.Equal(t, 0, balances[1].LedgerSum)

	svc, err := NewService(repo)
	require.NoError(t, err)
	report, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent(), "drifts: %+v", report.Drifts)
}

func TestRepository_ListByProductPagesNewestFirst(t *testing.T) {
	db := dbtest.Open(t, "ledger_pages")
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, "MJ-0C3", 0, 0)
	other := seedProduct(t, db, "MJ-0D4", 0, 0)
	for i := 1; i <= 5; i++ {
		seedEntry(t, db, product.ID, i, enums.LedgerReasonRestock, nil)
	}
	seedEntry(t, db, other.ID, 9, enums.LedgerReasonRestock, nil)

	svc, err := NewService(repo)
	require.NoError(t, err)

	first, err := svc.History(ctx, product.ID, pagination.Params{Limit: 3})
	require.NoError(t, err)
	require.Len(t, first.Entries, 3)
	assert.Equal(t, 5, first.Entries[0].Change)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.History(ctx, product.ID, pagination.Params{Limit: 3, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Entries, 2)
	assert.Equal(t, 2, second.Entries[0].Change)
	assert.Equal(t, 1, second.Entries[1].Change)
	assert.Empty(t, second.NextCursor)
}

func TestRepository_ListByReference(t *testing.T) {
	db := dbtest.Open(t, "ledger_reference")
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, "MJ-0E5", 0, 0)
	orderID := uuid.New()
	seedEntry(t, db, product.ID, -1, enums.LedgerReasonOrder, &orderID)
	seedEntry(t, db, product.ID, 1, enums.LedgerReasonCancelled, &orderID)
	seedEntry(t, db, product.ID, 4, enums.LedgerReasonRestock, nil)

	entries, err := repo.ListByReference(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, enums.LedgerReasonOrder, entries[0].Reason)
	assert.Equal(t, enums.LedgerReasonCancelled, entries[1].Reason)
}
