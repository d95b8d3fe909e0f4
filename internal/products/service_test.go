package products

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/prejin2310/megora-inventory/internal/ledger"
	"github.com/prejin2310/megora-inventory/pkg/db/dbtest"
	"github.com/prejin2310/megora-inventory/pkg/db/models"
	"github.com/prejin2310/megora-inventory/pkg/enums"
	pkgerrors "github.com/prejin2310/megora-inventory/pkg/errors"
	"github.com/prejin2310/megora-inventory/pkg/outbox"
	"github.com/prejin2310/megora-inventory/pkg/pagination"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls map[string]int
}

func (r *recordingObserver) ObserveMovement(reason string, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = map[string]int{}
	}
	r.calls[reason] += delta
}

type testEnv struct {
	svc      Service
	conn     *gorm.DB
	observer *recordingObserver
}

func newTestEnv(t *testing.T, name string) testEnv {
	t.Helper()
	client, conn := dbtest.Client(t, name)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)
	observer := &recordingObserver{}
	svc, err := NewService(NewRepository(conn), client, ledgerSvc, outbox.NewService(outbox.NewRepository(conn), nil), observer)
	require.NoError(t, err)
	return testEnv{svc: svc, conn: conn, observer: observer}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func createProduct(t *testing.T, env testEnv, sku string, stock int) *ProductDTO {
	t.Helper()
	product, err := env.svc.CreateProduct(context.Background(), uuid.New(), CreateProductInput{
		Name:  "Kundan choker " + sku,
		SKU:   sku,
		Price: decimal.RequireFromString("100.00"),
		Stock: stock,
	})
	require.NoError(t, err)
	return product
}

func ledgerEntries(t *testing.T, conn *gorm.DB, productID uuid.UUID) []models.InventoryLedgerEntry {
	t.Helper()
	var rows []models.InventoryLedgerEntry
	require.NoError(t, conn.Where("product_id = ?", productID).Order("created_at ASC").Find(&rows).Error)
	return rows
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, nil, nil, nil, nil)
	require.Error(t, err)
}

func TestServiceCreateProduct(t *testing.T) {
	env := newTestEnv(t, "products_create")
	ctx := context.Background()

	product, err := env.svc.CreateProduct(ctx, uuid.New(), CreateProductInput{
		Name:     "  Temple earrings ",
		SKU:      " mj-ear-01 ",
		Price:    decimal.RequireFromString("1499.999"),
		Stock:    12,
		Category: strPtr("  "),
	})
	require.NoError(t, err)
	assert.Equal(t, "Temple earrings", product.Name)
	assert.Equal(t, "MJ-EAR-01", product.SKU)
	assert.True(t, decimal.RequireFromString("1500").Equal(product.Price))
	assert.Equal(t, 12, product.Stock)
	assert.Equal(t, 12, product.InitialStock)
	assert.Equal(t, defaultLowStockThreshold, product.LowStockThreshold)
	assert.Nil(t, product.Category)
	assert.False(t, product.LowStock)

	assert.Empty(t, ledgerEntries(t, env.conn, product.ID))
}

func TestServiceCreateProductValidation(t *testing.T) {
	env := newTestEnv(t, "products_create_validation")
	ctx := context.Background()
	actor := uuid.New()

	cases := []struct {
		name  string
		actor uuid.UUID
		input CreateProductInput
	}{
		{"missing actor", uuid.Nil, CreateProductInput{Name: "a", SKU: "b"}},
		{"missing name", actor, CreateProductInput{SKU: "b"}},
		{"missing sku", actor, CreateProductInput{Name: "a", SKU: "  "}},
		{"negative price", actor, CreateProductInput{Name: "a", SKU: "b", Price: decimal.NewFromInt(-1)}},
		{"negative stock", actor, CreateProductInput{Name: "a", SKU: "b", Stock: -1}},
		{"negative threshold", actor, CreateProductInput{Name: "a", SKU: "b", LowStockThreshold: intPtr(-2)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.CreateProduct(ctx, tc.actor, tc.input)
			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
		})
	}
}

func TestServiceCreateProductRejectsDuplicateSKU(t *testing.T) {
	env := newTestEnv(t, "products_duplicate_sku")
	createProduct(t, env, "MJ-DUP", 1)

	_, err := env.svc.CreateProduct(context.Background(), uuid.New(), CreateProductInput{
		Name: "Other", SKU: "mj-dup", Price: decimal.NewFromInt(5),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestServiceUpdateProductStockBecomesManualEdit(t *testing.T) {
	env := newTestEnv(t, "products_update_stock")
	ctx := context.Background()
	product := createProduct(t, env, "MJ-UPD", 10)
	actor := uuid.New()

	updated, err := env.svc.UpdateProduct(ctx, actor, product.ID, UpdateProductInput{
		Name:      strPtr("Renamed"),
		Stock:     intPtr(4),
		StockNote: strPtr("stock take"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, 4, updated.Stock)
	assert.True(t, updated.LowStock)

	entries := ledgerEntries(t, env.conn, product.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, -6, entries[0].Change)
	assert.Equal(t, enums.LedgerReasonManualEdit, entries[0].Reason)
	assert.Equal(t, actor, entries[0].ActorID)
	assert.Equal(t, 4, entries[0].StockAfter)
	require.NotNil(t, entries[0].Note)
	assert.Equal(t, "stock take", *entries[0].Note)

	var events []models.OutboxEvent
	require.NoError(t, env.conn.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventStockAdjusted, events[0].EventType)
}

func TestServiceUpdateProductSameStockWritesNoEntry(t *testing.T) {
	env := newTestEnv(t, "products_update_same")
	product := createProduct(t, env, "MJ-SAME", 3)

	_, err := env.svc.UpdateProduct(context.Background(), uuid.New(), product.ID, UpdateProductInput{Stock: intPtr(3)})
	require.NoError(t, err)
	assert.Empty(t, ledgerEntries(t, env.conn, product.ID))
}

func TestServiceUpdateProductStockIsAbsoluteAfterOtherMovements(t *testing.T) {
	env := newTestEnv(t, "products_update_absolute")
	ctx := context.Background()
	product := createProduct(t, env, "MJ-ABS", 10)

	_, err := env.svc.AdjustStock(ctx, AdjustStockInput{
		ProductID: product.ID,
		Delta:     -2,
		Reason:    enums.LedgerReasonDamage,
		ActorID:   uuid.New(),
	})
	require.NoError(t, err)

	updated, err := env.svc.UpdateProduct(ctx, uuid.New(), product.ID, UpdateProductInput{Stock: intPtr(12)})
	require.NoError(t, err)
	assert.Equal(t, 12, updated.Stock)

	entries := ledgerEntries(t, env.conn, product.ID)
	require.Len(t, entries, 2)
	var manual *models.InventoryLedgerEntry
	for i := range entries {
		if entries[i].Reason == enums.LedgerReasonManualEdit {
			manual = &entries[i]
		}
	}
	require.NotNil(t, manual)
	assert.Equal(t, 4, manual.Change)
	assert.Equal(t, 12, manual.StockAfter)
}

func TestServiceUpdateProductStockRejectsInterleavedMovement(t *testing.T) {
	env := newTestEnv(t, "products_update_interleaved")
	ctx := context.Background()
	product := createProduct(t, env, "MJ-RACE", 10)

	// after the PATCH reads the row, another writer takes 2 units
	armed := true
	const hook = "test:interleave_stock_move"
	require.NoError(t, env.conn.Callback().Query().After("gorm:query").Register(hook, func(db *gorm.DB) {
		if !armed || db.Statement.Table != "products" {
			return
		}
		armed = false
		require.NoError(t, db.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE products SET stock = stock - 2 WHERE id = ?", product.ID).Error)
	}))
	t.Cleanup(func() { _ = env.conn.Callback().Query().Remove(hook) })

	_, err := env.svc.UpdateProduct(ctx, uuid.New(), product.ID, UpdateProductInput{Stock: intPtr(12)})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeTxConflict), "got %v", err)
	assert.False(t, armed, "interleaved write should have run")

	var stored models.Product
	require.NoError(t, env.conn.First(&stored, "id = ?", product.ID).Error)
	assert.Equal(t, 10, stored.Stock, "rolled back; stock never lands off the requested value")
	assert.Empty(t, ledgerEntries(t, env.conn, product.ID))
}

func TestServiceUpdateProductSKUConflict(t *testing.T) {
	env := newTestEnv(t, "products_update_sku")
	createProduct(t, env, "MJ-A", 1)
	other := createProduct(t, env, "MJ-B", 1)

	_, err := env.svc.UpdateProduct(context.Background(), uuid.New(), other.ID, UpdateProductInput{SKU: strPtr("mj-a")})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestServiceArchiveProduct(t *testing.T) {
	env := newTestEnv(t, "products_archive")
	ctx := context.Background()
	product := createProduct(t, env, "MJ-ARC", 2)

	require.NoError(t, env.svc.ArchiveProduct(ctx, uuid.New(), product.ID))

	_, err := env.svc.GetProduct(ctx, product.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	err = env.svc.ArchiveProduct(ctx, uuid.New(), product.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestServiceListProductsLowStockAndPaging(t *testing.T) {
	env := newTestEnv(t, "products_list")
	ctx := context.Background()
	createProduct(t, env, "MJ-L1", 1)
	createProduct(t, env, "MJ-L2", 50)
	createProduct(t, env, "MJ-L3", 2)

	low, err := env.svc.ListProducts(ctx, ListProductsInput{LowStockOnly: true, Pagination: pagination.Params{Limit: 10}})
	require.NoError(t, err)
	require.Len(t, low.Products, 2)
	for _, p := range low.Products {
		assert.True(t, p.LowStock)
	}

	first, err := env.svc.ListProducts(ctx, ListProductsInput{Pagination: pagination.Params{Limit: 2}})
	require.NoError(t, err)
	require.Len(t, first.Products, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := env.svc.ListProducts(ctx, ListProductsInput{Pagination: pagination.Params{Limit: 2, Cursor: first.NextCursor}})
	require.NoError(t, err)
	require.Len(t, second.Products, 1)
	assert.Empty(t, second.NextCursor)

	_, err = env.svc.ListProducts(ctx, ListProductsInput{Pagination: pagination.Params{Cursor: "%%%"}})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestServiceAdjustStock(t *testing.T) {
	env := newTestEnv(t, "products_adjust")
	ctx := context.Background()
	product := createProduct(t, env, "MJ-ADJ", 2)
	actor := uuid.New()

	result, err := env.svc.AdjustStock(ctx, AdjustStockInput{
		ProductID: product.ID,
		Delta:     8,
		Reason:    enums.LedgerReasonRestock,
		ActorID:   actor,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, result.Product.Stock)
	assert.Equal(t, 8, result.Entry.Change)
	assert.Equal(t, 10, result.Entry.StockAfter)
	assert.Equal(t, enums.LedgerReasonRestock, result.Entry.Reason)
	assert.Equal(t, 8, env.observer.calls["restock"])

	var event models.OutboxEvent
	require.NoError(t, env.conn.First(&event).Error)
	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(event.Payload, &envelope))
	assert.JSONEq(t, `{"product_id":"`+product.ID.String()+`","sku":"MJ-ADJ","change":8,"reason":"restock","stock_after":10,"low_stock":false}`, string(envelope.Data))
}

func TestServiceAdjustStockValidation(t *testing.T) {
	env := newTestEnv(t, "products_adjust_validation")
	product := createProduct(t, env, "MJ-VAL", 2)
	actor := uuid.New()

	cases := []struct {
		name  string
		input AdjustStockInput
	}{
		{"zero delta", AdjustStockInput{ProductID: product.ID, ActorID: actor, Reason: enums.LedgerReasonCorrection}},
		{"order reason", AdjustStockInput{ProductID: product.ID, ActorID: actor, Delta: 1, Reason: enums.LedgerReasonOrder}},
		{"negative restock", AdjustStockInput{ProductID: product.ID, ActorID: actor, Delta: -1, Reason: enums.LedgerReasonRestock}},
		{"positive damage", AdjustStockInput{ProductID: product.ID, ActorID: actor, Delta: 1, Reason: enums.LedgerReasonDamage}},
		{"missing actor", AdjustStockInput{ProductID: product.ID, Delta: 1, Reason: enums.LedgerReasonCorrection}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.AdjustStock(context.Background(), tc.input)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestServiceAdjustStockRejectsNegativeResult(t *testing.T) {
	env := newTestEnv(t, "products_adjust_negative")
	ctx := context.Background()
	product := createProduct(t, env, "MJ-NEG", 2)

	_, err := env.svc.AdjustStock(ctx, AdjustStockInput{
		ProductID: product.ID,
		Delta:     -3,
		Reason:    enums.LedgerReasonDamage,
		ActorID:   uuid.New(),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	details, ok := typed.Details().([]ShortfallDetail)
	require.True(t, ok)
	require.Len(t, details, 1)
	assert.Equal(t, ShortfallDetail{ProductID: product.ID, SKU: "MJ-NEG", Requested: 3, Available: 2}, details[0])

	reloaded, err := env.svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Stock)
	assert.Empty(t, ledgerEntries(t, env.conn, product.ID))
}

func TestServiceApplyMovementsRollsBackWithTransaction(t *testing.T) {
	client, conn := dbtest.Client(t, "products_apply_rollback")
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), client, ledgerSvc, outbox.NewService(outbox.NewRepository(conn), nil), nil)
	require.NoError(t, err)
	ctx := context.Background()

	env := testEnv{svc: svc, conn: conn}
	a := createProduct(t, env, "MJ-RA", 5)
	b := createProduct(t, env, "MJ-RB", 1)
	orderID := uuid.New()

	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := svc.ApplyMovements(ctx, tx, []StockMovement{
			{ProductID: a.ID, Delta: -2, Reason: enums.LedgerReasonOrder, ReferenceID: &orderID, ActorID: uuid.New()},
			{ProductID: b.ID, Delta: -2, Reason: enums.LedgerReasonOrder, ReferenceID: &orderID, ActorID: uuid.New()},
		})
		return err
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock))

	reloadedA, err := svc.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, reloadedA.Stock)
	assert.Empty(t, ledgerEntries(t, conn, a.ID))
}

func TestServiceApplyMovementsUnknownProduct(t *testing.T) {
	client, conn := dbtest.Client(t, "products_apply_unknown")
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), client, ledgerSvc, outbox.NewService(outbox.NewRepository(conn), nil), nil)
	require.NoError(t, err)

	err = client.WithTx(context.Background(), func(tx *gorm.DB) error {
		_, err := svc.ApplyMovements(context.Background(), tx, []StockMovement{
			{ProductID: uuid.New(), Delta: -1, Reason: enums.LedgerReasonOrder, ActorID: uuid.New()},
		})
		return err
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestServiceApplyMovementsRestoresArchivedProduct(t *testing.T) {
	client, conn := dbtest.Client(t, "products_apply_archived")
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), client, ledgerSvc, outbox.NewService(outbox.NewRepository(conn), nil), nil)
	require.NoError(t, err)
	ctx := context.Background()

	product := createProduct(t, testEnv{svc: svc, conn: conn}, "MJ-GONE", 1)
	require.NoError(t, svc.ArchiveProduct(ctx, uuid.New(), product.ID))

	var entries []models.InventoryLedgerEntry
	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		entries, err = svc.ApplyMovements(ctx, tx, []StockMovement{
			{ProductID: product.ID, Delta: 2, Reason: enums.LedgerReasonCancelled, ActorID: uuid.New()},
		})
		return err
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].StockAfter)
}

func TestServiceApplyMovementsRequiresTransaction(t *testing.T) {
	env := newTestEnv(t, "products_apply_notx")
	_, err := env.svc.ApplyMovements(context.Background(), nil, nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, gorm.ErrRecordNotFound))
}
