package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/prejin2310/megora-inventory/internal/ledger"
	"github.com/prejin2310/megora-inventory/internal/products"
	"github.com/prejin2310/megora-inventory/internal/totals"
	"github.com/prejin2310/megora-inventory/pkg/db"
	"github.com/prejin2310/megora-inventory/pkg/db/models"
	"github.com/prejin2310/megora-inventory/pkg/enums"
	pkgerrors "github.com/prejin2310/megora-inventory/pkg/errors"
	"github.com/prejin2310/megora-inventory/pkg/logger"
	"github.com/prejin2310/megora-inventory/pkg/metrics"
	"github.com/prejin2310/megora-inventory/pkg/outbox"
	"github.com/prejin2310/megora-inventory/pkg/outbox/payloads"
	"github.com/prejin2310/megora-inventory/pkg/pagination"
)

const (
	opCreate    = "create"
	opStatus    = "update_status"
	opTerminate = "terminate"
	opPayment   = "update_payment"
	opCourier   = "update_courier"
)

// Service defines the order lifecycle operations.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error)
	CancelOrReturn(ctx context.Context, input TerminateInput) (*TerminateResult, error)
	UpdatePayment(ctx context.Context, input UpdatePaymentInput) (*OrderDTO, error)
	UpdateCourier(ctx context.Context, input UpdateCourierInput) (*OrderDTO, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	ListOrders(ctx context.Context, input ListOrdersInput) (*OrderListResult, error)
	PublicView(ctx context.Context, publicID string) (*PublicOrderView, error)
	OrderLedger(ctx context.Context, orderID uuid.UUID) ([]ledger.EntryDTO, error)
}

// Deps wires the collaborators of the order service. Logger and Metrics are
// optional.
type Deps struct {
	Repo           Repository
	Tx             txRunner
	Outbox         outboxPublisher
	Products       ProductCatalog
	Stock          StockMover
	Customers      CustomerDirectory
	Ledger         LedgerReader
	Logger         *logger.Logger
	Metrics        operationRecorder
	PublicIDLength int
	Now            func() time.Time
}

type service struct {
	repo           Repository
	tx             txRunner
	outbox         outboxPublisher
	products       ProductCatalog
	stock          StockMover
	customers      CustomerDirectory
	ledger         LedgerReader
	logg           *logger.Logger
	metrics        operationRecorder
	publicIDLength int
	now            func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Repo == nil:
		return nil, fmt.Errorf("orders repository required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case deps.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	case deps.Products == nil:
		return nil, fmt.Errorf("product catalog required")
	case deps.Stock == nil:
		return nil, fmt.Errorf("stock mover required")
	case deps.Customers == nil:
		return nil, fmt.Errorf("customer directory required")
	case deps.Ledger == nil:
		return nil, fmt.Errorf("ledger reader required")
	}
	svc := &service{
		repo:           deps.Repo,
		tx:             deps.Tx,
		outbox:         deps.Outbox,
		products:       deps.Products,
		stock:          deps.Stock,
		customers:      deps.Customers,
		ledger:         deps.Ledger,
		logg:           deps.Logger,
		metrics:        deps.Metrics,
		publicIDLength: deps.PublicIDLength,
		now:            deps.Now,
	}
	if svc.publicIDLength <= 0 {
		svc.publicIDLength = defaultPublicIDLength
	}
	if svc.now == nil {
		svc.now = func() time.Time { return time.Now().UTC() }
	}
	return svc, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (result *CreateOrderResult, err error) {
	defer func() { s.record(opCreate, err, result != nil) }()

	lines, err := validateCreate(input)
	if err != nil {
		return nil, err
	}

	items, err := s.priceLines(ctx, lines)
	if err != nil {
		return nil, err
	}

	var (
		customerID   *uuid.UUID
		snapshot     *models.CustomerSnapshot
		customerName string
	)
	if input.CustomerID != nil {
		customer, err := s.customers.GetCustomer(ctx, *input.CustomerID)
		if err != nil {
			return nil, err
		}
		id := customer.ID
		customerID = &id
		customerName = customer.Name
	} else {
		snapshot = &models.CustomerSnapshot{
			Name:    strings.TrimSpace(input.Customer.Name),
			Email:   trimOptional(input.Customer.Email),
			Phone:   trimOptional(input.Customer.Phone),
			Address: trimOptional(input.Customer.Address),
		}
		customerName = snapshot.Name
	}

	calcLines := make([]totals.Line, 0, len(items))
	for _, item := range items {
		calcLines = append(calcLines, totals.Line{Price: item.Price, Quantity: item.Quantity})
	}
	computed := totals.Calculate(calcLines, totals.Extras{
		Shipping: input.Shipping,
		Tax:      input.Tax,
		Discount: input.Discount,
	})

	publicID, err := NewPublicID(s.publicIDLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate public id")
	}

	order := &models.Order{
		ID:               uuid.New(),
		PublicID:         publicID,
		Status:           enums.OrderStatusReceived,
		Channel:          input.Channel,
		CustomerID:       customerID,
		CustomerSnapshot: snapshot,
		CustomerName:     &customerName,
		Items:            items,
		Totals: models.OrderTotals{
			SubTotal:   computed.SubTotal,
			Shipping:   computed.Shipping,
			Tax:        computed.Tax,
			Discount:   computed.Discount,
			GrandTotal: computed.GrandTotal,
		},
		Courier:       courierModel(input.Courier),
		PaymentStatus: enums.PaymentStatusPending,
		Notes:         trimOptional(input.Notes),
		Version:       1,
		CreatedBy:     input.ActorID,
	}
	order.History = appendHistory(nil, enums.OrderStatusReceived, input.ActorID, nil, s.now())

	movements := make([]products.StockMovement, 0, len(items))
	eventLines := make([]payloads.OrderLine, 0, len(items))
	for _, item := range items {
		movements = append(movements, products.StockMovement{
			ProductID:   item.ProductID,
			Delta:       -item.Quantity,
			Reason:      enums.LedgerReasonOrder,
			ReferenceID: &order.ID,
			ActorID:     input.ActorID,
		})
		eventLines = append(eventLines, payloads.OrderLine{ProductID: item.ProductID, SKU: item.SKU, Quantity: item.Quantity})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order")
		}
		if _, err := s.stock.ApplyMovements(ctx, tx, movements); err != nil {
			return raceLost(err)
		}
		return s.emit(ctx, tx, enums.EventOrderCreated, order.ID, input.ActorID, payloads.OrderCreatedEvent{
			OrderID:    order.ID,
			PublicID:   order.PublicID,
			Channel:    order.Channel,
			Items:      eventLines,
			GrandTotal: order.Totals.GrandTotal,
		})
	})
	if err != nil {
		return nil, s.txError(ctx, opCreate, err)
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(logCtx, "order created")
	}
	return &CreateOrderResult{OrderID: order.ID, PublicID: order.PublicID}, nil
}

// UpdateStatus advances an order. Terminal targets are handed to
// CancelOrReturn.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (dto *OrderDTO, err error) {
	if input.Status.IsTerminal() {
		note := ""
		if input.Note != nil {
			note = *input.Note
		}
		res, err := s.CancelOrReturn(ctx, TerminateInput{
			OrderID: input.OrderID,
			Status:  input.Status,
			Note:    note,
			ActorID: input.ActorID,
		})
		if err != nil {
			return nil, err
		}
		return res.Order, nil
	}

	defer func() { s.record(opStatus, err, dto != nil) }()

	if err := validateOrderActor(input.OrderID, input.ActorID); err != nil {
		return nil, err
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", input.Status))
	}
	note := trimOptional(input.Note)

	var updated *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if !CanAdvance(order.Status, input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, input.Status)).
				WithDetails(map[string]any{"current": order.Status, "allowed": NextStatuses(order.Status)})
		}

		from := order.Status
		order.History = appendHistory(order.History, input.Status, input.ActorID, note, s.now())
		order.Status = input.Status
		if err := s.saveVersioned(ctx, repo, order, "status", "history"); err != nil {
			return err
		}
		updated = order
		return s.emit(ctx, tx, enums.EventOrderStatusChanged, order.ID, input.ActorID, payloads.OrderStatusChangedEvent{
			OrderID:  order.ID,
			PublicID: order.PublicID,
			From:     from,
			To:       order.Status,
			Note:     note,
			At:       order.History[len(order.History)-1].At,
		})
	})
	if err != nil {
		return nil, s.txError(ctx, opStatus, err)
	}
	return NewOrderDTO(updated, storedCustomerName(updated)), nil
}

// CancelOrReturn terminates an order and puts every recorded line quantity
// back into stock.
func (s *service) CancelOrReturn(ctx context.Context, input TerminateInput) (result *TerminateResult, err error) {
	defer func() {
		if err == nil && result != nil && !result.Changed {
			s.recordOutcome(opTerminate, metrics.OutcomeNoop)
			return
		}
		s.record(opTerminate, err, result != nil)
	}()

	if err := validateOrderActor(input.OrderID, input.ActorID); err != nil {
		return nil, err
	}
	reason, err := enums.LedgerReasonForTerminal(input.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "status must be Cancelled or Returned")
	}
	note := strings.TrimSpace(input.Note)
	if note == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a reason note is required")
	}

	var (
		updated *models.Order
		changed bool
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		updated = order
		if order.Status.IsTerminal() {
			return nil
		}
		if !CanTerminate(order.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, input.Status)).
				WithDetails(map[string]any{"current": order.Status})
		}

		from := order.Status
		order.History = appendHistory(order.History, input.Status, input.ActorID, &note, s.now())
		order.Status = input.Status
		if err := s.saveVersioned(ctx, repo, order, "status", "history"); err != nil {
			return err
		}

		movements := make([]products.StockMovement, 0, len(order.Items))
		restored := make([]payloads.OrderLine, 0, len(order.Items))
		for _, item := range order.Items {
			if item.Quantity <= 0 {
				continue
			}
			movements = append(movements, products.StockMovement{
				ProductID:   item.ProductID,
				Delta:       item.Quantity,
				Reason:      reason,
				ReferenceID: &order.ID,
				ActorID:     input.ActorID,
				Note:        &note,
			})
			restored = append(restored, payloads.OrderLine{ProductID: item.ProductID, SKU: item.SKU, Quantity: item.Quantity})
		}
		if _, err := s.stock.ApplyMovements(ctx, tx, movements); err != nil {
			return raceLost(err)
		}

		eventType := enums.EventOrderCancelled
		if input.Status == enums.OrderStatusReturned {
			eventType = enums.EventOrderReturned
		}
		changed = true
		return s.emit(ctx, tx, eventType, order.ID, input.ActorID, payloads.OrderTerminatedEvent{
			OrderID:  order.ID,
			PublicID: order.PublicID,
			From:     from,
			Status:   order.Status,
			Reason:   note,
			Restored: restored,
			At:       order.History[len(order.History)-1].At,
		})
	})
	if err != nil {
		return nil, s.txError(ctx, opTerminate, err)
	}
	return &TerminateResult{Order: NewOrderDTO(updated, storedCustomerName(updated)), Changed: changed}, nil
}

func (s *service) UpdatePayment(ctx context.Context, input UpdatePaymentInput) (dto *OrderDTO, err error) {
	defer func() { s.record(opPayment, err, dto != nil) }()

	if err := validateOrderActor(input.OrderID, input.ActorID); err != nil {
		return nil, err
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment status %q", input.Status))
	}

	var updated *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		updated = order
		if order.PaymentStatus == input.Status {
			return nil
		}
		order.PaymentStatus = input.Status
		if err := s.saveVersioned(ctx, repo, order, "payment_status"); err != nil {
			return err
		}
		return s.emit(ctx, tx, enums.EventOrderUpdated, order.ID, input.ActorID, payloads.OrderUpdatedEvent{
			OrderID: order.ID,
			Fields:  []string{"payment_status"},
		})
	})
	if err != nil {
		return nil, s.txError(ctx, opPayment, err)
	}
	return NewOrderDTO(updated, storedCustomerName(updated)), nil
}

func (s *service) UpdateCourier(ctx context.Context, input UpdateCourierInput) (dto *OrderDTO, err error) {
	defer func() { s.record(opCourier, err, dto != nil) }()

	if err := validateOrderActor(input.OrderID, input.ActorID); err != nil {
		return nil, err
	}
	courier := courierModel(&input.Courier)
	if courier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier name is required")
	}

	var updated *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot change courier of a %s order", order.Status))
		}
		order.Courier = courier
		if err := s.saveVersioned(ctx, repo, order, "courier"); err != nil {
			return err
		}
		updated = order
		return s.emit(ctx, tx, enums.EventOrderUpdated, order.ID, input.ActorID, payloads.OrderUpdatedEvent{
			OrderID: order.ID,
			Fields:  []string{"courier"},
		})
	})
	if err != nil {
		return nil, s.txError(ctx, opCourier, err)
	}
	return NewOrderDTO(updated, storedCustomerName(updated)), nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	names := s.resolveNames(ctx, []models.Order{*order})
	return NewOrderDTO(order, displayName(order, names)), nil
}

func (s *service) ListOrders(ctx context.Context, input ListOrdersInput) (*OrderListResult, error) {
	if _, err := pagination.ParseCursor(input.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if input.Status != "" && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", input.Status))
	}
	if input.Channel != "" && !input.Channel.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid channel %q", input.Channel))
	}

	rows, err := s.repo.List(ctx, ListQuery{
		Status:       input.Status,
		Channel:      input.Channel,
		CustomerID:   input.CustomerID,
		PublicID:     input.PublicID,
		UpdatedSince: input.UpdatedSince,
		Pagination:   input.Pagination,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	page, next := pagination.Trim(rows, input.Pagination.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	names := s.resolveNames(ctx, page)
	result := &OrderListResult{Orders: make([]OrderDTO, 0, len(page)), NextCursor: next}
	for i := range page {
		result.Orders = append(result.Orders, *NewOrderDTO(&page[i], displayName(&page[i], names)))
	}
	return result, nil
}

func (s *service) PublicView(ctx context.Context, publicID string) (*PublicOrderView, error) {
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	order, err := s.repo.FindByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	return NewPublicOrderView(order), nil
}

func (s *service) OrderLedger(ctx context.Context, orderID uuid.UUID) ([]ledger.EntryDTO, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if _, err := loadOrder(ctx, s.repo, orderID); err != nil {
		return nil, err
	}
	return s.ledger.ForReference(ctx, orderID)
}

// priceLines resolves each requested product and snapshots its name, SKU and
// price. Stock is checked here as a best-effort read; the transaction guard
// is authoritative.
func (s *service) priceLines(ctx context.Context, lines []ItemInput) ([]models.OrderItem, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	rows, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	items := make([]models.OrderItem, 0, len(lines))
	var shortfalls []products.ShortfallDetail
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product missing").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
		if line.Quantity > product.Stock {
			shortfalls = append(shortfalls, products.ShortfallDetail{
				ProductID: product.ID,
				SKU:       product.SKU,
				Requested: line.Quantity,
				Available: product.Stock,
			})
			continue
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			SKU:       product.SKU,
			Price:     product.Price,
			Quantity:  line.Quantity,
			LineTotal: totals.LineTotal(totals.Line{Price: product.Price, Quantity: line.Quantity}),
		})
	}
	if len(shortfalls) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").WithDetails(shortfalls)
	}
	return items, nil
}

// resolveNames looks up current customer names for referenced customers. A
// failed lookup only degrades the display name.
func (s *service) resolveNames(ctx context.Context, orders []models.Order) map[uuid.UUID]string {
	seen := map[uuid.UUID]struct{}{}
	ids := []uuid.UUID{}
	for _, o := range orders {
		if o.CustomerID == nil {
			continue
		}
		if _, ok := seen[*o.CustomerID]; ok {
			continue
		}
		seen[*o.CustomerID] = struct{}{}
		ids = append(ids, *o.CustomerID)
	}
	if len(ids) == 0 {
		return nil
	}
	names, err := s.customers.NamesByID(ctx, ids)
	if err != nil {
		if s.logg != nil {
			logCtx := s.logg.WithField(ctx, "error", err.Error())
			s.logg.Warn(logCtx, "customer name resolution failed; showing customer ids")
		}
		fallback := make(map[uuid.UUID]string, len(ids))
		for _, id := range ids {
			fallback[id] = id.String()
		}
		return fallback
	}
	return names
}

func (s *service) saveVersioned(ctx context.Context, repo Repository, order *models.Order, columns ...string) error {
	ok, err := repo.UpdateVersioned(ctx, order, columns...)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update order")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeTxConflict, "order was modified concurrently")
	}
	return nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, orderID, actorID uuid.UUID, data any) error {
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Actor:         &outbox.ActorRef{ActorID: actorID},
		Data:          data,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order event")
	}
	return nil
}

// txError maps store-level serialization failures to a retryable conflict.
func (s *service) txError(ctx context.Context, operation string, err error) error {
	conflict := pkgerrors.HasCode(err, pkgerrors.CodeTxConflict)
	if !conflict && isStoreConflict(err) {
		err = pkgerrors.Wrap(pkgerrors.CodeTxConflict, err, "concurrent update detected")
		conflict = true
	}
	if conflict {
		s.recordConflict(ctx, operation)
	}
	return err
}

func (s *service) record(operation string, err error, ok bool) {
	switch {
	case err != nil:
		s.recordOutcome(operation, metrics.OutcomeError)
	case ok:
		s.recordOutcome(operation, metrics.OutcomeSuccess)
	}
}

func (s *service) recordOutcome(operation, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordOperation(operation, outcome)
	}
}

func (s *service) recordConflict(ctx context.Context, operation string) {
	if s.metrics != nil {
		s.metrics.RecordConflict(operation)
	}
	if s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("%s lost a concurrent update", operation))
	}
}

func isStoreConflict(err error) bool {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if db.IsTransactionConflict(e) {
			return true
		}
	}
	return false
}

// raceLost converts a stock guard miss inside an order transaction into a
// conflict: the pre-check passed, so another writer moved the stock first.
func raceLost(err error) error {
	if pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) || pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeTxConflict, err, "stock changed concurrently, retry the request").
			WithDetails(pkgerrors.As(err).Details())
	}
	return err
}

func loadOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	return order, nil
}

func validateCreate(input CreateOrderInput) ([]ItemInput, error) {
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	hasID := input.CustomerID != nil && *input.CustomerID != uuid.Nil
	hasInline := input.Customer != nil
	if hasID == hasInline {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provide exactly one of customer_id or customer")
	}
	if hasInline && strings.TrimSpace(input.Customer.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if !input.Channel.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid channel %q", input.Channel))
	}
	for name, value := range map[string]decimal.Decimal{
		"shipping": input.Shipping,
		"tax":      input.Tax,
		"discount": input.Discount,
	} {
		if value.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, name+" cannot be negative")
		}
	}
	if input.Courier != nil && strings.TrimSpace(input.Courier.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier name is required")
	}

	merged := make([]ItemInput, 0, len(input.Items))
	index := map[uuid.UUID]int{}
	for i, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].product_id is required", i))
		}
		if item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].qty must be at least 1", i))
		}
		if at, ok := index[item.ProductID]; ok {
			merged[at].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

func validateOrderActor(orderID, actorID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}
	return nil
}

func displayName(order *models.Order, names map[uuid.UUID]string) string {
	if order.CustomerID != nil {
		if name, ok := names[*order.CustomerID]; ok && name != "" {
			return name
		}
	}
	return storedCustomerName(order)
}

func courierModel(in *CourierInput) *models.CourierInfo {
	if in == nil {
		return nil
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil
	}
	return &models.CourierInfo{
		Name:           name,
		TrackingNumber: trimOptional(in.TrackingNumber),
		TrackingURL:    trimOptional(in.TrackingURL),
	}
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
