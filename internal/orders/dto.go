package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prejin2310/megora-inventory/pkg/db/models"
	"github.com/prejin2310/megora-inventory/pkg/enums"
	"github.com/prejin2310/megora-inventory/pkg/pagination"
)

// ItemInput is one requested order line.
type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CustomerInput is an inline customer stored on the order.
type CustomerInput struct {
	Name    string
	Email   *string
	Phone   *string
	Address *string
}

// CourierInput describes the shipment of an order.
type CourierInput struct {
	Name           string
	TrackingNumber *string
	TrackingURL    *string
}

// CreateOrderInput carries everything needed to place an order. Exactly one
// of CustomerID and Customer must be set.
type CreateOrderInput struct {
	CustomerID *uuid.UUID
	Customer   *CustomerInput
	Items      []ItemInput
	Channel    enums.OrderChannel
	Shipping   decimal.Decimal
	Tax        decimal.Decimal
	Discount   decimal.Decimal
	Courier    *CourierInput
	Notes      *string
	ActorID    uuid.UUID
}

// CreateOrderResult identifies a newly created order.
type CreateOrderResult struct {
	OrderID  uuid.UUID `json:"order_id"`
	PublicID string    `json:"public_id"`
}

// UpdateStatusInput moves an order along the fulfillment path.
type UpdateStatusInput struct {
	OrderID uuid.UUID
	Status  enums.OrderStatus
	Note    *string
	ActorID uuid.UUID
}

// TerminateInput cancels or returns an order. Note is the mandatory reason.
type TerminateInput struct {
	OrderID uuid.UUID
	Status  enums.OrderStatus
	Note    string
	ActorID uuid.UUID
}

// TerminateResult reports the order after a cancel or return. Changed is false
// when the order was already cancelled or returned.
type TerminateResult struct {
	Order   *OrderDTO `json:"order"`
	Changed bool      `json:"changed"`
}

// UpdatePaymentInput records a payment status change.
type UpdatePaymentInput struct {
	OrderID uuid.UUID
	Status  enums.PaymentStatus
	ActorID uuid.UUID
}

// UpdateCourierInput replaces the courier details of an order.
type UpdateCourierInput struct {
	OrderID uuid.UUID
	Courier CourierInput
	ActorID uuid.UUID
}

// ListOrdersInput captures the staff listing filters.
type ListOrdersInput struct {
	Status       enums.OrderStatus
	Channel      enums.OrderChannel
	CustomerID   *uuid.UUID
	PublicID     string
	UpdatedSince *time.Time
	Pagination   pagination.Params
}

// OrderListResult is one page of orders.
type OrderListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// OrderItemDTO is a line item as returned to clients.
type OrderItemDTO struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"qty"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// TotalsDTO is the stored monetary snapshot.
type TotalsDTO struct {
	SubTotal   decimal.Decimal `json:"sub_total"`
	Shipping   decimal.Decimal `json:"shipping"`
	Tax        decimal.Decimal `json:"tax"`
	Discount   decimal.Decimal `json:"discount"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// CourierDTO describes the shipment.
type CourierDTO struct {
	Name           string  `json:"name"`
	TrackingNumber *string `json:"tracking_number,omitempty"`
	TrackingURL    *string `json:"tracking_url,omitempty"`
}

// HistoryEntryDTO is one status change as seen by staff.
type HistoryEntryDTO struct {
	Status enums.OrderStatus `json:"status"`
	At     time.Time         `json:"at"`
	By     uuid.UUID         `json:"by"`
	Note   *string           `json:"note,omitempty"`
}

// CustomerSnapshotDTO is the inline customer stored on an order.
type CustomerSnapshotDTO struct {
	Name    string  `json:"name"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

// OrderDTO is the staff view of an order.
type OrderDTO struct {
	ID            uuid.UUID            `json:"id"`
	PublicID      string               `json:"public_id"`
	Status        enums.OrderStatus    `json:"status"`
	Channel       enums.OrderChannel   `json:"channel"`
	CustomerID    *uuid.UUID           `json:"customer_id,omitempty"`
	Customer      *CustomerSnapshotDTO `json:"customer,omitempty"`
	CustomerName  string               `json:"customer_name"`
	Items         []OrderItemDTO       `json:"items"`
	Totals        TotalsDTO            `json:"totals"`
	Courier       *CourierDTO          `json:"courier,omitempty"`
	PaymentStatus enums.PaymentStatus  `json:"payment_status"`
	History       []HistoryEntryDTO    `json:"history"`
	Notes         *string              `json:"notes,omitempty"`
	NextStatuses  []enums.OrderStatus  `json:"next_statuses"`
	CanTerminate  bool                 `json:"can_terminate"`
	Version       int                  `json:"version"`
	CreatedBy     uuid.UUID            `json:"created_by"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// PublicHistoryEntry omits the actor and note of a status change.
type PublicHistoryEntry struct {
	Status enums.OrderStatus `json:"status"`
	At     time.Time         `json:"at"`
}

// PublicOrderView is what an unauthenticated customer may see.
type PublicOrderView struct {
	PublicID  string               `json:"public_id"`
	Status    enums.OrderStatus    `json:"status"`
	Items     []OrderItemDTO       `json:"items"`
	Totals    TotalsDTO            `json:"totals"`
	Courier   *CourierDTO          `json:"courier,omitempty"`
	History   []PublicHistoryEntry `json:"history"`
	CreatedAt time.Time            `json:"created_at"`
}

// NewOrderDTO maps the persisted order. customerName is the display name the
// caller resolved for the order.
func NewOrderDTO(o *models.Order, customerName string) *OrderDTO {
	if o == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:            o.ID,
		PublicID:      o.PublicID,
		Status:        o.Status,
		Channel:       o.Channel,
		CustomerID:    o.CustomerID,
		CustomerName:  customerName,
		Items:         itemDTOs(o.Items),
		Totals:        totalsDTO(o.Totals),
		Courier:       courierDTO(o.Courier),
		PaymentStatus: o.PaymentStatus,
		History:       make([]HistoryEntryDTO, 0, len(o.History)),
		Notes:         o.Notes,
		NextStatuses:  NextStatuses(o.Status),
		CanTerminate:  CanTerminate(o.Status),
		Version:       o.Version,
		CreatedBy:     o.CreatedBy,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.CustomerSnapshot != nil {
		dto.Customer = &CustomerSnapshotDTO{
			Name:    o.CustomerSnapshot.Name,
			Email:   o.CustomerSnapshot.Email,
			Phone:   o.CustomerSnapshot.Phone,
			Address: o.CustomerSnapshot.Address,
		}
	}
	for _, h := range o.History {
		dto.History = append(dto.History, HistoryEntryDTO{Status: h.Status, At: h.At, By: h.By, Note: h.Note})
	}
	return dto
}

// NewPublicOrderView maps the persisted order to the customer-safe view.
func NewPublicOrderView(o *models.Order) *PublicOrderView {
	if o == nil {
		return nil
	}
	view := &PublicOrderView{
		PublicID:  o.PublicID,
		Status:    o.Status,
		Items:     itemDTOs(o.Items),
		Totals:    totalsDTO(o.Totals),
		Courier:   courierDTO(o.Courier),
		History:   make([]PublicHistoryEntry, 0, len(o.History)),
		CreatedAt: o.CreatedAt,
	}
	for _, h := range o.History {
		view.History = append(view.History, PublicHistoryEntry{Status: h.Status, At: h.At})
	}
	return view
}

// storedCustomerName is the display name captured on the order itself.
func storedCustomerName(o *models.Order) string {
	if o.CustomerName != nil && *o.CustomerName != "" {
		return *o.CustomerName
	}
	if o.CustomerSnapshot != nil && o.CustomerSnapshot.Name != "" {
		return o.CustomerSnapshot.Name
	}
	if o.CustomerID != nil {
		return o.CustomerID.String()
	}
	return ""
}

func itemDTOs(items []models.OrderItem) []OrderItemDTO {
	out := make([]OrderItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, OrderItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			SKU:       item.SKU,
			Price:     item.Price,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}
	return out
}

func totalsDTO(t models.OrderTotals) TotalsDTO {
	return TotalsDTO{
		SubTotal:   t.SubTotal,
		Shipping:   t.Shipping,
		Tax:        t.Tax,
		Discount:   t.Discount,
		GrandTotal: t.GrandTotal,
	}
}

func courierDTO(c *models.CourierInfo) *CourierDTO {
	if c == nil {
		return nil
	}
	return &CourierDTO{Name: c.Name, TrackingNumber: c.TrackingNumber, TrackingURL: c.TrackingURL}
}
