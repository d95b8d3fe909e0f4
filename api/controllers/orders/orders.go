package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prejin2310/megora-inventory/api/middleware"
	"github.com/prejin2310/megora-inventory/api/responses"
	"github.com/prejin2310/megora-inventory/api/validators"
	internalorders "github.com/prejin2310/megora-inventory/internal/orders"
	"github.com/prejin2310/megora-inventory/pkg/enums"
	pkgerrors "github.com/prejin2310/megora-inventory/pkg/errors"
	"github.com/prejin2310/megora-inventory/pkg/logger"
	"github.com/prejin2310/megora-inventory/pkg/pagination"
)

type itemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"qty" validate:"required,min=1"`
}

type customerRequest struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address *string `json:"address,omitempty"`
}

type courierRequest struct {
	Name           string  `json:"name" validate:"required,max=100"`
	TrackingNumber *string `json:"tracking_number,omitempty" validate:"omitempty,max=100"`
	TrackingURL    *string `json:"tracking_url,omitempty" validate:"omitempty,url"`
}

type createOrderRequest struct {
	CustomerID *string          `json:"customer_id,omitempty" validate:"omitempty,uuid"`
	Customer   *customerRequest `json:"customer,omitempty"`
	Items      []itemRequest    `json:"items" validate:"required,min=1,dive"`
	Channel    string           `json:"channel" validate:"required"`
	Shipping   decimal.Decimal  `json:"shipping"`
	Tax        decimal.Decimal  `json:"tax"`
	Discount   decimal.Decimal  `json:"discount"`
	Courier    *courierRequest  `json:"courier,omitempty"`
	Notes      *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type statusRequest struct {
	Status string  `json:"status" validate:"required"`
	Note   *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

type terminateRequest struct {
	Note string `json:"note" validate:"required,max=1000"`
}

type paymentRequest struct {
	Status string `json:"status" validate:"required"`
}

func (r createOrderRequest) toInput(actor uuid.UUID) (internalorders.CreateOrderInput, error) {
	channel, err := enums.ParseOrderChannel(strings.TrimSpace(r.Channel))
	if err != nil {
		return internalorders.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid channel")
	}

	input := internalorders.CreateOrderInput{
		Items:    make([]internalorders.ItemInput, 0, len(r.Items)),
		Channel:  channel,
		Shipping: r.Shipping,
		Tax:      r.Tax,
		Discount: r.Discount,
		Notes:    r.Notes,
		ActorID:  actor,
	}
	for _, item := range r.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return internalorders.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		input.Items = append(input.Items, internalorders.ItemInput{ProductID: productID, Quantity: item.Quantity})
	}
	if r.CustomerID != nil {
		id, err := uuid.Parse(*r.CustomerID)
		if err != nil {
			return internalorders.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id")
		}
		input.CustomerID = &id
	}
	if r.Customer != nil {
		input.Customer = &internalorders.CustomerInput{
			Name:    r.Customer.Name,
			Email:   r.Customer.Email,
			Phone:   r.Customer.Phone,
			Address: r.Customer.Address,
		}
	}
	if r.Courier != nil {
		courier := r.Courier.toInput()
		input.Courier = &courier
	}
	return input, nil
}

func (r courierRequest) toInput() internalorders.CourierInput {
	return internalorders.CourierInput{
		Name:           r.Name,
		TrackingNumber: r.TrackingNumber,
		TrackingURL:    r.TrackingURL,
	}
}

// Create places an order, decrementing stock and writing ledger entries
// atomically.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput(actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// List pages orders for the dashboard. updated_since supports polling for
// changes.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updatedSince, err := validators.ParseQueryTime(r, "updated_since")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		input := internalorders.ListOrdersInput{
			PublicID:     validators.SanitizeString(query.Get("q"), 32),
			UpdatedSince: updatedSince,
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(query.Get("cursor")),
			},
		}
		if raw := strings.TrimSpace(query.Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			input.Status = status
		}
		if raw := strings.TrimSpace(query.Get("channel")); raw != "" {
			channel, err := enums.ParseOrderChannel(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid channel filter"))
				return
			}
			input.Channel = channel
		}
		if raw := strings.TrimSpace(query.Get("customer_id")); raw != "" {
			customerID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id"))
				return
			}
			input.CustomerID = &customerID
		}

		list, err := svc.ListOrders(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// UpdateStatus advances the order. Cancelled and Returned are routed through
// the stock-restoring path by the service.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, orderID, err := actorAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload statusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), internalorders.UpdateStatusInput{
			OrderID: orderID,
			Status:  status,
			Note:    payload.Note,
			ActorID: actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Cancel and Return share one handler shape; target selects the terminal status.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return terminate(svc, enums.OrderStatusCancelled, logg)
}

func Return(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return terminate(svc, enums.OrderStatusReturned, logg)
}

func terminate(svc internalorders.Service, target enums.OrderStatus, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, orderID, err := actorAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload terminateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CancelOrReturn(r.Context(), internalorders.TerminateInput{
			OrderID: orderID,
			Status:  target,
			Note:    payload.Note,
			ActorID: actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func UpdatePayment(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, orderID, err := actorAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParsePaymentStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status"))
			return
		}

		order, err := svc.UpdatePayment(r.Context(), internalorders.UpdatePaymentInput{
			OrderID: orderID,
			Status:  status,
			ActorID: actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func UpdateCourier(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, orderID, err := actorAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload courierRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateCourier(r.Context(), internalorders.UpdateCourierInput{
			OrderID: orderID,
			Courier: payload.toInput(),
			ActorID: actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Ledger lists the stock movements recorded against an order.
func Ledger(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entries, err := svc.OrderLedger(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"entries": entries})
	}
}

// PublicLookup serves the customer-facing status page. No authentication;
// the response never carries actor ids or internal notes.
func PublicLookup(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		publicID := strings.TrimSpace(chi.URLParam(r, "publicId"))
		if publicID == "" || len(publicID) > 64 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}

		view, err := svc.PublicView(r.Context(), publicID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		responses.WriteSuccess(w, view)
	}
}

func actorID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.ActorIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor id")
	}
	return id, nil
}

func orderIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return orderID, nil
}

func actorAndOrder(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	actor, err := actorID(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	orderID, err := orderIDParam(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return actor, orderID, nil
}
