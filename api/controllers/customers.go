package controllers

import (
	"net/http"

	"github.com/prejin2310/megora-inventory/api/responses"
	"github.com/prejin2310/megora-inventory/api/validators"
	"github.com/prejin2310/megora-inventory/internal/customers"
	"github.com/prejin2310/megora-inventory/pkg/logger"
)

type customerRequest struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address *string `json:"address,omitempty"`
}

type updateCustomerRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address *string `json:"address,omitempty"`
}

func CustomerCreate(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload customerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.CreateCustomer(r.Context(), actor, customers.CreateCustomerInput{
			Name:    payload.Name,
			Email:   payload.Email,
			Phone:   payload.Phone,
			Address: payload.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, customer)
	}
}

func CustomerGet(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := uuidParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.GetCustomer(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

func CustomerUpdate(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, err := uuidParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCustomerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.UpdateCustomer(r.Context(), actor, customerID, customers.UpdateCustomerInput{
			Name:    payload.Name,
			Email:   payload.Email,
			Phone:   payload.Phone,
			Address: payload.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

func CustomerList(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListCustomers(r.Context(), customers.ListCustomersInput{
			Search:     validators.SanitizeString(r.URL.Query().Get("q"), 100),
			Pagination: params,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
