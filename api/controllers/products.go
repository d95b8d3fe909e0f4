package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/prejin2310/megora-inventory/api/responses"
	"github.com/prejin2310/megora-inventory/api/validators"
	"github.com/prejin2310/megora-inventory/internal/ledger"
	productsvc "github.com/prejin2310/megora-inventory/internal/products"
	"github.com/prejin2310/megora-inventory/pkg/enums"
	pkgerrors "github.com/prejin2310/megora-inventory/pkg/errors"
	"github.com/prejin2310/megora-inventory/pkg/logger"
)

type createProductRequest struct {
	Name              string          `json:"name" validate:"required,max=200"`
	SKU               string          `json:"sku" validate:"required,max=64"`
	Price             decimal.Decimal `json:"price"`
	Stock             int             `json:"stock" validate:"min=0"`
	LowStockThreshold *int            `json:"low_stock_threshold,omitempty" validate:"omitempty,min=0"`
	ImageURL          *string         `json:"image_url,omitempty" validate:"omitempty,url"`
	Description       *string         `json:"description,omitempty"`
	Category          *string         `json:"category,omitempty" validate:"omitempty,max=100"`
}

type updateProductRequest struct {
	Name              *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	SKU               *string          `json:"sku,omitempty" validate:"omitempty,max=64"`
	Price             *decimal.Decimal `json:"price,omitempty"`
	Stock             *int             `json:"stock,omitempty" validate:"omitempty,min=0"`
	StockNote         *string          `json:"stock_note,omitempty"`
	LowStockThreshold *int             `json:"low_stock_threshold,omitempty" validate:"omitempty,min=0"`
	ImageURL          *string          `json:"image_url,omitempty" validate:"omitempty,url"`
	Description       *string          `json:"description,omitempty"`
	Category          *string          `json:"category,omitempty" validate:"omitempty,max=100"`
}

type adjustStockRequest struct {
	Delta  int     `json:"delta" validate:"required"`
	Reason string  `json:"reason" validate:"required"`
	Note   *string `json:"note,omitempty"`
}

// ProductCreate registers a new product and its opening stock.
func ProductCreate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), actor, productsvc.CreateProductInput{
			Name:              payload.Name,
			SKU:               payload.SKU,
			Price:             payload.Price,
			Stock:             payload.Stock,
			LowStockThreshold: payload.LowStockThreshold,
			ImageURL:          payload.ImageURL,
			Description:       payload.Description,
			Category:          payload.Category,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func ProductGet(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductUpdate patches product fields. A stock value becomes a manual_edit
// ledger entry.
func ProductUpdate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), actor, productID, productsvc.UpdateProductInput{
			Name:              payload.Name,
			SKU:               payload.SKU,
			Price:             payload.Price,
			Stock:             payload.Stock,
			StockNote:         payload.StockNote,
			LowStockThreshold: payload.LowStockThreshold,
			ImageURL:          payload.ImageURL,
			Description:       payload.Description,
			Category:          payload.Category,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductArchive(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ArchiveProduct(r.Context(), actor, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ProductList pages products. lowStockOnly pins the low_stock filter for the
// dedicated low-stock route.
func ProductList(svc productsvc.Service, lowStockOnly bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lowStock := lowStockOnly
		if !lowStock {
			lowStock, err = validators.ParseQueryBool(r, "low_stock")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		query := r.URL.Query()
		list, err := svc.ListProducts(r.Context(), productsvc.ListProductsInput{
			Search:       validators.SanitizeString(query.Get("q"), 100),
			Category:     validators.SanitizeString(query.Get("category"), 100),
			LowStockOnly: lowStock,
			Pagination:   params,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ProductAdjustStock applies a manual restock, damage or correction movement.
func ProductAdjustStock(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reason, err := enums.ParseLedgerReason(strings.TrimSpace(payload.Reason))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reason"))
			return
		}

		result, err := svc.AdjustStock(r.Context(), productsvc.AdjustStockInput{
			ProductID: productID,
			Delta:     payload.Delta,
			Reason:    reason,
			Note:      payload.Note,
			ActorID:   actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ProductLedger returns the product's ledger history, newest first.
func ProductLedger(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.History(r.Context(), productID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
