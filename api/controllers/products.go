package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gleilsonbarbosa2/elitepedidos2/api/responses"
	"github.com/gleilsonbarbosa2/elitepedidos2/api/validators"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/media"
	productsvc "github.com/gleilsonbarbosa2/elitepedidos2/internal/products"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
)

const (
	productIDParam = "productID"
	maxSearchTerm  = 80
)

// ListProducts serves the catalog with the category, active, q and available_on filters.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := parseListFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func parseListFilters(r *http.Request) (productsvc.ListFilters, error) {
	var filters productsvc.ListFilters
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("category")); raw != "" {
		category, err := enums.ParseProductCategory(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		filters.Category = &category
	}

	activeOnly, err := validators.ParseQueryBool(r, "active", false)
	if err != nil {
		return filters, err
	}
	filters.ActiveOnly = activeOnly
	filters.Query = validators.SanitizeString(query.Get("q"), maxSearchTerm)

	if strings.TrimSpace(query.Get("available_on")) != "" {
		day, err := validators.ParseQueryInt(r, "available_on", 0, 0, 6)
		if err != nil {
			return filters, err
		}
		filters.AvailableOn = &day
	}
	return filters, nil
}

// SearchProducts matches active products by name, code or description.
func SearchProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		term := validators.SanitizeString(r.URL.Query().Get("q"), maxSearchTerm)
		list, err := svc.Search(r.Context(), term)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, productIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type createProductRequest struct {
	Code          *string          `json:"code,omitempty" validate:"omitempty,max=32"`
	Name          string           `json:"name" validate:"required,max=120"`
	Description   string           `json:"description" validate:"required,max=500"`
	Category      string           `json:"category" validate:"required"`
	Price         decimal.Decimal  `json:"price" validate:"gte=0"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty" validate:"omitempty,gte=0"`
	PricePerGram  *decimal.Decimal `json:"price_per_gram,omitempty" validate:"omitempty,gte=0"`
	IsWeighable   bool             `json:"is_weighable"`
	IsActive      *bool            `json:"is_active,omitempty"`
	StockQuantity *int             `json:"stock_quantity,omitempty" validate:"omitempty,min=0"`
	MinStock      *int             `json:"min_stock,omitempty" validate:"omitempty,min=0"`
	ImageURL      *string          `json:"image_url,omitempty" validate:"omitempty,max=2048"`
	AvailableDays []int            `json:"available_days,omitempty" validate:"omitempty,max=7,dive,min=0,max=6"`
}

func (req createProductRequest) toInput() (productsvc.CreateProductInput, error) {
	category, err := enums.ParseProductCategory(strings.TrimSpace(req.Category))
	if err != nil {
		return productsvc.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
	}
	return productsvc.CreateProductInput{
		Code:          validators.SanitizeOptional(req.Code, 32),
		Name:          validators.SanitizeString(req.Name, 120),
		Description:   validators.SanitizeString(req.Description, 500),
		Category:      category,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		PricePerGram:  req.PricePerGram,
		IsWeighable:   req.IsWeighable,
		IsActive:      req.IsActive,
		StockQuantity: req.StockQuantity,
		MinStock:      req.MinStock,
		ImageURL:      validators.SanitizeOptional(req.ImageURL, 2048),
		AvailableDays: req.AvailableDays,
	}, nil
}

func CreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := req.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type updateProductRequest struct {
	Code               *string          `json:"code,omitempty" validate:"omitempty,max=32"`
	Name               *string          `json:"name,omitempty" validate:"omitempty,max=120"`
	Description        *string          `json:"description,omitempty" validate:"omitempty,max=500"`
	Category           *string          `json:"category,omitempty"`
	Price              *decimal.Decimal `json:"price,omitempty"`
	OriginalPrice      *decimal.Decimal `json:"original_price,omitempty"`
	ClearOriginalPrice bool             `json:"clear_original_price,omitempty"`
	PricePerGram       *decimal.Decimal `json:"price_per_gram,omitempty"`
	IsWeighable        *bool            `json:"is_weighable,omitempty"`
	IsActive           *bool            `json:"is_active,omitempty"`
	StockQuantity      *int             `json:"stock_quantity,omitempty" validate:"omitempty,min=0"`
	MinStock           *int             `json:"min_stock,omitempty" validate:"omitempty,min=0"`
	ImageURL           *string          `json:"image_url,omitempty" validate:"omitempty,max=2048"`
}

func (req updateProductRequest) toInput() (productsvc.UpdateProductInput, error) {
	input := productsvc.UpdateProductInput{
		Code:               req.Code,
		Name:               req.Name,
		Description:        req.Description,
		Price:              req.Price,
		OriginalPrice:      req.OriginalPrice,
		ClearOriginalPrice: req.ClearOriginalPrice,
		PricePerGram:       req.PricePerGram,
		IsWeighable:        req.IsWeighable,
		IsActive:           req.IsActive,
		StockQuantity:      req.StockQuantity,
		MinStock:           req.MinStock,
		ImageURL:           req.ImageURL,
	}
	if req.Category != nil {
		category, err := enums.ParseProductCategory(strings.TrimSpace(*req.Category))
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		input.Category = &category
	}
	return input, nil
}

func UpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, productIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := req.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func DeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, productIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id, actorRef(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

type scheduleRequest struct {
	Days []int `json:"days" validate:"max=7,dive,min=0,max=6"`
}

// SetProductSchedule replaces the weekdays a product is sold on. An empty list means every day.
func SetProductSchedule(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, productIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req scheduleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.SetSchedule(r.Context(), id, req.Days)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func GetProductImage(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, productIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		url, err := svc.URL(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if url == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product has no image"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"product_id": id, "url": *url})
	}
}

type imageRequest struct {
	// Image is a data URL, raw base64 or an external http(s) URL.
	Image string `json:"image" validate:"required"`
}

func PutProductImage(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, productIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req imageRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		image, err := svc.Save(r.Context(), id, strings.TrimSpace(req.Image))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, image)
	}
}

func DeleteProductImage(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, productIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Remove(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
