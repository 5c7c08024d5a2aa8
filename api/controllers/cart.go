package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gleilsonbarbosa2/elitepedidos2/api/responses"
	"github.com/gleilsonbarbosa2/elitepedidos2/api/validators"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/cart"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
)

const splitIndexParam = "index"

// cartView is the cart plus its derived totals, as every cart endpoint answers.
type cartView struct {
	Cart   *cart.Aggregate `json:"cart"`
	Totals cart.Totals     `json:"totals"`
}

func newCartView(agg *cart.Aggregate) cartView {
	if agg == nil {
		agg = cart.New()
	}
	return cartView{Cart: agg, Totals: agg.Totals()}
}

// cartHandler resolves the register and hands the request to fn, writing whatever cart it returns.
func cartHandler(logg *logger.Logger, fn func(r *http.Request, registerID uuid.UUID) (*cart.Aggregate, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := registerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		agg, err := fn(r, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(agg))
	}
}

func GetCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(logg, func(r *http.Request, id uuid.UUID) (*cart.Aggregate, error) {
		return svc.Get(r.Context(), id)
	})
}

type addLineRequest struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity"`
	WeightKg  *decimal.Decimal `json:"weight_kg,omitempty"`
	// FromScale reads the weight from the connected scale instead of the body.
	FromScale bool `json:"from_scale,omitempty"`
}

func AddCartLine(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(logg, func(r *http.Request, id uuid.UUID) (*cart.Aggregate, error) {
		var req addLineRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		if req.FromScale {
			return svc.AddWeighed(r.Context(), id, req.ProductID)
		}
		return svc.AddItem(r.Context(), id, cart.AddItemInput{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			WeightKg:  req.WeightKg,
		})
	})
}

type updateLineRequest struct {
	Quantity    *int             `json:"quantity,omitempty"`
	WeightKg    *decimal.Decimal `json:"weight_kg,omitempty"`
	WeightSteps *int             `json:"weight_steps,omitempty"`
}

func UpdateCartLine(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(logg, func(r *http.Request, id uuid.UUID) (*cart.Aggregate, error) {
		productID, err := validators.ParseUUIDParam(r, productIDParam)
		if err != nil {
			return nil, err
		}
		var req updateLineRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.UpdateItem(r.Context(), id, productID, cart.UpdateItemInput{
			Quantity:    req.Quantity,
			WeightKg:    req.WeightKg,
			WeightSteps: req.WeightSteps,
		})
	})
}

func RemoveCartLine(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(logg, func(r *http.Request, id uuid.UUID) (*cart.Aggregate, error) {
		productID, err := validators.ParseUUIDParam(r, productIDParam)
		if err != nil {
			return nil, err
		}
		return svc.RemoveItem(r.Context(), id, productID)
	})
}

type discountRequest struct {
	Type  string          `json:"type" validate:"required"`
	Value decimal.Decimal `json:"value" validate:"gte=0"`
}

func SetCartDiscount(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(logg, func(r *http.Request, id uuid.UUID) (*cart.Aggregate, error) {
		var req discountRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		kind, err := enums.ParseDiscountType(strings.TrimSpace(req.Type))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
		}
		return svc.SetDiscount(r.Context(), id, cart.DiscountSpec{Type: kind, Value: req.Value})
	})
}

type paymentRequest struct {
	Method         *string          `json:"method,omitempty"`
	CustomerName   *string          `json:"customer_name,omitempty" validate:"omitempty,max=120"`
	CustomerPhone  *string          `json:"customer_phone,omitempty" validate:"omitempty,max=32"`
	AmountTendered *decimal.Decimal `json:"amount_tendered,omitempty" validate:"omitempty,gte=0"`
	ClearTendered  bool             `json:"clear_tendered,omitempty"`
}

func SetCartPayment(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(logg, func(r *http.Request, id uuid.UUID) (*cart.Aggregate, error) {
		var req paymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		input := cart.PaymentInput{
			CustomerName:   validators.SanitizeOptional(req.CustomerName, 120),
			CustomerPhone:  validators.SanitizeOptional(req.CustomerPhone, 32),
			AmountTendered: req.AmountTendered,
			ClearTendered:  req.ClearTendered,
		}
		if req.Method != nil {
			method, err := enums.ParsePaymentMethod(strings.TrimSpace(*req.Method))
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
			}
			input.Method = &method
		}
		return svc.SetPayment(r.Context(), id, input)
	})
}

type splitRequest struct {
	Enabled bool `json:"enabled"`
	Parts   int  `json:"parts"`
	Reset   bool `json:"reset,omitempty"`
}

func ConfigureCartSplit(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(logg, func(r *http.Request, id uuid.UUID) (*cart.Aggregate, error) {
		var req splitRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.ConfigureSplit(r.Context(), id, cart.SplitInput{
			Enabled: req.Enabled,
			Parts:   req.Parts,
			Reset:   req.Reset,
		})
	})
}

type splitPartRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func SetCartSplitPart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(logg, func(r *http.Request, id uuid.UUID) (*cart.Aggregate, error) {
		index, err := validators.ParseIntParam(r, splitIndexParam)
		if err != nil {
			return nil, err
		}
		var req splitPartRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		return svc.SetSplitPart(r.Context(), id, index, req.Amount)
	})
}

// ClearCart empties the cart and answers with the fresh empty view.
func ClearCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(logg, func(r *http.Request, id uuid.UUID) (*cart.Aggregate, error) {
		if err := svc.Clear(r.Context(), id); err != nil {
			return nil, err
		}
		return cart.New(), nil
	})
}
