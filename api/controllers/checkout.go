package controllers

import (
	"net/http"

	"github.com/gleilsonbarbosa2/elitepedidos2/api/middleware"
	"github.com/gleilsonbarbosa2/elitepedidos2/api/responses"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/checkout"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
)

// SubmitCheckout turns the register's cart into a sale.
func SubmitCheckout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := registerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := checkout.SubmitInput{
			RegisterID:   id,
			OperatorName: middleware.OperatorNameFromContext(r.Context()),
		}
		if opID, ok := middleware.OperatorUUIDFromContext(r.Context()); ok {
			input.OperatorID = &opID
		}

		result, err := svc.Submit(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func CheckoutStatus(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := registerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := svc.Status(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
