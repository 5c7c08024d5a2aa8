package controllers

import (
	"net/http"

	"github.com/gleilsonbarbosa2/elitepedidos2/api/responses"
	"github.com/gleilsonbarbosa2/elitepedidos2/api/validators"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/operators"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
)

const operatorIDParam = "operatorID"

func ListOperators(svc operators.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func CreateOperator(svc operators.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input operators.CreateOperatorInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Name = validators.SanitizeString(input.Name, 120)
		input.Code = validators.SanitizeString(input.Code, 32)

		operator, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, operator)
	}
}

func GetOperator(svc operators.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, operatorIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		operator, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, operator)
	}
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// SetOperatorActive enables or disables an operator. Admins cannot disable themselves.
func SetOperatorActive(svc operators.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, operatorIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req setActiveRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if self, err := operatorID(r); err == nil && self == id && !*req.IsActive {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot deactivate your own account"))
			return
		}
		if err := svc.SetActive(r.Context(), id, *req.IsActive); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		operator, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, operator)
	}
}
