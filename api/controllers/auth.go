package controllers

import (
	"net/http"

	"github.com/gleilsonbarbosa2/elitepedidos2/api/middleware"
	"github.com/gleilsonbarbosa2/elitepedidos2/api/responses"
	"github.com/gleilsonbarbosa2/elitepedidos2/api/validators"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/operators"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
)

// AuthLogin exchanges an operator code and password for an access token.
func AuthLogin(svc operators.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("operator"))
			return
		}

		var req operators.LoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Login(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// AuthLogout revokes the session of the calling token.
func AuthLogout(svc operators.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Logout(r.Context(), middleware.AccessIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// AuthMe returns the operator behind the calling token.
func AuthMe(svc operators.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := operatorID(r)
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
