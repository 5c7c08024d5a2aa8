package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gleilsonbarbosa2/elitepedidos2/api/responses"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/registers"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/enums"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
)

// RegisterIDParam is the chi URL parameter naming a cash register.
const RegisterIDParam = "registerID"

type registerLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*registers.RegisterDTO, error)
}

// RegisterScope lets an operator reach only the registers they opened. Admins reach every register.
func RegisterScope(lookup registerLookup, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			registerID, err := uuid.Parse(chi.URLParam(r, RegisterIDParam))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid register id"))
				return
			}

			register, err := lookup.Get(r.Context(), registerID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			operatorID, ok := OperatorUUIDFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator context missing"))
				return
			}
			if register.OperatorID != operatorID && RoleFromContext(r.Context()) != string(enums.OperatorRoleAdmin) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "register belongs to another operator"))
				return
			}

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRegisterID(ctx, registerID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
