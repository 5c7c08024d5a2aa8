package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/gleilsonbarbosa2/elitepedidos2/api/middleware"
	"github.com/gleilsonbarbosa2/elitepedidos2/api/validators"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/outbox"
)

func operatorID(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.OperatorUUIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator context missing")
	}
	return id, nil
}

func actorRef(r *http.Request) *outbox.ActorRef {
	id, ok := middleware.OperatorUUIDFromContext(r.Context())
	if !ok {
		return nil
	}
	return &outbox.ActorRef{OperatorID: id, Role: middleware.RoleFromContext(r.Context())}
}

func registerID(r *http.Request) (uuid.UUID, error) {
	return validators.ParseUUIDParam(r, middleware.RegisterIDParam)
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}
