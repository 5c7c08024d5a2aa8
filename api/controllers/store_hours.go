package controllers

import (
	"net/http"
	"time"

	"github.com/gleilsonbarbosa2/elitepedidos2/api/responses"
	"github.com/gleilsonbarbosa2/elitepedidos2/api/validators"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/storehours"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
)

func GetStoreHours(svc storehours.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		week, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, week)
	}
}

type storeHoursRequest struct {
	Hours []storehours.DayHours `json:"hours" validate:"required"`
}

type storeHoursResponse struct {
	Hours   []storehours.DayHours `json:"hours"`
	Changed bool                  `json:"changed"`
}

// UpdateStoreHours saves the whole week. An identical week reports changed=false.
func UpdateStoreHours(svc storehours.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req storeHoursRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		week, changed, err := svc.Update(r.Context(), req.Hours)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, storeHoursResponse{Hours: week, Changed: changed})
	}
}

func StoreStatus(svc storehours.Service, now func() time.Time, logg *logger.Logger) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := svc.Status(r.Context(), now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
