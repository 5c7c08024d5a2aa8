package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gleilsonbarbosa2/elitepedidos2/api/responses"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/notifications"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
)

const sseHeartbeat = 15 * time.Second

type notificationSubscriber interface {
	Subscribe(registerID uuid.UUID) (<-chan notifications.Event, func())
}

// StreamEvents pushes the register's notifications as server-sent events until the client leaves.
func StreamEvents(bus notificationSubscriber, heartbeat time.Duration, logg *logger.Logger) http.HandlerFunc {
	if heartbeat <= 0 {
		heartbeat = sseHeartbeat
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := registerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rc := http.NewResponseController(w)
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		if err := rc.Flush(); err != nil {
			logg.Warn(r.Context(), "sse.flush_unsupported")
			return
		}

		events, cancel := bus.Subscribe(id)
		defer cancel()
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		logg.Debug(r.Context(), "sse.subscribed")
		for {
			select {
			case <-r.Context().Done():
				logg.Debug(r.Context(), "sse.closed")
				return
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
			case event, ok := <-events:
				if !ok {
					return
				}
				payload, err := json.Marshal(event)
				if err != nil {
					logg.Error(r.Context(), "sse.encode_failed", err)
					continue
				}
				if _, err := fmt.Fprintf(w, "id: %s\nevent: notification\ndata: %s\n\n", event.ID, payload); err != nil {
					return
				}
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
