package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/nexhome-core/internal/entity"
)

// maxPathParamLen limits path parameter length.
const maxPathParamLen = 100

func (s *Server) handleListEntities(w http.ResponseWriter, _ *http.Request) {
	states := s.host.States()
	writeJSON(w, http.StatusOK, map[string]any{
		"entities": states,
		"count":    len(states),
	})
}

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxPathParamLen {
		writeBadRequest(w, "invalid entity ID")
		return
	}

	state, err := s.host.State(id)
	if err != nil {
		if errors.Is(err, entity.ErrEntityNotFound) {
			writeNotFound(w, "entity not found")
			return
		}
		writeInternalError(w, "failed to get entity")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleCallService invokes a service on an entity.
//
// The optional JSON body is the service data, e.g. {"preset_mode": "high"}.
// A 202 means the gateway accepted the command; the entity's state follows
// on the next refresh.
func (s *Server) handleCallService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	service := chi.URLParam(r, "service")
	if id == "" || len(id) > maxPathParamLen {
		writeBadRequest(w, "invalid entity ID")
		return
	}
	if service == "" || len(service) > maxPathParamLen {
		writeBadRequest(w, "invalid service")
		return
	}

	var data map[string]string
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "service data must be a JSON object of strings")
		return
	}

	err := s.host.Call(r.Context(), id, entity.ServiceCall{Service: service, Data: data})
	switch {
	case err == nil:
	case errors.Is(err, entity.ErrEntityNotFound):
		writeNotFound(w, "entity not found")
		return
	case errors.Is(err, entity.ErrUnsupportedService):
		writeError(w, http.StatusBadRequest, ErrCodeUnsupported, err.Error())
		return
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, ErrCodeGatewayTimeout, "gateway did not respond in time")
		return
	default:
		s.logger.Warn("service call failed", "entity_id", id, "service", service, "error", err)
		writeError(w, http.StatusBadGateway, ErrCodeGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"entity_id": id,
		"service":   service,
		"status":    "sent",
	})
}
