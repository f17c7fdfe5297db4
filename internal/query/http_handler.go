package query

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/rpattn/driverlog/internal/domain"
)

// Handler serves the admin view as JSON.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the service with a GET endpoint.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := h.service.Query(r.Context(), FilterFromRequest(r))
	if err != nil {
		log.Printf("[query] admin view failed: %v", err)
		http.Error(w, "failed to load logs", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// FilterFromRequest reads the from, to and driver query parameters.
func FilterFromRequest(r *http.Request) domain.LogFilter {
	query := r.URL.Query()
	return domain.LogFilter{
		From:   query.Get("from"),
		To:     query.Get("to"),
		Driver: query.Get("driver"),
	}.Normalized()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
