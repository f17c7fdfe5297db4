package ingestion

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
)

const maxPayloadBytes = 1 << 20

// Handler exposes ingestion as an HTTP endpoint.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the service with a POST endpoint.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

type submitResponse struct {
	OK     bool                      `json:"ok"`
	ID     int64                     `json:"id,omitempty"`
	Error  string                    `json:"error,omitempty"`
	Errors []validationErrorResponse `json:"errors,omitempty"`
}

type validationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	defer r.Body.Close()
	var decoded any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayloadBytes)).Decode(&decoded); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, submitResponse{Error: fmt.Sprintf("invalid payload: %v", err)})
		return
	}

	payload, isObject := decoded.(map[string]any)
	if !isObject && decoded != nil && h.service.Mode() == ModeStrict {
		writeJSON(w, http.StatusBadRequest, submitResponse{Error: fmt.Sprintf("payload must be a JSON object, got %T", decoded)})
		return
	}

	receipt, err := h.service.Submit(r.Context(), payload)
	if err != nil {
		var invalid *ValidationError
		if errors.As(err, &invalid) {
			resp := submitResponse{Error: ErrInvalidSubmission.Error()}
			for _, fieldErr := range invalid.Result.Errors {
				resp.Errors = append(resp.Errors, validationErrorResponse{Field: fieldErr.Field, Message: fieldErr.Message})
			}
			writeJSON(w, http.StatusBadRequest, resp)
			return
		}
		log.Printf("[ingest] submission failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, submitResponse{Error: "failed to save log"})
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{OK: true, ID: receipt.ID})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
