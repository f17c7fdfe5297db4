package export

import (
	"errors"
	"log"
	"mime"
	"net/http"
	"time"

	"github.com/rpattn/driverlog/internal/query"
)

// Kind selects which rows an export handler streams.
type Kind string

const (
	KindLogs  Kind = "logs"
	KindStops Kind = "stops"
)

type Handler struct {
	service *Service
	kind    Kind
}

// NewHTTPHandler serves a streamed download of kind.
func NewHTTPHandler(service *Service, kind Kind) http.Handler {
	return &Handler{service: service, kind: kind}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	format, err := ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	filter := query.FilterFromRequest(r)

	// Exports stream for as long as the result needs; the server-wide
	// write timeout only applies to the other routes.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		log.Printf("[export] could not clear write deadline: %v", err)
	}

	filename := FileName(h.kind, filter, format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Cache-Control", "no-store")

	out := &trackingWriter{ResponseWriter: w}
	switch h.kind {
	case KindStops:
		_, err = h.service.ExportStops(r.Context(), filter, format, out)
	default:
		_, err = h.service.ExportLogs(r.Context(), filter, format, out)
	}
	if err == nil {
		return
	}

	if !out.started {
		log.Printf("[export] %s download %s failed: %v", h.kind, filename, err)
		w.Header().Del("Content-Disposition")
		http.Error(w, "failed to export "+string(h.kind), http.StatusInternalServerError)
		return
	}
	// Status and some rows are already on the wire.
	log.Printf("[export] %s download %s aborted: %v", h.kind, filename, err)
}

// trackingWriter records whether any body bytes were sent.
type trackingWriter struct {
	http.ResponseWriter
	started bool
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	t.started = true
	return t.ResponseWriter.Write(p)
}

func (t *trackingWriter) Flush() {
	if flusher, ok := t.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (t *trackingWriter) Unwrap() http.ResponseWriter {
	return t.ResponseWriter
}
