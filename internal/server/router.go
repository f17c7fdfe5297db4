package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/cors"

	"github.com/rpattn/driverlog/internal/auth"
	"github.com/rpattn/driverlog/internal/export"
	"github.com/rpattn/driverlog/internal/ingestion"
	"github.com/rpattn/driverlog/internal/middleware"
	"github.com/rpattn/driverlog/internal/query"
)

// Options configures the router.
type Options struct {
	AdminKey       string
	AllowedOrigins []string
}

// NewRouter wires the driver and admin endpoints behind CORS and request logging.
func NewRouter(ingest *ingestion.Service, queries *query.Service, exports *export.Service, opts Options) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/api/logs", ingestion.NewHTTPHandler(ingest))
	mux.HandleFunc("/healthz", handleHealth)

	admin := func(h http.Handler) http.Handler {
		return auth.RequireAdmin(opts.AdminKey, h)
	}
	mux.Handle("/admin/logs", admin(query.NewHTTPHandler(queries)))
	mux.Handle("/admin/export/logs.csv", admin(export.NewHTTPHandler(exports, export.KindLogs)))
	mux.Handle("/admin/export/stops.csv", admin(export.NewHTTPHandler(exports, export.KindStops)))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", auth.AdminKeyHeader, middleware.RequestIDHeader},
		ExposedHeaders:   []string{"Content-Disposition", middleware.RequestIDHeader},
	})

	return corsHandler.Handler(middleware.LoggingMiddleware(mux))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
