package server

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()

	r.Use(h.loggingMiddleware)
	r.Use(metricsMiddleware)

	r.HandleFunc("/", h.HandleRoot).Methods("GET")
	r.HandleFunc("/process-materials", h.HandleProcessMaterials).Methods("POST")
	r.HandleFunc("/job-status/{id}", h.HandleJobStatus).Methods("GET")
	r.HandleFunc("/jobs", h.HandleListJobs).Methods("GET")
	r.HandleFunc("/search", h.HandleSearch).Methods("POST")
	r.HandleFunc("/health", h.HandleHealth).Methods("GET")
	r.HandleFunc("/dependencies", h.HandleDependencies).Methods("GET")
	r.HandleFunc("/system-info", h.HandleSystemInfo).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return r
}
