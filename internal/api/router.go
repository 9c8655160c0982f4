package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "stock-pivot/docs"
	"stock-pivot/internal/api/handler"
	"stock-pivot/pkg/router"
)

// RegisterRoutes wires the job API, downloads, health, metrics and swagger UI.
// More specific wildcard routes come first.
func RegisterRoutes(r *router.Router, h *handler.JobHandler, metrics http.Handler) {
	r.POST("/api/v1/jobs", h.CreateJob)
	r.GET("/api/v1/jobs", h.ListJobs)
	r.GET("/api/v1/jobs/*/files", h.GetJobFiles)
	r.GET("/api/v1/jobs/*", h.GetJob)
	r.GET("/api/v1/download/*/*", h.Download)
	r.GET("/health", h.Health)

	if metrics != nil {
		r.GET("/metrics", metrics.ServeHTTP)
	}
	r.GET("/swagger/*", router.HandlerFunc(httpSwagger.WrapHandler))
}
