// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockdocs/internal/domain/crm"
	"stockdocs/internal/domain/documents"
	"stockdocs/internal/domain/reports"
	"stockdocs/internal/domain/reservations"
	"stockdocs/internal/domain/stores"
	"stockdocs/internal/infrastructure/http/v1/handlers"
	"stockdocs/internal/infrastructure/http/v1/middleware"
	"stockdocs/pkg/logger"
)

// RouterConfig holds the wired services the router mounts.
type RouterConfig struct {
	Pool   *pgxpool.Pool
	Logger *logger.Logger

	// Documents maps each kind to its lifecycle service.
	Documents map[documents.Kind]*documents.Service

	Stores       *stores.Service
	Reservations *reservations.Service
	Reports      *reports.Service

	// Catalog is nil when the CRM integration is not configured; the
	// CRM routes are then not mounted.
	Catalog crm.Catalog
}

// kindRoutes maps document kinds to their URL segments.
var kindRoutes = map[documents.Kind]string{
	documents.KindReceipt:      "receipts",
	documents.KindPosting:      "postings",
	documents.KindSalesInvoice: "sales-invoices",
	documents.KindWriteOffAct:  "write-off-acts",
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	api := router.Group("/api/v1")
	{
		for kind, route := range kindRoutes {
			if svc, ok := cfg.Documents[kind]; ok {
				handlers.NewDocumentHandler(svc).Register(api.Group("/" + route))
			}
		}

		handlers.NewStoreHandler(cfg.Stores).Register(api.Group("/stores"))
		handlers.NewReservationHandler(cfg.Reservations).Register(api.Group("/reservations"))
		handlers.NewReportsHandler(cfg.Reports).Register(api.Group("/reports"))

		if cfg.Catalog != nil {
			handlers.NewCRMHandler(cfg.Catalog).Register(api.Group("/crm"))
		}
	}

	return router
}
