package server

import (
	"github.com/labstack/echo/v4"

	"github.com/OFFIS-RIT/interactome/internal/server/middleware"
	"github.com/OFFIS-RIT/interactome/internal/server/routes"
	"github.com/OFFIS-RIT/interactome/pkg/loader"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Query routes read tables a bulk load may be rebuilding.
	queryRoutes := apiRoutes.Group("",
		middleware.RequirePermission(middleware.PermissionQuery),
		middleware.RejectWhileLeased(loader.LeaseKey),
	)
	queryRoutes.POST("/aliases/resolve", routes.ResolveAliasesHandler)
	queryRoutes.POST("/aliases/reverse", routes.ReverseAliasesHandler)
	queryRoutes.POST("/actions", routes.QueryActionsHandler)
	queryRoutes.POST("/evidence", routes.QueryEvidenceHandler)
	queryRoutes.POST("/graphs/actions", routes.ActionGraphHandler)
	queryRoutes.POST("/graphs/evidence", routes.EvidenceGraphHandler)

	// Binning touches no tables.
	apiRoutes.POST("/bins", routes.BinsHandler, middleware.RequirePermission(middleware.PermissionQuery))

	// Load routes
	apiRoutes.POST("/loads", routes.CreateLoadHandler, middleware.RequirePermission(middleware.PermissionLoadCreate))
	apiRoutes.GET("/loads", routes.ListLoadsHandler, middleware.RequirePermission(middleware.PermissionLoadView))
	apiRoutes.GET("/loads/:id", routes.GetLoadHandler, middleware.RequirePermission(middleware.PermissionLoadView))
}
