package handler

import (
	"github.com/erp/workstation/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// GridRoutes creates the route group for table layout endpoints
func GridRoutes(handler *GridSettingsHandler, authMiddleware gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("grid", "/grid")
	group.Use(authMiddleware)

	group.GET("/settings", handler.ListSettings).Describe("List customized tables")
	group.GET("/settings/:table", handler.GetSettings).Describe("Get a table layout")
	group.PUT("/settings/:table", handler.SaveSettings).Describe("Save a table layout")
	group.DELETE("/settings/:table", handler.DeleteSettings).Describe("Reset a table layout")

	return group
}

// PrintRoutes creates the route group for pagination, export and draft
// endpoints. exportLimit guards the export endpoint and may be nil.
func PrintRoutes(handler *PrintHandler, events *DraftEventsHandler, authMiddleware, exportLimit gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("print", "/print")
	group.Use(authMiddleware)

	// Reference data
	group.GET("/kinds", handler.GetKinds).Describe("List printable entity kinds")
	group.GET("/paper-sizes", handler.GetPaperSizes).Describe("List paper sizes")

	// Layout and export
	group.POST("/:kind/paginate", handler.Paginate).Describe("Lay a dataset out into pages")
	exportHandlers := []gin.HandlerFunc{handler.Export}
	if exportLimit != nil {
		exportHandlers = append([]gin.HandlerFunc{exportLimit}, exportHandlers...)
	}
	group.POST("/:kind/export", exportHandlers...).Describe("Export a dataset as a document")
	group.GET("/exports/*key", handler.GetExport).Describe("Download a stored export")

	drafts := group.Group("print-drafts", "/drafts")
	drafts.GET("/:dataset", handler.GetDraft).Describe("Get a print draft")
	drafts.PUT("/:dataset", handler.SaveDraft).Describe("Save a print draft")
	drafts.DELETE("/:dataset", handler.DeleteDraft).Describe("Discard a print draft")
	if events != nil {
		drafts.GET("/:dataset/events", events.Stream).Describe("Stream print draft changes")
	}

	return group
}

// SystemRoutes creates the route group for system endpoints
func SystemRoutes(handler *SystemHandler) *router.DomainGroup {
	group := router.NewDomainGroup("system", "/system")

	group.GET("/info", handler.GetSystemInfo).Describe("System information")
	group.GET("/ping", handler.Ping).Describe("Liveness ping")
	group.GET("/health", handler.Health).Describe("Dependency health")
	group.GET("/routes", handler.GetRoutes).Describe("API route table")

	return group
}
