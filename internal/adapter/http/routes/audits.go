package routes

import (
	"github.com/Sarrabentardeit/Auditalex/internal/adapter/http/handlers"

	"github.com/gin-gonic/gin"
)

const (
	PathAudits  = "/audits"
	PathCatalog = "/catalog"
)

func addAuditRoutes(rg *gin.RouterGroup, auditHandler *handlers.AuditHandler) {
	audits := rg.Group(PathAudits)
	{
		audits.GET("", auditHandler.ListAudits)
		audits.POST("", auditHandler.CreateAudit)
		audits.GET("/:id", auditHandler.GetAudit)
		audits.PUT("/:id", auditHandler.UpdateAudit)
		audits.DELETE("/:id", auditHandler.DeleteAudit)
		audits.GET("/:id/results", auditHandler.GetAuditResults)
		audits.GET("/:id/report", auditHandler.GetAuditReport)
	}
}

func addCatalogRoutes(rg *gin.RouterGroup, catalogHandler *handlers.CatalogHandler) {
	rg.GET(PathCatalog, catalogHandler.GetCatalog)
}
