package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/WilliamGeraldoBueno/ml-inventory-sales/controllers"
	"github.com/WilliamGeraldoBueno/ml-inventory-sales/middleware"
)

// RegisterRoutes registers all service routes.
func RegisterRoutes(
	r *gin.Engine,
	reports *controllers.ReportController,
	imports *controllers.ImportController,
	dashboard *controllers.DashboardController,
) {
	api := r.Group("/api")
	{
		// Pedidos Tiny report
		api.GET("/pedidos-tiny", reports.GetPedidosTiny)
		api.GET("/pedidos-tiny/csv", reports.DownloadPedidosTinyCSV)

		// Dashboard data
		api.GET("/items", dashboard.GetItems)
		api.GET("/stats", dashboard.GetStats)
		api.GET("/imports", dashboard.GetImportHistory)

		// CSV ingestion
		limited := api.Group("", middleware.RateLimitMiddleware())
		limited.POST("/import-csv", imports.ImportCSV)
		limited.POST("/upload", imports.UploadCSV)
	}
}
