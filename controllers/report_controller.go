package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/WilliamGeraldoBueno/ml-inventory-sales/services"
)

// ReportController serves the "Pedidos Tiny" report.
type ReportController struct {
	reports *services.ReportService
	cache   *CacheManager
	logger  *zap.Logger
}

func NewReportController(reports *services.ReportService, cache *CacheManager, logger *zap.Logger) *ReportController {
	return &ReportController{reports: reports, cache: cache, logger: logger}
}

// GetPedidosTiny returns the fulfillable items as JSON, largest quantity
// first. Response shape follows the legacy endpoint the warehouse tooling
// already consumes.
func (ctrl *ReportController) GetPedidosTiny(c *gin.Context) {
	records := ctrl.reports.PedidosTiny()
	if len(records) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"status":   "sucesso",
			"total":    0,
			"itens":    []interface{}{},
			"mensagem": "Nenhum item com necessidade de envio",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "sucesso",
		"total":  len(records),
		"itens":  records,
	})
}

// DownloadPedidosTinyCSV serves the report as a CSV attachment.
func (ctrl *ReportController) DownloadPedidosTinyCSV(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	data, hit := ctrl.cache.GetReportCSV(ctx)
	if !hit {
		var err error
		data, err = ctrl.reports.ExportCSV()
		if err != nil {
			ctrl.logger.Error("Report CSV export failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate report"})
			return
		}
		ctrl.cache.SetReportCSVAsync(data)
	}

	c.Header("Content-Disposition", `attachment; filename="pedidos_tiny.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}
