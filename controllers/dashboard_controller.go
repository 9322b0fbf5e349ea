package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/WilliamGeraldoBueno/ml-inventory-sales/repository"
	"github.com/WilliamGeraldoBueno/ml-inventory-sales/services"
)

// DashboardController exposes the loaded inventory and import history.
type DashboardController struct {
	reports *services.ReportService
	history repository.ImportRepository
	logger  *zap.Logger
}

func NewDashboardController(reports *services.ReportService, history repository.ImportRepository, logger *zap.Logger) *DashboardController {
	return &DashboardController{reports: reports, history: history, logger: logger}
}

// GetItems lists the inventory items from the most recent import.
func (ctrl *DashboardController) GetItems(c *gin.Context) {
	items := ctrl.reports.Items()
	c.JSON(http.StatusOK, gin.H{
		"total": len(items),
		"items": items,
	})
}

// GetStats returns inventory aggregates.
func (ctrl *DashboardController) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, ctrl.reports.Stats())
}

// GetImportHistory returns the most recent import attempts.
func (ctrl *DashboardController) GetImportHistory(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	recs, err := ctrl.history.FindRecent(ctx, 20)
	if err != nil {
		ctrl.logger.Error("Failed to load import history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load import history"})
		return
	}
	if recs == nil {
		c.JSON(http.StatusOK, gin.H{"total": 0, "imports": []interface{}{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(recs), "imports": recs})
}
