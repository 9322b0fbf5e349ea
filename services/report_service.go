package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/WilliamGeraldoBueno/ml-inventory-sales/models"
	"github.com/WilliamGeraldoBueno/ml-inventory-sales/repository"
)

// csvHeader matches the existing export convention of the consolidated
// spreadsheet the warehouse team consumes.
var csvHeader = []string{"Inventory ID", "Pode Atender"}

// Fulfillable computes the fulfillable quantity per item and keeps only
// items with at least one shippable unit. Input order is preserved.
func Fulfillable(items []models.InventoryItem) []models.FulfillableRecord {
	records := make([]models.FulfillableRecord, 0, len(items))
	for _, it := range items {
		qty := it.ShippingNeed
		if it.WarehouseStock < qty {
			qty = it.WarehouseStock
		}
		if qty >= 1 {
			records = append(records, models.FulfillableRecord{
				InventoryID: it.InventoryID,
				Fulfillable: qty,
			})
		}
	}
	return records
}

// ReportService builds the "Pedidos Tiny" report from the loaded items.
type ReportService struct {
	store  repository.ItemStore
	logger *zap.Logger
}

// NewReportService creates a new ReportService.
func NewReportService(store repository.ItemStore, logger *zap.Logger) *ReportService {
	return &ReportService{store: store, logger: logger}
}

// PedidosTiny returns the report rows sorted by quantity descending, the
// order the warehouse screen always showed them in.
func (s *ReportService) PedidosTiny() []models.FulfillableRecord {
	records := Fulfillable(s.store.List())
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Fulfillable > records[j].Fulfillable
	})
	return records
}

// ExportCSV renders the report as semicolon-delimited text, one row per
// fulfillable item in storage order.
func (s *ReportService) ExportCSV() ([]byte, error) {
	records := Fulfillable(s.store.List())

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'

	if err := w.Write(csvHeader); err != nil {
		s.logger.Error("Report CSV header write failed", zap.Error(err))
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		row := []string{rec.InventoryID, fmt.Sprintf("%d", rec.Fulfillable)}
		if err := w.Write(row); err != nil {
			s.logger.Error("Report CSV row write failed",
				zap.String("inventory_id", rec.InventoryID), zap.Error(err))
			return nil, fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		s.logger.Error("Report CSV flush failed", zap.Error(err))
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	s.logger.Debug("Report CSV rendered", zap.Int("rows", len(records)))
	return buf.Bytes(), nil
}

// Stats aggregates the loaded items for the dashboard.
func (s *ReportService) Stats() models.InventoryStats {
	items := s.store.List()
	stats := models.InventoryStats{TotalItems: len(items)}
	for _, it := range items {
		if it.AvailableQty > 0 {
			stats.ItemsWithStock++
		}
		if it.ShippingNeed > 0 {
			stats.ItemsWithNeed++
		}
		qty := it.ShippingNeed
		if it.WarehouseStock < qty {
			qty = it.WarehouseStock
		}
		if qty >= 1 {
			stats.FulfillableUnits += qty
		}
	}
	return stats
}

// Items returns the loaded inventory for the dashboard listing.
func (s *ReportService) Items() []models.InventoryItem {
	return s.store.List()
}
