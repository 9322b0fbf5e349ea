package models

import (
	"time"
)

// InventoryItem is one fulfillment-center SKU loaded from the consolidated
// CSV export. Quantities missing from the source file are zero.
type InventoryItem struct {
	InventoryID    string `json:"inventory_id"`
	SKU            string `json:"sku,omitempty"`
	Title          string `json:"title,omitempty"`
	AvailableQty   int    `json:"available_quantity"`
	TotalQty       int    `json:"total_quantity"`
	TransferQty    int    `json:"transfer_quantity"`
	InboundQty     int    `json:"inbound_quantity"`
	UnitsSold30d   int    `json:"units_sold_30d"`
	ShippingNeed   int    `json:"necessidade_envio"`
	WarehouseStock int    `json:"estoque_wms"`
}

// FulfillableRecord is one row of the "Pedidos Tiny" report. Built per
// request, never persisted.
type FulfillableRecord struct {
	InventoryID string `json:"inventory_id"`
	Fulfillable int    `json:"quantidade_enviar"`
}

// UploadFile identifies a candidate CSV in the upload directory.
type UploadFile struct {
	Path    string
	ModTime time.Time
}

// ImportResult summarizes one import run for the API response.
type ImportResult struct {
	FileName     string `json:"arquivo_importado"`
	RowsImported int    `json:"produtos_importados"`
	RowsSkipped  int    `json:"linhas_ignoradas"`
	WithNeed     int    `json:"produtos_com_necessidade"`
}

// InventoryStats aggregates the loaded items for the dashboard endpoint.
type InventoryStats struct {
	TotalItems       int `json:"total_items"`
	ItemsWithStock   int `json:"items_with_stock"`
	ItemsWithNeed    int `json:"items_with_need"`
	FulfillableUnits int `json:"fulfillable_units"`
}

// UploadForm carries the optional metadata sent with a CSV upload.
type UploadForm struct {
	Source string `form:"source" validate:"omitempty,oneof=manual scheduled wms"`
}
