package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/WilliamGeraldoBueno/ml-inventory-sales/models"
	"github.com/WilliamGeraldoBueno/ml-inventory-sales/repository"
)

// ErrNoUploads is returned when the upload directory contains no CSV files.
var ErrNoUploads = errors.New("no CSV files found in upload directory")

// ParseError reports a malformed upload file. Imports that fail with it are
// logged and skipped; the previous storage contents are kept.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s line %d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SelectLatestUpload picks the newest file by modification time. Ties are
// broken by the lexicographically largest path so selection stays
// deterministic regardless of directory listing order.
func SelectLatestUpload(files []models.UploadFile) (models.UploadFile, bool) {
	if len(files) == 0 {
		return models.UploadFile{}, false
	}
	latest := files[0]
	for _, f := range files[1:] {
		if f.ModTime.After(latest.ModTime) {
			latest = f
			continue
		}
		if f.ModTime.Equal(latest.ModTime) && f.Path > latest.Path {
			latest = f
		}
	}
	return latest, true
}

// ListUploadFiles enumerates the CSV files in dir with their modification
// times. A missing directory is treated the same as an empty one.
func ListUploadFiles(dir string) ([]models.UploadFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read upload directory: %w", err)
	}

	var files []models.UploadFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, models.UploadFile{
			Path:    filepath.Join(dir, entry.Name()),
			ModTime: info.ModTime(),
		})
	}
	return files, nil
}

// ParseInventoryCSV reads a semicolon-delimited export and maps it into
// inventory items by header name. Returns the items and the number of rows
// skipped for missing an inventory id.
func ParseInventoryCSV(r io.Reader, name string) ([]models.InventoryItem, int, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, 0, &ParseError{File: name, Err: errors.New("empty file")}
	}
	if err != nil {
		return nil, 0, &ParseError{File: name, Line: 1, Err: err}
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[normalizeHeader(h)] = i
	}
	if _, ok := cols["inventory_id"]; !ok {
		return nil, 0, &ParseError{File: name, Line: 1, Err: errors.New("missing inventory_id column")}
	}

	var items []models.InventoryItem
	skipped := 0
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, 0, &ParseError{File: name, Line: line, Err: err}
		}

		field := func(key string) string {
			idx, ok := cols[key]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		id := field("inventory_id")
		if id == "" {
			skipped++
			continue
		}

		item := models.InventoryItem{
			InventoryID:    id,
			SKU:            field("sku"),
			Title:          field("title"),
			AvailableQty:   atoiOrZero(field("available_quantity")),
			TotalQty:       atoiOrZero(field("total_quantity")),
			TransferQty:    atoiOrZero(field("transfer_quantity")),
			InboundQty:     atoiOrZero(field("inbound_quantity")),
			UnitsSold30d:   atoiOrZero(field("vendas_consolidadas")),
			WarehouseStock: atoiOrZero(field("estoque_wms")),
		}

		if _, ok := cols["necessidade_envio"]; ok {
			item.ShippingNeed = atoiOrZero(field("necessidade_envio"))
		} else {
			item.ShippingNeed = deriveShippingNeed(item)
		}

		items = append(items, item)
	}
	return items, skipped, nil
}

// deriveShippingNeed recomputes the shipping need the way the consolidated
// export does: 30-day sales minus everything already in or headed to the
// fulfillment center, floored at zero.
func deriveShippingNeed(it models.InventoryItem) int {
	need := it.UnitsSold30d - (it.AvailableQty + it.TransferQty + it.InboundQty)
	if need < 0 {
		return 0
	}
	return need
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.ReplaceAll(h, " ", "_")
}

// atoiOrZero treats blank or non-numeric quantity fields as zero; the
// export writes "Oportunidade" into numeric columns for items with no sales.
func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ImportService ingests consolidated CSV exports into the item store and
// records each attempt in the import history.
type ImportService struct {
	store     repository.ItemStore
	history   repository.ImportRepository
	uploadDir string
	logger    *zap.Logger
}

// NewImportService creates a new ImportService reading from uploadDir.
func NewImportService(store repository.ItemStore, history repository.ImportRepository, uploadDir string, logger *zap.Logger) *ImportService {
	return &ImportService{store: store, history: history, uploadDir: uploadDir, logger: logger}
}

// UploadDir returns the directory watched for CSV uploads.
func (s *ImportService) UploadDir() string { return s.uploadDir }

// ImportLatest scans the upload directory and imports the newest CSV.
// Returns ErrNoUploads when the directory has no candidates.
func (s *ImportService) ImportLatest(ctx context.Context, source string) (*models.ImportResult, error) {
	files, err := ListUploadFiles(s.uploadDir)
	if err != nil {
		return nil, err
	}
	latest, ok := SelectLatestUpload(files)
	if !ok {
		return nil, ErrNoUploads
	}
	return s.ImportFile(ctx, latest.Path, source)
}

// ImportFile parses one CSV and replaces the item store contents with its
// rows. The store is left untouched when parsing fails.
func (s *ImportService) ImportFile(ctx context.Context, path, source string) (*models.ImportResult, error) {
	if source == "" {
		source = "manual"
	}
	rec := &models.ImportRecord{
		ID:       uuid.New(),
		FileName: filepath.Base(path),
		Source:   source,
		Status:   models.ImportStatusRunning,
	}
	if err := s.history.Create(ctx, rec); err != nil {
		s.logger.Warn("Failed to record import start", zap.Error(err))
	}

	result, err := s.importFile(ctx, path)
	now := time.Now().UTC()
	rec.CompletedAt = &now
	if err != nil {
		rec.Status = models.ImportStatusFailed
		rec.Error = err.Error()
	} else {
		rec.Status = models.ImportStatusCompleted
		rec.RowsImported = result.RowsImported
		rec.RowsSkipped = result.RowsSkipped
	}
	if uerr := s.history.Update(ctx, rec); uerr != nil {
		s.logger.Warn("Failed to record import completion", zap.Error(uerr))
	}
	return result, err
}

func (s *ImportService) importFile(ctx context.Context, path string) (*models.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	items, skipped, err := ParseInventoryCSV(f, filepath.Base(path))
	if err != nil {
		return nil, err
	}

	s.store.ReplaceAll(items)

	withNeed := 0
	for _, it := range items {
		if it.ShippingNeed > 0 {
			withNeed++
		}
	}
	s.logger.Info("CSV import completed",
		zap.String("file", filepath.Base(path)),
		zap.Int("rows", len(items)),
		zap.Int("skipped", skipped),
		zap.Int("with_need", withNeed),
	)
	return &models.ImportResult{
		FileName:     filepath.Base(path),
		RowsImported: len(items),
		RowsSkipped:  skipped,
		WithNeed:     withNeed,
	}, nil
}

// LoadOnStartup runs the one-time import of the newest upload. An empty
// directory or a parse failure leaves storage empty and never aborts boot.
// onLoaded fires after a successful import so callers can drop caches built
// from the pre-restart dataset.
func (s *ImportService) LoadOnStartup(ctx context.Context, onLoaded func()) {
	result, err := s.ImportLatest(ctx, "scheduled")
	if errors.Is(err, ErrNoUploads) {
		s.logger.Info("No CSV uploads found, starting with empty inventory",
			zap.String("upload_dir", s.uploadDir))
		return
	}
	if err != nil {
		s.logger.Error("Startup CSV import failed, continuing without data", zap.Error(err))
		return
	}
	s.logger.Info("Startup CSV import loaded",
		zap.String("file", result.FileName),
		zap.Int("rows", result.RowsImported),
	)
	if onLoaded != nil {
		onLoaded()
	}
}
