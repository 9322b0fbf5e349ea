package services_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/WilliamGeraldoBueno/ml-inventory-sales/models"
	"github.com/WilliamGeraldoBueno/ml-inventory-sales/repository"
	"github.com/WilliamGeraldoBueno/ml-inventory-sales/services"
)

// --- fake import history ---

type fakeHistory struct {
	created []*models.ImportRecord
	updated []*models.ImportRecord
}

func (f *fakeHistory) Create(_ context.Context, rec *models.ImportRecord) error {
	f.created = append(f.created, rec)
	return nil
}

func (f *fakeHistory) Update(_ context.Context, rec *models.ImportRecord) error {
	f.updated = append(f.updated, rec)
	return nil
}

func (f *fakeHistory) FindRecent(_ context.Context, _ int) ([]models.ImportRecord, error) {
	return nil, nil
}

// --- helpers ---

func uploadAt(path string, t time.Time) models.UploadFile {
	return models.UploadFile{Path: path, ModTime: t}
}

func writeUpload(t *testing.T, dir, name, content string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func newImportService(t *testing.T, dir string, history repository.ImportRepository) (*services.ImportService, *repository.MemoryItemStore) {
	t.Helper()
	store := repository.NewMemoryItemStore()
	logger, _ := zap.NewDevelopment()
	return services.NewImportService(store, history, dir, logger), store
}

const fullExportCSV = "inventory_id;sku;title;available_quantity;vendas_consolidadas;necessidade_envio;estoque_wms\n" +
	"INV001;SKU-1;Widget;2;10;8;5\n" +
	"INV002;SKU-2;Gadget;0;0;0;9\n" +
	"INV003;SKU-3;Gizmo;1;3;2;2\n"

// --- SelectLatestUpload ---

func TestSelectLatestUpload_PicksNewest(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	files := []models.UploadFile{
		uploadAt("a.csv", base),
		uploadAt("b.csv", base.Add(2*time.Hour)),
		uploadAt("c.csv", base.Add(time.Hour)),
	}

	latest, ok := services.SelectLatestUpload(files)
	assert.True(t, ok)
	assert.Equal(t, "b.csv", latest.Path)
}

func TestSelectLatestUpload_TieBreaksOnLargestPath(t *testing.T) {
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	files := []models.UploadFile{
		uploadAt("upload_b.csv", ts),
		uploadAt("upload_c.csv", ts),
		uploadAt("upload_a.csv", ts),
	}

	latest, ok := services.SelectLatestUpload(files)
	assert.True(t, ok)
	assert.Equal(t, "upload_c.csv", latest.Path)
}

func TestSelectLatestUpload_Empty(t *testing.T) {
	_, ok := services.SelectLatestUpload(nil)
	assert.False(t, ok)
}

// --- ListUploadFiles ---

func TestListUploadFiles_FiltersOnExtension(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeUpload(t, dir, "export.csv", "x", now)
	writeUpload(t, dir, "EXPORT2.CSV", "x", now)
	writeUpload(t, dir, "notes.txt", "x", now)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.csv.d"), 0o755))

	files, err := services.ListUploadFiles(dir)
	assert.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestListUploadFiles_MissingDirIsEmpty(t *testing.T) {
	files, err := services.ListUploadFiles(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.NoError(t, err)
	assert.Empty(t, files)
}

// --- ParseInventoryCSV ---

func TestParseInventoryCSV_HeaderMapped(t *testing.T) {
	items, skipped, err := services.ParseInventoryCSV(strings.NewReader(fullExportCSV), "export.csv")
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, items, 3)

	assert.Equal(t, "INV001", items[0].InventoryID)
	assert.Equal(t, "SKU-1", items[0].SKU)
	assert.Equal(t, 8, items[0].ShippingNeed)
	assert.Equal(t, 5, items[0].WarehouseStock)
	assert.Equal(t, 10, items[0].UnitsSold30d)
}

func TestParseInventoryCSV_MissingColumnsAreZero(t *testing.T) {
	csv := "inventory_id;sku\nINV001;SKU-1\n"
	items, _, err := services.ParseInventoryCSV(strings.NewReader(csv), "minimal.csv")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 0, items[0].ShippingNeed)
	assert.Equal(t, 0, items[0].WarehouseStock)
}

func TestParseInventoryCSV_DerivesShippingNeed(t *testing.T) {
	// No necessidade_envio column: need = sold - (available + transfer + inbound).
	csv := "inventory_id;available_quantity;transfer_quantity;inbound_quantity;vendas_consolidadas;estoque_wms\n" +
		"INV001;2;1;1;10;5\n" +
		"INV002;20;0;0;3;5\n"
	items, _, err := services.ParseInventoryCSV(strings.NewReader(csv), "derived.csv")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 6, items[0].ShippingNeed)
	assert.Equal(t, 0, items[1].ShippingNeed) // floored at zero
}

func TestParseInventoryCSV_NonNumericQuantityIsZero(t *testing.T) {
	// The legacy export writes "Oportunidade" into the need column.
	csv := "inventory_id;necessidade_envio;estoque_wms\nINV001;Oportunidade;9\n"
	items, _, err := services.ParseInventoryCSV(strings.NewReader(csv), "legacy.csv")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 0, items[0].ShippingNeed)
}

func TestParseInventoryCSV_SkipsRowsWithoutID(t *testing.T) {
	csv := "inventory_id;necessidade_envio\nINV001;2\n;5\nINV003;1\n"
	items, skipped, err := services.ParseInventoryCSV(strings.NewReader(csv), "gaps.csv")
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 1, skipped)
}

func TestParseInventoryCSV_Errors(t *testing.T) {
	cases := []struct {
		name string
		csv  string
	}{
		{"empty file", ""},
		{"missing id column", "sku;necessidade_envio\nSKU-1;2\n"},
		{"malformed quoting", "inventory_id;sku\nINV001;\"unclosed\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := services.ParseInventoryCSV(strings.NewReader(tc.csv), "bad.csv")
			var parseErr *services.ParseError
			assert.ErrorAs(t, err, &parseErr)
		})
	}
}

// --- ImportService ---

func TestImportLatest_EmptyDir(t *testing.T) {
	svc, store := newImportService(t, t.TempDir(), &fakeHistory{})

	_, err := svc.ImportLatest(context.Background(), "manual")
	assert.ErrorIs(t, err, services.ErrNoUploads)
	assert.Zero(t, store.Len())
}

func TestImportLatest_LoadsNewestFile(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	writeUpload(t, dir, "old.csv", "inventory_id;necessidade_envio;estoque_wms\nOLD1;1;1\n", base)
	writeUpload(t, dir, "new.csv", fullExportCSV, base.Add(time.Hour))

	history := &fakeHistory{}
	svc, store := newImportService(t, dir, history)

	result, err := svc.ImportLatest(context.Background(), "manual")
	require.NoError(t, err)
	assert.Equal(t, "new.csv", result.FileName)
	assert.Equal(t, 3, result.RowsImported)
	assert.Equal(t, 2, result.WithNeed)
	assert.Equal(t, 3, store.Len())

	require.Len(t, history.updated, 1)
	assert.Equal(t, models.ImportStatusCompleted, history.updated[0].Status)
	assert.Equal(t, "manual", history.updated[0].Source)
}

func TestImportLatest_ParseFailureKeepsPreviousStorage(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	writeUpload(t, dir, "good.csv", fullExportCSV, base)

	history := &fakeHistory{}
	svc, store := newImportService(t, dir, history)

	_, err := svc.ImportLatest(context.Background(), "manual")
	require.NoError(t, err)
	require.Equal(t, 3, store.Len())

	// A newer, malformed upload must not wipe the loaded items.
	writeUpload(t, dir, "broken.csv", "not a header", base.Add(time.Hour))
	_, err = svc.ImportLatest(context.Background(), "manual")
	var parseErr *services.ParseError
	assert.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 3, store.Len())

	require.Len(t, history.updated, 2)
	assert.Equal(t, models.ImportStatusFailed, history.updated[1].Status)
}

func TestLoadOnStartup_NeverPanicsOrAborts(t *testing.T) {
	// Empty directory: storage stays empty, no error escapes.
	svc, store := newImportService(t, t.TempDir(), &fakeHistory{})
	svc.LoadOnStartup(context.Background(), nil)
	assert.Zero(t, store.Len())

	// Malformed newest file: same outcome.
	dir := t.TempDir()
	writeUpload(t, dir, "broken.csv", "\"", time.Now())
	svc2, store2 := newImportService(t, dir, &fakeHistory{})
	svc2.LoadOnStartup(context.Background(), nil)
	assert.Zero(t, store2.Len())
}

func TestLoadOnStartup_FiresCallbackOnlyOnSuccessfulLoad(t *testing.T) {
	// Successful load: the callback runs once, after the store is filled,
	// so cached reports built from the pre-restart dataset get dropped.
	dir := t.TempDir()
	writeUpload(t, dir, "export.csv", fullExportCSV, time.Now())
	svc, store := newImportService(t, dir, &fakeHistory{})

	calls := 0
	storedAtCall := 0
	svc.LoadOnStartup(context.Background(), func() {
		calls++
		storedAtCall = store.Len()
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, 3, storedAtCall)

	// Empty directory: nothing loaded, nothing to invalidate.
	svc2, _ := newImportService(t, t.TempDir(), &fakeHistory{})
	calls = 0
	svc2.LoadOnStartup(context.Background(), func() { calls++ })
	assert.Zero(t, calls)

	// Malformed newest file: the failed import must not touch the cache.
	dir3 := t.TempDir()
	writeUpload(t, dir3, "broken.csv", "not a header", time.Now())
	svc3, _ := newImportService(t, dir3, &fakeHistory{})
	calls = 0
	svc3.LoadOnStartup(context.Background(), func() { calls++ })
	assert.Zero(t, calls)
}

// --- round trip ---

func TestRoundTrip_ExportThenImportPreservesIdentifiersAndOrder(t *testing.T) {
	svc := newReportService(
		item("INV010", 5, 3),
		item("INV002", 10, 3),
		item("INV007", 1, 1),
	)

	data, err := svc.ExportCSV()
	require.NoError(t, err)

	items, skipped, err := services.ParseInventoryCSV(bytes.NewReader(data), "roundtrip.csv")
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.InventoryID)
	}
	assert.Equal(t, []string{"INV010", "INV002", "INV007"}, ids)
}
