package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/WilliamGeraldoBueno/ml-inventory-sales/services"
)

// ImportController handles CSV ingestion: uploads into the watched
// directory and on-demand re-imports of the newest file.
type ImportController struct {
	imports   *services.ImportService
	cache     *CacheManager
	validator *RequestValidator
	logger    *zap.Logger
}

func NewImportController(imports *services.ImportService, cache *CacheManager, validator *RequestValidator, logger *zap.Logger) *ImportController {
	return &ImportController{imports: imports, cache: cache, validator: validator, logger: logger}
}

// ImportCSV re-scans the upload directory and imports the most recent file,
// the same routine the startup loader runs.
func (ctrl *ImportController) ImportCSV(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultContextTimeout)
	defer cancel()

	result, err := ctrl.imports.ImportLatest(ctx, "manual")
	if errors.Is(err, services.ErrNoUploads) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No CSV files found in upload directory"})
		return
	}
	var parseErr *services.ParseError
	if errors.As(err, &parseErr) {
		ctrl.logger.Error("CSV import rejected", zap.Error(parseErr))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": parseErr.Error()})
		return
	}
	if err != nil {
		ctrl.logger.Error("CSV import failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Import failed"})
		return
	}

	ctrl.invalidateCache(ctx)
	c.JSON(http.StatusOK, gin.H{
		"status":    "sucesso",
		"resultado": result,
	})
}

// UploadCSV stores a multipart CSV in the upload directory and imports it
// immediately.
func (ctrl *ImportController) UploadCSV(c *gin.Context) {
	form, err := ctrl.validator.ParseUploadForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if !ctrl.validator.IsValidCSVFile(file) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file type. Only CSV files are allowed"})
		return
	}
	if err := ctrl.validator.ValidateFileSize(file); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	path, err := ctrl.persistUpload(file)
	if err != nil {
		ctrl.logger.Error("Failed to persist upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store uploaded file"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultContextTimeout)
	defer cancel()

	result, err := ctrl.imports.ImportFile(ctx, path, form.Source)
	var parseErr *services.ParseError
	if errors.As(err, &parseErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": parseErr.Error()})
		return
	}
	if err != nil {
		ctrl.logger.Error("Upload import failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Import failed"})
		return
	}

	ctrl.invalidateCache(ctx)
	c.JSON(http.StatusOK, gin.H{
		"status":    "sucesso",
		"resultado": result,
	})
}

// persistUpload writes the multipart file into the watched directory under a
// unique name so it also becomes the newest candidate for later re-imports.
func (ctrl *ImportController) persistUpload(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dir := ctrl.imports.UploadDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.csv", uuid.New().String()))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

func (ctrl *ImportController) invalidateCache(ctx context.Context) {
	if err := ctrl.cache.Invalidate(ctx); err != nil {
		ctrl.logger.Error("Failed to invalidate report cache after import", zap.Error(err))
	}
}
