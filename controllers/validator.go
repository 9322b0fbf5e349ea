package controllers

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/WilliamGeraldoBueno/ml-inventory-sales/models"
)

const (
	MaxUploadSize         = 20 * 1024 * 1024 // 20MB
	DefaultContextTimeout = 30 * time.Second
)

var allowedCSVExtensions = map[string]bool{
	".csv": true,
}

// RequestValidator handles all input validation for the import endpoints.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// IsValidCSVFile checks the uploaded file extension.
func (rv *RequestValidator) IsValidCSVFile(file *multipart.FileHeader) bool {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	return allowedCSVExtensions[ext]
}

// ValidateFileSize rejects uploads above the size limit.
func (rv *RequestValidator) ValidateFileSize(file *multipart.FileHeader) error {
	if file.Size > MaxUploadSize {
		return fmt.Errorf("file too large: %d bytes (max %d)", file.Size, MaxUploadSize)
	}
	if file.Size == 0 {
		return fmt.Errorf("file is empty")
	}
	return nil
}

// ParseUploadForm binds and validates the optional upload metadata.
func (rv *RequestValidator) ParseUploadForm(c *gin.Context) (*models.UploadForm, error) {
	form := &models.UploadForm{}
	if err := c.ShouldBind(form); err != nil {
		return nil, fmt.Errorf("invalid form data: %w", err)
	}
	if err := rv.validate.Struct(form); err != nil {
		return nil, fmt.Errorf("invalid source: must be one of manual, scheduled, wms")
	}
	return form, nil
}
