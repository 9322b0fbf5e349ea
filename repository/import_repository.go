package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/WilliamGeraldoBueno/ml-inventory-sales/models"
)

// ImportRepository defines the interface for import history persistence.
type ImportRepository interface {
	Create(ctx context.Context, rec *models.ImportRecord) error
	Update(ctx context.Context, rec *models.ImportRecord) error
	FindRecent(ctx context.Context, limit int) ([]models.ImportRecord, error)
}

// GormImportRepository implements ImportRepository using GORM/Postgres.
type GormImportRepository struct {
	db *gorm.DB
}

// NewGormImportRepository creates a new Postgres backed import repository.
func NewGormImportRepository(db *gorm.DB) *GormImportRepository {
	return &GormImportRepository{db: db}
}

func (r *GormImportRepository) Create(ctx context.Context, rec *models.ImportRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *GormImportRepository) Update(ctx context.Context, rec *models.ImportRecord) error {
	return r.db.WithContext(ctx).Save(rec).Error
}

func (r *GormImportRepository) FindRecent(ctx context.Context, limit int) ([]models.ImportRecord, error) {
	var recs []models.ImportRecord
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// NoopImportRepository is used when Postgres is not configured. Import
// history is then visible only in the logs.
type NoopImportRepository struct{}

func NewNoopImportRepository() *NoopImportRepository { return &NoopImportRepository{} }

func (NoopImportRepository) Create(context.Context, *models.ImportRecord) error { return nil }
func (NoopImportRepository) Update(context.Context, *models.ImportRecord) error { return nil }
func (NoopImportRepository) FindRecent(context.Context, int) ([]models.ImportRecord, error) {
	return nil, nil
}
