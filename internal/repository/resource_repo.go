package repository

import (
	"context"

	"github.com/Eursukkul/studio-booking/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResourceRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Resource, error)
	FindActiveByInstrument(ctx context.Context, instrument string) ([]models.Resource, error)
	// Upsert inserts the resource or overwrites the row with the same ID.
	Upsert(ctx context.Context, resource *models.Resource) error
}

type resourceRepository struct {
	db *gorm.DB
}

func NewResourceRepository(db *gorm.DB) ResourceRepository {
	return &resourceRepository{db: db}
}

func (r *resourceRepository) FindByID(ctx context.Context, id uint) (*models.Resource, error) {
	var resource models.Resource
	if err := r.db.WithContext(ctx).First(&resource, id).Error; err != nil {
		return nil, err
	}
	return &resource, nil
}

func (r *resourceRepository) FindActiveByInstrument(ctx context.Context, instrument string) ([]models.Resource, error) {
	var resources []models.Resource
	err := r.db.WithContext(ctx).
		Where("instrument = ? AND active = ?", instrument, true).
		Order("name ASC, id ASC").
		Find(&resources).Error
	if err != nil {
		return nil, err
	}
	return resources, nil
}

func (r *resourceRepository) Upsert(ctx context.Context, resource *models.Resource) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "instrument", "venue", "price_per_hour", "active", "updated_at"}),
	}).Create(resource).Error
}
