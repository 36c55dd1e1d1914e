package repository

import (
	"context"
	"errors"

	"nutribunda/internal/models"
	"nutribunda/internal/observability"

	"gorm.io/gorm"
)

// MediaRepository defines persistence operations for uploaded images.
type MediaRepository interface {
	GetByHash(ctx context.Context, hash string) (*models.MediaImage, error)
	Create(ctx context.Context, image *models.MediaImage) error
}

type mediaRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
}

// NewMediaRepository returns a new MediaRepository implementation.
func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepository{db: db, metrics: observability.NewDatabaseMetrics(db)}
}

// GetByHash deduplicates uploads by content hash. Returns (nil, nil) when the
// image has not been seen before.
func (r *mediaRepository) GetByHash(ctx context.Context, hash string) (*models.MediaImage, error) {
	var image models.MediaImage
	if err := r.db.WithContext(ctx).Where("hash = ?", hash).First(&image).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &image, nil
}

func (r *mediaRepository) Create(ctx context.Context, image *models.MediaImage) error {
	defer r.metrics.TrackQuery("insert", "media_images")()
	if err := r.db.WithContext(ctx).Create(image).Error; err != nil {
		if isUniqueConstraintError(err) {
			// Concurrent upload of the same bytes; the row already exists.
			existing, getErr := r.GetByHash(ctx, image.Hash)
			if getErr == nil && existing != nil {
				*image = *existing
				return nil
			}
		}
		return models.NewInternalError(err)
	}
	return nil
}
