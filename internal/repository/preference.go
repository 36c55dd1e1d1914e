package repository

import (
	"context"
	"errors"

	"nutribunda/internal/cache"
	"nutribunda/internal/models"
	"nutribunda/internal/observability"

	"gorm.io/gorm"
)

// PreferenceRepository defines persistence operations for user preferences.
type PreferenceRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*models.UserPreference, error)
	Upsert(ctx context.Context, pref *models.UserPreference) error
	Exists(ctx context.Context, userID uint) (bool, error)
}

type preferenceRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
}

// NewPreferenceRepository returns a new PreferenceRepository implementation.
func NewPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &preferenceRepository{db: db, metrics: observability.NewDatabaseMetrics(db)}
}

// GetByUserID returns (nil, nil) when no preference row exists. Only hits are
// cached; caching the miss would make the preference gate report a row that
// was never written.
func (r *preferenceRepository) GetByUserID(ctx context.Context, userID uint) (*models.UserPreference, error) {
	var pref models.UserPreference
	key := cache.PreferenceKey(userID)

	if found, err := cache.GetJSON(ctx, key, &pref); err == nil && found {
		return &pref, nil
	}

	defer r.metrics.TrackQuery("select", "user_preferences")()
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}

	_ = cache.SetJSON(ctx, key, &pref, cache.PreferenceTTL)
	return &pref, nil
}

func (r *preferenceRepository) Upsert(ctx context.Context, pref *models.UserPreference) error {
	defer r.metrics.TrackQuery("upsert", "user_preferences")()
	if err := r.db.WithContext(ctx).Save(pref).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUserNutrition(ctx, pref.UserID)
	return nil
}

func (r *preferenceRepository) Exists(ctx context.Context, userID uint) (bool, error) {
	pref, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return false, err
	}
	return pref != nil, nil
}
