package repository

import (
	"context"
	"time"

	"nutribunda/internal/models"
	"nutribunda/internal/observability"

	"gorm.io/gorm"
)

// FoodLogRepository defines persistence operations for per-ingredient logs.
type FoodLogRepository interface {
	CreateBatch(ctx context.Context, logs []models.FoodLog) (int, error)
	ListByUser(ctx context.Context, userID uint, limit int, since *time.Time) ([]models.FoodLog, error)
}

type foodLogRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
}

// NewFoodLogRepository returns a new FoodLogRepository implementation.
func NewFoodLogRepository(db *gorm.DB) FoodLogRepository {
	return &foodLogRepository{db: db, metrics: observability.NewDatabaseMetrics(db)}
}

func (r *foodLogRepository) CreateBatch(ctx context.Context, logs []models.FoodLog) (int, error) {
	if len(logs) == 0 {
		return 0, nil
	}
	defer r.metrics.TrackQuery("insert", "food_logs")()
	if err := r.db.WithContext(ctx).Create(&logs).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return len(logs), nil
}

func (r *foodLogRepository) ListByUser(ctx context.Context, userID uint, limit int, since *time.Time) ([]models.FoodLog, error) {
	limit = clampLimit(limit, 10, 100)

	query := r.db.WithContext(ctx).
		Preload("Ingredient").
		Where("user_id = ?", userID)
	if since != nil {
		query = query.Where("logged_at >= ?", *since)
	}

	var logs []models.FoodLog
	defer r.metrics.TrackQuery("select", "food_logs")()
	if err := query.Order("logged_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return logs, nil
}
