package repository

import (
	"context"

	"nutribunda/internal/models"
	"nutribunda/internal/observability"

	"gorm.io/gorm"
)

// ConsumedTotals is the nutrition sum over a user's consumed meal logs.
type ConsumedTotals struct {
	Calories int64   `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// MealLogRepository defines persistence operations for whole-menu meal logs.
type MealLogRepository interface {
	Create(ctx context.Context, log *models.FoodMealLog) error
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.FoodMealLog, error)
	MarkConsumed(ctx context.Context, id, userID uint) (bool, error)
	SumConsumed(ctx context.Context, userID uint) (ConsumedTotals, error)
}

type mealLogRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
}

// NewMealLogRepository returns a new MealLogRepository implementation.
func NewMealLogRepository(db *gorm.DB) MealLogRepository {
	return &mealLogRepository{db: db, metrics: observability.NewDatabaseMetrics(db)}
}

// Create persists the log together with its item rows in one transaction.
func (r *mealLogRepository) Create(ctx context.Context, log *models.FoodMealLog) error {
	defer r.metrics.TrackQuery("insert", "food_meal_logs")()
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return models.NewInternalError(err)
	}
	observability.MealLogsCreated.Inc()
	return nil
}

func (r *mealLogRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.FoodMealLog, error) {
	limit = clampLimit(limit, 10, 100)

	var logs []models.FoodMealLog
	defer r.metrics.TrackQuery("select", "food_meal_logs")()
	err := r.db.WithContext(ctx).
		Preload("Menu").
		Preload("Items").
		Where("user_id = ?", userID).
		Order("logged_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return logs, nil
}

// MarkConsumed flips is_consumed for the user's own log. Returns false when
// no row matched, so ownership failures are indistinguishable from missing
// logs.
func (r *mealLogRepository) MarkConsumed(ctx context.Context, id, userID uint) (bool, error) {
	defer r.metrics.TrackQuery("update", "food_meal_logs")()
	result := r.db.WithContext(ctx).Model(&models.FoodMealLog{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_consumed", true)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *mealLogRepository) SumConsumed(ctx context.Context, userID uint) (ConsumedTotals, error) {
	var totals ConsumedTotals
	defer r.metrics.TrackQuery("select", "food_meal_logs")()
	err := r.db.WithContext(ctx).Model(&models.FoodMealLog{}).
		Select("COALESCE(SUM(total_calories), 0) AS calories, COALESCE(SUM(total_protein_g), 0) AS protein_g, COALESCE(SUM(total_carbs_g), 0) AS carbs_g, COALESCE(SUM(total_fat_g), 0) AS fat_g").
		Where("user_id = ? AND is_consumed = ?", userID, true).
		Scan(&totals).Error
	if err != nil {
		return ConsumedTotals{}, models.NewInternalError(err)
	}
	return totals, nil
}
