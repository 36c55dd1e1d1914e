package service

import (
	"context"
	"time"

	"nutribunda/internal/models"
	"nutribunda/internal/repository"
)

// FoodLogItemInput is one ingredient portion to log. QuantityG nil means the
// 100 g default; SourceMenuID records the recommending menu when the entry
// came from a one-tap food_log_payload.
type FoodLogItemInput struct {
	IngredientID uint
	QuantityG    *float64
	LoggedAt     *time.Time
	SourceMenuID *uint
}

// FoodLogItem is one row of the food log listing, with nutrition computed at
// the logged quantity.
type FoodLogItem struct {
	ID             uint    `json:"id"`
	IngredientID   uint    `json:"ingredient_id"`
	IngredientName string  `json:"ingredient_name"`
	QuantityG      float64 `json:"quantity_g"`
	Calories       int     `json:"calories"`
	ProteinG       float64 `json:"protein_g"`
	CarbsG         float64 `json:"carbs_g"`
	FatG           float64 `json:"fat_g"`
	SourceMenuID   *uint   `json:"source_menu_id"`
	LoggedAt       string  `json:"logged_at"`
}

// FoodLogService records and lists per-ingredient food logs.
type FoodLogService struct {
	foodLogs repository.FoodLogRepository
	now      func() time.Time
}

func NewFoodLogService(foodLogs repository.FoodLogRepository) *FoodLogService {
	return &FoodLogService{foodLogs: foodLogs, now: time.Now}
}

// Create logs a batch of ingredient portions and returns how many were
// written. Entries without an ingredient id are skipped rather than failing
// the batch.
func (s *FoodLogService) Create(ctx context.Context, userID uint, items []FoodLogItemInput) (int, error) {
	if len(items) == 0 {
		return 0, models.NewValidationError("items array required")
	}

	now := s.now().UTC()
	logs := make([]models.FoodLog, 0, len(items))
	for _, item := range items {
		if item.IngredientID == 0 {
			continue
		}
		qty := 100.0
		if item.QuantityG != nil {
			qty = *item.QuantityG
		}
		loggedAt := now
		if item.LoggedAt != nil {
			loggedAt = item.LoggedAt.UTC()
		}
		logs = append(logs, models.FoodLog{
			UserID:       userID,
			IngredientID: item.IngredientID,
			QuantityG:    qty,
			SourceMenuID: item.SourceMenuID,
			LoggedAt:     loggedAt,
		})
	}

	return s.foodLogs.CreateBatch(ctx, logs)
}

// List returns the user's food logs newest first. Rows whose ingredient has
// been deleted are dropped from the response.
func (s *FoodLogService) List(ctx context.Context, userID uint, limit int, since *time.Time) ([]FoodLogItem, error) {
	logs, err := s.foodLogs.ListByUser(ctx, userID, limit, since)
	if err != nil {
		return nil, err
	}

	items := make([]FoodLogItem, 0, len(logs))
	for i := range logs {
		log := &logs[i]
		if log.Ingredient.ID == 0 {
			continue
		}
		nutrition := nutritionAt(&log.Ingredient, log.QuantityG)
		items = append(items, FoodLogItem{
			ID:             log.ID,
			IngredientID:   log.Ingredient.ID,
			IngredientName: log.Ingredient.Name,
			QuantityG:      log.QuantityG,
			Calories:       nutrition.Calories,
			ProteinG:       nutrition.ProteinG,
			CarbsG:         nutrition.CarbsG,
			FatG:           nutrition.FatG,
			SourceMenuID:   log.SourceMenuID,
			LoggedAt:       log.LoggedAt.UTC().Format(time.RFC3339),
		})
	}
	return items, nil
}
