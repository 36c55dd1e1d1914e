package service

import (
	"context"
	"time"

	"nutribunda/internal/models"
	"nutribunda/internal/repository"
)

// CreateMealLogInput carries the request body for logging a whole menu.
// LoggedAt nil means "now"; Servings is already defaulted to 1 by the
// handler when the field is omitted.
type CreateMealLogInput struct {
	MenuID     uint
	Servings   float64
	IsConsumed bool
	LoggedAt   *time.Time
}

// MealLogItemEntry is one ingredient line of a meal log response.
type MealLogItemEntry struct {
	IngredientID uint    `json:"ingredient_id"`
	QuantityG    float64 `json:"quantity_g"`
	Calories     int     `json:"calories"`
	ProteinG     float64 `json:"protein_g"`
	CarbsG       float64 `json:"carbs_g"`
	FatG         float64 `json:"fat_g"`
}

// MealLogEntry is the response shape shared by create and list. MenuName and
// ImageURL are null when the menu has since been deleted.
type MealLogEntry struct {
	MealLogID  uint               `json:"meal_log_id"`
	MenuID     uint               `json:"menu_id"`
	MenuName   *string            `json:"menu_name"`
	ImageURL   *string            `json:"image_url"`
	Servings   float64            `json:"servings"`
	IsConsumed bool               `json:"is_consumed"`
	LoggedAt   string             `json:"logged_at"`
	Total      NutritionBreakdown `json:"total"`
	Items      []MealLogItemEntry `json:"items"`
}

// MealLogService logs whole menus against a user, freezing the nutrition
// totals at log time.
type MealLogService struct {
	mealLogs repository.MealLogRepository
	menus    repository.MenuRepository
	now      func() time.Time
}

func NewMealLogService(mealLogs repository.MealLogRepository, menus repository.MenuRepository) *MealLogService {
	return &MealLogService{
		mealLogs: mealLogs,
		menus:    menus,
		now:      time.Now,
	}
}

// Create logs one menu. Each composition row is scaled by servings;
// compositions whose ingredient row is gone are skipped, and rows without a
// measured quantity are recorded at 0 g.
func (s *MealLogService) Create(ctx context.Context, userID uint, input CreateMealLogInput) (*MealLogEntry, error) {
	menu, err := s.menus.GetByID(ctx, input.MenuID)
	if err != nil {
		return nil, err
	}
	if menu == nil {
		return nil, models.NewMenuNotFoundError()
	}
	if len(menu.Ingredients) == 0 {
		return nil, models.NewMenuEmptyError()
	}

	loggedAt := s.now().UTC()
	if input.LoggedAt != nil {
		loggedAt = input.LoggedAt.UTC()
	}

	var total NutritionBreakdown
	items := make([]models.FoodMealLogItem, 0, len(menu.Ingredients))
	for _, comp := range menu.Ingredients {
		if comp.Ingredient.ID == 0 {
			continue
		}
		qty := 0.0
		if comp.QuantityG != nil {
			qty = *comp.QuantityG
		}
		qty *= input.Servings
		nutrition := nutritionAt(&comp.Ingredient, qty)
		total.add(nutrition)
		items = append(items, models.FoodMealLogItem{
			IngredientID: comp.IngredientID,
			QuantityG:    qty,
			Calories:     nutrition.Calories,
			ProteinG:     nutrition.ProteinG,
			CarbsG:       nutrition.CarbsG,
			FatG:         nutrition.FatG,
		})
	}

	log := &models.FoodMealLog{
		UserID:        userID,
		MenuID:        menu.ID,
		TotalCalories: total.Calories,
		TotalProteinG: total.ProteinG,
		TotalCarbsG:   total.CarbsG,
		TotalFatG:     total.FatG,
		Servings:      input.Servings,
		IsConsumed:    input.IsConsumed,
		LoggedAt:      loggedAt,
		Items:         items,
	}
	if err := s.mealLogs.Create(ctx, log); err != nil {
		return nil, err
	}

	// Attach the menu after the insert so the association is not re-saved.
	log.Menu = *menu
	entry := mealLogEntryFrom(log)
	return &entry, nil
}

// List returns the user's meal logs, newest first.
func (s *MealLogService) List(ctx context.Context, userID uint, limit int) ([]MealLogEntry, error) {
	logs, err := s.mealLogs.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]MealLogEntry, 0, len(logs))
	for i := range logs {
		entries = append(entries, mealLogEntryFrom(&logs[i]))
	}
	return entries, nil
}

// Consume marks the user's own meal log as eaten.
func (s *MealLogService) Consume(ctx context.Context, userID, mealLogID uint) error {
	ok, err := s.mealLogs.MarkConsumed(ctx, mealLogID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return &models.AppError{Code: models.CodeNotFound, Message: "Meal log not found or unauthorized"}
	}
	return nil
}

func mealLogEntryFrom(log *models.FoodMealLog) MealLogEntry {
	entry := MealLogEntry{
		MealLogID:  log.ID,
		MenuID:     log.MenuID,
		Servings:   log.Servings,
		IsConsumed: log.IsConsumed,
		LoggedAt:   log.LoggedAt.UTC().Format(time.RFC3339),
		Total: NutritionBreakdown{
			Calories: log.TotalCalories,
			ProteinG: log.TotalProteinG,
			CarbsG:   log.TotalCarbsG,
			FatG:     log.TotalFatG,
		},
		Items: make([]MealLogItemEntry, 0, len(log.Items)),
	}
	if log.Menu.ID != 0 {
		entry.MenuName = &log.Menu.Name
		entry.ImageURL = &log.Menu.ImageURL
	}
	for _, item := range log.Items {
		entry.Items = append(entry.Items, MealLogItemEntry{
			IngredientID: item.IngredientID,
			QuantityG:    item.QuantityG,
			Calories:     item.Calories,
			ProteinG:     item.ProteinG,
			CarbsG:       item.CarbsG,
			FatG:         item.FatG,
		})
	}
	return entry
}
