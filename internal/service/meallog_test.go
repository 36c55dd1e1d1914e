package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutribunda/internal/models"
)

func mealLogFixture(menu *models.FoodMenu) (*MealLogService, *mealLogRepoStub) {
	menuRepo := noopMenuRepo()
	menuRepo.getByIDFn = func(context.Context, uint) (*models.FoodMenu, error) { return menu, nil }
	mealLogs := noopMealLogRepo()

	svc := NewMealLogService(mealLogs, menuRepo)
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	return svc, mealLogs
}

func TestMealLogService_Create_MenuNotFound(t *testing.T) {
	svc, _ := mealLogFixture(nil)

	_, err := svc.Create(context.Background(), 1, CreateMealLogInput{MenuID: 99, Servings: 1})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeMenuNotFound, appErr.Code)
}

func TestMealLogService_Create_MenuEmpty(t *testing.T) {
	svc, _ := mealLogFixture(&models.FoodMenu{ID: 5, Name: "Kosong", MealType: models.MealTypeLunch})

	_, err := svc.Create(context.Background(), 1, CreateMealLogInput{MenuID: 5, Servings: 1})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeMenuEmpty, appErr.Code)
}

func TestMealLogService_Create_ScalesByServings(t *testing.T) {
	menu := &models.FoodMenu{
		ID: 10, Name: "Oat + Telur", MealType: models.MealTypeBreakfast, ImageURL: "https://cdn.example.com/oat.webp",
		Ingredients: []models.FoodMenuIngredient{
			recComp(recOat, 50),
			recComp(recEgg, 50),
			// Display-only row: no measured weight.
			{IngredientID: recVeg.ID, Ingredient: recVeg, DisplayQuantity: strp("secukupnya")},
		},
	}
	svc, mealLogs := mealLogFixture(menu)

	var saved *models.FoodMealLog
	mealLogs.createFn = func(_ context.Context, log *models.FoodMealLog) error {
		log.ID = 77
		saved = log
		return nil
	}

	entry, err := svc.Create(context.Background(), 4, CreateMealLogInput{MenuID: 10, Servings: 2})

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, uint(4), saved.UserID)
	assert.Equal(t, uint(10), saved.MenuID)
	assert.Equal(t, 544, saved.TotalCalories)
	assert.InDelta(t, 29.9, saved.TotalProteinG, 0.001)
	assert.InDelta(t, 67.4, saved.TotalCarbsG, 0.001)
	assert.InDelta(t, 17.9, saved.TotalFatG, 0.001)
	assert.False(t, saved.IsConsumed)
	assert.Equal(t, time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), saved.LoggedAt)
	require.Len(t, saved.Items, 3)
	assert.InDelta(t, 100.0, saved.Items[0].QuantityG, 0.001)
	assert.Equal(t, 389, saved.Items[0].Calories)
	assert.InDelta(t, 0.0, saved.Items[2].QuantityG, 0.001)
	assert.Equal(t, 0, saved.Items[2].Calories)

	assert.Equal(t, uint(77), entry.MealLogID)
	require.NotNil(t, entry.MenuName)
	assert.Equal(t, "Oat + Telur", *entry.MenuName)
	require.NotNil(t, entry.ImageURL)
	assert.Equal(t, "https://cdn.example.com/oat.webp", *entry.ImageURL)
	assert.Equal(t, "2025-03-10T12:00:00Z", entry.LoggedAt)
	assert.Equal(t, 544, entry.Total.Calories)
	require.Len(t, entry.Items, 3)
	assert.Equal(t, recOat.ID, entry.Items[0].IngredientID)
}

func TestMealLogService_Create_ExplicitLoggedAt(t *testing.T) {
	menu := &models.FoodMenu{
		ID: 10, Name: "Oat", MealType: models.MealTypeBreakfast,
		Ingredients: []models.FoodMenuIngredient{recComp(recOat, 50)},
	}
	svc, mealLogs := mealLogFixture(menu)

	var saved *models.FoodMealLog
	mealLogs.createFn = func(_ context.Context, log *models.FoodMealLog) error {
		saved = log
		return nil
	}

	loggedAt := time.Date(2025, 3, 9, 7, 30, 0, 0, time.UTC)
	entry, err := svc.Create(context.Background(), 1, CreateMealLogInput{
		MenuID: 10, Servings: 1, IsConsumed: true, LoggedAt: &loggedAt,
	})

	require.NoError(t, err)
	assert.Equal(t, loggedAt, saved.LoggedAt)
	assert.True(t, saved.IsConsumed)
	assert.Equal(t, "2025-03-09T07:30:00Z", entry.LoggedAt)
}

func TestMealLogService_List(t *testing.T) {
	svc, mealLogs := mealLogFixture(nil)
	mealLogs.listByUserFn = func(_ context.Context, userID uint, limit int) ([]models.FoodMealLog, error) {
		assert.Equal(t, uint(4), userID)
		assert.Equal(t, 10, limit)
		return []models.FoodMealLog{
			{
				ID: 2, UserID: 4, MenuID: 10,
				TotalCalories: 544, TotalProteinG: 29.9, TotalCarbsG: 67.4, TotalFatG: 17.9,
				Servings: 2, IsConsumed: true,
				LoggedAt: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
				Menu:     models.FoodMenu{ID: 10, Name: "Oat + Telur"},
				Items: []models.FoodMealLogItem{
					{IngredientID: recOat.ID, QuantityG: 100, Calories: 389, ProteinG: 16.9, CarbsG: 66.3, FatG: 6.9},
				},
			},
			// Menu deleted since logging.
			{ID: 1, UserID: 4, MenuID: 9, Servings: 1, LoggedAt: time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)},
		}, nil
	}

	entries, err := svc.List(context.Background(), 4, 10)

	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, uint(2), entries[0].MealLogID)
	require.NotNil(t, entries[0].MenuName)
	assert.Equal(t, "Oat + Telur", *entries[0].MenuName)
	assert.True(t, entries[0].IsConsumed)
	assert.Equal(t, 544, entries[0].Total.Calories)
	require.Len(t, entries[0].Items, 1)
	assert.Equal(t, 389, entries[0].Items[0].Calories)

	assert.Nil(t, entries[1].MenuName)
	assert.Nil(t, entries[1].ImageURL)
	assert.NotNil(t, entries[1].Items)
	assert.Empty(t, entries[1].Items)
}

func TestMealLogService_Consume(t *testing.T) {
	svc, mealLogs := mealLogFixture(nil)

	var gotID, gotUser uint
	mealLogs.markConsumedFn = func(_ context.Context, id, userID uint) (bool, error) {
		gotID, gotUser = id, userID
		return true, nil
	}

	require.NoError(t, svc.Consume(context.Background(), 4, 31))
	assert.Equal(t, uint(31), gotID)
	assert.Equal(t, uint(4), gotUser)
}

func TestMealLogService_Consume_NotFound(t *testing.T) {
	svc, _ := mealLogFixture(nil)

	err := svc.Consume(context.Background(), 4, 31)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
	assert.Equal(t, "Meal log not found or unauthorized", appErr.Message)
}
