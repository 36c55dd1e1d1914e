package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutribunda/internal/models"
)

var (
	recChicken = models.FoodIngredient{ID: 1, Name: "Dada ayam", AltNames: "chicken breast", Calories: 165, ProteinG: 31, CarbsG: 0, FatG: 3.6}
	recOat     = models.FoodIngredient{ID: 4, Name: "Oat", AltNames: "oatmeal", Calories: 389, ProteinG: 16.9, CarbsG: 66.3, FatG: 6.9}
	recEgg     = models.FoodIngredient{ID: 5, Name: "Telur", AltNames: "egg", Calories: 155, ProteinG: 13, CarbsG: 1.1, FatG: 11}
	recBanana  = models.FoodIngredient{ID: 6, Name: "Pisang", AltNames: "banana", Calories: 89, ProteinG: 1.1, CarbsG: 22.8, FatG: 0.3}
	recRice    = models.FoodIngredient{ID: 7, Name: "Nasi putih", AltNames: "rice", Calories: 130, ProteinG: 2.7, CarbsG: 28, FatG: 0.3}
	recVeg     = models.FoodIngredient{ID: 8, Name: "Sayur campur", AltNames: "mixed vegetables", Calories: 40, ProteinG: 2, CarbsG: 7, FatG: 0.3}
)

func recComp(ing models.FoodIngredient, qty float64) models.FoodMenuIngredient {
	return models.FoodMenuIngredient{IngredientID: ing.ID, QuantityG: floatp(qty), Ingredient: ing}
}

func recMenu(id uint, name, mealType, tags string, comps ...models.FoodMenuIngredient) models.FoodMenu {
	return models.FoodMenu{ID: id, Name: name, MealType: mealType, Tags: tags, IsActive: true, Ingredients: comps}
}

func oatBreakfast() models.FoodMenu {
	return recMenu(10, "Oat + Telur + Pisang", models.MealTypeBreakfast, "",
		recComp(recOat, 60), recComp(recEgg, 50), recComp(recBanana, 100))
}

func chickenPorridge() models.FoodMenu {
	return recMenu(11, "Bubur ayam", models.MealTypeBreakfast, "",
		recComp(recRice, 200), recComp(recChicken, 60))
}

func chickenLunch() models.FoodMenu {
	return recMenu(12, "Nasi + Ayam + Sayur", models.MealTypeLunch, "",
		recComp(recRice, 200), recComp(recChicken, 120), recComp(recVeg, 100))
}

func pregnantPreference() *models.UserPreference {
	return &models.UserPreference{
		UserID:   1,
		Role:     models.RolePregnant,
		WeightKg: floatp(55),
		HeightCm: intp(159),
		AgeYear:  intp(25),
	}
}

func recommendationFixture(pref *models.UserPreference, menus ...models.FoodMenu) *RecommendationService {
	menuRepo := noopMenuRepo()
	menuRepo.listActiveFn = func(context.Context) ([]models.FoodMenu, error) { return menus, nil }
	prefRepo := noopPreferenceRepo()
	prefRepo.getByUserIDFn = func(context.Context, uint) (*models.UserPreference, error) { return pref, nil }

	svc := NewRecommendationService(menuRepo, prefRepo)
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	return svc
}

func defaultParams(days int) RecommendationParams {
	return RecommendationParams{
		Days:           days,
		OptionsPerMeal: DefaultOptionsPerMeal,
		BoostPerHit:    DefaultBoostPerHit,
		BoostPer100G:   DefaultBoostPer100G,
		MinHits:        DefaultMinHits,
	}
}

func TestRecommendationService_Recommend_RequiresPreference(t *testing.T) {
	svc := recommendationFixture(nil, oatBreakfast())

	_, err := svc.Recommend(context.Background(), 1, defaultParams(1))

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodePreferenceRequired, appErr.Code)
}

func TestRecommendationService_Recommend_HybridShape(t *testing.T) {
	svc := recommendationFixture(pregnantPreference(), oatBreakfast(), chickenPorridge(), chickenLunch())

	params := defaultParams(1)
	params.OptionsPerMeal = 2
	plan, err := svc.Recommend(context.Background(), 1, params)

	require.NoError(t, err)
	assert.Equal(t, uint(1), plan.UserID)
	assert.Equal(t, "2025-03-10", plan.StartDate)
	require.Len(t, plan.Days, 1)

	day := plan.Days[0]
	assert.Equal(t, "2025-03-10", day.Date)
	require.NotNil(t, day.DailyTarget.BMI)
	assert.InDelta(t, 21.8, *day.DailyTarget.BMI, 0.001)

	// Two breakfast menus and one lunch menu: a pick and an options block
	// for each slot with candidates, nothing for dinner.
	require.Len(t, day.Meals, 4)

	breakfast, ok := day.Meals[0].(MealPick)
	require.True(t, ok)
	assert.Equal(t, models.MealTypeBreakfast, breakfast.MealType)
	assert.Equal(t, "Oat + Telur + Pisang", breakfast.MenuName)
	require.Len(t, breakfast.Ingredients, 3)

	breakfastOptions, ok := day.Meals[1].(MealOptions)
	require.True(t, ok)
	assert.Equal(t, models.MealTypeBreakfast, breakfastOptions.MealType)
	require.Len(t, breakfastOptions.Options, 2)
	// The best pick leads its own options block.
	assert.Equal(t, breakfast.MenuID, breakfastOptions.Options[0].MenuID)
	assert.LessOrEqual(t, breakfastOptions.Options[0].Score, breakfastOptions.Options[1].Score)
	for _, option := range breakfastOptions.Options {
		require.NotEmpty(t, option.FoodLogPayload.Items)
		assert.Equal(t, option.Ingredients[0].IngredientID, option.FoodLogPayload.Items[0].IngredientID)
		assert.Equal(t, option.Ingredients[0].QuantityG, option.FoodLogPayload.Items[0].QuantityG)
	}

	lunch, ok := day.Meals[2].(MealPick)
	require.True(t, ok)
	assert.Equal(t, models.MealTypeLunch, lunch.MealType)

	lunchOptions, ok := day.Meals[3].(MealOptions)
	require.True(t, ok)
	require.Len(t, lunchOptions.Options, 1)

	wantSummary := breakfast.Nutrition
	wantSummary.add(lunch.Nutrition)
	assert.Equal(t, wantSummary, day.Summary)
}

func TestRecommendationService_Recommend_RotatesAcrossDays(t *testing.T) {
	svc := recommendationFixture(pregnantPreference(), oatBreakfast(), chickenPorridge())

	plan, err := svc.Recommend(context.Background(), 1, defaultParams(2))

	require.NoError(t, err)
	require.Len(t, plan.Days, 2)
	assert.Equal(t, "2025-03-11", plan.Days[1].Date)

	first, ok := plan.Days[0].Meals[0].(MealPick)
	require.True(t, ok)
	second, ok := plan.Days[1].Meals[0].(MealPick)
	require.True(t, ok)
	assert.NotEqual(t, first.MenuID, second.MenuID)

	// Day two's pool no longer contains day one's pick.
	secondOptions, ok := plan.Days[1].Meals[1].(MealOptions)
	require.True(t, ok)
	require.Len(t, secondOptions.Options, 1)
	assert.Equal(t, second.MenuID, secondOptions.Options[0].MenuID)
}

func TestRecommendationService_Recommend_FiltersAvoidedFoods(t *testing.T) {
	pref := pregnantPreference()
	pref.Allergens = models.StringList{"ayam"}
	pref.FoodProhibitions = models.StringList{"dairy", "  "}

	taggedLunch := recMenu(13, "Sup krim", models.MealTypeLunch, "halal,dairy", recComp(recVeg, 150))
	svc := recommendationFixture(pref, oatBreakfast(), chickenPorridge(), chickenLunch(), taggedLunch)

	plan, err := svc.Recommend(context.Background(), 1, defaultParams(1))

	require.NoError(t, err)
	require.Len(t, plan.Days, 1)

	// "ayam" removes both chicken menus through ingredient names, "dairy"
	// removes the tagged lunch, so only the oat breakfast survives.
	require.Len(t, plan.Days[0].Meals, 2)
	pick, ok := plan.Days[0].Meals[0].(MealPick)
	require.True(t, ok)
	assert.Equal(t, "Oat + Telur + Pisang", pick.MenuName)
}

func TestRecommendationService_Recommend_DetectionBoost(t *testing.T) {
	pref := pregnantPreference()

	t.Run("detected ids restrict the pool by default", func(t *testing.T) {
		svc := recommendationFixture(pref, oatBreakfast(), chickenPorridge())

		params := defaultParams(1)
		params.DetectedIDs = []uint{recChicken.ID}
		plan, err := svc.Recommend(context.Background(), 1, params)

		require.NoError(t, err)
		options, ok := plan.Days[0].Meals[1].(MealOptions)
		require.True(t, ok)
		require.Len(t, options.Options, 1)
		assert.Equal(t, "Bubur ayam", options.Options[0].MenuName)
	})

	t.Run("boost moves a hit menu ahead without restricting", func(t *testing.T) {
		svc := recommendationFixture(pref, oatBreakfast(), chickenPorridge())

		params := defaultParams(1)
		params.OptionsPerMeal = 2
		params.DetectedIDs = []uint{recChicken.ID}
		requireDetected := false
		params.RequireDetected = &requireDetected
		plan, err := svc.Recommend(context.Background(), 1, params)

		require.NoError(t, err)
		pick, ok := plan.Days[0].Meals[0].(MealPick)
		require.True(t, ok)
		assert.Equal(t, "Bubur ayam", pick.MenuName)

		options, ok := plan.Days[0].Meals[1].(MealOptions)
		require.True(t, ok)
		require.Len(t, options.Options, 2)
		assert.Less(t, options.Options[0].Score, options.Options[1].Score)
	})

	t.Run("zero boost leaves the base order", func(t *testing.T) {
		svc := recommendationFixture(pref, oatBreakfast(), chickenPorridge())

		params := defaultParams(1)
		params.DetectedIDs = []uint{recChicken.ID}
		requireDetected := false
		params.RequireDetected = &requireDetected
		boostByQuantity := false
		params.BoostByQuantity = &boostByQuantity
		params.BoostPerHit = 0
		plan, err := svc.Recommend(context.Background(), 1, params)

		require.NoError(t, err)
		pick, ok := plan.Days[0].Meals[0].(MealPick)
		require.True(t, ok)
		assert.Equal(t, "Oat + Telur + Pisang", pick.MenuName)
	})
}

func TestRecommendationService_Recommend_MealTypeFilter(t *testing.T) {
	svc := recommendationFixture(pregnantPreference(), oatBreakfast(), chickenLunch())

	params := defaultParams(1)
	params.MealType = "lunch"
	plan, err := svc.Recommend(context.Background(), 1, params)

	require.NoError(t, err)
	require.Len(t, plan.Days[0].Meals, 2)
	pick, ok := plan.Days[0].Meals[0].(MealPick)
	require.True(t, ok)
	assert.Equal(t, models.MealTypeLunch, pick.MealType)
}

func TestRecommendationService_Recommend_TieBreaksByName(t *testing.T) {
	zuppa := recMenu(20, "Zuppa telur", models.MealTypeBreakfast, "", recComp(recEgg, 50))
	apple := recMenu(21, "Apel telur", models.MealTypeBreakfast, "", recComp(recEgg, 50))
	svc := recommendationFixture(pregnantPreference(), zuppa, apple)

	plan, err := svc.Recommend(context.Background(), 1, defaultParams(1))

	require.NoError(t, err)
	pick, ok := plan.Days[0].Meals[0].(MealPick)
	require.True(t, ok)
	assert.Equal(t, "Apel telur", pick.MenuName)
}

func TestRecommendationService_Plan_PicksOnly(t *testing.T) {
	svc := recommendationFixture(pregnantPreference(), oatBreakfast(), chickenPorridge(), chickenLunch())

	plan, err := svc.Plan(context.Background(), 1, 2)

	require.NoError(t, err)
	require.Len(t, plan.Days, 2)
	for _, day := range plan.Days {
		for _, block := range day.Meals {
			_, isPick := block.(MealPick)
			assert.True(t, isPick, "plan days must contain picks only")
		}
	}

	empty, err := svc.Plan(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.NotNil(t, empty.Days)
	assert.Empty(t, empty.Days)
}

func TestRecommendationParams_Normalized(t *testing.T) {
	p := RecommendationParams{OptionsPerMeal: 99, BoostPerHit: -5, BoostPer100G: 20000, MinHits: 0}.normalized()

	assert.Equal(t, maxOptionsPerMeal, p.OptionsPerMeal)
	assert.Equal(t, 0, p.BoostPerHit)
	assert.Equal(t, maxBoostPer100G, p.BoostPer100G)
	assert.Equal(t, 1, p.MinHits)
}
