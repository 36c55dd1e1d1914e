package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nutribunda/internal/models"
	"nutribunda/internal/repository"
)

// The home screen shows at most five menu cards regardless of the
// options_per_meal knob.
const maxDashboardRecommendations = 5

// DashboardSummary aggregates everything the home screen renders in one call.
type DashboardSummary struct {
	User            DashboardUser             `json:"user"`
	Targets         NutritionTargets          `json:"targets"`
	TodayNutrition  NutritionBreakdown        `json:"today_nutrition"`
	Remaining       NutritionBreakdown        `json:"remaining"`
	Recommendations []DashboardRecommendation `json:"recommendations"`
}

// DashboardUser is the greeting block: display name, role, and the profile
// fields the home screen shows on the summary card.
type DashboardUser struct {
	Name        string               `json:"name"`
	Role        string               `json:"role"`
	Preferences DashboardPreferences `json:"preferences"`
}

type DashboardPreferences struct {
	WeightKg            *float64 `json:"weight_kg"`
	HeightCm            *int     `json:"height_cm"`
	AgeYear             *int     `json:"age_year"`
	AgeMonth            *int     `json:"age_month"`
	LactationPhase      *string  `json:"lactation_phase"`
	LilaCm              *float64 `json:"lila_cm"`
	Hpht                *string  `json:"hpht"`
	GestationalAgeWeeks *int     `json:"gestational_age_weeks"`
	Allergens           []string `json:"allergens"`
	FoodProhibitions    []string `json:"food_prohibitions"`
}

// DashboardRecommendation is one menu card.
type DashboardRecommendation struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Calories    int    `json:"calories"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description"`
}

// DashboardService builds the home screen summary: consumed vs target
// nutrition plus menu suggestions for the meal implied by the clock.
type DashboardService struct {
	preferences repository.PreferenceRepository
	mealLogs    repository.MealLogRepository
	menus       repository.MenuRepository
	users       repository.UserRepository
	now         func() time.Time
}

// NewDashboardService creates a DashboardService.
func NewDashboardService(
	preferences repository.PreferenceRepository,
	mealLogs repository.MealLogRepository,
	menus repository.MenuRepository,
	users repository.UserRepository,
) *DashboardService {
	return &DashboardService{
		preferences: preferences,
		mealLogs:    mealLogs,
		menus:       menus,
		users:       users,
		now:         time.Now,
	}
}

// Summary assembles the dashboard for one user. params carries the same
// tuning knobs as the recommendation endpoint; detection is never applied
// here because the home screen has no scan context.
func (s *DashboardService) Summary(ctx context.Context, userID uint, params RecommendationParams) (*DashboardSummary, error) {
	pref, err := s.preferences.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pref == nil {
		return nil, models.NewPreferenceRequiredError()
	}

	now := s.now()
	targets := CalculateNutritionTargets(pref, now)

	consumed, err := s.mealLogs.SumConsumed(ctx, userID)
	if err != nil {
		return nil, err
	}
	today := NutritionBreakdown{
		Calories: int(consumed.Calories),
		ProteinG: consumed.ProteinG,
		CarbsG:   consumed.CarbsG,
		FatG:     consumed.FatG,
	}
	remaining := NutritionBreakdown{
		Calories: max(0, targets.Calories-today.Calories),
		ProteinG: max(0, targets.ProteinG-today.ProteinG),
		CarbsG:   max(0, targets.CarbsG-today.CarbsG),
		FatG:     max(0, targets.FatG-today.FatG),
	}

	recommendations, err := s.recommendations(ctx, pref, targets, params, currentMealSlot(now))
	if err != nil {
		return nil, err
	}

	user, err := getUserIfExists(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	name := "Bunda"
	if user != nil {
		name = user.Name
	}

	return &DashboardSummary{
		User: DashboardUser{
			Name:        name,
			Role:        pref.Role,
			Preferences: dashboardPreferences(pref, now),
		},
		Targets:         targets,
		TodayNutrition:  today,
		Remaining:       remaining,
		Recommendations: recommendations,
	}, nil
}

// recommendations scores the active menus against the caller's targets and
// returns cards for the current meal slot, falling back to the first slot
// that has any eligible menu.
func (s *DashboardService) recommendations(ctx context.Context, pref *models.UserPreference, targets NutritionTargets, params RecommendationParams, slot string) ([]DashboardRecommendation, error) {
	menus, err := s.menus.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	params = params.normalized()
	requireDetected := false
	if params.RequireDetected != nil {
		requireDetected = *params.RequireDetected
	}
	boostByQuantity := true
	if params.BoostByQuantity != nil {
		boostByQuantity = *params.BoostByQuantity
	}

	builder := &planBuilder{
		menus:           menus,
		targets:         targets,
		avoid:           avoidTerms(pref),
		detected:        map[uint]bool{},
		used:            map[uint]bool{},
		requireDetected: requireDetected,
		boostByQuantity: boostByQuantity,
		params:          params,
	}

	mealTypes := models.MealTypes
	if mt := strings.ToUpper(strings.TrimSpace(params.MealType)); models.IsValidMealType(mt) {
		mealTypes = []string{mt}
	}

	var pool []scoredMenu
	var poolSlot string
	for _, mealType := range mealTypes {
		candidates := builder.mealPool(mealType)
		if len(candidates) == 0 {
			continue
		}
		if pool == nil {
			pool, poolSlot = candidates, mealType
		}
		if mealType == slot {
			pool, poolSlot = candidates, mealType
			break
		}
	}

	limit := min(params.OptionsPerMeal, maxDashboardRecommendations)
	cards := []DashboardRecommendation{}
	for i, sm := range pool {
		if i >= limit {
			break
		}
		cards = append(cards, DashboardRecommendation{
			ID:          sm.menu.ID,
			Name:        sm.menu.Name,
			Calories:    sm.nutrition.Calories,
			ImageURL:    menuCardImage(sm.menu),
			Description: "Target: " + capitalizeSlot(poolSlot),
		})
	}
	return cards, nil
}

// currentMealSlot maps the WIB wall clock to the meal being planned for.
// Late night rolls over to the next dinner.
func currentMealSlot(now time.Time) string {
	hour := (now.UTC().Hour() + 7) % 24
	switch {
	case hour >= 10 && hour < 15:
		return models.MealTypeLunch
	case hour >= 15 && hour < 21:
		return models.MealTypeDinner
	case hour >= 21 || hour < 4:
		return models.MealTypeDinner
	default:
		return models.MealTypeBreakfast
	}
}

// menuCardImage prefers the stored menu photo and falls back to a stable
// placeholder keyed by menu id.
func menuCardImage(menu *models.FoodMenu) string {
	if menu.ImageURL != "" {
		return menu.ImageURL
	}
	return fmt.Sprintf("https://picsum.photos/seed/%d/200", menu.ID)
}

func capitalizeSlot(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func dashboardPreferences(pref *models.UserPreference, now time.Time) DashboardPreferences {
	weight := pref.WeightKg
	if weight != nil && *weight == 0 {
		// zero reads as "not filled in" on the profile card
		weight = nil
	}
	return DashboardPreferences{
		WeightKg:            weight,
		HeightCm:            pref.HeightCm,
		AgeYear:             pref.AgeYear,
		AgeMonth:            pref.AgeMonth,
		LactationPhase:      pref.LactationPhase,
		LilaCm:              pref.LilaCm,
		Hpht:                pref.HphtString(),
		GestationalAgeWeeks: pref.GestationalAgeWeeks(now),
		Allergens:           append([]string{}, pref.Allergens...),
		FoodProhibitions:    append([]string{}, pref.FoodProhibitions...),
	}
}
