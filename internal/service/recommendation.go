package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"nutribunda/internal/models"
	"nutribunda/internal/observability"
	"nutribunda/internal/repository"
)

// Tuning knobs for the recommendation engine. Callers pass explicit values
// (query parameters fall back to these defaults); out-of-range values are
// clamped rather than rejected.
const (
	DefaultPlanDays       = 7
	DefaultOptionsPerMeal = 3
	DefaultBoostPerHit    = 400
	DefaultBoostPer100G   = 5
	DefaultMinHits        = 1

	maxOptionsPerMeal = 10
	maxBoostPerHit    = 1000
	maxBoostPer100G   = 10000
	maxMinHits        = 10
)

// dateLayout formats plan and dashboard dates.
const dateLayout = "2006-01-02"

// RecommendationParams carries the request knobs for a recommendation run.
// RequireDetected and BoostByQuantity are tri-state: nil means "use the
// default", which for RequireDetected depends on whether any ingredients
// were detected.
type RecommendationParams struct {
	Days            int
	OptionsPerMeal  int
	BoostPerHit     int
	BoostPer100G    int
	MinHits         int
	MealType        string
	DetectedIDs     []uint
	RequireDetected *bool
	BoostByQuantity *bool
}

func (p RecommendationParams) normalized() RecommendationParams {
	p.OptionsPerMeal = clampInt(p.OptionsPerMeal, 1, maxOptionsPerMeal)
	p.BoostPerHit = clampInt(p.BoostPerHit, 0, maxBoostPerHit)
	p.BoostPer100G = clampInt(p.BoostPer100G, 0, maxBoostPer100G)
	p.MinHits = clampInt(p.MinHits, 1, maxMinHits)
	return p
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MenuIngredientEntry is one composition row in a recommendation response.
type MenuIngredientEntry struct {
	IngredientID uint    `json:"ingredient_id"`
	Name         string  `json:"name"`
	QuantityG    float64 `json:"quantity_g"`
}

// FoodLogPayload is a ready-to-submit body for POST /api/food-log, so the
// client can log a recommended menu with one tap.
type FoodLogPayload struct {
	Items []FoodLogPayloadItem `json:"items"`
}

type FoodLogPayloadItem struct {
	IngredientID uint    `json:"ingredient_id"`
	QuantityG    float64 `json:"quantity_g"`
}

// MenuOption is one scored alternative within a meal slot.
type MenuOption struct {
	MenuID         uint                  `json:"menu_id"`
	MenuName       string                `json:"menu_name"`
	Nutrition      NutritionBreakdown    `json:"nutrition"`
	Ingredients    []MenuIngredientEntry `json:"ingredients"`
	Score          float64               `json:"score"`
	FoodLogPayload FoodLogPayload        `json:"food_log_payload"`
}

// MealPick is the single best menu chosen for a meal slot.
type MealPick struct {
	MealType    string                `json:"meal_type"`
	MenuID      uint                  `json:"menu_id"`
	MenuName    string                `json:"menu_name"`
	Nutrition   NutritionBreakdown    `json:"nutrition"`
	Ingredients []MenuIngredientEntry `json:"ingredients"`
}

// MealOptions lists the alternatives for a meal slot, best first.
type MealOptions struct {
	MealType string       `json:"meal_type"`
	Options  []MenuOption `json:"options"`
}

// PlanDay is one day of the plan. Meals holds a MealPick per meal type,
// followed by a MealOptions block for the same slot when options are
// requested. Summary totals the picked meals only.
type PlanDay struct {
	Date        string             `json:"date"`
	DailyTarget NutritionTargets   `json:"daily_target"`
	Meals       []any              `json:"meals"`
	Summary     NutritionBreakdown `json:"summary"`
}

// RecommendationPlan is the full response for the recommendation endpoints.
type RecommendationPlan struct {
	UserID    uint      `json:"user_id"`
	StartDate string    `json:"start_date"`
	Days      []PlanDay `json:"days"`
}

// RecommendationService picks menus that fit the user's nutrition targets
// while avoiding allergens and prohibited foods. Menus already served earlier
// in the plan are not repeated, and menus containing scanned ingredients can
// be boosted toward the top.
type RecommendationService struct {
	menus       repository.MenuRepository
	preferences repository.PreferenceRepository
	now         func() time.Time
}

func NewRecommendationService(menus repository.MenuRepository, preferences repository.PreferenceRepository) *RecommendationService {
	return &RecommendationService{
		menus:       menus,
		preferences: preferences,
		now:         time.Now,
	}
}

// Recommend builds a day-by-day plan where every meal slot carries the best
// pick plus a ranked options block.
func (s *RecommendationService) Recommend(ctx context.Context, userID uint, params RecommendationParams) (*RecommendationPlan, error) {
	return s.buildPlan(ctx, userID, params, true)
}

// Plan builds a picks-only plan without option blocks.
func (s *RecommendationService) Plan(ctx context.Context, userID uint, days int) (*RecommendationPlan, error) {
	return s.buildPlan(ctx, userID, RecommendationParams{
		Days:           days,
		OptionsPerMeal: DefaultOptionsPerMeal,
		BoostPerHit:    DefaultBoostPerHit,
		BoostPer100G:   DefaultBoostPer100G,
		MinHits:        DefaultMinHits,
	}, false)
}

func (s *RecommendationService) buildPlan(ctx context.Context, userID uint, params RecommendationParams, includeOptions bool) (*RecommendationPlan, error) {
	ctx, span := observability.GetTraceLayer().TraceServiceCall(ctx, "recommendation", "build_plan")
	defer span.End()

	pref, err := s.preferences.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pref == nil {
		return nil, models.NewPreferenceRequiredError()
	}

	menus, err := s.menus.ListActive(ctx)
	if err != nil {
		observability.Recommendations.WithLabelValues(observability.StatusError).Inc()
		return nil, models.NewRecommendationError(err)
	}

	params = params.normalized()
	now := s.now().UTC()

	requireDetected := len(params.DetectedIDs) > 0
	if params.RequireDetected != nil {
		requireDetected = *params.RequireDetected
	}
	boostByQuantity := true
	if params.BoostByQuantity != nil {
		boostByQuantity = *params.BoostByQuantity
	}

	detected := make(map[uint]bool, len(params.DetectedIDs))
	for _, id := range params.DetectedIDs {
		detected[id] = true
	}

	mealTypes := models.MealTypes
	if mt := strings.ToUpper(strings.TrimSpace(params.MealType)); models.IsValidMealType(mt) {
		mealTypes = []string{mt}
	}

	builder := &planBuilder{
		menus:           menus,
		targets:         CalculateNutritionTargets(pref, now),
		avoid:           avoidTerms(pref),
		detected:        detected,
		used:            make(map[uint]bool),
		requireDetected: requireDetected,
		boostByQuantity: boostByQuantity,
		params:          params,
	}

	plan := &RecommendationPlan{
		UserID:    userID,
		StartDate: now.Format(dateLayout),
		Days:      []PlanDay{},
	}

	for d := 0; d < params.Days; d++ {
		day := PlanDay{
			Date:        now.AddDate(0, 0, d).Format(dateLayout),
			DailyTarget: builder.targets,
			Meals:       []any{},
		}

		for _, mealType := range mealTypes {
			pool := builder.mealPool(mealType)
			if len(pool) == 0 {
				continue
			}

			best := pool[0]
			builder.used[best.menu.ID] = true
			day.Meals = append(day.Meals, MealPick{
				MealType:    mealType,
				MenuID:      best.menu.ID,
				MenuName:    best.menu.Name,
				Nutrition:   best.nutrition,
				Ingredients: best.ingredients,
			})
			day.Summary.add(best.nutrition)

			if includeOptions {
				limit := params.OptionsPerMeal
				if limit > len(pool) {
					limit = len(pool)
				}
				options := make([]MenuOption, 0, limit)
				for _, entry := range pool[:limit] {
					options = append(options, entry.toOption())
				}
				day.Meals = append(day.Meals, MealOptions{MealType: mealType, Options: options})
			}
		}

		plan.Days = append(plan.Days, day)
	}

	observability.Recommendations.WithLabelValues(observability.StatusOK).Inc()
	return plan, nil
}

// avoidTerms merges allergens and food prohibitions into one lowered term
// list. Blank entries are dropped: an empty term would substring-match every
// ingredient and blank the whole catalog.
func avoidTerms(pref *models.UserPreference) []string {
	terms := make([]string, 0, len(pref.Allergens)+len(pref.FoodProhibitions))
	for _, list := range [][]string{pref.Allergens, pref.FoodProhibitions} {
		for _, raw := range list {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			terms = append(terms, strings.ToLower(raw))
		}
	}
	return terms
}

type scoredMenu struct {
	score       float64
	menu        *models.FoodMenu
	nutrition   NutritionBreakdown
	ingredients []MenuIngredientEntry
}

func (m scoredMenu) toOption() MenuOption {
	items := make([]FoodLogPayloadItem, 0, len(m.ingredients))
	for _, ing := range m.ingredients {
		items = append(items, FoodLogPayloadItem{IngredientID: ing.IngredientID, QuantityG: ing.QuantityG})
	}
	return MenuOption{
		MenuID:         m.menu.ID,
		MenuName:       m.menu.Name,
		Nutrition:      m.nutrition,
		Ingredients:    m.ingredients,
		Score:          m.score,
		FoodLogPayload: FoodLogPayload{Items: items},
	}
}

// planBuilder holds the per-request state shared by every meal slot.
type planBuilder struct {
	menus           []models.FoodMenu
	targets         NutritionTargets
	avoid           []string
	detected        map[uint]bool
	used            map[uint]bool
	requireDetected bool
	boostByQuantity bool
	params          RecommendationParams
}

// mealPool scores every eligible menu for one meal slot and returns them
// best first. Ties sort by name so equal scores stay deterministic.
func (b *planBuilder) mealPool(mealType string) []scoredMenu {
	var pool []scoredMenu
	for i := range b.menus {
		menu := &b.menus[i]
		if !strings.EqualFold(menu.MealType, mealType) || b.used[menu.ID] {
			continue
		}
		if !menuAllowed(menu, b.avoid) {
			continue
		}

		nutrition, ingredients := menuNutrition(menu)
		score := menuScore(nutrition, b.targets)

		if len(b.detected) > 0 {
			hits := countDetectionHits(ingredients, b.detected)
			if b.requireDetected && hits < b.params.MinHits {
				continue
			}
			score = applyDetectionBoost(score, ingredients, b.detected, b.params.BoostPerHit, b.boostByQuantity, b.params.BoostPer100G)
		}

		pool = append(pool, scoredMenu{score: score, menu: menu, nutrition: nutrition, ingredients: ingredients})
	}

	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].score != pool[j].score {
			return pool[i].score < pool[j].score
		}
		return strings.ToLower(pool[i].menu.Name) < strings.ToLower(pool[j].menu.Name)
	})
	return pool
}

// menuAllowed rejects a menu when any avoided term matches one of its tags
// exactly, or appears inside an ingredient name or alias.
func menuAllowed(menu *models.FoodMenu, avoid []string) bool {
	if len(avoid) == 0 {
		return true
	}

	tags := make(map[string]bool)
	for _, tag := range strings.Split(strings.ToLower(menu.Tags), ",") {
		tags[tag] = true
	}
	for _, term := range avoid {
		if tags[term] {
			return false
		}
	}

	for _, comp := range menu.Ingredients {
		if comp.Ingredient.ID == 0 {
			continue
		}
		name := strings.ToLower(comp.Ingredient.Name)
		alt := strings.ToLower(comp.Ingredient.AltNames)
		for _, term := range avoid {
			if strings.Contains(name, term) || strings.Contains(alt, term) {
				return false
			}
		}
	}
	return true
}

// menuNutrition totals a menu's composition and returns the serialized rows.
// Compositions whose ingredient row is gone are skipped; rows without a
// measured quantity are listed at 0 g and add nothing to the total. Menus
// flagged nutrition_is_manual report their curated values instead of the
// composition sum.
func menuNutrition(menu *models.FoodMenu) (NutritionBreakdown, []MenuIngredientEntry) {
	var total NutritionBreakdown
	ingredients := make([]MenuIngredientEntry, 0, len(menu.Ingredients))
	for _, comp := range menu.Ingredients {
		if comp.Ingredient.ID == 0 {
			continue
		}
		qty := 0.0
		if comp.QuantityG != nil {
			qty = *comp.QuantityG
		}
		total.add(nutritionAt(&comp.Ingredient, qty))
		ingredients = append(ingredients, MenuIngredientEntry{
			IngredientID: comp.IngredientID,
			Name:         comp.Ingredient.Name,
			QuantityG:    qty,
		})
	}
	if menu.NutritionIsManual {
		total = NutritionBreakdown{}
		if menu.ManualCalories != nil {
			total.Calories = *menu.ManualCalories
		}
		if menu.ManualProteinG != nil {
			total.ProteinG = *menu.ManualProteinG
		}
		if menu.ManualCarbsG != nil {
			total.CarbsG = *menu.ManualCarbsG
		}
		if menu.ManualFatG != nil {
			total.FatG = *menu.ManualFatG
		}
	}
	return total, ingredients
}

// menuScore is the L1 deviation of one meal from a third of the daily
// target. Lower is better.
func menuScore(n NutritionBreakdown, t NutritionTargets) float64 {
	return math.Abs(float64(n.Calories)-float64(t.Calories)/3) +
		math.Abs(n.ProteinG-t.ProteinG/3) +
		math.Abs(n.CarbsG-t.CarbsG/3) +
		math.Abs(n.FatG-t.FatG/3)
}

func countDetectionHits(ingredients []MenuIngredientEntry, detected map[uint]bool) int {
	hits := 0
	for _, ing := range ingredients {
		if detected[ing.IngredientID] {
			hits++
		}
	}
	return hits
}

// applyDetectionBoost lowers the score of menus that contain scanned
// ingredients: a flat amount per hit, plus a quantity-proportional amount
// when enabled. The score never drops below zero.
func applyDetectionBoost(base float64, ingredients []MenuIngredientEntry, detected map[uint]bool, boostPerHit int, boostByQuantity bool, boostPer100G int) float64 {
	hits := 0
	totalQuantity := 0.0
	for _, ing := range ingredients {
		if detected[ing.IngredientID] {
			hits++
			if ing.QuantityG > 0 {
				totalQuantity += ing.QuantityG
			}
		}
	}
	if hits == 0 {
		return base
	}

	boost := 0.0
	if boostPerHit > 0 {
		boost += float64(hits * boostPerHit)
	}
	if boostByQuantity && totalQuantity > 0 && boostPer100G > 0 {
		boost += totalQuantity / 100 * float64(boostPer100G)
	}
	return math.Max(0, base-boost)
}
