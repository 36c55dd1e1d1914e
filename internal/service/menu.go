package service

import (
	"context"
	"strings"

	"nutribunda/internal/models"
	"nutribunda/internal/repository"
)

// MenuIngredientInput is one composition row in a create or update body.
// A row may carry a measured quantity, a display-only quantity
// ("secukupnya"), or both.
type MenuIngredientInput struct {
	IngredientID    uint     `json:"ingredient_id"`
	QuantityG       *float64 `json:"quantity_g"`
	DisplayQuantity *string  `json:"display_quantity"`
}

// CreateMenuInput carries the admin create body.
type CreateMenuInput struct {
	Name                string                `json:"name"`
	MealType            string                `json:"meal_type"`
	Tags                string                `json:"tags"`
	ImageURL            string                `json:"image_url"`
	Description         string                `json:"description"`
	CookingInstructions string                `json:"cooking_instructions"`
	CookingTimeMinutes  *int                  `json:"cooking_time_minutes"`
	TargetRole          string                `json:"target_role"`
	ServingUnit         *string               `json:"serving_unit"`
	IsActive            *bool                 `json:"is_active"`
	NutritionIsManual   bool                  `json:"nutrition_is_manual"`
	ManualCalories      *int                  `json:"manual_calories"`
	ManualProteinG      *float64              `json:"manual_protein_g"`
	ManualCarbsG        *float64              `json:"manual_carbs_g"`
	ManualFatG          *float64              `json:"manual_fat_g"`
	Ingredients         []MenuIngredientInput `json:"ingredients"`
}

// UpdateMenuInput is the partial update body; nil fields stay unchanged.
// Ingredients nil keeps the composition, non-nil (even empty) replaces it.
type UpdateMenuInput struct {
	Name                *string                `json:"name"`
	MealType            *string                `json:"meal_type"`
	Tags                *string                `json:"tags"`
	ImageURL            *string                `json:"image_url"`
	Description         *string                `json:"description"`
	CookingInstructions *string                `json:"cooking_instructions"`
	CookingTimeMinutes  *int                   `json:"cooking_time_minutes"`
	TargetRole          *string                `json:"target_role"`
	ServingUnit         *string                `json:"serving_unit"`
	IsActive            *bool                  `json:"is_active"`
	NutritionIsManual   *bool                  `json:"nutrition_is_manual"`
	ManualCalories      *int                   `json:"manual_calories"`
	ManualProteinG      *float64               `json:"manual_protein_g"`
	ManualCarbsG        *float64               `json:"manual_carbs_g"`
	ManualFatG          *float64               `json:"manual_fat_g"`
	Ingredients         *[]MenuIngredientInput `json:"ingredients"`
}

// MenuListQuery mirrors the list endpoint's query parameters.
type MenuListQuery struct {
	Page       int
	Limit      int
	Search     string
	MealType   string
	TargetRole string
	IsActive   *bool
}

// MenuListItem is one row of the paginated listing.
type MenuListItem struct {
	ID          uint                  `json:"id"`
	Name        string                `json:"name"`
	MealType    string                `json:"meal_type"`
	Tags        string                `json:"tags"`
	ImageURL    string                `json:"image_url"`
	TargetRole  string                `json:"target_role"`
	IsActive    bool                  `json:"is_active"`
	Ingredients []MenuIngredientEntry `json:"ingredients"`
}

// MenuList is the paginated listing envelope.
type MenuList struct {
	Items []MenuListItem `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Pages int            `json:"pages"`
}

// MenuDetail is the full menu card including its nutrition.
type MenuDetail struct {
	ID                  uint                  `json:"id"`
	Name                string                `json:"name"`
	MealType            string                `json:"meal_type"`
	Tags                string                `json:"tags"`
	ImageURL            string                `json:"image_url"`
	Description         string                `json:"description"`
	CookingInstructions string                `json:"cooking_instructions"`
	CookingTimeMinutes  *int                  `json:"cooking_time_minutes"`
	TargetRole          string                `json:"target_role"`
	ServingUnit         *string               `json:"serving_unit"`
	IsActive            bool                  `json:"is_active"`
	NutritionIsManual   bool                  `json:"nutrition_is_manual"`
	Nutrition           NutritionBreakdown    `json:"nutrition"`
	Ingredients         []MenuIngredientEntry `json:"ingredients"`
}

// MenuService manages the curated menu catalog.
type MenuService struct {
	menus       repository.MenuRepository
	preferences repository.PreferenceRepository
}

// NewMenuService creates a MenuService.
func NewMenuService(menus repository.MenuRepository, preferences repository.PreferenceRepository) *MenuService {
	return &MenuService{menus: menus, preferences: preferences}
}

// List returns a page of menus. Without an explicit target_role filter the
// role is derived from the caller's preference, so toddlers see the menus
// for their feeding stage and mothers see the IBU set. Menus targeted ALL
// always pass the filter.
func (s *MenuService) List(ctx context.Context, userID uint, query MenuListQuery) (*MenuList, error) {
	targetRole := strings.ToUpper(strings.TrimSpace(query.TargetRole))
	if targetRole == "" && userID != 0 {
		derived, err := s.deriveTargetRole(ctx, userID)
		if err != nil {
			return nil, err
		}
		targetRole = derived
	}

	mealType := strings.ToUpper(strings.TrimSpace(query.MealType))
	if !models.IsValidMealType(mealType) {
		mealType = ""
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit <= 0 {
		limit = 10
	} else if limit > 100 {
		limit = 100
	}

	menus, total, err := s.menus.List(ctx, repository.MenuListParams{
		Search:     query.Search,
		MealType:   mealType,
		TargetRole: targetRole,
		IsActive:   query.IsActive,
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}

	items := make([]MenuListItem, 0, len(menus))
	for i := range menus {
		menu := &menus[i]
		items = append(items, MenuListItem{
			ID:          menu.ID,
			Name:        menu.Name,
			MealType:    menu.MealType,
			Tags:        menu.Tags,
			ImageURL:    menu.ImageURL,
			TargetRole:  menu.TargetRole,
			IsActive:    menu.IsActive,
			Ingredients: menuIngredientRows(menu),
		})
	}

	pages := int((total + int64(limit) - 1) / int64(limit))
	return &MenuList{Items: items, Total: total, Page: page, Limit: limit, Pages: pages}, nil
}

// Get returns the full menu card.
func (s *MenuService) Get(ctx context.Context, id uint) (*MenuDetail, error) {
	menu, err := s.menus.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if menu == nil {
		return nil, models.NewNotFoundError("Menu")
	}

	nutrition, ingredients := menuNutrition(menu)
	return &MenuDetail{
		ID:                  menu.ID,
		Name:                menu.Name,
		MealType:            menu.MealType,
		Tags:                menu.Tags,
		ImageURL:            menu.ImageURL,
		Description:         menu.Description,
		CookingInstructions: menu.CookingInstructions,
		CookingTimeMinutes:  menu.CookingTimeMinutes,
		TargetRole:          menu.TargetRole,
		ServingUnit:         menu.ServingUnit,
		IsActive:            menu.IsActive,
		NutritionIsManual:   menu.NutritionIsManual,
		Nutrition:           nutrition,
		Ingredients:         ingredients,
	}, nil
}

// Create inserts a menu with its composition and returns the new id.
func (s *MenuService) Create(ctx context.Context, input CreateMenuInput) (uint, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return 0, models.NewValidationError("name is required")
	}
	mealType := strings.ToUpper(strings.TrimSpace(input.MealType))
	if !models.IsValidMealType(mealType) {
		return 0, models.NewValidationError("meal_type must be one of BREAKFAST, LUNCH, DINNER")
	}
	targetRole := strings.ToUpper(strings.TrimSpace(input.TargetRole))
	if targetRole == "" {
		targetRole = models.TargetRoleAll
	}
	if !models.IsValidTargetRole(targetRole) {
		return 0, models.NewValidationError("target_role is not recognized")
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	menu := &models.FoodMenu{
		Name:                name,
		MealType:            mealType,
		Tags:                input.Tags,
		ImageURL:            input.ImageURL,
		Description:         input.Description,
		CookingInstructions: input.CookingInstructions,
		CookingTimeMinutes:  input.CookingTimeMinutes,
		TargetRole:          targetRole,
		ServingUnit:         input.ServingUnit,
		IsActive:            isActive,
		NutritionIsManual:   input.NutritionIsManual,
		ManualCalories:      input.ManualCalories,
		ManualProteinG:      input.ManualProteinG,
		ManualCarbsG:        input.ManualCarbsG,
		ManualFatG:          input.ManualFatG,
		Ingredients:         compositionRows(input.Ingredients),
	}
	if err := s.menus.Create(ctx, menu); err != nil {
		return 0, err
	}
	return menu.ID, nil
}

// Update applies the provided fields; a non-nil Ingredients replaces the
// whole composition.
func (s *MenuService) Update(ctx context.Context, id uint, input UpdateMenuInput) error {
	menu, err := s.menus.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if menu == nil {
		return models.NewNotFoundError("Menu")
	}

	if input.Name != nil {
		menu.Name = *input.Name
	}
	if input.MealType != nil {
		mealType := strings.ToUpper(strings.TrimSpace(*input.MealType))
		if !models.IsValidMealType(mealType) {
			return models.NewValidationError("meal_type must be one of BREAKFAST, LUNCH, DINNER")
		}
		menu.MealType = mealType
	}
	if input.Tags != nil {
		menu.Tags = *input.Tags
	}
	if input.ImageURL != nil {
		menu.ImageURL = *input.ImageURL
	}
	if input.Description != nil {
		menu.Description = *input.Description
	}
	if input.CookingInstructions != nil {
		menu.CookingInstructions = *input.CookingInstructions
	}
	if input.CookingTimeMinutes != nil {
		menu.CookingTimeMinutes = input.CookingTimeMinutes
	}
	if input.TargetRole != nil {
		targetRole := strings.ToUpper(strings.TrimSpace(*input.TargetRole))
		if !models.IsValidTargetRole(targetRole) {
			return models.NewValidationError("target_role is not recognized")
		}
		menu.TargetRole = targetRole
	}
	if input.ServingUnit != nil {
		menu.ServingUnit = input.ServingUnit
	}
	if input.IsActive != nil {
		menu.IsActive = *input.IsActive
	}
	if input.NutritionIsManual != nil {
		menu.NutritionIsManual = *input.NutritionIsManual
	}
	if input.ManualCalories != nil {
		menu.ManualCalories = input.ManualCalories
	}
	if input.ManualProteinG != nil {
		menu.ManualProteinG = input.ManualProteinG
	}
	if input.ManualCarbsG != nil {
		menu.ManualCarbsG = input.ManualCarbsG
	}
	if input.ManualFatG != nil {
		menu.ManualFatG = input.ManualFatG
	}

	replaceIngredients := input.Ingredients != nil
	if replaceIngredients {
		menu.Ingredients = compositionRows(*input.Ingredients)
	}
	return s.menus.Update(ctx, menu, replaceIngredients)
}

// Delete removes the menu and its composition rows. Food logs that point at
// the menu keep their rows; the foreign key nulls source_menu_id.
func (s *MenuService) Delete(ctx context.Context, id uint) error {
	menu, err := s.menus.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if menu == nil {
		return models.NewNotFoundError("Menu")
	}
	return s.menus.Delete(ctx, id)
}

func (s *MenuService) deriveTargetRole(ctx context.Context, userID uint) (string, error) {
	pref, err := s.preferences.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if pref == nil {
		return "", nil
	}
	if !strings.EqualFold(pref.Role, models.RoleToddler) {
		return models.TargetRoleIbu, nil
	}

	months := 0
	if pref.AgeYear != nil {
		months = *pref.AgeYear * 12
	}
	if pref.AgeMonth != nil {
		months += *pref.AgeMonth
	}
	switch {
	case months >= 6 && months <= 8:
		return models.TargetRoleAnak6To8, nil
	case months >= 9 && months <= 11:
		return models.TargetRoleAnak9To11, nil
	case months >= 12 && months <= 23:
		return models.TargetRoleAnak12To23, nil
	default:
		return models.TargetRoleAnak, nil
	}
}

// compositionRows drops rows without an ingredient id. Quantity stays
// optional so display-only rows survive.
func compositionRows(items []MenuIngredientInput) []models.FoodMenuIngredient {
	rows := make([]models.FoodMenuIngredient, 0, len(items))
	for _, item := range items {
		if item.IngredientID == 0 {
			continue
		}
		rows = append(rows, models.FoodMenuIngredient{
			IngredientID:    item.IngredientID,
			QuantityG:       item.QuantityG,
			DisplayQuantity: item.DisplayQuantity,
		})
	}
	return rows
}

func menuIngredientRows(menu *models.FoodMenu) []MenuIngredientEntry {
	_, rows := menuNutrition(menu)
	return rows
}
