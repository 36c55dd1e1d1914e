package service

import (
	"context"
	"strings"

	"nutribunda/internal/models"
	"nutribunda/internal/repository"
)

// CreateIngredientInput carries the fields accepted when registering a new
// ingredient. Nutrition values are per 100 g and default to zero.
type CreateIngredientInput struct {
	Name     string  `json:"name"`
	AltNames string  `json:"alt_names"`
	Calories int     `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// UpdateIngredientInput updates an existing ingredient. Nil fields keep the
// stored value.
type UpdateIngredientInput struct {
	Name     *string  `json:"name"`
	AltNames *string  `json:"alt_names"`
	Calories *int     `json:"calories"`
	ProteinG *float64 `json:"protein_g"`
	CarbsG   *float64 `json:"carbs_g"`
	FatG     *float64 `json:"fat_g"`
}

// IngredientService manages the ingredient catalog backing scans, menus and
// food logs.
type IngredientService struct {
	ingredients repository.IngredientRepository
}

// NewIngredientService returns a new IngredientService.
func NewIngredientService(ingredients repository.IngredientRepository) *IngredientService {
	return &IngredientService{ingredients: ingredients}
}

// List returns every ingredient ordered by id.
func (s *IngredientService) List(ctx context.Context) ([]models.FoodIngredient, error) {
	ingredients, err := s.ingredients.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if ingredients == nil {
		ingredients = []models.FoodIngredient{}
	}
	return ingredients, nil
}

// Create registers a new ingredient. The name must be unique across the
// catalog.
func (s *IngredientService) Create(ctx context.Context, input CreateIngredientInput) (*models.FoodIngredient, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, models.NewValidationError("Name is required")
	}

	existing, err := s.ingredients.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewDuplicateEntryError("Ingredient with this name already exists")
	}

	ingredient := &models.FoodIngredient{
		Name:     name,
		AltNames: input.AltNames,
		Calories: input.Calories,
		ProteinG: input.ProteinG,
		CarbsG:   input.CarbsG,
		FatG:     input.FatG,
	}
	if err := s.ingredients.Create(ctx, ingredient); err != nil {
		return nil, err
	}
	return ingredient, nil
}

// Update applies a partial update. Renames are checked against the rest of
// the catalog so two ingredients never share a name.
func (s *IngredientService) Update(ctx context.Context, id uint, input UpdateIngredientInput) (*models.FoodIngredient, error) {
	ingredient, err := s.ingredients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ingredient == nil {
		return nil, models.NewNotFoundError("Ingredient")
	}

	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" {
			existing, err := s.ingredients.GetByName(ctx, name)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.ID != id {
				return nil, models.NewDuplicateEntryError("Ingredient with this name already exists")
			}
			ingredient.Name = name
		}
	}
	if input.AltNames != nil {
		ingredient.AltNames = *input.AltNames
	}
	if input.Calories != nil {
		ingredient.Calories = *input.Calories
	}
	if input.ProteinG != nil {
		ingredient.ProteinG = *input.ProteinG
	}
	if input.CarbsG != nil {
		ingredient.CarbsG = *input.CarbsG
	}
	if input.FatG != nil {
		ingredient.FatG = *input.FatG
	}

	if err := s.ingredients.Update(ctx, ingredient); err != nil {
		return nil, err
	}
	return ingredient, nil
}

// Delete removes an ingredient from the catalog.
func (s *IngredientService) Delete(ctx context.Context, id uint) error {
	ingredient, err := s.ingredients.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if ingredient == nil {
		return models.NewNotFoundError("Ingredient")
	}
	return s.ingredients.Delete(ctx, id)
}
