package repository

import (
	"context"
	"errors"
	"strings"

	"nutribunda/internal/cache"
	"nutribunda/internal/models"
	"nutribunda/internal/observability"

	"gorm.io/gorm"
)

// searchResultLimit caps candidate rows fetched per scan label.
const searchResultLimit = 50

// IngredientRepository defines persistence operations for food ingredients.
type IngredientRepository interface {
	ListAll(ctx context.Context) ([]models.FoodIngredient, error)
	Search(ctx context.Context, terms []string) ([]models.FoodIngredient, error)
	GetByID(ctx context.Context, id uint) (*models.FoodIngredient, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.FoodIngredient, error)
	GetByName(ctx context.Context, name string) (*models.FoodIngredient, error)
	Create(ctx context.Context, ingredient *models.FoodIngredient) error
	Update(ctx context.Context, ingredient *models.FoodIngredient) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type ingredientRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
}

// NewIngredientRepository returns a new IngredientRepository implementation.
func NewIngredientRepository(db *gorm.DB) IngredientRepository {
	return &ingredientRepository{db: db, metrics: observability.NewDatabaseMetrics(db)}
}

func (r *ingredientRepository) ListAll(ctx context.Context) ([]models.FoodIngredient, error) {
	var ingredients []models.FoodIngredient

	err := cache.Aside(ctx, cache.IngredientsKey, &ingredients, cache.IngredientsTTL, func() error {
		defer r.metrics.TrackQuery("select", "food_ingredients")()
		if err := r.db.WithContext(ctx).Order("id").Find(&ingredients).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ingredients, nil
}

// Search matches any term against name or alt_names, case-insensitively.
// Rows come back ordered by id so scoring ties resolve to the oldest entry.
func (r *ingredientRepository) Search(ctx context.Context, terms []string) ([]models.FoodIngredient, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	query := r.db.WithContext(ctx).Model(&models.FoodIngredient{})
	conditions := r.db.Session(&gorm.Session{NewDB: true}).Model(&models.FoodIngredient{})
	for _, term := range terms {
		pattern := "%" + strings.ToLower(term) + "%"
		conditions = conditions.Or("LOWER(name) LIKE ? OR LOWER(alt_names) LIKE ?", pattern, pattern)
	}

	var ingredients []models.FoodIngredient
	defer r.metrics.TrackQuery("select", "food_ingredients")()
	err := query.Where(conditions).
		Order("id").
		Limit(searchResultLimit).
		Find(&ingredients).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ingredients, nil
}

func (r *ingredientRepository) GetByID(ctx context.Context, id uint) (*models.FoodIngredient, error) {
	var ingredient models.FoodIngredient
	if err := r.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &ingredient, nil
}

func (r *ingredientRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.FoodIngredient, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var ingredients []models.FoodIngredient
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&ingredients).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ingredients, nil
}

func (r *ingredientRepository) GetByName(ctx context.Context, name string) (*models.FoodIngredient, error) {
	var ingredient models.FoodIngredient
	if err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&ingredient).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &ingredient, nil
}

func (r *ingredientRepository) Create(ctx context.Context, ingredient *models.FoodIngredient) error {
	defer r.metrics.TrackQuery("insert", "food_ingredients")()
	if err := r.db.WithContext(ctx).Create(ingredient).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewDuplicateEntryError("Ingredient with this name already exists")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateIngredients(ctx)
	return nil
}

func (r *ingredientRepository) Update(ctx context.Context, ingredient *models.FoodIngredient) error {
	defer r.metrics.TrackQuery("update", "food_ingredients")()
	if err := r.db.WithContext(ctx).Save(ingredient).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewDuplicateEntryError("Ingredient with this name already exists")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateIngredients(ctx)
	return nil
}

func (r *ingredientRepository) Delete(ctx context.Context, id uint) error {
	defer r.metrics.TrackQuery("delete", "food_ingredients")()
	if err := r.db.WithContext(ctx).Delete(&models.FoodIngredient{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateIngredients(ctx)
	return nil
}

func (r *ingredientRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.FoodIngredient{}).Count(&total).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return total, nil
}
