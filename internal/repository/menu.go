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

// MenuListParams narrows the menu listing.
type MenuListParams struct {
	Search     string
	MealType   string
	TargetRole string
	IsActive   *bool
	Page       int
	Limit      int
}

// MenuRepository defines persistence operations for food menus.
type MenuRepository interface {
	List(ctx context.Context, params MenuListParams) ([]models.FoodMenu, int64, error)
	ListActive(ctx context.Context) ([]models.FoodMenu, error)
	GetByID(ctx context.Context, id uint) (*models.FoodMenu, error)
	Create(ctx context.Context, menu *models.FoodMenu) error
	Update(ctx context.Context, menu *models.FoodMenu, replaceIngredients bool) error
	Delete(ctx context.Context, id uint) error
	CountActive(ctx context.Context) (int64, error)
}

type menuRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
	logger  *observability.RepoLogger
}

// NewMenuRepository returns a new MenuRepository implementation.
func NewMenuRepository(db *gorm.DB) MenuRepository {
	return &menuRepository{
		db:      db,
		metrics: observability.NewDatabaseMetrics(db),
		logger:  observability.NewRepoLogger("food_menus"),
	}
}

func (r *menuRepository) List(ctx context.Context, params MenuListParams) ([]models.FoodMenu, int64, error) {
	limit := clampLimit(params.Limit, 10, 100)
	page := params.Page
	if page < 1 {
		page = 1
	}

	query := r.db.WithContext(ctx).Model(&models.FoodMenu{})
	if params.Search != "" {
		pattern := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(tags) LIKE ?", pattern, pattern)
	}
	if params.MealType != "" {
		query = query.Where("meal_type = ?", params.MealType)
	}
	if params.TargetRole != "" {
		query = query.Where("target_role IN ?", []string{params.TargetRole, string(models.TargetRoleAll)})
	}
	if params.IsActive != nil {
		query = query.Where("is_active = ?", *params.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var menus []models.FoodMenu
	defer r.metrics.TrackQuery("select", "food_menus")()
	err := query.Preload("Ingredients.Ingredient").
		Order("meal_type, name").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&menus).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return menus, total, nil
}

func (r *menuRepository) ListActive(ctx context.Context) ([]models.FoodMenu, error) {
	var menus []models.FoodMenu
	defer r.metrics.TrackQuery("select", "food_menus")()
	err := r.db.WithContext(ctx).
		Preload("Ingredients.Ingredient").
		Where("is_active = ?", true).
		Order("id").
		Find(&menus).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return menus, nil
}

// GetByID returns (nil, nil) when the menu does not exist. Only hits are
// cached.
func (r *menuRepository) GetByID(ctx context.Context, id uint) (*models.FoodMenu, error) {
	var menu models.FoodMenu
	key := cache.MenuKey(id)

	if found, err := cache.GetJSON(ctx, key, &menu); err == nil && found {
		return &menu, nil
	}

	defer r.metrics.TrackQuery("select", "food_menus")()
	err := r.db.WithContext(ctx).
		Preload("Ingredients.Ingredient").
		First(&menu, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}

	_ = cache.SetJSON(ctx, key, &menu, cache.MenuTTL)
	return &menu, nil
}

func (r *menuRepository) Create(ctx context.Context, menu *models.FoodMenu) error {
	defer r.metrics.TrackQuery("insert", "food_menus")()
	if err := r.db.WithContext(ctx).Create(menu).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Update saves menu fields and, when replaceIngredients is set, swaps the
// composition rows inside the same transaction.
func (r *menuRepository) Update(ctx context.Context, menu *models.FoodMenu, replaceIngredients bool) error {
	defer r.metrics.TrackQuery("update", "food_menus")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Ingredients").Save(menu).Error; err != nil {
			return err
		}
		if replaceIngredients {
			if err := tx.Where("menu_id = ?", menu.ID).Delete(&models.FoodMenuIngredient{}).Error; err != nil {
				return err
			}
			for i := range menu.Ingredients {
				menu.Ingredients[i].ID = 0
				menu.Ingredients[i].MenuID = menu.ID
			}
			if len(menu.Ingredients) > 0 {
				if err := tx.Create(&menu.Ingredients).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateMenu(ctx, menu.ID)
	return nil
}

func (r *menuRepository) Delete(ctx context.Context, id uint) error {
	defer r.metrics.TrackQuery("delete", "food_menus")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("menu_id = ?", id).Delete(&models.FoodMenuIngredient{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.FoodMenu{}, id).Error
	})
	if err != nil {
		r.logger.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	r.logger.LogDelete(ctx, map[string]interface{}{"menu_id": id})
	cache.InvalidateMenu(ctx, id)
	return nil
}

func (r *menuRepository) CountActive(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.FoodMenu{}).
		Where("is_active = ?", true).
		Count(&total).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return total, nil
}
