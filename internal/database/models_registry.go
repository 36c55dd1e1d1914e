package database

import "nutribunda/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Role{},
		&models.User{},
		&models.UserPreference{},
		&models.FoodIngredient{},
		&models.FoodMenu{},
		&models.FoodMenuIngredient{},
		&models.FoodLog{},
		&models.FoodMealLog{},
		&models.FoodMealLogItem{},
		&models.Article{},
		&models.Feedback{},
		&models.MediaImage{},
	}
}
