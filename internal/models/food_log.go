package models

import (
	"time"
)

// FoodLog is a single logged ingredient portion. SourceMenuID records which
// menu the entry came from when it was logged via a recommendation; it is
// nullable and survives menu deletion (FK ON DELETE SET NULL).
type FoodLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	IngredientID uint      `gorm:"not null" json:"ingredient_id"`
	QuantityG    float64   `gorm:"type:numeric(8,2);not null;default:100" json:"quantity_g"`
	SourceMenuID *uint     `json:"source_menu_id"`
	LoggedAt     time.Time `gorm:"not null" json:"logged_at"`

	Ingredient FoodIngredient `gorm:"foreignKey:IngredientID" json:"-"`
	SourceMenu *FoodMenu      `gorm:"foreignKey:SourceMenuID;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName specifies the table name for GORM
func (FoodLog) TableName() string {
	return "food_logs"
}

// FoodMealLog is a whole menu logged at once, with nutrition totals frozen
// at log time so later menu edits cannot rewrite history.
type FoodMealLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index:ix_food_meal_logs_user_logged" json:"user_id"`
	MenuID        uint      `gorm:"not null" json:"menu_id"`
	TotalCalories int       `gorm:"not null;default:0" json:"total_calories"`
	TotalProteinG float64   `gorm:"type:numeric(10,2);not null;default:0" json:"total_protein_g"`
	TotalCarbsG   float64   `gorm:"type:numeric(10,2);not null;default:0" json:"total_carbs_g"`
	TotalFatG     float64   `gorm:"type:numeric(10,2);not null;default:0" json:"total_fat_g"`
	Servings      float64   `gorm:"type:numeric(8,2);not null;default:1" json:"servings"`
	IsConsumed    bool      `gorm:"not null;default:false" json:"is_consumed"`
	LoggedAt      time.Time `gorm:"not null;index:ix_food_meal_logs_user_logged" json:"logged_at"`

	Menu  FoodMenu          `gorm:"foreignKey:MenuID" json:"-"`
	Items []FoodMealLogItem `gorm:"foreignKey:MealLogID" json:"items,omitempty"`
}

// TableName specifies the table name for GORM
func (FoodMealLog) TableName() string {
	return "food_meal_logs"
}

// FoodMealLogItem is one ingredient line of a meal log, denormalized with
// the nutrition it contributed.
type FoodMealLogItem struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	MealLogID    uint    `gorm:"not null;index:ix_food_meal_log_items_meal" json:"meal_log_id"`
	IngredientID uint    `gorm:"not null" json:"ingredient_id"`
	QuantityG    float64 `gorm:"type:numeric(8,2);not null" json:"quantity_g"`
	Calories     int     `gorm:"not null;default:0" json:"calories"`
	ProteinG     float64 `gorm:"type:numeric(10,2);not null;default:0" json:"protein_g"`
	CarbsG       float64 `gorm:"type:numeric(10,2);not null;default:0" json:"carbs_g"`
	FatG         float64 `gorm:"type:numeric(10,2);not null;default:0" json:"fat_g"`

	Ingredient FoodIngredient `gorm:"foreignKey:IngredientID" json:"-"`
}

// TableName specifies the table name for GORM
func (FoodMealLogItem) TableName() string {
	return "food_meal_log_items"
}
