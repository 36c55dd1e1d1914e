package models

// Meal types recognized by menus, recommendations, and the dashboard.
const (
	MealTypeBreakfast = "BREAKFAST"
	MealTypeLunch     = "LUNCH"
	MealTypeDinner    = "DINNER"
)

// MealTypes lists all valid meal types in serving order.
var MealTypes = []string{MealTypeBreakfast, MealTypeLunch, MealTypeDinner}

// IsValidMealType reports whether t is a recognized meal type.
func IsValidMealType(t string) bool {
	for _, mt := range MealTypes {
		if mt == t {
			return true
		}
	}
	return false
}

// Target audiences for menus. Child buckets are split by age in months so
// curation can follow complementary-feeding stages.
const (
	TargetRoleIbu        = "IBU"
	TargetRoleAnak       = "ANAK"
	TargetRoleAnak6To8   = "ANAK_6_8"
	TargetRoleAnak9To11  = "ANAK_9_11"
	TargetRoleAnak12To23 = "ANAK_12_23"
	TargetRoleAll        = "ALL"
)

// TargetRoles lists all valid menu target roles.
var TargetRoles = []string{
	TargetRoleIbu,
	TargetRoleAnak,
	TargetRoleAnak6To8,
	TargetRoleAnak9To11,
	TargetRoleAnak12To23,
	TargetRoleAll,
}

// IsValidTargetRole reports whether r is a recognized target role.
func IsValidTargetRole(r string) bool {
	for _, tr := range TargetRoles {
		if tr == r {
			return true
		}
	}
	return false
}

// FoodIngredient is a reference food with nutrition per 100 g. AltNames is a
// comma-separated list of aliases matched during scanning (local names,
// English names, spelling variants).
type FoodIngredient struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Name     string  `gorm:"size:150;uniqueIndex;not null" json:"name"`
	AltNames string  `gorm:"type:text" json:"alt_names"`
	Calories int     `gorm:"not null;default:0" json:"calories"`
	ProteinG float64 `gorm:"type:numeric(8,2);not null;default:0" json:"protein_g"`
	CarbsG   float64 `gorm:"type:numeric(8,2);not null;default:0" json:"carbs_g"`
	FatG     float64 `gorm:"type:numeric(8,2);not null;default:0" json:"fat_g"`
}

// TableName specifies the table name for GORM
func (FoodIngredient) TableName() string {
	return "food_ingredients"
}

// FoodMenu is an admin-curated meal. Nutrition is normally derived from its
// compositions; when NutritionIsManual is set the manual values win.
type FoodMenu struct {
	ID                  uint     `gorm:"primaryKey" json:"id"`
	Name                string   `gorm:"size:150;not null" json:"name"`
	MealType            string   `gorm:"size:20;not null;index" json:"meal_type"`
	Tags                string   `gorm:"type:text" json:"tags"`
	ImageURL            string   `gorm:"size:500" json:"image_url"`
	Description         string   `gorm:"type:text" json:"description"`
	CookingInstructions string   `gorm:"type:text" json:"cooking_instructions"`
	CookingTimeMinutes  *int     `json:"cooking_time_minutes"`
	TargetRole          string   `gorm:"size:20;not null;default:'ALL';index" json:"target_role"`
	ServingUnit         *string  `gorm:"size:50" json:"serving_unit"`
	NutritionIsManual   bool     `gorm:"not null;default:false" json:"nutrition_is_manual"`
	ManualCalories      *int     `json:"manual_calories"`
	ManualProteinG      *float64 `gorm:"type:numeric(8,2)" json:"manual_protein_g"`
	ManualCarbsG        *float64 `gorm:"type:numeric(8,2)" json:"manual_carbs_g"`
	ManualFatG          *float64 `gorm:"type:numeric(8,2)" json:"manual_fat_g"`
	IsActive            bool     `gorm:"not null;default:true" json:"is_active"`

	Ingredients []FoodMenuIngredient `gorm:"foreignKey:MenuID" json:"ingredients,omitempty"`
}

// TableName specifies the table name for GORM
func (FoodMenu) TableName() string {
	return "food_menus"
}

// FoodMenuIngredient links a menu to one ingredient. QuantityG is nullable
// for display-only rows (e.g. "Secukupnya") that carry no measurable weight.
type FoodMenuIngredient struct {
	ID              uint     `gorm:"primaryKey" json:"id"`
	MenuID          uint     `gorm:"not null;uniqueIndex:uq_menu_ingredient" json:"menu_id"`
	IngredientID    uint     `gorm:"not null;uniqueIndex:uq_menu_ingredient" json:"ingredient_id"`
	QuantityG       *float64 `gorm:"type:numeric(8,2)" json:"quantity_g"`
	DisplayQuantity *string  `gorm:"size:100" json:"display_quantity"`

	Ingredient FoodIngredient `gorm:"foreignKey:IngredientID" json:"-"`
}

// TableName specifies the table name for GORM
func (FoodMenuIngredient) TableName() string {
	return "food_menu_ingredients"
}
