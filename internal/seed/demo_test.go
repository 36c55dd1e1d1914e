package seed

import (
	"testing"

	"nutribunda/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func demoTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.UserPreference{},
		&models.FoodIngredient{},
		&models.FoodMenu{},
		&models.FoodMenuIngredient{},
		&models.FoodLog{},
		&models.FoodMealLog{},
		&models.FoodMealLogItem{},
		&models.Feedback{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestDemo_Idempotent(t *testing.T) {
	t.Parallel()

	db := demoTestDB(t)

	if err := Demo(db); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := Demo(db); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	var userCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if userCount != 2 {
		t.Fatalf("expected 2 demo users, got %d", userCount)
	}

	var ingredientCount int64
	if err := db.Model(&models.FoodIngredient{}).Count(&ingredientCount).Error; err != nil {
		t.Fatalf("count ingredients: %v", err)
	}
	if ingredientCount != int64(len(demoIngredients)) {
		t.Fatalf("expected %d ingredients, got %d", len(demoIngredients), ingredientCount)
	}

	var menuCount int64
	if err := db.Model(&models.FoodMenu{}).Count(&menuCount).Error; err != nil {
		t.Fatalf("count menus: %v", err)
	}
	if menuCount != int64(len(demoMenus)) {
		t.Fatalf("expected %d menus, got %d", len(demoMenus), menuCount)
	}
}

func TestDemo_Accounts(t *testing.T) {
	t.Parallel()

	db := demoTestDB(t)
	if err := Demo(db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var user models.User
	err := db.Preload("Role").Where("email = ?", "user@example.com").First(&user).Error
	if err != nil {
		t.Fatalf("load demo user: %v", err)
	}
	if user.RoleName() != models.RolePregnant {
		t.Fatalf("expected demo user role %s, got %s", models.RolePregnant, user.RoleName())
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret")) != nil {
		t.Fatal("demo user password does not verify against 'secret'")
	}

	var admin models.User
	err = db.Preload("Role").Where("email = ?", "admin@example.com").First(&admin).Error
	if err != nil {
		t.Fatalf("load demo admin: %v", err)
	}
	if !admin.IsAdmin() {
		t.Fatalf("expected admin role, got %s", admin.RoleName())
	}
}

func TestDemo_MenuComposition(t *testing.T) {
	t.Parallel()

	db := demoTestDB(t)
	if err := Demo(db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	for _, m := range demoMenus {
		var menu models.FoodMenu
		err := db.Preload("Ingredients.Ingredient").Where("name = ?", m.Name).First(&menu).Error
		if err != nil {
			t.Fatalf("load menu %s: %v", m.Name, err)
		}
		if !menu.IsActive {
			t.Fatalf("menu %s should be active", m.Name)
		}
		if menu.TargetRole != models.TargetRoleAll {
			t.Fatalf("menu %s: expected target role %s, got %s", m.Name, models.TargetRoleAll, menu.TargetRole)
		}
		if len(menu.Ingredients) != len(m.Items) {
			t.Fatalf("menu %s: expected %d composition rows, got %d", m.Name, len(m.Items), len(menu.Ingredients))
		}
		for _, comp := range menu.Ingredients {
			if comp.QuantityG == nil || *comp.QuantityG <= 0 {
				t.Fatalf("menu %s: composition row %d has no quantity", m.Name, comp.IngredientID)
			}
		}
	}
}
