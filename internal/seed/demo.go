package seed

import (
	"errors"
	"fmt"

	"nutribunda/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// demoIngredients is the starter catalog. The two historical seed scripts
// carried overlapping rows ("Telur" vs "Telur Rebus", "Nasi putih" vs
// "Nasi Putih"); those variants are folded into alt_names so the unique name
// index stays meaningful and the scanner still matches every old label.
var demoIngredients = []models.FoodIngredient{
	{Name: "Oat", Calories: 389, ProteinG: 16.9, CarbsG: 66.3, FatG: 6.9},
	{Name: "Telur", AltNames: "telur rebus,boiled egg", Calories: 155, ProteinG: 13.0, CarbsG: 1.1, FatG: 11.0},
	{Name: "Pisang", Calories: 89, ProteinG: 1.1, CarbsG: 22.8, FatG: 0.3},
	{Name: "Ayam panggang", AltNames: "daging ayam,chicken meat", Calories: 239, ProteinG: 27.3, CarbsG: 0.0, FatG: 13.6},
	{Name: "Nasi putih", AltNames: "white rice", Calories: 130, ProteinG: 2.7, CarbsG: 28.0, FatG: 0.3},
	{Name: "Sayur campur", Calories: 40, ProteinG: 2.0, CarbsG: 7.0, FatG: 0.3},
	{Name: "Wortel", AltNames: "carrot", Calories: 41, ProteinG: 0.9, CarbsG: 10.0, FatG: 0.2},
}

type demoMenuItem struct {
	Ingredient string
	Grams      float64
}

type demoMenu struct {
	Name     string
	MealType string
	Tags     string
	Items    []demoMenuItem
}

var demoMenus = []demoMenu{
	{
		Name:     "Oat + Telur + Pisang",
		MealType: models.MealTypeBreakfast,
		Tags:     "umum,ibu_hamil",
		Items: []demoMenuItem{
			{Ingredient: "Oat", Grams: 60},
			{Ingredient: "Telur", Grams: 50},
			{Ingredient: "Pisang", Grams: 100},
		},
	},
	{
		Name:     "Nasi + Ayam + Sayur",
		MealType: models.MealTypeLunch,
		Tags:     "umum,protein",
		Items: []demoMenuItem{
			{Ingredient: "Nasi putih", Grams: 200},
			{Ingredient: "Ayam panggang", Grams: 120},
			{Ingredient: "Sayur campur", Grams: 100},
		},
	},
}

// Demo seeds the accounts, ingredient catalog, and starter menus the mobile
// team works against in a fresh development database. Safe to run repeatedly.
func Demo(db *gorm.DB) error {
	if err := Roles(db); err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := ensureDemoUser(tx, "User Demo", "user@example.com", "secret", models.RolePregnant); err != nil {
			return err
		}
		if err := ensureDemoUser(tx, "Admin User", "admin@example.com", "adminpass", models.RoleAdmin); err != nil {
			return err
		}

		if err := ensureIngredients(tx); err != nil {
			return err
		}

		for _, m := range demoMenus {
			if err := ensureMenu(tx, m); err != nil {
				return fmt.Errorf("seed demo menu %s: %w", m.Name, err)
			}
		}

		return nil
	})
}

func ensureDemoUser(tx *gorm.DB, name, email, password, roleName string) error {
	var existing models.User
	err := tx.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	var role models.Role
	if err := tx.Where("name = ?", roleName).First(&role).Error; err != nil {
		return fmt.Errorf("role %s missing while seeding %s: %w", roleName, email, err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password for %s: %w", email, err)
	}

	user := models.User{
		Name:     name,
		Email:    email,
		Password: string(hashed),
		RoleID:   &role.ID,
	}
	return tx.Create(&user).Error
}

func ensureIngredients(tx *gorm.DB) error {
	for _, ing := range demoIngredients {
		row := ing
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&row).Error; err != nil {
			return fmt.Errorf("seed ingredient %s: %w", ing.Name, err)
		}
	}
	return nil
}

func ensureMenu(tx *gorm.DB, m demoMenu) error {
	var existing models.FoodMenu
	err := tx.Where("name = ?", m.Name).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	menu := models.FoodMenu{
		Name:       m.Name,
		MealType:   m.MealType,
		Tags:       m.Tags,
		TargetRole: models.TargetRoleAll,
		IsActive:   true,
	}
	if err := tx.Create(&menu).Error; err != nil {
		return err
	}

	for _, item := range m.Items {
		var ing models.FoodIngredient
		if err := tx.Where("name = ?", item.Ingredient).First(&ing).Error; err != nil {
			return fmt.Errorf("unknown ingredient %s: %w", item.Ingredient, err)
		}
		grams := item.Grams
		link := models.FoodMenuIngredient{
			MenuID:       menu.ID,
			IngredientID: ing.ID,
			QuantityG:    &grams,
		}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
	}

	return nil
}
