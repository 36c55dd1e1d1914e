package seed

import (
	"fmt"
	"log"

	"nutribunda/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder.
type Options struct {
	NumUsers    int
	LogsPerUser int
	ShouldClean bool
	DryRun      bool
	SkipBcrypt  bool
	MaxDays     int
}

// roleShare is one slice of the seeded population.
type roleShare struct {
	Role  string
	Share int // percent
}

// defaultDistribution mirrors the app's real audience mix: mostly pregnant
// users, then lactating mothers, then toddler caregivers.
var defaultDistribution = []roleShare{
	{Role: models.RolePregnant, Share: 50},
	{Role: models.RoleLactating, Share: 30},
	{Role: models.RoleToddler, Share: 20},
}

// computeCounts splits total across the distribution by share, handing the
// rounding remainder to the first entry so the counts always sum to total.
func computeCounts(total int, dist []roleShare) map[string]int {
	counts := make(map[string]int, len(dist))
	assigned := 0
	for _, d := range dist {
		n := total * d.Share / 100
		counts[d.Role] = n
		assigned += n
	}
	if len(dist) > 0 {
		counts[dist[0].Role] += total - assigned
	}
	return counts
}

// Seed populates the database with volume test data: users with role-shaped
// profiles, food logs, meal logs, and feedback. The demo catalog (roles,
// demo accounts, ingredients, menus) is ensured first so the generated logs
// have rows to reference.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d users...", opts.NumUsers)

	// Clear existing data to avoid conflicts if requested
	if opts.ShouldClean && !opts.DryRun {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	if !opts.DryRun {
		if err := Demo(db); err != nil {
			return fmt.Errorf("failed to seed demo catalog: %w", err)
		}
	}

	factory := NewFactory(db, opts)

	var ingredients []models.FoodIngredient
	var menus []models.FoodMenu
	if opts.DryRun {
		for i, ing := range demoIngredients {
			ing.ID = uint(i + 1)
			ingredients = append(ingredients, ing)
		}
	} else {
		if err := db.Find(&ingredients).Error; err != nil {
			return fmt.Errorf("failed to load ingredient catalog: %w", err)
		}
		if err := db.Preload("Ingredients.Ingredient").Find(&menus).Error; err != nil {
			return fmt.Errorf("failed to load menus: %w", err)
		}
	}

	counts := computeCounts(opts.NumUsers, defaultDistribution)
	users := make([]*models.User, 0, opts.NumUsers)
	for _, d := range defaultDistribution {
		for i := 0; i < counts[d.Role]; i++ {
			user, err := factory.CreateUser(d.Role)
			if err != nil {
				log.Printf("Failed to create user: %v", err)
				continue
			}
			if _, err := factory.CreatePreference(user, d.Role); err != nil {
				return fmt.Errorf("failed to create preference: %w", err)
			}
			users = append(users, user)

			if len(users)%100 == 0 {
				log.Printf("Created %d users...", len(users))
			}
		}
	}
	log.Printf("✓ %d test users created", len(users))

	logsPerUser := opts.LogsPerUser
	if logsPerUser <= 0 {
		logsPerUser = 8
	}
	if len(ingredients) == 0 {
		log.Println("⚠️  No ingredients available, skipping food logs")
	} else {
		logged := 0
		for _, user := range users {
			for i := 0; i < logsPerUser; i++ {
				ing := &ingredients[factory.r.Intn(len(ingredients))]
				if _, err := factory.CreateFoodLog(user, ing); err != nil {
					return fmt.Errorf("failed to create food logs: %w", err)
				}
				logged++
			}
		}
		log.Printf("✓ %d food logs created", logged)
	}

	if len(menus) > 0 {
		mealLogs := 0
		for _, user := range users {
			n := 1 + factory.r.Intn(3)
			for i := 0; i < n; i++ {
				menu := &menus[factory.r.Intn(len(menus))]
				if _, err := factory.CreateMealLog(user, menu); err != nil {
					return fmt.Errorf("failed to create meal logs: %w", err)
				}
				mealLogs++
			}
		}
		log.Printf("✓ %d meal logs created", mealLogs)
	}

	feedbacks := 0
	for _, user := range users {
		if factory.r.Intn(5) < 2 {
			if _, err := factory.CreateFeedback(user); err != nil {
				return fmt.Errorf("failed to create feedback: %w", err)
			}
			feedbacks++
		}
	}
	log.Printf("✓ %d feedback entries created", feedbacks)

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	// Roles are deliberately left alone; they are built-ins, not data.
	sql := `TRUNCATE TABLE food_meal_log_items, food_meal_logs, food_logs, food_menu_ingredients, food_menus, food_ingredients, feedbacks, user_preferences, media_images, articles, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}
