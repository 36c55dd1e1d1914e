// Command main runs the database seeder for NutriBunda.
package main

import (
	"flag"
	"log"

	"nutribunda/internal/config"
	"nutribunda/internal/database"
	"nutribunda/internal/seed"
)

func main() {
	// Parse command line flags
	numUsers := flag.Int("users", 25, "Number of users to create")
	logsPerUser := flag.Int("logs", 8, "Food logs to create per user")
	shouldClean := flag.Bool("clean", false, "Clean database before seeding")
	demoOnly := flag.Bool("demo-only", false, "Seed only roles, demo accounts, and the starter catalog")
	dryRun := flag.Bool("dry-run", false, "Log what would be created without writing anything")
	skipBcrypt := flag.Bool("skip-bcrypt", false, "Store plain passwords for faster large runs")
	maxDays := flag.Int("max-days", 90, "Spread generated history over this many days")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	if *demoOnly {
		log.Println("Target: demo catalog only")
	} else {
		log.Printf("Target: %d users, %d logs each, clean=%v", *numUsers, *logsPerUser, *shouldClean)
	}

	opts := seed.Options{
		NumUsers:    *numUsers,
		LogsPerUser: *logsPerUser,
		ShouldClean: *shouldClean,
		DryRun:      *dryRun,
		SkipBcrypt:  *skipBcrypt,
		MaxDays:     *maxDays,
	}

	// A dry run never opens a database connection.
	if *dryRun {
		if err := seed.Seed(nil, opts); err != nil {
			log.Fatalf("❌ Dry run failed: %v", err)
		}
		log.Println("✨ Dry run complete; nothing was written.")
		return
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *demoOnly {
		if err := seed.Demo(db); err != nil {
			log.Fatalf("❌ Demo seeding failed: %v", err)
		}
		log.Println("✨ Demo catalog ready.")
		log.Println("📧 user@example.com / secret · admin@example.com / adminpass")
		return
	}

	if err := seed.Seed(db, opts); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Println("📧 All generated users have the password: password123")
}
