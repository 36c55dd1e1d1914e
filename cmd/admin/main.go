// Package main provides admin account management utilities for NutriBunda.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"nutribunda/internal/config"
	"nutribunda/internal/database"
	"nutribunda/internal/models"
	"nutribunda/internal/seed"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin/main.go create <name> <email> <password>  - Create an admin account")
		fmt.Println("  go run ./cmd/admin/main.go promote <user_id>                 - Promote user to admin")
		fmt.Println("  go run ./cmd/admin/main.go demote <user_id> <role>           - Move an admin to the given role")
		fmt.Println("  go run ./cmd/admin/main.go list-admins                       - List all admins")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// The role rows must exist before any assignment.
	if err := seed.Roles(db); err != nil {
		log.Fatalf("Failed to ensure built-in roles: %v", err)
	}

	command := os.Args[1]

	switch command {
	case "create":
		if len(os.Args) < 5 {
			fmt.Println("Usage: go run ./cmd/admin/main.go create <name> <email> <password>")
			os.Exit(1)
		}
		createAdmin(db, os.Args[2], os.Args[3], os.Args[4])

	case "promote":
		if len(os.Args) < 3 {
			fmt.Println("Usage: go run ./cmd/admin/main.go promote <user_id>")
			os.Exit(1)
		}
		assignRole(db, os.Args[2], models.RoleAdmin)

	case "demote":
		if len(os.Args) < 4 {
			fmt.Println("Usage: go run ./cmd/admin/main.go demote <user_id> <role>")
			fmt.Printf("Roles: %s, %s, %s\n", models.RolePregnant, models.RoleLactating, models.RoleToddler)
			os.Exit(1)
		}
		roleName := strings.ToUpper(os.Args[3])
		if roleName == models.RoleAdmin {
			fmt.Println("Demoting to ADMIN makes no sense; pick a user role")
			os.Exit(1)
		}
		assignRole(db, os.Args[2], roleName)

	case "list-admins":
		listAdmins(db)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func createAdmin(db *gorm.DB, name, email, password string) {
	email = strings.TrimSpace(strings.ToLower(email))

	var existing models.User
	err := db.Preload("Role").Where("email = ?", email).First(&existing).Error
	if err == nil {
		if existing.IsAdmin() {
			fmt.Printf("User %s (ID: %d) is already an admin\n", existing.Email, existing.ID)
		} else {
			fmt.Printf("User %s (ID: %d) already exists; use promote instead\n", existing.Email, existing.ID)
		}
		os.Exit(1)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("Database error: %v", err)
	}

	var adminRole models.Role
	if err := db.Where("name = ?", models.RoleAdmin).First(&adminRole).Error; err != nil {
		log.Fatalf("Failed to load admin role: %v", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user := models.User{
		Name:     name,
		Email:    email,
		Password: string(hashed),
		RoleID:   &adminRole.ID,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}

	fmt.Printf("✅ Admin account created: %s (ID: %d)\n", user.Email, user.ID)
}

func assignRole(db *gorm.DB, userID, roleName string) {
	var user models.User
	if err := db.Preload("Role").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Printf("User with ID %s not found\n", userID)
		} else {
			log.Fatalf("Database error: %v", err)
		}
		os.Exit(1)
	}

	if user.RoleName() == roleName {
		fmt.Printf("User %s (ID: %d) already holds role %s\n", user.Email, user.ID, roleName)
		return
	}

	var role models.Role
	if err := db.Where("name = ?", roleName).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Printf("Unknown role %s\n", roleName)
			os.Exit(1)
		}
		log.Fatalf("Database error: %v", err)
	}

	err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("role_id", role.ID).Error
	if err != nil {
		log.Fatalf("Failed to update role: %v", err)
	}

	fmt.Printf("✅ Successfully moved %s (ID: %d) to role %s\n", user.Email, user.ID, roleName)
}

func listAdmins(db *gorm.DB) {
	var admins []models.User
	err := db.Joins("JOIN roles ON roles.id = users.role_id").
		Where("roles.name = ?", models.RoleAdmin).
		Find(&admins).Error
	if err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return
	}

	fmt.Println("\n📋 Current Admins:")
	fmt.Println("─────────────────────────────────────")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Name: %s | Email: %s\n", admin.ID, admin.Name, admin.Email)
	}
	fmt.Println("─────────────────────────────────────")
}
