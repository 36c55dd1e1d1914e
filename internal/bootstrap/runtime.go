// Package bootstrap initializes runtime dependencies shared by the server
// binary and the integration test harness.
package bootstrap

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"nutribunda/internal/cache"
	"nutribunda/internal/config"
	"nutribunda/internal/database"
	"nutribunda/internal/models"
	"nutribunda/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo loads the demo accounts, ingredient catalog, and starter
	// menus after the built-ins. Off for the production server; the seed
	// CLI and integration harness turn it on.
	SeedDemo bool
}

// InitRuntime connects to DB and Redis, seeds the built-in roles, and
// ensures the bootstrap admin account from configuration.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	// Connect DB
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	// Role names are part of the token contract; they must exist before the
	// first login.
	if err := seed.Roles(db); err != nil {
		return nil, nil, fmt.Errorf("failed to seed built-in roles: %w", err)
	}

	if err := ensureBootstrapAdmin(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap admin account: %w", err)
	}

	if opts.SeedDemo {
		if err := seed.Demo(db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

// ensureBootstrapAdmin creates or promotes the account named by
// ADMIN_EMAIL/ADMIN_PASSWORD. With either unset nothing happens. An existing
// account is promoted to admin; its password is left alone.
func ensureBootstrapAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	email := strings.TrimSpace(strings.ToLower(cfg.AdminEmail))
	password := cfg.AdminPassword
	if email == "" || password == "" {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var adminRole models.Role
		if err := tx.Where("name = ?", models.RoleAdmin).First(&adminRole).Error; err != nil {
			return fmt.Errorf("admin role missing: %w", err)
		}

		var account models.User
		findErr := tx.Where("email = ?", email).First(&account).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash admin password: %w", err)
			}
			account = models.User{
				Name:     "Admin",
				Email:    email,
				Password: string(hashed),
				RoleID:   &adminRole.ID,
			}
			if err := tx.Create(&account).Error; err != nil {
				return err
			}
			log.Printf("bootstrap admin account created (%s)", email)
		case findErr != nil:
			return findErr
		default:
			if account.RoleID == nil || *account.RoleID != adminRole.ID {
				err := tx.Model(&models.User{}).Where("id = ?", account.ID).
					Update("role_id", adminRole.ID).Error
				if err != nil {
					return err
				}
				log.Printf("bootstrap admin account promoted (%s)", email)
			}
		}
		return nil
	})
}
