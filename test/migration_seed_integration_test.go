//go:build integration

package test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"nutribunda/internal/bootstrap"
	"nutribunda/internal/config"
	"nutribunda/internal/database"
	"nutribunda/internal/models"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func pgSettings() (host, port, user, password string) {
	host = getEnvOrDefault("DB_HOST", "localhost")
	port = getEnvOrDefault("DB_PORT", "5432")
	user = getEnvOrDefault("DB_USER", "postgres")
	password = getEnvOrDefault("DB_PASSWORD", "postgres")
	return
}

// newEphemeralDB creates a throwaway database on the local Postgres and
// returns a config pointing at it. The database is dropped on cleanup. Tests
// skip when no server is reachable.
func newEphemeralDB(t *testing.T) *config.Config {
	t.Helper()

	host, port, user, password := pgSettings()
	maintenanceDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=postgres sslmode=disable",
		host, port, user, password)

	maint, err := sql.Open("pgx", maintenanceDSN)
	if err != nil {
		t.Fatalf("open maintenance connection: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := maint.PingContext(ctx); err != nil {
		_ = maint.Close()
		t.Skipf("postgres not reachable at %s:%s, skipping: %v", host, port, err)
	}

	dbName := fmt.Sprintf("nutribunda_it_%d", time.Now().UnixNano())
	if _, err := maint.ExecContext(ctx, "CREATE DATABASE "+dbName); err != nil {
		_ = maint.Close()
		t.Fatalf("create database %s: %v", dbName, err)
	}

	t.Cleanup(func() {
		dropCtx, dropCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer dropCancel()
		// Kick out lingering connections so the drop cannot hang.
		_, _ = maint.ExecContext(dropCtx,
			"SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1 AND pid <> pg_backend_pid()", dbName)
		if _, err := maint.ExecContext(dropCtx, "DROP DATABASE IF EXISTS "+dbName); err != nil {
			t.Errorf("drop database %s: %v", dbName, err)
		}
		_ = maint.Close()
	})

	return &config.Config{
		DBHost:                   host,
		DBPort:                   port,
		DBUser:                   user,
		DBPassword:               password,
		DBName:                   dbName,
		DBSSLMode:                "disable",
		Env:                      "test",
		DBSchemaMode:             "sql",
		DBConnMaxLifetimeMinutes: 5,
	}
}

// openBareDB opens the ephemeral database without applying any schema, so the
// test controls exactly which migrations have run.
func openBareDB(t *testing.T, cfg *config.Config) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open gorm: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestMigrationsRoundTrip(t *testing.T) {
	cfg := newEphemeralDB(t)
	db := openBareDB(t, cfg)
	ctx := context.Background()

	// 1. A fresh database migrates cleanly.
	if err := database.RunMigrations(ctx, db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	tables := []string{
		"roles", "users", "user_preferences",
		"food_ingredients", "food_menus", "food_menu_ingredients",
		"food_logs", "food_meal_logs", "food_meal_log_items",
		"articles", "feedbacks", "media_images", "migration_logs",
	}
	for _, table := range tables {
		var count int64
		err := db.Raw("SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'public' AND table_name = ?", table).
			Scan(&count).Error
		if err != nil {
			t.Fatalf("check table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("table %s missing after migrations", table)
		}
	}

	// 2. The food log source FK exists under its declared name and is SET NULL.
	var constraintDef string
	err := db.Raw("SELECT pg_get_constraintdef(oid) FROM pg_constraint WHERE conname = 'fk_food_logs_source_menu'").
		Scan(&constraintDef).Error
	if err != nil {
		t.Fatalf("read constraint: %v", err)
	}
	if constraintDef == "" {
		t.Fatal("constraint fk_food_logs_source_menu not found")
	}
	if !strings.Contains(constraintDef, "food_menus") || !strings.Contains(constraintDef, "SET NULL") {
		t.Fatalf("unexpected constraint definition: %s", constraintDef)
	}

	// 3. Deleting a menu nulls the reference instead of deleting the log.
	user := models.User{Name: "Ibu Migrasi", Email: "migrasi@example.com", Password: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	ingredient := models.FoodIngredient{Name: "Bubur kacang hijau", Calories: 102}
	if err := db.Create(&ingredient).Error; err != nil {
		t.Fatalf("create ingredient: %v", err)
	}
	menu := models.FoodMenu{Name: "Sarapan Kacang Hijau", MealType: models.MealTypeBreakfast, TargetRole: models.TargetRoleAll, IsActive: true}
	if err := db.Create(&menu).Error; err != nil {
		t.Fatalf("create menu: %v", err)
	}
	entry := models.FoodLog{
		UserID:       user.ID,
		IngredientID: ingredient.ID,
		QuantityG:    200,
		SourceMenuID: &menu.ID,
		LoggedAt:     time.Now().UTC(),
	}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("create food log: %v", err)
	}

	if err := db.Exec("DELETE FROM food_menus WHERE id = ?", menu.ID).Error; err != nil {
		t.Fatalf("delete menu: %v", err)
	}

	var got models.FoodLog
	if err := db.First(&got, entry.ID).Error; err != nil {
		t.Fatalf("reload food log: %v", err)
	}
	if got.SourceMenuID != nil {
		t.Errorf("expected source_menu_id nulled after menu delete, got %v", *got.SourceMenuID)
	}

	// 4. Rolling back the source-menu migration drops the column.
	if err := database.RollbackMigration(ctx, db, 3); err != nil {
		t.Fatalf("rollback migration 3: %v", err)
	}
	var columnCount int64
	err = db.Raw("SELECT COUNT(*) FROM information_schema.columns WHERE table_name = 'food_logs' AND column_name = 'source_menu_id'").
		Scan(&columnCount).Error
	if err != nil {
		t.Fatalf("check column: %v", err)
	}
	if columnCount != 0 {
		t.Error("source_menu_id column still present after rollback")
	}

	// 5. Re-running migrations restores it.
	if err := database.RunMigrations(ctx, db); err != nil {
		t.Fatalf("re-run migrations: %v", err)
	}
	err = db.Raw("SELECT COUNT(*) FROM information_schema.columns WHERE table_name = 'food_logs' AND column_name = 'source_menu_id'").
		Scan(&columnCount).Error
	if err != nil {
		t.Fatalf("re-check column: %v", err)
	}
	if columnCount != 1 {
		t.Error("source_menu_id column missing after re-migrate")
	}
}

func TestRuntimeBootstrap(t *testing.T) {
	cfg := newEphemeralDB(t)

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	cfg.RedisURL = mr.Addr()
	cfg.AdminEmail = "ops@example.com"
	cfg.AdminPassword = "ops-password-123"

	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedDemo: true})
	if err != nil {
		t.Fatalf("init runtime: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		t.Cleanup(func() { _ = sqlDB.Close() })
	}
	if rdb == nil {
		t.Fatal("expected a live redis client")
	}

	// Built-in roles are seeded before any login can happen.
	var roleCount int64
	if err := db.Model(&models.Role{}).Count(&roleCount).Error; err != nil {
		t.Fatalf("count roles: %v", err)
	}
	if roleCount != 4 {
		t.Fatalf("expected 4 built-in roles, got %d", roleCount)
	}

	// The bootstrap admin from config exists and holds the admin role.
	var ops models.User
	if err := db.Preload("Role").Where("email = ?", "ops@example.com").First(&ops).Error; err != nil {
		t.Fatalf("load bootstrap admin: %v", err)
	}
	if ops.RoleName() != models.RoleAdmin {
		t.Errorf("expected bootstrap admin role %s, got %q", models.RoleAdmin, ops.RoleName())
	}

	// Demo accounts ride along when SeedDemo is set.
	for _, email := range []string{"user@example.com", "admin@example.com"} {
		var count int64
		if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			t.Fatalf("count %s: %v", email, err)
		}
		if count != 1 {
			t.Errorf("expected demo account %s, found %d", email, count)
		}
	}

	var ingredientCount int64
	if err := db.Model(&models.FoodIngredient{}).Count(&ingredientCount).Error; err != nil {
		t.Fatalf("count ingredients: %v", err)
	}
	if ingredientCount < 7 {
		t.Errorf("expected at least 7 demo ingredients, got %d", ingredientCount)
	}

	var menuCount int64
	if err := db.Model(&models.FoodMenu{}).Count(&menuCount).Error; err != nil {
		t.Fatalf("count menus: %v", err)
	}
	if menuCount == 0 {
		t.Error("expected demo menus, got none")
	}
}
