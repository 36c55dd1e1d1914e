// Package test contains end-to-end tests that exercise the full HTTP stack:
// routing, middleware, handlers, services, and repositories against a real
// (in-memory) database.
package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"nutribunda/internal/config"
	"nutribunda/internal/database"
	"nutribunda/internal/models"
	"nutribunda/internal/seed"
	"nutribunda/internal/server"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type authUser struct {
	ID    uint
	Email string
	Token string
}

var (
	setupOnce sync.Once
	setupErr  error
	testApp   *fiber.App
	testDB    *gorm.DB
)

// newTestApp returns the shared in-process application. A single instance
// serves the whole package: the Prometheus middleware registers collectors
// on the default registry, which allows only one registration per process.
// Tests isolate themselves through unique accounts instead of fresh apps.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	setupOnce.Do(func() {
		// Rate limits are disabled in the test environment.
		if err := os.Setenv("APP_ENV", "test"); err != nil {
			setupErr = fmt.Errorf("set APP_ENV: %w", err)
			return
		}

		db, err := gorm.Open(sqlite.Open("file:nutribunda_e2e?mode=memory&cache=shared"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			setupErr = fmt.Errorf("open sqlite: %w", err)
			return
		}
		sqlDB, err := db.DB()
		if err != nil {
			setupErr = fmt.Errorf("unwrap sql.DB: %w", err)
			return
		}
		// One connection keeps the shared in-memory store alive for the
		// whole run and serializes writes, which sqlite wants anyway.
		sqlDB.SetMaxOpenConns(1)

		if err := db.AutoMigrate(database.PersistentModels()...); err != nil {
			setupErr = fmt.Errorf("migrate models: %w", err)
			return
		}
		// Demo catalog gives every test a populated menu and ingredient set.
		if err := seed.Demo(db); err != nil {
			setupErr = fmt.Errorf("seed demo data: %w", err)
			return
		}

		mr, err := miniredis.Run()
		if err != nil {
			setupErr = fmt.Errorf("start miniredis: %w", err)
			return
		}
		redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

		uploadDir, err := os.MkdirTemp("", "nutribunda-e2e-uploads")
		if err != nil {
			setupErr = fmt.Errorf("create upload dir: %w", err)
			return
		}

		cfg := &config.Config{
			Env:            "test",
			Port:           "5000",
			JWTSecret:      "e2e-test-secret-0123456789abcdef0123456789abcdef",
			ImageUploadDir: uploadDir,
		}

		srv, err := server.NewServerWithDeps(cfg, db, redisClient)
		if err != nil {
			setupErr = fmt.Errorf("new server: %w", err)
			return
		}

		app := fiber.New()
		srv.SetupMiddleware(app)
		srv.SetupRoutes(app)

		testApp = app
		testDB = db
	})

	if setupErr != nil {
		t.Fatalf("test app setup: %v", setupErr)
	}
	return testApp
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s_%d@example.com", prefix, time.Now().UnixNano())
}

// registerUser creates a fresh account through the public API and returns
// its credentials. The password is always "TestPass123!@#".
func registerUser(t *testing.T, app *fiber.App, prefix string) authUser {
	t.Helper()

	email := uniqueEmail(prefix)
	payload := map[string]string{
		"name":     "Test " + prefix,
		"email":    email,
		"password": "TestPass123!@#",
	}

	req := jsonReq(t, http.MethodPost, "/api/auth/register", payload)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("register app.Test: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register expected 201 got %d", resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if body.Token == "" || body.User.ID == 0 {
		t.Fatalf("invalid register response: %+v", body)
	}

	return authUser{ID: body.User.ID, Email: email, Token: body.Token}
}

// makeAdmin promotes an account to the ADMIN role directly in the database.
// The admin gate reads the role from the database on every request, so the
// user's existing token keeps working after promotion.
func makeAdmin(t *testing.T, userID uint) {
	t.Helper()
	err := testDB.Exec(
		`UPDATE users SET role_id = (SELECT id FROM roles WHERE name = ?) WHERE id = ?`,
		models.RoleAdmin, userID,
	).Error
	if err != nil {
		t.Fatalf("promote user to admin: %v", err)
	}
}

// setPregnancyPreference completes the preference flow for a user with a
// typical pregnant-mother profile.
func setPregnancyPreference(t *testing.T, app *fiber.App, user authUser) {
	t.Helper()

	payload := map[string]any{
		"role":      models.RolePregnant,
		"height_cm": 160,
		"weight_kg": 58.5,
		"age_year":  29,
		"hpht":      time.Now().AddDate(0, 0, -20*7).Format("2006-01-02"),
	}

	req := authReq(t, http.MethodPost, "/api/user/preference", user.Token, payload)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("set preference app.Test: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set preference expected 200 got %d", resp.StatusCode)
	}
}

func jsonReq(t *testing.T, method, path string, payload any) *http.Request {
	t.Helper()
	if payload == nil {
		return httptest.NewRequest(method, path, nil)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func authReq(t *testing.T, method, path, token string, payload any) *http.Request {
	t.Helper()
	req := jsonReq(t, method, path, payload)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// decodeBody decodes a JSON response body into out and closes it.
func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

// errorEnvelope is the standard error response shape.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
