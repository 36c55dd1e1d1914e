package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"nutribunda/internal/config"
	"nutribunda/internal/featureflags"
	"nutribunda/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeErrorBody(t *testing.T, resp *http.Response) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestServer_ScanFood_RequiresImage(t *testing.T) {
	s := &Server{config: &config.Config{JWTSecret: "test_secret"}}
	app := fiber.New()
	app.Post("/api/scan-food", s.ScanFood)

	t.Run("No Multipart Body", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/scan-food", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeErrorBody(t, resp)
		assert.Equal(t, models.CodeImageRequired, body.Error.Code)
	})

	t.Run("Wrong Field Name", func(t *testing.T) {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("photo", "lunch.jpg")
		require.NoError(t, err)
		_, err = part.Write([]byte("not-really-a-jpeg"))
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/scan-food", &buf)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeErrorBody(t, resp)
		assert.Equal(t, models.CodeImageRequired, body.Error.Code)
	})
}

func TestServer_ScanFood_FlaggedOff(t *testing.T) {
	s := &Server{
		config: &config.Config{JWTSecret: "test_secret"},
		flags:  featureflags.NewManager("scan_food=off"),
	}
	app := fiber.New()
	app.Post("/api/scan-food", s.ScanFood)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/scan-food", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body := decodeErrorBody(t, resp)
	assert.Equal(t, models.CodeFeatureDisabled, body.Error.Code)
}

func TestServer_CreateMealLog_Validation(t *testing.T) {
	s := &Server{config: &config.Config{JWTSecret: "test_secret"}}
	app := fiber.New()
	app.Post("/api/meal-log", s.CreateMealLog)

	tests := []struct {
		name            string
		body            string
		expectedMessage string
	}{
		{
			name:            "Missing Menu ID",
			body:            `{"servings": 1}`,
			expectedMessage: "menu_id is required",
		},
		{
			name:            "Zero Servings",
			body:            `{"menu_id": 3, "servings": 0}`,
			expectedMessage: "servings must be positive",
		},
		{
			name:            "Negative Servings",
			body:            `{"menu_id": 3, "servings": -2}`,
			expectedMessage: "servings must be positive",
		},
		{
			name:            "Bad Timestamp",
			body:            `{"menu_id": 3, "logged_at": "yesterday"}`,
			expectedMessage: "logged_at must be ISO 8601",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/meal-log", bytes.NewReader([]byte(tt.body)))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decodeErrorBody(t, resp)
			assert.Equal(t, tt.expectedMessage, body.Error.Message)
		})
	}
}

func TestServer_CreateFoodLogs_RejectsMalformedBody(t *testing.T) {
	s := &Server{config: &config.Config{JWTSecret: "test_secret"}}
	app := fiber.New()
	app.Post("/api/food-log", s.CreateFoodLogs)

	for _, body := range []string{"", "null", `{"items": "three"}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/food-log", bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		_ = resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body %q", body)
	}
}
