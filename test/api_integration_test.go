package test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	user := registerUser(t, app, "reglogin")

	loginReq := jsonReq(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    user.Email,
		"password": "TestPass123!@#",
	})
	res, err := app.Test(loginReq, -1)
	require.NoError(t, err)

	var login struct {
		Token string `json:"token"`
		User  struct {
			ID    uint   `json:"id"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
		HasPreferences   bool `json:"has_preferences"`
		NeedsPreferences bool `json:"needs_preferences"`
	}
	assert.Equal(t, http.StatusOK, res.StatusCode)
	decodeBody(t, res, &login)

	assert.NotEmpty(t, login.Token)
	assert.Equal(t, user.ID, login.User.ID)
	assert.Equal(t, user.Email, login.User.Email)
	assert.False(t, login.HasPreferences)
	assert.True(t, login.NeedsPreferences)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app := newTestApp(t)
	user := registerUser(t, app, "badcreds")

	// Wrong password and unknown email must be indistinguishable so the
	// endpoint cannot be used to probe which emails have accounts.
	cases := []struct {
		name  string
		email string
	}{
		{"WrongPassword", user.Email},
		{"UnknownEmail", uniqueEmail("ghost")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := jsonReq(t, http.MethodPost, "/api/auth/login", map[string]string{
				"email":    tc.email,
				"password": "definitely-wrong",
			})
			res, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

			var envelope errorEnvelope
			decodeBody(t, res, &envelope)
			assert.Equal(t, "INVALID_CREDENTIALS", envelope.Error.Code)
			assert.Equal(t, "Email or password incorrect", envelope.Error.Message)
		})
	}
}

func TestFullAPIFlow(t *testing.T) {
	app := newTestApp(t)
	user := registerUser(t, app, "fullflow")

	t.Run("StatusBeforePreferences", func(t *testing.T) {
		req := authReq(t, http.MethodGet, "/api/auth/preferences-status", user.Token, nil)
		res, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var status struct {
			HasPreferences   bool `json:"has_preferences"`
			NeedsPreferences bool `json:"needs_preferences"`
		}
		decodeBody(t, res, &status)
		assert.False(t, status.HasPreferences)
		assert.True(t, status.NeedsPreferences)
	})

	t.Run("DashboardBlockedBeforePreferences", func(t *testing.T) {
		req := authReq(t, http.MethodGet, "/api/user/dashboard", user.Token, nil)
		res, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, res.StatusCode)

		var envelope errorEnvelope
		decodeBody(t, res, &envelope)
		assert.Equal(t, "PREFERENCE_REQUIRED", envelope.Error.Code)
	})

	t.Run("SetPreferences", func(t *testing.T) {
		setPregnancyPreference(t, app, user)

		req := authReq(t, http.MethodGet, "/api/auth/preferences-status", user.Token, nil)
		res, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var status struct {
			HasPreferences   bool `json:"has_preferences"`
			NeedsPreferences bool `json:"needs_preferences"`
		}
		decodeBody(t, res, &status)
		assert.True(t, status.HasPreferences)
		assert.False(t, status.NeedsPreferences)
	})

	t.Run("GetPreference", func(t *testing.T) {
		req := authReq(t, http.MethodGet, "/api/user/preference", user.Token, nil)
		res, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var pref struct {
			Role          string `json:"role"`
			CalorieTarget int    `json:"calorie_target"`
			HeightCm      *int   `json:"height_cm"`
		}
		decodeBody(t, res, &pref)
		assert.Equal(t, "IBU_HAMIL", pref.Role)
		assert.Greater(t, pref.CalorieTarget, 0)
		require.NotNil(t, pref.HeightCm)
		assert.Equal(t, 160, *pref.HeightCm)
	})

	t.Run("Dashboard", func(t *testing.T) {
		req := authReq(t, http.MethodGet, "/api/user/dashboard", user.Token, nil)
		res, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var dashboard struct {
			User struct {
				Name string `json:"name"`
				Role string `json:"role"`
			} `json:"user"`
			Targets struct {
				Calories int `json:"calories"`
			} `json:"targets"`
		}
		decodeBody(t, res, &dashboard)
		assert.Equal(t, "IBU_HAMIL", dashboard.User.Role)
		assert.Greater(t, dashboard.Targets.Calories, 0)
	})

	// The demo catalog seeds "Nasi putih" at 130 kcal per 100 g.
	var nasiID uint
	t.Run("Ingredients", func(t *testing.T) {
		req := authReq(t, http.MethodGet, "/api/ingredients", user.Token, nil)
		res, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var ingredients []struct {
			ID       uint   `json:"id"`
			Name     string `json:"name"`
			Calories int    `json:"calories"`
		}
		decodeBody(t, res, &ingredients)
		require.NotEmpty(t, ingredients)

		for _, ing := range ingredients {
			if ing.Name == "Nasi putih" {
				nasiID = ing.ID
				assert.Equal(t, 130, ing.Calories)
			}
		}
		require.NotZero(t, nasiID, "demo catalog should contain Nasi putih")
	})

	t.Run("FoodLog", func(t *testing.T) {
		req := authReq(t, http.MethodPost, "/api/food-log", user.Token, map[string]any{
			"items": []map[string]any{
				{"ingredient_id": nasiID, "quantity_g": 150},
			},
		})
		res, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, res.StatusCode)

		var created struct {
			CreatedCount int `json:"created_count"`
		}
		decodeBody(t, res, &created)
		assert.Equal(t, 1, created.CreatedCount)

		listReq := authReq(t, http.MethodGet, "/api/food-log", user.Token, nil)
		listRes, err := app.Test(listReq, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, listRes.StatusCode)

		var items []struct {
			IngredientID uint    `json:"ingredient_id"`
			QuantityG    float64 `json:"quantity_g"`
			Calories     int     `json:"calories"`
		}
		decodeBody(t, listRes, &items)
		require.Len(t, items, 1)
		assert.Equal(t, nasiID, items[0].IngredientID)
		assert.Equal(t, 150.0, items[0].QuantityG)
		// 130 kcal per 100 g at 150 g, truncated.
		assert.Equal(t, 195, items[0].Calories)
	})

	var menuID uint
	t.Run("Menus", func(t *testing.T) {
		req := authReq(t, http.MethodGet, "/api/menus", user.Token, nil)
		res, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var list struct {
			Items []struct {
				ID       uint   `json:"id"`
				Name     string `json:"name"`
				MealType string `json:"meal_type"`
			} `json:"items"`
			Total int64 `json:"total"`
		}
		decodeBody(t, res, &list)
		require.NotEmpty(t, list.Items)

		for _, item := range list.Items {
			if item.MealType == "BREAKFAST" {
				menuID = item.ID
			}
		}
		require.NotZero(t, menuID, "demo catalog should contain a breakfast menu")
	})

	t.Run("MealLog", func(t *testing.T) {
		req := authReq(t, http.MethodPost, "/api/meal-log", user.Token, map[string]any{
			"menu_id": menuID,
		})
		res, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, res.StatusCode)

		var entry struct {
			MealLogID  uint    `json:"meal_log_id"`
			MenuID     uint    `json:"menu_id"`
			Servings   float64 `json:"servings"`
			IsConsumed bool    `json:"is_consumed"`
		}
		decodeBody(t, res, &entry)
		assert.NotZero(t, entry.MealLogID)
		assert.Equal(t, menuID, entry.MenuID)
		assert.Equal(t, 1.0, entry.Servings)
		assert.False(t, entry.IsConsumed)

		consumeReq := authReq(t, http.MethodPost,
			"/api/meal-log/"+itoa(entry.MealLogID)+"/consume", user.Token, nil)
		consumeRes, err := app.Test(consumeReq, -1)
		require.NoError(t, err)
		defer func() { _ = consumeRes.Body.Close() }()
		assert.Equal(t, http.StatusOK, consumeRes.StatusCode)

		listReq := authReq(t, http.MethodGet, "/api/meal-log", user.Token, nil)
		listRes, err := app.Test(listReq, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, listRes.StatusCode)

		var entries []struct {
			MealLogID  uint `json:"meal_log_id"`
			IsConsumed bool `json:"is_consumed"`
		}
		decodeBody(t, listRes, &entries)
		require.NotEmpty(t, entries)
		assert.Equal(t, entry.MealLogID, entries[0].MealLogID)
		assert.True(t, entries[0].IsConsumed)
	})

	t.Run("Recommendation", func(t *testing.T) {
		req := authReq(t, http.MethodGet, "/api/recommendation", user.Token, nil)
		res, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var plan struct {
			UserID    uint   `json:"user_id"`
			StartDate string `json:"start_date"`
			Days      []struct {
				Date  string `json:"date"`
				Meals []any  `json:"meals"`
			} `json:"days"`
		}
		decodeBody(t, res, &plan)
		assert.Equal(t, user.ID, plan.UserID)
		assert.NotEmpty(t, plan.StartDate)
		require.Len(t, plan.Days, 1)
		assert.NotEmpty(t, plan.Days[0].Meals)
	})

	t.Run("RecommendationPlan", func(t *testing.T) {
		req := authReq(t, http.MethodGet, "/api/recommendation/plan?days=3", user.Token, nil)
		res, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var plan struct {
			Days []struct {
				Date string `json:"date"`
			} `json:"days"`
		}
		decodeBody(t, res, &plan)
		assert.Len(t, plan.Days, 3)
	})

	t.Run("Feedback", func(t *testing.T) {
		req := authReq(t, http.MethodPost, "/api/feedback", user.Token, map[string]any{
			"rating":  5,
			"comment": "Aplikasi sangat membantu",
		})
		res, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, res.StatusCode)

		var item struct {
			ID     uint `json:"id"`
			Rating int  `json:"rating"`
		}
		decodeBody(t, res, &item)
		assert.NotZero(t, item.ID)
		assert.Equal(t, 5, item.Rating)

		listReq := authReq(t, http.MethodGet, "/api/feedback/me", user.Token, nil)
		listRes, err := app.Test(listReq, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, listRes.StatusCode)

		var mine []struct {
			ID uint `json:"id"`
		}
		decodeBody(t, listRes, &mine)
		require.NotEmpty(t, mine)
		assert.Equal(t, item.ID, mine[0].ID)
	})
}

func itoa(i uint) string {
	return fmt.Sprintf("%d", i)
}
