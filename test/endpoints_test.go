package test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileEndpoints(t *testing.T) {
	app := newTestApp(t)
	user := registerUser(t, app, "profile")

	type profile struct {
		ID     uint    `json:"id"`
		Name   string  `json:"name"`
		Email  string  `json:"email"`
		Avatar string  `json:"avatar"`
		Role   *string `json:"role"`
	}

	t.Run("Get Profile", func(t *testing.T) {
		resp, err := app.Test(authReq(t, http.MethodGet, "/api/user/profile", user.Token, nil), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got profile
		decodeBody(t, resp, &got)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, user.Email, got.Email)
		assert.Nil(t, got.Role)
	})

	t.Run("Update Name", func(t *testing.T) {
		resp, err := app.Test(authReq(t, http.MethodPut, "/api/user/profile", user.Token,
			map[string]any{"name": "Bunda Sari"}), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got profile
		decodeBody(t, resp, &got)
		assert.Equal(t, "Bunda Sari", got.Name)
		assert.Equal(t, user.Email, got.Email)
	})

	t.Run("Update Avatar", func(t *testing.T) {
		resp, err := app.Test(authReq(t, http.MethodPut, "/api/user/avatar", user.Token,
			map[string]any{"avatar": "https://cdn.example.com/avatars/1.webp"}), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got struct {
			UserID uint   `json:"user_id"`
			Avatar string `json:"avatar"`
		}
		decodeBody(t, resp, &got)
		assert.Equal(t, user.ID, got.UserID)
		assert.Equal(t, "https://cdn.example.com/avatars/1.webp", got.Avatar)
	})

	t.Run("Update Avatar Legacy Key", func(t *testing.T) {
		// Older app builds send avatar_url instead of avatar.
		resp, err := app.Test(authReq(t, http.MethodPut, "/api/user/avatar", user.Token,
			map[string]any{"avatar_url": "https://cdn.example.com/avatars/2.webp"}), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		profResp, err := app.Test(authReq(t, http.MethodGet, "/api/user/profile", user.Token, nil), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, profResp.StatusCode)

		var got profile
		decodeBody(t, profResp, &got)
		assert.Equal(t, "https://cdn.example.com/avatars/2.webp", got.Avatar)
	})
}

func TestPreferenceMissingReturns404(t *testing.T) {
	app := newTestApp(t)
	user := registerUser(t, app, "nopref")

	resp, err := app.Test(authReq(t, http.MethodGet, "/api/user/preference", user.Token, nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body errorEnvelope
	decodeBody(t, resp, &body)
	assert.Equal(t, "PREFERENCE_NOT_FOUND", body.Error.Code)
}

func TestArticleLifecycle(t *testing.T) {
	app := newTestApp(t)
	admin := registerUser(t, app, "editor")
	makeAdmin(t, admin.ID)

	type article struct {
		ID          uint    `json:"id"`
		Title       string  `json:"title"`
		Slug        string  `json:"slug"`
		Status      string  `json:"status"`
		Content     string  `json:"content"`
		PublishedAt *string `json:"published_at"`
	}
	type articleList struct {
		Items []article `json:"items"`
	}

	title := fmt.Sprintf("Gizi Seimbang Trimester Kedua %d", admin.ID)
	var created article

	t.Run("Create Draft", func(t *testing.T) {
		resp, err := app.Test(authReq(t, http.MethodPost, "/api/articles", admin.Token, map[string]any{
			"title":   title,
			"content": "Kebutuhan protein meningkat pada trimester kedua.",
			"excerpt": "Ringkasan kebutuhan gizi trimester kedua.",
			"status":  "draft",
		}), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		decodeBody(t, resp, &created)
		assert.NotZero(t, created.ID)
		assert.NotEmpty(t, created.Slug)
		assert.Equal(t, "draft", created.Status)
		assert.Nil(t, created.PublishedAt)
	})

	t.Run("Draft Hidden From Public Feed", func(t *testing.T) {
		resp, err := app.Test(jsonReq(t, http.MethodGet, "/api/public/articles?limit=100", nil), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var list articleList
		decodeBody(t, resp, &list)
		for _, item := range list.Items {
			assert.NotEqual(t, created.Slug, item.Slug)
		}
	})

	t.Run("Publish", func(t *testing.T) {
		resp, err := app.Test(authReq(t, http.MethodPut, "/api/articles/"+itoa(created.ID), admin.Token,
			map[string]any{"status": "published"}), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var updated article
		decodeBody(t, resp, &updated)
		assert.Equal(t, "published", updated.Status)
		require.NotNil(t, updated.PublishedAt)
	})

	t.Run("Public Feed Lists It", func(t *testing.T) {
		resp, err := app.Test(jsonReq(t, http.MethodGet, "/api/public/articles?limit=100", nil), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var list articleList
		decodeBody(t, resp, &list)
		found := false
		for _, item := range list.Items {
			if item.Slug == created.Slug {
				found = true
			}
		}
		assert.True(t, found, "published article missing from public feed")
	})

	t.Run("Read By Slug", func(t *testing.T) {
		resp, err := app.Test(jsonReq(t, http.MethodGet, "/api/public/articles/"+created.Slug, nil), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got article
		decodeBody(t, resp, &got)
		assert.Equal(t, title, got.Title)
		assert.Contains(t, got.Content, "protein")
	})

	t.Run("Admin Listing Includes Drafts", func(t *testing.T) {
		draftResp, err := app.Test(authReq(t, http.MethodPost, "/api/articles", admin.Token, map[string]any{
			"title":   title + " draft",
			"content": "Belum selesai.",
		}), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, draftResp.StatusCode)
		var draft article
		decodeBody(t, draftResp, &draft)

		resp, err := app.Test(authReq(t, http.MethodGet, "/api/articles?status=draft&limit=100", admin.Token, nil), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var list articleList
		decodeBody(t, resp, &list)
		found := false
		for _, item := range list.Items {
			if item.ID == draft.ID {
				found = true
			}
		}
		assert.True(t, found, "draft missing from admin listing")
	})
}

func TestAdminPanel(t *testing.T) {
	app := newTestApp(t)
	admin := registerUser(t, app, "panel_admin")
	makeAdmin(t, admin.ID)
	member := registerUser(t, app, "panel_member")

	t.Run("Stats", func(t *testing.T) {
		resp, err := app.Test(authReq(t, http.MethodGet, "/api/admin/dashboard/stats", admin.Token, nil), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var stats struct {
			TotalUsers       int64 `json:"total_users"`
			TotalActiveMenus int64 `json:"total_active_menus"`
			TotalIngredients int64 `json:"total_ingredients"`
			ActiveUsersToday int64 `json:"active_users_today"`
		}
		decodeBody(t, resp, &stats)
		assert.GreaterOrEqual(t, stats.TotalUsers, int64(2))
		assert.Greater(t, stats.TotalActiveMenus, int64(0))
		assert.GreaterOrEqual(t, stats.TotalIngredients, int64(7))
	})

	t.Run("User Growth", func(t *testing.T) {
		resp, err := app.Test(authReq(t, http.MethodGet, "/api/admin/dashboard/user-growth?days=7", admin.Token, nil), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var points []struct {
			Date  string `json:"date"`
			Count int64  `json:"count"`
		}
		decodeBody(t, resp, &points)
		require.NotEmpty(t, points, "every registration in this suite happened today")
		for _, p := range points {
			assert.NotEmpty(t, p.Date)
			assert.Greater(t, p.Count, int64(0))
		}
	})

	t.Run("Search Users", func(t *testing.T) {
		resp, err := app.Test(authReq(t, http.MethodGet, "/api/admin/users?search="+member.Email, admin.Token, nil), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var list struct {
			Items []struct {
				ID    uint    `json:"id"`
				Email string  `json:"email"`
				Role  *string `json:"role"`
			} `json:"items"`
			Total int64 `json:"total"`
		}
		decodeBody(t, resp, &list)
		require.Equal(t, int64(1), list.Total)
		assert.Equal(t, member.ID, list.Items[0].ID)
		assert.Equal(t, member.Email, list.Items[0].Email)
		assert.Nil(t, list.Items[0].Role, "fresh accounts have no role until preferences are set")
	})

	t.Run("Get User", func(t *testing.T) {
		resp, err := app.Test(authReq(t, http.MethodGet, "/api/admin/users/"+itoa(member.ID), admin.Token, nil), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got struct {
			ID    uint   `json:"id"`
			Email string `json:"email"`
		}
		decodeBody(t, resp, &got)
		assert.Equal(t, member.ID, got.ID)
		assert.Equal(t, member.Email, got.Email)
	})

	t.Run("Assign Role", func(t *testing.T) {
		resp, err := app.Test(authReq(t, http.MethodPut, "/api/admin/users/"+itoa(member.ID)+"/role",
			admin.Token, map[string]any{"role": "IBU_MENYUSUI"}), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got struct {
			ID   uint   `json:"id"`
			Role string `json:"role"`
		}
		decodeBody(t, resp, &got)
		assert.Equal(t, member.ID, got.ID)
		assert.Equal(t, "IBU_MENYUSUI", got.Role)
	})

	t.Run("Unknown Role Is 404", func(t *testing.T) {
		resp, err := app.Test(authReq(t, http.MethodPut, "/api/admin/users/"+itoa(member.ID)+"/role",
			admin.Token, map[string]any{"role": "SUPER_ADMIN"}), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body errorEnvelope
		decodeBody(t, resp, &body)
		assert.Equal(t, "ROLE_NOT_FOUND", body.Error.Code)
	})

	t.Run("Feedback Review", func(t *testing.T) {
		comment := fmt.Sprintf("Fitur scan makanan sangat membantu %d", member.ID)
		postResp, err := app.Test(authReq(t, http.MethodPost, "/api/feedback", member.Token,
			map[string]any{"rating": 4, "comment": comment}), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, postResp.StatusCode)
		_ = postResp.Body.Close()

		resp, err := app.Test(authReq(t, http.MethodGet, "/api/admin/feedbacks", admin.Token, nil), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var items []struct {
			UserID   uint   `json:"user_id"`
			Rating   int    `json:"rating"`
			Comment  string `json:"comment"`
			UserName string `json:"user_name"`
		}
		decodeBody(t, resp, &items)

		found := false
		for _, item := range items {
			if item.Comment == comment {
				found = true
				assert.Equal(t, member.ID, item.UserID)
				assert.Equal(t, 4, item.Rating)
				assert.NotEmpty(t, item.UserName)
			}
		}
		assert.True(t, found, "feedback entry missing from admin listing")
	})
}
