package server

import (
	"encoding/json"
	"strings"

	"nutribunda/internal/models"
	"nutribunda/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UpsertPreference handles POST /api/user/preference
// @Summary Create or update the caller's preferences
// @Description Partial upsert of the preference profile. A fresh profile re-mints the JWT so the new role lands in the token.
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.PreferenceResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /user/preference [post]
func (s *Server) UpsertPreference(c *fiber.Ctx) error {
	// The body is a partial document where "field absent" and "field null"
	// mean different things, so it is decoded as a raw map rather than a
	// struct.
	body := map[string]any{}
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
	}

	resp, err := s.preferenceService.Upsert(c.Context(), currentUserID(c), currentRole(c), body)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// GetPreference handles GET /api/user/preference
// @Summary Get the caller's preferences
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.PreferenceResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /user/preference [get]
func (s *Server) GetPreference(c *fiber.Ctx) error {
	resp, err := s.preferenceService.Get(c.Context(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// GetProfile handles GET /api/user/profile
// @Summary Get the caller's profile
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.UserProfile
// @Failure 404 {object} models.ErrorResponse
// @Router /user/profile [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	profile, err := s.userService.GetProfile(c.Context(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// UpdateProfile handles PUT /api/user/profile
// @Summary Update the caller's profile
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.UpdateProfileInput true "Fields to update"
// @Success 200 {object} service.UserProfile
// @Failure 400 {object} models.ErrorResponse
// @Router /user/profile [put]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	profile, err := s.userService.UpdateProfile(c.Context(), currentUserID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// UpdateAvatar handles PUT /api/user/avatar
// @Summary Set the caller's avatar URL
// @Description Accepts either "avatar" or "avatar_url" in the body; older app builds send the latter.
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{avatar=string} true "Avatar URL"
// @Success 200 {object} object{user_id=int,avatar=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /user/avatar [put]
func (s *Server) UpdateAvatar(c *fiber.Ctx) error {
	var req struct {
		Avatar    string `json:"avatar"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	avatar := strings.TrimSpace(req.Avatar)
	if avatar == "" {
		avatar = strings.TrimSpace(req.AvatarURL)
	}

	userID := currentUserID(c)
	if err := s.userService.UpdateAvatar(c.Context(), userID, avatar); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user_id": userID, "avatar": avatar})
}

// GetDashboard handles GET /api/user/dashboard
// @Summary Daily nutrition dashboard
// @Description Combine the caller's targets, today's consumed totals, and one recommendation per remaining meal slot.
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.DashboardSummary
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /user/dashboard [get]
func (s *Server) GetDashboard(c *fiber.Ctx) error {
	summary, err := s.dashboardService.Summary(c.Context(), currentUserID(c), recommendationParams(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}
