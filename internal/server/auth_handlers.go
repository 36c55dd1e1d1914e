package server

import (
	"time"

	"nutribunda/internal/middleware"
	"nutribunda/internal/models"
	"nutribunda/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/auth/register
// @Summary Register a local account
// @Description Create an account with email and password. The role is assigned later by the preference flow.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Registration request"
// @Success 201 {object} service.AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	resp, err := s.authService.Register(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login handles POST /api/auth/login
// @Summary Log in with email and password
// @Description Authenticate and receive a JWT plus the preference completion flags the app routes on.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.LoginInput true "Login request"
// @Success 200 {object} service.AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	resp, err := s.authService.Login(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// GoogleLogin handles POST /api/auth/google
// @Summary Log in with a Google ID token
// @Description Verify a Google ID token; creates the account on first login or links it to an existing one by email.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{id_token=string} true "Google login request"
// @Success 200 {object} service.AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/google [post]
func (s *Server) GoogleLogin(c *fiber.Ctx) error {
	var req struct {
		IDToken string `json:"id_token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	resp, err := s.authService.GoogleLogin(c.Context(), req.IDToken)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// Logout handles POST /api/auth/logout
// @Summary Log out
// @Description Revoke the presented token by blacklisting its JTI until it would have expired anyway.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	claims := currentClaims(c)
	jti, _ := claims["jti"].(string)

	if jti != "" && s.redis != nil {
		// Keep the blacklist entry alive exactly as long as the token.
		ttl := middleware.TokenTTL
		if exp, ok := claims["exp"].(float64); ok {
			if until := time.Until(time.Unix(int64(exp), 0)); until > 0 {
				ttl = until
			}
		}
		if err := s.redis.Set(c.Context(), "blacklist:"+jti, "1", ttl).Err(); err != nil {
			// Failing silently would leave the token usable.
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		}
	}

	return c.JSON(fiber.Map{"message": "Logged out"})
}

// PreferencesStatus handles GET /api/auth/preferences-status
// @Summary Check preference completion
// @Description Report whether the caller has completed the preference flow. The app calls this on resume to decide between the dashboard and the onboarding screens.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.PreferencesStatus
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/preferences-status [get]
func (s *Server) PreferencesStatus(c *fiber.Ctx) error {
	status, err := s.authService.Status(c.Context(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}
