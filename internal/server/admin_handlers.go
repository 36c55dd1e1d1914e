package server

import (
	"errors"
	"io"

	"nutribunda/internal/models"
	"nutribunda/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListUsers handles GET /api/admin/users
// @Summary List accounts
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 10)"
// @Param search query string false "Name or email search"
// @Param role query string false "Filter by role name"
// @Success 200 {object} service.AdminUserList
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/users [get]
func (s *Server) ListUsers(c *fiber.Ctx) error {
	query := service.AdminUserQuery{
		Page:   c.QueryInt("page", 0),
		Limit:  c.QueryInt("limit", 0),
		Search: c.Query("search"),
		Role:   c.Query("role"),
	}

	list, err := s.adminService.ListUsers(c.Context(), query)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// GetUser handles GET /api/admin/users/:id
// @Summary Get one account
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} service.AdminUserItem
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/users/{id} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.adminService.GetUser(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateUserRole handles PUT /api/admin/users/:id/role
// @Summary Assign a role to an account
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body object{role=string} true "Role name"
// @Success 200 {object} service.AdminUserRole
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/users/{id}/role [put]
func (s *Server) UpdateUserRole(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Role == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("role is required"))
	}

	result, err := s.adminService.UpdateUserRole(c.Context(), id, req.Role)
	if err != nil {
		// Here an unknown role is a missing resource, not a bad request:
		// the admin panel picks from the role listing, so a miss means the
		// role was deleted underneath it.
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeRoleNotFound {
			return models.RespondWithError(c, fiber.StatusNotFound, err)
		}
		return respondError(c, err)
	}
	return c.JSON(result)
}

// ListAllFeedback handles GET /api/admin/feedbacks
// @Summary List all feedback entries
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.AdminFeedbackItem
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/feedbacks [get]
func (s *Server) ListAllFeedback(c *fiber.Ctx) error {
	items, err := s.feedbackService.ListAll(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// AdminStats handles GET /api/admin/dashboard/stats
// @Summary Admin dashboard counters
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.AdminStats
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/dashboard/stats [get]
func (s *Server) AdminStats(c *fiber.Ctx) error {
	stats, err := s.adminService.Stats(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// AdminUserGrowth handles GET /api/admin/dashboard/user-growth
// @Summary Signups per day
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param days query int false "Window in days (default 30, max 365)"
// @Success 200 {array} repository.UserGrowthPoint
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/dashboard/user-growth [get]
func (s *Server) AdminUserGrowth(c *fiber.Ctx) error {
	days := c.QueryInt("days", 30)
	if days < 1 || days > 365 {
		days = 30
	}

	points, err := s.adminService.UserGrowth(c.Context(), days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(points)
}

// UploadMedia handles POST /api/admin/media
// @Summary Upload an image
// @Description Accepts a multipart image under "image", re-encodes it to WebP capped at 1600px, and returns the stored record. Re-uploading identical bytes returns the existing record.
// @Tags admin
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image file"
// @Success 201 {object} object{image=models.MediaImage,url=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/media [post]
func (s *Server) UploadMedia(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	image, err := s.mediaService.Upload(c.Context(), service.UploadMediaInput{
		UploaderID: currentUserID(c),
		Filename:   fileHeader.Filename,
		Content:    content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"image": image,
		"url":   image.URL(),
	})
}
