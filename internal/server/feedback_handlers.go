package server

import (
	"nutribunda/internal/models"
	"nutribunda/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateFeedback handles POST /api/feedback
// @Summary Submit app feedback
// @Description Store a 1-5 star rating with a comment. The comment is run through the sentiment model; a model outage stores the entry unclassified.
// @Tags feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateFeedbackInput true "Feedback"
// @Success 201 {object} service.FeedbackItem
// @Failure 400 {object} models.ErrorResponse
// @Router /feedback [post]
func (s *Server) CreateFeedback(c *fiber.Ctx) error {
	var req service.CreateFeedbackInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	item, err := s.feedbackService.Create(c.Context(), currentUserID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// ListMyFeedback handles GET /api/feedback/me
// @Summary List the caller's feedback
// @Tags feedback
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.FeedbackItem
// @Failure 401 {object} models.ErrorResponse
// @Router /feedback/me [get]
func (s *Server) ListMyFeedback(c *fiber.Ctx) error {
	items, err := s.feedbackService.ListMine(c.Context(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}
