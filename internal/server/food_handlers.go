package server

import (
	"encoding/json"
	"io"
	"time"

	"nutribunda/internal/models"
	"nutribunda/internal/service"

	"github.com/gofiber/fiber/v2"
)

// loggedAtLayouts are the timestamp spellings accepted on log entries. The
// app sends local timestamps without an offset, exports send RFC 3339.
var loggedAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseLoggedAt parses an optional client timestamp; empty means "now".
func parseLoggedAt(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range loggedAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, models.NewInvalidFormatError("logged_at must be ISO 8601")
}

// ScanFood handles POST /api/scan-food
// @Summary Recognize ingredients on a food photo
// @Description Send a multipart photo under the "image" field; returns the matched ingredients with nutrition per detected portion.
// @Tags food
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Food photo"
// @Success 200 {object} service.ScanResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /scan-food [post]
func (s *Server) ScanFood(c *fiber.Ctx) error {
	// Scanning calls an external vision service, so it can be flagged off
	// during incidents without taking the rest of the API down.
	if !s.flags.EnabledOrDefault("scan_food", currentUserID(c), true) {
		return respondError(c, models.NewFeatureDisabledError("scan_food"))
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return respondError(c, models.NewImageRequiredError())
	}

	file, err := fileHeader.Open()
	if err != nil {
		return respondError(c, models.NewScanError(err))
	}
	defer func() { _ = file.Close() }()

	image, err := io.ReadAll(file)
	if err != nil {
		return respondError(c, models.NewScanError(err))
	}

	result, err := s.scanService.ScanImage(c.Context(), image, fileHeader.Filename)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetRecommendation handles GET /api/recommendation
// @Summary Menu recommendations for today
// @Description Rank menus for the caller's role and targets. Detected ingredient ids (from a scan) boost matching menus; tuning knobs arrive as query parameters.
// @Tags food
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.RecommendationPlan
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /recommendation [get]
func (s *Server) GetRecommendation(c *fiber.Ctx) error {
	plan, err := s.recommendationService.Recommend(c.Context(), currentUserID(c), recommendationParams(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plan)
}

// GetRecommendationPlan handles GET /api/recommendation/plan
// @Summary Multi-day meal plan
// @Tags food
// @Produce json
// @Security BearerAuth
// @Param days query int false "Plan length in days (default 7)"
// @Success 200 {object} service.RecommendationPlan
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /recommendation/plan [get]
func (s *Server) GetRecommendationPlan(c *fiber.Ctx) error {
	days := c.QueryInt("days", service.DefaultPlanDays)
	plan, err := s.recommendationService.Plan(c.Context(), currentUserID(c), days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plan)
}

type foodLogItemRequest struct {
	IngredientID uint     `json:"ingredient_id"`
	QuantityG    *float64 `json:"quantity_g"`
	LoggedAt     string   `json:"logged_at"`
	SourceMenuID *uint    `json:"source_menu_id"`
}

func (r foodLogItemRequest) toInput() (service.FoodLogItemInput, error) {
	loggedAt, err := parseLoggedAt(r.LoggedAt)
	if err != nil {
		return service.FoodLogItemInput{}, err
	}
	return service.FoodLogItemInput{
		IngredientID: r.IngredientID,
		QuantityG:    r.QuantityG,
		LoggedAt:     loggedAt,
		SourceMenuID: r.SourceMenuID,
	}, nil
}

// CreateFoodLogs handles POST /api/food-log
// @Summary Log ingredient portions
// @Description Accepts {"items": [...]} or a bare array. Each item carries ingredient_id, optional quantity_g (default 100), optional logged_at, and optional source_menu_id tying the entry to the menu it came from.
// @Tags food
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} object{created_count=int}
// @Failure 400 {object} models.ErrorResponse
// @Router /food-log [post]
func (s *Server) CreateFoodLogs(c *fiber.Ctx) error {
	body := c.Body()

	var wrapper struct {
		Items []foodLogItemRequest `json:"items"`
	}
	var requests []foodLogItemRequest
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Items != nil {
		requests = wrapper.Items
	} else if err := json.Unmarshal(body, &requests); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("items array required"))
	}
	if len(requests) == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("items array required"))
	}

	items := make([]service.FoodLogItemInput, 0, len(requests))
	for _, r := range requests {
		input, err := r.toInput()
		if err != nil {
			return respondError(c, err)
		}
		items = append(items, input)
	}

	logged, err := s.foodLogService.Create(c.Context(), currentUserID(c), items)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"created_count": logged})
}

// ListFoodLogs handles GET /api/food-log
// @Summary List the caller's food logs
// @Tags food
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max entries (default 50)"
// @Param since query string false "Only entries at or after this time"
// @Success 200 {array} service.FoodLogItem
// @Failure 400 {object} models.ErrorResponse
// @Router /food-log [get]
func (s *Server) ListFoodLogs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	since, err := parseLoggedAt(c.Query("since"))
	if err != nil {
		return respondError(c, err)
	}

	items, err := s.foodLogService.List(c.Context(), currentUserID(c), limit, since)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// CreateMealLog handles POST /api/meal-log
// @Summary Log a whole menu
// @Description Log every ingredient of a menu in one entry, scaled by servings. Totals are frozen at log time so later menu edits do not rewrite history.
// @Tags food
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{menu_id=int,servings=number,is_consumed=bool,logged_at=string} true "Meal log request"
// @Success 201 {object} service.MealLogEntry
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /meal-log [post]
func (s *Server) CreateMealLog(c *fiber.Ctx) error {
	var req struct {
		MenuID     uint     `json:"menu_id"`
		Servings   *float64 `json:"servings"`
		IsConsumed bool     `json:"is_consumed"`
		LoggedAt   string   `json:"logged_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.MenuID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("menu_id is required"))
	}

	servings := 1.0
	if req.Servings != nil {
		servings = *req.Servings
	}
	if servings <= 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("servings must be positive"))
	}

	loggedAt, err := parseLoggedAt(req.LoggedAt)
	if err != nil {
		return respondError(c, err)
	}

	entry, err := s.mealLogService.Create(c.Context(), currentUserID(c), service.CreateMealLogInput{
		MenuID:     req.MenuID,
		Servings:   servings,
		IsConsumed: req.IsConsumed,
		LoggedAt:   loggedAt,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// ListMealLogs handles GET /api/meal-log
// @Summary List the caller's meal logs
// @Tags food
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max entries (default 50)"
// @Success 200 {array} service.MealLogEntry
// @Router /meal-log [get]
func (s *Server) ListMealLogs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	entries, err := s.mealLogService.List(c.Context(), currentUserID(c), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

// ConsumeMealLog handles POST /api/meal-log/:id/consume
// @Summary Mark a planned meal as eaten
// @Tags food
// @Produce json
// @Security BearerAuth
// @Param id path int true "Meal log ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /meal-log/{id}/consume [post]
func (s *Server) ConsumeMealLog(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.mealLogService.Consume(c.Context(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Meal marked as consumed"})
}
