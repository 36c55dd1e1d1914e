package server

import (
	"nutribunda/internal/models"
	"nutribunda/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListMenus handles GET /api/menus
// @Summary List menus
// @Description Paginated menu catalog. Without an explicit target_role the caller's preference decides which set is shown; admins pass target_role or is_active to see everything.
// @Tags menus
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 10)"
// @Param search query string false "Name search"
// @Param meal_type query string false "BREAKFAST, LUNCH, or DINNER"
// @Param target_role query string false "Filter by target role"
// @Param is_active query bool false "Filter by active flag"
// @Success 200 {object} service.MenuList
// @Failure 401 {object} models.ErrorResponse
// @Router /menus [get]
func (s *Server) ListMenus(c *fiber.Ctx) error {
	query := service.MenuListQuery{
		Page:       c.QueryInt("page", 0),
		Limit:      c.QueryInt("limit", 0),
		Search:     c.Query("search"),
		MealType:   c.Query("meal_type"),
		TargetRole: c.Query("target_role"),
		IsActive:   queryFlag(c, "is_active"),
	}

	list, err := s.menuService.List(c.Context(), currentUserID(c), query)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// GetMenu handles GET /api/menus/:id
// @Summary Get a menu with nutrition
// @Tags menus
// @Produce json
// @Security BearerAuth
// @Param id path int true "Menu ID"
// @Success 200 {object} service.MenuDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /menus/{id} [get]
func (s *Server) GetMenu(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	menu, err := s.menuService.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(menu)
}

// CreateMenu handles POST /api/menus
// @Summary Create a menu
// @Tags menus
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateMenuInput true "Menu"
// @Success 201 {object} object{id=int,message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /menus [post]
func (s *Server) CreateMenu(c *fiber.Ctx) error {
	var req service.CreateMenuInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	id, err := s.menuService.Create(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      id,
		"message": "Menu created",
	})
}

// UpdateMenu handles PUT /api/menus/:id
// @Summary Update a menu
// @Description Partial update; providing "ingredients" replaces the whole composition.
// @Tags menus
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Menu ID"
// @Param request body service.UpdateMenuInput true "Fields to update"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /menus/{id} [put]
func (s *Server) UpdateMenu(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req service.UpdateMenuInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.menuService.Update(c.Context(), id, req); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Menu updated"})
}

// DeleteMenu handles DELETE /api/menus/:id
// @Summary Delete a menu
// @Description Food logs that reference the menu keep their rows; the link is cleared by the database.
// @Tags menus
// @Produce json
// @Security BearerAuth
// @Param id path int true "Menu ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /menus/{id} [delete]
func (s *Server) DeleteMenu(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.menuService.Delete(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Menu deleted"})
}

// ListIngredients handles GET /api/ingredients
// @Summary List the ingredient catalog
// @Tags ingredients
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.FoodIngredient
// @Failure 401 {object} models.ErrorResponse
// @Router /ingredients [get]
func (s *Server) ListIngredients(c *fiber.Ctx) error {
	ingredients, err := s.ingredientService.List(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ingredients)
}

// CreateIngredient handles POST /api/ingredients
// @Summary Add an ingredient
// @Tags ingredients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateIngredientInput true "Ingredient"
// @Success 201 {object} models.FoodIngredient
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /ingredients [post]
func (s *Server) CreateIngredient(c *fiber.Ctx) error {
	var req service.CreateIngredientInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	ingredient, err := s.ingredientService.Create(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ingredient)
}

// UpdateIngredient handles PUT /api/ingredients/:id
// @Summary Update an ingredient
// @Tags ingredients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Ingredient ID"
// @Param request body service.UpdateIngredientInput true "Fields to update"
// @Success 200 {object} models.FoodIngredient
// @Failure 404 {object} models.ErrorResponse
// @Router /ingredients/{id} [put]
func (s *Server) UpdateIngredient(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req service.UpdateIngredientInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	ingredient, err := s.ingredientService.Update(c.Context(), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ingredient)
}

// DeleteIngredient handles DELETE /api/ingredients/:id
// @Summary Delete an ingredient
// @Tags ingredients
// @Produce json
// @Security BearerAuth
// @Param id path int true "Ingredient ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /ingredients/{id} [delete]
func (s *Server) DeleteIngredient(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.ingredientService.Delete(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Ingredient deleted"})
}
