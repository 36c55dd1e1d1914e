package server

import (
	"nutribunda/internal/models"
	"nutribunda/internal/service"

	"github.com/gofiber/fiber/v2"
)

func articleListQuery(c *fiber.Ctx) service.ArticleListQuery {
	return service.ArticleListQuery{
		Page:      c.QueryInt("page", 0),
		Limit:     c.QueryInt("limit", 0),
		Status:    c.Query("status"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
}

// ListArticles handles GET /api/articles
// @Summary List articles for the admin panel
// @Description Paginated listing including drafts. Filter with status, sort with sort_by and sort_order.
// @Tags articles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.ArticleList
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /articles [get]
func (s *Server) ListArticles(c *fiber.Ctx) error {
	list, err := s.articleService.List(c.Context(), articleListQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// GetArticle handles GET /api/articles/:id
// @Summary Get an article by id
// @Tags articles
// @Produce json
// @Security BearerAuth
// @Param id path int true "Article ID"
// @Success 200 {object} service.ArticleDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{id} [get]
func (s *Server) GetArticle(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	article, err := s.articleService.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(article)
}

// CreateArticle handles POST /api/articles
// @Summary Create an article
// @Description The slug is generated from the title and de-duplicated with a numeric suffix.
// @Tags articles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateArticleInput true "Article"
// @Success 201 {object} service.ArticleDetail
// @Failure 400 {object} models.ErrorResponse
// @Router /articles [post]
func (s *Server) CreateArticle(c *fiber.Ctx) error {
	var req service.CreateArticleInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	article, err := s.articleService.Create(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(article)
}

// UpdateArticle handles PUT /api/articles/:id
// @Summary Update an article
// @Description Partial update. A title change regenerates the slug; publishing stamps published_at once.
// @Tags articles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Article ID"
// @Param request body service.UpdateArticleInput true "Fields to update"
// @Success 200 {object} service.ArticleDetail
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{id} [put]
func (s *Server) UpdateArticle(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req service.UpdateArticleInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	article, err := s.articleService.Update(c.Context(), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(article)
}

// DeleteArticle handles DELETE /api/articles/:id
// @Summary Soft-delete an article
// @Tags articles
// @Produce json
// @Security BearerAuth
// @Param id path int true "Article ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{id} [delete]
func (s *Server) DeleteArticle(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.articleService.Delete(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Article deleted"})
}

// ListPublishedArticles handles GET /api/public/articles
// @Summary Public article feed
// @Description Published articles only, newest first. No authentication required.
// @Tags articles
// @Produce json
// @Success 200 {object} service.ArticleList
// @Router /public/articles [get]
func (s *Server) ListPublishedArticles(c *fiber.Ctx) error {
	list, err := s.articleService.ListPublic(c.Context(), articleListQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// GetPublishedArticle handles GET /api/public/articles/:slug
// @Summary Read a published article
// @Tags articles
// @Produce json
// @Param slug path string true "Article slug"
// @Success 200 {object} service.ArticleDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /public/articles/{slug} [get]
func (s *Server) GetPublishedArticle(c *fiber.Ctx) error {
	article, err := s.articleService.GetBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(article)
}
