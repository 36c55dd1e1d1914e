package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"nutribunda/internal/models"
	"nutribunda/internal/repository"
)

var (
	slugSeparators = regexp.MustCompile(`[\s_]+`)
	slugStrip      = regexp.MustCompile(`[^a-z0-9-]`)
	slugCollapse   = regexp.MustCompile(`-+`)
)

// CreateArticleInput carries the admin create body. Content holds the
// editor's rich-text JSON/HTML as an opaque string.
type CreateArticleInput struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Excerpt    string `json:"excerpt"`
	CoverImage string `json:"cover_image"`
	Status     string `json:"status"`
}

// UpdateArticleInput is the partial update body; nil fields stay unchanged.
type UpdateArticleInput struct {
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	Excerpt    *string `json:"excerpt"`
	CoverImage *string `json:"cover_image"`
	Status     *string `json:"status"`
}

// ArticleListQuery mirrors the list endpoints' query parameters.
type ArticleListQuery struct {
	Page      int
	Limit     int
	Status    string
	SortBy    string
	SortOrder string
}

// ArticleListItem is one row of a listing; content is left out to keep the
// feed light.
type ArticleListItem struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Excerpt     *string `json:"excerpt"`
	CoverImage  *string `json:"cover_image"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	PublishedAt *string `json:"published_at"`
}

// ArticleDetail is the full article including content.
type ArticleDetail struct {
	ArticleListItem
	Content string `json:"content"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// ArticleList is the paginated listing envelope.
type ArticleList struct {
	Items      []ArticleListItem `json:"items"`
	Pagination Pagination        `json:"pagination"`
}

// ArticleService manages CMS articles: admin CRUD with drafts and the
// public published-only feed.
type ArticleService struct {
	articles repository.ArticleRepository
	now      func() time.Time
}

// NewArticleService creates an ArticleService.
func NewArticleService(articles repository.ArticleRepository) *ArticleService {
	return &ArticleService{articles: articles, now: time.Now}
}

// List returns a page of articles for the admin panel, drafts included.
func (s *ArticleService) List(ctx context.Context, query ArticleListQuery) (*ArticleList, error) {
	status := strings.TrimSpace(query.Status)
	if status != "" && !isArticleStatus(status) {
		return nil, models.NewValidationError("Status must be 'draft' or 'published'")
	}

	page, limit := normalizePage(query.Page, query.Limit, 100)
	articles, total, err := s.articles.ListAdmin(ctx, repository.ArticleListParams{
		Status:    status,
		SortBy:    strings.TrimSpace(query.SortBy),
		SortOrder: strings.TrimSpace(query.SortOrder),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	return articleList(articles, total, page, limit), nil
}

// ListPublic returns a page of published articles for the mobile feed.
func (s *ArticleService) ListPublic(ctx context.Context, query ArticleListQuery) (*ArticleList, error) {
	page, limit := normalizePage(query.Page, query.Limit, 50)
	articles, total, err := s.articles.ListPublished(ctx, repository.ArticleListParams{
		SortBy:    strings.TrimSpace(query.SortBy),
		SortOrder: strings.TrimSpace(query.SortOrder),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	return articleList(articles, total, page, limit), nil
}

// Get returns the full article by id, drafts included.
func (s *ArticleService) Get(ctx context.Context, id uint) (*ArticleDetail, error) {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, models.NewNotFoundError("Article")
	}
	return articleDetail(article), nil
}

// GetBySlug returns a published article for the public page.
func (s *ArticleService) GetBySlug(ctx context.Context, slug string) (*ArticleDetail, error) {
	article, err := s.articles.GetPublishedBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, models.NewNotFoundError("Article")
	}
	return articleDetail(article), nil
}

// Create stores a new article. Publishing at create time stamps
// published_at immediately.
func (s *ArticleService) Create(ctx context.Context, input CreateArticleInput) (*ArticleDetail, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	status := input.Status
	if status == "" {
		status = models.ArticleStatusDraft
	}
	if !isArticleStatus(status) {
		return nil, models.NewValidationError("Status must be 'draft' or 'published'")
	}

	slug, err := s.uniqueSlug(ctx, title, 0)
	if err != nil {
		return nil, err
	}

	article := &models.Article{
		Title:      title,
		Slug:       slug,
		Excerpt:    strings.TrimSpace(input.Excerpt),
		Content:    content,
		CoverImage: strings.TrimSpace(input.CoverImage),
		Status:     status,
	}
	if status == models.ArticleStatusPublished {
		at := s.now().UTC()
		article.PublishedAt = &at
	}

	if err := s.articles.Create(ctx, article); err != nil {
		return nil, err
	}
	return articleDetail(article), nil
}

// Update applies the provided fields. A new title regenerates the slug;
// the first transition to published stamps published_at, and moving back
// to draft clears it.
func (s *ArticleService) Update(ctx context.Context, id uint, input UpdateArticleInput) (*ArticleDetail, error) {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, models.NewNotFoundError("Article")
	}
	previousSlug := article.Slug

	if input.Title != nil {
		if title := strings.TrimSpace(*input.Title); title != "" {
			article.Title = title
			slug, err := s.uniqueSlug(ctx, title, article.ID)
			if err != nil {
				return nil, err
			}
			article.Slug = slug
		}
	}
	if input.Content != nil {
		if content := strings.TrimSpace(*input.Content); content != "" {
			article.Content = content
		}
	}
	if input.Excerpt != nil {
		article.Excerpt = strings.TrimSpace(*input.Excerpt)
	}
	if input.CoverImage != nil {
		article.CoverImage = strings.TrimSpace(*input.CoverImage)
	}
	if input.Status != nil {
		status := *input.Status
		if !isArticleStatus(status) {
			return nil, models.NewValidationError("Status must be 'draft' or 'published'")
		}
		if status == models.ArticleStatusPublished && article.Status == models.ArticleStatusDraft {
			at := s.now().UTC()
			article.PublishedAt = &at
		} else if status == models.ArticleStatusDraft {
			article.PublishedAt = nil
		}
		article.Status = status
	}

	if err := s.articles.Update(ctx, article, previousSlug); err != nil {
		return nil, err
	}
	return articleDetail(article), nil
}

// Delete soft-deletes the article, freeing its slug for reuse.
func (s *ArticleService) Delete(ctx context.Context, id uint) error {
	deleted, err := s.articles.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("Article")
	}
	return nil
}

// uniqueSlug slugifies the title and suffixes a counter until no live
// article holds the slug. excludeID skips the article being renamed.
func (s *ArticleService) uniqueSlug(ctx context.Context, title string, excludeID uint) (string, error) {
	base := slugify(title)
	slug := base
	for counter := 1; ; counter++ {
		exists, err := s.articles.SlugExists(ctx, slug, excludeID)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}

// slugify lowercases the title, turns whitespace and underscores into
// hyphens and drops everything outside [a-z0-9-].
func slugify(title string) string {
	slug := strings.ToLower(title)
	slug = slugSeparators.ReplaceAllString(slug, "-")
	slug = slugStrip.ReplaceAllString(slug, "")
	slug = slugCollapse.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

func isArticleStatus(status string) bool {
	return status == models.ArticleStatusDraft || status == models.ArticleStatusPublished
}

func normalizePage(page, limit, maxLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	} else if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func articleList(articles []models.Article, total int64, page, limit int) *ArticleList {
	items := make([]ArticleListItem, 0, len(articles))
	for i := range articles {
		items = append(items, articleListItem(&articles[i]))
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ArticleList{
		Items: items,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}
}

func articleListItem(article *models.Article) ArticleListItem {
	return ArticleListItem{
		ID:          article.ID,
		Title:       article.Title,
		Slug:        article.Slug,
		Excerpt:     nullableString(article.Excerpt),
		CoverImage:  nullableString(article.CoverImage),
		Status:      article.Status,
		CreatedAt:   article.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   article.UpdatedAt.UTC().Format(time.RFC3339),
		PublishedAt: timestampString(article.PublishedAt),
	}
}

func articleDetail(article *models.Article) *ArticleDetail {
	return &ArticleDetail{
		ArticleListItem: articleListItem(article),
		Content:         article.Content,
	}
}

func nullableString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func timestampString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.UTC().Format(time.RFC3339)
	return &formatted
}
