package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"nutribunda/internal/cache"
	"nutribunda/internal/models"
	"nutribunda/internal/observability"

	"gorm.io/gorm"
)

// ArticleListParams narrows and orders an article listing.
type ArticleListParams struct {
	Status    string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// articleSortColumns whitelists sortable columns; anything else falls back
// to the listing's default.
var articleSortColumns = map[string]string{
	"title":        "title",
	"status":       "status",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"published_at": "published_at",
}

// ArticleRepository defines persistence operations for CMS articles.
type ArticleRepository interface {
	ListAdmin(ctx context.Context, params ArticleListParams) ([]models.Article, int64, error)
	ListPublished(ctx context.Context, params ArticleListParams) ([]models.Article, int64, error)
	GetByID(ctx context.Context, id uint) (*models.Article, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*models.Article, error)
	SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error)
	Create(ctx context.Context, article *models.Article) error
	Update(ctx context.Context, article *models.Article, previousSlug string) error
	SoftDelete(ctx context.Context, id uint) (bool, error)
	CountActive(ctx context.Context) (int64, error)
}

type articleRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
}

// NewArticleRepository returns a new ArticleRepository implementation.
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db, metrics: observability.NewDatabaseMetrics(db)}
}

func articleOrder(params ArticleListParams, fallback string) string {
	column, ok := articleSortColumns[params.SortBy]
	if !ok {
		column = fallback
	}
	if strings.EqualFold(params.SortOrder, "asc") {
		return column + " ASC"
	}
	return column + " DESC"
}

func (r *articleRepository) ListAdmin(ctx context.Context, params ArticleListParams) ([]models.Article, int64, error) {
	limit := clampLimit(params.Limit, 10, 100)
	page := params.Page
	if page < 1 {
		page = 1
	}

	query := r.db.WithContext(ctx).Model(&models.Article{}).Where("is_deleted = ?", false)
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var articles []models.Article
	defer r.metrics.TrackQuery("select", "articles")()
	err := query.Order(articleOrder(params, "created_at")).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return articles, total, nil
}

func (r *articleRepository) ListPublished(ctx context.Context, params ArticleListParams) ([]models.Article, int64, error) {
	limit := clampLimit(params.Limit, 10, 50)
	page := params.Page
	if page < 1 {
		page = 1
	}

	query := r.db.WithContext(ctx).Model(&models.Article{}).
		Where("is_deleted = ? AND status = ?", false, models.ArticleStatusPublished)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var articles []models.Article
	defer r.metrics.TrackQuery("select", "articles")()
	err := query.Order(articleOrder(params, "published_at")).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return articles, total, nil
}

func (r *articleRepository) GetByID(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&article).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &article, nil
}

// GetPublishedBySlug serves the public article page; hits are cached under
// the slug key.
func (r *articleRepository) GetPublishedBySlug(ctx context.Context, slug string) (*models.Article, error) {
	var article models.Article
	key := cache.ArticleKey(slug)

	if found, err := cache.GetJSON(ctx, key, &article); err == nil && found {
		return &article, nil
	}

	defer r.metrics.TrackQuery("select", "articles")()
	err := r.db.WithContext(ctx).
		Where("slug = ? AND is_deleted = ? AND status = ?", slug, false, models.ArticleStatusPublished).
		First(&article).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}

	_ = cache.SetJSON(ctx, key, &article, cache.ArticleTTL)
	return &article, nil
}

// SlugExists only considers live rows; a soft-deleted article frees its slug.
// excludeID skips the article being renamed so an unchanged title keeps its
// slug.
func (r *articleRepository) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Article{}).
		Where("slug = ? AND is_deleted = ?", slug, false)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *articleRepository) Create(ctx context.Context, article *models.Article) error {
	defer r.metrics.TrackQuery("insert", "articles")()
	if err := r.db.WithContext(ctx).Create(article).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewDuplicateEntryError("Article slug already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Update persists the article and drops any cached copy. A rename leaves a
// stale entry under the old slug, so both slugs are invalidated.
func (r *articleRepository) Update(ctx context.Context, article *models.Article, previousSlug string) error {
	defer r.metrics.TrackQuery("update", "articles")()
	if err := r.db.WithContext(ctx).Save(article).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewDuplicateEntryError("Article slug already exists")
		}
		return models.NewInternalError(err)
	}
	if previousSlug != "" && previousSlug != article.Slug {
		cache.InvalidateArticle(ctx, previousSlug)
	}
	cache.InvalidateArticle(ctx, article.Slug)
	return nil
}

func (r *articleRepository) SoftDelete(ctx context.Context, id uint) (bool, error) {
	article, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if article == nil {
		return false, nil
	}

	now := time.Now().UTC()
	defer r.metrics.TrackQuery("update", "articles")()
	err = r.db.WithContext(ctx).Model(&models.Article{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_deleted": true, "deleted_at": now}).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	cache.InvalidateArticle(ctx, article.Slug)
	return true, nil
}

func (r *articleRepository) CountActive(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Article{}).
		Where("is_deleted = ?", false).
		Count(&total).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return total, nil
}
