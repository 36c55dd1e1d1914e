package models

import (
	"time"
)

// Article statuses. Only published articles are visible on the public API.
const (
	ArticleStatusDraft     = "draft"
	ArticleStatusPublished = "published"
)

// Article is CMS content authored in the admin panel. Content is stored as
// rich-text JSON/HTML produced by the editor. Deletion is soft; the slug
// index is partial so a deleted article frees its slug for reuse.
type Article struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Slug        string     `gorm:"size:300;uniqueIndex:udx_articles_slug_live,where:is_deleted = false;not null" json:"slug"`
	Excerpt     string     `gorm:"type:text" json:"excerpt"`
	Content     string     `gorm:"type:text;not null" json:"content,omitempty"`
	CoverImage  string     `gorm:"size:500" json:"cover_image"`
	Status      string     `gorm:"size:20;not null;default:'draft';index" json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at"`
	IsDeleted   bool       `gorm:"not null;default:false;index" json:"-"`
	DeletedAt   *time.Time `json:"-"`
}

// TableName specifies the table name for GORM
func (Article) TableName() string {
	return "articles"
}
