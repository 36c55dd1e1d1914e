package models

import (
	"time"
)

// MediaImage is an uploaded image (menu photos, article covers) stored on
// disk as WebP. Hash is derived from the content so repeat uploads of the
// same file resolve to the existing record instead of a new copy.
type MediaImage struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Hash             string    `gorm:"size:64;uniqueIndex;not null" json:"hash"`
	UploaderID       uint      `gorm:"not null;index" json:"uploader_id"`
	OriginalFilename string    `gorm:"size:255" json:"original_filename"`
	SizeBytes        int64     `gorm:"not null;default:0" json:"size_bytes"`
	Width            int       `gorm:"not null;default:0" json:"width"`
	Height           int       `gorm:"not null;default:0" json:"height"`
	Path             string    `gorm:"size:500;not null" json:"-"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// TableName specifies the table name for GORM
func (MediaImage) TableName() string {
	return "media_images"
}

// URL returns the public path the image is served from.
func (m *MediaImage) URL() string {
	return "/uploads/images/" + m.Hash + ".webp"
}
