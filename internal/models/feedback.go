package models

import (
	"time"
)

// Feedback is an in-app rating with a free-text comment. Classification is
// the sentiment model's label; nil when the model was unreachable.
type Feedback struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	Rating         int       `gorm:"not null" json:"rating"`
	Comment        string    `gorm:"type:text;not null" json:"comment"`
	Classification *string   `gorm:"size:255" json:"classification"`
	CreatedAt      time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName specifies the table name for GORM
func (Feedback) TableName() string {
	return "feedbacks"
}
