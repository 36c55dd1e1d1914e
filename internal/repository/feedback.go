package repository

import (
	"context"

	"nutribunda/internal/models"
	"nutribunda/internal/observability"

	"gorm.io/gorm"
)

// FeedbackRepository defines persistence operations for user feedback.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	ListByUser(ctx context.Context, userID uint) ([]models.Feedback, error)
	ListAll(ctx context.Context, limit int) ([]models.Feedback, error)
}

type feedbackRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
}

// NewFeedbackRepository returns a new FeedbackRepository implementation.
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db, metrics: observability.NewDatabaseMetrics(db)}
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	defer r.metrics.TrackQuery("insert", "feedbacks")()
	if err := r.db.WithContext(ctx).Create(feedback).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *feedbackRepository) ListByUser(ctx context.Context, userID uint) ([]models.Feedback, error) {
	var feedbacks []models.Feedback
	defer r.metrics.TrackQuery("select", "feedbacks")()
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&feedbacks).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return feedbacks, nil
}

func (r *feedbackRepository) ListAll(ctx context.Context, limit int) ([]models.Feedback, error) {
	limit = clampLimit(limit, 50, 200)

	var feedbacks []models.Feedback
	defer r.metrics.TrackQuery("select", "feedbacks")()
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Find(&feedbacks).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return feedbacks, nil
}
