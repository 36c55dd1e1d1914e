package service

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"nutribunda/internal/models"
	"nutribunda/internal/observability"
	"nutribunda/internal/repository"
	"nutribunda/internal/sentiment"
)

// adminFeedbackLimit caps the admin feedback list at the newest entries.
const adminFeedbackLimit = 50

// CreateFeedbackInput is the feedback submission body.
type CreateFeedbackInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// FeedbackItem is one feedback entry as the submitting user sees it.
type FeedbackItem struct {
	ID        uint   `json:"id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"created_at"`
}

// AdminFeedbackItem adds the reviewer-facing fields to a feedback entry.
type AdminFeedbackItem struct {
	ID             uint    `json:"id"`
	UserID         uint    `json:"user_id"`
	Rating         int     `json:"rating"`
	Comment        string  `json:"comment"`
	Classification *string `json:"classification"`
	CreatedAt      string  `json:"created_at"`
	UserName       string  `json:"user_name"`
}

// FeedbackService stores app ratings and serves them back to users and the
// admin panel.
type FeedbackService struct {
	feedbacks  repository.FeedbackRepository
	classifier sentiment.Classifier
}

// NewFeedbackService creates a FeedbackService.
func NewFeedbackService(feedbacks repository.FeedbackRepository, classifier sentiment.Classifier) *FeedbackService {
	return &FeedbackService{feedbacks: feedbacks, classifier: classifier}
}

// Create validates and stores a feedback entry. The sentiment label is
// best-effort; a classifier outage never blocks the write.
func (s *FeedbackService) Create(ctx context.Context, userID uint, input CreateFeedbackInput) (*FeedbackItem, error) {
	if input.Rating < 1 || input.Rating > 5 || utf8.RuneCountInString(input.Comment) < 3 {
		return nil, models.NewValidationError("Invalid feedback data")
	}

	feedback := &models.Feedback{
		UserID:  userID,
		Rating:  input.Rating,
		Comment: input.Comment,
	}
	label, err := s.classifier.Classify(ctx, input.Comment)
	if err != nil {
		observability.GlobalLogger.ErrorContext(ctx, "feedback classification failed",
			slog.Uint64("user_id", uint64(userID)),
			slog.String("error", err.Error()),
		)
	} else if label != "" {
		feedback.Classification = &label
	}

	if err := s.feedbacks.Create(ctx, feedback); err != nil {
		return nil, err
	}
	return feedbackItem(feedback), nil
}

// ListMine returns the caller's feedback, newest first.
func (s *FeedbackService) ListMine(ctx context.Context, userID uint) ([]FeedbackItem, error) {
	feedbacks, err := s.feedbacks.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]FeedbackItem, 0, len(feedbacks))
	for i := range feedbacks {
		items = append(items, *feedbackItem(&feedbacks[i]))
	}
	return items, nil
}

// ListAll returns the newest feedback across all users for the admin panel.
func (s *FeedbackService) ListAll(ctx context.Context) ([]AdminFeedbackItem, error) {
	feedbacks, err := s.feedbacks.ListAll(ctx, adminFeedbackLimit)
	if err != nil {
		return nil, err
	}

	items := make([]AdminFeedbackItem, 0, len(feedbacks))
	for i := range feedbacks {
		feedback := &feedbacks[i]
		userName := "Unknown"
		if feedback.User.ID != 0 {
			userName = feedback.User.Name
		}
		items = append(items, AdminFeedbackItem{
			ID:             feedback.ID,
			UserID:         feedback.UserID,
			Rating:         feedback.Rating,
			Comment:        feedback.Comment,
			Classification: feedback.Classification,
			CreatedAt:      feedback.CreatedAt.UTC().Format(time.RFC3339),
			UserName:       userName,
		})
	}
	return items, nil
}

func feedbackItem(feedback *models.Feedback) *FeedbackItem {
	return &FeedbackItem{
		ID:        feedback.ID,
		Rating:    feedback.Rating,
		Comment:   feedback.Comment,
		CreatedAt: feedback.CreatedAt.UTC().Format(time.RFC3339),
	}
}
