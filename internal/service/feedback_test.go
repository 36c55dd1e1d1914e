package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutribunda/internal/models"
)

func TestFeedbackService_Create_StoresClassifiedFeedback(t *testing.T) {
	repo := noopFeedbackRepo()
	var created *models.Feedback
	repo.createFn = func(_ context.Context, feedback *models.Feedback) error {
		feedback.ID = 5
		feedback.CreatedAt = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
		created = feedback
		return nil
	}
	svc := NewFeedbackService(repo, staticClassifier("Positif", nil))

	item, err := svc.Create(context.Background(), 4, CreateFeedbackInput{Rating: 5, Comment: "Sangat membantu"})

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, uint(4), created.UserID)
	require.NotNil(t, created.Classification)
	assert.Equal(t, "Positif", *created.Classification)
	assert.Equal(t, uint(5), item.ID)
	assert.Equal(t, 5, item.Rating)
	assert.Equal(t, "2025-03-10T12:00:00Z", item.CreatedAt)
}

func TestFeedbackService_Create_ClassifierOutageStillStores(t *testing.T) {
	repo := noopFeedbackRepo()
	var created *models.Feedback
	repo.createFn = func(_ context.Context, feedback *models.Feedback) error {
		created = feedback
		return nil
	}
	svc := NewFeedbackService(repo, staticClassifier("", errors.New("model loading")))

	_, err := svc.Create(context.Background(), 4, CreateFeedbackInput{Rating: 2, Comment: "Masih sering error"})

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Nil(t, created.Classification)
}

func TestFeedbackService_Create_Validation(t *testing.T) {
	repo := noopFeedbackRepo()
	repo.createFn = func(context.Context, *models.Feedback) error {
		t.Fatal("create should not be called")
		return nil
	}
	svc := NewFeedbackService(repo, staticClassifier("", nil))

	cases := []struct {
		name  string
		input CreateFeedbackInput
	}{
		{"rating too low", CreateFeedbackInput{Rating: 0, Comment: "Bagus sekali"}},
		{"rating too high", CreateFeedbackInput{Rating: 6, Comment: "Bagus sekali"}},
		{"comment too short", CreateFeedbackInput{Rating: 4, Comment: "ok"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), 4, tc.input)

			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, models.CodeValidationError, appErr.Code)
			assert.Equal(t, "Invalid feedback data", appErr.Message)
		})
	}
}

func TestFeedbackService_ListMine(t *testing.T) {
	repo := noopFeedbackRepo()
	repo.listByUserFn = func(_ context.Context, userID uint) ([]models.Feedback, error) {
		assert.Equal(t, uint(4), userID)
		return []models.Feedback{
			{ID: 2, UserID: 4, Rating: 4, Comment: "Fitur scan mantap", CreatedAt: time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)},
			{ID: 1, UserID: 4, Rating: 3, Comment: "Cukup baik", CreatedAt: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)},
		}, nil
	}
	svc := NewFeedbackService(repo, staticClassifier("", nil))

	items, err := svc.ListMine(context.Background(), 4)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, uint(2), items[0].ID)
	assert.Equal(t, "Fitur scan mantap", items[0].Comment)
	assert.Equal(t, "2025-03-09T08:00:00Z", items[0].CreatedAt)
}

func TestFeedbackService_ListAll(t *testing.T) {
	repo := noopFeedbackRepo()
	label := "Negatif"
	repo.listAllFn = func(_ context.Context, limit int) ([]models.Feedback, error) {
		assert.Equal(t, 50, limit)
		return []models.Feedback{
			{
				ID: 3, UserID: 4, Rating: 2, Comment: "Sering lambat",
				Classification: &label,
				CreatedAt:      time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
				User:           models.User{ID: 4, Name: "Ani"},
			},
			{
				ID: 2, UserID: 9, Rating: 5, Comment: "Sangat membantu",
				CreatedAt: time.Date(2025, 3, 8, 9, 0, 0, 0, time.UTC),
			},
		}, nil
	}
	svc := NewFeedbackService(repo, staticClassifier("", nil))

	items, err := svc.ListAll(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Ani", items[0].UserName)
	require.NotNil(t, items[0].Classification)
	assert.Equal(t, "Negatif", *items[0].Classification)
	// Deleted or missing submitters still render.
	assert.Equal(t, "Unknown", items[1].UserName)
	assert.Nil(t, items[1].Classification)
}
