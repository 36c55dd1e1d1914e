package server

import (
	"context"
	"time"

	"nutribunda/internal/models"
	"nutribunda/internal/repository"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a testify mock of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	args := m.Called(ctx, googleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id uint, fields map[string]any) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockUserRepository) SetRole(ctx context.Context, id uint, roleID uint) error {
	args := m.Called(ctx, id, roleID)
	return args.Error(0)
}

func (m *MockUserRepository) LinkGoogleID(ctx context.Context, id uint, googleID string) error {
	args := m.Called(ctx, id, googleID)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, search, role string, page, limit int) ([]models.User, int64, error) {
	args := m.Called(ctx, search, role, page, limit)
	var users []models.User
	if args.Get(0) != nil {
		users = args.Get(0).([]models.User)
	}
	return users, args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) CountCreatedPerDay(ctx context.Context, since time.Time) ([]repository.UserGrowthPoint, error) {
	args := m.Called(ctx, since)
	var points []repository.UserGrowthPoint
	if args.Get(0) != nil {
		points = args.Get(0).([]repository.UserGrowthPoint)
	}
	return points, args.Error(1)
}

func (m *MockUserRepository) GetRoleByName(ctx context.Context, name string) (*models.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Role), args.Error(1)
}

func (m *MockUserRepository) ListRoles(ctx context.Context) ([]models.Role, error) {
	args := m.Called(ctx)
	var roles []models.Role
	if args.Get(0) != nil {
		roles = args.Get(0).([]models.Role)
	}
	return roles, args.Error(1)
}

// MockPreferenceRepository is a testify mock of repository.PreferenceRepository.
type MockPreferenceRepository struct {
	mock.Mock
}

func (m *MockPreferenceRepository) GetByUserID(ctx context.Context, userID uint) (*models.UserPreference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPreference), args.Error(1)
}

func (m *MockPreferenceRepository) Upsert(ctx context.Context, pref *models.UserPreference) error {
	args := m.Called(ctx, pref)
	return args.Error(0)
}

func (m *MockPreferenceRepository) Exists(ctx context.Context, userID uint) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}
