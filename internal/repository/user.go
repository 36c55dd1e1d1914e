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

// UserGrowthPoint is one day of registration counts for the admin dashboard.
type UserGrowthPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// UserRepository defines persistence operations for users and roles.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id uint, fields map[string]any) error
	SetRole(ctx context.Context, id uint, roleID uint) error
	LinkGoogleID(ctx context.Context, id uint, googleID string) error
	List(ctx context.Context, search, role string, page, limit int) ([]models.User, int64, error)
	Count(ctx context.Context) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	CountCreatedPerDay(ctx context.Context, since time.Time) ([]UserGrowthPoint, error)
	GetRoleByName(ctx context.Context, name string) (*models.Role, error)
	ListRoles(ctx context.Context) ([]models.Role, error)
}

type userRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
	logger  *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db:      db,
		metrics: observability.NewDatabaseMetrics(db),
		logger:  observability.NewRepoLogger("users"),
	}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	key := cache.UserKey(id)

	err := cache.Aside(ctx, key, &user, cache.UserTTL, func() error {
		defer r.metrics.TrackQuery("select", "users")()
		if err := r.db.WithContext(ctx).Preload("Role").First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewUserNotFoundError()
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	defer r.metrics.TrackQuery("select", "users")()
	if err := r.db.WithContext(ctx).Preload("Role").Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	var user models.User
	defer r.metrics.TrackQuery("select", "users")()
	if err := r.db.WithContext(ctx).Preload("Role").Where("google_id = ?", googleID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer r.metrics.TrackQuery("insert", "users")()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewEmailInUseError()
		}
		return models.NewInternalError(err)
	}
	r.logger.LogCreate(ctx, map[string]interface{}{"user_id": user.ID})
	return nil
}

// UpdateProfile writes only the given columns so cached reads can never leak
// a stale zero value back into the row.
func (r *userRepository) UpdateProfile(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	defer r.metrics.TrackQuery("update", "users")()
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) SetRole(ctx context.Context, id uint, roleID uint) error {
	defer r.metrics.TrackQuery("update", "users")()
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role_id", roleID).Error; err != nil {
		r.logger.LogError(ctx, err, "set_role")
		return models.NewInternalError(err)
	}
	r.logger.LogUpdate(ctx, map[string]interface{}{"user_id": id, "role_id": roleID})
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) LinkGoogleID(ctx context.Context, id uint, googleID string) error {
	defer r.metrics.TrackQuery("update", "users")()
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("google_id", googleID).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) List(ctx context.Context, search, role string, page, limit int) ([]models.User, int64, error) {
	limit = clampLimit(limit, 10, 100)
	if page < 1 {
		page = 1
	}

	query := r.db.WithContext(ctx).Model(&models.User{})
	if search != "" {
		// LOWER+LIKE instead of ILIKE so the query also runs on sqlite.
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(users.name) LIKE ? OR LOWER(users.email) LIKE ?", pattern, pattern)
	}
	if role != "" {
		query = query.Joins("JOIN roles ON roles.id = users.role_id").Where("roles.name = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var users []models.User
	defer r.metrics.TrackQuery("select", "users")()
	err := query.Preload("Role").
		Order("users.created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return users, total, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return total, nil
}

func (r *userRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("created_at >= ?", since).
		Count(&total).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return total, nil
}

func (r *userRepository) CountCreatedPerDay(ctx context.Context, since time.Time) ([]UserGrowthPoint, error) {
	var points []UserGrowthPoint
	defer r.metrics.TrackQuery("select", "users")()
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') AS date, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("date").
		Order("date").
		Scan(&points).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return points, nil
}

func (r *userRepository) GetRoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("UPPER(name) = UPPER(?)", name).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &role, nil
}

func (r *userRepository) ListRoles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := r.db.WithContext(ctx).Order("id").Find(&roles).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return roles, nil
}
