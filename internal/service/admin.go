package service

import (
	"context"
	"strings"
	"time"

	"nutribunda/internal/models"
	"nutribunda/internal/repository"
)

// AdminUserQuery mirrors the admin user listing's query parameters.
type AdminUserQuery struct {
	Page   int
	Limit  int
	Search string
	Role   string
}

// AdminUserItem is one row of the admin user listing.
type AdminUserItem struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Role      *string `json:"role"`
	CreatedAt *string `json:"created_at"`
}

// AdminUserList is the paginated user listing envelope.
type AdminUserList struct {
	Items []AdminUserItem `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	Pages int             `json:"pages"`
}

// AdminUserRole is the response after a role assignment.
type AdminUserRole struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AdminStats are the dashboard headline counters. The mobile admin panel
// binds the *_change fields; trend math never shipped, so they stay 0.
type AdminStats struct {
	TotalUsers        int64 `json:"total_users"`
	TotalUsersChange  int   `json:"total_users_change"`
	TotalActiveMenus  int64 `json:"total_active_menus"`
	ActiveMenusChange int   `json:"active_menus_change"`
	TotalIngredients  int64 `json:"total_ingredients"`
	IngredientsChange int   `json:"ingredients_change"`
	TotalArticles     int64 `json:"total_articles"`
	ArticlesChange    int   `json:"articles_change"`
	ActiveUsersToday  int64 `json:"active_users_today"`
	ActiveUsersChange int   `json:"active_users_change"`
}

// AdminService backs the admin panel: user management and the dashboard
// counters.
type AdminService struct {
	users       repository.UserRepository
	menus       repository.MenuRepository
	ingredients repository.IngredientRepository
	articles    repository.ArticleRepository
	now         func() time.Time
}

// NewAdminService creates an AdminService.
func NewAdminService(
	users repository.UserRepository,
	menus repository.MenuRepository,
	ingredients repository.IngredientRepository,
	articles repository.ArticleRepository,
) *AdminService {
	return &AdminService{
		users:       users,
		menus:       menus,
		ingredients: ingredients,
		articles:    articles,
		now:         time.Now,
	}
}

// ListUsers returns a page of users filtered by a name/email search and an
// exact role name.
func (s *AdminService) ListUsers(ctx context.Context, query AdminUserQuery) (*AdminUserList, error) {
	page, limit := normalizePage(query.Page, query.Limit, 100)
	users, total, err := s.users.List(ctx, strings.TrimSpace(query.Search), strings.TrimSpace(query.Role), page, limit)
	if err != nil {
		return nil, err
	}

	items := make([]AdminUserItem, 0, len(users))
	for i := range users {
		items = append(items, adminUserItem(&users[i]))
	}
	pages := int((total + int64(limit) - 1) / int64(limit))
	return &AdminUserList{Items: items, Total: total, Page: page, Limit: limit, Pages: pages}, nil
}

// GetUser returns one user's admin card.
func (s *AdminService) GetUser(ctx context.Context, id uint) (*AdminUserItem, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	item := adminUserItem(user)
	return &item, nil
}

// UpdateUserRole assigns a role to a user by role name.
func (s *AdminService) UpdateUserRole(ctx context.Context, id uint, roleName string) (*AdminUserRole, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(roleName)
	if name == "" {
		return nil, models.NewValidationError("Role name is required")
	}
	role, err := s.users.GetRoleByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, models.NewRoleNotFoundError(name)
	}

	if err := s.users.SetRole(ctx, user.ID, role.ID); err != nil {
		return nil, err
	}
	return &AdminUserRole{ID: user.ID, Name: user.Name, Email: user.Email, Role: role.Name}, nil
}

// Stats returns the dashboard headline counters.
func (s *AdminService) Stats(ctx context.Context) (*AdminStats, error) {
	totalUsers, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	activeMenus, err := s.menus.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	totalIngredients, err := s.ingredients.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalArticles, err := s.articles.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	newUsers, err := s.users.CountCreatedSince(ctx, s.now().UTC().Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}

	return &AdminStats{
		TotalUsers:       totalUsers,
		TotalActiveMenus: activeMenus,
		TotalIngredients: totalIngredients,
		TotalArticles:    totalArticles,
		ActiveUsersToday: newUsers,
	}, nil
}

// UserGrowth returns per-day registration counts for the last `days` days,
// today included, with missing days filled as zero.
func (s *AdminService) UserGrowth(ctx context.Context, days int) ([]repository.UserGrowthPoint, error) {
	if days < 7 {
		days = 7
	} else if days > 365 {
		days = 365
	}

	end := s.now().UTC()
	start := end.AddDate(0, 0, -days)
	points, err := s.users.CountCreatedPerDay(ctx, start)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(points))
	for _, point := range points {
		counts[point.Date] = point.Count
	}

	series := make([]repository.UserGrowthPoint, 0, days+1)
	for current := start; !current.After(end); current = current.AddDate(0, 0, 1) {
		date := current.Format(dateLayout)
		series = append(series, repository.UserGrowthPoint{Date: date, Count: counts[date]})
	}
	return series, nil
}

func adminUserItem(user *models.User) AdminUserItem {
	item := AdminUserItem{ID: user.ID, Name: user.Name, Email: user.Email}
	if user.Role != nil {
		item.Role = &user.Role.Name
	}
	if !user.CreatedAt.IsZero() {
		created := user.CreatedAt.UTC().Format(time.RFC3339)
		item.CreatedAt = &created
	}
	return item
}
