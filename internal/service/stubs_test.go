package service

import (
	"context"
	"time"

	"nutribunda/internal/googleauth"
	"nutribunda/internal/models"
	"nutribunda/internal/repository"
	"nutribunda/internal/vision"
)

// Function-field stubs for the repository interfaces, shared by all service
// tests in this package. The noop constructors return empty successes;
// individual tests override the fields they care about.

type detectorStub struct {
	detectFn func(context.Context, []byte, string) ([]vision.Label, error)
}

func (s *detectorStub) Detect(ctx context.Context, image []byte, filename string) ([]vision.Label, error) {
	return s.detectFn(ctx, image, filename)
}

func staticDetector(labels ...vision.Label) *detectorStub {
	return &detectorStub{
		detectFn: func(context.Context, []byte, string) ([]vision.Label, error) { return labels, nil },
	}
}

type ingredientRepoStub struct {
	listAllFn   func(context.Context) ([]models.FoodIngredient, error)
	searchFn    func(context.Context, []string) ([]models.FoodIngredient, error)
	getByIDFn   func(context.Context, uint) (*models.FoodIngredient, error)
	getByIDsFn  func(context.Context, []uint) ([]models.FoodIngredient, error)
	getByNameFn func(context.Context, string) (*models.FoodIngredient, error)
	createFn    func(context.Context, *models.FoodIngredient) error
	updateFn    func(context.Context, *models.FoodIngredient) error
	deleteFn    func(context.Context, uint) error
	countFn     func(context.Context) (int64, error)
}

func (s *ingredientRepoStub) ListAll(ctx context.Context) ([]models.FoodIngredient, error) {
	return s.listAllFn(ctx)
}
func (s *ingredientRepoStub) Search(ctx context.Context, terms []string) ([]models.FoodIngredient, error) {
	return s.searchFn(ctx, terms)
}
func (s *ingredientRepoStub) GetByID(ctx context.Context, id uint) (*models.FoodIngredient, error) {
	return s.getByIDFn(ctx, id)
}
func (s *ingredientRepoStub) GetByIDs(ctx context.Context, ids []uint) ([]models.FoodIngredient, error) {
	return s.getByIDsFn(ctx, ids)
}
func (s *ingredientRepoStub) GetByName(ctx context.Context, name string) (*models.FoodIngredient, error) {
	return s.getByNameFn(ctx, name)
}
func (s *ingredientRepoStub) Create(ctx context.Context, ingredient *models.FoodIngredient) error {
	return s.createFn(ctx, ingredient)
}
func (s *ingredientRepoStub) Update(ctx context.Context, ingredient *models.FoodIngredient) error {
	return s.updateFn(ctx, ingredient)
}
func (s *ingredientRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *ingredientRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}

func noopIngredientRepo() *ingredientRepoStub {
	return &ingredientRepoStub{
		listAllFn:   func(context.Context) ([]models.FoodIngredient, error) { return nil, nil },
		searchFn:    func(context.Context, []string) ([]models.FoodIngredient, error) { return nil, nil },
		getByIDFn:   func(context.Context, uint) (*models.FoodIngredient, error) { return nil, nil },
		getByIDsFn:  func(context.Context, []uint) ([]models.FoodIngredient, error) { return nil, nil },
		getByNameFn: func(context.Context, string) (*models.FoodIngredient, error) { return nil, nil },
		createFn:    func(context.Context, *models.FoodIngredient) error { return nil },
		updateFn:    func(context.Context, *models.FoodIngredient) error { return nil },
		deleteFn:    func(context.Context, uint) error { return nil },
		countFn:     func(context.Context) (int64, error) { return 0, nil },
	}
}

type menuRepoStub struct {
	listFn        func(context.Context, repository.MenuListParams) ([]models.FoodMenu, int64, error)
	listActiveFn  func(context.Context) ([]models.FoodMenu, error)
	getByIDFn     func(context.Context, uint) (*models.FoodMenu, error)
	createFn      func(context.Context, *models.FoodMenu) error
	updateFn      func(context.Context, *models.FoodMenu, bool) error
	deleteFn      func(context.Context, uint) error
	countActiveFn func(context.Context) (int64, error)
}

func (s *menuRepoStub) List(ctx context.Context, params repository.MenuListParams) ([]models.FoodMenu, int64, error) {
	return s.listFn(ctx, params)
}
func (s *menuRepoStub) ListActive(ctx context.Context) ([]models.FoodMenu, error) {
	return s.listActiveFn(ctx)
}
func (s *menuRepoStub) GetByID(ctx context.Context, id uint) (*models.FoodMenu, error) {
	return s.getByIDFn(ctx, id)
}
func (s *menuRepoStub) Create(ctx context.Context, menu *models.FoodMenu) error {
	return s.createFn(ctx, menu)
}
func (s *menuRepoStub) Update(ctx context.Context, menu *models.FoodMenu, replaceIngredients bool) error {
	return s.updateFn(ctx, menu, replaceIngredients)
}
func (s *menuRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *menuRepoStub) CountActive(ctx context.Context) (int64, error) {
	return s.countActiveFn(ctx)
}

func noopMenuRepo() *menuRepoStub {
	return &menuRepoStub{
		listFn: func(context.Context, repository.MenuListParams) ([]models.FoodMenu, int64, error) {
			return nil, 0, nil
		},
		listActiveFn:  func(context.Context) ([]models.FoodMenu, error) { return nil, nil },
		getByIDFn:     func(context.Context, uint) (*models.FoodMenu, error) { return nil, nil },
		createFn:      func(context.Context, *models.FoodMenu) error { return nil },
		updateFn:      func(context.Context, *models.FoodMenu, bool) error { return nil },
		deleteFn:      func(context.Context, uint) error { return nil },
		countActiveFn: func(context.Context) (int64, error) { return 0, nil },
	}
}

type preferenceRepoStub struct {
	getByUserIDFn func(context.Context, uint) (*models.UserPreference, error)
	upsertFn      func(context.Context, *models.UserPreference) error
	existsFn      func(context.Context, uint) (bool, error)
}

func (s *preferenceRepoStub) GetByUserID(ctx context.Context, userID uint) (*models.UserPreference, error) {
	return s.getByUserIDFn(ctx, userID)
}
func (s *preferenceRepoStub) Upsert(ctx context.Context, pref *models.UserPreference) error {
	return s.upsertFn(ctx, pref)
}
func (s *preferenceRepoStub) Exists(ctx context.Context, userID uint) (bool, error) {
	return s.existsFn(ctx, userID)
}

func noopPreferenceRepo() *preferenceRepoStub {
	return &preferenceRepoStub{
		getByUserIDFn: func(context.Context, uint) (*models.UserPreference, error) { return nil, nil },
		upsertFn:      func(context.Context, *models.UserPreference) error { return nil },
		existsFn:      func(context.Context, uint) (bool, error) { return false, nil },
	}
}

type mealLogRepoStub struct {
	createFn       func(context.Context, *models.FoodMealLog) error
	listByUserFn   func(context.Context, uint, int) ([]models.FoodMealLog, error)
	markConsumedFn func(context.Context, uint, uint) (bool, error)
	sumConsumedFn  func(context.Context, uint) (repository.ConsumedTotals, error)
}

func (s *mealLogRepoStub) Create(ctx context.Context, log *models.FoodMealLog) error {
	return s.createFn(ctx, log)
}
func (s *mealLogRepoStub) ListByUser(ctx context.Context, userID uint, limit int) ([]models.FoodMealLog, error) {
	return s.listByUserFn(ctx, userID, limit)
}
func (s *mealLogRepoStub) MarkConsumed(ctx context.Context, id, userID uint) (bool, error) {
	return s.markConsumedFn(ctx, id, userID)
}
func (s *mealLogRepoStub) SumConsumed(ctx context.Context, userID uint) (repository.ConsumedTotals, error) {
	return s.sumConsumedFn(ctx, userID)
}

func noopMealLogRepo() *mealLogRepoStub {
	return &mealLogRepoStub{
		createFn:       func(context.Context, *models.FoodMealLog) error { return nil },
		listByUserFn:   func(context.Context, uint, int) ([]models.FoodMealLog, error) { return nil, nil },
		markConsumedFn: func(context.Context, uint, uint) (bool, error) { return false, nil },
		sumConsumedFn: func(context.Context, uint) (repository.ConsumedTotals, error) {
			return repository.ConsumedTotals{}, nil
		},
	}
}

type foodLogRepoStub struct {
	createBatchFn func(context.Context, []models.FoodLog) (int, error)
	listByUserFn  func(context.Context, uint, int, *time.Time) ([]models.FoodLog, error)
}

func (s *foodLogRepoStub) CreateBatch(ctx context.Context, logs []models.FoodLog) (int, error) {
	return s.createBatchFn(ctx, logs)
}
func (s *foodLogRepoStub) ListByUser(ctx context.Context, userID uint, limit int, since *time.Time) ([]models.FoodLog, error) {
	return s.listByUserFn(ctx, userID, limit, since)
}

func noopFoodLogRepo() *foodLogRepoStub {
	return &foodLogRepoStub{
		createBatchFn: func(_ context.Context, logs []models.FoodLog) (int, error) { return len(logs), nil },
		listByUserFn:  func(context.Context, uint, int, *time.Time) ([]models.FoodLog, error) { return nil, nil },
	}
}

type userRepoStub struct {
	getByIDFn            func(context.Context, uint) (*models.User, error)
	getByEmailFn         func(context.Context, string) (*models.User, error)
	getByGoogleIDFn      func(context.Context, string) (*models.User, error)
	createFn             func(context.Context, *models.User) error
	updateProfileFn      func(context.Context, uint, map[string]any) error
	setRoleFn            func(context.Context, uint, uint) error
	linkGoogleIDFn       func(context.Context, uint, string) error
	listFn               func(context.Context, string, string, int, int) ([]models.User, int64, error)
	countFn              func(context.Context) (int64, error)
	countCreatedSinceFn  func(context.Context, time.Time) (int64, error)
	countCreatedPerDayFn func(context.Context, time.Time) ([]repository.UserGrowthPoint, error)
	getRoleByNameFn      func(context.Context, string) (*models.Role, error)
	listRolesFn          func(context.Context) ([]models.Role, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return s.getByGoogleIDFn(ctx, googleID)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, id uint, fields map[string]any) error {
	return s.updateProfileFn(ctx, id, fields)
}
func (s *userRepoStub) SetRole(ctx context.Context, id uint, roleID uint) error {
	return s.setRoleFn(ctx, id, roleID)
}
func (s *userRepoStub) LinkGoogleID(ctx context.Context, id uint, googleID string) error {
	return s.linkGoogleIDFn(ctx, id, googleID)
}
func (s *userRepoStub) List(ctx context.Context, search, role string, page, limit int) ([]models.User, int64, error) {
	return s.listFn(ctx, search, role, page, limit)
}
func (s *userRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}
func (s *userRepoStub) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return s.countCreatedSinceFn(ctx, since)
}
func (s *userRepoStub) CountCreatedPerDay(ctx context.Context, since time.Time) ([]repository.UserGrowthPoint, error) {
	return s.countCreatedPerDayFn(ctx, since)
}
func (s *userRepoStub) GetRoleByName(ctx context.Context, name string) (*models.Role, error) {
	return s.getRoleByNameFn(ctx, name)
}
func (s *userRepoStub) ListRoles(ctx context.Context) ([]models.Role, error) {
	return s.listRolesFn(ctx)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:           func(context.Context, uint) (*models.User, error) { return &models.User{}, nil },
		getByEmailFn:        func(context.Context, string) (*models.User, error) { return nil, nil },
		getByGoogleIDFn:     func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:            func(context.Context, *models.User) error { return nil },
		updateProfileFn:     func(context.Context, uint, map[string]any) error { return nil },
		setRoleFn:           func(context.Context, uint, uint) error { return nil },
		linkGoogleIDFn:      func(context.Context, uint, string) error { return nil },
		listFn:              func(context.Context, string, string, int, int) ([]models.User, int64, error) { return nil, 0, nil },
		countFn:             func(context.Context) (int64, error) { return 0, nil },
		countCreatedSinceFn: func(context.Context, time.Time) (int64, error) { return 0, nil },
		countCreatedPerDayFn: func(context.Context, time.Time) ([]repository.UserGrowthPoint, error) {
			return nil, nil
		},
		getRoleByNameFn: func(_ context.Context, name string) (*models.Role, error) {
			return &models.Role{ID: 1, Name: name}, nil
		},
		listRolesFn: func(context.Context) ([]models.Role, error) { return nil, nil },
	}
}

type articleRepoStub struct {
	listAdminFn          func(context.Context, repository.ArticleListParams) ([]models.Article, int64, error)
	listPublishedFn      func(context.Context, repository.ArticleListParams) ([]models.Article, int64, error)
	getByIDFn            func(context.Context, uint) (*models.Article, error)
	getPublishedBySlugFn func(context.Context, string) (*models.Article, error)
	slugExistsFn         func(context.Context, string, uint) (bool, error)
	createFn             func(context.Context, *models.Article) error
	updateFn             func(context.Context, *models.Article, string) error
	softDeleteFn         func(context.Context, uint) (bool, error)
	countActiveFn        func(context.Context) (int64, error)
}

func (s *articleRepoStub) ListAdmin(ctx context.Context, params repository.ArticleListParams) ([]models.Article, int64, error) {
	return s.listAdminFn(ctx, params)
}
func (s *articleRepoStub) ListPublished(ctx context.Context, params repository.ArticleListParams) ([]models.Article, int64, error) {
	return s.listPublishedFn(ctx, params)
}
func (s *articleRepoStub) GetByID(ctx context.Context, id uint) (*models.Article, error) {
	return s.getByIDFn(ctx, id)
}
func (s *articleRepoStub) GetPublishedBySlug(ctx context.Context, slug string) (*models.Article, error) {
	return s.getPublishedBySlugFn(ctx, slug)
}
func (s *articleRepoStub) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	return s.slugExistsFn(ctx, slug, excludeID)
}
func (s *articleRepoStub) Create(ctx context.Context, article *models.Article) error {
	return s.createFn(ctx, article)
}
func (s *articleRepoStub) Update(ctx context.Context, article *models.Article, previousSlug string) error {
	return s.updateFn(ctx, article, previousSlug)
}
func (s *articleRepoStub) SoftDelete(ctx context.Context, id uint) (bool, error) {
	return s.softDeleteFn(ctx, id)
}
func (s *articleRepoStub) CountActive(ctx context.Context) (int64, error) {
	return s.countActiveFn(ctx)
}

func noopArticleRepo() *articleRepoStub {
	return &articleRepoStub{
		listAdminFn: func(context.Context, repository.ArticleListParams) ([]models.Article, int64, error) {
			return nil, 0, nil
		},
		listPublishedFn: func(context.Context, repository.ArticleListParams) ([]models.Article, int64, error) {
			return nil, 0, nil
		},
		getByIDFn:            func(context.Context, uint) (*models.Article, error) { return nil, nil },
		getPublishedBySlugFn: func(context.Context, string) (*models.Article, error) { return nil, nil },
		slugExistsFn:         func(context.Context, string, uint) (bool, error) { return false, nil },
		createFn:             func(context.Context, *models.Article) error { return nil },
		updateFn:             func(context.Context, *models.Article, string) error { return nil },
		softDeleteFn:         func(context.Context, uint) (bool, error) { return true, nil },
		countActiveFn:        func(context.Context) (int64, error) { return 0, nil },
	}
}

type feedbackRepoStub struct {
	createFn     func(context.Context, *models.Feedback) error
	listByUserFn func(context.Context, uint) ([]models.Feedback, error)
	listAllFn    func(context.Context, int) ([]models.Feedback, error)
}

func (s *feedbackRepoStub) Create(ctx context.Context, feedback *models.Feedback) error {
	return s.createFn(ctx, feedback)
}
func (s *feedbackRepoStub) ListByUser(ctx context.Context, userID uint) ([]models.Feedback, error) {
	return s.listByUserFn(ctx, userID)
}
func (s *feedbackRepoStub) ListAll(ctx context.Context, limit int) ([]models.Feedback, error) {
	return s.listAllFn(ctx, limit)
}

func noopFeedbackRepo() *feedbackRepoStub {
	return &feedbackRepoStub{
		createFn:     func(context.Context, *models.Feedback) error { return nil },
		listByUserFn: func(context.Context, uint) ([]models.Feedback, error) { return nil, nil },
		listAllFn:    func(context.Context, int) ([]models.Feedback, error) { return nil, nil },
	}
}

type classifierStub struct {
	classifyFn func(context.Context, string) (string, error)
}

func (s *classifierStub) Classify(ctx context.Context, text string) (string, error) {
	return s.classifyFn(ctx, text)
}

func staticClassifier(label string, err error) *classifierStub {
	return &classifierStub{
		classifyFn: func(context.Context, string) (string, error) { return label, err },
	}
}

type verifierStub struct {
	verifyFn func(context.Context, string) (*googleauth.Profile, error)
}

func (s *verifierStub) Verify(ctx context.Context, idToken string) (*googleauth.Profile, error) {
	return s.verifyFn(ctx, idToken)
}

func staticVerifier(profile *googleauth.Profile, err error) *verifierStub {
	return &verifierStub{
		verifyFn: func(context.Context, string) (*googleauth.Profile, error) { return profile, err },
	}
}

type mediaRepoStub struct {
	getByHashFn func(context.Context, string) (*models.MediaImage, error)
	createFn    func(context.Context, *models.MediaImage) error
}

func (s *mediaRepoStub) GetByHash(ctx context.Context, hash string) (*models.MediaImage, error) {
	return s.getByHashFn(ctx, hash)
}
func (s *mediaRepoStub) Create(ctx context.Context, image *models.MediaImage) error {
	return s.createFn(ctx, image)
}

func noopMediaRepo() *mediaRepoStub {
	return &mediaRepoStub{
		getByHashFn: func(context.Context, string) (*models.MediaImage, error) { return nil, nil },
		createFn:    func(context.Context, *models.MediaImage) error { return nil },
	}
}
