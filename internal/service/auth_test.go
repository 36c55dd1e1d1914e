package service

import (
	"context"
	"testing"

	"nutribunda/internal/googleauth"
	"nutribunda/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func authFixture() (*AuthService, *userRepoStub, *preferenceRepoStub) {
	users := noopUserRepo()
	prefs := noopPreferenceRepo()
	svc := NewAuthService(users, prefs, staticVerifier(nil, googleauth.ErrInvalidIDToken),
		func(_ uint, role string) (string, error) { return "minted:" + role, nil })
	return svc, users, prefs
}

func localAccount(t *testing.T) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	roleID := uint(1)
	return &models.User{
		ID:       7,
		Name:     "Bunda Sari",
		Email:    "bunda@example.com",
		Password: string(hash),
		RoleID:   &roleID,
		Role:     &models.Role{ID: 1, Name: models.RolePregnant},
	}
}

func TestAuthService_Login(t *testing.T) {
	svc, users, prefs := authFixture()
	users.getByEmailFn = func(_ context.Context, email string) (*models.User, error) {
		assert.Equal(t, "bunda@example.com", email)
		return localAccount(t), nil
	}
	prefs.existsFn = func(_ context.Context, userID uint) (bool, error) {
		assert.Equal(t, uint(7), userID)
		return true, nil
	}

	resp, err := svc.Login(context.Background(), LoginInput{
		Email:    "  Bunda@Example.COM ",
		Password: "secret123",
	})

	require.NoError(t, err)
	assert.Equal(t, "minted:IBU_HAMIL", resp.Token)
	assert.Equal(t, AuthUser{ID: 7, Name: "Bunda Sari", Email: "bunda@example.com", Role: "IBU_HAMIL"}, resp.User)
	assert.True(t, resp.HasPreferences)
	assert.False(t, resp.NeedsPreferences)
}

func TestAuthService_Login_UniformRejection(t *testing.T) {
	// Unknown email and wrong password must be indistinguishable.
	svc, users, _ := authFixture()

	_, unknownErr := svc.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "secret123"})

	users.getByEmailFn = func(context.Context, string) (*models.User, error) {
		return localAccount(t), nil
	}
	_, wrongPwErr := svc.Login(context.Background(), LoginInput{Email: "bunda@example.com", Password: "not-it"})

	var appErr *models.AppError
	require.ErrorAs(t, unknownErr, &appErr)
	assert.Equal(t, models.CodeInvalidCredentials, appErr.Code)
	assert.Equal(t, "Email or password incorrect", appErr.Message)
	assert.Equal(t, unknownErr, wrongPwErr)
}

func TestAuthService_Login_Validation(t *testing.T) {
	svc, _, _ := authFixture()

	cases := []struct {
		name  string
		input LoginInput
	}{
		{"missing email", LoginInput{Password: "secret123"}},
		{"missing password", LoginInput{Email: "bunda@example.com"}},
		{"blank email", LoginInput{Email: "   ", Password: "secret123"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tc.input)

			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, models.CodeValidationError, appErr.Code)
			assert.Equal(t, "email and password required", appErr.Message)
		})
	}
}

func TestAuthService_Login_OAuthOnlyAccount(t *testing.T) {
	// Google-created accounts have no password hash; a local login attempt
	// gets the same 401 as a wrong password.
	svc, users, _ := authFixture()
	users.getByEmailFn = func(context.Context, string) (*models.User, error) {
		return &models.User{ID: 3, Email: "bunda@gmail.com"}, nil
	}

	_, err := svc.Login(context.Background(), LoginInput{Email: "bunda@gmail.com", Password: "anything"})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeInvalidCredentials, appErr.Code)
}

func TestAuthService_Register(t *testing.T) {
	svc, users, _ := authFixture()
	var created *models.User
	users.createFn = func(_ context.Context, user *models.User) error {
		user.ID = 42
		created = user
		return nil
	}

	resp, err := svc.Register(context.Background(), RegisterInput{
		Name:     "  Bunda Rina ",
		Email:    "Rina@Example.com",
		Password: "rahasia1",
	})

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "Bunda Rina", created.Name)
	assert.Equal(t, "rina@example.com", created.Email)
	assert.Nil(t, created.RoleID, "role is assigned by the preference flow, not signup")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("rahasia1")))
	assert.NotEqual(t, "rahasia1", created.Password)

	assert.Equal(t, "minted:", resp.Token)
	assert.Equal(t, AuthUser{ID: 42, Name: "Bunda Rina", Email: "rina@example.com", Role: ""}, resp.User)
	assert.False(t, resp.HasPreferences)
	assert.True(t, resp.NeedsPreferences)
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _, _ := authFixture()

	cases := []struct {
		name    string
		input   RegisterInput
		message string
	}{
		{"missing email", RegisterInput{Password: "rahasia1"}, "email and password required"},
		{"missing password", RegisterInput{Email: "rina@example.com"}, "email and password required"},
		{"short password", RegisterInput{Email: "rina@example.com", Password: "12345"}, "password must be at least 6 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.input)

			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, models.CodeValidationError, appErr.Code)
			assert.Equal(t, tc.message, appErr.Message)
		})
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, users, _ := authFixture()
	users.getByEmailFn = func(context.Context, string) (*models.User, error) {
		return localAccount(t), nil
	}

	_, err := svc.Register(context.Background(), RegisterInput{Email: "bunda@example.com", Password: "rahasia1"})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeEmailInUse, appErr.Code)
	assert.Equal(t, "email already registered", appErr.Message)
}

func googleProfile() *googleauth.Profile {
	return &googleauth.Profile{
		Subject: "g-109876",
		Email:   "Bunda@Gmail.com",
		Name:    "Bunda Google",
		Picture: "https://lh3.googleusercontent.com/a/photo.jpg",
	}
}

func TestAuthService_GoogleLogin_CreatesAccount(t *testing.T) {
	svc, users, _ := authFixture()
	svc.verifier = staticVerifier(googleProfile(), nil)
	var created *models.User
	users.createFn = func(_ context.Context, user *models.User) error {
		user.ID = 9
		created = user
		return nil
	}
	users.updateProfileFn = func(context.Context, uint, map[string]any) error {
		t.Error("fresh account already matches the google profile")
		return nil
	}

	resp, err := svc.GoogleLogin(context.Background(), "ey.valid")

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "bunda@gmail.com", created.Email)
	assert.Equal(t, "Bunda Google", created.Name)
	require.NotNil(t, created.GoogleID)
	assert.Equal(t, "g-109876", *created.GoogleID)
	assert.Equal(t, "https://lh3.googleusercontent.com/a/photo.jpg", created.Avatar)
	assert.Empty(t, created.Password)

	assert.Equal(t, "minted:", resp.Token)
	assert.True(t, resp.NeedsPreferences)
}

func TestAuthService_GoogleLogin_LinksLocalAccount(t *testing.T) {
	svc, users, prefs := authFixture()
	svc.verifier = staticVerifier(googleProfile(), nil)
	account := localAccount(t)
	account.Email = "bunda@gmail.com"
	users.getByEmailFn = func(_ context.Context, email string) (*models.User, error) {
		assert.Equal(t, "bunda@gmail.com", email)
		return account, nil
	}
	var linkedUser uint
	var linkedGoogleID string
	users.linkGoogleIDFn = func(_ context.Context, id uint, googleID string) error {
		linkedUser, linkedGoogleID = id, googleID
		return nil
	}
	users.createFn = func(context.Context, *models.User) error {
		t.Error("existing account must be linked, not duplicated")
		return nil
	}
	prefs.existsFn = func(context.Context, uint) (bool, error) { return true, nil }

	resp, err := svc.GoogleLogin(context.Background(), "ey.valid")

	require.NoError(t, err)
	assert.Equal(t, uint(7), linkedUser)
	assert.Equal(t, "g-109876", linkedGoogleID)
	assert.Equal(t, "minted:IBU_HAMIL", resp.Token)
	assert.True(t, resp.HasPreferences)
	assert.False(t, resp.NeedsPreferences)
}

func TestAuthService_GoogleLogin_RefreshesProfile(t *testing.T) {
	svc, users, _ := authFixture()
	svc.verifier = staticVerifier(googleProfile(), nil)
	googleID := "g-109876"
	users.getByGoogleIDFn = func(context.Context, string) (*models.User, error) {
		return &models.User{ID: 9, Name: "Old Name", Email: "bunda@gmail.com", GoogleID: &googleID, Avatar: "https://old/avatar.jpg"}, nil
	}
	var updated map[string]any
	users.updateProfileFn = func(_ context.Context, id uint, fields map[string]any) error {
		assert.Equal(t, uint(9), id)
		updated = fields
		return nil
	}

	resp, err := svc.GoogleLogin(context.Background(), "ey.valid")

	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":   "Bunda Google",
		"avatar": "https://lh3.googleusercontent.com/a/photo.jpg",
	}, updated)
	assert.Equal(t, "Bunda Google", resp.User.Name)
}

func TestAuthService_GoogleLogin_BadToken(t *testing.T) {
	svc, _, _ := authFixture()

	_, err := svc.GoogleLogin(context.Background(), "forged")

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeUnauthorized, appErr.Code)
	assert.Equal(t, "Invalid Google token", appErr.Message)
}

func TestAuthService_GoogleLogin_RequiresToken(t *testing.T) {
	svc, _, _ := authFixture()

	_, err := svc.GoogleLogin(context.Background(), "   ")

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidationError, appErr.Code)
	assert.Equal(t, "id_token required", appErr.Message)
}

func TestAuthService_Status(t *testing.T) {
	svc, _, prefs := authFixture()

	status, err := svc.Status(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, status.HasPreferences)
	assert.True(t, status.NeedsPreferences)

	prefs.existsFn = func(context.Context, uint) (bool, error) { return true, nil }
	status, err = svc.Status(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, status.HasPreferences)
	assert.False(t, status.NeedsPreferences)
}
