package service

import (
	"context"
	"strings"

	"nutribunda/internal/googleauth"
	"nutribunda/internal/models"
	"nutribunda/internal/repository"
	"nutribunda/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// AuthUser is the account summary embedded in every auth envelope.
type AuthUser struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AuthResponse is the envelope returned by login, register, and Google
// login. NeedsPreferences is always the negation of HasPreferences; the
// mobile client binds both fields separately, so both ship and the negation
// is computed here, in one place.
type AuthResponse struct {
	Token            string   `json:"token"`
	User             AuthUser `json:"user"`
	HasPreferences   bool     `json:"has_preferences"`
	NeedsPreferences bool     `json:"needs_preferences"`
}

// PreferencesStatus mirrors the two gating flags without reissuing a token.
type PreferencesStatus struct {
	HasPreferences   bool `json:"has_preferences"`
	NeedsPreferences bool `json:"needs_preferences"`
}

// LoginInput carries local login credentials.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterInput carries the signup form. Name is optional; the preference
// flow collects it later when the user skips it here.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthService owns account creation and session issuance.
type AuthService struct {
	users       repository.UserRepository
	preferences repository.PreferenceRepository
	verifier    googleauth.TokenVerifier
	mintToken   TokenMinter
}

// NewAuthService creates an AuthService.
func NewAuthService(users repository.UserRepository, preferences repository.PreferenceRepository, verifier googleauth.TokenVerifier, mint TokenMinter) *AuthService {
	return &AuthService{users: users, preferences: preferences, verifier: verifier, mintToken: mint}
}

// Login authenticates an email/password pair. Unknown email and wrong
// password collapse into the same 401 so the endpoint cannot be used to
// probe which addresses have accounts.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	email := validation.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, models.NewValidationError("email and password required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewInvalidCredentialsError()
	}
	// OAuth-only accounts store an empty hash, which also fails here.
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		return nil, models.NewInvalidCredentialsError()
	}

	return s.envelope(ctx, user)
}

// Register creates a local account. The role stays empty until the first
// preference write names one.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	email := validation.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, models.NewValidationError("email and password required")
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(input.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateName(input.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewEmailInUseError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		Password: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.envelope(ctx, user)
}

// GoogleLogin exchanges a verified Google ID token for a session. Accounts
// are matched by google_id first, then by email so an existing local account
// gets linked instead of duplicated. Name and avatar follow the Google
// profile on every login.
func (s *AuthService) GoogleLogin(ctx context.Context, idToken string) (*AuthResponse, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, models.NewValidationError("id_token required")
	}

	profile, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid Google token")
	}

	user, err := s.users.GetByGoogleID(ctx, profile.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		email := validation.NormalizeEmail(profile.Email)
		user, err = s.users.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if user != nil {
			if err := s.users.LinkGoogleID(ctx, user.ID, profile.Subject); err != nil {
				return nil, err
			}
			googleID := profile.Subject
			user.GoogleID = &googleID
		} else {
			googleID := profile.Subject
			user = &models.User{
				Name:     profile.Name,
				Email:    email,
				GoogleID: &googleID,
				Avatar:   profile.Picture,
			}
			if err := s.users.Create(ctx, user); err != nil {
				return nil, err
			}
		}
	}

	if err := s.syncGoogleProfile(ctx, user, profile); err != nil {
		return nil, err
	}

	return s.envelope(ctx, user)
}

// Status reports the gating flags for an existing session.
func (s *AuthService) Status(ctx context.Context, userID uint) (*PreferencesStatus, error) {
	has, err := s.preferences.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &PreferencesStatus{HasPreferences: has, NeedsPreferences: !has}, nil
}

func (s *AuthService) syncGoogleProfile(ctx context.Context, user *models.User, profile *googleauth.Profile) error {
	fields := map[string]any{}
	if profile.Name != "" && profile.Name != user.Name {
		user.Name = profile.Name
		fields["name"] = profile.Name
	}
	if profile.Picture != "" && profile.Picture != user.Avatar {
		user.Avatar = profile.Picture
		fields["avatar"] = profile.Picture
	}
	if len(fields) == 0 {
		return nil
	}
	return s.users.UpdateProfile(ctx, user.ID, fields)
}

func (s *AuthService) envelope(ctx context.Context, user *models.User) (*AuthResponse, error) {
	token, err := s.mintToken(user.ID, user.RoleName())
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	has, err := s.preferences.Exists(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		Token: token,
		User: AuthUser{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.RoleName(),
		},
		HasPreferences:   has,
		NeedsPreferences: !has,
	}, nil
}
