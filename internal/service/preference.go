package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"nutribunda/internal/models"
	"nutribunda/internal/repository"
)

// TokenMinter issues a signed API token for a user and role. The preference
// flow needs one because a role change invalidates the role claim baked into
// the caller's current token.
type TokenMinter func(userID uint, role string) (string, error)

// Required profile fields per role. Targets cannot be derived without them,
// so an upsert that leaves any of these nil is rejected.
var roleRequiredFields = map[string][]string{
	models.RolePregnant:  {"weight_kg", "height_cm", "age_year", "hpht", "lila_cm"},
	models.RoleLactating: {"weight_kg", "height_cm", "age_year", "lactation_phase"},
	models.RoleToddler:   {"weight_kg", "height_cm", "age_year", "age_month"},
}

// PreferenceResponse echoes the stored profile together with the targets
// derived from it. Email is only set on reads; Token only when an update
// changed the caller's role, since the old token carries the stale claim.
type PreferenceResponse struct {
	UserID              uint             `json:"user_id"`
	Name                *string          `json:"name"`
	Email               *string          `json:"email,omitempty"`
	Role                string           `json:"role"`
	HeightCm            *int             `json:"height_cm"`
	WeightKg            *float64         `json:"weight_kg"`
	AgeYear             *int             `json:"age_year"`
	AgeMonth            *int             `json:"age_month"`
	Hpht                *string          `json:"hpht"`
	GestationalAgeWeeks *int             `json:"gestational_age_weeks"`
	LilaCm              *float64         `json:"lila_cm"`
	LactationPhase      *string          `json:"lactation_phase"`
	FoodProhibitions    []string         `json:"food_prohibitions"`
	Allergens           []string         `json:"allergens"`
	CalorieTarget       int              `json:"calorie_target"`
	NutritionalTargets  NutritionTargets `json:"nutritional_targets"`
	UpdatedAt           *string          `json:"updated_at"`
	Token               string           `json:"token,omitempty"`
}

// PreferenceService maintains the per-user profile that drives nutrition
// targets. Updates are partial: only keys present in the body are touched.
type PreferenceService struct {
	preferences repository.PreferenceRepository
	users       repository.UserRepository
	mintToken   TokenMinter
	now         func() time.Time
}

// NewPreferenceService creates a PreferenceService.
func NewPreferenceService(preferences repository.PreferenceRepository, users repository.UserRepository, mint TokenMinter) *PreferenceService {
	return &PreferenceService{preferences: preferences, users: users, mintToken: mint, now: time.Now}
}

// Upsert creates or partially updates the caller's preference profile.
// callerRole is the role claim from the token; it seeds the role of a brand
// new profile when the body does not name one. The body is the decoded JSON
// object so that "key absent", "key null", and "key set" stay distinguishable.
func (s *PreferenceService) Upsert(ctx context.Context, userID uint, callerRole string, body map[string]any) (*PreferenceResponse, error) {
	pref, err := s.preferences.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pref == nil {
		role := stringValue(body["role"])
		if role == "" {
			role = callerRole
		}
		if role == "" {
			role = models.RolePregnant
		}
		pref = &models.UserPreference{UserID: userID, Role: strings.ToUpper(role)}
	}

	if v, ok := body["height_cm"]; ok {
		pref.HeightCm = intField(v, pref.HeightCm)
	}
	if v, ok := body["weight_kg"]; ok {
		pref.WeightKg = floatField(v, pref.WeightKg)
	}
	if v, ok := body["age_year"]; ok {
		pref.AgeYear = intField(v, pref.AgeYear)
	}
	if v, ok := body["age_month"]; ok {
		pref.AgeMonth = intField(v, pref.AgeMonth)
	}
	if v, ok := body["lila_cm"]; ok {
		pref.LilaCm = floatField(v, pref.LilaCm)
	}
	if v, ok := body["lactation_phase"]; ok {
		pref.LactationPhase = stringField(v, pref.LactationPhase)
	}

	if v, ok := body["hpht"]; ok {
		hpht, err := parseHpht(v)
		if err != nil {
			return nil, err
		}
		pref.Hpht = hpht
	}

	if v, ok := body["food_prohibitions"]; ok {
		list, err := parseRestrictionList("food_prohibitions", v)
		if err != nil {
			return nil, err
		}
		pref.FoodProhibitions = list
	}
	if v, ok := body["allergens"]; ok {
		list, err := parseRestrictionList("allergens", v)
		if err != nil {
			return nil, err
		}
		pref.Allergens = list
	}

	user, err := getUserIfExists(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}

	incomingName := stringValue(body["name"])
	if incomingName == "" {
		incomingName = stringValue(body["nama"])
	}
	nameChanged := user != nil && incomingName != ""
	if nameChanged {
		user.Name = incomingName
	}

	roleChanged := false
	var newRoleID *uint
	if incomingRole := stringValue(body["role"]); incomingRole != "" {
		roleRow, err := s.users.GetRoleByName(ctx, incomingRole)
		if err != nil {
			return nil, err
		}
		if roleRow == nil {
			return nil, models.NewRoleNotFoundError(incomingRole)
		}
		canonical := strings.ToUpper(roleRow.Name)
		if pref.Role != canonical {
			pref.Role = canonical
			roleChanged = true
		}
		if user != nil && (user.RoleID == nil || *user.RoleID != roleRow.ID) {
			id := roleRow.ID
			user.RoleID = &id
			newRoleID = &id
		}
	}

	if missing := missingRequiredFields(pref); len(missing) > 0 {
		return nil, models.NewValidationError(fmt.Sprintf(
			"Missing required fields for %s: %s",
			strings.ToUpper(pref.Role), strings.Join(missing, ", ")))
	}

	if err := s.preferences.Upsert(ctx, pref); err != nil {
		return nil, err
	}
	if nameChanged {
		if err := s.users.UpdateProfile(ctx, userID, map[string]any{"name": incomingName}); err != nil {
			return nil, err
		}
	}
	if newRoleID != nil {
		if err := s.users.SetRole(ctx, userID, *newRoleID); err != nil {
			return nil, err
		}
	}

	resp := s.preferenceResponse(pref, user)
	if roleChanged {
		token, err := s.mintToken(userID, pref.Role)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		resp.Token = token
	}
	return resp, nil
}

// Get returns the caller's profile plus derived targets.
func (s *PreferenceService) Get(ctx context.Context, userID uint) (*PreferenceResponse, error) {
	pref, err := s.preferences.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pref == nil {
		return nil, models.NewPreferenceNotFoundError()
	}

	user, err := getUserIfExists(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}

	resp := s.preferenceResponse(pref, user)
	if user != nil {
		resp.Email = &user.Email
	}
	return resp, nil
}

// Exists reports whether the caller has completed preferences. Used by the
// preferences-status endpoint and the login payload.
func (s *PreferenceService) Exists(ctx context.Context, userID uint) (bool, error) {
	return s.preferences.Exists(ctx, userID)
}

func (s *PreferenceService) preferenceResponse(pref *models.UserPreference, user *models.User) *PreferenceResponse {
	now := s.now()
	targets := CalculateNutritionTargets(pref, now)

	resp := &PreferenceResponse{
		UserID:              pref.UserID,
		Role:                pref.Role,
		HeightCm:            pref.HeightCm,
		WeightKg:            pref.WeightKg,
		AgeYear:             pref.AgeYear,
		AgeMonth:            pref.AgeMonth,
		Hpht:                pref.HphtString(),
		GestationalAgeWeeks: pref.GestationalAgeWeeks(now),
		LilaCm:              pref.LilaCm,
		LactationPhase:      pref.LactationPhase,
		FoodProhibitions:    append([]string{}, pref.FoodProhibitions...),
		Allergens:           append([]string{}, pref.Allergens...),
		CalorieTarget:       targets.Calories,
		NutritionalTargets:  targets,
	}
	if user != nil {
		resp.Name = &user.Name
	}
	if !pref.UpdatedAt.IsZero() {
		updated := pref.UpdatedAt.UTC().Format(time.RFC3339)
		resp.UpdatedAt = &updated
	}
	return resp
}

func missingRequiredFields(pref *models.UserPreference) []string {
	required, ok := roleRequiredFields[strings.ToUpper(pref.Role)]
	if !ok {
		return nil
	}
	var missing []string
	for _, field := range required {
		if preferenceFieldIsNil(pref, field) {
			missing = append(missing, field)
		}
	}
	return missing
}

func preferenceFieldIsNil(pref *models.UserPreference, field string) bool {
	switch field {
	case "weight_kg":
		return pref.WeightKg == nil
	case "height_cm":
		return pref.HeightCm == nil
	case "age_year":
		return pref.AgeYear == nil
	case "age_month":
		return pref.AgeMonth == nil
	case "hpht":
		return pref.Hpht == nil
	case "lila_cm":
		return pref.LilaCm == nil
	case "lactation_phase":
		return pref.LactationPhase == nil
	}
	return false
}

// getUserIfExists tolerates a missing user row. The preference and dashboard
// flows treat the account lookup as best effort rather than failing the call.
func getUserIfExists(ctx context.Context, users repository.UserRepository, id uint) (*models.User, error) {
	user, err := users.GetByID(ctx, id)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeUserNotFound {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// stringValue extracts a string from a decoded JSON value, "" for anything else.
func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// intField casts a JSON value for an integer column. Null clears the field;
// a value that cannot be cast keeps the stored one.
func intField(v any, current *int) *int {
	if v == nil {
		return nil
	}
	switch t := v.(type) {
	case float64:
		n := int(t)
		return &n
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return &n
		}
	}
	return current
}

// floatField is intField for numeric(x,2) columns.
func floatField(v any, current *float64) *float64 {
	if v == nil {
		return nil
	}
	switch t := v.(type) {
	case float64:
		f := t
		return &f
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return &f
		}
	}
	return current
}

func stringField(v any, current *string) *string {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		return &s
	}
	return current
}

// parseHpht accepts a YYYY-MM-DD string. Falsy values clear the date; any
// other shape is a format error.
func parseHpht(v any) (*time.Time, error) {
	if falsy(v) {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, models.NewInvalidFormatError("hpht must be in YYYY-MM-DD format")
	}
	t, err := time.Parse(models.HphtDateLayout, s)
	if err != nil {
		return nil, models.NewInvalidFormatError("hpht must be in YYYY-MM-DD format")
	}
	return &t, nil
}

// parseRestrictionList accepts a JSON array, or one of the empty sentinels
// mobile clients send (null, "", " ") which clear the list.
func parseRestrictionList(field string, v any) (models.StringList, error) {
	switch t := v.(type) {
	case []any:
		list := make(models.StringList, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				list = append(list, s)
			} else {
				list = append(list, fmt.Sprint(item))
			}
		}
		return list, nil
	case nil:
		return models.StringList{}, nil
	case string:
		if t == "" || t == " " {
			return models.StringList{}, nil
		}
	}
	return nil, models.NewInvalidFormatError(fmt.Sprintf("'%s' must be a list", field))
}

func falsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0
	}
	return false
}
