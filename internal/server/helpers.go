package server

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"nutribunda/internal/models"
	"nutribunda/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// statusForError maps an application error code to its HTTP status. Errors
// that are not AppErrors, and codes a handler never expects, fall through to
// 500 so nothing internal leaks into a response body.
func statusForError(err error) int {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}

	switch appErr.Code {
	case models.CodeValidationError, models.CodeInvalidFormat, models.CodeInvalidInput,
		models.CodeRoleNotFound, models.CodeMenuEmpty, models.CodeImageRequired:
		return fiber.StatusBadRequest
	case models.CodeInvalidCredentials, models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeForbidden:
		return fiber.StatusForbidden
	case models.CodeNotFound, models.CodeUserNotFound, models.CodeMenuNotFound,
		models.CodePreferenceNotFound:
		return fiber.StatusNotFound
	case models.CodeEmailInUse, models.CodeDuplicateEntry, models.CodePreferenceRequired:
		return fiber.StatusConflict
	case models.CodeFeatureDisabled:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes a service error with its mapped status.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, statusForError(err), err)
}

// currentUserID reads the authenticated user ID placed in locals by AuthRequired.
func currentUserID(c *fiber.Ctx) uint {
	if id, ok := c.Locals("userID").(uint); ok {
		return id
	}
	return 0
}

// currentRole reads the role claim placed in locals by AuthRequired.
func currentRole(c *fiber.Ctx) string {
	if role, ok := c.Locals("role").(string); ok {
		return role
	}
	return ""
}

// currentClaims reads the full claim set placed in locals by AuthRequired.
func currentClaims(c *fiber.Ctx) jwt.MapClaims {
	if claims, ok := c.Locals("claims").(jwt.MapClaims); ok {
		return claims
	}
	return nil
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+strings.ToUpper(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// queryFlag parses a tri-state boolean query parameter; nil when absent.
func queryFlag(c *fiber.Ctx, name string) *bool {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	v := parseLooseBool(raw)
	return &v
}

// parseLooseBool accepts the truthy spellings mobile clients actually send.
func parseLooseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// recommendationParams reads the engine's tuning knobs from the query string,
// falling back to the service defaults.
func recommendationParams(c *fiber.Ctx) service.RecommendationParams {
	return service.RecommendationParams{
		Days:            c.QueryInt("days", 1),
		OptionsPerMeal:  c.QueryInt("options_per_meal", service.DefaultOptionsPerMeal),
		BoostPerHit:     c.QueryInt("boost_per_hit", service.DefaultBoostPerHit),
		BoostPer100G:    c.QueryInt("boost_per_100g", service.DefaultBoostPer100G),
		MinHits:         c.QueryInt("min_hits", service.DefaultMinHits),
		MealType:        c.Query("meal_type"),
		DetectedIDs:     parseDetectedIDs(c),
		RequireDetected: queryFlag(c, "require_detected"),
		BoostByQuantity: queryFlag(c, "boost_by_quantity"),
	}
}

// parseDetectedIDs collects detected ingredient ids from wherever the client
// put them: the detected_ids query parameter (comma or space separated), or a
// JSON body whose list entries are ids or scan-result objects. The scan
// endpoint's response can thus be replayed to the recommender as-is.
func parseDetectedIDs(c *fiber.Ctx) []uint {
	if raw := strings.TrimSpace(c.Query("detected_ids")); raw != "" {
		return splitIDList(raw)
	}

	body := c.Body()
	if len(body) == 0 {
		return nil
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}

	for _, key := range []string{"detected_ids", "detected", "candidates", "items"} {
		list, ok := payload[key].([]any)
		if !ok {
			continue
		}
		ids := make([]uint, 0, len(list))
		for _, entry := range list {
			switch v := entry.(type) {
			case float64:
				if v > 0 {
					ids = append(ids, uint(v))
				}
			case map[string]any:
				for _, idKey := range []string{"ingredient_id", "id"} {
					if n, ok := v[idKey].(float64); ok && n > 0 {
						ids = append(ids, uint(n))
						break
					}
				}
			}
		}
		if len(ids) > 0 {
			return ids
		}
	}
	return nil
}

// splitIDList parses "1,2,3" or "1 2 3" into ids, skipping anything that is
// not a positive integer.
func splitIDList(raw string) []uint {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	ids := make([]uint, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseUint(f, 10, 32)
		if err == nil && id > 0 {
			ids = append(ids, uint(id))
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return ids
}
