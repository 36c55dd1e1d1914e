// Package middleware provides authentication and authorization middleware for the application.
package middleware

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer and audience baked into every token this API signs.
const (
	TokenIssuer   = "nutribunda-api"
	TokenAudience = "nutribunda-client"
)

// TokenTTL is how long issued tokens stay valid.
const TokenTTL = 12 * time.Hour

// GenerateToken signs an HS256 token carrying the standard claim set. The
// jti is unique per token so logout can blacklist it individually.
func GenerateToken(secret string, userID uint, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(userID), 10),
		"role": role,
		"iss":  TokenIssuer,
		"aud":  TokenAudience,
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
		"jti":  uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

var (
	// ErrMissingBearer indicates the Authorization header is absent or malformed.
	ErrMissingBearer = errors.New("missing bearer token")
	// ErrInvalidToken indicates the token failed validation.
	ErrInvalidToken = errors.New("invalid token")
)

// BearerToken extracts the raw token from the Authorization header.
func BearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingBearer
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", ErrMissingBearer
	}
	return parts[1], nil
}

// ValidateToken parses and validates a signed JWT, checking the signing
// method, issuer, and audience. Every failure collapses into ErrInvalidToken
// so callers cannot tell why a token was rejected.
func ValidateToken(secret, tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != TokenIssuer {
		return nil, ErrInvalidToken
	}
	if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != TokenAudience {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// UserIDFromClaims extracts the numeric user ID from the subject claim.
func UserIDFromClaims(claims jwt.MapClaims) (uint, error) {
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return uint(userID), nil
}

// RoleFromClaims extracts the role claim, empty when absent.
func RoleFromClaims(claims jwt.MapClaims) string {
	if role, ok := claims["role"].(string); ok {
		return role
	}
	return ""
}
