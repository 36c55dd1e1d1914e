package models

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Stable error codes returned to clients. Mobile and admin frontends
// branch on these, so they must not change between releases.
const (
	CodeValidationError    = "VALIDATION_ERROR"
	CodeInvalidFormat      = "INVALID_FORMAT"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeEmailInUse         = "EMAIL_IN_USE"
	CodeDuplicateEntry     = "DUPLICATE_ENTRY"
	CodeNotFound           = "NOT_FOUND"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeRoleNotFound       = "ROLE_NOT_FOUND"
	CodeMenuNotFound       = "MENU_NOT_FOUND"
	CodeMenuEmpty          = "MENU_EMPTY"
	CodeImageRequired      = "IMAGE_REQUIRED"
	CodePreferenceRequired = "PREFERENCE_REQUIRED"
	CodePreferenceNotFound = "PREFERENCE_NOT_FOUND"
	CodeScanError          = "SCAN_ERROR"
	CodeRecommendation     = "RECOMMENDATION_ERROR"
	CodeFeatureDisabled    = "FEATURE_DISABLED"
	CodeUnknownError       = "UNKNOWN_ERROR"
)

// ErrorBody is the inner object of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the standard error envelope: {"error":{"code":...,"message":...}}
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidationError, Message: message}
}

func NewInvalidFormatError(message string) *AppError {
	return &AppError{Code: CodeInvalidFormat, Message: message}
}

func NewInvalidInputError(message string) *AppError {
	return &AppError{Code: CodeInvalidInput, Message: message}
}

// NewInvalidCredentialsError is deliberately identical for unknown email
// and wrong password so login cannot be used to enumerate accounts.
func NewInvalidCredentialsError() *AppError {
	return &AppError{Code: CodeInvalidCredentials, Message: "Email or password incorrect"}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

func NewEmailInUseError() *AppError {
	return &AppError{Code: CodeEmailInUse, Message: "email already registered"}
}

func NewDuplicateEntryError(message string) *AppError {
	return &AppError{Code: CodeDuplicateEntry, Message: message}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func NewUserNotFoundError() *AppError {
	return &AppError{Code: CodeUserNotFound, Message: "User not found"}
}

func NewRoleNotFoundError(role string) *AppError {
	return &AppError{Code: CodeRoleNotFound, Message: fmt.Sprintf("Role '%s' not found", role)}
}

func NewMenuNotFoundError() *AppError {
	return &AppError{Code: CodeMenuNotFound, Message: "menu_id does not exist"}
}

func NewMenuEmptyError() *AppError {
	return &AppError{Code: CodeMenuEmpty, Message: "No ingredients for the specified menu_id"}
}

func NewImageRequiredError() *AppError {
	return &AppError{Code: CodeImageRequired, Message: "image file is required"}
}

func NewPreferenceRequiredError() *AppError {
	return &AppError{Code: CodePreferenceRequired, Message: "Please complete preferences"}
}

func NewPreferenceNotFoundError() *AppError {
	return &AppError{Code: CodePreferenceNotFound, Message: "User preference not found"}
}

func NewScanError(err error) *AppError {
	return &AppError{Code: CodeScanError, Message: "Food scan failed", Err: err}
}

func NewRecommendationError(err error) *AppError {
	return &AppError{Code: CodeRecommendation, Message: "Recommendation failed", Err: err}
}

func NewFeatureDisabledError(feature string) *AppError {
	return &AppError{Code: CodeFeatureDisabled, Message: fmt.Sprintf("Feature '%s' is temporarily unavailable", feature)}
}

func NewInternalError(err error) *AppError {
	return &AppError{Code: CodeUnknownError, Message: "Internal server error", Err: err}
}

// RespondWithError writes the standard error envelope. The wrapped cause is
// never serialized; it stays server side for logging.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	body := ErrorBody{Code: CodeUnknownError, Message: "Internal server error"}

	if appErr, ok := err.(*AppError); ok {
		body.Code = appErr.Code
		body.Message = appErr.Message
	} else if err != nil && status < fiber.StatusInternalServerError {
		body.Message = err.Error()
	}

	return c.Status(status).JSON(ErrorResponse{Error: body})
}
