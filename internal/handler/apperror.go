package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	// Invalid webhook signatures answer 400, matching what the provider's
	// retry logic expects for an authentication problem.
	ErrInvalidSignature = &AppError{http.StatusBadRequest, "INVALID_SIGNATURE", "Webhook signature is missing or invalid"}

	ErrInsufficientFunds   = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "Insufficient balance"}
	ErrDuplicateEmail      = &AppError{http.StatusConflict, "EMAIL_EXISTS", "Email already registered"}
	ErrInvalidAmount       = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be at least 1"}
	ErrNotOwner            = &AppError{http.StatusForbidden, "NOT_OWNER", "Resource belongs to another user"}
	ErrMissingOrderID      = &AppError{http.StatusBadRequest, "MISSING_ORDER_ID", "orderId query parameter is required"}
	ErrProviderUnavailable = &AppError{http.StatusInternalServerError, "PROVIDER_UNAVAILABLE", "Payment provider request failed"}
	ErrStorageFailure      = &AppError{http.StatusInternalServerError, "STORAGE_FAILURE", "Could not persist payment state"}
)
