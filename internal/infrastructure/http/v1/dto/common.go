// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"farmapos/internal/core/apperror"
	"farmapos/internal/core/id"
)

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates an ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ListResponse wraps list results.
type ListResponse struct {
	Items  any `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// BusinessFailure is the common shape of a declined POS operation.
// Declines travel as HTTP 200 with an explicit flag so terminals can
// distinguish "the register said no" from transport and server faults.
type BusinessFailure struct {
	Success bool           `json:"success"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// NewBusinessFailure builds the decline body from a business error.
func NewBusinessFailure(appErr *apperror.AppError) BusinessFailure {
	return BusinessFailure{
		Success: false,
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
}
