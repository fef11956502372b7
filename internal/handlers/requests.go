package handlers

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the go-playground/validator library to implement Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// SubmitMessageRequest is the DTO for HTTP-sourced message submissions.
// Deeper validation (kind whitelist, file token resolution) happens in the
// relay core, which is shared with channel-sourced envelopes.
type SubmitMessageRequest struct {
	Kind         string `json:"kind" validate:"required"`
	Content      string `json:"content" validate:"required"`
	OriginalName string `json:"originalName,omitempty"`
	SizeBytes    int64  `json:"sizeBytes,omitempty" validate:"gte=0"`
}

// DeleteMessageRequest identifies one history entry by its content and exact
// server timestamp.
type DeleteMessageRequest struct {
	Content   string    `json:"content" validate:"required"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
}
