package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-matcher/internal/export"
	"github.com/jonathan/resume-matcher/internal/gateway"
	"github.com/jonathan/resume-matcher/internal/llm"
)

func TestErrorMessages(t *testing.T) {
	userID := uuid.New()
	assert.Equal(t, "email already registered: ada@example.com", (&ErrEmailAlreadyExists{Email: "ada@example.com"}).Error())
	assert.Equal(t, "user not found: "+userID.String(), (&ErrUserNotFound{UserID: userID}).Error())
	assert.Equal(t, "email: not a valid address", (&ErrValidation{Field: "email", Message: "not a valid address"}).Error())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"email exists", &ErrEmailAlreadyExists{Email: "test@example.com"}, http.StatusConflict},
		{"invalid credentials", &ErrInvalidCredentials{}, http.StatusUnauthorized},
		{"password mismatch", &ErrPasswordMismatch{}, http.StatusUnauthorized},
		{"user not found", &ErrUserNotFound{UserID: uuid.New()}, http.StatusNotFound},
		{"validation", &ErrValidation{Field: "password", Message: "too short"}, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("register: %w", &ErrValidation{}), http.StatusBadRequest},
		{"gateway input", &gateway.InputError{Message: "Job description is empty"}, http.StatusBadRequest},
		{"unknown export format", &export.FormatError{Format: "latex"}, http.StatusNotFound},
		{"bad AI reply", &gateway.ResponseError{Operation: "tailor", Message: "invalid"}, http.StatusBadGateway},
		{"provider error", &llm.APIError{Provider: llm.ProviderOpenAI, StatusCode: 500}, http.StatusBadGateway},
		{"missing key", &llm.MissingAPIKeyError{Provider: llm.ProviderOpenAI}, http.StatusServiceUnavailable},
		{"unknown", assert.AnError, http.StatusInternalServerError},
		{"nil", nil, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}
