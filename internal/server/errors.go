// Package server provides the HTTP API that mirrors resumes per user and
// fronts the AI gateway and exporters.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/resume-matcher/internal/export"
	"github.com/jonathan/resume-matcher/internal/gateway"
	"github.com/jonathan/resume-matcher/internal/llm"
)

// statusError is implemented by errors that know their response status.
type statusError interface {
	error
	Status() int
}

type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return "email already registered: " + e.Email
}

func (e *ErrEmailAlreadyExists) Status() int { return http.StatusConflict }

// ErrInvalidCredentials covers both unknown emails and wrong passwords.
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string { return "invalid email or password" }
func (e *ErrInvalidCredentials) Status() int   { return http.StatusUnauthorized }

type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string { return "user not found: " + e.UserID.String() }
func (e *ErrUserNotFound) Status() int   { return http.StatusNotFound }

// ErrPasswordMismatch is returned when the current password does not verify
// during a password change.
type ErrPasswordMismatch struct{}

func (e *ErrPasswordMismatch) Error() string { return "current password is incorrect" }
func (e *ErrPasswordMismatch) Status() int   { return http.StatusUnauthorized }

type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ErrValidation) Status() int { return http.StatusBadRequest }

// HTTPStatus maps an error from any layer to a response status. Unknown
// errors and nil are internal errors.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusInternalServerError
	}
	var se statusError
	if errors.As(err, &se) {
		return se.Status()
	}

	var (
		input   *gateway.InputError
		format  *export.FormatError
		resp    *gateway.ResponseError
		apiErr  *llm.APIError
		missing *llm.MissingAPIKeyError
	)
	switch {
	case errors.As(err, &input):
		return http.StatusBadRequest
	case errors.As(err, &format):
		return http.StatusNotFound
	case errors.As(err, &missing):
		return http.StatusServiceUnavailable
	case errors.As(err, &resp), errors.As(err, &apiErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
