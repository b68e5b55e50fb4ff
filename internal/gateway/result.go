package gateway

import (
	"errors"

	"github.com/jonathan/resume-matcher/internal/llm"
)

// Result is the success-or-message envelope returned to callers that show
// AI failures to the user instead of propagating them.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewResult wraps the outcome of a gateway call.
func NewResult[T any](data *T, err error) Result[T] {
	if err != nil {
		return Result[T]{Success: false, Error: Message(err)}
	}
	return Result[T]{Success: true, Data: data}
}

// Message returns the user-facing text for a gateway failure.
func Message(err error) string {
	var input *InputError
	if errors.As(err, &input) {
		return input.Message
	}
	var resp *ResponseError
	if errors.As(err, &resp) {
		if resp.Message == msgEmptyResponse {
			return msgEmptyResponse
		}
		return "Failed to parse AI response: " + resp.Error()
	}
	var missing *llm.MissingAPIKeyError
	if errors.As(err, &missing) {
		return missing.Error()
	}
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}
