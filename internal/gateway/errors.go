package gateway

import "fmt"

// InputError rejects a request before any provider call is made.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

// ResponseError is returned when the provider answered but the reply could
// not be turned into a valid document.
type ResponseError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *ResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

func (e *ResponseError) Unwrap() error {
	return e.Cause
}

// Input validation messages.
const (
	msgEmptyDescription  = "Job description is empty"
	msgMissingPersonal   = "Resume is missing personal information"
	msgEmptyRequirements = "Job requirements are empty. Please analyze a job description first."
	msgEmptyResponse     = "Empty response from AI"
)
