package document

import (
	"fmt"
	"strings"
)

// Issue is one field-level problem found while validating a document.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports every issue found in a document. Cause holds the
// underlying schema or decode error when there is one.
type ValidationError struct {
	Document string
	Issues   []Issue
	Cause    error
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("invalid %s", e.Document))
	if len(e.Issues) == 0 && e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
		return sb.String()
	}
	for i, issue := range e.Issues {
		if i == 0 {
			sb.WriteString(": ")
		} else {
			sb.WriteString("; ")
		}
		sb.WriteString(fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return sb.String()
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// UploadError reports an upload that could not be read or was too large.
type UploadError struct {
	Message string
	Cause   error
}

func (e *UploadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("upload error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("upload error: %s", e.Message)
}

func (e *UploadError) Unwrap() error {
	return e.Cause
}
