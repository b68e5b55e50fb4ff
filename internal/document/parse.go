// Package document is the validation layer for every structure that crosses a
// trust boundary: uploaded or cached resumes, remote snapshots, and LLM output.
// Parsing is pure. It fills defaults but never assigns identifiers.
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/resume-matcher/internal/schemas"
	"github.com/jonathan/resume-matcher/internal/types"
	schemafiles "github.com/jonathan/resume-matcher/schemas"
)

// MaxUploadSize bounds resume JSON accepted from files and request bodies.
const MaxUploadSize = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report field paths using the JSON names clients actually send.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseResume validates raw JSON and returns the resume with defaults applied.
func ParseResume(raw []byte) (*types.Resume, error) {
	var r types.Resume
	if err := decode("resume", schemafiles.Resume, raw, &r); err != nil {
		return nil, err
	}
	r.ApplyDefaults()
	if err := check("resume", &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ParseResumeUpload reads at most MaxUploadSize bytes and parses them as a resume.
func ParseResumeUpload(r io.Reader) (*types.Resume, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, &UploadError{Message: "failed to read upload", Cause: err}
	}
	if len(data) > MaxUploadSize {
		return nil, &UploadError{Message: fmt.Sprintf("upload exceeds %d bytes", MaxUploadSize)}
	}
	return ParseResume(data)
}

// ValidateResume runs struct-level validation on an in-memory resume.
func ValidateResume(r *types.Resume) error {
	if r == nil {
		return &ValidationError{Document: "resume", Issues: []Issue{{Field: "(root)", Message: "resume is nil"}}}
	}
	return check("resume", r)
}

// ParseJobRequirements validates analyzer output.
func ParseJobRequirements(raw []byte) (*types.JobRequirements, error) {
	var j types.JobRequirements
	if err := decode("job requirements", schemafiles.JobRequirements, raw, &j); err != nil {
		return nil, err
	}
	j.ApplyDefaults()
	j.Normalize()
	if err := check("job requirements", &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// ParseTailoringResult validates tailoring output. Missing suggestion ids and
// statuses are filled here, as is a missing isRequired flag.
func ParseTailoringResult(raw []byte) (*types.TailoringResult, error) {
	var t types.TailoringResult
	if err := decode("tailoring result", schemafiles.TailoringResult, raw, &t); err != nil {
		return nil, err
	}
	t.ApplyDefaults()
	if err := check("tailoring result", &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseJobHistory validates a stored job history list.
func ParseJobHistory(raw []byte) ([]types.JobHistoryEntry, error) {
	var entries []types.JobHistoryEntry
	if err := decode("job history", schemafiles.JobHistory, raw, &entries); err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Requirements != nil {
			entries[i].Requirements.ApplyDefaults()
		}
		if err := check("job history", &entries[i]); err != nil {
			return nil, err
		}
	}
	if entries == nil {
		entries = []types.JobHistoryEntry{}
	}
	return entries, nil
}

func decode(docName, schemaName string, raw []byte, out any) error {
	if err := schemas.Validate(schemaName, raw); err != nil {
		var schemaErr *schemas.ValidationError
		if errors.As(err, &schemaErr) {
			issues := make([]Issue, 0, len(schemaErr.Violations))
			for _, v := range schemaErr.Violations {
				issues = append(issues, Issue{Field: v.Field, Message: v.Message})
			}
			return &ValidationError{Document: docName, Issues: issues, Cause: err}
		}
		return fmt.Errorf("failed to validate %s: %w", docName, err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &ValidationError{
			Document: docName,
			Issues:   []Issue{{Field: "(root)", Message: err.Error()}},
			Cause:    err,
		}
	}
	return nil
}

func check(docName string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Document: docName, Cause: err}
	}

	issues := make([]Issue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, Issue{Field: fieldPath(fe), Message: describe(fe)})
	}
	return &ValidationError{Document: docName, Issues: issues, Cause: err}
}

// fieldPath drops the root type name from the validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL or empty"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "unique":
		return fmt.Sprintf("contains duplicate %s values", strings.ToLower(fe.Param()))
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
