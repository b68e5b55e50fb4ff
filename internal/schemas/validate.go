// Package schemas checks documents against the embedded JSON Schemas before
// they are decoded.
package schemas

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	schemafiles "github.com/jonathan/resume-matcher/schemas"
)

// rootField names the document itself in a Violation.
const rootField = "(root)"

// Violation is one failed rule, located by a dotted field path such as
// "experience.0.title".
type Violation struct {
	Field   string
	Type    string // gojsonschema rule name, e.g. "required" or "enum"
	Message string
}

// ValidationError lists every violation of one schema.
type ValidationError struct {
	Schema     string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return e.Schema + ": invalid"
	}
	first := e.Violations[0]
	msg := fmt.Sprintf("%s: %s: %s", e.Schema, first.Field, first.Message)
	if n := len(e.Violations) - 1; n > 0 {
		msg += fmt.Sprintf(" (and %d more)", n)
	}
	return msg
}

// Fields returns the paths of all violations.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		out[i] = v.Field
	}
	return out
}

// SchemaLoadError means an embedded schema is missing or does not compile.
type SchemaLoadError struct {
	Path  string
	Cause error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("failed to load schema %s: %v", e.Path, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error { return e.Cause }

type compiledSchema struct {
	once   sync.Once
	schema *gojsonschema.Schema
	err    error
}

// cache holds one entry per schema file; each compiles at most once.
var cache sync.Map // name -> *compiledSchema

func load(name string) (*gojsonschema.Schema, error) {
	v, _ := cache.LoadOrStore(name, &compiledSchema{})
	c := v.(*compiledSchema)
	c.once.Do(func() {
		data, err := schemafiles.Files.ReadFile(name)
		if err != nil {
			c.err = &SchemaLoadError{Path: name, Cause: err}
			return
		}
		c.schema, err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			c.err = &SchemaLoadError{Path: name, Cause: err}
		}
	})
	return c.schema, c.err
}

// Validate checks doc against the named embedded schema (one of the
// constants in the top-level schemas package). It returns a
// *ValidationError for documents that are not JSON or break a rule.
func Validate(name string, doc []byte) error {
	schema, err := load(name)
	if err != nil {
		return err
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return &ValidationError{
			Schema:     name,
			Violations: []Violation{{Field: rootField, Type: "syntax", Message: err.Error()}},
		}
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Schema: name}
	for _, re := range result.Errors() {
		field := re.Field()
		if field == "" {
			field = rootField
		}
		ve.Violations = append(ve.Violations, Violation{
			Field:   strings.TrimPrefix(field, rootField+"."),
			Type:    re.Type(),
			Message: re.Description(),
		})
	}
	return ve
}
