// Package schemas holds the JSON Schema documents for every persisted or
// LLM-produced artifact. The files are embedded so validation works from any
// working directory.
package schemas

import "embed"

// Files contains every *.schema.json document in this directory.
//
//go:embed *.schema.json
var Files embed.FS

// Schema file names
const (
	Resume          = "resume.schema.json"
	JobRequirements = "job_requirements.schema.json"
	TailoringResult = "tailoring_result.schema.json"
	JobHistory      = "job_history.schema.json"
)
