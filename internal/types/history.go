//nolint:revive // types is a standard Go package name pattern
package types

// MaxJobHistoryEntries is the capacity of the job history ring buffer.
const MaxJobHistoryEntries = 10

// JobHistoryEntry records one analyzed job description.
type JobHistoryEntry struct {
	ID             string           `json:"id" validate:"required"`
	CreatedAt      string           `json:"createdAt" validate:"required"` // ISO-8601
	JobDescription JobDescription   `json:"jobDescription"`
	Requirements   *JobRequirements `json:"requirements,omitempty"`
}
