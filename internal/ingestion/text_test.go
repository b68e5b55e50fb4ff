package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "only whitespace", input: "  \n\t\n   ", want: ""},
		{name: "collapses inline spaces", input: "Build   services\tin  Go", want: "Build services in Go"},
		{name: "line endings", input: "One\r\nTwo\rThree", want: "One\nTwo\nThree"},
		{name: "paragraph gap", input: "About us\n\n\n\n\nThe role", want: "About us\n\nThe role"},
		{name: "leading blank lines", input: "\n\n\nTitle", want: "Title"},
		{name: "heading indentation", input: "   ## Requirements", want: "## Requirements"},
		{name: "bullet glyphs", input: "• Go\n* SQL\n● Kafka", want: "- Go\n- SQL\n- Kafka"},
		{name: "nested bullet", input: "- Backend\n    - gRPC", want: "- Backend\n  - gRPC"},
		{name: "dash without space is text", input: "-5 years", want: "-5 years"},
		{name: "ordered list", input: "1)   Design\n2.  Ship", want: "1) Design\n2. Ship"},
		{name: "invisible characters", input: "Senior\u00a0Engineer\u200b\ufeff", want: "Senior Engineer"},
		{name: "board chrome", input: "We use Go.\n…show more\nShow less\nApply", want: "We use Go."},
		{name: "keeps unicode", input: "Zürich office 🚀", want: "Zürich office 🚀"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.input))
		})
	}
}

func TestCleanText_Idempotent(t *testing.T) {
	input := "# Role\n\n\n•   Own   services\n   ◦ nested\nApply"
	once := CleanText(input)
	assert.Equal(t, once, CleanText(once))
}

func TestCleanText_PostingFixture(t *testing.T) {
	content, err := os.ReadFile(filepath.Join("testdata", "complex_formatting.txt"))
	require.NoError(t, err)

	got := CleanText(string(content))

	assert.Contains(t, got, "# Senior Software Engineer\n\nAcme Corp is hiring a backend engineer.")
	assert.Contains(t, got, "## Responsibilities\n- Go experience building services\n  - Nested bullet")
	assert.Contains(t, got, "## Requirements\n- Go (5+ years)\n- PostgreSQL\n- Kubernetes")
	assert.True(t, len(got) > 0 && got[len(got)-1] == '.')
	assert.NotContains(t, got, "\n\n\n")
}
