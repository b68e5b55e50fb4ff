package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-matcher/internal/llm"
	"github.com/jonathan/resume-matcher/internal/metrics"
	"github.com/jonathan/resume-matcher/internal/types"
)

type fakeClient struct {
	reply    string
	err      error
	requests []llm.Request
}

func (f *fakeClient) Complete(_ context.Context, req llm.Request) (string, error) {
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func (f *fakeClient) Ping(context.Context) (*llm.ConnectionInfo, error) {
	return &llm.ConnectionInfo{Provider: llm.ProviderOllama, Message: "ok"}, nil
}

func (f *fakeClient) Provider() llm.Provider { return llm.ProviderOllama }
func (f *fakeClient) Close() error           { return nil }

func sampleResume() *types.Resume {
	r := types.EmptyResume()
	r.PersonalInfo.Name = "Ada Lovelace"
	r.PersonalInfo.Email = "ada@example.com"
	r.PersonalInfo.Summary = "Engineer"
	return r
}

func sampleRequirements() *types.JobRequirements {
	req := &types.JobRequirements{RequiredSkills: []string{"Go"}}
	req.ApplyDefaults()
	return req
}

func TestAnalyzeJob_Success(t *testing.T) {
	client := &fakeClient{reply: "Sure!\n```json\n" + `{"title":"Backend Engineer","requiredSkills":["Go","SQL"],"experienceYears":{"min":5,"max":3}}` + "\n```"}
	g := New(client)

	req, err := g.AnalyzeJob(t.Context(), "We need a Go engineer")
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", req.Title)
	assert.Equal(t, []string{"Go", "SQL"}, req.RequiredSkills)
	assert.Equal(t, []string{}, req.Benefits)
	assert.Equal(t, 3, *req.ExperienceYears.Min)
	assert.Equal(t, 5, *req.ExperienceYears.Max)

	require.Len(t, client.requests, 1)
	sent := client.requests[0]
	assert.Equal(t, AnalysisMaxTokens, sent.MaxTokens)
	assert.Equal(t, llm.TierStandard, sent.Tier)
	assert.Contains(t, sent.User, "We need a Go engineer")
	assert.Contains(t, sent.System, "job description analyzer")
}

func TestAnalyzeJob_EmptyDescription(t *testing.T) {
	client := &fakeClient{}
	_, err := New(client).AnalyzeJob(t.Context(), "  \n\t")

	var input *InputError
	require.ErrorAs(t, err, &input)
	assert.Equal(t, "Job description is empty", input.Message)
	assert.Empty(t, client.requests)
}

func TestAnalyzeJob_BadResponses(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"empty", "   "},
		{"no json", "I cannot help with that."},
		{"malformed", `{"requiredSkills": [}`},
		{"schema violation", `{"requiredSkills": "Go"}`},
		{"negative years", `{"experienceYears": {"min": -1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&fakeClient{reply: tt.reply}).AnalyzeJob(t.Context(), "desc")
			var resp *ResponseError
			require.ErrorAs(t, err, &resp)
			assert.Equal(t, OpAnalyze, resp.Operation)
		})
	}
}

func TestAnalyzeJob_ProviderError(t *testing.T) {
	apiErr := &llm.APIError{Provider: llm.ProviderOllama, StatusCode: 500, Message: "boom"}
	_, err := New(&fakeClient{err: apiErr}).AnalyzeJob(t.Context(), "desc")
	assert.ErrorIs(t, err, apiErr)
}

func TestTailor_Success(t *testing.T) {
	client := &fakeClient{reply: `{
		"matchScore": 80,
		"matchedSkills": [{"skill": "Go", "matchType": "exact"}],
		"missingSkills": ["Kubernetes"],
		"suggestions": [{"sectionType": "summary", "field": "summary",
			"originalContent": "Engineer", "suggestedContent": "Go engineer", "reason": "keyword"}]
	}`}

	result, err := New(client).Tailor(t.Context(), sampleResume(), sampleRequirements())
	require.NoError(t, err)
	assert.Equal(t, 80, result.MatchScore)
	assert.Equal(t, []string{"Kubernetes"}, result.MissingSkills)
	require.Len(t, result.Suggestions, 1)
	assert.NotEmpty(t, result.Suggestions[0].ID)
	assert.Equal(t, types.StatusPending, result.Suggestions[0].Status)
	assert.True(t, result.MatchedSkills[0].Required())

	sent := client.requests[0]
	assert.Equal(t, TailoringMaxTokens, sent.MaxTokens)
	assert.Equal(t, llm.TierAdvanced, sent.Tier)
	assert.Contains(t, sent.User, `"name": "Ada Lovelace"`)
	assert.Contains(t, sent.User, `"requiredSkills": [`)
}

func TestTailor_InputChecks(t *testing.T) {
	noName := sampleResume()
	noName.PersonalInfo.Name = ""
	empty := &types.JobRequirements{Keywords: []string{"go"}}

	tests := []struct {
		name   string
		resume *types.Resume
		req    *types.JobRequirements
		want   string
	}{
		{"missing name", noName, sampleRequirements(), "Resume is missing personal information"},
		{"nil resume", nil, sampleRequirements(), "Resume is missing personal information"},
		{"empty requirements", sampleResume(), empty, "Job requirements are empty. Please analyze a job description first."},
		{"nil requirements", sampleResume(), nil, "Job requirements are empty. Please analyze a job description first."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{}
			_, err := New(client).Tailor(t.Context(), tt.resume, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.want, Message(err))
			assert.Empty(t, client.requests)
		})
	}
}

func TestTailor_ScoreOutOfRange(t *testing.T) {
	_, err := New(&fakeClient{reply: `{"matchScore": 140}`}).Tailor(t.Context(), sampleResume(), sampleRequirements())
	var resp *ResponseError
	require.ErrorAs(t, err, &resp)
	assert.Equal(t, OpTailor, resp.Operation)
}

func TestService_RecordsMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry(), prometheus.NewRegistry())
	g := New(&fakeClient{err: errors.New("down")}, WithMetrics(m))

	_, _ = g.AnalyzeJob(t.Context(), "desc")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AIRequests.WithLabelValues(OpAnalyze, "ollama", metrics.OutcomeError)))
}

func TestNewResult(t *testing.T) {
	req := sampleRequirements()
	ok := NewResult(req, nil)
	assert.True(t, ok.Success)
	assert.Same(t, req, ok.Data)

	failed := NewResult[types.JobRequirements](nil, &llm.MissingAPIKeyError{Provider: llm.ProviderOpenAI})
	assert.False(t, failed.Success)
	assert.Equal(t, "API key not configured for openai", failed.Error)

	empty := NewResult[types.JobRequirements](nil, &ResponseError{Operation: OpAnalyze, Message: msgEmptyResponse})
	assert.Equal(t, "Empty response from AI", empty.Error)
}
