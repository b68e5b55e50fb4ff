package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-matcher/internal/config"
	"github.com/jonathan/resume-matcher/internal/db"
	"github.com/jonathan/resume-matcher/internal/gateway"
	"github.com/jonathan/resume-matcher/internal/metrics"
	"github.com/jonathan/resume-matcher/internal/server/ratelimit"
	"github.com/jonathan/resume-matcher/internal/types"
)

// memStore is an in-memory Store.
type memStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*db.User
	resumes  map[uuid.UUID]*db.UserResume
	pingErr  error
	loadErr  error
	saveErr  error
	deletes  int
	upserted int
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[uuid.UUID]*db.User),
		resumes: make(map[uuid.UUID]*db.UserResume),
	}
}

func (m *memStore) CreateUser(_ context.Context, name, email, passwordHash string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.users[id] = &db.User{ID: id, Name: name, Email: strings.ToLower(email), PasswordHash: passwordHash, CreatedAt: time.Now()}
	return id, nil
}

func (m *memStore) GetUser(_ context.Context, id uuid.UUID) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memStore) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	u, err := m.GetUserByEmail(ctx, email)
	return u != nil, err
}

func (m *memStore) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return errors.New("no such user")
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *memStore) GetUserResume(_ context.Context, userID uuid.UUID) (*db.UserResume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.resumes[userID], nil
}

func (m *memStore) UpsertUserResume(_ context.Context, userID uuid.UUID, resume any) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return time.Time{}, m.saveErr
	}
	data, err := json.Marshal(resume)
	if err != nil {
		return time.Time{}, err
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	m.resumes[userID] = &db.UserResume{ID: uuid.New(), UserID: userID, Data: data, CreatedAt: now, UpdatedAt: now}
	m.upserted++
	return now, nil
}

func (m *memStore) DeleteUserResume(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.resumes, userID)
	m.deletes++
	return nil
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) putRaw(userID uuid.UUID, raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resumes[userID] = &db.UserResume{UserID: userID, Data: json.RawMessage(raw), UpdatedAt: time.Now().UTC()}
}

// fakeGateway returns canned results and records what it was given.
type fakeGateway struct {
	requirements *types.JobRequirements
	result       *types.TailoringResult
	analyzeErr   error
	tailorErr    error

	gotDescription string
	gotResume      *types.Resume
}

func (f *fakeGateway) AnalyzeJob(_ context.Context, description string) (*types.JobRequirements, error) {
	f.gotDescription = description
	if strings.TrimSpace(description) == "" {
		return nil, &gateway.InputError{Message: "Job description is empty"}
	}
	return f.requirements, f.analyzeErr
}

func (f *fakeGateway) Tailor(_ context.Context, resume *types.Resume, _ *types.JobRequirements) (*types.TailoringResult, error) {
	f.gotResume = resume
	if resume == nil {
		return nil, &gateway.InputError{Message: "Resume is missing personal information"}
	}
	return f.result, f.tailorErr
}

type testServer struct {
	*Server
	store *memStore
	gw    *fakeGateway
}

func newTestServer(t *testing.T, opts ...func(*Options)) *testServer {
	t.Helper()
	store := newMemStore()
	gw := &fakeGateway{
		requirements: &types.JobRequirements{Title: "Backend Engineer", RequiredSkills: []string{"Go"}},
		result:       &types.TailoringResult{MatchScore: 80, Suggestions: []types.Suggestion{}},
	}
	reg := prometheus.NewRegistry()
	o := Options{
		Store:    store,
		Gateway:  gw,
		JWT:      &config.JWTConfig{Secret: "test-secret-key-for-jwt-signing-minimum-32-bytes", TTL: time.Hour},
		Password: &config.PasswordConfig{BcryptCost: config.MinBcryptCost},
		Metrics:  metrics.New(reg, reg),
	}
	for _, fn := range opts {
		fn(&o)
	}
	s, err := New(o)
	require.NoError(t, err)
	return &testServer{Server: s, store: store, gw: gw}
}

// register creates a user through the API and returns its token and ID.
func (ts *testServer) register(t *testing.T, email string) (string, uuid.UUID) {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ada", "email": email, "password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp types.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token, resp.User.ID
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	return w
}

func sampleResume() *types.Resume {
	r := types.EmptyResume()
	r.PersonalInfo.Name = "Ada Lovelace"
	r.PersonalInfo.Email = "ada@example.com"
	r.Skills = []types.Skill{{ID: "s1", Name: "Go", Proficiency: types.SkillProficiency("expert")}}
	return r
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{Store: newMemStore()})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "enabled", body["ai"])

	ts.store.pingErr = errors.New("connection refused")
	w = ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unreachable", decodeBody(t, w)["database"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/health", "", nil)

	w := ts.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `resume_matcher_http_requests_total{method="GET",path="GET /health",status_code="200"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodOptions, "/api/resume", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestResume_MethodCheckedBeforeAuth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodDelete, "/api/resume", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "Method not allowed", decodeBody(t, w)["error"])
	assert.Equal(t, "GET, POST", w.Header().Get("Allow"))
}

func TestResume_Unauthorized(t *testing.T) {
	ts := newTestServer(t)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		w := ts.do(t, method, "/api/resume", "not-a-token", map[string]any{"resume": sampleResume()})
		assert.Equal(t, http.StatusUnauthorized, w.Code, method)
		assert.Equal(t, "Unauthorized", decodeBody(t, w)["error"])
	}
}

func TestResume_GetEmpty(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register(t, "ada@example.com")

	w := ts.do(t, http.MethodGet, "/api/resume", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"resume":null,"updatedAt":null}`, w.Body.String())
}

func TestResume_SaveAndLoad(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register(t, "ada@example.com")

	w := ts.do(t, http.MethodPost, "/api/resume", token, map[string]any{"resume": sampleResume()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var saved types.SaveResumeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	assert.True(t, saved.Success)
	assert.False(t, saved.UpdatedAt.IsZero())

	w = ts.do(t, http.MethodGet, "/api/resume", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap types.ResumeSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.NotNil(t, snap.Resume)
	assert.Equal(t, "Ada Lovelace", snap.Resume.PersonalInfo.Name)
	require.NotNil(t, snap.UpdatedAt)
	assert.True(t, saved.UpdatedAt.Equal(*snap.UpdatedAt))
}

func TestResume_UsersAreIsolated(t *testing.T) {
	ts := newTestServer(t)
	tokenA, _ := ts.register(t, "a@example.com")
	tokenB, _ := ts.register(t, "b@example.com")

	w := ts.do(t, http.MethodPost, "/api/resume", tokenA, map[string]any{"resume": sampleResume()})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/resume", tokenB, nil)
	assert.JSONEq(t, `{"resume":null,"updatedAt":null}`, w.Body.String())
}

func TestResume_InvalidBody(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register(t, "ada@example.com")

	invalid := sampleResume()
	invalid.PersonalInfo.Email = "not-an-email"

	tests := []struct {
		name string
		body any
	}{
		{"malformed json", "{"},
		{"missing resume", map[string]any{}},
		{"invalid email", map[string]any{"resume": invalid}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/api/resume", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, "Invalid resume data", body["error"])
			assert.NotEmpty(t, body["details"])
		})
	}
	assert.Zero(t, ts.store.upserted)
}

func TestResume_EmptyResumeClears(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register(t, "ada@example.com")

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/resume", token, map[string]any{"resume": sampleResume()}).Code)

	w := ts.do(t, http.MethodPost, "/api/resume", token, map[string]any{"resume": types.EmptyResume()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, ts.store.deletes)

	w = ts.do(t, http.MethodGet, "/api/resume", token, nil)
	assert.JSONEq(t, `{"resume":null,"updatedAt":null}`, w.Body.String())
}

func TestResume_InvalidStoredDataReadsAsNull(t *testing.T) {
	ts := newTestServer(t)
	token, userID := ts.register(t, "ada@example.com")
	ts.store.putRaw(userID, `{"personalInfo":{"name":""}}`)

	w := ts.do(t, http.MethodGet, "/api/resume", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"resume":null,"updatedAt":null}`, w.Body.String())
}

func TestResume_StoreErrors(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register(t, "ada@example.com")

	ts.store.loadErr = errors.New("boom")
	w := ts.do(t, http.MethodGet, "/api/resume", token, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to load resume", decodeBody(t, w)["error"])

	ts.store.saveErr = errors.New("boom")
	w = ts.do(t, http.MethodPost, "/api/resume", token, map[string]any{"resume": sampleResume()})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to save resume", decodeBody(t, w)["error"])
}

func TestAnalyzeJob(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register(t, "ada@example.com")

	w := ts.do(t, http.MethodPost, "/api/job/analyze", token, types.JobDescription{Description: "We need Go"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res gateway.Result[types.JobRequirements]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "Backend Engineer", res.Data.Title)
	assert.Equal(t, "We need Go", ts.gw.gotDescription)
}

func TestAnalyzeJob_Errors(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register(t, "ada@example.com")

	w := ts.do(t, http.MethodPost, "/api/job/analyze", "", types.JobDescription{Description: "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/api/job/analyze", token, types.JobDescription{Description: " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Job description is empty"}`, w.Body.String())

	ts.gw.analyzeErr = &gateway.ResponseError{Operation: gateway.OpAnalyze, Message: "invalid job requirements"}
	w = ts.do(t, http.MethodPost, "/api/job/analyze", token, types.JobDescription{Description: "x"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["success"])
}

func TestAIRoutes_Disabled(t *testing.T) {
	ts := newTestServer(t, func(o *Options) { o.Gateway = nil })
	token, _ := ts.register(t, "ada@example.com")

	for _, path := range []string{"/api/job/analyze", "/api/tailor", "/api/match/stream"} {
		w := ts.do(t, http.MethodPost, path, token, map[string]string{})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
		assert.Equal(t, msgAIDisabled, decodeBody(t, w)["error"])
	}
}

func TestTailor_UsesStoredResume(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register(t, "ada@example.com")
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/resume", token, map[string]any{"resume": sampleResume()}).Code)

	w := ts.do(t, http.MethodPost, "/api/tailor", token, map[string]any{
		"requirements": types.JobRequirements{RequiredSkills: []string{"Go"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, ts.gw.gotResume)
	assert.Equal(t, "Ada Lovelace", ts.gw.gotResume.PersonalInfo.Name)

	var res gateway.Result[types.TailoringResult]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 80, res.Data.MatchScore)
}

func TestTailor_PostedResume(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register(t, "ada@example.com")

	posted := sampleResume()
	posted.PersonalInfo.Name = "Grace Hopper"
	w := ts.do(t, http.MethodPost, "/api/tailor", token, map[string]any{
		"resume":       posted,
		"requirements": types.JobRequirements{RequiredSkills: []string{"COBOL"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Grace Hopper", ts.gw.gotResume.PersonalInfo.Name)

	posted.PersonalInfo.Email = "nope"
	w = ts.do(t, http.MethodPost, "/api/tailor", token, map[string]any{"resume": posted})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTailor_NoResume(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register(t, "ada@example.com")

	w := ts.do(t, http.MethodPost, "/api/tailor", token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Resume is missing personal information", decodeBody(t, w)["error"])
}

func TestMatchStream(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register(t, "ada@example.com")

	w := ts.do(t, http.MethodPost, "/api/match/stream", token, map[string]any{
		"description": "We need Go",
		"resume":      sampleResume(),
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	order := []string{
		"event: stage\ndata: {\"stage\":\"analyze\"}",
		"event: requirements\n",
		"event: stage\ndata: {\"stage\":\"tailor\"}",
		"event: result\n",
		"event: complete\ndata: {\"status\":\"done\"}",
	}
	last := -1
	for _, want := range order {
		idx := strings.Index(body, want)
		require.Greater(t, idx, last, "missing or out of order: %q in\n%s", want, body)
		last = idx
	}
}

func TestMatchStream_ErrorEvent(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register(t, "ada@example.com")

	w := ts.do(t, http.MethodPost, "/api/match/stream", token, map[string]any{"description": ""})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "event: error\ndata: {\"error\":\"Job description is empty\"}")
	assert.NotContains(t, w.Body.String(), "event: complete")
}

func TestExport_JSON(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register(t, "ada@example.com")
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/resume", token, map[string]any{"resume": sampleResume()}).Code)

	w := ts.do(t, http.MethodPost, "/api/export/json", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=ada-lovelace-resume.json`, w.Header().Get("Content-Disposition"))

	var back types.Resume
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &back))
	assert.Equal(t, "Ada Lovelace", back.PersonalInfo.Name)
}

func TestExport_DOCXWithJobTitle(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register(t, "ada@example.com")

	w := ts.do(t, http.MethodPost, "/api/export/docx", token, map[string]any{
		"resume":   sampleResume(),
		"jobTitle": "Staff Engineer",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "ada-lovelace-staff-engineer.docx")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}

func TestExport_Errors(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register(t, "ada@example.com")

	w := ts.do(t, http.MethodPost, "/api/export/latex", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, "/api/export/json", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No resume to export", decodeBody(t, w)["error"])

	w = ts.do(t, http.MethodGet, "/api/export/json", token, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewLimiter(&ratelimit.Config{
		Enabled: true,
		Rules: []ratelimit.Rule{
			{Pattern: "POST /api/job/analyze", Limit: 1, Window: time.Hour, Burst: 1},
		},
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
	})
	t.Cleanup(limiter.Stop)
	ts := newTestServer(t, func(o *Options) { o.Limiter = limiter })
	token, _ := ts.register(t, "ada@example.com")

	w := ts.do(t, http.MethodPost, "/api/job/analyze", token, types.JobDescription{Description: "x"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = ts.do(t, http.MethodPost, "/api/job/analyze", token, types.JobDescription{Description: "x"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, decodeBody(t, w)["error"], "Rate limit exceeded")
}
