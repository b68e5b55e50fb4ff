// Package gateway turns job descriptions and resumes into validated
// documents by prompting an LLM and parsing its reply.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resume-matcher/internal/document"
	"github.com/jonathan/resume-matcher/internal/llm"
	"github.com/jonathan/resume-matcher/internal/metrics"
	"github.com/jonathan/resume-matcher/internal/prompts"
	"github.com/jonathan/resume-matcher/internal/types"
)

// Token budgets per operation.
const (
	AnalysisMaxTokens  = 2000
	TailoringMaxTokens = 4000
)

// Operation names used in metrics and errors.
const (
	OpAnalyze = "analyze"
	OpTailor  = "tailor"
)

// Gateway is the AI boundary of the application.
type Gateway interface {
	AnalyzeJob(ctx context.Context, description string) (*types.JobRequirements, error)
	Tailor(ctx context.Context, resume *types.Resume, req *types.JobRequirements) (*types.TailoringResult, error)
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records call counts and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// Service implements Gateway over an llm.Client.
type Service struct {
	client  llm.Client
	metrics *metrics.Metrics
	log     *zap.Logger
}

var _ Gateway = (*Service)(nil)

// New returns a Service using client.
func New(client llm.Client, opts ...Option) *Service {
	s := &Service{client: client, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeJob extracts structured requirements from a job description.
func (s *Service) AnalyzeJob(ctx context.Context, description string) (*types.JobRequirements, error) {
	if strings.TrimSpace(description) == "" {
		return nil, &InputError{Message: msgEmptyDescription}
	}

	system, user, err := prompts.Render(prompts.Analysis, map[string]string{
		"JobDescription": description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render analysis prompt: %w", err)
	}

	payload, err := s.complete(ctx, OpAnalyze, llm.Request{
		System:    system,
		User:      user,
		MaxTokens: AnalysisMaxTokens,
		Tier:      llm.TierStandard,
		JSON:      true,
	})
	if err != nil {
		return nil, err
	}

	req, err := document.ParseJobRequirements([]byte(payload))
	if err != nil {
		return nil, &ResponseError{Operation: OpAnalyze, Message: "invalid job requirements", Cause: err}
	}

	s.log.Info("analyzed job description",
		zap.String("title", req.Title),
		zap.Int("required_skills", len(req.RequiredSkills)),
		zap.Int("keywords", len(req.Keywords)))
	return req, nil
}

// Tailor asks for suggestions that align resume with req.
func (s *Service) Tailor(ctx context.Context, resume *types.Resume, req *types.JobRequirements) (*types.TailoringResult, error) {
	if resume == nil || strings.TrimSpace(resume.PersonalInfo.Name) == "" {
		return nil, &InputError{Message: msgMissingPersonal}
	}
	if req == nil || req.IsEmpty() {
		return nil, &InputError{Message: msgEmptyRequirements}
	}

	resumeJSON, err := json.MarshalIndent(resume, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resume: %w", err)
	}
	reqJSON, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job requirements: %w", err)
	}

	system, user, err := prompts.Render(prompts.Tailoring, map[string]string{
		"Resume":       string(resumeJSON),
		"Requirements": string(reqJSON),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render tailoring prompt: %w", err)
	}

	payload, err := s.complete(ctx, OpTailor, llm.Request{
		System:    system,
		User:      user,
		MaxTokens: TailoringMaxTokens,
		Tier:      llm.TierAdvanced,
		JSON:      true,
	})
	if err != nil {
		return nil, err
	}

	result, err := document.ParseTailoringResult([]byte(payload))
	if err != nil {
		return nil, &ResponseError{Operation: OpTailor, Message: "invalid tailoring result", Cause: err}
	}

	s.log.Info("tailored resume",
		zap.Int("match_score", result.MatchScore),
		zap.Int("suggestions", len(result.Suggestions)))
	return result, nil
}

// Ping checks the underlying provider connection.
func (s *Service) Ping(ctx context.Context) (*llm.ConnectionInfo, error) {
	return s.client.Ping(ctx)
}

// complete calls the provider and returns the JSON payload of its reply.
func (s *Service) complete(ctx context.Context, op string, req llm.Request) (payload string, err error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveAI(op, string(s.client.Provider()), time.Since(start), err)
		}
		if err != nil {
			s.log.Warn("AI request failed",
				zap.String("operation", op),
				zap.String("provider", string(s.client.Provider())),
				zap.Error(err))
		}
	}()

	text, err := s.client.Complete(ctx, req)
	if err != nil {
		var empty *llm.EmptyResponseError
		if errors.As(err, &empty) {
			return "", &ResponseError{Operation: op, Message: msgEmptyResponse, Cause: err}
		}
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", &ResponseError{Operation: op, Message: msgEmptyResponse}
	}

	payload = llm.ExtractJSON(text)
	if payload == "" {
		return "", &ResponseError{Operation: op, Message: "no JSON object found in AI response"}
	}
	return payload, nil
}
