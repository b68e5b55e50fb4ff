package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/resume-matcher/internal/document"
	"github.com/jonathan/resume-matcher/internal/gateway"
	"github.com/jonathan/resume-matcher/internal/server/middleware"
	"github.com/jonathan/resume-matcher/internal/types"
)

const msgAIDisabled = "AI provider is not configured on this server"

type tailorRequest struct {
	Resume       json.RawMessage        `json:"resume,omitempty"`
	Requirements *types.JobRequirements `json:"requirements"`
}

type matchRequest struct {
	Description string          `json:"description"`
	Resume      json.RawMessage `json:"resume,omitempty"`
}

// handleAnalyzeJob turns a posted job description into requirements.
func (s *Server) handleAnalyzeJob(w http.ResponseWriter, r *http.Request) {
	if s.gateway == nil {
		s.jsonResponse(w, http.StatusServiceUnavailable, gateway.Result[types.JobRequirements]{Error: msgAIDisabled})
		return
	}

	var jd types.JobDescription
	if err := decodeJSON(w, r, &jd); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, gateway.Result[types.JobRequirements]{Error: "Invalid request body"})
		return
	}

	req, err := s.gateway.AnalyzeJob(r.Context(), jd.Description)
	s.aiResponse(w, gateway.NewResult(req, err), err)
}

// handleTailor produces suggestions for the posted resume, or the user's
// stored resume when none is posted.
func (s *Server) handleTailor(w http.ResponseWriter, r *http.Request) {
	if s.gateway == nil {
		s.jsonResponse(w, http.StatusServiceUnavailable, gateway.Result[types.TailoringResult]{Error: msgAIDisabled})
		return
	}

	var body tailorRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, gateway.Result[types.TailoringResult]{Error: "Invalid request body"})
		return
	}
	resume, err := s.requestResume(r, body.Resume)
	if err != nil {
		s.aiResponse(w, gateway.Result[types.TailoringResult]{Error: err.Error()}, err)
		return
	}

	result, err := s.gateway.Tailor(r.Context(), resume, body.Requirements)
	s.aiResponse(w, gateway.NewResult(result, err), err)
}

// handleMatchStream runs analysis and tailoring in one request, reporting
// each step as a server-sent event.
func (s *Server) handleMatchStream(w http.ResponseWriter, r *http.Request) {
	if s.gateway == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, msgAIDisabled)
		return
	}

	var body matchRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	resume, err := s.requestResume(r, body.Resume)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	stop := sse.Heartbeat(heartbeatInterval)
	defer stop()
	if err := s.streamMatch(r.Context(), sse, body.Description, resume); err != nil {
		s.log.Debug("match stream ended early", zap.Error(err))
	}
}

// streamMatch emits stage, requirements, result and complete events in
// order. A gateway failure becomes an error event and ends the stream.
func (s *Server) streamMatch(ctx context.Context, sse *SSEWriter, description string, resume *types.Resume) error {
	if err := sse.WriteStage(gateway.OpAnalyze); err != nil {
		return err
	}
	req, err := s.gateway.AnalyzeJob(ctx, description)
	if err != nil {
		return sse.WriteError(gateway.Message(err))
	}
	if err := sse.WriteEvent(EventRequirements, req); err != nil {
		return err
	}

	if err := sse.WriteStage(gateway.OpTailor); err != nil {
		return err
	}
	result, err := s.gateway.Tailor(ctx, resume, req)
	if err != nil {
		return sse.WriteError(gateway.Message(err))
	}
	if err := sse.WriteEvent(EventResult, result); err != nil {
		return err
	}
	return sse.WriteComplete("done")
}

// requestResume validates a posted resume, falling back to the stored one.
// The returned error is an *ErrValidation for a bad posted resume.
func (s *Server) requestResume(r *http.Request, raw json.RawMessage) (*types.Resume, error) {
	if len(raw) > 0 && string(raw) != "null" {
		resume, err := document.ParseResume(raw)
		if err != nil {
			var ve *document.ValidationError
			if errors.As(err, &ve) && len(ve.Issues) > 0 {
				return nil, &ErrValidation{Field: "resume." + ve.Issues[0].Field, Message: ve.Issues[0].Message}
			}
			return nil, &ErrValidation{Field: "resume", Message: err.Error()}
		}
		return resume, nil
	}

	userID, err := middleware.GetUserID(r)
	if err != nil {
		return nil, nil
	}
	resume, err := s.storedResume(r, userID)
	if err != nil {
		s.log.Error("failed to load stored resume", zap.Stringer("user_id", userID), zap.Error(err))
		return nil, nil
	}
	return resume, nil
}

// aiResponse writes a gateway result with a status derived from err.
func (s *Server) aiResponse(w http.ResponseWriter, result any, err error) {
	status := http.StatusOK
	if err != nil {
		status = HTTPStatus(err)
		if status == http.StatusInternalServerError {
			s.log.Error("AI request failed", zap.Error(err))
		}
	}
	s.jsonResponse(w, status, result)
}
