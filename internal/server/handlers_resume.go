package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/resume-matcher/internal/document"
	"github.com/jonathan/resume-matcher/internal/server/middleware"
	"github.com/jonathan/resume-matcher/internal/types"
)

// handleResume serves GET and POST /api/resume. Any other method gets 405
// before authentication is checked.
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		s.errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID, err := middleware.GetUserID(r)
	if err != nil {
		middleware.Unauthorized(w)
		return
	}

	if r.Method == http.MethodGet {
		s.getResume(w, r, userID)
		return
	}
	s.saveResume(w, r, userID)
}

func (s *Server) getResume(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	row, err := s.store.GetUserResume(r.Context(), userID)
	if err != nil {
		s.log.Error("failed to load resume", zap.Stringer("user_id", userID), zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "Failed to load resume")
		return
	}
	if row == nil {
		s.jsonResponse(w, http.StatusOK, types.ResumeSnapshot{})
		return
	}

	resume, err := document.ParseResume(row.Data)
	if err != nil {
		s.log.Error("stored resume failed validation", zap.Stringer("user_id", userID), zap.Error(err))
		s.jsonResponse(w, http.StatusOK, types.ResumeSnapshot{})
		return
	}

	updatedAt := row.UpdatedAt
	s.jsonResponse(w, http.StatusOK, types.ResumeSnapshot{Resume: resume, UpdatedAt: &updatedAt})
}

type saveResumeRequest struct {
	Resume json.RawMessage `json:"resume"`
}

// saveResume validates and upserts the posted resume. An empty resume
// deletes the stored row so the next GET reports no remote copy.
func (s *Server) saveResume(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	var req saveResumeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.invalidResume(w, []document.Issue{{Field: "(root)", Message: err.Error()}})
		return
	}
	if len(req.Resume) == 0 || string(req.Resume) == "null" {
		s.invalidResume(w, []document.Issue{{Field: "resume", Message: "is required"}})
		return
	}

	if isEmptyResume(req.Resume) {
		if err := s.store.DeleteUserResume(r.Context(), userID); err != nil {
			s.log.Error("failed to clear resume", zap.Stringer("user_id", userID), zap.Error(err))
			s.errorResponse(w, http.StatusInternalServerError, "Failed to save resume")
			return
		}
		s.jsonResponse(w, http.StatusOK, types.SaveResumeResponse{Success: true, UpdatedAt: time.Now().UTC()})
		return
	}

	resume, err := document.ParseResume(req.Resume)
	if err != nil {
		var ve *document.ValidationError
		if errors.As(err, &ve) && len(ve.Issues) > 0 {
			s.invalidResume(w, ve.Issues)
			return
		}
		s.invalidResume(w, []document.Issue{{Field: "(root)", Message: err.Error()}})
		return
	}

	updatedAt, err := s.store.UpsertUserResume(r.Context(), userID, resume)
	if err != nil {
		s.log.Error("failed to save resume", zap.Stringer("user_id", userID), zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "Failed to save resume")
		return
	}
	s.log.Debug("saved resume", zap.Stringer("user_id", userID), zap.Time("updated_at", updatedAt))
	s.jsonResponse(w, http.StatusOK, types.SaveResumeResponse{Success: true, UpdatedAt: updatedAt})
}

func (s *Server) invalidResume(w http.ResponseWriter, issues []document.Issue) {
	s.jsonResponse(w, http.StatusBadRequest, map[string]any{
		"error":   "Invalid resume data",
		"details": issues,
	})
}

func isEmptyResume(raw json.RawMessage) bool {
	var r types.Resume
	if err := json.Unmarshal(raw, &r); err != nil {
		return false
	}
	r.ApplyDefaults()
	return r.IsEmpty()
}

// storedResume returns the user's stored resume, or nil when there is none
// or it no longer validates.
func (s *Server) storedResume(r *http.Request, userID uuid.UUID) (*types.Resume, error) {
	row, err := s.store.GetUserResume(r.Context(), userID)
	if err != nil || row == nil {
		return nil, err
	}
	resume, err := document.ParseResume(row.Data)
	if err != nil {
		s.log.Warn("stored resume failed validation", zap.Stringer("user_id", userID), zap.Error(err))
		return nil, nil
	}
	return resume, nil
}
