package server

import (
	"encoding/json"
	"mime"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/jonathan/resume-matcher/internal/export"
)

type exportRequest struct {
	Resume   json.RawMessage `json:"resume,omitempty"`
	JobTitle string          `json:"jobTitle,omitempty"`
	Company  string          `json:"company,omitempty"`
}

// handleExport renders the posted or stored resume as a downloadable file.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	rd, err := export.ForFormat(r.PathValue("format"), s.exportOpts)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	var body exportRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &body); err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	resume, err := s.requestResume(r, body.Resume)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if resume == nil || resume.IsEmpty() {
		s.errorResponse(w, http.StatusBadRequest, "No resume to export")
		return
	}

	file, err := export.Export(r.Context(), rd, resume, body.JobTitle, body.Company)
	if err != nil {
		s.log.Error("export failed", zap.String("format", rd.Format()), zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "Failed to export resume")
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		s.log.Debug("export client went away", zap.Error(err))
	}
}
