package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/graduation-audit/internal/pipeline"
	"github.com/jonathan/graduation-audit/internal/schemas"
	"github.com/jonathan/graduation-audit/internal/types"
)

// uploadField is the multipart field carrying the transcript.
const uploadField = "file"

// handleAnalyze runs a full audit on an uploaded transcript and returns the report.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	doc, err := s.readUpload(w, r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	report, err := s.audit(r, doc, nil)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, report)
}

// handleAnalyzeStream runs an audit and streams step progress via SSE,
// finishing with the report itself.
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	doc, err := s.readUpload(w, r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	report, err := s.audit(r, doc, func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent("progress", event); err != nil {
			s.logger.Warn("failed to write SSE event", zap.Error(err))
		}
	})
	if err != nil {
		sse.WriteError(HTTPStatus(err), err.Error())
		return
	}

	if err := sse.WriteEvent("report", report); err != nil {
		s.logger.Warn("failed to write SSE report", zap.Error(err))
		return
	}
	sse.WriteComplete(report.ID, report.Eligible())
}

// audit runs the pipeline and checks the result against the report schema.
func (s *Server) audit(r *http.Request, doc *bytes.Reader, onProgress pipeline.ProgressCallback) (*types.Report, error) {
	report, err := pipeline.Run(r.Context(), doc, doc.Size(), pipeline.RunOptions{
		Source:     s.source,
		Checker:    s.checker,
		Logger:     s.logger,
		OnProgress: onProgress,
	})
	if err != nil {
		s.logger.Info("audit failed", zap.Error(err), zap.Int("status", HTTPStatus(err)))
		return nil, err
	}

	if err := schemas.ValidateReport(report); err != nil {
		s.logger.Error("report failed schema validation", zap.String("run_id", report.ID), zap.Error(err))
		return nil, fmt.Errorf("report failed schema validation: %w", err)
	}
	return report, nil
}

// readUpload pulls the transcript out of the multipart body without spooling it to disk.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*bytes.Reader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, &ErrValidation{Field: uploadField, Message: "expected a multipart/form-data upload"}
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, &ErrValidation{Field: uploadField, Message: "no transcript uploaded"}
		}
		if err != nil {
			return nil, s.uploadError(err)
		}
		if part.FormName() != uploadField {
			_ = part.Close()
			continue
		}

		filename := part.FileName()
		if filename == "" {
			_ = part.Close()
			return nil, &ErrValidation{Field: uploadField, Message: "no transcript uploaded"}
		}
		if !strings.EqualFold(filepath.Ext(filename), ".docx") {
			_ = part.Close()
			return nil, &ErrValidation{Field: uploadField, Message: "transcript must be a .docx file"}
		}

		data, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			return nil, s.uploadError(err)
		}
		if len(data) == 0 {
			return nil, &ErrValidation{Field: uploadField, Message: "uploaded transcript is empty"}
		}
		return bytes.NewReader(data), nil
	}
}

func (s *Server) uploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return &ErrUploadTooLarge{Limit: maxErr.Limit}
	}
	return &ErrValidation{Field: uploadField, Message: "malformed upload: " + err.Error()}
}
