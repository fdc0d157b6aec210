package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/agbru/fxtree/internal/cli"
	apperrors "github.com/agbru/fxtree/internal/errors"
	"github.com/agbru/fxtree/internal/fixed"
	"github.com/agbru/fxtree/internal/logging"
	"github.com/agbru/fxtree/internal/service"
)

// handleHealth responds to health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

// handleBackends lists the registered execution backends.
func (s *Server) handleBackends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]any{
		"backends": s.service.Backends(),
		"default":  s.cfg.Backend,
	})
}

// handleReduce decodes a ReduceRequest, runs it and writes a ReduceResponse.
//
// Status codes:
//   - 200: the reduction ran; "passed" reports an expected-value check.
//   - 400: malformed body or invalid shape, width or value.
//   - 422: a product overflowed its layer width.
//   - 503: the backend is not available.
//   - 504: the reduction exceeded the request timeout.
func (s *Server) handleReduce(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeErrorResponse(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	req, err := decodeReduceRequest(r)
	if err != nil {
		s.writeErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
	defer cancel()

	out, err := s.service.Reduce(ctx, service.Request{
		InputWidth: req.InputWidth,
		Backend:    req.Backend,
		Growth:     req.Growth,
		Overflow:   req.Overflow,
		Inputs:     req.Inputs,
	})
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("reduction failed", err, logging.String("request_id", RequestID(r.Context())))
		}
		s.writeErrorResponse(w, r, status, err.Error())
		return
	}

	report := cli.NewReport(out.Result, out.Graph)
	if req.Expected != nil {
		expected, err := fixed.FromBig(out.Result.Format.Width, req.Expected.Re, req.Expected.Im)
		passed := err == nil && expected.Equal(out.Result.Value)
		report = report.WithCheck(req.Expected.String(), passed)
	}

	s.writeJSONResponse(w, http.StatusOK, ReduceResponse{Report: report, RequestID: RequestID(r.Context())})
}

// decodeReduceRequest reads the JSON body. Unknown fields are rejected so
// that misspelled options do not silently fall back to defaults.
func decodeReduceRequest(r *http.Request) (ReduceRequest, error) {
	var req ReduceRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, errors.New("request body too large")
		}
		return req, errors.New("invalid JSON body: " + err.Error())
	}
	if len(req.Inputs) == 0 {
		return req, errors.New("missing 'inputs'")
	}
	return req, nil
}

// statusFor maps a reduction error to an HTTP status code.
func statusFor(err error) int {
	var (
		overflow *fixed.Overflow
		cfgErr   apperrors.ConfigError
	)
	switch {
	case errors.Is(err, service.ErrBatchTooLarge),
		apperrors.IsPrecondition(err),
		errors.As(err, &cfgErr):
		return http.StatusBadRequest
	case errors.As(err, &overflow):
		return http.StatusUnprocessableEntity
	case apperrors.IsBackendUnavailable(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeJSONResponse writes data as JSON with the given status code.
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encoding JSON response", err)
	}
}

// writeErrorResponse writes a standardized error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	s.writeJSONResponse(w, statusCode, ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   message,
		RequestID: RequestID(r.Context()),
	})
}
