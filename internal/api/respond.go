package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/solar-viability/internal/model"
	"github.com/sells-group/solar-viability/internal/proposal"
	"github.com/sells-group/solar-viability/internal/store"
)

// Error types in error responses.
const (
	errTypeValidation = "validation"
	errTypeFinancial  = "financial_configuration"
	errTypeCompliance = "compliance"
	errTypeNotFound   = "not_found"
	errTypeConflict   = "conflict"
	errTypeInternal   = "internal"
)

// ErrorBody is the error member of a failed response.
type ErrorBody struct {
	Type       string                  `json:"type"`
	Field      string                  `json:"field,omitempty"`
	Message    string                  `json:"message"`
	Compliance *model.ComplianceResult `json:"compliance,omitempty"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Debug("api: encode response", zap.Error(err))
	}
}

// writeError maps the error taxonomy onto HTTP statuses: validation 400,
// financial configuration and compliance rejection 422, missing records 404,
// lifecycle conflicts 409, anything else 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *model.ValidationError
		fe *model.FinancialConfigurationError
		ce *model.ComplianceError
	)
	status, body := http.StatusInternalServerError, ErrorBody{Type: errTypeInternal, Message: "internal error"}
	switch {
	case errors.As(err, &ve):
		status, body = http.StatusBadRequest, ErrorBody{Type: errTypeValidation, Field: ve.Field, Message: ve.Reason}
	case errors.As(err, &fe):
		status, body = http.StatusUnprocessableEntity, ErrorBody{Type: errTypeFinancial, Field: fe.Field, Message: fe.Reason}
	case errors.As(err, &ce):
		res := ce.Result
		status, body = http.StatusUnprocessableEntity, ErrorBody{Type: errTypeCompliance, Message: res.Message, Compliance: &res}
	case eris.Is(err, store.ErrNotFound):
		status, body = http.StatusNotFound, ErrorBody{Type: errTypeNotFound, Message: "not found"}
	case eris.Is(err, proposal.ErrInvalidTransition), eris.Is(err, proposal.ErrExpired):
		status, body = http.StatusConflict, ErrorBody{Type: errTypeConflict, Message: err.Error()}
	}

	fields := []zap.Field{
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		zap.L().Error("api: request failed", fields...)
	} else {
		zap.L().Info("api: request rejected", fields...)
	}
	writeJSON(w, status, ErrorResponse{Error: body})
}

// decode reads a JSON body into dst. Malformed bodies are validation errors.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.NewValidationError("body", "invalid JSON: %v", err)
	}
	return nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
