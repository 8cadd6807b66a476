package errutil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/smartresolve/pkg/utils/logging"
)

// ErrorResponse is the JSON body written for failed HTTP requests
type ErrorResponse struct {
	Error     string              `json:"error"`
	Details   map[string][]string `json:"details,omitempty"`
	RequestID string              `json:"requestId,omitempty"`
}

// Handle logs the error with a message and reports it to Sentry.
// It returns err unchanged so callers can keep propagating it.
func Handle(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}

	logWithValues(ctx, msg, err)
	sentry.CaptureException(err)

	return err
}

// HandleHTTP logs the error and writes a JSON error response. Server errors
// are reported to Sentry and their detail is never written to the client.
func HandleHTTP(ctx context.Context, w http.ResponseWriter, err error, statusCode int) {
	if err == nil {
		return
	}

	logWithValues(ctx, "HTTP error", err, "status", statusCode)

	resp := ErrorResponse{
		Error: err.Error(),
	}
	if statusCode >= http.StatusInternalServerError {
		sentry.CaptureException(err)
		resp = ErrorResponse{
			Error:     "Internal server error",
			RequestID: middleware.GetReqID(ctx),
		}
	}

	WriteJSON(ctx, w, statusCode, resp)
}

// WriteJSON writes v as a JSON response with the given status code
func WriteJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.From(ctx).Error("failed to marshal response", "error", err)
		http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(data); err != nil {
		logging.From(ctx).Error("failed to write response", "error", err)
	}
}

func logWithValues(ctx context.Context, msg string, err error, args ...any) {
	logger := logging.From(ctx)

	var ge *goerr.Error
	if errors.As(err, &ge) {
		args = append(args,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		args = append(args, "error", err.Error())
	}

	logger.Error(msg, args...)
}
