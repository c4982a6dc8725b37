package web

// errors.go turns service errors into responses.
//
// The technical error is logged with the request id. The client gets the
// message from gearimport.MapError as JSON or, for HTMX requests, as an
// alert partial.

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/trailpack/internal/gearimport"
	"github.com/JonMunkholm/trailpack/internal/logging"
	"github.com/JonMunkholm/trailpack/internal/spreadsheet"
	"github.com/JonMunkholm/trailpack/internal/web/templates"
)

// ErrorResponse is the JSON body of an error. Details lists row failures
// when a commit imported nothing.
type ErrorResponse struct {
	Error     string   `json:"error"`
	Message   string   `json:"message"`
	Action    string   `json:"action,omitempty"`
	Code      string   `json:"code"`
	Details   []string `json:"details,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, gearimport.ErrSessionExpired):
		return http.StatusGone
	case errors.Is(err, gearimport.ErrBatchNotFound):
		return http.StatusNotFound
	case errors.Is(err, gearimport.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, spreadsheet.ErrUnknownFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, gearimport.ErrNoFile),
		errors.Is(err, gearimport.ErrEmptyFile),
		errors.Is(err, spreadsheet.ErrMalformed),
		errors.Is(err, gearimport.ErrMappingInvalid),
		errors.Is(err, gearimport.ErrInvalidHeaderRow),
		errors.Is(err, gearimport.ErrInvalidWeightUnit),
		errors.Is(err, gearimport.ErrInvalidDuplicateAction),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, gearimport.ErrCategoriesUnresolved),
		errors.Is(err, gearimport.ErrNothingImported):
		return http.StatusUnprocessableEntity
	case errors.Is(err, gearimport.ErrInvalidStep):
		return http.StatusConflict
	case errors.Is(err, gearimport.ErrTooManyImports):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// errBadRequest marks malformed request bodies and parameters.
var errBadRequest = errors.New("bad request")

// respondError logs err and writes the mapped user message with the status
// for its kind.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := gearimport.MapError(err)

	logger := logging.FromContext(r.Context()).With(
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", userMsg.Code,
	)
	if status >= http.StatusInternalServerError {
		logger.Error("request error", "error", err.Error())
	} else {
		logger.Warn("request rejected", "error", err.Error())
	}

	var details []string
	var commitErr *gearimport.CommitError
	if errors.As(err, &commitErr) {
		for _, re := range commitErr.Errors {
			details = append(details, re.Error())
		}
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}

	if isHTMX(r) {
		renderErrorPartial(w, r, userMsg, details, status)
		return
	}
	respondErrorJSON(w, r, userMsg, details, status)
}

func respondErrorJSON(w http.ResponseWriter, r *http.Request, msg gearimport.UserMessage, details []string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:     msg.Message,
		Message:   msg.Message,
		Action:    msg.Action,
		Code:      msg.Code,
		Details:   details,
		RequestID: requestID(r),
	}); err != nil {
		logging.FromContext(r.Context()).Warn("json encode error", "error", err)
	}
}

// renderErrorPartial renders the alert fragment for HTMX requests.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg gearimport.UserMessage, details []string, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	c := templates.ErrorAlert(msg.Message, msg.Action, msg.Code, details...)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Warn("render error partial", "error", err)
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// requestID returns chi's request id for error bodies and logs.
func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}

// sanitizeErrorMessage strips anything after the first line and caps the
// length so internal detail does not reach the client.
func sanitizeErrorMessage(msg string) string {
	msg, _, _ = strings.Cut(msg, "\n")
	const maxLen = 200
	if len(msg) > maxLen {
		msg = msg[:maxLen] + "..."
	}
	return msg
}
