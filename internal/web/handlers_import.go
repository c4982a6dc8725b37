package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/trailpack/internal/gearimport"
	"github.com/JonMunkholm/trailpack/internal/logging"
	"github.com/JonMunkholm/trailpack/internal/web/templates"
)

// multipartOverhead is allowed on top of the file size for the multipart
// framing and other form fields.
const multipartOverhead = 64 << 10

// handleUpload accepts the spreadsheet in the "file" form field and starts
// a wizard session.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			err = fmt.Errorf("%w: limit is %d bytes", gearimport.ErrFileTooLarge, maxSize)
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			err = gearimport.ErrNoFile
		default:
			err = fmt.Errorf("%w: %v", errBadRequest, err)
		}
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	form, err := s.service.Upload(r.Context(), userID(r), header.Filename, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, form)
}

func (s *Server) handleMappingForm(w http.ResponseWriter, r *http.Request) {
	form, err := s.service.MappingForm(r.Context(), userID(r), sessionID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, form)
}

type headerRowRequest struct {
	HeaderRow int `json:"header_row"`
}

// handleHeaderRow re-reads the header from a user-chosen row.
func (s *Server) handleHeaderRow(w http.ResponseWriter, r *http.Request) {
	var req headerRowRequest
	if isForm(r) {
		if err := parseForm(r); err != nil {
			s.respondError(w, r, err)
			return
		}
		raw := strings.TrimSpace(r.Form.Get("header_row"))
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.respondError(w, r, fmt.Errorf("%w: %q is not a row number", gearimport.ErrInvalidHeaderRow, raw))
			return
		}
		req.HeaderRow = n
	} else if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	form, err := s.service.ChangeHeaderRow(r.Context(), userID(r), sessionID(r), req.HeaderRow)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, form)
}

// handleSubmitMapping saves the column mapping. Form bodies use
// mapping[<field>]=<header> and weight_unit.
func (s *Server) handleSubmitMapping(w http.ResponseWriter, r *http.Request) {
	var req gearimport.MappingRequest
	if isForm(r) {
		if err := parseForm(r); err != nil {
			s.respondError(w, r, err)
			return
		}
		req.Mapping = bracketValues(r, "mapping")
		req.WeightUnit = r.Form.Get("weight_unit")
	} else if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.service.SubmitMapping(r.Context(), userID(r), sessionID(r), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

type resolveRequest struct {
	Resolutions map[string]string `json:"resolutions"`
}

// handleResolveCategories records the category decisions. Form bodies use
// resolution[<value>]=skip|create|<category id>.
func (s *Server) handleResolveCategories(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if isForm(r) {
		if err := parseForm(r); err != nil {
			s.respondError(w, r, err)
			return
		}
		req.Resolutions = bracketValues(r, "resolution")
	} else if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.service.ResolveCategories(r.Context(), userID(r), sessionID(r), req.Resolutions)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	preview, err := s.service.Preview(r.Context(), userID(r), sessionID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, preview)
}

type commitRequest struct {
	DuplicateAction string `json:"duplicate_action"`
}

// handleCommit imports the rows. Per-row failures come back in the result;
// a commit that imported nothing is an error listing them.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if isForm(r) {
		if err := parseForm(r); err != nil {
			s.respondError(w, r, err)
			return
		}
		req.DuplicateAction = r.Form.Get("duplicate_action")
	} else if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	action, err := gearimport.ParseDuplicateAction(req.DuplicateAction)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.service.Commit(r.Context(), userID(r), sessionID(r), action)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := templates.NoticeAlert(commitSummary(result), result.Errors).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Warn("render commit notice", "error", err)
		}
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// commitSummary is the headline of the commit notice.
func commitSummary(res *gearimport.CommitResult) string {
	msg := fmt.Sprintf("Imported %d items from %s", res.SuccessCount, res.Filename)
	if res.Updated > 0 {
		msg += fmt.Sprintf(" (%d updated)", res.Updated)
	}
	if res.Skipped > 0 {
		msg += fmt.Sprintf(", %d duplicates skipped", res.Skipped)
	}
	return msg
}

func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Abandon(r.Context(), userID(r), sessionID(r)); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
