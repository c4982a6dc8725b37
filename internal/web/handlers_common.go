package web

// handlers_common.go holds request decoding shared by the handlers. Bodies
// are JSON, or form encoded when they come from an HTMX form.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/trailpack/internal/gearimport"
)

// maxJSONBody caps JSON request bodies. Spreadsheets arrive as multipart.
const maxJSONBody = 1 << 20

// userID returns the id stored by middleware.RequireUser.
func userID(r *http.Request) string {
	id, _ := gearimport.UserIDFromContext(r.Context())
	return id
}

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "sessionID")
}

// isForm reports whether the body is form encoded.
func isForm(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(ct, "multipart/form-data")
}

// decodeJSON decodes the request body into v. An empty body leaves v
// untouched.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// parseForm parses url-encoded and multipart bodies alike.
func parseForm(r *http.Request) error {
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(maxJSONBody)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// bracketValues collects form keys of the form prefix[key] into a map.
// Empty keys are ignored.
func bracketValues(r *http.Request, prefix string) map[string]string {
	values := make(map[string]string)
	for key, vals := range r.Form {
		if !strings.HasPrefix(key, prefix+"[") || !strings.HasSuffix(key, "]") || len(vals) == 0 {
			continue
		}
		name := key[len(prefix)+1 : len(key)-1]
		if name == "" {
			continue
		}
		values[name] = vals[0]
	}
	return values
}

// parseBatchID reads the batchID path parameter. Ids that cannot exist are
// reported as a missing batch.
func parseBatchID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "batchID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid id %q", gearimport.ErrBatchNotFound, raw)
	}
	return id, nil
}
