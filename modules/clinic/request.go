package clinic

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/clinickit/pkg/schema"
)

const maxBodySize = 1 << 20

// requestError is a client error with a message safe to return.
type requestError struct {
	status  int
	message string
	err     error
}

func (e *requestError) Error() string { return fmt.Sprintf("%s: %v", e.message, e.err) }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(message string, err error) *requestError {
	return &requestError{status: http.StatusBadRequest, message: message, err: err}
}

// limitBody caps request bodies at maxBodySize.
func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		next.ServeHTTP(w, r)
	})
}

// decodeJSON strictly decodes a single JSON object from the body into v.
func decodeJSON(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return &requestError{
			status:  http.StatusUnsupportedMediaType,
			message: "Content-Type must be application/json",
			err:     errors.New("unsupported media type"),
		}
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return &requestError{status: http.StatusRequestEntityTooLarge, message: "Request body too large", err: err}
		case errors.Is(err, io.EOF):
			return badRequest("Request body is empty", err)
		default:
			return badRequest("Malformed JSON body", err)
		}
	}
	if dec.More() {
		return badRequest("Malformed JSON body", errors.New("unexpected data after JSON object"))
	}
	return nil
}

// listOptions reads limit, offset and include_archived from the query string.
func listOptions(r *http.Request) (schema.ListOptions, error) {
	q := r.URL.Query()
	var opts schema.ListOptions

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > schema.MaxListLimit {
			return opts, badRequest(fmt.Sprintf("limit must be between 1 and %d", schema.MaxListLimit), err)
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, badRequest("offset must be a non-negative integer", err)
		}
		opts.Skip = n
	}
	if v := q.Get("include_archived"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, badRequest("include_archived must be a boolean", err)
		}
		opts.IncludeArchived = b
	}
	return opts, nil
}
