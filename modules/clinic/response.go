package clinic

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/clinickit/pkg/logger"
	"github.com/dmitrymomot/clinickit/pkg/schema"
	"github.com/dmitrymomot/clinickit/pkg/tenant"
	"github.com/dmitrymomot/clinickit/pkg/validator"
)

// envelope is the body of every response.
type envelope struct {
	Success bool                `json:"success"`
	Data    any                 `json:"data,omitempty"`
	Meta    *pageMeta           `json:"meta,omitempty"`
	Message string              `json:"message,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

type pageMeta struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

// result is what an action produces on success.
type result struct {
	status int
	data   any
	meta   *pageMeta
}

func ok(data any) result      { return result{status: http.StatusOK, data: data} }
func created(data any) result { return result{status: http.StatusCreated, data: data} }

type action func(r *http.Request, set *schema.Set) (result, error)

type api struct {
	log *slog.Logger
}

// handle runs fn with the request's tenant handles and renders its result.
func (a *api) handle(fn action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		set, err := tenant.HandlesFromContext(r.Context())
		if err != nil {
			a.fail(w, r, err)
			return
		}

		res, err := fn(r, set)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, res.status, envelope{Success: true, Data: res.data, Meta: res.meta})
	}
}

// fail maps err to a status code. Causes of 5xx responses are logged, never sent.
func (a *api) fail(w http.ResponseWriter, r *http.Request, err error) {
	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
		writeJSON(w, http.StatusUnprocessableEntity, envelope{Message: "Validation failed", Errors: verrs.Map()})
		return
	}

	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		writeJSON(w, reqErr.status, envelope{Message: reqErr.message})
	case errors.Is(err, schema.ErrInvalidID):
		writeJSON(w, http.StatusBadRequest, envelope{Message: "Invalid id"})
	case errors.Is(err, schema.ErrNotFound):
		writeJSON(w, http.StatusNotFound, envelope{Message: "Not found"})
	case errors.Is(err, schema.ErrDuplicate):
		writeJSON(w, http.StatusConflict, envelope{Message: "Already exists"})
	default:
		a.log.ErrorContext(r.Context(), "clinic request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, envelope{Message: "Internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
