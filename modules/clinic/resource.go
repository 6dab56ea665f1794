package clinic

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/clinickit/pkg/schema"
)

// store is the part of schema.Collection the CRUD routes use.
type store[P any] interface {
	Create(ctx context.Context, doc P) error
	Get(ctx context.Context, id string) (P, error)
	List(ctx context.Context, opts schema.ListOptions) ([]P, error)
	Update(ctx context.Context, id string, doc P) (P, error)
	Archive(ctx context.Context, id string) (P, error)
}

// resource serves the five CRUD routes of one collection.
type resource[T any] struct {
	name string
	pick func(*schema.Set) store[*T]
}

func (res resource[T]) routes(a *api) http.Handler {
	r := chi.NewRouter()
	r.Get("/", a.handle(res.list))
	r.Post("/", a.handle(res.create))
	r.Get("/{id}", a.handle(res.get))
	r.Put("/{id}", a.handle(res.update))
	r.Delete("/{id}", a.handle(res.archive))
	return r
}

func (res resource[T]) list(r *http.Request, set *schema.Set) (result, error) {
	opts, err := listOptions(r)
	if err != nil {
		return result{}, err
	}
	items, err := res.pick(set).List(r.Context(), opts)
	if err != nil {
		return result{}, err
	}

	limit := opts.Limit
	if limit == 0 {
		limit = schema.DefaultListLimit
	}
	return result{
		status: http.StatusOK,
		data:   items,
		meta:   &pageMeta{Limit: limit, Offset: opts.Skip, Count: len(items)},
	}, nil
}

func (res resource[T]) get(r *http.Request, set *schema.Set) (result, error) {
	doc, err := res.pick(set).Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return result{}, res.notFound(err)
	}
	return ok(doc), nil
}

func (res resource[T]) create(r *http.Request, set *schema.Set) (result, error) {
	doc := new(T)
	if err := decodeJSON(r, doc); err != nil {
		return result{}, err
	}
	if err := res.pick(set).Create(r.Context(), doc); err != nil {
		return result{}, err
	}
	return created(doc), nil
}

func (res resource[T]) update(r *http.Request, set *schema.Set) (result, error) {
	doc := new(T)
	if err := decodeJSON(r, doc); err != nil {
		return result{}, err
	}
	updated, err := res.pick(set).Update(r.Context(), chi.URLParam(r, "id"), doc)
	if err != nil {
		return result{}, res.notFound(err)
	}
	return ok(updated), nil
}

func (res resource[T]) archive(r *http.Request, set *schema.Set) (result, error) {
	doc, err := res.pick(set).Archive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return result{}, res.notFound(err)
	}
	return ok(doc), nil
}

// notFound names the resource in not-found responses.
func (res resource[T]) notFound(err error) error {
	if errors.Is(err, schema.ErrNotFound) {
		return &requestError{status: http.StatusNotFound, message: res.name + " not found", err: err}
	}
	return err
}
