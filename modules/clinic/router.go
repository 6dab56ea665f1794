package clinic

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/clinickit/pkg/logger"
	"github.com/dmitrymomot/clinickit/pkg/schema"
)

// RouterOptions configures the clinic API router.
type RouterOptions struct {
	// Tenant binds the caller's tenant handles to the request, typically
	// tenant.Middleware behind an identity middleware. Required.
	Tenant func(http.Handler) http.Handler

	Logger *slog.Logger
}

// Router returns the clinic API:
//
//	GET    /patients             list (limit, offset, include_archived)
//	POST   /patients             create
//	GET    /patients/{id}        get
//	PUT    /patients/{id}        update
//	DELETE /patients/{id}        archive
//
// and the same for /appointments (DELETE cancels) and /staff, plus
// GET and PUT /settings.
func Router(opts RouterOptions) chi.Router {
	if opts.Tenant == nil {
		panic("clinic: RouterOptions.Tenant is required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	a := &api{log: log.With(logger.Component("clinic"))}

	r := chi.NewRouter()
	r.Use(limitBody, opts.Tenant)

	r.Mount("/patients", resource[schema.Patient]{
		name: "Patient",
		pick: func(s *schema.Set) store[*schema.Patient] { return s.Patients },
	}.routes(a))
	r.Mount("/appointments", resource[schema.Appointment]{
		name: "Appointment",
		pick: func(s *schema.Set) store[*schema.Appointment] { return s.Appointments },
	}.routes(a))
	r.Mount("/staff", resource[schema.Staff]{
		name: "Staff member",
		pick: func(s *schema.Set) store[*schema.Staff] { return s.Staff },
	}.routes(a))

	r.Get("/settings", a.handle(getSettings))
	r.Put("/settings", a.handle(saveSettings))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{Message: "Route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Message: "Method not allowed"})
	})
	return r
}
