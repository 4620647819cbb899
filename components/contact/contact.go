// components/contact/contact.go
//
// Contact component – JSON transport between the browser and the form
// controller.
//
// Context
//   The browser keeps rendering the form; this component carries its
//   trigger events (blur, input, change, submit) to the visitor's controller
//   and answers with the state the page should render.  The submission stays
//   a simulation: an accepted submit only starts the controller's timers.
//
// Routes (mounted under /contact)
//   GET  /state    → snapshot + CSRF token
//   POST /events   → apply one field event, return field status + snapshot
//   POST /submit   → 202 pending, 422 field errors, 409 already in flight
//
//   POST routes require the token from /state in the X-CSRF-Token header.
//
//------------------------------------------------------------------------------

package contact

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/contactform/internal/component"
	"github.com/yanizio/contactform/internal/controller"
	"github.com/yanizio/contactform/internal/form"
	"github.com/yanizio/contactform/internal/session"
)

// CSRFHeader carries the token issued by GET /state.
const CSRFHeader = "X-CSRF-Token"

const maxBodyBytes = 16 << 10

var _ component.Component = (*Component)(nil)

// Component serves the contact form API.
type Component struct {
	store *session.Store
	csrf  *form.CSRF
	log   *zap.SugaredLogger
}

// New returns the component.  store supplies one controller per visitor.
func New(store *session.Store, csrf *form.CSRF, log *zap.SugaredLogger) *Component {
	return &Component{store: store, csrf: csrf, log: log}
}

// Name returns the canonical component key.
func (c *Component) Name() string { return "contact" }

// Routes builds and returns the router mounted at “/contact”.
func (c *Component) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/state", c.handleState)
	r.Group(func(r chi.Router) {
		r.Use(c.requireCSRF)
		r.Post("/events", c.handleEvent)
		r.Post("/submit", c.handleSubmit)
	})
	return r
}

/*──────────────────────────── Payloads ─────────────────────────────────────*/

type stateResponse struct {
	Form      *form.Definition    `json:"form"`
	Snapshot  controller.Snapshot `json:"snapshot"`
	CSRFToken string              `json:"csrf_token"`
}

type eventRequest struct {
	Field   string `json:"field"`
	Trigger string `json:"trigger"`
	Value   string `json:"value"`
	Checked bool   `json:"checked"`
}

type eventResponse struct {
	Field    controller.FieldStatus `json:"field"`
	Snapshot controller.Snapshot    `json:"snapshot"`
}

type submitResponse struct {
	Snapshot controller.Snapshot `json:"snapshot"`
	Errors   []form.ErrorField   `json:"errors,omitempty"`
	Focus    form.Field          `json:"focus,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleState(w http.ResponseWriter, r *http.Request) {
	ctrl, id, ok := c.controller(w, r)
	if !ok {
		return
	}
	tok, err := c.csrf.Generate(id)
	if err != nil {
		c.log.Errorw("csrf token", "err", err)
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	w.Header().Set(CSRFHeader, tok)
	writeJSON(w, http.StatusOK, stateResponse{
		Form:      ctrl.Definition(),
		Snapshot:  ctrl.Snapshot(),
		CSRFToken: tok,
	})
}

func (c *Component) handleEvent(w http.ResponseWriter, r *http.Request) {
	ctrl, _, ok := c.controller(w, r)
	if !ok {
		return
	}

	var req eventRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed event")
		return
	}

	trigger, err := controller.ParseTrigger(req.Trigger)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	field := form.Field(req.Field)
	fd, known := ctrl.Definition().Lookup(field)
	if !known {
		writeError(w, http.StatusNotFound, "unknown field")
		return
	}
	value := form.Text(req.Value)
	if fd.Kind == form.KindConsent {
		value = form.Checked(req.Checked)
	}

	st, err := ctrl.Handle(r.Context(), controller.Event{Field: field, Trigger: trigger, Value: value})
	switch {
	case errors.Is(err, controller.ErrUnhandledTrigger):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, controller.ErrClosed):
		c.expired(w)
		return
	case err != nil:
		c.log.Errorw("handle event", "field", field, "trigger", trigger, "err", err)
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	writeJSON(w, http.StatusOK, eventResponse{Field: st, Snapshot: ctrl.Snapshot()})
}

func (c *Component) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctrl, _, ok := c.controller(w, r)
	if !ok {
		return
	}

	// The request context carries the request-scoped logger the recorder
	// writes through once the simulated delivery completes.
	err := ctrl.Submit(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, submitResponse{Snapshot: ctrl.Snapshot()})
	case form.IsValidationError(err):
		errs := form.FieldErrors(err)
		writeJSON(w, http.StatusUnprocessableEntity, submitResponse{
			Snapshot: ctrl.Snapshot(),
			Errors:   errs,
			Focus:    errs[0].Name,
		})
	case errors.Is(err, controller.ErrSubmissionInFlight):
		writeJSON(w, http.StatusConflict, submitResponse{Snapshot: ctrl.Snapshot()})
	case errors.Is(err, controller.ErrClosed):
		c.expired(w)
	default:
		c.log.Errorw("submit", "err", err)
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

/*──────────────────────────── Helpers ──────────────────────────────────────*/

// controller resolves the visitor's controller, issuing a cookie when
// needed.  On failure the response is already written.
func (c *Component) controller(w http.ResponseWriter, r *http.Request) (*controller.Controller, string, bool) {
	id := session.Ensure(w, r)
	ctrl, err := c.store.Get(id)
	if err != nil {
		c.log.Errorw("session lookup", "err", err)
		writeError(w, http.StatusServiceUnavailable, "session unavailable")
		return nil, "", false
	}
	return ctrl, id, true
}

// expired answers for a controller evicted between lookup and use.  The
// cookie is cleared so the next /state starts a fresh session.
func (c *Component) expired(w http.ResponseWriter) {
	session.Forget(w)
	writeError(w, http.StatusGone, "session expired, reload the form")
}

func (c *Component) requireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Tokens are bound to the session cookie; a POST without one
		// cannot carry a valid token.
		id, _ := session.ID(r)
		if !c.csrf.Verify(r.Header.Get(CSRFHeader), id) {
			writeError(w, http.StatusForbidden, "security token invalid, please reload the form")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
