// Package controller drives one contact form: per-field live validation,
// whole-form submit, and the timed submission simulation
//
//	Idle → Validating → Idle             (invalid submit)
//	Idle → Validating → Pending → Success → Idle
//
// Pending lasts PendingDelay, Success lasts ResetDelay.  The reset timer is
// scheduled only from inside the pending callback, so the phases never
// overlap.  Time comes from an injected clock.Clock.
//
// Operations are serialized by opMu and deliver their View calls before
// releasing it, so the View sees transitions in the order they happened.
// mu guards the state itself and is all that Snapshot needs.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/contactform/internal/clock"
	"github.com/yanizio/contactform/internal/form"
	"github.com/yanizio/contactform/internal/metrics"
)

// Default delays of the submission simulation.
const (
	DefaultPendingDelay = 1500 * time.Millisecond
	DefaultResetDelay   = 3000 * time.Millisecond

	// DefaultRecordTimeout bounds one Recorder call.
	DefaultRecordTimeout = 10 * time.Second
)

var (
	ErrSubmissionInFlight = errors.New("submission already in flight")
	ErrUnknownField       = errors.New("unknown field")
	ErrUnknownTrigger     = errors.New("unknown trigger")
	ErrUnhandledTrigger   = errors.New("trigger not handled for field")
	ErrClosed             = errors.New("controller closed")
)

// Event is one user interaction with a field.  Value is the field's value
// at the time of the event.
type Event struct {
	Field   form.Field
	Trigger Trigger
	Value   form.Value
}

// Options configures a Controller.  Zero values select defaults: wall
// clock, no-op View and Recorder, global logger, default delays.
type Options struct {
	Clock         clock.Clock
	View          View
	Recorder      Recorder
	Logger        *zap.SugaredLogger
	PendingDelay  time.Duration
	ResetDelay    time.Duration
	RecordTimeout time.Duration
}

// Controller owns the submission state of one form instance.
type Controller struct {
	def           *form.Definition
	clock         clock.Clock
	view          View
	recorder      Recorder
	log           *zap.SugaredLogger
	pendingDelay  time.Duration
	resetDelay    time.Duration
	recordTimeout time.Duration
	dispatch      map[dispatchKey]handler
	index         map[form.Field]int

	opMu sync.Mutex

	mu          sync.Mutex
	state       State
	fields      []FieldStatus // form order
	failed      []form.Field
	submittedAt time.Time
	recordCtx   context.Context
	timer       clock.Timer
	gen         uint64 // bumps on accept and Close; stale timers compare against it
	closed      bool
}

// New returns an Idle controller with every field empty and unmarked.
func New(def *form.Definition, opts Options) *Controller {
	c := &Controller{
		def:           def,
		clock:         opts.Clock,
		view:          opts.View,
		recorder:      opts.Recorder,
		log:           opts.Logger,
		pendingDelay:  opts.PendingDelay,
		resetDelay:    opts.ResetDelay,
		recordTimeout: opts.RecordTimeout,
		dispatch:      buildDispatch(def),
		index:         make(map[form.Field]int, len(def.Fields)),
		fields:        make([]FieldStatus, len(def.Fields)),
	}
	if c.clock == nil {
		c.clock = clock.New()
	}
	if c.view == nil {
		c.view = nopView{}
	}
	if c.recorder == nil {
		c.recorder = nopRecorder{}
	}
	if c.log == nil {
		c.log = zap.S()
	}
	if c.pendingDelay <= 0 {
		c.pendingDelay = DefaultPendingDelay
	}
	if c.resetDelay <= 0 {
		c.resetDelay = DefaultResetDelay
	}
	if c.recordTimeout <= 0 {
		c.recordTimeout = DefaultRecordTimeout
	}
	for i, f := range def.Fields {
		c.index[f.Name] = i
		c.fields[i] = FieldStatus{Field: f.Name, Valid: true}
	}
	return c
}

/*──────────────────────────── field events ────────────────────────────────*/

// Handle applies one field event and returns the field's resulting status.
// Pairs the form does not react to (e.g. input on a checkbox) return
// ErrUnhandledTrigger and leave the field untouched.
func (c *Controller) Handle(_ context.Context, ev Event) (FieldStatus, error) {
	i, ok := c.index[ev.Field]
	if !ok {
		return FieldStatus{}, fmt.Errorf("%w: %s", ErrUnknownField, ev.Field)
	}
	h, ok := c.dispatch[dispatchKey{ev.Field, ev.Trigger}]
	if !ok {
		return FieldStatus{}, fmt.Errorf("%w: %s on %s", ErrUnhandledTrigger, ev.Trigger, ev.Field)
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	var out outbox
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return FieldStatus{}, ErrClosed
	}
	st := h(c, i, ev.Value, &out)
	c.mu.Unlock()

	out.flush()
	return st, nil
}

/*─────────────────────────────── submit ───────────────────────────────────*/

// Submit validates every field, without stopping at the first failure.
//
// When any field is invalid the controller returns to Idle, asks the View to
// focus the first invalid field in form order, and returns a form
// validation error (see form.FieldErrors).  Otherwise it enters Pending,
// disables the submit control, and schedules the simulated completion.
//
// A submit while Pending or Success returns ErrSubmissionInFlight.
func (c *Controller) Submit(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	var out outbox
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.state.InFlight():
		c.mu.Unlock()
		metrics.SubmissionsTotal.WithLabelValues("in_flight").Inc()
		return ErrSubmissionInFlight
	}

	c.transition(Validating, &out)

	var errs []form.ErrorField
	for i := range c.fields {
		if st := c.validate(i, &out); !st.Valid {
			errs = append(errs, form.ErrorField{Name: st.Field, Message: st.Message})
		}
	}

	if len(errs) > 0 {
		c.failed = make([]form.Field, len(errs))
		for i, e := range errs {
			c.failed[i] = e.Name
		}
		c.transition(Idle, &out)
		first := errs[0].Name
		out.add(func() { c.view.Focus(first) })
		c.mu.Unlock()

		out.flush()
		metrics.SubmissionsTotal.WithLabelValues("invalid").Inc()
		c.log.Debugw("submit rejected", "form", c.def.ID, "invalid", fieldNames(errs))
		return form.NewValidationError(errs)
	}

	c.failed = nil
	c.submittedAt = c.clock.Now()
	c.recordCtx = context.WithoutCancel(ctx)
	c.gen++
	gen := c.gen
	c.transition(Pending, &out)
	c.timer = c.clock.AfterFunc(c.pendingDelay, func() { c.complete(gen) })
	c.mu.Unlock()

	out.flush()
	metrics.SubmissionsTotal.WithLabelValues("accepted").Inc()
	c.log.Debugw("submit accepted", "form", c.def.ID, "delay", c.pendingDelay)
	return nil
}

// complete ends Pending: the form is hidden, success is shown, the payload
// goes to the Recorder, and the reset is scheduled.  The Recorder runs after
// opMu is released, so a slow archive delays neither the reset nor the
// visitor's next event.
func (c *Controller) complete(gen uint64) {
	c.opMu.Lock()

	var out outbox
	c.mu.Lock()
	if c.closed || gen != c.gen || c.state != Pending {
		c.mu.Unlock()
		c.opMu.Unlock()
		return
	}
	c.transition(Success, &out)
	payload := c.def.Payload(c.valuesLocked())
	parent := c.recordCtx
	c.timer = c.clock.AfterFunc(c.resetDelay, func() { c.reset(gen) })
	c.mu.Unlock()

	out.flush()
	c.opMu.Unlock()

	ctx, cancel := context.WithTimeout(parent, c.recordTimeout)
	defer cancel()
	if err := c.recorder.Record(ctx, payload); err != nil {
		metrics.SubmissionsTotal.WithLabelValues("record_failed").Inc()
		c.log.Errorw("record submission", "form", c.def.ID, "err", err)
		return
	}
	metrics.SubmissionsTotal.WithLabelValues("recorded").Inc()
}

// reset ends Success: every field is cleared and unmarked, the form is shown
// again, and the submit control is restored.
func (c *Controller) reset(gen uint64) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	var out outbox
	c.mu.Lock()
	if c.closed || gen != c.gen || c.state != Success {
		c.mu.Unlock()
		return
	}
	for i := range c.fields {
		c.fields[i] = FieldStatus{Field: c.fields[i].Field, Valid: true}
		st := c.fields[i]
		out.add(func() { c.view.RenderField(st) })
	}
	c.failed = nil
	c.submittedAt = time.Time{}
	c.recordCtx = nil
	c.timer = nil
	c.transition(Idle, &out)
	c.mu.Unlock()

	out.flush()
}

/*───────────────────────────── accessors ──────────────────────────────────*/

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns the current submission state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Definition returns the form definition the controller was built with.
func (c *Controller) Definition() *form.Definition { return c.def }

// Close stops any outstanding timer.  Later events and submits return
// ErrClosed.  Close is idempotent.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	return nil
}

/*────────────────────────────── helpers ───────────────────────────────────*/

// validate runs field i's rules against its stored value.  Caller holds c.mu.
func (c *Controller) validate(i int, out *outbox) FieldStatus {
	rule, msg := c.def.Fields[i].Check(c.fields[i].Value)
	c.fields[i].Valid = msg == ""
	c.fields[i].Message = msg
	if rule != "" {
		metrics.FieldValidationFailuresTotal.WithLabelValues(string(c.fields[i].Field), rule).Inc()
	}
	st := c.fields[i]
	out.add(func() { c.view.RenderField(st) })
	return st
}

// transition moves to the next state.  Caller holds c.mu.
func (c *Controller) transition(to State, out *outbox) {
	from := c.state
	if !canTransition(from, to) {
		panic(fmt.Sprintf("controller: illegal transition %s → %s", from, to))
	}
	c.state = to
	metrics.StateTransitionsTotal.WithLabelValues(from.String(), to.String()).Inc()

	snap := c.snapshotLocked()
	out.add(func() { c.view.RenderState(snap) })
}

func (c *Controller) snapshotLocked() Snapshot {
	inFlight := c.state.InFlight()
	label := c.def.SubmitLabel
	if inFlight {
		label = c.def.SendingLabel
	}

	s := Snapshot{
		State:          c.state,
		FormVisible:    c.state != Success,
		SuccessVisible: c.state == Success,
		SubmitEnabled:  !inFlight,
		SubmitLabel:    label,
		Fields:         append([]FieldStatus(nil), c.fields...),
		SubmittedAt:    c.submittedAt,
	}
	if len(c.failed) > 0 {
		s.Failed = append([]form.Field(nil), c.failed...)
	}
	return s
}

func (c *Controller) valuesLocked() map[form.Field]form.Value {
	out := make(map[form.Field]form.Value, len(c.fields))
	for _, f := range c.fields {
		out[f.Field] = f.Value
	}
	return out
}

func fieldNames(errs []form.ErrorField) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = string(e.Name)
	}
	return out
}
