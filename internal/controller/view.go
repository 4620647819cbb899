package controller

import (
	"context"
	"time"

	"github.com/yanizio/contactform/internal/form"
)

// View is the presentation layer.  Calls arrive after the controller has
// released its lock, in transition order.  A View may call Snapshot but must
// not call Handle or Submit synchronously.
type View interface {
	// RenderField shows or clears one field's error.
	RenderField(FieldStatus)
	// RenderState applies form visibility and submit control affordance.
	RenderState(Snapshot)
	// Focus scrolls to and focuses the field.
	Focus(form.Field)
}

// Recorder receives the submitted payload once the simulated submission
// succeeds.
type Recorder interface {
	Record(ctx context.Context, p form.Payload) error
}

// FieldStatus is one field's current value and validity.  Message is
// non-empty exactly when Valid is false.
type FieldStatus struct {
	Field   form.Field `json:"field"`
	Value   form.Value `json:"value"`
	Valid   bool       `json:"valid"`
	Message string     `json:"message,omitempty"`
}

// Snapshot is a read-only copy of the controller.
type Snapshot struct {
	State          State         `json:"state"`
	FormVisible    bool          `json:"form_visible"`
	SuccessVisible bool          `json:"success_visible"`
	SubmitEnabled  bool          `json:"submit_enabled"`
	SubmitLabel    string        `json:"submit_label"`
	Fields         []FieldStatus `json:"fields"`
	Failed         []form.Field  `json:"failed,omitempty"`
	SubmittedAt    time.Time     `json:"submitted_at,omitzero"`
}

// Field returns the status of name and whether it is part of the form.
func (s Snapshot) Field(name form.Field) (FieldStatus, bool) {
	for _, f := range s.Fields {
		if f.Field == name {
			return f, true
		}
	}
	return FieldStatus{}, false
}

type nopView struct{}

func (nopView) RenderField(FieldStatus) {}
func (nopView) RenderState(Snapshot)    {}
func (nopView) Focus(form.Field)        {}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, form.Payload) error { return nil }

// outbox buffers View calls made under the lock.
type outbox []func()

func (o *outbox) add(fn func()) { *o = append(*o, fn) }

func (o outbox) flush() {
	for _, fn := range o {
		fn()
	}
}
