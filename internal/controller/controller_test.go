// internal/controller/controller_test.go
//
// Unit-tests for the form controller state machine.
//
// Context
// -------
// Every test drives the controller against clock.Fake, so the 1500 ms and
// 3000 ms phases are crossed with Advance instead of real sleeps.  A
// recordingView captures everything the presentation layer would see.
//
// Run: go test ./internal/controller -v

package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/yanizio/contactform/internal/clock"
	"github.com/yanizio/contactform/internal/form"
)

func TestMain(m *testing.M) { goleak.VerifyTestMain(m) }

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

/*──────────────────────────── test doubles ────────────────────────────────*/

type recordingView struct {
	mu     sync.Mutex
	fields []FieldStatus
	states []Snapshot
	focus  []form.Field
}

func (v *recordingView) RenderField(s FieldStatus) {
	v.mu.Lock()
	v.fields = append(v.fields, s)
	v.mu.Unlock()
}

func (v *recordingView) RenderState(s Snapshot) {
	v.mu.Lock()
	v.states = append(v.states, s)
	v.mu.Unlock()
}

func (v *recordingView) Focus(f form.Field) {
	v.mu.Lock()
	v.focus = append(v.focus, f)
	v.mu.Unlock()
}

func (v *recordingView) stateSeq() []State {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]State, len(v.states))
	for i, s := range v.states {
		out[i] = s.State
	}
	return out
}

type recordingRecorder struct {
	mu       sync.Mutex
	payloads []form.Payload
	err      error
}

func (r *recordingRecorder) Record(_ context.Context, p form.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, p)
	return r.err
}

type harness struct {
	c     *Controller
	clock *clock.Fake
	view  *recordingView
	rec   *recordingRecorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock: clock.NewFake(epoch),
		view:  &recordingView{},
		rec:   &recordingRecorder{},
	}
	h.c = New(form.Default(), Options{
		Clock:    h.clock,
		View:     h.view,
		Recorder: h.rec,
		Logger:   zap.NewNop().Sugar(),
	})
	t.Cleanup(func() { _ = h.c.Close() })
	return h
}

func (h *harness) blur(t *testing.T, f form.Field, v form.Value) FieldStatus {
	t.Helper()
	st, err := h.c.Handle(context.Background(), Event{Field: f, Trigger: Blur, Value: v})
	require.NoError(t, err)
	return st
}

func (h *harness) fillValid(t *testing.T) {
	t.Helper()
	h.blur(t, form.FirstName, form.Text("Ana"))
	h.blur(t, form.LastName, form.Text("Gómez"))
	h.blur(t, form.Email, form.Text("ana@example.com"))
	h.blur(t, form.Phone, form.Text("+34 600 123 456"))
	h.blur(t, form.Subject, form.Text("ventas"))
	h.blur(t, form.Message, form.Text("Quisiera más información."))
	_, err := h.c.Handle(context.Background(), Event{Field: form.Terms, Trigger: Change, Value: form.Checked(true)})
	require.NoError(t, err)
}

/*──────────────────────────── field events ────────────────────────────────*/

func TestHandle_BlurAlwaysValidates(t *testing.T) {
	h := newHarness(t)

	st := h.blur(t, form.Email, form.Text("a@b"))
	assert.False(t, st.Valid)
	assert.Equal(t, "Ingresa un correo electrónico válido", st.Message)

	st = h.blur(t, form.Email, form.Text("a@b.c"))
	assert.True(t, st.Valid)
	assert.Empty(t, st.Message)
}

func TestHandle_InputOnlyRevalidatesInvalidField(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Unmarked field: typing a first draft does not nag.
	st, err := h.c.Handle(ctx, Event{Field: form.FirstName, Trigger: Input, Value: form.Text("A")})
	require.NoError(t, err)
	assert.True(t, st.Valid)
	assert.Empty(t, h.view.fields)

	// Blur marks it invalid.
	st = h.blur(t, form.FirstName, form.Text("A"))
	assert.False(t, st.Valid)

	// Input now re-validates and clears the error once fixed.
	st, err = h.c.Handle(ctx, Event{Field: form.FirstName, Trigger: Input, Value: form.Text("An")})
	require.NoError(t, err)
	assert.True(t, st.Valid)
	assert.Empty(t, st.Message)

	snap := h.c.Snapshot()
	fs, ok := snap.Field(form.FirstName)
	require.True(t, ok)
	assert.Equal(t, form.Text("An"), fs.Value)
}

func TestHandle_TermsUsesChange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	st, err := h.c.Handle(ctx, Event{Field: form.Terms, Trigger: Change, Value: form.Checked(false)})
	require.NoError(t, err)
	assert.Equal(t, "Debes aceptar los términos y condiciones", st.Message)

	_, err = h.c.Handle(ctx, Event{Field: form.Terms, Trigger: Input, Value: form.Checked(true)})
	assert.ErrorIs(t, err, ErrUnhandledTrigger)

	st = h.blur(t, form.Terms, form.Checked(true))
	assert.True(t, st.Valid)
}

func TestHandle_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.c.Handle(ctx, Event{Field: "nickname", Trigger: Blur})
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = h.c.Handle(ctx, Event{Field: form.Email, Trigger: Change})
	assert.ErrorIs(t, err, ErrUnhandledTrigger)
}

func TestHandle_Idempotent(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 3; i++ {
		st := h.blur(t, form.Message, form.Text("Hola, buenas tardes"))
		assert.True(t, st.Valid)
		assert.Empty(t, st.Message)
	}
}

/*─────────────────────────────── submit ───────────────────────────────────*/

func TestSubmit_HappyPathTiming(t *testing.T) {
	h := newHarness(t)
	h.fillValid(t)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, h.c.Submit(ctx))
	cancel() // request is over; the simulation must not care

	snap := h.c.Snapshot()
	assert.Equal(t, Pending, snap.State)
	assert.False(t, snap.SubmitEnabled)
	assert.Equal(t, "Enviando...", snap.SubmitLabel)
	assert.True(t, snap.FormVisible)
	assert.Equal(t, epoch, snap.SubmittedAt)

	h.clock.Advance(1499 * time.Millisecond)
	assert.Equal(t, Pending, h.c.State())
	assert.Empty(t, h.rec.payloads)

	h.clock.Advance(time.Millisecond)
	snap = h.c.Snapshot()
	assert.Equal(t, Success, snap.State)
	assert.False(t, snap.FormVisible)
	assert.True(t, snap.SuccessVisible)
	require.Len(t, h.rec.payloads, 1)
	assert.Equal(t, form.Payload{
		"firstName": "Ana",
		"lastName":  "Gómez",
		"email":     "ana@example.com",
		"phone":     "+34 600 123 456",
		"subject":   "ventas",
		"message":   "Quisiera más información.",
	}, h.rec.payloads[0])

	h.clock.Advance(2999 * time.Millisecond)
	assert.Equal(t, Success, h.c.State())

	h.clock.Advance(time.Millisecond)
	snap = h.c.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.True(t, snap.FormVisible)
	assert.False(t, snap.SuccessVisible)
	assert.True(t, snap.SubmitEnabled)
	assert.Equal(t, "Enviar Mensaje", snap.SubmitLabel)
	assert.True(t, snap.SubmittedAt.IsZero())
	for _, f := range snap.Fields {
		assert.Equal(t, form.Value{}, f.Value, f.Field)
		assert.True(t, f.Valid, f.Field)
	}

	assert.Equal(t, []State{Validating, Pending, Success, Idle}, h.view.stateSeq())
	assert.Zero(t, h.clock.Pending())
}

func TestSubmit_InvalidReportsEveryFailure(t *testing.T) {
	h := newHarness(t)
	h.blur(t, form.FirstName, form.Text("Ana"))
	h.blur(t, form.Email, form.Text("ana@example"))
	h.blur(t, form.Phone, form.Text("12345678"))
	h.blur(t, form.Message, form.Text("corto"))

	err := h.c.Submit(context.Background())
	require.Error(t, err)
	require.True(t, form.IsValidationError(err))

	var got []form.Field
	for _, fe := range form.FieldErrors(err) {
		got = append(got, fe.Name)
		assert.NotEmpty(t, fe.Message)
	}
	want := []form.Field{form.LastName, form.Email, form.Subject, form.Message, form.Terms}
	assert.ElementsMatch(t, want, got)

	snap := h.c.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Equal(t, want, snap.Failed)
	assert.True(t, snap.SubmitEnabled)
	assert.Equal(t, []form.Field{form.LastName}, h.view.focus)
	assert.Equal(t, []State{Validating, Idle}, h.view.stateSeq())
	assert.Zero(t, h.clock.Pending())

	// Every field was evaluated, valid ones included.
	rendered := map[form.Field]bool{}
	for _, fs := range h.view.fields {
		rendered[fs.Field] = true
	}
	for _, name := range form.Default().Names() {
		assert.True(t, rendered[name], name)
	}
}

func TestSubmit_UntouchedFormFailsOnEveryField(t *testing.T) {
	h := newHarness(t)

	err := h.c.Submit(context.Background())
	assert.Len(t, form.FieldErrors(err), len(form.Default().Fields))
	assert.Equal(t, []form.Field{form.FirstName}, h.view.focus)
}

func TestSubmit_GuardWhileInFlight(t *testing.T) {
	h := newHarness(t)
	h.fillValid(t)
	ctx := context.Background()

	require.NoError(t, h.c.Submit(ctx))
	assert.ErrorIs(t, h.c.Submit(ctx), ErrSubmissionInFlight)

	h.clock.Advance(DefaultPendingDelay)
	assert.ErrorIs(t, h.c.Submit(ctx), ErrSubmissionInFlight)
	assert.Equal(t, Success, h.c.State())

	h.clock.Advance(DefaultResetDelay)
	assert.Equal(t, Idle, h.c.State())
	assert.Len(t, h.rec.payloads, 1)

	// After the reset the form is empty again.
	assert.True(t, form.IsValidationError(h.c.Submit(ctx)))
}

func TestSubmit_FieldEventsDuringPendingAreAccepted(t *testing.T) {
	h := newHarness(t)
	h.fillValid(t)
	require.NoError(t, h.c.Submit(context.Background()))

	st := h.blur(t, form.Message, form.Text("Cambio de opinión, otro texto."))
	assert.True(t, st.Valid)

	h.clock.Advance(DefaultPendingDelay)
	require.Len(t, h.rec.payloads, 1)
	assert.Equal(t, "Cambio de opinión, otro texto.", h.rec.payloads[0]["message"])
}

func TestSubmit_RecorderErrorDoesNotStopReset(t *testing.T) {
	h := newHarness(t)
	h.rec.err = errors.New("collector offline")
	h.fillValid(t)

	require.NoError(t, h.c.Submit(context.Background()))
	h.clock.Advance(DefaultPendingDelay + DefaultResetDelay)
	assert.Equal(t, Idle, h.c.State())
}

// stallingRecorder blocks every Record until release is closed or the
// context ends.
type stallingRecorder struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once

	mu       sync.Mutex
	deadline time.Time
	err      error
}

func newStallingRecorder() *stallingRecorder {
	return &stallingRecorder{entered: make(chan struct{}), release: make(chan struct{})}
}

func (r *stallingRecorder) Record(ctx context.Context, _ form.Payload) error {
	dl, _ := ctx.Deadline()
	r.mu.Lock()
	r.deadline = dl
	r.mu.Unlock()
	r.once.Do(func() { close(r.entered) })

	var err error
	select {
	case <-r.release:
	case <-ctx.Done():
		err = ctx.Err()
	}
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
	return err
}

func TestSubmit_SlowRecorderDoesNotBlockVisitor(t *testing.T) {
	rec := newStallingRecorder()
	c := New(form.Default(), Options{
		Recorder:      rec,
		Logger:        zap.NewNop().Sugar(),
		PendingDelay:  time.Millisecond,
		ResetDelay:    30 * time.Millisecond,
		RecordTimeout: time.Minute,
	})
	defer c.Close()
	defer close(rec.release)

	h := &harness{c: c}
	h.fillValid(t)
	require.NoError(t, c.Submit(context.Background()))

	select {
	case <-rec.entered:
	case <-time.After(time.Second):
		t.Fatal("recorder never called")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Handle(context.Background(), Event{Field: form.Email, Trigger: Blur, Value: form.Text("x@y.z")})
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Handle blocked behind the recorder")
	}

	// Reset lands while the recorder is still stalled.
	require.Eventually(t, func() bool { return c.State() == Idle }, time.Second, time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.False(t, rec.deadline.IsZero(), "record context carries a deadline")
	assert.NoError(t, rec.err)
}

func TestSubmit_RecordTimeout(t *testing.T) {
	fake := clock.NewFake(epoch)
	rec := newStallingRecorder()
	c := New(form.Default(), Options{
		Clock:         fake,
		Recorder:      rec,
		Logger:        zap.NewNop().Sugar(),
		RecordTimeout: 20 * time.Millisecond,
	})
	defer c.Close()
	defer close(rec.release)

	h := &harness{c: c, clock: fake}
	h.fillValid(t)
	require.NoError(t, c.Submit(context.Background()))

	// The pending callback runs on this goroutine; it returns once the
	// record context expires.
	fake.Advance(DefaultPendingDelay)
	assert.Equal(t, Success, c.State())

	rec.mu.Lock()
	assert.ErrorIs(t, rec.err, context.DeadlineExceeded)
	rec.mu.Unlock()

	fake.Advance(DefaultResetDelay)
	assert.Equal(t, Idle, c.State())
}

func TestSubmit_CustomDelays(t *testing.T) {
	fake := clock.NewFake(epoch)
	c := New(form.Default(), Options{
		Clock:        fake,
		Logger:       zap.NewNop().Sugar(),
		PendingDelay: 10 * time.Millisecond,
		ResetDelay:   20 * time.Millisecond,
	})
	defer c.Close()

	ctx := context.Background()
	for _, ev := range []Event{
		{form.FirstName, Blur, form.Text("Ana")},
		{form.LastName, Blur, form.Text("Gómez")},
		{form.Email, Blur, form.Text("a@b.c")},
		{form.Phone, Blur, form.Text("12345678")},
		{form.Subject, Blur, form.Text("otro")},
		{form.Message, Blur, form.Text("0123456789")},
		{form.Terms, Change, form.Checked(true)},
	} {
		_, err := c.Handle(ctx, ev)
		require.NoError(t, err)
	}
	require.NoError(t, c.Submit(ctx))

	fake.Advance(10 * time.Millisecond)
	assert.Equal(t, Success, c.State())
	fake.Advance(20 * time.Millisecond)
	assert.Equal(t, Idle, c.State())
}

/*─────────────────────────────── close ────────────────────────────────────*/

func TestClose_StopsTimers(t *testing.T) {
	h := newHarness(t)
	h.fillValid(t)
	require.NoError(t, h.c.Submit(context.Background()))

	require.NoError(t, h.c.Close())
	require.NoError(t, h.c.Close())
	assert.Zero(t, h.clock.Pending())

	h.clock.Advance(time.Minute)
	assert.Equal(t, Pending, h.c.State())
	assert.Empty(t, h.rec.payloads)

	assert.ErrorIs(t, h.c.Submit(context.Background()), ErrClosed)
	_, err := h.c.Handle(context.Background(), Event{Field: form.Email, Trigger: Blur})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRealClock_FullCycle(t *testing.T) {
	rec := &recordingRecorder{}
	c := New(form.Default(), Options{
		Recorder:     rec,
		Logger:       zap.NewNop().Sugar(),
		PendingDelay: time.Millisecond,
		ResetDelay:   time.Millisecond,
	})
	defer c.Close()

	h := &harness{c: c}
	h.fillValid(t)
	require.NoError(t, c.Submit(context.Background()))

	require.Eventually(t, func() bool { return c.State() == Idle }, time.Second, time.Millisecond)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Len(t, rec.payloads, 1)
}

/*─────────────────────────────── states ───────────────────────────────────*/

func TestState_Strings(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "state(9)", State(9).String())

	tr, err := ParseTrigger("change")
	require.NoError(t, err)
	assert.Equal(t, Change, tr)

	_, err = ParseTrigger("submit")
	assert.ErrorIs(t, err, ErrUnknownTrigger)
}

func TestTransitions_OnlyDefinedEdges(t *testing.T) {
	assert.True(t, canTransition(Idle, Validating))
	assert.True(t, canTransition(Validating, Idle))
	assert.True(t, canTransition(Validating, Pending))
	assert.True(t, canTransition(Pending, Success))
	assert.True(t, canTransition(Success, Idle))

	assert.False(t, canTransition(Idle, Pending))
	assert.False(t, canTransition(Pending, Idle))
	assert.False(t, canTransition(Success, Pending))
}
