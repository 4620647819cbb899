// internal/message/message.go
//
// Contact – Submission telemetry.
//
// Context
//   Once a simulated submission succeeds the controller hands the collected
//   values to a Recorder.  Nothing is sent anywhere: the default recorder
//   writes the payload to the structured log, the same place an operator
//   would look for it, and keeps a bounded in-memory history so the latest
//   submissions can be inspected from tests or a debug endpoint.  An
//   optional SQL archive (sql.go) and a fan-out (Fanout) let an operator
//   keep a durable copy as well.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package message

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/contactform/internal/form"
	"github.com/yanizio/contactform/internal/logger"
	"github.com/yanizio/contactform/internal/requestinfo"
)

// DefaultHistory is the number of submissions LogRecorder remembers.
const DefaultHistory = 50

// Submission is one recorded payload.
type Submission struct {
	FormID     string            `json:"form_id"`
	Payload    form.Payload      `json:"payload"`
	Client     *requestinfo.Info `json:"client,omitempty"`
	RecordedAt time.Time         `json:"recorded_at"`
}

// LogRecorder logs each payload and keeps the most recent ones.
type LogRecorder struct {
	formID string
	log    *zap.SugaredLogger
	max    int

	mu      sync.Mutex
	history []Submission
}

// NewLogRecorder returns a recorder for formID.  A nil log falls back to the
// logger carried by each Record call's context.  history ≤ 0 selects
// DefaultHistory.
func NewLogRecorder(formID string, log *zap.SugaredLogger, history int) *LogRecorder {
	if history <= 0 {
		history = DefaultHistory
	}
	return &LogRecorder{formID: formID, log: log, max: history}
}

// Record logs p and appends it to the history.  It never fails.
func (r *LogRecorder) Record(ctx context.Context, p form.Payload) error {
	log := r.log
	if log == nil {
		log = logger.FromContext(ctx)
	}
	client := requestinfo.FromContext(ctx)
	log.Infow("form submitted", "form", r.formID, "payload", p, "client", client)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, Submission{
		FormID:     r.formID,
		Payload:    p,
		Client:     client,
		RecordedAt: time.Now().UTC(),
	})
	if over := len(r.history) - r.max; over > 0 {
		r.history = append([]Submission(nil), r.history[over:]...)
	}
	return nil
}

// Recent returns up to n recorded submissions, newest last.
func (r *LogRecorder) Recent(n int) []Submission {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n <= 0 || n > len(r.history) {
		n = len(r.history)
	}
	return append([]Submission(nil), r.history[len(r.history)-n:]...)
}
