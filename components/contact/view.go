package contact

import (
	"go.uber.org/zap"

	"github.com/yanizio/contactform/internal/controller"
	"github.com/yanizio/contactform/internal/form"
)

// logView is the server-side View.  The browser renders from the JSON
// snapshot, so the server only traces what it would have shown.
type logView struct {
	id  string
	log *zap.SugaredLogger
}

// NewLogView returns a View that writes DEBUG spans for visitor id.
func NewLogView(id string, log *zap.SugaredLogger) controller.View {
	return &logView{id: id, log: log}
}

func (v *logView) RenderField(s controller.FieldStatus) {
	v.log.Debugw("render field", "session", v.id, "field", s.Field, "valid", s.Valid, "message", s.Message)
}

func (v *logView) RenderState(s controller.Snapshot) {
	v.log.Debugw("render state",
		"session", v.id,
		"state", s.State,
		"submit_enabled", s.SubmitEnabled,
		"form_visible", s.FormVisible,
	)
}

func (v *logView) Focus(f form.Field) {
	v.log.Debugw("focus field", "session", v.id, "field", f)
}
