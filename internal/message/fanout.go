package message

import (
	"context"
	"errors"

	"github.com/yanizio/contactform/internal/form"
)

// Recorder receives the payload of a completed submission.
type Recorder interface {
	Record(ctx context.Context, p form.Payload) error
}

// Fanout records to every member, in order, and joins their errors.  One
// failing member does not stop the others.
type Fanout []Recorder

func (f Fanout) Record(ctx context.Context, p form.Payload) error {
	var errs []error
	for _, r := range f {
		if err := r.Record(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
