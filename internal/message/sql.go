package message

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/contactform/internal/form"
	"github.com/yanizio/contactform/internal/requestinfo"
)

// SQLRecorder archives each payload in contact_submission (see
// database.Migrate).
type SQLRecorder struct {
	db     *sqlx.DB
	formID string
	now    func() time.Time
}

// NewSQLRecorder returns a recorder writing rows for formID.
func NewSQLRecorder(db *sqlx.DB, formID string) *SQLRecorder {
	return &SQLRecorder{db: db, formID: formID, now: time.Now}
}

type submissionRow struct {
	ID      int64  `db:"id"`
	FormID  string `db:"form_id"`
	Payload []byte `db:"payload"`
	requestinfo.Info
	CreatedAt time.Time `db:"created_at"`
}

const insertSubmission = `
INSERT INTO contact_submission
       (form_id, payload, client_ip, country, city, browser, browser_version,
        os, device, is_bot, lang, created_at)
VALUES (:form_id, :payload, :client_ip, :country, :city, :browser, :browser_version,
        :os, :device, :is_bot, :lang, :created_at)`

const selectRecent = `
SELECT id, form_id, payload, client_ip, country, city, browser, browser_version,
       os, device, is_bot, lang, created_at
FROM   contact_submission
WHERE  form_id = ?
ORDER  BY id DESC
LIMIT  ?`

// Record inserts one row.  Client metadata comes from the context when the
// requestinfo middleware ran.
func (r *SQLRecorder) Record(ctx context.Context, p form.Payload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	row := submissionRow{
		FormID:    r.formID,
		Payload:   raw,
		CreatedAt: r.now().UTC(),
	}
	if info := requestinfo.FromContext(ctx); info != nil {
		row.Info = *info
	}
	if _, err := r.db.NamedExecContext(ctx, insertSubmission, row); err != nil {
		return fmt.Errorf("archive submission: %w", err)
	}
	return nil
}

// Recent returns up to n archived submissions, newest last.
func (r *SQLRecorder) Recent(ctx context.Context, n int) ([]Submission, error) {
	var rows []submissionRow
	if err := r.db.SelectContext(ctx, &rows, selectRecent, r.formID, n); err != nil {
		return nil, err
	}
	slices.Reverse(rows)

	out := make([]Submission, 0, len(rows))
	for _, row := range rows {
		var p form.Payload
		if err := json.Unmarshal(row.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode submission %d: %w", row.ID, err)
		}
		info := row.Info
		out = append(out, Submission{
			FormID:     row.FormID,
			Payload:    p,
			Client:     &info,
			RecordedAt: row.CreatedAt,
		})
	}
	return out, nil
}
