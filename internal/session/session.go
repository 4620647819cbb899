// internal/session/session.go
//
// Contact – Visitor identity cookie.
//
// Context
//   Each browser gets its own form controller.  The browser is identified by
//   a random UUID stored in the “contact_session” cookie.  The cookie carries
//   no personal data and grants nothing beyond access to that visitor's own
//   in-memory form state, so it is not signed.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"net/http"

	"github.com/google/uuid"
)

// CookieName is the visitor identity cookie.
const CookieName = "contact_session"

// ID returns the visitor ID carried by r.
//
// ok == false when the cookie is missing or does not hold a UUID.
func ID(r *http.Request) (id string, ok bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return "", false
	}
	return c.Value, true
}

// Ensure returns the visitor ID carried by r, issuing a fresh one (and the
// Set-Cookie header) when none is present.
func Ensure(w http.ResponseWriter, r *http.Request) string {
	if id, ok := ID(r); ok {
		return id
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil, // only send over HTTPS
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// Forget clears the visitor cookie.
func Forget(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
