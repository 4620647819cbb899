// internal/form/csrf.go
//
// Contact – Forms subsystem: stateless CSRF token utilities.
//
// Context
//   The contact API is cookie-identified, so every state-changing POST must
//   prove it came from a page that fetched the form state first.  We issue a
//   *stateless* token:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(secret, nonce+unixMicro+sid) )
//
//   •  nonce – 16 random bytes.
//   •  unixMicro – microseconds since Unix epoch, 8 bytes, big-endian.
//   •  sid – the visitor's session ID.  Signed but not carried, so a token
//      only verifies for the visitor it was issued to.
//   •  HMAC – keyed with the configured secret.  Verifies authenticity.
//
//   Validation checks the signature and ensures the timestamp is within
//   MaxAge.  No server-side state is required.
//
// Workflow
//   •  NewCSRF(secret, maxAge) → signer; an empty secret yields a random key.
//   •  Generate(sid)     → token string for the state response.
//   •  Verify(tok, sid)  → constant-time verify; false on any failure.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"
)

const (
	nonceBytes    = 16
	tokenBytes    = nonceBytes + 8 + sha256.Size // nonce + ts + sig
	maxClockSkew  = time.Minute
	minSecretSize = 32
)

// CSRF issues and verifies tokens with one secret.
type CSRF struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewCSRF returns a signer.  secret is base64url (raw) encoded and must
// decode to at least 32 bytes.  An empty secret generates an ephemeral key
// that resets on restart.
func NewCSRF(secret string, maxAge time.Duration) (*CSRF, error) {
	var key []byte
	if secret == "" {
		key = make([]byte, minSecretSize)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
	} else {
		b, err := base64.RawURLEncoding.DecodeString(secret)
		if err != nil {
			return nil, fmt.Errorf("decode csrf secret: %w", err)
		}
		if len(b) < minSecretSize {
			return nil, fmt.Errorf("csrf secret must be at least %d bytes", minSecretSize)
		}
		key = b
	}
	return &CSRF{secret: key, maxAge: maxAge, now: time.Now}, nil
}

// Generate creates a new token bound to session ID sid.
func (c *CSRF) Generate(sid string) (string, error) {
	nonce := make([]byte, nonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(c.now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, c.sign(nonce, ts, sid)...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify returns true if tok was issued for sid and passes HMAC and age
// checks.
func (c *CSRF) Verify(tok, sid string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce := raw[:nonceBytes]
	tsBytes := raw[nonceBytes : nonceBytes+8]
	sig := raw[nonceBytes+8:]

	// Future timestamp (clock skew) or older than maxAge.
	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	now := c.now()
	if now.Sub(issued) > c.maxAge || issued.Sub(now) > maxClockSkew {
		return false
	}

	return hmac.Equal(sig, c.sign(nonce, tsBytes, sid))
}

func (c *CSRF) sign(nonce, ts []byte, sid string) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(nonce)
	mac.Write(ts)
	mac.Write([]byte(sid))
	return mac.Sum(nil)
}
