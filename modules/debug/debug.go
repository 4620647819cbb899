// modules/debug/debug.go
//
// Debug module that echoes recent submissions, the live session count, and
// the caller's remote IP and user-agent.  Mounted only when debug.enabled
// is set; the payloads it returns contain visitor data.
package debug

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	"github.com/yanizio/contactform/internal/message"
)

// Sessions reports how many visitor sessions are live.
type Sessions interface {
	Len() int
}

// Handler writes a JSON blob with the last ?n= submissions (default 10).
func Handler(rec *message.LogRecorder, sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := 10
		if q := r.URL.Query().Get("n"); q != "" {
			v, err := strconv.Atoi(q)
			if err != nil || v < 1 {
				http.Error(w, "n must be a positive integer", http.StatusBadRequest)
				return
			}
			n = v
		}

		out := map[string]any{
			"sessions":    sessions.Len(),
			"submissions": rec.Recent(n),
			"ip":          clientIP(r),
			"ua":          r.UserAgent(),
		}

		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	}
}

// clientIP grabs the remote address without port.
func clientIP(r *http.Request) string {
	h, _, _ := net.SplitHostPort(r.RemoteAddr)
	return h
}
