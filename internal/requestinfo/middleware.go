// internal/requestinfo/middleware.go
//
// HTTP middleware that enriches each request with *Info.
//
/*
Context
--------
This handler sits after request-ID and access logging, before the form
routes.  For every request it:

  1. Parses the User-Agent header and Accept-Language list.
  2. Extracts the left-most client IP from X-Forwarded-For or X-Real-IP,
     falling back to `r.RemoteAddr`.
  3. Performs a GeoLite2 lookup when a database is configured.
  4. Stores the `*Info` in `request.Context`, where the submission
     recorders pick it up once a simulated delivery completes.

Instrumentation
---------------
At DEBUG level each invocation logs client IP, country, browser family,
device class, and bot flag.
*/
package requestinfo

import (
	"net"
	"net/http"
	"strings"

	"github.com/yanizio/contactform/internal/logger"
)

/*──────────────────────────── middleware ───────────────────────────────────*/

// Middleware wraps an http.Handler, attaches *Info, and forwards.
func (e *Enricher) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := e.Lookup(r)

		logger.FromContext(r.Context()).Debugw("request info",
			"ip", info.IP,
			"country", info.Country,
			"browser", info.Browser,
			"device", info.Device,
			"bot", info.IsBot,
		)

		next.ServeHTTP(w, r.WithContext(WithInfo(r.Context(), info)))
	})
}

// Lookup builds the Info for r.
func (e *Enricher) Lookup(r *http.Request) *Info {
	info := &Info{Lang: primaryLang(r.Header.Get("Accept-Language"))}
	parseUA(info, r.UserAgent())

	ip := clientIP(r)
	if ip != nil {
		info.IP = ip.String()
	}
	g := e.lookupGeo(ip)
	info.Country, info.City = g.country, g.city
	return info
}

/*──────────────────────────── client IP helper ─────────────────────────────*/

// clientIP extracts the left-most address from X-Forwarded-For or
// X-Real-IP, falling back to r.RemoteAddr ("ip:port").
func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return nil
}
