//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight types and helpers that collect per-request client metadata
//  (user-agent fingerprint, IP + geolocation, preferred language).  The
//  Info struct is inert and JSON-safe, so recorders attach it to each
//  archived submission.
//
//  Dependencies
//  • github.com/avct/uasurfer           (UA parsing)
//  • github.com/oschwald/geoip2-golang  (MaxMind lookup, optional)
//

package requestinfo

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	surfer "github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"

	"github.com/yanizio/contactform/internal/cache"
)

// geoCacheSize bounds the per-address GeoIP memo.
const geoCacheSize = 4096

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// Info is the client fingerprint of one request.  Geo fields are
// best-effort and stay empty without a GeoLite2 database.
type Info struct {
	IP      string `json:"ip,omitempty" db:"client_ip"`
	Country string `json:"country,omitempty" db:"country"`
	City    string `json:"city,omitempty" db:"city"`
	Browser string `json:"browser,omitempty" db:"browser"`
	Version string `json:"version,omitempty" db:"browser_version"`
	OS      string `json:"os,omitempty" db:"os"`
	Device  string `json:"device,omitempty" db:"device"`
	IsBot   bool   `json:"is_bot,omitempty" db:"is_bot"`
	Lang    string `json:"lang,omitempty" db:"lang"`
}

type geo struct {
	country string
	city    string
}

// Enricher builds Info values.  Safe for concurrent use.
type Enricher struct {
	reader *geoip2.Reader
	memo   *cache.LRU[string, geo]
	log    *zap.SugaredLogger
}

// New returns an Enricher.  dbPath names a GeoLite2-City database; empty
// disables geolocation.
func New(dbPath string, log *zap.SugaredLogger) (*Enricher, error) {
	if log == nil {
		log = zap.S()
	}
	e := &Enricher{log: log}
	if dbPath == "" {
		return e, nil
	}
	r, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("requestinfo: open GeoLite2 DB: %w", err)
	}
	e.reader = r
	e.memo = cache.New[string, geo](geoCacheSize)
	log.Infow("geoip database opened", "file", dbPath)
	return e, nil
}

// Close releases the GeoIP database.
func (e *Enricher) Close() error {
	if e.reader == nil {
		return nil
	}
	return e.reader.Close()
}

//
//  -----------------------------
//  Public helper: FromContext
//  -----------------------------
//

type ctxKey struct{} // unexported, collision-proof

// WithInfo returns a copy of ctx carrying info.
func WithInfo(ctx context.Context, info *Info) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

// FromContext returns the pointer previously stored by the middleware.
// It returns nil if the middleware has not run.
func FromContext(ctx context.Context) *Info {
	v, _ := ctx.Value(ctxKey{}).(*Info)
	return v
}

//
//  -----------------------------
//  Internal helpers
//  -----------------------------
//

// parseUA fills the user-agent fields of info.
func parseUA(info *Info, raw string) {
	ua := surfer.Parse(raw)

	info.Browser = strings.TrimPrefix(ua.Browser.Name.String(), "Browser")
	info.Version = versionToString(ua.Browser.Version)
	info.OS = strings.TrimPrefix(ua.OS.Name.String(), "OS")
	if info.OS == "MacOSX" {
		info.OS = "macOS"
	}
	info.IsBot = ua.IsBot()

	switch ua.DeviceType {
	case surfer.DeviceComputer:
		info.Device = "Desktop"
	case surfer.DeviceTablet:
		info.Device = "Tablet"
	case surfer.DevicePhone, surfer.DeviceWearable:
		info.Device = "Mobile"
	default:
		info.Device = "Other"
	}
}

// versionToString renders a semantic version in dotted form while trimming
// trailing zeros, e.g. 17.0.0 → "17", 17.3.0 → "17.3", 17.3.1 → "17.3.1".
func versionToString(v surfer.Version) string {
	if v.Major == 0 && v.Minor == 0 && v.Patch == 0 {
		return ""
	}
	if v.Patch != 0 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	if v.Minor != 0 {
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return strconv.Itoa(int(v.Major))
}

// primaryLang extracts the first language subtag before any ";q=" rule.
func primaryLang(al string) string {
	if al == "" {
		return ""
	}
	tag, _, _ := strings.Cut(al, ",")
	tag, _, _ = strings.Cut(tag, ";")
	return strings.ToLower(strings.TrimSpace(tag))
}

// lookupGeo returns best-effort Geo data, memoised per address.
func (e *Enricher) lookupGeo(ip net.IP) geo {
	if e.reader == nil || ip == nil {
		return geo{}
	}
	key := ip.String()
	if g, ok := e.memo.Get(key); ok {
		return g
	}
	rec, err := e.reader.City(ip)
	if err != nil {
		e.log.Debugw("geoip lookup failed", "ip", key, "err", err)
		return geo{}
	}
	g := geo{country: rec.Country.IsoCode, city: rec.City.Names["en"]}
	e.memo.Add(key, g)
	return g
}
