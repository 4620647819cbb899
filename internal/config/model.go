// internal/config/model.go
//
// Typed configuration model for the contact service.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                           – dotenv values,
//   • `conf/global.yaml`                        – primary static file,
//   • `CONTACT_`-prefixed environment overrides – highest precedence.
//
// Zero values are replaced by defaults before validation, so an empty
// YAML file is a working configuration.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • Durations are written as Go duration strings (“1500ms”, “30m”).
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.  ForceHTTPS redirects plain-HTTP
// requests for any host other than localhost.
type HTTP struct {
	ListenAddr      string        `koanf:"listen_addr"      validate:"required,hostname_port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"required"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"required"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"required"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required"`
	ForceHTTPS      bool          `koanf:"force_https"`
}

//
// Form section
//

// Form tunes the contact form engine.
//
// Definition is a path to a YAML form definition; empty selects the
// embedded contact form.  CSRFSecret is a raw base64url key of at least 32
// bytes; empty generates an ephemeral key at startup.
type Form struct {
	Definition    string        `koanf:"definition"`
	PendingDelay  time.Duration `koanf:"pending_delay"  validate:"required"`
	ResetDelay    time.Duration `koanf:"reset_delay"    validate:"required"`
	RecordTimeout time.Duration `koanf:"record_timeout" validate:"required"`
	CSRFSecret    string        `koanf:"csrf_secret"`
	CSRFMaxAge    time.Duration `koanf:"csrf_max_age"   validate:"required"`
	History       int           `koanf:"history"        validate:"gte=1"`
}

//
// Session section
//

// Session bounds the per-visitor controller store.
type Session struct {
	IdleTTL       time.Duration `koanf:"idle_ttl"       validate:"required"`
	MaxEntries    int           `koanf:"max_entries"    validate:"gte=1"`
	EvictInterval time.Duration `koanf:"evict_interval" validate:"required"`
}

//
// Log section
//

// Log selects the log directory and level.  A relative Dir is resolved
// against Paths.Root.
type Log struct {
	Dir   string `koanf:"dir"   validate:"required"`
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

//
// Archive section
//

// Archive enables the optional MySQL copy of every completed submission.
// An empty DSN keeps submissions in the log only.
type Archive struct {
	DSN     string `koanf:"dsn"`
	MaxOpen int    `koanf:"max_open" validate:"gte=1"`
	MaxIdle int    `koanf:"max_idle" validate:"gte=0,ltefield=MaxOpen"`
}

//
// GeoIP section
//

// GeoIP names a GeoLite2-City database used to annotate submissions with
// the client's country.  Empty disables the lookup.
type GeoIP struct {
	Database string `koanf:"database"`
}

//
// Vault section
//

// Vault optionally sources secrets from HashiCorp Vault.  CSRFSecret is a
// "mount/path#key" reference and wins over form.csrf_secret.  The client
// reads VAULT_ADDR and VAULT_TOKEN from the environment.
type Vault struct {
	CSRFSecret string `koanf:"csrf_secret"`
}

//
// Debug section
//

// Debug exposes /debug/submissions with the recent in-memory history.
type Debug struct {
	Enabled bool `koanf:"enabled"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // CONTACT_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP    HTTP    `koanf:"http"`
	Form    Form    `koanf:"form"`
	Session Session `koanf:"session"`
	Log     Log     `koanf:"log"`
	Archive Archive `koanf:"archive"`
	GeoIP   GeoIP   `koanf:"geoip"`
	Vault   Vault   `koanf:"vault"`
	Debug   Debug   `koanf:"debug"`
	Paths   Paths   `koanf:"-"` // not loaded from config files
}

// applyDefaults fills every unset tunable.
func (c *Config) applyDefaults() {
	setDefault(&c.HTTP.ListenAddr, ":8080")
	setDefault(&c.HTTP.ReadTimeout, 10*time.Second)
	setDefault(&c.HTTP.WriteTimeout, 15*time.Second)
	setDefault(&c.HTTP.IdleTimeout, 60*time.Second)
	setDefault(&c.HTTP.ShutdownTimeout, 10*time.Second)
	setDefault(&c.Form.PendingDelay, 1500*time.Millisecond)
	setDefault(&c.Form.ResetDelay, 3000*time.Millisecond)
	setDefault(&c.Form.RecordTimeout, 10*time.Second)
	setDefault(&c.Form.CSRFMaxAge, 2*time.Hour)
	setDefault(&c.Form.History, 50)
	setDefault(&c.Session.IdleTTL, 30*time.Minute)
	setDefault(&c.Session.MaxEntries, 10000)
	setDefault(&c.Session.EvictInterval, time.Minute)
	setDefault(&c.Archive.MaxOpen, 15)
	setDefault(&c.Archive.MaxIdle, 5)
	setDefault(&c.Log.Dir, "logs")
	setDefault(&c.Log.Level, "info")
}

func setDefault[T comparable](dst *T, v T) {
	var zero T
	if *dst == zero {
		*dst = v
	}
}
