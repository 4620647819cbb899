// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` after it unmarshals the
// merged Koanf tree and applies defaults.  Any tag mismatch aborts startup,
// so the binary never runs with a malformed listen address, a zero delay, or
// an unknown log level.
//
// Notes
// -----
//   • Section dividers use the simple comment style.

package config

import "github.com/go-playground/validator/v10"

//
// validator instance (package-level singleton)
//

var v = validator.New()

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
