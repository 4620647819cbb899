// internal/component/registry.go
//
// Component mounting.
//
// Each concrete component lives under components/<name>, is constructed in
// cmd/web with its dependencies, and is mounted at “/<name>” by Mount.
// Components own every route below their prefix.

package component

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Component contract.
//
// Routes() should mount BOTH page and API endpoints relative to the
// component prefix, e.g:
//
//	r := chi.NewRouter()
//	r.Get("/state", getState)
//	r.Post("/submit", postSubmit)
//	return r
type Component interface {
	Name() string
	Routes() chi.Router
}

// Mount attaches every component to r under “/<Name()>”.  A duplicate name
// panics, the same way chi does for a duplicate mount.
func Mount(r chi.Router, log *zap.SugaredLogger, cs ...Component) {
	seen := make(map[string]bool, len(cs))
	for _, c := range cs {
		name := c.Name()
		if seen[name] {
			panic("component: duplicate name " + name)
		}
		seen[name] = true
		r.Mount("/"+name, c.Routes())
		log.Debugw("component mounted", "component", name, "prefix", "/"+name)
	}
}
