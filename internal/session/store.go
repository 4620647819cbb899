// internal/session/store.go
//
// Per-visitor controller store.
//
// Context
// -------
// Store lazily builds one *controller.Controller per visitor ID, keeps them
// in a sync.Map, and evicts them on idle TTL or capacity pressure (see
// evictor.go).  Concurrent first hits for the same ID are collapsed with
// singleflight so a visitor never ends up with two controllers.
//
// Notes
// -----
//   - Evicted controllers are Closed, which stops any in-flight submission
//     timers.
//   - lastSeen is read from the injected clock so tests can age entries.
package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/contactform/internal/clock"
	"github.com/yanizio/contactform/internal/controller"
	"github.com/yanizio/contactform/internal/metrics"
)

// Static defaults, overridden through Options.
const (
	IdleTTL       = 30 * time.Minute
	MaxEntries    = 10000
	EvictInterval = time.Minute
)

// ErrClosed is returned by Get after Close.
var ErrClosed = errors.New("session store closed")

// Factory builds the controller for a new visitor.
type Factory func(id string) (*controller.Controller, error)

// Options tunes a Store.  Zero values select the package defaults and the
// wall clock.
type Options struct {
	IdleTTL       time.Duration
	MaxEntries    int
	EvictInterval time.Duration
	Clock         clock.Clock
	Logger        *zap.SugaredLogger
}

type entry struct {
	ctrl     *controller.Controller
	lastSeen int64 // UnixNano
}

// Store maps visitor IDs to controllers.
type Store struct {
	factory    Factory
	sfg        singleflight.Group
	m          sync.Map
	idleTTL    time.Duration
	maxEntries int
	clock      clock.Clock
	log        *zap.SugaredLogger

	ticker *time.Ticker
	stop   chan struct{}
	done   chan struct{}
	closed atomic.Bool
}

// New constructs a Store and starts the background evictor.  Call Close to
// stop it.
func New(factory Factory, opts Options) *Store {
	s := &Store{
		factory:    factory,
		idleTTL:    opts.IdleTTL,
		maxEntries: opts.MaxEntries,
		clock:      opts.Clock,
		log:        opts.Logger,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	if s.idleTTL <= 0 {
		s.idleTTL = IdleTTL
	}
	if s.maxEntries <= 0 {
		s.maxEntries = MaxEntries
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	if s.log == nil {
		s.log = zap.S()
	}
	interval := opts.EvictInterval
	if interval <= 0 {
		interval = EvictInterval
	}
	s.ticker = time.NewTicker(interval)
	go s.evictLoop()
	return s
}

// Get returns the controller for id, creating it on first use.
func (s *Store) Get(id string) (*controller.Controller, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if v, ok := s.m.Load(id); ok {
		ent := v.(*entry)
		atomic.StoreInt64(&ent.lastSeen, s.clock.Now().UnixNano())
		return ent.ctrl, nil
	}

	v, err, _ := s.sfg.Do(id, func() (any, error) {
		// Double-check after singleflight barrier.
		if v, ok := s.m.Load(id); ok {
			ent := v.(*entry)
			atomic.StoreInt64(&ent.lastSeen, s.clock.Now().UnixNano())
			return ent.ctrl, nil
		}
		ctrl, err := s.factory(id)
		if err != nil {
			return nil, err
		}
		ent := &entry{ctrl: ctrl, lastSeen: s.clock.Now().UnixNano()}
		s.m.Store(id, ent)
		metrics.SessionCreateTotal.Inc()
		metrics.ActiveSessions.Inc()

		// Close may have swept the map while the factory ran.
		if s.closed.Load() {
			s.remove(id, ent, "shutdown")
			return nil, ErrClosed
		}
		s.log.Debugw("session created", "session", id)
		return ctrl, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*controller.Controller), nil
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	n := 0
	s.m.Range(func(_, _ any) bool { n++; return true })
	return n
}

// Close stops the evictor and closes every controller.  It is idempotent.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.stop)
	<-s.done

	s.m.Range(func(key, value any) bool {
		s.remove(key.(string), value.(*entry), "shutdown")
		return true
	})
	return nil
}

func (s *Store) remove(id string, ent *entry, reason string) {
	if !s.m.CompareAndDelete(id, ent) {
		return
	}
	_ = ent.ctrl.Close()
	metrics.SessionEvictTotal.WithLabelValues(reason).Inc()
	metrics.ActiveSessions.Dec()
}
