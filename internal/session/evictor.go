// evictor.go houses the eviction loop for Store.  Every EvictInterval it
// scans the map and removes:
//
//   - sessions idle longer than idleTTL
//   - least-recently-used sessions when map size exceeds maxEntries
//
// Each eviction event is logged and updates Prometheus counters.
package session

import (
	"sort"
	"sync/atomic"
	"time"
)

func (s *Store) evictLoop() {
	defer close(s.done)
	defer s.ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-s.ticker.C:
			s.sweep()
		}
	}
}

// sweep runs one idle pass and one LRU pass.  It returns the number of
// sessions evicted.
func (s *Store) sweep() int {
	now := s.clock.Now().UnixNano()
	var count, evicted int

	// ----------------------------------------------------------------
	// Idle eviction pass
	// ----------------------------------------------------------------
	s.m.Range(func(key, value any) bool {
		ent := value.(*entry)
		idle := time.Duration(now - atomic.LoadInt64(&ent.lastSeen))
		if idle > s.idleTTL {
			s.remove(key.(string), ent, "idle")
			s.log.Debugw("session evicted", "session", key, "idle", idle.Truncate(time.Second))
			evicted++
			return true
		}
		count++
		return true
	})

	// ----------------------------------------------------------------
	// LRU eviction pass
	// ----------------------------------------------------------------
	if s.maxEntries > 0 && count > s.maxEntries {
		type kv struct {
			key string
			ent *entry
			at  int64
		}
		var all []kv
		s.m.Range(func(key, value any) bool {
			ent := value.(*entry)
			all = append(all, kv{key: key.(string), ent: ent, at: atomic.LoadInt64(&ent.lastSeen)})
			return true
		})
		sort.Slice(all, func(i, j int) bool { return all[i].at < all[j].at })
		for i := 0; i < len(all)-s.maxEntries; i++ {
			s.remove(all[i].key, all[i].ent, "lru")
			s.log.Debugw("session evicted (LRU pressure)", "session", all[i].key)
			evicted++
		}
	}

	if evicted > 0 {
		s.log.Infow("sessions evicted", "count", evicted, "remaining", s.Len())
	}
	return evicted
}
