package pool

import (
	"fmt"
	"sync"
)

// Pool is the live collection of upstream servers. Multiple producers
// (static config, online-config services) share one pool; every entry
// carries the tag of the producer that owns it.
type Pool struct {
	mutex   sync.RWMutex
	servers []*Server
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{}
}

// Add appends servers to the pool.
func (p *Pool) Add(servers ...*Server) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.servers = append(p.servers, servers...)
}

// Servers returns a snapshot of the current entries. The returned slice
// is a copy; readers never observe a replace operation half-applied.
func (p *Pool) Servers() []*Server {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	snapshot := make([]*Server, len(p.servers))
	copy(snapshot, p.servers)
	return snapshot
}

// Len returns the number of entries in the pool.
func (p *Pool) Len() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return len(p.servers)
}

// BySource returns the entries tagged with the given source.
func (p *Pool) BySource(source Source) []*Server {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	var matched []*Server
	for _, s := range p.servers {
		if s.Source() == source {
			matched = append(matched, s)
		}
	}
	return matched
}

// ReplaceBySource atomically replaces every entry whose tag is in sources
// with the given servers. Entries tagged with any other source are left
// untouched in count and content. The whole operation happens under the
// pool lock, so a concurrent reader sees either the full old set or the
// full new set for the replaced sources.
func (p *Pool) ReplaceBySource(servers []*Server, sources ...Source) error {
	replaced := make(map[Source]struct{}, len(sources))
	for _, src := range sources {
		replaced[src] = struct{}{}
	}

	for _, s := range servers {
		if s == nil {
			return fmt.Errorf("refusing to add nil server to pool")
		}
		if _, ok := replaced[s.Source()]; !ok {
			return fmt.Errorf("server %q tagged %q is outside the replace scope", s.ID(), s.Source())
		}
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	kept := make([]*Server, 0, len(p.servers)+len(servers))
	for _, s := range p.servers {
		if _, ok := replaced[s.Source()]; !ok {
			kept = append(kept, s)
		}
	}

	p.servers = append(kept, servers...)
	return nil
}
