package relay

import "sync"

// Registry tracks the active relay per session id. It is the only
// cross-session shared state in the gateway.
type Registry struct {
	mu     sync.RWMutex
	relays map[string]*Relay
}

func NewRegistry() *Registry {
	return &Registry{relays: make(map[string]*Relay)}
}

func (r *Registry) Add(relay *Relay) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.relays[relay.ID()] = relay
}

// Remove deletes the entry for relay's session id only while relay is
// still the registered one. A reconnect replaces the entry, and the old
// connection's teardown must not evict its replacement.
func (r *Registry) Remove(relay *Relay) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.relays[relay.ID()]; ok && current == relay {
		delete(r.relays, relay.ID())
	}
}

func (r *Registry) Get(sessionID string) (*Relay, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	relay, ok := r.relays[sessionID]
	return relay, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.relays)
}
