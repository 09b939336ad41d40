// Package locks provides cooperative per-resource locks keyed by typed
// resource identifiers. Every read-modify-write sequence against the shared
// moderation state, including its persistence step, runs while holding the
// relevant key's lock.
package locks

import "sync"

// Key identifies one logical resource serialized by a Registry. Keys are
// constructed through User, Guild and Sanction so distinct resource kinds
// can never collide.
type Key struct {
	kind string
	id   string
}

// User keys the violation ledger and escalation sequence for one member.
func User(guildID, userID string) Key {
	return Key{kind: "user", id: guildID + ":" + userID}
}

// Guild keys guild-scoped configuration.
func Guild(guildID string) Key {
	return Key{kind: "guild", id: guildID}
}

// Sanction keys one temporary sanction record.
func Sanction(sanctionKey string) Key {
	return Key{kind: "sanction", id: sanctionKey}
}

func (k Key) String() string { return k.kind + ":" + k.id }

// Registry hands out one mutex per resource key. Mutexes are created on
// first use and kept for the life of the process; at guild-count scale the
// leak is acceptable.
type Registry struct {
	mu    sync.Mutex
	locks map[Key]*sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{locks: make(map[Key]*sync.Mutex)}
}

// Get returns the mutex for k, creating it on first use.
func (r *Registry) Get(k Key) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.locks[k]
	if !ok {
		m = &sync.Mutex{}
		r.locks[k] = m
	}
	return m
}

// Lock acquires the mutex for k and returns its unlock function.
func (r *Registry) Lock(k Key) func() {
	m := r.Get(k)
	m.Lock()
	return m.Unlock
}
