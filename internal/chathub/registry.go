package chathub

import (
	"sort"
	"sync"
)

// Registry maps each online user to the id of its one live connection.
// A newer connection for the same user replaces the older entry.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]string)}
}

// Register records connID as the live connection for userID, overwriting
// whatever was there.
func (r *Registry) Register(userID, connID string) {
	r.mu.Lock()
	r.entries[userID] = connID
	r.mu.Unlock()
}

// Unregister removes userID only while connID is still the registered
// connection. A late disconnect from a replaced connection is a no-op.
func (r *Registry) Unregister(userID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.entries[userID]
	if !ok || current != connID {
		return false
	}
	delete(r.entries, userID)
	return true
}

func (r *Registry) Lookup(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.entries[userID]
	return connID, ok
}

// Snapshot returns the online users in sorted order.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.entries)
}

// Entries returns a copy of the user to connection mapping.
func (r *Registry) Entries() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.entries))
	for user, conn := range r.entries {
		out[user] = conn
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
