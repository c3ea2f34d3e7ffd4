// Package registry tracks which live connections belong to which user. It is
// the authority behind room-addressed delivery and presence.
package registry

import "sync"

// Registry maps connections to users and back. A user may hold several
// connections at once (multiple tabs); presence transitions fire only when
// the first connection joins or the last one leaves. Socket handlers run on
// multiple goroutines, so the maps sit behind a mutex.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]string
	users map[string]map[string]struct{}
}

func New() *Registry {
	return &Registry{
		conns: make(map[string]string),
		users: make(map[string]map[string]struct{}),
	}
}

// Register binds a connection to a user and reports whether this is the
// user's first live connection. Re-registering the same connection under a
// new user unbinds it from the old one first; when that unbinding took the
// old user's last connection, wentOffline carries the old user id so the
// caller can fire the offline transition.
func (r *Registry) Register(connID, userID string) (first bool, wentOffline string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.conns[connID]; ok && prev != userID {
		if r.dropLocked(connID, prev) {
			wentOffline = prev
		}
	}

	r.conns[connID] = userID
	set := r.users[userID]
	if set == nil {
		set = make(map[string]struct{})
		r.users[userID] = set
	}
	first = len(set) == 0
	set[connID] = struct{}{}
	return first, wentOffline
}

// Unregister removes a connection. It returns the owning user and whether
// that was the user's last connection. Unknown connections are a no-op.
func (r *Registry) Unregister(connID string) (userID string, last bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok = r.conns[connID]
	if !ok {
		return "", false, false
	}
	last = r.dropLocked(connID, userID)
	return userID, last, true
}

func (r *Registry) dropLocked(connID, userID string) (last bool) {
	delete(r.conns, connID)
	set := r.users[userID]
	delete(set, connID)
	if len(set) == 0 {
		delete(r.users, userID)
		return true
	}
	return false
}

// UserOf returns the user a connection registered as.
func (r *Registry) UserOf(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.conns[connID]
	return userID, ok
}

// IsOnline reports whether the user has at least one live connection.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID]) > 0
}

// Connections returns the number of live connections for a user.
func (r *Registry) Connections(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID])
}

// Online lists all users with at least one live connection.
func (r *Registry) Online() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.users))
	for userID := range r.users {
		out = append(out, userID)
	}
	return out
}
