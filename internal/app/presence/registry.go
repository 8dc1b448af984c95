/*
Package presence contains the core logic for tracking user presence across
multiple simultaneous connections and broadcasting status transitions.

This file defines the Registry, the single source of truth for per-user
presence state. A user's Status flips only on true transitions: the 0→1
connection count change brings a user online, the 1→0 change takes it
offline. No other code path writes Status.
*/
package presence

import (
	"sync"

	"presenced/internal/app/user"
)

// Registry owns the mapping from user ID to user record.
// All operations are serialized by a single mutex, so the read that decides
// whether a transition happened and the status write it implies form one
// critical section.
type Registry struct {
	// mu protects users and order.
	mu sync.Mutex

	// users maps a user ID to its record.
	users map[string]*user.User

	// order remembers insertion order so snapshots are stable.
	order []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]*user.User),
	}
}

// Seed inserts the given identities as offline users with zero connections.
// Already-present IDs are left untouched.
func (reg *Registry) Seed(seeds []user.Seed) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for _, s := range seeds {
		if _, ok := reg.users[s.ID]; ok {
			continue
		}
		reg.users[s.ID] = &user.User{
			ID:     s.ID,
			Name:   s.Name,
			Status: user.StatusOffline,
		}
		reg.order = append(reg.order, s.ID)
	}
}

// Get returns a copy of the record for the given ID.
func (reg *Registry) Get(id string) (user.User, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	u, ok := reg.users[id]
	if !ok {
		return user.User{}, false
	}
	return *u, true
}

// GetOrCreate returns the existing record for id, or inserts a new offline
// record with the given default name. It always succeeds.
func (reg *Registry) GetOrCreate(id, defaultName string) user.User {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return *reg.getOrCreateLocked(id, defaultName)
}

func (reg *Registry) getOrCreateLocked(id, defaultName string) *user.User {
	if u, ok := reg.users[id]; ok {
		return u
	}

	u := &user.User{
		ID:     id,
		Name:   defaultName,
		Status: user.StatusOffline,
	}
	reg.users[id] = u
	reg.order = append(reg.order, id)
	return u
}

// Rename overwrites the display name for id. Unknown IDs are a no-op.
// Last writer wins; name content is not validated.
func (reg *Registry) Rename(id, newName string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	u, ok := reg.users[id]
	if !ok {
		return false
	}
	u.Name = newName
	return true
}

// SnapshotAll returns a point-in-time projection of every record in
// registry insertion order.
func (reg *Registry) SnapshotAll() []user.Public {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	snapshot := make([]user.Public, 0, len(reg.order))
	for _, id := range reg.order {
		snapshot = append(snapshot, reg.users[id].Public())
	}
	return snapshot
}

// IncrementConnections registers one more connection for the user identified
// by id, creating the record with defaultName if it does not exist yet.
// The count check, increment, and status write happen in one critical
// section, so only the 0→1 caller ever observes wasOffline true.
func (reg *Registry) IncrementConnections(id, defaultName string) (user.User, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	u := reg.getOrCreateLocked(id, defaultName)

	wasOffline := u.Connections == 0
	u.Connections++
	if wasOffline {
		u.Status = user.StatusOnline
	}

	return *u, wasOffline
}

// DecrementConnections unregisters one connection for the user identified by
// id. The count is floored at zero so duplicate disconnect delivery can never
// drive it negative. It reports whether the user became offline, i.e. whether
// an online→offline transition occurred, and whether the user exists at all.
func (reg *Registry) DecrementConnections(id string) (becameOffline bool, ok bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	u, ok := reg.users[id]
	if !ok {
		return false, false
	}

	if u.Connections > 0 {
		u.Connections--
	}

	if u.Connections == 0 && u.Status == user.StatusOnline {
		u.Status = user.StatusOffline
		return true, true
	}

	return false, true
}
