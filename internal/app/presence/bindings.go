/*
Package presence contains the core logic for tracking user presence across
multiple simultaneous connections and broadcasting status transitions.

This file defines the BindingTable, which maps an opaque connection handle to
the user identity it represents so disconnects resolve in O(1).
*/
package presence

import "sync"

// BindingTable owns the connection-handle → user-ID mapping.
// Bindings are many-to-one: a user may have any number of live bindings,
// each binding points at exactly one user.
type BindingTable struct {
	// mu protects bindings.
	mu sync.Mutex

	// bindings maps a connection handle to the bound user ID.
	bindings map[string]string
}

// NewBindingTable creates an empty BindingTable.
func NewBindingTable() *BindingTable {
	return &BindingTable{
		bindings: make(map[string]string),
	}
}

// Bind associates the connection handle with the user ID, overwriting any
// prior binding for that handle.
func (bt *BindingTable) Bind(connID, userID string) {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	bt.bindings[connID] = userID
}

// Resolve returns the user ID bound to the connection handle.
func (bt *BindingTable) Resolve(connID string) (string, bool) {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	userID, ok := bt.bindings[connID]
	return userID, ok
}

// Unbind looks up and removes the binding in one step, so a duplicate
// disconnect for the same handle resolves to nothing the second time.
func (bt *BindingTable) Unbind(connID string) (string, bool) {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	userID, ok := bt.bindings[connID]
	if ok {
		delete(bt.bindings, connID)
	}
	return userID, ok
}

// Len reports the number of live bindings.
func (bt *BindingTable) Len() int {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	return len(bt.bindings)
}
