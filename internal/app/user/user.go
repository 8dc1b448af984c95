/*
Package user contains the core data structures for user identity and presence.

It defines the User record tracked by the presence registry, the public
projection served to clients, and the aggregate status values.
*/
package user

// Status values for the aggregate presence of a user across all of its
// simultaneous connections.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// User is the registry record for a single logical user.
//
// Status is stored rather than computed for cheap reads, but it must always
// equal "online" exactly when Connections > 0. Only the registry's
// increment/decrement operations are allowed to write it.
type User struct {
	// ID is the opaque unique identifier for the user, immutable once assigned.
	ID string `json:"id"`

	// Name is the display name, mutable via rename events.
	Name string `json:"name"`

	// Status is the aggregate presence state, "online" or "offline".
	Status string `json:"status"`

	// Connections is the number of currently-open connections bound to this
	// identity. Never serialized to clients.
	Connections int `json:"-"`
}

// Public is the client-facing projection of a User, used in snapshots and
// the HTTP listing. It deliberately excludes the connection count.
type Public struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Public returns the client-facing projection of the user.
func (u *User) Public() Public {
	return Public{
		ID:     u.ID,
		Name:   u.Name,
		Status: u.Status,
	}
}

// Seed describes a pre-provisioned identity applied to the registry at
// process start, always beginning offline with zero connections.
type Seed struct {
	ID   string
	Name string
}
