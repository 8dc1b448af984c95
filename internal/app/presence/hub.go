/*
Package presence contains the core logic for tracking user presence across
multiple simultaneous connections and broadcasting status transitions.

This file defines the Hub, the coordinator that mutates the Registry and
BindingTable on connection lifecycle events, decides whether a true status
transition occurred, and fans event frames out to connected clients.
*/
package presence

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"presenced/internal/app/user"
	"presenced/internal/pkg/logx"
)

// Hub coordinates presence state for all connections.
//
// The Registry and BindingTable serialize their own mutations; the Hub's
// mutex only guards the clients map used for fan-out. The central behavioral
// contract: a statusUpdate broadcast fires only on the 0→1 and 1→0 connection
// count transitions, never on any other count change.
type Hub struct {
	// registry is the single source of truth for per-user presence state.
	registry *Registry

	// bindings resolves a connection handle to the user it represents.
	bindings *BindingTable

	// clients holds every live connection, keyed by connection handle.
	clients map[string]*Client

	// mu protects the clients map.
	mu sync.RWMutex

	// structured logger with Hub context.
	logger zerolog.Logger
}

// NewHub constructs a Hub around the given registry.
func NewHub(registry *Registry) *Hub {
	hubLogger := logx.Logger().With().Str("component", "Hub").Logger()

	return &Hub{
		registry: registry,
		bindings: NewBindingTable(),
		clients:  make(map[string]*Client),
		logger:   hubLogger,
	}
}

// Registry exposes the hub's registry for read projections.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// HandleConnect processes a new connection that already carries a non-empty
// claimed user ID. It resolves or creates the user record, applies a supplied
// display name over a differing stored one (last writer wins), counts the
// connection, binds the handle, sends the full presence snapshot to the new
// connection only, and broadcasts a statusUpdate if the user just came online.
func (h *Hub) HandleConnect(client *Client, claimedName string) {
	defaultName := fmt.Sprintf("User %s", client.UserID)

	record := h.registry.GetOrCreate(client.UserID, orDefault(claimedName, defaultName))

	if claimedName != "" && record.Name != claimedName {
		h.registry.Rename(client.UserID, claimedName)
	}

	record, wasOffline := h.registry.IncrementConnections(client.UserID, defaultName)
	h.bindings.Bind(client.ID, client.UserID)

	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	h.logger.Info().
		Str("conn_id", client.ID).
		Str("user_id", client.UserID).
		Int("connections", record.Connections).
		Msg("Connection registered.")

	// The snapshot is taken after the increment, so the new observer already
	// sees itself online.
	snapshotFrame, err := EncodeUsers(h.registry.SnapshotAll())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode users snapshot.")
	} else {
		client.queue(snapshotFrame)
	}

	if wasOffline {
		h.broadcastStatus(client.UserID, user.StatusOnline)
	}
}

// HandleSetName processes an inbound setName request from the given
// connection. An unbound handle is a stale reference and is silently ignored.
// The userUpdated broadcast fires unconditionally, even for an unchanged name.
func (h *Hub) HandleSetName(client *Client, newName string) {
	userID, ok := h.bindings.Resolve(client.ID)
	if !ok {
		h.logger.Debug().Str("conn_id", client.ID).Msg("setName from unbound connection ignored.")
		return
	}

	record, ok := h.registry.Get(userID)
	if !ok {
		return
	}

	// An empty name keeps the stored one, mirroring the rename semantics of
	// the rest of the system: last writer wins, content not validated.
	name := orDefault(newName, record.Name)
	h.registry.Rename(userID, name)

	h.logger.Info().
		Str("user_id", userID).
		Str("name", name).
		Msg("User renamed.")

	frame, err := EncodeUserUpdated(userID, name)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode userUpdated frame.")
		return
	}
	h.Broadcast(frame)
}

// HandleDisconnect processes the end of a connection. The atomic unbind makes
// duplicate delivery for the same handle a no-op, and the decrement floor
// keeps the count non-negative regardless of ordering. A statusUpdate
// broadcast fires only when the user's last connection just closed.
func (h *Hub) HandleDisconnect(client *Client) {
	h.mu.Lock()
	if _, exists := h.clients[client.ID]; exists {
		delete(h.clients, client.ID)
		client.closeSend()
	}
	h.mu.Unlock()

	userID, ok := h.bindings.Unbind(client.ID)
	if !ok {
		return
	}

	becameOffline, ok := h.registry.DecrementConnections(userID)
	if !ok {
		h.logger.Warn().Str("user_id", userID).Msg("Disconnect for unknown user record ignored.")
		return
	}

	h.logger.Info().
		Str("conn_id", client.ID).
		Str("user_id", userID).
		Bool("became_offline", becameOffline).
		Msg("Connection unregistered.")

	if becameOffline {
		h.broadcastStatus(userID, user.StatusOffline)
	}
}

// Broadcast fans one frame out to every connected client, best effort.
func (h *Hub) Broadcast(messageBytes []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		client.queue(messageBytes)
	}
}

// broadcastStatus encodes and broadcasts a statusUpdate for one user.
func (h *Hub) broadcastStatus(userID, status string) {
	frame, err := EncodeStatusUpdate(userID, status)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode statusUpdate frame.")
		return
	}
	h.Broadcast(frame)
}

// ClientCount reports the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// Shutdown closes every client's send channel so their write pumps emit a
// close frame and exit. Called once during graceful server shutdown.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down Hub...")

	h.mu.Lock()
	for _, client := range h.clients {
		client.closeSend()
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	h.logger.Info().Msg("Hub shutdown complete.")
}

// orDefault returns s, or fallback when s is empty.
func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
