package presence

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presenced/internal/app/user"
)

// newTestHub returns a hub over a registry pre-seeded with users "1" and "2".
func newTestHub() *Hub {
	reg := NewRegistry()
	reg.Seed([]user.Seed{
		{ID: "1", Name: "John Doe"},
		{ID: "2", Name: "Jane Smith"},
	})
	return NewHub(reg)
}

// connect creates a client without a real WebSocket connection and runs the
// connect handler for it. Hub handlers never touch the conn directly, so a
// nil conn is fine as long as the pumps are not started.
func connect(hub *Hub, userID, claimedName string) *Client {
	client := NewClient(hub, nil, userID)
	hub.HandleConnect(client, claimedName)
	return client
}

// recvFrame pops and decodes the next queued frame for the client.
// All hub handlers run synchronously, so queued frames are already present.
func recvFrame(t *testing.T, c *Client) Message {
	t.Helper()

	select {
	case raw, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	default:
		t.Fatal("expected a queued frame")
		return Message{}
	}
}

// requireNoFrames asserts that nothing is queued for the client.
func requireNoFrames(t *testing.T, c *Client) {
	t.Helper()

	select {
	case raw, ok := <-c.send:
		if ok {
			t.Fatalf("unexpected frame queued: %s", raw)
		}
	default:
	}
}

func decodePayload[T any](t *testing.T, msg Message) T {
	t.Helper()

	var payload T
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	return payload
}

func TestHub_ConnectSendsSnapshotThenBroadcastsOnline(t *testing.T) {
	hub := newTestHub()

	clientA := connect(hub, "1", "")

	// First frame: the full snapshot, unicast, already reflecting the
	// post-increment state.
	snapshotMsg := recvFrame(t, clientA)
	assert.Equal(t, TypeUsers, snapshotMsg.Type)

	snapshot := decodePayload[[]user.Public](t, snapshotMsg)
	require.Len(t, snapshot, 2)
	assert.Equal(t, user.Public{ID: "1", Name: "John Doe", Status: user.StatusOnline}, snapshot[0])
	assert.Equal(t, user.Public{ID: "2", Name: "Jane Smith", Status: user.StatusOffline}, snapshot[1])

	// Second frame: the offline→online transition broadcast, which the new
	// connection observes as well.
	statusMsg := recvFrame(t, clientA)
	assert.Equal(t, TypeStatusUpdate, statusMsg.Type)

	status := decodePayload[StatusUpdatePayload](t, statusMsg)
	assert.Equal(t, StatusUpdatePayload{ID: "1", Status: user.StatusOnline}, status)

	requireNoFrames(t, clientA)
}

func TestHub_SecondConnectionSameUserNoBroadcast(t *testing.T) {
	hub := newTestHub()

	clientA := connect(hub, "1", "")
	recvFrame(t, clientA) // snapshot
	recvFrame(t, clientA) // online statusUpdate

	clientB := connect(hub, "1", "")

	// B gets the snapshot; no transition happened, so nobody gets a
	// statusUpdate.
	snapshotMsg := recvFrame(t, clientB)
	assert.Equal(t, TypeUsers, snapshotMsg.Type)
	requireNoFrames(t, clientB)
	requireNoFrames(t, clientA)

	u, ok := hub.Registry().Get("1")
	require.True(t, ok)
	assert.Equal(t, 2, u.Connections)
	assert.Equal(t, user.StatusOnline, u.Status)
}

func TestHub_DisconnectBroadcastsOnlyOnLastConnection(t *testing.T) {
	hub := newTestHub()

	clientA := connect(hub, "1", "")
	clientB := connect(hub, "1", "")
	observer := connect(hub, "2", "")

	// Drain all setup frames.
	for _, c := range []*Client{clientA, clientB} {
		for len(c.send) > 0 {
			<-c.send
		}
	}
	for len(observer.send) > 0 {
		<-observer.send
	}

	// First disconnect: count 2→1, still online, no broadcast.
	hub.HandleDisconnect(clientA)
	requireNoFrames(t, observer)

	u, _ := hub.Registry().Get("1")
	assert.Equal(t, 1, u.Connections)
	assert.Equal(t, user.StatusOnline, u.Status)

	// Last disconnect: count 1→0, transition, exactly one broadcast.
	hub.HandleDisconnect(clientB)

	statusMsg := recvFrame(t, observer)
	assert.Equal(t, TypeStatusUpdate, statusMsg.Type)
	status := decodePayload[StatusUpdatePayload](t, statusMsg)
	assert.Equal(t, StatusUpdatePayload{ID: "1", Status: user.StatusOffline}, status)
	requireNoFrames(t, observer)

	u, _ = hub.Registry().Get("1")
	assert.Equal(t, 0, u.Connections)
	assert.Equal(t, user.StatusOffline, u.Status)
}

func TestHub_DuplicateDisconnectIsNoOp(t *testing.T) {
	hub := newTestHub()

	clientA := connect(hub, "1", "")
	clientB := connect(hub, "1", "")
	for len(clientB.send) > 0 {
		<-clientB.send
	}

	hub.HandleDisconnect(clientA)
	// Duplicate delivery for the same handle: the binding is already gone,
	// so state mutates only once.
	hub.HandleDisconnect(clientA)

	u, ok := hub.Registry().Get("1")
	require.True(t, ok)
	assert.Equal(t, 1, u.Connections)
	assert.Equal(t, user.StatusOnline, u.Status)

	// B's connection is untouched by A's duplicate disconnect.
	assert.Equal(t, 1, hub.ClientCount())
	requireNoFrames(t, clientB)
}

func TestHub_SetNameBroadcastsToAll(t *testing.T) {
	hub := newTestHub()

	clientA := connect(hub, "1", "")
	observer := connect(hub, "2", "")

	for len(clientA.send) > 0 {
		<-clientA.send
	}
	for len(observer.send) > 0 {
		<-observer.send
	}

	hub.HandleSetName(clientA, "Johnny")

	for _, c := range []*Client{clientA, observer} {
		msg := recvFrame(t, c)
		assert.Equal(t, TypeUserUpdated, msg.Type)
		payload := decodePayload[UserUpdatedPayload](t, msg)
		assert.Equal(t, UserUpdatedPayload{ID: "1", Name: "Johnny"}, payload)
	}

	u, _ := hub.Registry().Get("1")
	assert.Equal(t, "Johnny", u.Name)
}

func TestHub_SetNameFromUnboundConnectionIgnored(t *testing.T) {
	hub := newTestHub()

	observer := connect(hub, "2", "")
	for len(observer.send) > 0 {
		<-observer.send
	}

	// A client that never went through HandleConnect has no binding.
	stale := NewClient(hub, nil, "1")
	hub.HandleSetName(stale, "Ghost")

	requireNoFrames(t, observer)

	u, _ := hub.Registry().Get("1")
	assert.Equal(t, "John Doe", u.Name)
}

func TestHub_SetNameEmptyKeepsStoredName(t *testing.T) {
	hub := newTestHub()

	clientA := connect(hub, "1", "")
	for len(clientA.send) > 0 {
		<-clientA.send
	}

	hub.HandleSetName(clientA, "")

	// Broadcast still fires (no de-duplication), carrying the stored name.
	msg := recvFrame(t, clientA)
	payload := decodePayload[UserUpdatedPayload](t, msg)
	assert.Equal(t, UserUpdatedPayload{ID: "1", Name: "John Doe"}, payload)
}

func TestHub_ConnectUnseededUserCreatesRecord(t *testing.T) {
	hub := newTestHub()

	observer := connect(hub, "2", "")
	for len(observer.send) > 0 {
		<-observer.send
	}

	connect(hub, "42", "Zed")

	statusMsg := recvFrame(t, observer)
	assert.Equal(t, TypeStatusUpdate, statusMsg.Type)
	status := decodePayload[StatusUpdatePayload](t, statusMsg)
	assert.Equal(t, StatusUpdatePayload{ID: "42", Status: user.StatusOnline}, status)

	snapshot := hub.Registry().SnapshotAll()
	require.Len(t, snapshot, 3)
	assert.Equal(t, user.Public{ID: "42", Name: "Zed", Status: user.StatusOnline}, snapshot[2])
}

func TestHub_ConnectWithoutNameGetsDefault(t *testing.T) {
	hub := newTestHub()

	connect(hub, "42", "")

	u, ok := hub.Registry().Get("42")
	require.True(t, ok)
	assert.Equal(t, "User 42", u.Name)
}

func TestHub_ConnectClaimedNameOverwritesStored(t *testing.T) {
	hub := newTestHub()

	clientA := connect(hub, "1", "Johnny")

	snapshotMsg := recvFrame(t, clientA)
	snapshot := decodePayload[[]user.Public](t, snapshotMsg)
	assert.Equal(t, "Johnny", snapshot[0].Name)

	u, _ := hub.Registry().Get("1")
	assert.Equal(t, "Johnny", u.Name)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub := newTestHub()

	clientA := connect(hub, "1", "")
	hub.Shutdown()

	assert.Equal(t, 0, hub.ClientCount())

	// Drain whatever was queued; the channel must end up closed.
	for {
		_, ok := <-clientA.send
		if !ok {
			break
		}
	}
}
