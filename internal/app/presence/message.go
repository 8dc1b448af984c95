/*
Package presence contains the core logic for tracking user presence across
multiple simultaneous connections and broadcasting status transitions.

This file defines the wire-level message envelope and the typed payload for
every inbound and outbound event the server speaks.
*/
package presence

import (
	"encoding/json"

	"presenced/internal/app/user"
)

// MessageType identifies the kind of event carried by a Message.
type MessageType string

const (
	// TypeUsers is sent to a newly connected client only and carries the full
	// presence snapshot.
	TypeUsers MessageType = "users"

	// TypeStatusUpdate is broadcast to every client when a user's aggregate
	// status transitions between online and offline.
	TypeStatusUpdate MessageType = "statusUpdate"

	// TypeUserUpdated is broadcast to every client when a user's display name
	// changes.
	TypeUserUpdated MessageType = "userUpdated"

	// TypeErrorMessage carries a human-readable error string to one client.
	TypeErrorMessage MessageType = "errorMessage"

	// TypeSetName is the inbound request to change the sender's display name.
	TypeSetName MessageType = "setName"
)

// Message is the envelope for every frame exchanged over the WebSocket.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// StatusUpdatePayload announces an online/offline transition for one user.
type StatusUpdatePayload struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// UserUpdatedPayload announces a display-name change for one user.
type UserUpdatedPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SetNamePayload is the inbound payload of a TypeSetName request.
type SetNamePayload struct {
	NewName string `json:"newName"`
}

// NewMessage builds a Message of the given type with the payload marshaled in.
func NewMessage(msgType MessageType, payload any) (Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}

	return Message{
		Type:    msgType,
		Payload: payloadBytes,
	}, nil
}

// EncodeUsers builds the serialized users-snapshot frame for one client.
func EncodeUsers(snapshot []user.Public) ([]byte, error) {
	msg, err := NewMessage(TypeUsers, snapshot)
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}

// EncodeStatusUpdate builds the serialized statusUpdate broadcast frame.
func EncodeStatusUpdate(id, status string) ([]byte, error) {
	msg, err := NewMessage(TypeStatusUpdate, StatusUpdatePayload{ID: id, Status: status})
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}

// EncodeUserUpdated builds the serialized userUpdated broadcast frame.
func EncodeUserUpdated(id, name string) ([]byte, error) {
	msg, err := NewMessage(TypeUserUpdated, UserUpdatedPayload{ID: id, Name: name})
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}

// EncodeErrorMessage builds the serialized errorMessage frame.
func EncodeErrorMessage(text string) ([]byte, error) {
	msg, err := NewMessage(TypeErrorMessage, text)
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}
