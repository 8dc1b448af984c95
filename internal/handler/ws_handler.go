/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for
upgrading the HTTP connection to WebSocket, validating the identity claim
carried in the query string, and driving the client lifecycle. Rate limiting
happens upstream, in the limiter middleware mounted on the route.
*/
package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"presenced/internal/app/presence"
	"presenced/internal/pkg/errs"
	"presenced/internal/pkg/logx"
)

// rejectWriteWait bounds the write of the rejection frame sent to a
// connection that supplied no identity claim.
const rejectWriteWait = 5 * time.Second

// HandleWebSocket creates an HTTP HandlerFunc processing WebSocket connection requests.
//
// The identity claim travels out-of-band in the query string: userId
// (required) and name (optional). A missing userId is a protocol violation by
// the caller: the connection is upgraded, sent a single errorMessage frame,
// and force-closed without touching any shared state.
func HandleWebSocket(upgrader websocket.Upgrader, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		userID := query.Get("userId")
		name := query.Get("name")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		if userID == "" {
			rejectConnection(conn)
			return
		}

		client := presence.NewClient(deps.Hub, conn, userID)

		go client.WritePump()

		logx.Info("WebSocket connection established", "conn_id", client.ID, "user_id", userID)

		deps.Hub.HandleConnect(client, name)

		client.ReadPump()
	}
}

// rejectConnection sends an errorMessage frame explaining the missing
// identity claim to the offending connection only, then closes it.
func rejectConnection(conn *websocket.Conn) {
	logx.Warn("WebSocket connection rejected: Missing userId identity claim.")

	rejectErr := errs.NewError(errs.ErrMissingUserID)

	frame, err := presence.EncodeErrorMessage(rejectErr.Message)
	if err != nil {
		logx.Error(err, "Failed to encode errorMessage frame")
	} else {
		conn.SetWriteDeadline(time.Now().Add(rejectWriteWait))
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			logx.Warn("Failed to write rejection frame", "error", err.Error())
		}
	}

	if err := conn.Close(); err != nil {
		logx.Warn("Failed to close rejected connection", "error", err.Error())
	}
}
