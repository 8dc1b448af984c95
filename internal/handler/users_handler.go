/*
Package handler provides the HTTP handler for the read-only presence listing.
*/
package handler

import (
	"net/http"

	"presenced/internal/pkg/resp"
)

// HandleListUsers returns an HTTP HandlerFunc serving the current presence
// snapshot: every known user's id, name, and status, in registry insertion
// order. Connection counts are never exposed.
func HandleListUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := deps.Hub.Registry().SnapshotAll()
		resp.RespondJSON(w, r, http.StatusOK, snapshot)
	}
}
