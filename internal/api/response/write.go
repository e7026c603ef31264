package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes data with the given status. Snapshots hide the opponent's
// choice per viewer, so responses are never cached.
func JSON(w http.ResponseWriter, status int, data any) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}
