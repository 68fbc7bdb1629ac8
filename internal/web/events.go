package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/nrivas2017/gcp-datalake-pipeline/internal/logging"
)

// objectEvent is the storage notification payload: the object-finalize
// event for a bucket object, as delivered by Eventarc / Pub/Sub push
// after envelope unwrapping, or posted directly for manual replays.
type objectEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// eventResult is the response body for a processed notification.
type eventResult struct {
	Bucket   string `json:"bucket"`
	Name     string `json:"name"`
	Rows     int    `json:"rows"`
	Imported int    `json:"imported"`
	Rejected int    `json:"rejected"`
}

// handleEvent processes one object-finalize notification synchronously
// and reports the import summary. Unrecognized or out-of-prefix objects
// come back with a zero summary and 200, so the notifier does not retry
// files that will never be ingestable.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var ev objectEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, logger, http.StatusBadRequest, "invalid event payload")
		return
	}
	if ev.Bucket == "" || ev.Name == "" {
		writeError(w, logger, http.StatusBadRequest, "event requires bucket and name")
		return
	}

	sum, err := s.handler.HandleObject(r.Context(), ev.Bucket, ev.Name)
	if err != nil {
		// The dispatcher already logged the failure with run context;
		// a 500 makes the notifier redeliver.
		writeError(w, logger, http.StatusInternalServerError, "import failed")
		return
	}

	writeJSON(w, http.StatusOK, eventResult{
		Bucket:   ev.Bucket,
		Name:     ev.Name,
		Rows:     sum.Rows,
		Imported: sum.Imported,
		Rejected: sum.Rejected,
	})
}

// writeError writes a JSON error response and logs it.
func writeError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	logger.Warn("request failed", "status", status, "error", message)
	writeJSON(w, status, map[string]string{"error": message})
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
