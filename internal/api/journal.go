package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/obs-osc-bridge/internal/journal"
)

// handleListJournal returns paginated journal entries with optional filters.
//
// Query parameters:
//   - kind: command or cue
//   - outcome: ok, error, dropped, unrecognized, invalid, sent, failed
//   - token: cue token (e.g. Q12)
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "journal not configured")
		return
	}

	q := r.URL.Query()
	filter := journal.Filter{
		Kind:    q.Get("kind"),
		Outcome: q.Get("outcome"),
		Token:   q.Get("token"),
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "limit must be an integer")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "offset must be an integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.journal.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list journal", "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to list journal")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
