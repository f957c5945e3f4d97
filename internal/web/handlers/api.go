// Package handlers implements the read-only review endpoints over a
// completed correlation run: its matches, its unmatched residuals, and
// summary statistics. There's no write path here — accepting or
// rejecting a match is out of scope, unlike the teacher's
// RecordsHandler, because internal/correlate has no notion of a
// pending decision to revise.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ehdc-llpg/correlate/internal/store"
)

// Config holds handler settings; it currently has no fields. Kept as its
// own type, separate from web.Config, to avoid an import cycle between
// the web and handlers packages.
type Config struct{}

// RunsHandler serves /api/runs/{id}/... endpoints over a *store.Store.
type RunsHandler struct {
	Store  *store.Store
	Config *Config
}

func runIDFromRequest(r *http.Request) (int64, error) {
	idStr := mux.Vars(r)["id"]
	return strconv.ParseInt(idStr, 10, 64)
}

// GetRunStats returns the match/unmatched counts and score distribution
// for one run.
func (h *RunsHandler) GetRunStats(w http.ResponseWriter, r *http.Request) {
	runID, err := runIDFromRequest(r)
	if err != nil {
		http.Error(w, "invalid run id", http.StatusBadRequest)
		return
	}

	stats, err := h.Store.RunStats(false, runID)
	if err != nil {
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// MatchResponse is one persisted match, with ValueA/ValueB left as raw
// JSON since the store doesn't know their concrete type.
type MatchResponse struct {
	ValueA json.RawMessage `json:"value_a"`
	ValueB json.RawMessage `json:"value_b"`
	Score  float64         `json:"score"`
}

// GetRunMatches lists the matches persisted for a run.
func (h *RunsHandler) GetRunMatches(w http.ResponseWriter, r *http.Request) {
	runID, err := runIDFromRequest(r)
	if err != nil {
		http.Error(w, "invalid run id", http.StatusBadRequest)
		return
	}

	matches, err := h.Store.ListMatches(false, runID)
	if err != nil {
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}

	resp := make([]MatchResponse, len(matches))
	for i, m := range matches {
		resp[i] = MatchResponse{ValueA: m.ValueA, ValueB: m.ValueB, Score: m.Score}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// UnmatchedResponse is one residual value left over from a run.
type UnmatchedResponse struct {
	Side  string          `json:"side"`
	Value json.RawMessage `json:"value"`
}

// GetRunUnmatched lists the unmatched residuals persisted for a run,
// optionally filtered to one side via ?side=a or ?side=b.
func (h *RunsHandler) GetRunUnmatched(w http.ResponseWriter, r *http.Request) {
	runID, err := runIDFromRequest(r)
	if err != nil {
		http.Error(w, "invalid run id", http.StatusBadRequest)
		return
	}

	side := r.URL.Query().Get("side")

	unmatched, err := h.Store.ListUnmatched(false, runID, side)
	if err != nil {
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}

	resp := make([]UnmatchedResponse, len(unmatched))
	for i, u := range unmatched {
		resp[i] = UnmatchedResponse{Side: u.Side, Value: u.Value}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
