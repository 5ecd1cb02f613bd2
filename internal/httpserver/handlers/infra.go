package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/dashboard/internal/httpserver/deps"
)

type storeStatus struct {
	Name      string `json:"name"`
	OK        bool   `json:"ok"`
	Bookmarks *int   `json:"bookmarks,omitempty"`
	Error     string `json:"error,omitempty"`
}

type importStatus struct {
	Enabled   bool   `json:"enabled"`
	File      string `json:"file,omitempty"`
	LastRun   string `json:"last_run,omitempty"`
	LastAdded int    `json:"last_added"`
	Error     string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode   string       `json:"mode"`
	Store  storeStatus  `json:"store"`
	Import importStatus `json:"import"`
}

// Infra summarizes store reachability and the file import state for operators.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		store := checkStore(ctx, d)
		imp := checkImport(d)

		writeJSON(w, d.Logger, http.StatusOK, infraResponse{
			Mode:   determineMode(store, imp),
			Store:  store,
			Import: imp,
		})
	}
}

func checkStore(ctx context.Context, d deps.Deps) storeStatus {
	st := storeStatus{Name: d.StoreName}
	list, err := d.Bookmarks.List(ctx)
	if err != nil {
		st.Error = "unreachable"
		return st
	}
	n := len(list)
	st.OK = true
	st.Bookmarks = &n
	return st
}

func checkImport(d deps.Deps) importStatus {
	if d.ImportStatus == nil {
		return importStatus{}
	}
	s := d.ImportStatus()
	out := importStatus{
		Enabled:   s.Enabled,
		File:      s.File,
		LastAdded: s.LastAdded,
		Error:     s.LastError,
	}
	if !s.LastRun.IsZero() {
		out.LastRun = s.LastRun.UTC().Format(time.RFC3339)
	}
	return out
}

func determineMode(store storeStatus, imp importStatus) string {
	if !store.OK {
		return "critical"
	}
	if imp.Enabled && imp.Error != "" {
		return "degraded"
	}
	return "operational"
}
