package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/dashboard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dashboard/internal/logger"
)

type reloadResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// Reload asks the bookmark file importer to run now.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.ImportTrigger == nil {
			writeError(w, d.Logger, http.StatusServiceUnavailable, "Bookmark import is disabled")
			return
		}

		select {
		case d.ImportTrigger <- struct{}{}:
			d.Logger.Info("manual bookmark import triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, d.Logger, http.StatusAccepted, reloadResponse{
				Triggered: true,
				Message:   "Import triggered",
			})
		default:
			d.Logger.Warn("bookmark import already pending",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, d.Logger, http.StatusTooManyRequests, reloadResponse{
				Triggered: false,
				Message:   "Import already in progress, please wait",
			})
		}
	}
}
