package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/dashboard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dashboard/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/dashboard/internal/httpserver/mw"
)

func init() { Register(registerBookmarks) }

// The collection is served under /api/bookmarks and /bookmarks.
func registerBookmarks(r chi.Router, d deps.Deps) {
	api := r.With(mw.EnforceHost(d.AllowedHosts, d.Logger))
	writes := api.With(mw.RateLimit(d.RateLimit))

	mount := func(path string) {
		api.Get(path, handlers.ListBookmarks(d))
		writes.Post(path, handlers.CreateBookmark(d))
		writes.Patch(path, handlers.UpdateBookmark(d))
		writes.Delete(path, handlers.DeleteBookmark(d))
	}
	mount("/api/bookmarks")
	mount("/bookmarks")
}
