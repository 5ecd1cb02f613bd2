package deps

import (
	"time"

	"github.com/MrSnakeDoc/dashboard/internal/bookmarks"
	"github.com/MrSnakeDoc/dashboard/internal/httpserver/mw"
	"github.com/MrSnakeDoc/dashboard/internal/logger"
)

type Deps struct {
	Logger        logger.Logger
	StartTime     time.Time
	Version       string
	Commit        string
	BuildDate     string
	GoVersion     string
	TimeNow       func() time.Time   // for testing, defaults to time.Now
	AllowedHosts  []string           // Host headers allowed to access the API
	AllowedCIDRS  []string           // IPs allowed to access readyz/infra/reload endpoints
	TrustProxy    bool               // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Bookmarks     *bookmarks.Service // Bookmark store operations
	StoreName     string             // Active backend ("mongo", "redis", "memory")
	RateLimit     mw.RateLimitConfig // Per-IP limiter applied to write routes
	ImportStatus  func() ImportStatus
	ImportTrigger chan struct{} // Channel to trigger a bookmark file import (nil if disabled)
}

// ImportStatus summarizes the periodic bookmark file import for /infra.
type ImportStatus struct {
	Enabled   bool
	File      string
	LastRun   time.Time
	LastAdded int
	LastError string
}
