package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/dashboard/internal/domain"
	"github.com/MrSnakeDoc/dashboard/internal/logger"
	"github.com/MrSnakeDoc/dashboard/internal/sources/homepage"
)

// DefaultInterval is used when NewImporter gets a non-positive interval.
const DefaultInterval = 24 * time.Hour

// BookmarkStore is the part of the bookmark service the importer needs.
type BookmarkStore interface {
	List(ctx context.Context) ([]domain.Bookmark, error)
	Create(ctx context.Context, name, url string, tags []string) (domain.Bookmark, error)
}

// Status describes the last import run.
type Status struct {
	File      string
	LastRun   time.Time
	LastAdded int
	LastError string
}

// Importer periodically copies bookmarks from a homepage bookmarks.yaml into the store.
// Entries whose URL is already stored are skipped, so repeated runs are harmless.
// It never updates or deletes existing records.
type Importer struct {
	loader        *homepage.Loader
	mapper        *homepage.Mapper
	store         BookmarkStore
	logger        logger.Logger
	interval      time.Duration
	now           func() time.Time
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}
	wg            sync.WaitGroup

	runMu  sync.Mutex
	mu     sync.RWMutex
	status Status
}

// NewImporter creates an importer for bookmarkFile. manualTrigger may be nil.
func NewImporter(
	bookmarkFile string,
	store BookmarkStore,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *Importer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Importer{
		loader:        homepage.NewLoader(bookmarkFile),
		mapper:        homepage.NewMapper(),
		store:         store,
		logger:        log,
		interval:      interval,
		now:           time.Now,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
		status:        Status{File: bookmarkFile},
	}
}

// Start runs one import immediately, then every interval and on each manual trigger.
// A failed first run is logged and does not prevent the loop from starting.
func (im *Importer) Start(ctx context.Context) {
	if _, err := im.Import(ctx); err != nil {
		im.logger.Warn("initial bookmark import failed", logger.Error(err))
	}

	ticker := time.NewTicker(im.interval)
	im.wg.Add(1)
	go func() {
		defer im.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				im.runLogged(ctx)
			case <-im.manualTrigger:
				im.logger.Info("manual bookmark import triggered")
				im.runLogged(ctx)
			case <-im.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the loop and waits for an in-flight import to finish.
func (im *Importer) Stop() {
	im.stopOnce.Do(func() { close(im.stopCh) })
	im.wg.Wait()
}

// Status returns a snapshot of the last run.
func (im *Importer) Status() Status {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.status
}

func (im *Importer) runLogged(ctx context.Context) {
	if _, err := im.Import(ctx); err != nil {
		im.logger.Error("failed to import bookmarks", logger.Error(err))
	}
}

// Import loads the file and creates every entry whose URL is not stored yet.
// Hrefs without a scheme get https://; entries with an invalid href are skipped and reported
// in the returned error. It returns the number of bookmarks created.
func (im *Importer) Import(ctx context.Context) (int, error) {
	im.runMu.Lock()
	defer im.runMu.Unlock()

	added, err := im.importOnce(ctx)

	im.mu.Lock()
	im.status.LastRun = im.now()
	im.status.LastAdded = added
	im.status.LastError = ""
	if err != nil {
		im.status.LastError = err.Error()
	}
	im.mu.Unlock()

	return added, err
}

func (im *Importer) importOnce(ctx context.Context) (int, error) {
	im.logger.Info("importing bookmarks", logger.String("file", im.loader.Path()))

	config, err := im.loader.Load()
	if err != nil {
		return 0, fmt.Errorf("failed to load bookmarks: %w", err)
	}

	entries, err := im.mapper.MapBookmarks(config)
	if err != nil {
		return 0, fmt.Errorf("failed to map bookmarks: %w", err)
	}

	existing, err := im.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list bookmarks: %w", err)
	}

	seen := make(map[string]struct{}, len(existing)+len(entries))
	for _, b := range existing {
		seen[urlKey(b.URL)] = struct{}{}
	}

	added := 0
	var errs []error
	for _, e := range entries {
		link, ok := domain.NormalizeURL(e.URL)
		if !ok {
			errs = append(errs, fmt.Errorf("skip %q: %w", e.Name, domain.Invalid("url", fmt.Sprintf("%q is not a valid URL", e.URL))))
			continue
		}
		key := urlKey(link)
		if _, ok := seen[key]; ok {
			continue
		}
		if _, err := im.store.Create(ctx, e.Name, link, e.Tags); err != nil {
			errs = append(errs, fmt.Errorf("create %q: %w", e.Name, err))
			continue
		}
		seen[key] = struct{}{}
		added++
	}

	im.logger.Info("bookmark import done",
		logger.Int("entries", len(entries)),
		logger.Int("added", added),
		logger.Int("failed", len(errs)))

	return added, errors.Join(errs...)
}

// urlKey compares URLs ignoring case and a trailing slash.
func urlKey(u string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(u)), "/")
}
