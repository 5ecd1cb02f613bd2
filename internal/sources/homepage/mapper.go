package homepage

import (
	"errors"
	"sort"
	"strings"
)

// ErrNoBookmarks is returned when a config holds no usable entry.
var ErrNoBookmarks = errors.New("no valid bookmarks found in config")

// Mapper converts a homepage bookmarks config into store entries.
type Mapper struct{}

// NewMapper creates a new bookmark mapper
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapBookmarks flattens config in file order. The bookmark key is the name (abbr when the key
// is blank), href is the url and the lower-cased category becomes the only tag.
// Entries without href are skipped.
func (m *Mapper) MapBookmarks(config BookmarksConfig) ([]Entry, error) {
	entries := make([]Entry, 0)

	for _, category := range config {
		for _, categoryName := range sortedKeys(category) {
			tag := strings.ToLower(strings.TrimSpace(categoryName))

			for _, bookmarkMap := range category[categoryName] {
				for _, bookmarkName := range sortedKeys(bookmarkMap) {
					list := bookmarkMap[bookmarkName]
					if len(list) == 0 {
						continue
					}
					entry := list[0]

					href := strings.TrimSpace(entry.Href)
					if href == "" {
						continue
					}

					name := strings.TrimSpace(bookmarkName)
					if name == "" {
						name = strings.TrimSpace(entry.Abbr)
					}
					if name == "" {
						continue
					}

					tags := []string{}
					if tag != "" {
						tags = append(tags, tag)
					}
					entries = append(entries, Entry{Name: name, URL: href, Tags: tags})
				}
			}
		}
	}

	if len(entries) == 0 {
		return nil, ErrNoBookmarks
	}

	return entries, nil
}

// sortedKeys gives map iteration a stable order; homepage maps normally hold a single key.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
