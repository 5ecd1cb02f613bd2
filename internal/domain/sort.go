package domain

import (
	"sort"
	"strings"
)

// SortByName orders bookmarks by Name ascending (byte order), then by ID,
// so the result is total for any input order.
func SortByName(bookmarks []Bookmark) {
	sort.SliceStable(bookmarks, func(i, j int) bool {
		if c := strings.Compare(bookmarks[i].Name, bookmarks[j].Name); c != 0 {
			return c < 0
		}
		return bookmarks[i].ID < bookmarks[j].ID
	})
}
