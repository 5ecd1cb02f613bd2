package view

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/MrSnakeDoc/dashboard/internal/domain"
)

// AllTags disables the tag filter.
const AllTags = "all"

// TagOptions is the predefined tag palette offered by the bookmark form.
var TagOptions = []string{"games", "pirated", "movies", "intresting", "design", "inspirations", "idea"}

// Filter returns the bookmarks matching search and tag, ordered by name.
// search matches case-insensitively against name, url and tags; an empty search matches everything.
// tag must be contained in the bookmark's tags unless it is AllTags or empty.
// The input slice is not modified.
func Filter(bookmarks []domain.Bookmark, search, tag string) []domain.Bookmark {
	term := strings.ToLower(strings.TrimSpace(search))

	out := make([]domain.Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		if matchesTerm(b, term) && matchesTag(b, tag) {
			out = append(out, b)
		}
	}

	sortForDisplay(out)
	return out
}

func matchesTerm(b domain.Bookmark, term string) bool {
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(b.Name), term) || strings.Contains(strings.ToLower(b.URL), term) {
		return true
	}
	for _, t := range b.Tags {
		if strings.Contains(strings.ToLower(t), term) {
			return true
		}
	}
	return false
}

func matchesTag(b domain.Bookmark, tag string) bool {
	if tag == "" || tag == AllTags {
		return true
	}
	return b.HasTag(tag)
}

// sortForDisplay orders by name using locale collation, then by id so the order is total.
func sortForDisplay(bookmarks []domain.Bookmark) {
	c := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(bookmarks, func(i, j int) bool {
		if cmp := c.CompareString(bookmarks[i].Name, bookmarks[j].Name); cmp != 0 {
			return cmp < 0
		}
		if bookmarks[i].Name != bookmarks[j].Name {
			return bookmarks[i].Name < bookmarks[j].Name
		}
		return bookmarks[i].ID < bookmarks[j].ID
	})
}
