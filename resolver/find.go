package resolver

import (
	"strings"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/kiroku-media/kiroku/media"
	"github.com/samber/lo"
)

// normalizedName returns a lowercased, trimmed string for consistent comparison.
func normalizedName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// FindClosestByTitle returns the candidate whose title is closest to the
// given name, comparing every known title form. Returns nil for an empty
// candidate list.
func FindClosestByTitle(candidates []*media.Media, name string) *media.Media {
	if len(candidates) == 0 {
		return nil
	}
	name = normalizedName(name)

	// Apply Levenshtein distance to identify the most relevant match from search results.
	return lo.MinBy(candidates, func(a, b *media.Media) bool {
		return titleDistance(name, a) < titleDistance(name, b)
	})
}

// titleDistance is the smallest edit distance between the name and any of
// the media's title forms or synonyms.
func titleDistance(name string, m *media.Media) int {
	best := levenshtein.Distance(name, normalizedName(m.Name()))
	for _, form := range append([]string{m.Title.Romaji, m.Title.English, m.Title.Native}, m.Synonyms...) {
		if form == "" {
			continue
		}
		if d := levenshtein.Distance(name, normalizedName(form)); d < best {
			best = d
		}
	}
	return best
}
