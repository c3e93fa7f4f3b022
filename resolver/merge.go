package resolver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kiroku-media/kiroku/media"
	"github.com/kiroku-media/kiroku/simkl"
)

// simklStatus maps Simkl release statuses onto the unified vocabulary.
var simklStatus = map[string]string{
	"ended":     "FINISHED",
	"released":  "FINISHED",
	"airing":    "RELEASING",
	"ongoing":   "RELEASING",
	"upcoming":  "NOT_YET_RELEASED",
	"planned":   "NOT_YET_RELEASED",
	"cancelled": "CANCELLED",
	"tbd":       "NOT_YET_RELEASED",
}

// withSimklDetails overlays a Simkl record onto the base media. Fields the
// base already carries are only replaced when Simkl has something better.
func withSimklDetails(base *media.Media, details *simkl.Details) *media.Media {
	m := *base

	if details.Title != "" {
		m.Title.English = details.Title
		if m.Title.Romaji == "" {
			m.Title.Romaji = details.Title
		}
	}
	if details.Overview != "" {
		m.Description = details.Overview
	}
	if status, ok := simklStatus[strings.ToLower(details.Status)]; ok {
		m.Status = status
	} else if details.Status != "" {
		m.Status = strings.ToUpper(details.Status)
	}
	if details.TotalEpisodes != 0 {
		m.Episodes = details.TotalEpisodes
	}
	if len(details.Genres) != 0 {
		m.Genres = details.Genres
	}
	if details.Year != 0 {
		m.StartDate.Year = details.Year
	}
	if details.Ratings.Simkl.Rating != 0 {
		m.AverageScore = int(details.Ratings.Simkl.Rating * 10)
	}
	if details.Poster != "" && m.CoverImage.Large == "" {
		m.CoverImage.Large = fmt.Sprintf("https://simkl.in/posters/%s_m.jpg", details.Poster)
	}

	if details.IDs.Simkl != 0 {
		m.IDs.Simkl = details.IDs.Simkl
	}
	if details.IDs.Imdb != "" {
		m.IDImdb = details.IDs.Imdb
		m.IDs.Imdb = details.IDs.Imdb
	}
	if details.IDs.Tmdb != "" {
		if tmdbID, err := strconv.Atoi(details.IDs.Tmdb); err == nil {
			m.IDTmdb = tmdbID
			m.IDs.Tmdb = tmdbID
		}
	}
	return &m
}

// withPreservedIDs backfills identifiers known from the origin that the
// merged record lacks. Merged data wins; origin ids only fill gaps.
func withPreservedIDs(m *media.Media, ids media.ExternalIDs) *media.Media {
	if m.IDTmdb == 0 {
		m.IDTmdb = ids.Tmdb
	}
	if m.IDs.Tmdb == 0 {
		m.IDs.Tmdb = ids.Tmdb
	}
	if m.IDImdb == "" {
		m.IDImdb = ids.Imdb
	}
	if m.IDs.Imdb == "" {
		m.IDs.Imdb = ids.Imdb
	}
	if m.IDMal == 0 {
		m.IDMal = ids.Mal
	}
	if m.IDs.Mal == 0 {
		m.IDs.Mal = ids.Mal
	}
	if m.IDs.Simkl == 0 {
		m.IDs.Simkl = ids.Simkl
	}
	return m
}

// withNullAiring clears the airing stream. Movie and TV records resolved
// through Simkl have no per-episode broadcast schedule to report.
func withNullAiring(m *media.Media) *media.Media {
	m.NextAiringEpisode = nil
	return m
}
