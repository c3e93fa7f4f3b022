package resolver

import (
	"fmt"
	"time"

	"github.com/kiroku-media/kiroku/cache"
	"github.com/kiroku-media/kiroku/jikan"
	"github.com/kiroku-media/kiroku/key"
	"github.com/kiroku-media/kiroku/log"
	"github.com/kiroku-media/kiroku/media"
	"github.com/kiroku-media/kiroku/omdb"
	"github.com/spf13/viper"
)

// scopeDetailPanel caches fully assembled detail panels. It is an ad-hoc
// scope served by the fallback freshness policy.
const scopeDetailPanel = "detailPanel"

// Combined is a fully assembled detail panel: the merged record plus the
// optional provider-specific enrichments.
type Combined struct {
	DetailedMedia *media.Media `json:"detailedMedia"`
	MalData       *jikan.Anime `json:"malData,omitempty"`
	ImdbData      *omdb.Title  `json:"imdbData,omitempty"`
}

// UpdateFunc receives each progressively richer snapshot of a detail panel.
type UpdateFunc func(detailed *media.Media, malData *jikan.Anime, imdbData *omdb.Title)

// FetchAndUpdateData assembles a detail panel, invoking onUpdate with up to
// three progressively enriched snapshots: the merged record, then MAL data,
// then IMDb data. A cached panel produces a single immediate callback.
// Enrichment legs are gated by configuration and degrade silently; only id
// conversion inside the detail fetch can surface an error.
func (r *Resolver) FetchAndUpdateData(mediaID int, origin Origin, mediaType media.Type, onUpdate UpdateFunc) error {
	source := origin.Source()
	kind := mediaType
	if kind == "" {
		kind = origin.MediaType()
	}

	panelKey := fmt.Sprintf("combined:%s_%d_%s", source, mediaID, typeToken(kind))
	panelOpt := cache.GetOptions{Scope: scopeDetailPanel}

	if panel, ok := cache.GetAs[Combined](r.cache, panelKey, panelOpt).Get(); ok && panel.DetailedMedia != nil {
		log.Debugf("resolver: detail panel for %s id %d served from cache", source, mediaID)
		onUpdate(panel.DetailedMedia, panel.MalData, panel.ImdbData)
		return nil
	}

	detailed, err := r.FetchDetailedData(mediaID, origin, mediaType)
	if err != nil {
		return err
	}
	if detailed == nil {
		log.Warnf("resolver: no detail record available for %s id %d", source, mediaID)
		return nil
	}
	if kind == "" {
		kind = detailed.Type
	}
	onUpdate(detailed, nil, nil)

	var malData *jikan.Anime
	if viper.GetBool(key.ResolverFetchMalData) && kind.IsAnimeOrManga() {
		malID := detailed.IDMal
		if malID == 0 {
			malID = origin.externalIDs().Mal
		}
		if malID != 0 {
			malData = r.fetchMalData(malID, kind)
			if malData != nil {
				onUpdate(detailed, malData, nil)
			}
		}
	}

	var imdbData *omdb.Title
	if viper.GetBool(key.ResolverFetchImdbData) && kind.IsMovieOrTV() {
		imdbData = r.fetchImdbData(detailed, kind)
		if imdbData != nil {
			onUpdate(detailed, malData, imdbData)
		}
	}

	r.cache.Set(panelKey, Combined{
		DetailedMedia: detailed,
		MalData:       malData,
		ImdbData:      imdbData,
	}, cache.SetOptions{
		Scope: scopeDetailPanel,
		Tags:  []string{"combined", string(source)},
	})
	return nil
}

// malAiring is the fast-moving half of a MAL record.
type malAiring struct {
	Airing    bool            `json:"airing"`
	Broadcast jikan.Broadcast `json:"broadcast"`
}

// fetchMalData serves a MAL record through the split detail cache, with the
// broadcast schedule on the short airing horizon. A stable hit whose airing
// half has expired triggers a full refetch only for airing shows.
// Fetch failures degrade to nil.
func (r *Resolver) fetchMalData(malID int, kind media.Type) *jikan.Anime {
	meta := cache.Descriptor{"mediaId": malID}
	stableKey := cache.StructuredKey(cache.ScopeMediaDetails, "details/stable", malID, meta)
	airingKey := cache.StructuredKey(cache.ScopeMediaDetails, "details/airing", malID, meta)
	opt := cache.GetOptions{Scope: cache.ScopeMediaDetails, Source: string(media.SourceMal)}

	if record, ok := cache.GetAs[*jikan.Anime](r.cache, stableKey, opt).Get(); ok && record != nil {
		if airing, ok := cache.GetAs[malAiring](r.cache, airingKey, opt).Get(); ok {
			record.Airing = airing.Airing
			record.Broadcast = airing.Broadcast
			return record
		}
		if !record.Airing {
			return record
		}
	}

	var (
		record *jikan.Anime
		err    error
	)
	if kind == media.TypeManga {
		record, err = r.jikan.Manga(malID)
	} else {
		record, err = r.jikan.Anime(malID)
	}
	if err != nil {
		log.Warnf("resolver: jikan fetch for MAL id %d failed: %v", malID, err)
		return nil
	}
	if record == nil {
		return nil
	}

	stable := *record
	stable.Broadcast = jikan.Broadcast{}
	r.cache.Set(stableKey, &stable, cache.SetOptions{
		Scope:  cache.ScopeMediaDetails,
		Source: string(media.SourceMal),
		Tags:   []string{"mal", "details", "stable"},
	})

	ttl := airingTTL
	r.cache.Set(airingKey, malAiring{Airing: record.Airing, Broadcast: record.Broadcast}, cache.SetOptions{
		Scope:  cache.ScopeMediaDetails,
		Source: string(media.SourceMal),
		TTL:    &ttl,
		Tags:   []string{"mal", "details", "airing"},
	})
	return record
}

// fetchImdbData serves the OMDb enrichment for a merged record, resolving
// an IMDb id through TMDb when the record only carries a TMDb id.
// Fetch failures degrade to nil.
func (r *Resolver) fetchImdbData(m *media.Media, kind media.Type) *omdb.Title {
	imdbID := m.IDImdb
	if imdbID == "" {
		imdbID = m.IDs.Imdb
	}
	if imdbID == "" {
		tmdbID := m.IDTmdb
		if tmdbID == 0 {
			tmdbID = m.IDs.Tmdb
		}
		imdbID = r.FetchImdbIDFromTmdb(tmdbID, kind)
	}
	if imdbID == "" {
		return nil
	}

	cacheKey := cache.StructuredKey(cache.ScopeMediaDetails, "details/omdb", imdbID, nil)
	opt := cache.GetOptions{Scope: cache.ScopeMediaDetails, Source: "imdb"}

	if title, ok := cache.GetAs[*omdb.Title](r.cache, cacheKey, opt).Get(); ok && title != nil {
		return title
	}

	title, err := r.omdb.ByImdbID(imdbID)
	if err != nil {
		log.Warnf("resolver: omdb fetch for %s failed: %v", imdbID, err)
		return nil
	}
	if title == nil {
		return nil
	}

	r.cache.Set(cacheKey, title, cache.SetOptions{
		Scope:  cache.ScopeMediaDetails,
		Source: "imdb",
		Tags:   []string{"imdb", "details", "stable"},
	})
	return title
}

// ResolveByTitle searches Anilist for a title and returns the closest match
// together with how long the search took.
func (r *Resolver) ResolveByTitle(title string, typ media.Type) (*media.Media, time.Duration, error) {
	start := time.Now()

	cacheKey := cache.StructuredKey(cache.ScopeSearchResults, "search", title, cache.Descriptor{"mediaType": typeToken(typ)})
	opt := cache.GetOptions{Scope: cache.ScopeSearchResults, Source: string(media.SourceAnilist)}

	if results, ok := cache.GetAs[[]*media.Media](r.cache, cacheKey, opt).Get(); ok {
		return FindClosestByTitle(results, title), time.Since(start), nil
	}

	results, err := r.anilist.SearchByTitle(title, typ)
	if err != nil {
		return nil, time.Since(start), err
	}

	r.cache.Set(cacheKey, results, cache.SetOptions{
		Scope:  cache.ScopeSearchResults,
		Source: string(media.SourceAnilist),
		Tags:   []string{"anilist", "search"},
	})
	return FindClosestByTitle(results, title), time.Since(start), nil
}
