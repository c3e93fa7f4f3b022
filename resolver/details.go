package resolver

import (
	"fmt"
	"time"

	"github.com/kiroku-media/kiroku/cache"
	"github.com/kiroku-media/kiroku/log"
	"github.com/kiroku-media/kiroku/media"
	"github.com/kiroku-media/kiroku/simkl"
)

// The airing stream goes stale much faster than descriptions or genres, so
// it is cached apart from the stable half of a record on a short horizon.
const airingTTL = 15 * time.Minute

// FetchDetailedData resolves the full detail record for a media id, picking
// a fetch plan from the origin and media type:
//
//  1. TMDb-identified movies and shows resolve through Simkl.
//  2. MAL-originated anime and manga convert to Anilist first.
//  3. Simkl anime with a known MAL id convert to Anilist as well.
//  4. Simkl movies and shows fetch natively from Simkl.
//  5. Everything else fetches from Anilist directly.
//
// Fetch failures degrade to a nil record; only id conversion (plans 2 and 3)
// can return an error, and it is always a ConversionError.
func (r *Resolver) FetchDetailedData(mediaID int, origin Origin, mediaType media.Type) (*media.Media, error) {
	source := origin.Source()
	kind := mediaType
	if kind == "" {
		kind = origin.MediaType()
	}
	ids := origin.externalIDs()

	log.Debugf("resolver: planning detail fetch for %s id %d (%s)", source, mediaID, typeToken(kind))

	if ids.Tmdb != 0 && kind.IsMovieOrTV() {
		if m := r.fetchViaSimklExternal(mediaID, kind, ids, origin); m != nil {
			return m, nil
		}
	}

	if source == media.SourceMal && (kind == "" || kind.IsAnimeOrManga()) {
		conv, err := r.ConvertMalToAnilistID(mediaID, kind)
		if err != nil {
			return nil, err
		}
		m := r.fetchAnilistDetails(conv.ID, conv.Type)
		if m != nil {
			m.IDMal = mediaID
		}
		return m, nil
	}

	if source == media.SourceSimkl && kind == media.TypeAnime && ids.Mal != 0 {
		conv, err := r.ConvertMalToAnilistID(ids.Mal, media.TypeAnime)
		if err != nil {
			return nil, err
		}
		m := r.fetchAnilistDetails(conv.ID, conv.Type)
		if m != nil {
			m.IDMal = ids.Mal
		}
		return m, nil
	}

	if source == media.SourceSimkl && kind.IsMovieOrTV() {
		details := r.fetchSimklDetails(kind, mediaID)
		if details == nil {
			return nil, nil
		}
		merged := withSimklDetails(baseMedia(origin, mediaID, kind), details)
		return withNullAiring(withPreservedIDs(merged, ids)), nil
	}

	typ := kind
	if !typ.IsAnimeOrManga() {
		typ = media.TypeAnime
	}
	return r.fetchAnilistDetails(mediaID, typ), nil
}

// fetchViaSimklExternal serves the TMDb-identified plan: resolve a Simkl id
// from the external identifiers, then fetch and merge the Simkl record.
// Returns nil when any leg is unavailable so the caller can fall through.
func (r *Resolver) fetchViaSimklExternal(mediaID int, kind media.Type, ids media.ExternalIDs, origin Origin) *media.Media {
	simklID := r.ResolveSimklIDByExternal(ids, kind)
	if simklID == 0 {
		return nil
	}
	details := r.fetchSimklDetails(kind, simklID)
	if details == nil {
		return nil
	}
	merged := withSimklDetails(baseMedia(origin, mediaID, kind), details)
	return withNullAiring(withPreservedIDs(merged, ids))
}

// fetchAnilistDetails serves an Anilist record through the split detail
// cache: the stable half under the long scope policy, the airing stream
// under its own short horizon. A stable hit whose airing half has expired
// triggers a full refetch only for releasing shows; finished shows simply
// carry no airing data. Fetch failures degrade to nil.
func (r *Resolver) fetchAnilistDetails(id int, typ media.Type) *media.Media {
	meta := cache.Descriptor{"mediaId": id}
	stableKey := cache.StructuredKey(cache.ScopeMediaDetails, "details/stable", id, meta)
	airingKey := cache.StructuredKey(cache.ScopeMediaDetails, "details/airing", id, meta)
	opt := cache.GetOptions{Scope: cache.ScopeMediaDetails, Source: string(media.SourceAnilist)}

	if m, ok := cache.GetAs[*media.Media](r.cache, stableKey, opt).Get(); ok && m != nil {
		if airing, ok := cache.GetAs[*media.AiringEpisode](r.cache, airingKey, opt).Get(); ok {
			m.NextAiringEpisode = airing
			return m
		}
		if m.Status != "RELEASING" {
			return m
		}
		// Releasing show with a stale airing stream: refetch the whole
		// record, the airing data has no standalone query.
	}

	m, err := r.anilist.ByID(id, typ)
	if err != nil {
		log.Warnf("resolver: anilist detail fetch for id %d failed: %v", id, err)
		return nil
	}
	if m == nil {
		return nil
	}

	r.cacheSplitDetails(m, stableKey, airingKey)
	return m
}

// cacheSplitDetails stores the stable and airing halves of a record under
// their respective keys. The airing half is written even when nil so a
// finished show's absence of airing data is itself a cacheable fact.
func (r *Resolver) cacheSplitDetails(m *media.Media, stableKey, airingKey string) {
	airing := m.NextAiringEpisode

	stable := *m
	stable.NextAiringEpisode = nil
	r.cache.Set(stableKey, &stable, cache.SetOptions{
		Scope:  cache.ScopeMediaDetails,
		Source: string(media.SourceAnilist),
		Tags:   []string{"anilist", "details", "stable"},
	})

	ttl := airingTTL
	r.cache.Set(airingKey, airing, cache.SetOptions{
		Scope:  cache.ScopeMediaDetails,
		Source: string(media.SourceAnilist),
		TTL:    &ttl,
		Tags:   []string{"anilist", "details", "airing"},
	})
}

// fetchSimklDetails serves a Simkl record through the detail cache.
// Fetch failures degrade to nil.
func (r *Resolver) fetchSimklDetails(kind media.Type, simklID int) *simkl.Details {
	cacheKey := cache.StructuredKey(cache.ScopeMediaDetails,
		fmt.Sprintf("details/%s", typeToken(kind)), simklID, cache.Descriptor{"mediaId": simklID})
	opt := cache.GetOptions{Scope: cache.ScopeMediaDetails, Source: string(media.SourceSimkl)}

	if details, ok := cache.GetAs[*simkl.Details](r.cache, cacheKey, opt).Get(); ok && details != nil {
		return details
	}

	details, err := r.simkl.Details(kind, simklID)
	if err != nil {
		log.Warnf("resolver: simkl detail fetch for id %d failed: %v", simklID, err)
		return nil
	}
	if details == nil {
		return nil
	}

	r.cache.Set(cacheKey, details, cache.SetOptions{
		Scope:  cache.ScopeMediaDetails,
		Source: string(media.SourceSimkl),
		Tags:   []string{"simkl", "details", typeToken(kind)},
	})
	return details
}

// baseMedia seeds the merge pipeline: the origin's own record when it
// carries one, otherwise a bare record with just the id and type.
func baseMedia(origin Origin, mediaID int, kind media.Type) *media.Media {
	if entry, ok := origin.Entry(); ok && entry.Media != nil {
		m := *entry.Media
		if m.ID == 0 {
			m.ID = mediaID
		}
		if m.Type == "" {
			m.Type = kind
		}
		return &m
	}
	return &media.Media{ID: mediaID, Type: kind}
}
