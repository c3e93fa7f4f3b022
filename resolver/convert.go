package resolver

import (
	"fmt"
	"strings"
	"time"

	"github.com/kiroku-media/kiroku/cache"
	"github.com/kiroku-media/kiroku/log"
	"github.com/kiroku-media/kiroku/media"
)

// Id mappings between provider spaces are effectively immutable, so the
// translation caches use a much longer horizon than content scopes.
const mappingTTL = 30 * 24 * time.Hour

// Conversion is the outcome of a cross-provider id translation.
type Conversion struct {
	// ID is the Anilist identifier the MAL id maps to.
	ID int `json:"id"`
	// Type is the medium the mapping was found under.
	Type media.Type `json:"type"`
}

// typeToken normalizes a media type for use inside a cache key.
func typeToken(typ media.Type) string {
	if typ == "" {
		return "any"
	}
	return strings.ToLower(string(typ))
}

// ConvertMalToAnilistID translates a MyAnimeList id into its Anilist
// counterpart. When the medium is unknown the anime space is probed first,
// then manga. The mapping is cached for 30 days; a missing mapping raises
// ConversionError because no detail fetch can proceed without it.
func (r *Resolver) ConvertMalToAnilistID(malID int, malType media.Type) (Conversion, error) {
	cacheKey := cache.StructuredKey(cache.ScopeMediaData, "conversion/mal_to_anilist",
		fmt.Sprintf("%d_%s", malID, typeToken(malType)), nil)
	opt := cache.GetOptions{Scope: cache.ScopeMediaData, Source: string(media.SourceAnilist)}

	if conv, ok := cache.GetAs[Conversion](r.cache, cacheKey, opt).Get(); ok {
		return conv, nil
	}

	probes := []media.Type{malType}
	if malType == "" {
		probes = []media.Type{media.TypeAnime, media.TypeManga}
	}

	var lastErr error
	for _, typ := range probes {
		m, err := r.anilist.ByMalID(malID, typ)
		if err != nil {
			lastErr = err
			continue
		}
		if m == nil {
			continue
		}

		conv := Conversion{ID: m.ID, Type: typ}
		ttl := mappingTTL
		r.cache.Set(cacheKey, conv, cache.SetOptions{
			Scope:  cache.ScopeMediaData,
			Source: string(media.SourceAnilist),
			TTL:    &ttl,
			Tags:   []string{"conversion", "mal_to_anilist"},
		})
		log.Debugf("resolver: mapped MAL id %d to Anilist id %d (%s)", malID, m.ID, typ)
		return conv, nil
	}

	return Conversion{}, &ConversionError{
		FromSource: string(media.SourceMal),
		ToSource:   string(media.SourceAnilist),
		ID:         malID,
		Reason:     "no Anilist record carries this MAL id",
		Err:        lastErr,
	}
}

// ResolveSimklIDByExternal translates TMDb/IMDb identifiers into a Simkl id.
// Returns 0 when no mapping exists; lookup failures degrade to 0 as well.
func (r *Resolver) ResolveSimklIDByExternal(ids media.ExternalIDs, kind media.Type) int {
	if ids.Tmdb == 0 && ids.Imdb == "" {
		return 0
	}

	cacheKey := cache.StructuredKey(cache.ScopeMediaDetails, "resolve/external",
		fmt.Sprintf("%s_tmdb%d_imdb%s", typeToken(kind), ids.Tmdb, ids.Imdb), nil)
	opt := cache.GetOptions{Scope: cache.ScopeMediaDetails, Source: string(media.SourceSimkl)}

	if id, ok := cache.GetAs[int](r.cache, cacheKey, opt).Get(); ok {
		return id
	}

	id, err := r.simkl.SearchIDByExternal(ids, kind)
	if err != nil {
		log.Warnf("resolver: simkl id search failed: %v", err)
		return 0
	}
	if id == 0 {
		return 0
	}

	ttl := mappingTTL
	r.cache.Set(cacheKey, id, cache.SetOptions{
		Scope:  cache.ScopeMediaDetails,
		Source: string(media.SourceSimkl),
		TTL:    &ttl,
		Tags:   []string{"simkl", "resolve", "external", typeToken(kind)},
	})
	return id
}

// FetchImdbIDFromTmdb translates a TMDb id into an IMDb id through TMDb's
// external-id endpoint. Returns "" when the mapping is unavailable.
func (r *Resolver) FetchImdbIDFromTmdb(tmdbID int, kind media.Type) string {
	if tmdbID == 0 {
		return ""
	}

	cacheKey := cache.StructuredKey(cache.ScopeMediaDetails, "external_ids/tmdb",
		fmt.Sprintf("%s_%d", typeToken(kind), tmdbID), nil)
	opt := cache.GetOptions{Scope: cache.ScopeMediaDetails}

	if id, ok := cache.GetAs[string](r.cache, cacheKey, opt).Get(); ok {
		return id
	}

	ids, err := r.tmdb.ExternalIDs(kind, tmdbID)
	if err != nil {
		log.Warnf("resolver: tmdb external id lookup failed: %v", err)
		return ""
	}
	if ids == nil || ids.ImdbID == "" {
		return ""
	}

	ttl := mappingTTL
	r.cache.Set(cacheKey, ids.ImdbID, cache.SetOptions{
		Scope: cache.ScopeMediaDetails,
		TTL:   &ttl,
		Tags:  []string{"tmdb", "external_ids"},
	})
	return ids.ImdbID
}
