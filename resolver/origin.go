// Package resolver implements the cross-provider identifier policy layered
// on top of the cache.
//
// UI call-sites hold a media record obtained from one provider but may need
// details served best by another. The resolver chooses a detail-fetch plan,
// translates between the Anilist/MAL/Simkl/TMDb/IMDb id spaces, and caches
// the intermediate mappings so repeated lookups cost nothing.
package resolver

import "github.com/kiroku-media/kiroku/media"

type originKind int

const (
	originDefault originKind = iota
	originSource
	originEntry
)

// Origin describes where the media being resolved came from. It is a
// tagged variant: a full list entry, a bare provider name, or nothing at
// all (which defaults to Anilist).
type Origin struct {
	kind   originKind
	entry  *media.Entry
	source media.Source
}

// FromEntry builds an origin from a full list entry wrapper.
func FromEntry(entry *media.Entry) Origin {
	return Origin{kind: originEntry, entry: entry}
}

// FromSource builds an origin from a bare provider name.
func FromSource(source media.Source) Origin {
	return Origin{kind: originSource, source: source}
}

// DefaultOrigin is the origin of a lookup with no provider context.
func DefaultOrigin() Origin {
	return Origin{kind: originDefault}
}

// Entry returns the wrapped list entry, if the origin carries one.
func (o Origin) Entry() (*media.Entry, bool) {
	if o.kind != originEntry || o.entry == nil {
		return nil, false
	}
	return o.entry, true
}

// Source returns the provider the origin describes, defaulting to Anilist.
func (o Origin) Source() media.Source {
	switch o.kind {
	case originEntry:
		if o.entry.Source != "" {
			return o.entry.Source
		}
	case originSource:
		if o.source != "" {
			return o.source
		}
	}
	return media.SourceAnilist
}

// MediaType returns the media type carried by the origin, if any.
func (o Origin) MediaType() media.Type {
	if entry, ok := o.Entry(); ok {
		return entry.MediaType
	}
	return ""
}

// externalIDs gathers every provider-native identifier reachable through
// the origin, preferring ids on the entry wrapper over ids on the nested
// media record.
func (o Origin) externalIDs() media.ExternalIDs {
	entry, ok := o.Entry()
	if !ok {
		return media.ExternalIDs{}
	}

	ids := media.ExternalIDs{
		Mal:   entry.IDMal,
		Tmdb:  entry.IDTmdb,
		Imdb:  entry.IDImdb,
		Simkl: entry.IDs.Simkl,
	}
	if ids.Tmdb == 0 {
		ids.Tmdb = entry.IDs.Tmdb
	}
	if ids.Imdb == "" {
		ids.Imdb = entry.IDs.Imdb
	}
	if ids.Mal == 0 {
		ids.Mal = entry.IDs.Mal
	}

	if m := entry.Media; m != nil {
		if ids.Mal == 0 {
			ids.Mal = m.IDMal
		}
		if ids.Tmdb == 0 {
			ids.Tmdb = m.IDTmdb
		}
		if ids.Tmdb == 0 {
			ids.Tmdb = m.IDs.Tmdb
		}
		if ids.Imdb == "" {
			ids.Imdb = m.IDImdb
		}
		if ids.Imdb == "" {
			ids.Imdb = m.IDs.Imdb
		}
		if ids.Simkl == 0 {
			ids.Simkl = m.IDs.Simkl
		}
	}
	return ids
}
