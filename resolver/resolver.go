package resolver

import (
	"github.com/kiroku-media/kiroku/anilist"
	"github.com/kiroku-media/kiroku/cache"
	"github.com/kiroku-media/kiroku/jikan"
	"github.com/kiroku-media/kiroku/media"
	"github.com/kiroku-media/kiroku/omdb"
	"github.com/kiroku-media/kiroku/simkl"
	"github.com/kiroku-media/kiroku/tmdb"
)

// AnilistAPI is the slice of the Anilist client the resolver depends on.
type AnilistAPI interface {
	ByID(id int, typ media.Type) (*media.Media, error)
	ByMalID(idMal int, typ media.Type) (*media.Media, error)
	SearchByTitle(title string, typ media.Type) ([]*media.Media, error)
}

// JikanAPI is the slice of the Jikan client the resolver depends on.
type JikanAPI interface {
	Anime(id int) (*jikan.Anime, error)
	Manga(id int) (*jikan.Anime, error)
}

// SimklAPI is the slice of the Simkl client the resolver depends on.
type SimklAPI interface {
	Details(kind media.Type, id int) (*simkl.Details, error)
	SearchIDByExternal(ids media.ExternalIDs, kind media.Type) (int, error)
}

// TmdbAPI is the slice of the TMDb client the resolver depends on.
type TmdbAPI interface {
	ExternalIDs(kind media.Type, id int) (*tmdb.ExternalIDs, error)
}

// OmdbAPI is the slice of the OMDb client the resolver depends on.
type OmdbAPI interface {
	ByImdbID(imdbID string) (*omdb.Title, error)
}

// Resolver resolves media identifiers and details across providers,
// caching every translation and fetch through the shared cache.
type Resolver struct {
	cache *cache.Cache

	anilist AnilistAPI
	jikan   JikanAPI
	simkl   SimklAPI
	tmdb    TmdbAPI
	omdb    OmdbAPI
}

// New returns a resolver wired to the real provider clients.
func New(c *cache.Cache) *Resolver {
	return &Resolver{
		cache:   c,
		anilist: anilist.New(),
		jikan:   jikan.New(),
		simkl:   simkl.New(),
		tmdb:    tmdb.New(),
		omdb:    omdb.New(),
	}
}
