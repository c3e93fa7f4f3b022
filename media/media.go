// Package media defines the shared cross-provider model for tracked titles.
//
// Every provider client normalizes its responses into these types at the edge,
// so the cache and resolver only ever deal with one shape regardless of which
// service produced the data.
package media

// Type classifies a tracked title by its medium.
type Type string

const (
	TypeAnime Type = "ANIME"
	TypeManga Type = "MANGA"
	TypeMovie Type = "MOVIE"
	TypeTV    Type = "TV"
)

// IsAnimeOrManga reports whether the type is served natively by Anilist.
func (t Type) IsAnimeOrManga() bool {
	return t == TypeAnime || t == TypeManga
}

// IsMovieOrTV reports whether the type is served natively by Simkl.
func (t Type) IsMovieOrTV() bool {
	return t == TypeMovie || t == TypeTV
}

// Source identifies a third-party tracking provider.
// TMDb and IMDb appear only as enrichment id spaces, never as list sources.
type Source string

const (
	SourceAnilist Source = "anilist"
	SourceMal     Source = "mal"
	SourceSimkl   Source = "simkl"
)

// Sources is the full provider alphabet recognized by composite cache scopes.
var Sources = []Source{SourceAnilist, SourceMal, SourceSimkl}

// KnownSource reports whether s belongs to the provider alphabet.
func KnownSource(s string) bool {
	switch Source(s) {
	case SourceAnilist, SourceMal, SourceSimkl:
		return true
	}
	return false
}

// date represents a calendar date as exposed by the provider APIs.
type date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Title is the structured title metadata for a media record.
type Title struct {
	// Romaji is the romanized title.
	Romaji string `json:"romaji" jsonschema:"description=Romanized title of the media."`
	// English is the english title.
	English string `json:"english" jsonschema:"description=English title of the media."`
	// Native is the native title. (Usually in kanji)
	Native string `json:"native" jsonschema:"description=Native title of the media. Usually in kanji."`
}

// AiringEpisode describes the next scheduled broadcast of a releasing show.
// It is cached separately from the rest of the record because it goes stale
// much faster than descriptions or genres.
type AiringEpisode struct {
	AiringAt        int64 `json:"airingAt" jsonschema:"description=Unix timestamp of the next broadcast."`
	TimeUntilAiring int64 `json:"timeUntilAiring" jsonschema:"description=Seconds until the next broadcast."`
	Episode         int   `json:"episode" jsonschema:"description=Number of the next episode."`
}

// ExternalIDs carries a title's identifiers across the enrichment id spaces.
type ExternalIDs struct {
	Simkl int    `json:"simkl,omitempty"`
	Tmdb  int    `json:"tmdb,omitempty"`
	Imdb  string `json:"imdb,omitempty"`
	Mal   int    `json:"mal,omitempty"`
}

// Media is the unified record for a single tracked title.
type Media struct {
	// ID is the identifier in the record's native provider space.
	ID int `json:"id" jsonschema:"description=Identifier of the media in its native provider space."`
	// IDMal is the identifier on MyAnimeList, when known.
	IDMal int `json:"idMal,omitempty" jsonschema:"description=Identifier of the media on MyAnimeList."`
	// IDTmdb is the identifier on TMDb, when known.
	IDTmdb int `json:"idTmdb,omitempty"`
	// IDImdb is the identifier on IMDb, when known.
	IDImdb string `json:"idImdb,omitempty"`
	// IDs aggregates further external identifiers (Simkl responses populate this).
	IDs ExternalIDs `json:"ids,omitempty"`

	Type  Type  `json:"type" jsonschema:"enum=ANIME,enum=MANGA,enum=MOVIE,enum=TV"`
	Title Title `json:"title"`
	// Description is the plot summary in plain text.
	Description string `json:"description,omitempty" jsonschema:"description=Description of the media."`
	// Genres is a collection of strings representing the media's genres.
	Genres []string `json:"genres,omitempty"`
	// Status is the release status. (FINISHED, RELEASING, NOT_YET_RELEASED, CANCELLED, HIATUS)
	Status string `json:"status,omitempty" jsonschema:"enum=FINISHED,enum=RELEASING,enum=NOT_YET_RELEASED,enum=CANCELLED,enum=HIATUS"`
	// Format is the provider-reported format (TV, MOVIE, OVA, ...).
	Format string `json:"format,omitempty"`
	// Episodes is the total episode count, when complete.
	Episodes int `json:"episodes,omitempty"`
	// AverageScore is the mean community score on a 0-100 scale.
	AverageScore int `json:"averageScore,omitempty"`
	CoverImage   struct {
		ExtraLarge string `json:"extraLarge,omitempty"`
		Large      string `json:"large,omitempty"`
		Medium     string `json:"medium,omitempty"`
		Color      string `json:"color,omitempty"`
	} `json:"coverImage,omitempty"`
	BannerImage string   `json:"bannerImage,omitempty"`
	StartDate   date     `json:"startDate,omitempty"`
	EndDate     date     `json:"endDate,omitempty"`
	Synonyms    []string `json:"synonyms,omitempty"`
	SiteURL     string   `json:"siteUrl,omitempty"`
	// NextAiringEpisode is nil for finished shows and for providers without an airing stream.
	NextAiringEpisode *AiringEpisode `json:"nextAiringEpisode,omitempty"`
}

// Name returns the primary display name of the media. If English is available, it is preferred; otherwise, Romaji is used.
func (m *Media) Name() string {
	if m.Title.English == "" {
		return m.Title.Romaji
	}

	return m.Title.English
}

// Entry wraps a Media together with the list context it was obtained from.
// UI call-sites hold entries from one provider but may need details served
// best by another; the resolver inspects the wrapper to pick its plan.
type Entry struct {
	Source    Source `json:"source"`
	MediaType Type   `json:"mediaType,omitempty"`
	Media     *Media `json:"media,omitempty"`

	// Provider-native identifiers carried on the entry itself.
	IDMal  int         `json:"idMal,omitempty"`
	IDTmdb int         `json:"idTmdb,omitempty"`
	IDImdb string      `json:"idImdb,omitempty"`
	IDs    ExternalIDs `json:"ids,omitempty"`
}
