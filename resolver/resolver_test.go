package resolver

import (
	"errors"
	"testing"
	"time"

	"github.com/kiroku-media/kiroku/cache"
	"github.com/kiroku-media/kiroku/filesystem"
	"github.com/kiroku-media/kiroku/jikan"
	"github.com/kiroku-media/kiroku/key"
	"github.com/kiroku-media/kiroku/media"
	"github.com/kiroku-media/kiroku/omdb"
	"github.com/kiroku-media/kiroku/simkl"
	"github.com/kiroku-media/kiroku/tmdb"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

type fakeAnilist struct {
	byIDCalls    int
	byMalIDCalls int

	byID    func(id int, typ media.Type) (*media.Media, error)
	byMalID func(idMal int, typ media.Type) (*media.Media, error)
	search  func(title string, typ media.Type) ([]*media.Media, error)
}

func (f *fakeAnilist) ByID(id int, typ media.Type) (*media.Media, error) {
	f.byIDCalls++
	if f.byID == nil {
		return nil, nil
	}
	return f.byID(id, typ)
}

func (f *fakeAnilist) ByMalID(idMal int, typ media.Type) (*media.Media, error) {
	f.byMalIDCalls++
	if f.byMalID == nil {
		return nil, nil
	}
	return f.byMalID(idMal, typ)
}

func (f *fakeAnilist) SearchByTitle(title string, typ media.Type) ([]*media.Media, error) {
	if f.search == nil {
		return nil, nil
	}
	return f.search(title, typ)
}

type fakeJikan struct {
	calls int
	anime func(id int) (*jikan.Anime, error)
}

func (f *fakeJikan) Anime(id int) (*jikan.Anime, error) {
	f.calls++
	if f.anime == nil {
		return nil, nil
	}
	return f.anime(id)
}

func (f *fakeJikan) Manga(id int) (*jikan.Anime, error) {
	return f.Anime(id)
}

type fakeSimkl struct {
	detailCalls int
	searchCalls int

	details func(kind media.Type, id int) (*simkl.Details, error)
	search  func(ids media.ExternalIDs, kind media.Type) (int, error)
}

func (f *fakeSimkl) Details(kind media.Type, id int) (*simkl.Details, error) {
	f.detailCalls++
	if f.details == nil {
		return nil, nil
	}
	return f.details(kind, id)
}

func (f *fakeSimkl) SearchIDByExternal(ids media.ExternalIDs, kind media.Type) (int, error) {
	f.searchCalls++
	if f.search == nil {
		return 0, nil
	}
	return f.search(ids, kind)
}

type fakeTmdb struct {
	externalIDs func(kind media.Type, id int) (*tmdb.ExternalIDs, error)
}

func (f *fakeTmdb) ExternalIDs(kind media.Type, id int) (*tmdb.ExternalIDs, error) {
	if f.externalIDs == nil {
		return nil, nil
	}
	return f.externalIDs(kind, id)
}

type fakeOmdb struct {
	byImdbID func(imdbID string) (*omdb.Title, error)
}

func (f *fakeOmdb) ByImdbID(imdbID string) (*omdb.Title, error) {
	if f.byImdbID == nil {
		return nil, nil
	}
	return f.byImdbID(imdbID)
}

func newTestResolver() (*Resolver, *fakeAnilist, *fakeJikan, *fakeSimkl, *fakeTmdb, *fakeOmdb) {
	filesystem.SetMemMapFs()
	c := cache.New(cache.Options{
		Path:                 "/cache.json",
		TempPath:             "/cache.tmp",
		FileSystem:           filesystem.API(),
		MaxSize:              1000,
		BatchSize:            10,
		CompressionThreshold: 1024,
		DebounceImmediate:    10 * time.Millisecond,
		DebounceNormal:       50 * time.Millisecond,
	})

	anilist := &fakeAnilist{}
	jikanAPI := &fakeJikan{}
	simklAPI := &fakeSimkl{}
	tmdbAPI := &fakeTmdb{}
	omdbAPI := &fakeOmdb{}

	r := &Resolver{
		cache:   c,
		anilist: anilist,
		jikan:   jikanAPI,
		simkl:   simklAPI,
		tmdb:    tmdbAPI,
		omdb:    omdbAPI,
	}
	return r, anilist, jikanAPI, simklAPI, tmdbAPI, omdbAPI
}

func TestConvertMalToAnilistID(t *testing.T) {
	Convey("Given a resolver whose MAL id 5 maps to Anilist manga 404", t, func() {
		r, anilist, _, _, _, _ := newTestResolver()
		anilist.byMalID = func(idMal int, typ media.Type) (*media.Media, error) {
			if idMal == 5 && typ == media.TypeManga {
				return &media.Media{ID: 404, Type: typ}, nil
			}
			return nil, nil
		}

		Convey("Converting without a medium probes anime before manga", func() {
			conv, err := r.ConvertMalToAnilistID(5, "")

			So(err, ShouldBeNil)
			So(conv.ID, ShouldEqual, 404)
			So(conv.Type, ShouldEqual, media.TypeManga)
			So(anilist.byMalIDCalls, ShouldEqual, 2)

			Convey("And the mapping is served from the cache afterwards", func() {
				conv, err := r.ConvertMalToAnilistID(5, "")

				So(err, ShouldBeNil)
				So(conv.ID, ShouldEqual, 404)
				So(anilist.byMalIDCalls, ShouldEqual, 2)
			})

			Convey("And the mapping carries the mal_to_anilist tag for bulk invalidation", func() {
				So(r.cache.InvalidateByTag("mal_to_anilist", cache.InvalidateOptions{}), ShouldEqual, 1)

				conv, err := r.ConvertMalToAnilistID(5, "")

				So(err, ShouldBeNil)
				So(conv.ID, ShouldEqual, 404)
				So(anilist.byMalIDCalls, ShouldEqual, 4)
			})
		})

		Convey("Converting an unknown id raises ConversionError", func() {
			_, err := r.ConvertMalToAnilistID(9999, media.TypeAnime)

			var convErr *ConversionError
			So(err, ShouldNotBeNil)
			So(errors.As(err, &convErr), ShouldBeTrue)
			So(convErr.ID, ShouldEqual, 9999)
		})
	})
}

func TestFetchDetailedData(t *testing.T) {
	Convey("Given a resolver with fake providers", t, func() {
		r, anilist, _, simklAPI, _, _ := newTestResolver()

		Convey("A MAL-originated anime converts to Anilist first", func() {
			anilist.byMalID = func(idMal int, typ media.Type) (*media.Media, error) {
				return &media.Media{ID: 100, Type: typ}, nil
			}
			anilist.byID = func(id int, typ media.Type) (*media.Media, error) {
				return &media.Media{ID: id, Type: typ, Title: media.Title{English: "Converted"}}, nil
			}

			m, err := r.FetchDetailedData(5, FromSource(media.SourceMal), media.TypeAnime)

			So(err, ShouldBeNil)
			So(m, ShouldNotBeNil)
			So(m.ID, ShouldEqual, 100)
			So(m.IDMal, ShouldEqual, 5)
		})

		Convey("A TMDb-identified movie resolves through Simkl", func() {
			simklAPI.search = func(ids media.ExternalIDs, kind media.Type) (int, error) {
				So(ids.Tmdb, ShouldEqual, 603)
				return 99, nil
			}
			simklAPI.details = func(kind media.Type, id int) (*simkl.Details, error) {
				return &simkl.Details{
					Title:    "The Matrix",
					Year:     1999,
					Overview: "A hacker learns the truth.",
					Status:   "released",
					IDs:      simkl.IDs{Simkl: 99, Imdb: "tt0133093", Tmdb: "603"},
				}, nil
			}

			origin := FromEntry(&media.Entry{
				Source:    media.SourceSimkl,
				MediaType: media.TypeMovie,
				IDTmdb:    603,
			})
			m, err := r.FetchDetailedData(603, origin, media.TypeMovie)

			So(err, ShouldBeNil)
			So(m, ShouldNotBeNil)
			So(m.Title.English, ShouldEqual, "The Matrix")
			So(m.Status, ShouldEqual, "FINISHED")
			So(m.IDImdb, ShouldEqual, "tt0133093")
			So(m.IDTmdb, ShouldEqual, 603)
			So(m.NextAiringEpisode, ShouldBeNil)
			So(anilist.byIDCalls, ShouldEqual, 0)
		})

		Convey("An unidentified lookup falls back to Anilist", func() {
			anilist.byID = func(id int, typ media.Type) (*media.Media, error) {
				return &media.Media{ID: id, Type: typ, Status: "FINISHED"}, nil
			}

			m, err := r.FetchDetailedData(42, DefaultOrigin(), "")

			So(err, ShouldBeNil)
			So(m, ShouldNotBeNil)
			So(m.ID, ShouldEqual, 42)
			So(m.Type, ShouldEqual, media.TypeAnime)
		})

		Convey("Detail records are split-cached and reassembled", func() {
			anilist.byID = func(id int, typ media.Type) (*media.Media, error) {
				return &media.Media{
					ID:     id,
					Type:   typ,
					Status: "RELEASING",
					NextAiringEpisode: &media.AiringEpisode{
						AiringAt: 1700000000,
						Episode:  13,
					},
				}, nil
			}

			first, err := r.FetchDetailedData(7, DefaultOrigin(), media.TypeAnime)
			So(err, ShouldBeNil)
			So(first.NextAiringEpisode, ShouldNotBeNil)
			So(anilist.byIDCalls, ShouldEqual, 1)

			second, err := r.FetchDetailedData(7, DefaultOrigin(), media.TypeAnime)
			So(err, ShouldBeNil)
			So(second.NextAiringEpisode, ShouldNotBeNil)
			So(second.NextAiringEpisode.Episode, ShouldEqual, 13)
			So(anilist.byIDCalls, ShouldEqual, 1)
		})
	})
}

func TestFetchAndUpdateData(t *testing.T) {
	Convey("Given a resolver with MAL enrichment enabled", t, func() {
		r, anilist, jikanAPI, _, _, _ := newTestResolver()
		viper.Set(key.ResolverFetchMalData, true)
		viper.Set(key.ResolverFetchImdbData, false)
		defer viper.Reset()

		anilist.byID = func(id int, typ media.Type) (*media.Media, error) {
			return &media.Media{ID: id, IDMal: 21, Type: typ, Status: "FINISHED"}, nil
		}
		jikanAPI.anime = func(id int) (*jikan.Anime, error) {
			return &jikan.Anime{MalID: id, Title: "One Piece", Score: 8.7}, nil
		}

		Convey("Assembling a panel emits progressively richer snapshots", func() {
			var snapshots []*jikan.Anime
			err := r.FetchAndUpdateData(21, DefaultOrigin(), media.TypeAnime,
				func(detailed *media.Media, malData *jikan.Anime, imdbData *omdb.Title) {
					So(detailed, ShouldNotBeNil)
					snapshots = append(snapshots, malData)
				})

			So(err, ShouldBeNil)
			So(len(snapshots), ShouldEqual, 2)
			So(snapshots[0], ShouldBeNil)
			So(snapshots[1], ShouldNotBeNil)
			So(snapshots[1].Title, ShouldEqual, "One Piece")
			So(jikanAPI.calls, ShouldEqual, 1)

			Convey("And a cached panel produces a single immediate callback", func() {
				calls := 0
				err := r.FetchAndUpdateData(21, DefaultOrigin(), media.TypeAnime,
					func(detailed *media.Media, malData *jikan.Anime, imdbData *omdb.Title) {
						calls++
						So(malData, ShouldNotBeNil)
					})

				So(err, ShouldBeNil)
				So(calls, ShouldEqual, 1)
				So(jikanAPI.calls, ShouldEqual, 1)
			})
		})
	})
}

func TestFindClosestByTitle(t *testing.T) {
	Convey("Given a list of search candidates", t, func() {
		candidates := []*media.Media{
			{ID: 1, Title: media.Title{English: "Attack on Titan"}},
			{ID: 2, Title: media.Title{English: "Death Note"}},
			{ID: 3, Title: media.Title{Romaji: "Shingeki no Kyojin"}},
		}

		Convey("The closest title wins regardless of case", func() {
			m := FindClosestByTitle(candidates, "attack on titan")

			So(m, ShouldNotBeNil)
			So(m.ID, ShouldEqual, 1)
		})

		Convey("Romaji forms participate in the comparison", func() {
			m := FindClosestByTitle(candidates, "shingeki no kyojin")

			So(m, ShouldNotBeNil)
			So(m.ID, ShouldEqual, 3)
		})

		Convey("An empty candidate list yields nil", func() {
			So(FindClosestByTitle(nil, "anything"), ShouldBeNil)
		})
	})
}
