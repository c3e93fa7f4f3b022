package cmd

import (
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/kiroku-media/kiroku/jikan"
	"github.com/kiroku-media/kiroku/media"
	"github.com/kiroku-media/kiroku/omdb"
	"github.com/kiroku-media/kiroku/resolver"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().IntP("id", "i", 0, "The provider-native media id to resolve details for")
	resolveCmd.Flags().StringP("title", "t", "", "A media title to search for instead of an id")
	resolveCmd.Flags().StringP("source", "s", string(media.SourceAnilist), "The provider the id belongs to (anilist, mal, simkl)")
	resolveCmd.Flags().StringP("type", "T", "", "The media type (ANIME, MANGA, MOVIE, TV)")
	resolveCmd.Flags().BoolP("panel", "p", false, "Assemble the full detail panel including MAL and IMDb enrichment")

	resolveCmd.MarkFlagsMutuallyExclusive("id", "title")

	lo.Must0(resolveCmd.RegisterFlagCompletionFunc("source", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return lo.Map(media.Sources, func(s media.Source, _ int) string { return string(s) }), cobra.ShellCompDirectiveNoFileComp
	}))

	resolveCmd.SetOut(os.Stdout)
}

// resolveCmd resolves cross-provider media details and prints them as JSON.
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve media details across providers by id or title",
	PreRun: func(cmd *cobra.Command, args []string) {
		if !cmd.Flags().Changed("id") && !cmd.Flags().Changed("title") {
			handleErr(errors.New("id or title flag is required"))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		var (
			id     = lo.Must(cmd.Flags().GetInt("id"))
			title  = lo.Must(cmd.Flags().GetString("title"))
			source = media.Source(lo.Must(cmd.Flags().GetString("source")))
			typ    = media.Type(strings.ToUpper(lo.Must(cmd.Flags().GetString("type"))))
			panel  = lo.Must(cmd.Flags().GetBool("panel"))
		)

		if !media.KnownSource(string(source)) {
			handleErr(errors.New("unknown source: " + string(source)))
		}

		c := openCache()
		defer c.Destroy()
		r := resolver.New(c)

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")

		if title != "" {
			closest, took, err := r.ResolveByTitle(title, typ)
			handleErr(err)
			if closest == nil {
				handleErr(errors.New("no results found for " + title))
			}
			cmd.PrintErrf("resolved in %s\n", took)
			handleErr(encoder.Encode(closest))
			return
		}

		if panel {
			var combined resolver.Combined
			err := r.FetchAndUpdateData(id, resolver.FromSource(source), typ,
				func(detailed *media.Media, malData *jikan.Anime, imdbData *omdb.Title) {
					combined = resolver.Combined{
						DetailedMedia: detailed,
						MalData:       malData,
						ImdbData:      imdbData,
					}
				})
			handleErr(err)
			if combined.DetailedMedia == nil {
				handleErr(errors.New("no details available"))
			}
			handleErr(encoder.Encode(combined))
			return
		}

		detailed, err := r.FetchDetailedData(id, resolver.FromSource(source), typ)
		handleErr(err)
		if detailed == nil {
			handleErr(errors.New("no details available"))
		}
		handleErr(encoder.Encode(detailed))
	},
}
