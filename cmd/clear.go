package cmd

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/kiroku-media/kiroku/icon"
	"github.com/kiroku-media/kiroku/media"
	"github.com/kiroku-media/kiroku/util"
	"github.com/kiroku-media/kiroku/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(clearCmd)

	clearCmd.Flags().StringP("scope", "s", "", "Clear only the named cache scope (userData, mediaData, searchResults, mediaDetails)")
	clearCmd.Flags().StringP("source", "S", "", "Clear only one provider's stores (anilist, mal, simkl)")
	clearCmd.Flags().BoolP("logs", "l", false, "Remove the diagnostic log directory as well")
	clearCmd.Flags().BoolP("force", "f", false, "Skip the confirmation prompt")

	clearCmd.MarkFlagsMutuallyExclusive("scope", "source")
}

// clearCmd empties the cache and optionally other application artifacts.
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached entries and application artifacts",
	Run: func(cmd *cobra.Command, args []string) {
		var (
			scope  = lo.Must(cmd.Flags().GetString("scope"))
			source = lo.Must(cmd.Flags().GetString("source"))
			logs   = lo.Must(cmd.Flags().GetBool("logs"))
			force  = lo.Must(cmd.Flags().GetBool("force"))
		)

		if source != "" && !media.KnownSource(source) {
			handleErr(fmt.Errorf("unknown source: %s", source))
		}

		if !force {
			what := "the entire cache"
			switch {
			case scope != "":
				what = fmt.Sprintf("the %q scope", scope)
			case source != "":
				what = fmt.Sprintf("every %s store", source)
			}

			confirmed := false
			handleErr(survey.AskOne(&survey.Confirm{
				Message: fmt.Sprintf("Clear %s?", what),
				Default: false,
			}, &confirmed))
			if !confirmed {
				return
			}
		}

		c := openCache()
		defer c.Destroy()

		var removed int
		switch {
		case scope != "":
			removed = c.Clear(scope)
		case source != "":
			removed = c.ClearBySource(source)
		default:
			removed = c.ClearAll()
		}

		fmt.Printf("%s cleared %s\n", icon.Get(icon.Success), util.Quantify(removed, "entry", "entries"))

		if logs {
			handleErr(util.Delete(where.Logs()))
			fmt.Printf("%s logs cleared\n", icon.Get(icon.Success))
		}
	},
}
