package cmd

import (
	"os"
	"runtime"
	"text/template"

	"github.com/kiroku-media/kiroku/color"
	"github.com/kiroku-media/kiroku/constant"
	"github.com/kiroku-media/kiroku/style"
	"github.com/kiroku-media/kiroku/version"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.SetOut(os.Stdout)
	versionCmd.Flags().BoolP("short", "s", false, "Display only the version string without metadata")
}

// versionCmd displays application version and build metadata.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display exhaustive version and build metadata",
	Long:  "Display the current application version, platform architecture, and related metadata.",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("short")) {
			cmd.Println(constant.Version)
			return
		}

		defer version.Notify()

		versionInfo := struct {
			Version      string
			CacheVersion string
			OS           string
			Arch         string
			App          string
		}{
			Version:      constant.Version,
			CacheVersion: constant.CacheVersion,
			App:          constant.Kiroku,
			OS:           runtime.GOOS,
			Arch:         runtime.GOARCH,
		}

		t, err := template.New("version").Funcs(map[string]any{
			"faint":   style.Faint,
			"bold":    style.Bold,
			"magenta": style.Fg(color.Purple),
		}).Parse(`{{ magenta "▇▇▇" }} {{ magenta .App }}

  {{ faint "Version" }}        {{ bold .Version }}
  {{ faint "Cache Format" }}   {{ bold .CacheVersion }}
  {{ faint "Platform" }}       {{ bold .OS }}/{{ bold .Arch }}
`)
		handleErr(err)
		handleErr(t.Execute(cmd.OutOrStdout(), versionInfo))
	},
}
