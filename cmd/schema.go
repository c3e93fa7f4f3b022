package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kiroku-media/kiroku/cache"
	"github.com/kiroku-media/kiroku/media"
	"github.com/kiroku-media/kiroku/resolver"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().BoolP("panel", "p", false, "Generate the JSON Schema for assembled detail panel objects")
	schemaCmd.Flags().BoolP("stats", "s", false, "Generate the JSON Schema for cache statistics output")

	schemaCmd.MarkFlagsMutuallyExclusive("panel", "stats")
	schemaCmd.SetOut(os.Stdout)
}

// schemaCmd generates JSON schemas for the structured command outputs.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Generate JSON schemas for structured command outputs",
	Run: func(cmd *cobra.Command, args []string) {
		reflector := new(jsonschema.Reflector)
		reflector.Anonymous = true
		reflector.Namer = func(t reflect.Type) string {
			name := t.Name()
			switch strings.ToLower(name) {
			case "media", "entry", "title", "combined", "date":
				return filepath.Base(t.PkgPath()) + "." + name
			}

			return name
		}

		var schema *jsonschema.Schema

		switch {
		case lo.Must(cmd.Flags().GetBool("panel")):
			schema = reflector.Reflect(&resolver.Combined{})
		case lo.Must(cmd.Flags().GetBool("stats")):
			schema = reflector.Reflect(&cache.StatsSnapshot{})
		default:
			schema = reflector.Reflect(&media.Media{})
		}

		handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(schema))
	},
}
