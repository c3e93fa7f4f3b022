package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/template"
	"time"

	"github.com/kiroku-media/kiroku/cache"
	"github.com/kiroku-media/kiroku/color"
	"github.com/kiroku-media/kiroku/key"
	"github.com/kiroku-media/kiroku/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// openCache constructs the shared cache, restores the persisted artifact,
// and starts the configured background maintenance.
func openCache() *cache.Cache {
	c := cache.New(cache.DefaultOptions())
	lo.Must(c.LoadFromDisk())

	if viper.GetBool(key.CacheAutoPrune) {
		c.StartAutoPrune(0)
	}
	c.StartIncrementalSave(0)
	if viper.GetBool(key.CacheBackgroundRefresh) {
		c.StartBackgroundRefresh()
	}
	return c
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
	statsCmd.SetOut(os.Stdout)
}

// statsCmd displays activity counters and derived totals for the cache.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display cache activity counters and storage totals",
	Run: func(cmd *cobra.Command, args []string) {
		c := openCache()
		defer c.Destroy()

		snapshot := c.GetStats()

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(snapshot))
			return
		}

		t, err := template.New("stats").Funcs(map[string]any{
			"faint":   style.Faint,
			"bold":    style.Bold,
			"magenta": style.Fg(color.Purple),
			"green":   style.Fg(color.Green),
		}).Parse(statsTemplate)
		handleErr(err)
		handleErr(t.Execute(cmd.OutOrStdout(), statsView(snapshot)))
	},
}

// statsView pairs the snapshot with terminal-friendly renderings of the
// derived values and millisecond timestamps.
func statsView(s cache.StatsSnapshot) map[string]any {
	formatMillis := func(ms int64) string {
		if ms == 0 {
			return "never"
		}
		return time.UnixMilli(ms).Format(time.RFC1123)
	}

	hitRate := "n/a"
	if s.Hits+s.Misses > 0 {
		hitRate = fmt.Sprintf("%.1f%%", s.HitRate*100)
	}

	return map[string]any{
		"Snapshot": s,
		"HitRate":  hitRate,
		"LastSave": formatMillis(s.LastSave),
		"LastLoad": formatMillis(s.LastLoad),
	}
}

const statsTemplate = `{{ magenta "▇▇▇" }} {{ magenta "cache" }}

  {{ faint "Entries" }}       {{ bold (printf "%d" .Snapshot.CacheSize) }} across {{ bold (printf "%d" .Snapshot.Stores) }} stores
  {{ faint "Hits" }}          {{ bold (printf "%d" .Snapshot.Hits) }}
  {{ faint "Misses" }}        {{ bold (printf "%d" .Snapshot.Misses) }}
  {{ faint "Hit Rate" }}      {{ green .HitRate }}
  {{ faint "Sets" }}          {{ bold (printf "%d" .Snapshot.Sets) }}
  {{ faint "Deletes" }}       {{ bold (printf "%d" .Snapshot.Deletes) }}
  {{ faint "Evictions" }}     {{ bold (printf "%d" .Snapshot.Evictions) }}
  {{ faint "Compressions" }}  {{ bold (printf "%d" .Snapshot.Compressions) }}
  {{ faint "Last Save" }}     {{ bold .LastSave }}
  {{ faint "Last Load" }}     {{ bold .LastLoad }}
`
