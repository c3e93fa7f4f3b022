// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"strings"
	"text/template"

	"github.com/kiroku-media/kiroku/color"
	"github.com/kiroku-media/kiroku/constant"
	"github.com/kiroku-media/kiroku/key"
	"github.com/kiroku-media/kiroku/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// prettyTemplate renders a configuration field for terminal display.
var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"purple": style.Fg(color.Purple),
	"faint":  style.Faint,
	"bold":   style.Bold,
}).Parse(`{{ purple .Key }}
{{ faint .Description }}
Default: {{ bold (printf "%v" .Value) }}
`))

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Kiroku + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
	})
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	// register validates and adds a new configuration field to the global registry.
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.CacheMaxSize, 10000, "Maximum number of entries per cache store before LRU eviction kicks in")
	register(key.CacheBatchSize, 100, "Eviction overshoot.\nEvicting slightly below the cap amortizes the sort cost across many writes")
	register(key.CacheCompressionThreshold, 1024, "Payloads serialized above this size (bytes) are compressed before caching")
	register(key.CacheAutoPrune, true, "Periodically remove expired entries from all cache stores")
	register(key.CachePruneInterval, 300, "Interval in seconds between automatic prune sweeps")
	register(key.CacheIncrementalSave, 30, "Interval in seconds for the incremental save timer.\nForces a disk write if none happened recently")
	register(key.CacheBackgroundRefresh, true, "Refresh cached entries in the background once they pass 80% of their TTL")
	register(key.SimklClientID, "", "Simkl API client id.\nThe system keyring takes precedence if a key is stored there")
	register(key.TmdbAPIKey, "", "TMDb API key used for external id lookups")
	register(key.OmdbAPIKey, "", "OMDb API key used for IMDb-based enrichment")
	register(key.ResolverFetchMalData, true, "Enrich anime details with MyAnimeList data via Jikan")
	register(key.ResolverFetchImdbData, true, "Enrich movie/TV details with OMDb data when an IMDb id is known")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Use colored output in the CLI")
	register(key.CliVersionCheck, true, "Check for a newer release on startup")
}
