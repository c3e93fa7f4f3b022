// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Cache Engine - these keys govern the in-memory store sizing, compression and persistence cadence.
const (
	CacheMaxSize              = "cache.max_size"
	CacheBatchSize            = "cache.batch_size"
	CacheCompressionThreshold = "cache.compression_threshold"
	CacheAutoPrune            = "cache.auto_prune"
	CachePruneInterval        = "cache.prune_interval"
	CacheIncrementalSave      = "cache.incremental_save_interval"
	CacheBackgroundRefresh    = "cache.background_refresh"
)

// Provider Credentials - these keys hold the API identifiers for the enrichment providers.
// Values resolve through the system keyring first, falling back to these settings.
const (
	SimklClientID = "simkl.client_id"
	TmdbAPIKey    = "tmdb.api_key"
	OmdbAPIKey    = "omdb.api_key"
)

// Resolver Behavior - these keys control cross-provider identifier resolution.
const (
	ResolverFetchMalData  = "resolver.fetch_mal_data"
	ResolverFetchImdbData = "resolver.fetch_imdb_data"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the command-line application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
