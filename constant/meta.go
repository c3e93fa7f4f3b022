// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Kiroku is the canonical application identifier used for filesystem paths and CLI branding.
	Kiroku = "kiroku"

	// Version is the current application semantic version string.
	Version = "3.1.0"

	// CacheVersion is the version tag written into the persisted cache artifact.
	// Artifacts older than MinCacheVersion are discarded on load.
	CacheVersion    = "3.1.0"
	MinCacheVersion = "3.0.0"

	// UserAgent is the default HTTP User-Agent string used for network requests to external providers.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)
