// Package auth provides a high-level API for persisting and retrieving provider credentials from the system keyring.
package auth

import (
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

const service = "kiroku"

// Credential identifiers for the enrichment providers.
const (
	SimklClientID = "simkl-client-id"
	TmdbAPIKey    = "tmdb-api-key"
	OmdbAPIKey    = "omdb-api-key"
)

// Set persists a provider credential to the system keyring.
func Set(name, value string) error {
	return keyring.Set(service, name, value)
}

// Get retrieves a provider credential from the system keyring.
func Get(name string) (string, error) {
	return keyring.Get(service, name)
}

// Delete removes a provider credential from the system keyring.
func Delete(name string) error {
	return keyring.Delete(service, name)
}

// Resolve returns the credential stored under name, falling back to the
// given viper configuration key when the keyring has no entry.
func Resolve(name, configKey string) string {
	if value, err := keyring.Get(service, name); err == nil && value != "" {
		return value
	}
	return viper.GetString(configKey)
}
