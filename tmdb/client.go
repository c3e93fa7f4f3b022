// Package tmdb provides a minimal client for the TMDb REST API, used only
// to translate TMDb identifiers into other id spaces.
package tmdb

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kiroku-media/kiroku/auth"
	"github.com/kiroku-media/kiroku/key"
	"github.com/kiroku-media/kiroku/log"
	"github.com/kiroku-media/kiroku/media"
	"github.com/kiroku-media/kiroku/network"
)

const baseURL = "https://api.themoviedb.org/3"

// Client talks to the TMDb REST API using the shared HTTP client.
type Client struct {
	http   *http.Client
	apiKey string
}

// New returns a TMDb client with the configured API credential.
func New() *Client {
	return &Client{
		http:   network.Client,
		apiKey: auth.Resolve(auth.TmdbAPIKey, key.TmdbAPIKey),
	}
}

// ExternalIDs is the cross-service id record TMDb attaches to a title.
type ExternalIDs struct {
	ImdbID string `json:"imdb_id"`
	TvdbID int    `json:"tvdb_id"`
}

// ExternalIDs retrieves the external id record of a TMDb title.
// Returns nil (not an error) when the record is unavailable.
func (c *Client) ExternalIDs(kind media.Type, id int) (*ExternalIDs, error) {
	segment := "tv"
	if kind == media.TypeMovie {
		segment = "movie"
	}
	u := fmt.Sprintf("%s/%s/%d/external_ids?api_key=%s", baseURL, segment, id, url.QueryEscape(c.apiKey))

	resp, err := c.http.Get(u)
	if err != nil {
		log.Warnf("tmdb API request failed: %v", err)
		return nil, nil // Graceful degradation
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warnf("tmdb API returned status %d for %s/%d", resp.StatusCode, segment, id)
		return nil, nil
	}

	var ids ExternalIDs
	if err := json.NewDecoder(resp.Body).Decode(&ids); err != nil {
		return nil, fmt.Errorf("parse tmdb response: %w", err)
	}
	return &ids, nil
}
