// Package omdb provides a client for the OMDb REST API, used for
// IMDb-keyed enrichment of movie and TV details.
package omdb

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kiroku-media/kiroku/auth"
	"github.com/kiroku-media/kiroku/key"
	"github.com/kiroku-media/kiroku/log"
	"github.com/kiroku-media/kiroku/network"
)

const baseURL = "https://www.omdbapi.com/"

// Client talks to the OMDb REST API using the shared HTTP client.
type Client struct {
	http   *http.Client
	apiKey string
}

// New returns an OMDb client with the configured API credential.
func New() *Client {
	return &Client{
		http:   network.Client,
		apiKey: auth.Resolve(auth.OmdbAPIKey, key.OmdbAPIKey),
	}
}

// Title is the OMDb representation of an IMDb-listed title.
type Title struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Rated      string `json:"Rated"`
	Released   string `json:"Released"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Awards     string `json:"Awards"`
	Metascore  string `json:"Metascore"`
	ImdbRating string `json:"imdbRating"`
	ImdbVotes  string `json:"imdbVotes"`
	ImdbID     string `json:"imdbID"`
	Response   string `json:"Response"`
}

// ByImdbID retrieves a title by its IMDb identifier.
// Returns nil (not an error) when the record is unavailable.
func (c *Client) ByImdbID(imdbID string) (*Title, error) {
	u := fmt.Sprintf("%s?i=%s&apikey=%s", baseURL, url.QueryEscape(imdbID), url.QueryEscape(c.apiKey))

	resp, err := c.http.Get(u)
	if err != nil {
		log.Warnf("omdb API request failed: %v", err)
		return nil, nil // Graceful degradation
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warnf("omdb API returned status %d for %s", resp.StatusCode, imdbID)
		return nil, nil
	}

	var title Title
	if err := json.NewDecoder(resp.Body).Decode(&title); err != nil {
		return nil, fmt.Errorf("parse omdb response: %w", err)
	}

	if title.Response == "False" {
		return nil, nil
	}
	return &title, nil
}
