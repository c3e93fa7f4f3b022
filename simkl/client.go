// Package simkl provides a client for the Simkl REST API, which serves
// movie and TV metadata and cross-service id search.
package simkl

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

const baseURL = "https://api.simkl.com"

// Client talks to the Simkl REST API using the shared HTTP client.
type Client struct {
	http     *http.Client
	clientID string
}

// New returns a Simkl client with the configured API credential.
func New() *Client {
	return &Client{
		http:     network.Client,
		clientID: auth.Resolve(auth.SimklClientID, key.SimklClientID),
	}
}

// IDs carries the cross-service identifiers attached to a Simkl record.
type IDs struct {
	Simkl int    `json:"simkl"`
	Imdb  string `json:"imdb"`
	Tmdb  string `json:"tmdb"`
}

// Details is the Simkl representation of a movie or show.
type Details struct {
	Title         string   `json:"title"`
	Year          int      `json:"year"`
	Overview      string   `json:"overview"`
	Status        string   `json:"status"`
	TotalEpisodes int      `json:"total_episodes"`
	Genres        []string `json:"genres"`
	IDs           IDs      `json:"ids"`
	Ratings       struct {
		Simkl struct {
			Rating float64 `json:"rating"`
		} `json:"simkl"`
	} `json:"ratings"`
	Poster string `json:"poster"`
}

// searchResult is one hit of the by-external-id search endpoint.
type searchResult struct {
	Type string `json:"type"`
	IDs  IDs    `json:"ids"`

	Movie *struct {
		IDs IDs `json:"ids"`
	} `json:"movie"`
	Show *struct {
		IDs IDs `json:"ids"`
	} `json:"show"`
}

// kindPath maps a media type to its REST path segment.
func kindPath(kind media.Type) string {
	if kind == media.TypeMovie {
		return "movies"
	}
	return "tv"
}

// Details retrieves the full record for a Simkl id.
// Returns nil (not an error) when the record is unavailable.
func (c *Client) Details(kind media.Type, id int) (*Details, error) {
	u := fmt.Sprintf("%s/%s/%d?extended=full&client_id=%s", baseURL, kindPath(kind), id, url.QueryEscape(c.clientID))

	resp, err := c.http.Get(u)
	if err != nil {
		log.Warnf("simkl API request failed: %v", err)
		return nil, nil // Graceful degradation
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warnf("simkl API returned status %d for %s/%d", resp.StatusCode, kindPath(kind), id)
		return nil, nil
	}

	var details Details
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		return nil, fmt.Errorf("parse simkl response: %w", err)
	}
	return &details, nil
}

// SearchIDByExternal resolves a Simkl id from TMDb or IMDb identifiers.
// Returns 0 when no mapping exists.
func (c *Client) SearchIDByExternal(ids media.ExternalIDs, kind media.Type) (int, error) {
	params := url.Values{}
	if ids.Tmdb != 0 {
		params.Set("tmdb", fmt.Sprint(ids.Tmdb))
	}
	if ids.Imdb != "" {
		params.Set("imdb", ids.Imdb)
	}
	if len(params) == 0 {
		return 0, nil
	}
	params.Set("client_id", c.clientID)

	resp, err := c.http.Get(baseURL + "/search/id?" + params.Encode())
	if err != nil {
		log.Warnf("simkl id search failed: %v", err)
		return 0, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warnf("simkl id search returned status %d", resp.StatusCode)
		return 0, nil
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return 0, fmt.Errorf("parse simkl search response: %w", err)
	}

	want := "tv"
	if kind == media.TypeMovie {
		want = "movie"
	}

	for _, result := range results {
		if result.Type != "" && result.Type != want {
			continue
		}
		if result.IDs.Simkl != 0 {
			return result.IDs.Simkl, nil
		}
		if result.Movie != nil && result.Movie.IDs.Simkl != 0 {
			return result.Movie.IDs.Simkl, nil
		}
		if result.Show != nil && result.Show.IDs.Simkl != 0 {
			return result.Show.IDs.Simkl, nil
		}
	}
	return 0, nil
}
