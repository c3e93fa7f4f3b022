// Package jikan provides a client for the Jikan REST API, the unofficial
// MyAnimeList mirror used for MAL-side enrichment.
package jikan

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kiroku-media/kiroku/log"
	"github.com/kiroku-media/kiroku/network"
)

const baseURL = "https://api.jikan.moe/v4"

// Client talks to the Jikan REST API using the shared HTTP client.
type Client struct {
	http *http.Client
}

// New returns a ready Jikan client.
func New() *Client {
	return &Client{http: network.Client}
}

// Anime is the Jikan representation of a MAL record. One shape serves both
// anime and manga; medium-specific fields stay zero for the other kind.
type Anime struct {
	MalID    int     `json:"mal_id"`
	Title    string  `json:"title"`
	Synopsis string  `json:"synopsis"`
	Score    float64 `json:"score"`
	Rank     int     `json:"rank"`
	Status   string  `json:"status"`
	Episodes int     `json:"episodes"`
	Chapters int     `json:"chapters"`
	Volumes  int     `json:"volumes"`
	Airing   bool    `json:"airing"`
	Aired    struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"aired"`
	Broadcast Broadcast `json:"broadcast"`
	Genres    []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

// Broadcast carries the airing schedule of a releasing show. Like the
// Anilist airing stream, it goes stale much faster than the rest of the
// record and is cached separately by the resolver.
type Broadcast struct {
	Day      string `json:"day"`
	Time     string `json:"time"`
	Timezone string `json:"timezone"`
	String   string `json:"string"`
}

// apiResponse defines the internal structural mapping for Jikan API responses.
type apiResponse struct {
	Data *Anime `json:"data"`
}

// Anime retrieves a MAL anime record by its identifier.
// Returns nil (not an error) when the record is unavailable.
func (c *Client) Anime(id int) (*Anime, error) {
	return c.fetch("anime", id)
}

// Manga retrieves a MAL manga record by its identifier.
// Returns nil (not an error) when the record is unavailable.
func (c *Client) Manga(id int) (*Anime, error) {
	return c.fetch("manga", id)
}

func (c *Client) fetch(kind string, id int) (*Anime, error) {
	url := fmt.Sprintf("%s/%s/%d", baseURL, kind, id)

	resp, err := c.http.Get(url)
	if err != nil {
		log.Warnf("jikan API request failed: %v", err)
		return nil, nil // Graceful degradation
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warnf("jikan API returned status %d for %s/%d", resp.StatusCode, kind, id)
		return nil, nil
	}

	var data apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("parse jikan response: %w", err)
	}

	return data.Data, nil
}
