// Package anilist provides a client for the Anilist GraphQL API.
package anilist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/kiroku-media/kiroku/log"
	"github.com/kiroku-media/kiroku/media"
	"github.com/kiroku-media/kiroku/network"
)

const endpoint = "https://graphql.anilist.co"

// Client talks to the Anilist GraphQL endpoint using the shared HTTP client.
type Client struct {
	http *http.Client
}

// New returns a ready Anilist client.
func New() *Client {
	return &Client{http: network.Client}
}

// byIDResponse defines the anticipated JSON response structure for media-by-id lookups.
type byIDResponse struct {
	Data struct {
		Media *media.Media `json:"Media"`
	} `json:"data"`
}

// searchResponse defines the anticipated JSON response structure for media-by-title searches.
type searchResponse struct {
	Data struct {
		Page struct {
			Media []*media.Media `json:"media"`
		} `json:"Page"`
	} `json:"data"`
}

// query dispatches a GraphQL request and decodes the response envelope.
func (c *Client) query(query string, variables map[string]any, out any) error {
	body := map[string]any{
		"query":     query,
		"variables": variables,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Error(err)
		return err
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		log.Error(err)
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Error(err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Error("Anilist returned status code " + strconv.Itoa(resp.StatusCode))
		return fmt.Errorf("invalid response code %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Error(err)
		return err
	}
	return nil
}

// ByID returns the media with the given Anilist id, or nil when Anilist
// reports no match.
func (c *Client) ByID(id int, typ media.Type) (*media.Media, error) {
	log.Infof("Searching anilist for media with id: %d", id)

	var response byIDResponse
	if err := c.query(byIDQuery, map[string]any{"id": id, "type": typ}, &response); err != nil {
		return nil, err
	}

	m := response.Data.Media
	if m == nil {
		return nil, nil
	}
	m.Type = typ
	log.Infof("Got response from Anilist, found media with id %d", m.ID)
	return m, nil
}

// ByMalID returns the media carrying the given MyAnimeList id, or nil when
// Anilist holds no mapping for it.
func (c *Client) ByMalID(idMal int, typ media.Type) (*media.Media, error) {
	log.Infof("Resolving MAL id %d on Anilist as %s", idMal, typ)

	var response byIDResponse
	if err := c.query(byMalIDQuery, map[string]any{"idMal": idMal, "type": typ}, &response); err != nil {
		return nil, err
	}

	m := response.Data.Media
	if m == nil {
		return nil, nil
	}
	m.Type = typ
	m.IDMal = idMal
	return m, nil
}

// SearchByTitle returns up to a page of media matching the given title.
func (c *Client) SearchByTitle(title string, typ media.Type) ([]*media.Media, error) {
	log.Infof("Searching anilist for %q", title)

	var response searchResponse
	if err := c.query(searchQuery, map[string]any{"query": title, "type": typ}, &response); err != nil {
		return nil, err
	}

	results := response.Data.Page.Media
	for _, m := range results {
		m.Type = typ
	}
	log.Infof("Got response from Anilist, found %d results", len(results))
	return results, nil
}
