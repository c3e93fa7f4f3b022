// Package anilist provides a client for the Anilist GraphQL API.
package anilist

import "fmt"

// mediaSubquery defines the common GraphQL selection set for media metadata retrieval.
var mediaSubquery = `
id
idMal
type
format
title {
	romaji
	english
	native
}
description(asHtml: false)
genres
coverImage {
	extraLarge
	large
	medium
	color
}
bannerImage
startDate {
	year
	month
	day
}
endDate {
	year
	month
	day
}
status
synonyms
siteUrl
episodes
averageScore
nextAiringEpisode {
	airingAt
	timeUntilAiring
	episode
}
`

// byIDQuery defines the GraphQL query for retrieving a specific media record by its identifier.
var byIDQuery = fmt.Sprintf(`
query ($id: Int, $type: MediaType) {
	Media (id: $id, type: $type) {
		%s
	}
}`, mediaSubquery)

// byMalIDQuery defines the GraphQL query for resolving a MyAnimeList identifier into an Anilist record.
var byMalIDQuery = fmt.Sprintf(`
query ($idMal: Int, $type: MediaType) {
	Media (idMal: $idMal, type: $type) {
		%s
	}
}`, mediaSubquery)

// searchQuery defines the GraphQL query for searching media by title.
var searchQuery = fmt.Sprintf(`
query ($query: String, $type: MediaType) {
	Page (page: 1, perPage: 30) {
		media (search: $query, type: $type) {
			%s
		}
	}
}
`, mediaSubquery)
