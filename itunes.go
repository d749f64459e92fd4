package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"
)

// itunesClient wraps the public iTunes catalog lookup/search API. The base
// URL is a field so tests can point it at a local server.
type itunesClient struct {
	baseURL string
	client  *http.Client
}

func newITunesClient() *itunesClient {
	return &itunesClient{
		baseURL: "https://itunes.apple.com",
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type itunesResult struct {
	WrapperType     string `json:"wrapperType"`
	Kind            string `json:"kind"`
	CollectionID    int64  `json:"collectionId"`
	CollectionName  string `json:"collectionName"`
	TrackID         int64  `json:"trackId"`
	TrackName       string `json:"trackName"`
	ArtistName      string `json:"artistName"`
	FeedURL         string `json:"feedUrl"`
	ArtworkURL600   string `json:"artworkUrl600"`
	ArtworkURL100   string `json:"artworkUrl100"`
	EpisodeURL      string `json:"episodeUrl"`
	TrackTimeMillis int64  `json:"trackTimeMillis"`
}

func (r *itunesResult) artwork() string {
	if r.ArtworkURL600 != "" {
		return r.ArtworkURL600
	}
	return r.ArtworkURL100
}

type itunesResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []itunesResult `json:"results"`
}

func (c *itunesClient) get(ctx context.Context, path string, params url.Values) (*itunesResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, upstreamWrap(err, "catalog request failed")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, upstreamWrap(err, "catalog request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxDiagnosticPreview))
		return nil, upstream("catalog lookup failed: status %d: %s", resp.StatusCode, previewBody(body))
	}

	var out itunesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, upstreamWrap(err, "malformed catalog response")
	}
	return &out, nil
}

// lookupPodcast fetches show metadata (feed URL, name, artwork) by the
// numeric podcast ID.
func (c *itunesClient) lookupPodcast(ctx context.Context, podcastID string) (*itunesResult, error) {
	params := url.Values{"id": {podcastID}}
	out, err := c.get(ctx, "/lookup", params)
	if err != nil {
		return nil, err
	}
	if len(out.Results) == 0 {
		return nil, notFound("no podcast in catalog for id %s", podcastID)
	}
	return &out.Results[0], nil
}

// lookupEpisode fetches a single episode by its episode-level ID.
func (c *itunesClient) lookupEpisode(ctx context.Context, episodeID string) (*itunesResult, error) {
	params := url.Values{"id": {episodeID}, "entity": {"podcastEpisode"}}
	out, err := c.get(ctx, "/lookup", params)
	if err != nil {
		return nil, err
	}
	for i := range out.Results {
		if out.Results[i].WrapperType == "podcastEpisode" || out.Results[i].Kind == "podcast-episode" {
			return &out.Results[i], nil
		}
	}
	return nil, notFound("no episode in catalog for id %s", episodeID)
}

// searchEpisodes runs a podcast-episode entity search, capped at 10 results.
func (c *itunesClient) searchEpisodes(ctx context.Context, term string) ([]itunesResult, error) {
	params := url.Values{
		"term":   {term},
		"entity": {"podcastEpisode"},
		"limit":  {"10"},
	}
	out, err := c.get(ctx, "/search", params)
	if err != nil {
		return nil, err
	}
	return out.Results, nil
}
