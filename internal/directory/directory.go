// Package directory finds podcast feeds through the iTunes Search API.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Client queries the podcast directory.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a directory client. The baseURL can be overridden for
// testing; if empty the public API endpoint is used.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://itunes.apple.com"
	}
	return &Client{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

// Result is one podcast found in the directory. FeedURL may be empty for
// shows that do not publish a public feed.
type Result struct {
	Title        string
	Author       string
	FeedURL      string
	Genre        string
	EpisodeCount int
}

// Search returns podcasts matching the term, best match first.
func (c *Client) Search(ctx context.Context, term string, limit int) ([]Result, error) {
	if strings.TrimSpace(term) == "" {
		return nil, fmt.Errorf("search term cannot be empty")
	}
	if limit <= 0 {
		limit = 10
	}

	endpoint, err := url.Parse(c.baseURL + "/search")
	if err != nil {
		return nil, err
	}
	q := endpoint.Query()
	q.Set("media", "podcast")
	q.Set("term", term)
	q.Set("limit", strconv.Itoa(limit))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory search failed: %s", resp.Status)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]Result, 0, len(payload.Results))
	for _, item := range payload.Results {
		results = append(results, Result{
			Title:        item.CollectionName,
			Author:       item.ArtistName,
			FeedURL:      item.FeedURL,
			Genre:        item.PrimaryGenreName,
			EpisodeCount: item.TrackCount,
		})
	}
	return results, nil
}

type searchResponse struct {
	Results []podcastResult `json:"results"`
}

type podcastResult struct {
	CollectionName   string `json:"collectionName"`
	ArtistName       string `json:"artistName"`
	FeedURL          string `json:"feedUrl"`
	PrimaryGenreName string `json:"primaryGenreName"`
	TrackCount       int    `json:"trackCount"`
}
