package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Client searches Pexels for stock footage
type Client struct {
	httpClient *http.Client
	perPage    int
	baseURL    string
}

// New creates a Pexels client
func New(perPage int) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		perPage:    perPage,
		baseURL:    "https://api.pexels.com/videos/search",
	}
}

type searchResponse struct {
	Videos []struct {
		VideoFiles []videoFile `json:"video_files"`
	} `json:"videos"`
}

type videoFile struct {
	Quality string `json:"quality"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Link    string `json:"link"`
}

// Search returns the best clip link for a query, preferring vertical HD,
// then any HD, then the first available file.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	apiKey := os.Getenv("PEXELS_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("PEXELS_API_KEY not set")
	}

	log.Printf("[stock] Searching Pexels for video: %q", query)
	reqURL := fmt.Sprintf("%s?query=%s&per_page=%d", c.baseURL, url.QueryEscape(query), c.perPage)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("pexels request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pexels returned status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("parse pexels response: %w", err)
	}

	link := pickBest(parsed)
	if link == "" {
		return "", fmt.Errorf("no suitable video found for query %q", query)
	}
	log.Printf("[stock] ✅ Found clip: %s", link)
	return link, nil
}

func pickBest(parsed searchResponse) string {
	for _, v := range parsed.Videos {
		for _, vf := range v.VideoFiles {
			if vf.Quality == "hd" && vf.Width < vf.Height {
				return vf.Link
			}
		}
		for _, vf := range v.VideoFiles {
			if vf.Quality == "hd" {
				return vf.Link
			}
		}
		if len(v.VideoFiles) > 0 {
			return v.VideoFiles[0].Link
		}
	}
	return ""
}
