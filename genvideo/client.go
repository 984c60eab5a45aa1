package genvideo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// Client drives a self-hosted generative video server:
//
//	POST {base}/generate {"prompt": ...} -> {"id": ...}
//	GET  {base}/status/{id}             -> {"status": ..., "url": ...}
type Client struct {
	httpClient   *http.Client
	baseURL      string
	pollInterval time.Duration
	maxPolls     int
}

// New creates a generative video client
func New(baseURL string, pollIntervalSec, maxPolls int) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		baseURL:      strings.TrimRight(baseURL, "/"),
		pollInterval: time.Duration(pollIntervalSec) * time.Second,
		maxPolls:     maxPolls,
	}
}

type generateResponse struct {
	ID string `json:"id"`
}

type statusResponse struct {
	Status   string `json:"status"`
	URL      string `json:"url"`
	VideoURL string `json:"video_url"`
}

// Search submits a generation job for the prompt and polls it to completion.
// The poll loop is bounded; exhausting it is an error, not an endless wait.
func (c *Client) Search(ctx context.Context, prompt string) (string, error) {
	log.Printf("[genvideo] Generating clip for prompt %q", prompt)

	body, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generate returned status %d", resp.StatusCode)
	}
	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return "", fmt.Errorf("parse generate response: %w", err)
	}
	if gen.ID == "" {
		return "", fmt.Errorf("generate response missing job id")
	}

	for polls := 0; polls < c.maxPolls; polls++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}
		status, err := c.poll(ctx, gen.ID)
		if err != nil {
			return "", err
		}
		switch status.Status {
		case "completed", "done":
			if url := firstNonEmpty(status.URL, status.VideoURL); url != "" {
				log.Printf("[genvideo] ✅ Clip ready: %s", url)
				return url, nil
			}
			return "", fmt.Errorf("job %s completed without a clip url", gen.ID)
		case "failed", "error":
			return "", fmt.Errorf("generation job %s failed", gen.ID)
		}
	}
	return "", fmt.Errorf("generation job %s timed out after %d polls", gen.ID, c.maxPolls)
}

func (c *Client) poll(ctx context.Context, jobID string) (statusResponse, error) {
	var status statusResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status/"+jobID, nil)
	if err != nil {
		return status, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return status, fmt.Errorf("status request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return status, fmt.Errorf("status returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return status, fmt.Errorf("parse status response: %w", err)
	}
	return status, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
