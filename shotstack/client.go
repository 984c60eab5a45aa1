package shotstack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"autovid-pipeline/render"
)

// Client submits declarative edits to the Shotstack render API and polls
// them to completion. It satisfies render.Provider.
type Client struct {
	httpClient *http.Client
	stage      string // v1 | stage
}

// New creates a Shotstack client for the given API stage
func New(stage string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		stage:      stage,
	}
}

type asset struct {
	Type   string  `json:"type"`
	Src    string  `json:"src,omitempty"`
	Text   string  `json:"text,omitempty"`
	Style  string  `json:"style,omitempty"`
	Volume float64 `json:"volume,omitempty"`
}

type clip struct {
	Asset  asset   `json:"asset"`
	Start  float64 `json:"start"`
	Length float64 `json:"length"`
}

type track struct {
	Clips []clip `json:"clips"`
}

type soundtrack struct {
	Src    string  `json:"src"`
	Effect string  `json:"effect,omitempty"`
	Volume float64 `json:"volume,omitempty"`
}

type timeline struct {
	Background string      `json:"background,omitempty"`
	Soundtrack *soundtrack `json:"soundtrack,omitempty"`
	Tracks     []track     `json:"tracks"`
}

type output struct {
	Format     string `json:"format"`
	Resolution string `json:"resolution"`
}

type edit struct {
	Timeline timeline `json:"timeline"`
	Output   output   `json:"output"`
}

type submitResponse struct {
	Response struct {
		ID string `json:"id"`
	} `json:"response"`
}

type renderStatus struct {
	Response struct {
		Status string `json:"status"`
		URL    string `json:"url"`
		Error  string `json:"error"`
	} `json:"response"`
}

// Submit posts the edit and returns the render job id.
func (c *Client) Submit(ctx context.Context, t render.Timeline) (string, error) {
	apiKey := os.Getenv("SHOTSTACK_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("SHOTSTACK_API_KEY not set")
	}

	body, err := json.Marshal(toEdit(t))
	if err != nil {
		return "", fmt.Errorf("marshal edit: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/render"), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("shotstack request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("shotstack returned status %d", resp.StatusCode)
	}

	var parsed submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("parse submit response: %w", err)
	}
	if parsed.Response.ID == "" {
		return "", fmt.Errorf("shotstack response missing render id")
	}
	return parsed.Response.ID, nil
}

// Poll fetches the current status of a render job.
func (c *Client) Poll(ctx context.Context, jobID string) (render.JobStatus, error) {
	var status render.JobStatus
	apiKey := os.Getenv("SHOTSTACK_API_KEY")
	if apiKey == "" {
		return status, fmt.Errorf("SHOTSTACK_API_KEY not set")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/render/"+jobID), nil)
	if err != nil {
		return status, err
	}
	req.Header.Set("x-api-key", apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return status, fmt.Errorf("shotstack status request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return status, fmt.Errorf("shotstack status returned %d", resp.StatusCode)
	}

	var parsed renderStatus
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return status, fmt.Errorf("parse status response: %w", err)
	}
	status.Status = parsed.Response.Status
	status.OutputURL = parsed.Response.URL
	status.Error = parsed.Response.Error
	return status, nil
}

func (c *Client) url(path string) string {
	return fmt.Sprintf("https://api.shotstack.io/%s%s", c.stage, path)
}

func toEdit(t render.Timeline) edit {
	e := edit{
		Timeline: timeline{Background: t.Background},
		Output:   output{Format: "mp4", Resolution: t.Resolution},
	}
	if t.Soundtrack != nil {
		e.Timeline.Soundtrack = &soundtrack{
			Src:    t.Soundtrack.Src,
			Effect: t.Soundtrack.Effect,
			Volume: t.Soundtrack.Volume,
		}
	}
	for _, tr := range t.Tracks {
		var clips []clip
		for _, cl := range tr.Clips {
			clips = append(clips, clip{Asset: toAsset(cl), Start: cl.Start, Length: cl.Length})
		}
		e.Timeline.Tracks = append(e.Timeline.Tracks, track{Clips: clips})
	}
	return e
}

func toAsset(cl render.Clip) asset {
	switch cl.Kind {
	case render.ClipAudio:
		return asset{Type: "audio", Src: cl.Src, Volume: cl.Volume}
	case render.ClipCaption:
		return asset{Type: "title", Text: cl.Text, Style: "subtitle"}
	default:
		return asset{Type: "video", Src: cl.Src, Volume: cl.Volume}
	}
}
