package render

import (
	"context"
	"fmt"
	"log"
	"time"

	"autovid-pipeline/config"
	"autovid-pipeline/media"
	"autovid-pipeline/types"
)

// Clip kinds on a remote timeline track
const (
	ClipVideo   = "video"
	ClipAudio   = "audio"
	ClipCaption = "caption"
)

// Remote job terminal states
const (
	JobDone      = "done"
	JobFailed    = "failed"
	JobCancelled = "cancelled"
)

// Clip is one timed asset on a track
type Clip struct {
	Kind   string
	Src    string
	Text   string
	Start  float64
	Length float64
	Volume float64
}

// Track is an ordered clip lane
type Track struct {
	Clips []Clip
}

// Soundtrack is a background audio bed for the whole timeline
type Soundtrack struct {
	Src    string
	Effect string
	Volume float64
}

// Timeline is the declarative edit submitted to a cloud renderer
type Timeline struct {
	Background string
	Tracks     []Track
	Soundtrack *Soundtrack
	Resolution string
}

// JobStatus is one poll response from the cloud renderer
type JobStatus struct {
	Status    string
	OutputURL string
	Error     string
}

// Provider is the cloud render API: one submission returning a job id,
// then polling to a terminal state.
type Provider interface {
	Submit(ctx context.Context, timeline Timeline) (string, error)
	Poll(ctx context.Context, jobID string) (JobStatus, error)
}

// Remote renders a scene list through a cloud provider.
type Remote struct {
	cfg      *config.Config
	provider Provider
}

// NewRemote creates a remote backend over the given provider
func NewRemote(cfg *config.Config, provider Provider) *Remote {
	return &Remote{cfg: cfg, provider: provider}
}

// Render submits a declarative timeline and polls to completion. The poll
// loop is bounded: after MaxPolls checks without a terminal state the render
// is reported as failed rather than waiting forever.
func (r *Remote) Render(ctx context.Context, scenes []types.SceneAsset, title string) (*types.RenderResult, error) {
	if len(scenes) == 0 {
		return nil, fmt.Errorf("no scenes provided for remote render")
	}

	timeline := r.BuildTimeline(scenes)
	jobID, err := r.provider.Submit(ctx, timeline)
	if err != nil {
		return nil, fmt.Errorf("submit render: %w", err)
	}
	log.Printf("[render] Remote render accepted, job id: %s", jobID)

	interval := time.Duration(r.cfg.Remote.PollIntervalSec) * time.Second
	if r.cfg.Pipeline.FastMode && interval > 6*time.Second {
		interval = 6 * time.Second
	}
	for polls := 0; polls < r.cfg.Remote.MaxPolls; polls++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
		status, err := r.provider.Poll(ctx, jobID)
		if err != nil {
			return nil, fmt.Errorf("poll render: %w", err)
		}
		log.Printf("[render] Remote job %s status: %s", jobID, status.Status)
		switch status.Status {
		case JobDone:
			log.Printf("[render] ✅ Remote render complete: %s", status.OutputURL)
			return &types.RenderResult{OutputRef: status.OutputURL, Local: false}, nil
		case JobFailed, JobCancelled:
			msg := status.Error
			if msg == "" {
				msg = "unknown render failure"
			}
			return nil, fmt.Errorf("remote rendering failed: %s", msg)
		}
	}
	return nil, fmt.Errorf("remote render timed out after %d polls", r.cfg.Remote.MaxPolls)
}

// BuildTimeline lays scenes onto video/audio/caption tracks using the same
// pacing heuristic as the local segment assembler. Non-URL audio refs cannot
// be read by a cloud renderer and are skipped; a background soundtrack is
// attached when no per-scene audio survives (and by default outside fast
// mode).
func (r *Remote) BuildTimeline(scenes []types.SceneAsset) Timeline {
	sceneIter := scenes
	if r.cfg.Pipeline.FastMode && len(sceneIter) > r.cfg.Render.FastSceneCap {
		sceneIter = sceneIter[:r.cfg.Render.FastSceneCap]
	}

	var videoClips, audioClips, captionClips []Clip
	start := 0.0
	for _, scene := range sceneIter {
		duration := SceneDuration(scene.Narration, r.cfg.Render, r.cfg.Pipeline.FastMode)
		videoClips = append(videoClips, Clip{Kind: ClipVideo, Src: scene.VideoRef, Start: start, Length: duration, Volume: 0.0})
		if media.IsURL(scene.AudioRef) {
			audioClips = append(audioClips, Clip{Kind: ClipAudio, Src: scene.AudioRef, Start: start, Length: duration, Volume: 1.0})
		} else {
			log.Printf("[render] ⚠️ Skipping non-URL audio asset at %.2fs: %s", start, scene.AudioRef)
		}
		captionClips = append(captionClips, Clip{Kind: ClipCaption, Text: scene.Narration, Start: start, Length: duration})
		start += duration
	}

	var soundtrack *Soundtrack
	if !r.cfg.Pipeline.FastMode || len(audioClips) == 0 {
		soundtrack = &Soundtrack{Src: r.cfg.Remote.SoundtrackURL, Effect: "fadeInFadeOut", Volume: 0.1}
	}

	tracks := []Track{{Clips: videoClips}}
	if len(audioClips) > 0 {
		tracks = append(tracks, Track{Clips: audioClips})
	}
	tracks = append(tracks, Track{Clips: captionClips})

	return Timeline{
		Background: "#000000",
		Tracks:     tracks,
		Soundtrack: soundtrack,
		Resolution: r.cfg.Remote.Resolution,
	}
}
