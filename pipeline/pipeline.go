package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"autovid-pipeline/config"
	"autovid-pipeline/types"
)

// IdeaGenerator turns a topic into a video concept
type IdeaGenerator interface {
	Generate(ctx context.Context, topic string) (*types.Idea, error)
}

// ScriptGenerator turns a concept into a scene list
type ScriptGenerator interface {
	Generate(ctx context.Context, idea *types.Idea) (*types.Script, error)
}

// AssetResolver acquires media per scene, fail-open
type AssetResolver interface {
	Resolve(ctx context.Context, script *types.Script) []types.SceneAsset
}

// RenderBackend assembles scene assets into one playable file
type RenderBackend interface {
	Render(ctx context.Context, scenes []types.SceneAsset, title string) (*types.RenderResult, error)
}

// Publisher pushes a finished video to a distribution platform
type Publisher interface {
	Publish(ctx context.Context, outputRef, title, description string) error
}

// Orchestrator drives the five stages in strict order: Idea, Script, Assets,
// Render, optional Publish. Hard failures stop the run immediately and keep
// the partial record; retry and degrade policy lives inside each stage.
type Orchestrator struct {
	cfg       *config.Config
	idea      IdeaGenerator
	script    ScriptGenerator
	assets    AssetResolver
	backend   RenderBackend
	publisher Publisher
	runID     string
}

// New wires an orchestrator for one run
func New(cfg *config.Config, runID string, idea IdeaGenerator, script ScriptGenerator, assets AssetResolver, backend RenderBackend, publisher Publisher) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		idea:      idea,
		script:    script,
		assets:    assets,
		backend:   backend,
		publisher: publisher,
		runID:     runID,
	}
}

// Run executes one full pipeline pass for the topic. The returned run record
// always reports the stage reached and, on failure, the error verbatim.
func (o *Orchestrator) Run(ctx context.Context, topic string, publish bool) *types.PipelineRun {
	run := &types.PipelineRun{
		RunID:     o.runID,
		Topic:     topic,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	defer func() {
		run.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	}()

	log.Printf("[pipeline] Starting run %s — topic=%q", o.runID, topic)

	// Stage 1: Idea. An empty topic fails here, before any external call.
	run.Stage = types.StageIdea
	if strings.TrimSpace(topic) == "" {
		return o.fail(run, fmt.Errorf("missing required topic"))
	}
	idea, err := o.idea.Generate(ctx, topic)
	if err != nil {
		return o.fail(run, fmt.Errorf("idea stage: %w", err))
	}
	run.Idea = idea
	log.Printf("[pipeline] ✅ Stage 1 complete: %q", idea.Title)

	// Stage 2: Script. A record without scenes is unusable downstream.
	run.Stage = types.StageScript
	script, err := o.script.Generate(ctx, idea)
	if err != nil {
		return o.fail(run, fmt.Errorf("script stage: %w", err))
	}
	if script == nil || len(script.Scenes) == 0 {
		return o.fail(run, fmt.Errorf("script stage: no scenes generated"))
	}
	run.Script = script
	log.Printf("[pipeline] ✅ Stage 2 complete: %d scenes", len(script.Scenes))

	// Stage 3: Assets. Individual scenes may degrade or drop; only losing
	// every scene is fatal.
	run.Stage = types.StageAssets
	sceneAssets := o.assets.Resolve(ctx, script)
	if len(sceneAssets) == 0 {
		return o.fail(run, fmt.Errorf("assets stage: no assets generated"))
	}
	run.Assets = sceneAssets
	log.Printf("[pipeline] ✅ Stage 3 complete: %d scene(s) with assets", len(sceneAssets))

	// Stage 4: Render.
	run.Stage = types.StageRender
	renderResult, err := o.backend.Render(ctx, sceneAssets, idea.Title)
	if err != nil {
		return o.fail(run, fmt.Errorf("render stage: %w", err))
	}
	if renderResult == nil || renderResult.OutputRef == "" {
		return o.fail(run, fmt.Errorf("render stage: backend returned no output"))
	}
	run.Render = renderResult
	run.FinalVideoURL = renderResult.OutputRef
	log.Printf("[pipeline] ✅ Stage 4 complete: %s", renderResult.OutputRef)

	// Archive local renders into the library with a unique name. Warn-only.
	if renderResult.Local {
		if name, err := o.archive(renderResult.OutputRef, idea.Title); err != nil {
			log.Printf("[pipeline] ⚠️ Could not archive video to library: %v", err)
		} else {
			run.LibraryFile = name
		}
	}

	// Stage 5: Publish (optional). A publish failure does not fail the run:
	// the rendered output is still valid, so the error is recorded on its
	// own field and the run completes.
	if publish {
		run.Stage = types.StagePublish
		if err := o.publisher.Publish(ctx, run.FinalVideoURL, idea.Title, publishDescription(idea)); err != nil {
			run.PublishError = err.Error()
			log.Printf("[pipeline] ⚠️ Stage 5 publish failed: %v", err)
		} else {
			run.Published = true
			log.Printf("[pipeline] ✅ Stage 5 complete (published)")
		}
	}

	run.Stage = types.StageDone
	log.Printf("[pipeline] ✅ Run %s finished", o.runID)
	return run
}

// fail records the error and returns the run with the failing stage intact
// so callers can see the partial record for diagnostics.
func (o *Orchestrator) fail(run *types.PipelineRun, err error) *types.PipelineRun {
	run.Error = err.Error()
	log.Printf("[pipeline] ❌ Run %s failed at stage %s: %v", o.runID, run.Stage, err)
	return run
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// archive copies a local render into the library directory under a
// slug-plus-timestamp name and returns the file name.
func (o *Orchestrator) archive(outputPath, title string) (string, error) {
	if _, err := os.Stat(outputPath); err != nil {
		return "", err
	}
	if err := os.MkdirAll(o.cfg.Paths.Library, 0755); err != nil {
		return "", err
	}
	slug := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" {
		slug = "video"
	}
	name := fmt.Sprintf("%s-%s.mp4", slug, time.Now().Format("20060102-150405"))
	if err := copyFile(outputPath, filepath.Join(o.cfg.Paths.Library, name)); err != nil {
		return "", err
	}
	log.Printf("[pipeline] Archived to library: %s", name)
	return name, nil
}

func publishDescription(idea *types.Idea) string {
	if idea.Description != "" {
		return idea.Description
	}
	return "This video was generated automatically."
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
