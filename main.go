package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"autovid-pipeline/assets"
	"autovid-pipeline/config"
	"autovid-pipeline/genvideo"
	"autovid-pipeline/idea"
	"autovid-pipeline/media"
	"autovid-pipeline/pipeline"
	"autovid-pipeline/render"
	"autovid-pipeline/script"
	"autovid-pipeline/shotstack"
	"autovid-pipeline/stock"
	"autovid-pipeline/topics"
	"autovid-pipeline/tts"
	"autovid-pipeline/types"
	"autovid-pipeline/upload"
)

func main() {
	// Load .env (local dev only — CI uses real env vars)
	_ = godotenv.Load()

	topicFlag := flag.String("topic", "", "video topic, e.g. 'Stoicism'")
	publishFlag := flag.Bool("publish", false, "publish to YouTube after rendering")
	suggestFlag := flag.Bool("suggest", false, "suggest a trending topic when none is given")
	configFlag := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("No config at %s — using defaults", *configFlag)
			cfg = config.Default()
		} else {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	ctx := context.Background()

	topic := *topicFlag
	if topic == "" && *suggestFlag {
		suggester, err := topics.New(cfg)
		if err != nil {
			log.Fatalf("Topic suggester init failed: %v", err)
		}
		topic, err = suggester.Suggest(ctx)
		if err != nil {
			log.Fatalf("Topic suggestion failed: %v", err)
		}
	}

	// Per-run working directory keeps concurrent runs from colliding
	runID := uuid.NewString()[:8]
	runDir := filepath.Join(cfg.Paths.Output, runID)
	for _, dir := range []string{cfg.Paths.Temp, cfg.Paths.Cache, cfg.Paths.Library, runDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create dir %s: %v", dir, err)
		}
	}

	log.Printf("🎬 AutoVid pipeline starting — Run ID: %s", runID)
	log.Printf("📁 Run dir: %s | backend=%s media=%s speech=%s fast=%v",
		runDir, cfg.Render.Backend, cfg.Media.Source, cfg.Speech.Source, cfg.Pipeline.FastMode)

	orch, err := buildOrchestrator(cfg, runID, runDir)
	if err != nil {
		log.Fatalf("Pipeline init failed: %v", err)
	}

	run := orch.Run(ctx, topic, *publishFlag)
	saveRunArtifacts(run, runDir)

	if run.Failed() {
		log.Printf("❌ Pipeline failed at stage %s: %s", run.Stage, run.Error)
		os.Exit(1)
	}
	fmt.Printf("Final video: %s\n", run.FinalVideoURL)
}

// buildOrchestrator wires providers according to the run configuration
func buildOrchestrator(cfg *config.Config, runID, runDir string) (*pipeline.Orchestrator, error) {
	toolchain := media.NewFFmpeg(cfg.Render.Width, cfg.Render.Height)
	cache := media.NewCache(cfg.Paths.Cache)

	var videoProvider assets.VideoProvider
	switch cfg.Media.Source {
	case "generative":
		videoProvider = genvideo.New(cfg.Media.GenerativeURL, cfg.Media.PollIntervalSec, cfg.Media.MaxPolls)
	default:
		videoProvider = stock.New(cfg.Media.PerPage)
	}

	var audioProvider assets.AudioSynthesizer
	switch cfg.Speech.Source {
	case "local":
		engine, err := tts.NewCommandEngine(cfg.Speech.LocalCommand, runDir)
		if err != nil {
			return nil, err
		}
		audioProvider = engine
	default:
		audioProvider = tts.NewElevenLabs(cfg.Speech.VoiceID, runDir)
	}

	var backend pipeline.RenderBackend
	switch cfg.Render.Backend {
	case "local":
		backend = render.NewLocal(cfg, toolchain, cache, filepath.Join(runDir, "render"))
	default:
		backend = render.NewRemote(cfg, shotstack.New(cfg.Remote.Stage))
	}

	resolver := assets.New(cfg, videoProvider, audioProvider, toolchain, runDir)
	publisher := upload.NewYouTube(cfg)

	return pipeline.New(cfg, runID, idea.New(), script.New(), resolver, backend, publisher), nil
}

// saveRunArtifacts snapshots the run record and per-stage JSON for debugging
func saveRunArtifacts(run *types.PipelineRun, runDir string) {
	saveJSON(filepath.Join(runDir, "pipeline_run.json"), run)
	if run.Idea != nil {
		saveJSON(filepath.Join(runDir, "idea.json"), run.Idea)
	}
	if run.Script != nil {
		saveJSON(filepath.Join(runDir, "script.json"), run.Script)
	}
	if len(run.Assets) > 0 {
		saveJSON(filepath.Join(runDir, "assets.json"), run.Assets)
	}
}

func saveJSON(path string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("Warning: could not marshal JSON for %s: %v", path, err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("Warning: could not save %s: %v", path, err)
	}
}
