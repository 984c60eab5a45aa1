package assets

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"autovid-pipeline/config"
	"autovid-pipeline/media"
	"autovid-pipeline/types"
)

// VideoProvider searches for one clip reference matching a visual query
type VideoProvider interface {
	Search(ctx context.Context, query string) (string, error)
}

// AudioSynthesizer speaks one narration line into a local audio file
type AudioSynthesizer interface {
	Speak(ctx context.Context, text string, sceneIndex int) (string, error)
}

// Resolver acquires media per scene with a fail-open fallback ladder: real
// provider result, simplified query, locally synthesized placeholder. A scene
// is dropped only when placeholders are disallowed and a ladder bottoms out.
type Resolver struct {
	cfg       *config.Config
	video     VideoProvider
	audio     AudioSynthesizer
	toolchain media.Toolchain
	workDir   string
}

// New creates a Resolver writing synthesized placeholders under workDir
func New(cfg *config.Config, video VideoProvider, audio AudioSynthesizer, tc media.Toolchain, workDir string) *Resolver {
	return &Resolver{cfg: cfg, video: video, audio: audio, toolchain: tc, workDir: workDir}
}

// Resolve acquires assets for every scene in script order. Dropped scenes
// leave gaps; surviving assets keep the input order.
func (r *Resolver) Resolve(ctx context.Context, script *types.Script) []types.SceneAsset {
	var out []types.SceneAsset
	total := len(script.Scenes)
	for i, scene := range script.Scenes {
		log.Printf("[assets] Scene %d/%d: resolving media...", i+1, total)
		asset, ok := r.resolve(ctx, scene, i)
		if !ok {
			log.Printf("[assets] ⚠️ Scene %d dropped: no usable media and placeholders disallowed", i+1)
			continue
		}
		out = append(out, asset)
		log.Printf("[assets] ✅ Scene %d ready (placeholder=%v)", i+1, asset.Placeholder)
	}
	return out
}

// resolve handles one scene. Video and audio failures are resolved
// independently; the scene survives as long as both references are obtained.
func (r *Resolver) resolve(ctx context.Context, scene types.Scene, index int) (types.SceneAsset, bool) {
	videoRef, videoPlaceholder, ok := r.resolveVideo(ctx, scene, index)
	if !ok {
		return types.SceneAsset{}, false
	}
	audioRef, audioPlaceholder, ok := r.resolveAudio(ctx, scene.Narration, index)
	if !ok {
		return types.SceneAsset{}, false
	}
	return types.SceneAsset{
		Visual:      scene.Visual,
		Narration:   scene.Narration,
		VideoRef:    videoRef,
		AudioRef:    audioRef,
		Placeholder: videoPlaceholder || audioPlaceholder,
	}, true
}

func (r *Resolver) resolveVideo(ctx context.Context, scene types.Scene, index int) (ref string, placeholder, ok bool) {
	ref, err := r.video.Search(ctx, scene.Visual)
	if err == nil && ref != "" {
		return ref, false, true
	}
	if err != nil {
		log.Printf("[assets] ⚠️ Scene %d video search failed: %v", index+1, err)
	}

	simplified := SimplifyQuery(scene.Visual, r.cfg.Media.QueryWordCap)
	ref, err = r.video.Search(ctx, simplified)
	if err == nil && ref != "" {
		log.Printf("[assets] Scene %d: simplified query %q matched", index+1, simplified)
		return ref, false, true
	}
	if err != nil {
		log.Printf("[assets] ⚠️ Scene %d simplified video search failed: %v", index+1, err)
	}

	if !r.cfg.Pipeline.AllowPlaceholders {
		return "", false, false
	}
	return r.placeholderClip(ctx, scene.Narration, index), true, true
}

// placeholderClip synthesizes a local clip with the narration burned in,
// degrading to a plain color clip and finally to the static filler reference.
func (r *Resolver) placeholderClip(ctx context.Context, narration string, index int) string {
	text := narration
	if text == "" {
		text = fmt.Sprintf("Scene %d", index+1)
	} else if len(text) > 50 {
		text = text[:50] + "…"
	}
	out := filepath.Join(r.workDir, fmt.Sprintf("synthetic_scene_%d.mp4", index))
	if err := r.toolchain.TextClip(ctx, text, out, 3.0); err == nil {
		return out
	}
	if err := r.toolchain.ColorClip(ctx, out, 3.0); err == nil {
		return out
	}
	log.Printf("[assets] ⚠️ Scene %d clip synthesis unavailable — using filler reference", index+1)
	return r.cfg.Media.FallbackClipURL
}

func (r *Resolver) resolveAudio(ctx context.Context, text string, index int) (ref string, placeholder, ok bool) {
	ref, err := r.audio.Speak(ctx, text, index)
	if err == nil && ref != "" {
		return ref, false, true
	}
	if err != nil {
		log.Printf("[assets] ⚠️ Scene %d audio synthesis failed: %v", index+1, err)
	}
	if !r.cfg.Pipeline.AllowPlaceholders {
		return "", false, false
	}
	return r.silentAudio(ctx, index), true, true
}

// silentAudio is the last resort for narration: a silent track of
// deterministic duration. SynthesizeSilence itself degrades to a stub file
// when no encoder exists, so this path never fails a scene.
func (r *Resolver) silentAudio(ctx context.Context, index int) string {
	out := filepath.Join(r.workDir, fmt.Sprintf("audio_scene_%d.mp3", index))
	if err := os.MkdirAll(r.workDir, 0755); err != nil {
		log.Printf("[assets] ⚠️ work dir: %v", err)
	}
	if err := r.toolchain.SynthesizeSilence(ctx, out, r.cfg.Speech.SilenceSec); err != nil {
		log.Printf("[assets] ⚠️ silence synthesis failed for scene %d: %v", index+1, err)
	}
	return out
}

// queryPrefixes are boilerplate lead-ins that hurt stock search matching
var queryPrefixes = []string{
	"B-roll illustrating:",
	"Dynamic macro shot related to",
}

// SimplifyQuery strips known boilerplate prefixes and truncates the query to
// its first wordCap words for better stock-footage matching.
func SimplifyQuery(q string, wordCap int) string {
	for _, p := range queryPrefixes {
		q = strings.ReplaceAll(q, p, "")
	}
	words := strings.Fields(q)
	if len(words) > wordCap {
		words = words[:wordCap]
	}
	if len(words) == 0 {
		return "nature"
	}
	return strings.Join(words, " ")
}
