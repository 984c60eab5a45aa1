package render

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"autovid-pipeline/config"
	"autovid-pipeline/media"
	"autovid-pipeline/types"
)

// minAudioBytes treats smaller audio files as invalid stubs to be replaced
// with inline silence.
const minAudioBytes = 2048

// Local renders a scene list on the host: one normalized segment per scene,
// then a single concatenation pass with a re-encode retry.
type Local struct {
	cfg       *config.Config
	toolchain media.Toolchain
	cache     *media.Cache
	workDir   string
}

// NewLocal creates a local backend writing segments under workDir. Concurrent
// runs must use distinct work dirs.
func NewLocal(cfg *config.Config, tc media.Toolchain, cache *media.Cache, workDir string) *Local {
	return &Local{cfg: cfg, toolchain: tc, cache: cache, workDir: workDir}
}

// Render assembles all scenes into one output file.
func (l *Local) Render(ctx context.Context, scenes []types.SceneAsset, title string) (*types.RenderResult, error) {
	if !l.toolchain.Available() {
		return nil, fmt.Errorf("ffmpeg not available for local renderer")
	}
	if len(scenes) == 0 {
		return nil, fmt.Errorf("no scenes provided for local render")
	}
	if err := os.MkdirAll(l.workDir, 0755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	sceneIter := scenes
	if l.cfg.Pipeline.FastMode && len(sceneIter) > l.cfg.Render.FastSceneCap {
		sceneIter = sceneIter[:l.cfg.Render.FastSceneCap]
		log.Printf("[render] Fast mode: capping render to %d scenes", len(sceneIter))
	}
	log.Printf("[render] Local renderer active: assembling %d scene(s)", len(sceneIter))

	var segmentPaths []string
	for idx, scene := range sceneIter {
		path, err := l.buildSegment(ctx, idx, scene)
		if err != nil {
			log.Printf("[render] ⚠️ Skipping scene %d: %v", idx+1, err)
			continue
		}
		segmentPaths = append(segmentPaths, path)
	}
	if len(segmentPaths) == 0 {
		return nil, fmt.Errorf("all segments failed to build")
	}

	finalOut := filepath.Join(l.workDir, "final_video.mp4")
	if err := l.concat(ctx, segmentPaths, finalOut); err != nil {
		return nil, err
	}

	if dur, err := l.toolchain.Probe(finalOut); err == nil {
		log.Printf("[render] ✅ Local render complete: %s (%.1fs)", finalOut, dur)
	} else {
		log.Printf("[render] ✅ Local render complete: %s", finalOut)
	}
	return &types.RenderResult{OutputRef: finalOut, Local: true}, nil
}

// buildSegment produces one normalized, fixed-duration segment for a scene.
// Primary path merges video+audio; on failure it retries video-only.
func (l *Local) buildSegment(ctx context.Context, idx int, scene types.SceneAsset) (string, error) {
	duration := SceneDuration(scene.Narration, l.cfg.Render, l.cfg.Pipeline.FastMode)
	videoSrc := l.cache.Materialize(ctx, scene.VideoRef)
	audioSrc := l.usableAudio(scene.AudioRef)

	segPath := filepath.Join(l.workDir, fmt.Sprintf("segment_%d.mp4", idx))
	var err error
	if audioSrc != "" {
		err = l.toolchain.MergeVideoAudio(ctx, videoSrc, audioSrc, segPath, duration)
	} else {
		err = l.toolchain.MergeVideoSilence(ctx, videoSrc, segPath, duration)
	}
	if err == nil {
		return segPath, nil
	}
	log.Printf("[render] ⚠️ Segment %d video+audio encode failed: %v — retrying video-only", idx+1, err)

	fallbackPath := filepath.Join(l.workDir, fmt.Sprintf("segment_%d_videoonly.mp4", idx))
	if err := l.toolchain.EncodeVideoOnly(ctx, videoSrc, fallbackPath, duration); err != nil {
		return "", fmt.Errorf("video-only fallback failed: %w", err)
	}
	return fallbackPath, nil
}

// usableAudio returns the audio path when it looks like a real track, or ""
// so the segment gets inline silence instead. Tiny files are stub
// placeholders; anything ffprobe rejects is treated the same way.
func (l *Local) usableAudio(ref string) string {
	if ref == "" {
		return ""
	}
	fi, err := os.Stat(ref)
	if err != nil || fi.Size() < minAudioBytes {
		return ""
	}
	if dur, err := l.toolchain.Probe(ref); err != nil || dur <= 0 {
		return ""
	}
	return ref
}

// concat joins the segments: a single segment is copied verbatim, multiple
// segments go through direct concatenation with one uniform re-encode retry.
func (l *Local) concat(ctx context.Context, segmentPaths []string, outPath string) error {
	if len(segmentPaths) == 1 {
		if err := copyFile(segmentPaths[0], outPath); err != nil {
			return fmt.Errorf("single segment copy: %w", err)
		}
		return nil
	}

	if err := l.toolchain.Concat(ctx, segmentPaths, outPath); err == nil {
		return nil
	} else {
		log.Printf("[render] ⚠️ Direct concat failed: %v — re-encoding segments for retry", err)
	}

	uniform := make([]string, 0, len(segmentPaths))
	for i, src := range segmentPaths {
		out := filepath.Join(l.workDir, fmt.Sprintf("uniform_%d.mp4", i))
		if err := l.toolchain.Reencode(ctx, src, out); err != nil {
			log.Printf("[render] ⚠️ Uniform re-encode failed for %s: %v — keeping original", src, err)
			out = src
		}
		uniform = append(uniform, out)
	}
	if err := l.toolchain.Concat(ctx, uniform, outPath); err != nil {
		return fmt.Errorf("concatenation failed after re-encode: %w", err)
	}
	return nil
}

// SceneDuration computes the target duration for one scene from its
// narration pacing: max(words/rate, floor), clamped to the fast-mode ceiling.
func SceneDuration(narration string, rc config.RenderConfig, fastMode bool) float64 {
	words := len(strings.Fields(narration))
	d := float64(words) / rc.WordsPerSecond
	if d < rc.MinSceneSec {
		d = rc.MinSceneSec
	}
	if fastMode && d > rc.FastSceneSec {
		d = rc.FastSceneSec
	}
	return d
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
