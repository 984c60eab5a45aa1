package assets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"autovid-pipeline/config"
	"autovid-pipeline/types"
)

type fakeVideo struct {
	queries []string
	results map[string]string // query -> clip ref; missing queries fail
}

func (f *fakeVideo) Search(ctx context.Context, query string) (string, error) {
	f.queries = append(f.queries, query)
	if ref, ok := f.results[query]; ok {
		return ref, nil
	}
	return "", errors.New("no clips matched")
}

type fakeAudio struct {
	err   error
	calls int
}

func (f *fakeAudio) Speak(ctx context.Context, text string, sceneIndex int) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "/tmp/audio.mp3", nil
}

// fakeToolchain satisfies media.Toolchain without touching ffmpeg. Only the
// synthesis methods matter to the resolver; the rest are renderer territory.
type fakeToolchain struct {
	textClipErr   error
	colorClipErr  error
	textClips     int
	colorClips    int
	silenceCalls  int
	silenceFailed error
}

func (f *fakeToolchain) Available() bool { return true }
func (f *fakeToolchain) MergeVideoAudio(ctx context.Context, v, a, out string, d float64) error {
	return nil
}
func (f *fakeToolchain) MergeVideoSilence(ctx context.Context, v, out string, d float64) error {
	return nil
}
func (f *fakeToolchain) EncodeVideoOnly(ctx context.Context, v, out string, d float64) error {
	return nil
}
func (f *fakeToolchain) Concat(ctx context.Context, segs []string, out string) error { return nil }
func (f *fakeToolchain) Reencode(ctx context.Context, src, out string) error         { return nil }
func (f *fakeToolchain) Probe(path string) (float64, error)                          { return 3.0, nil }

func (f *fakeToolchain) SynthesizeSilence(ctx context.Context, outPath string, duration float64) error {
	f.silenceCalls++
	if f.silenceFailed != nil {
		return f.silenceFailed
	}
	return os.WriteFile(outPath, []byte("silence"), 0644)
}

func (f *fakeToolchain) TextClip(ctx context.Context, text, outPath string, duration float64) error {
	f.textClips++
	if f.textClipErr != nil {
		return f.textClipErr
	}
	return os.WriteFile(outPath, []byte("clip"), 0644)
}

func (f *fakeToolchain) ColorClip(ctx context.Context, outPath string, duration float64) error {
	f.colorClips++
	if f.colorClipErr != nil {
		return f.colorClipErr
	}
	return os.WriteFile(outPath, []byte("clip"), 0644)
}

func resolverConfig() *config.Config {
	cfg := config.Default()
	cfg.Pipeline.AllowPlaceholders = true
	cfg.Media.QueryWordCap = 5
	return cfg
}

func scriptOf(visuals ...string) *types.Script {
	s := &types.Script{}
	for i, v := range visuals {
		s.Scenes = append(s.Scenes, types.Scene{Visual: v, Narration: "narration line " + string(rune('a'+i))})
	}
	return s
}

func TestResolveKeepsSceneOrder(t *testing.T) {
	video := &fakeVideo{results: map[string]string{
		"sunrise over mountains": "https://example.com/1.mp4",
		"city traffic at night":  "https://example.com/2.mp4",
		"a calm sea":             "https://example.com/3.mp4",
	}}
	r := New(resolverConfig(), video, &fakeAudio{}, &fakeToolchain{}, t.TempDir())

	assets := r.Resolve(context.Background(), scriptOf("sunrise over mountains", "city traffic at night", "a calm sea"))

	if len(assets) != 3 {
		t.Fatalf("expected 3 assets, got %d", len(assets))
	}
	want := []string{"https://example.com/1.mp4", "https://example.com/2.mp4", "https://example.com/3.mp4"}
	for i, a := range assets {
		if a.VideoRef != want[i] {
			t.Errorf("asset %d: got %s, want %s", i, a.VideoRef, want[i])
		}
		if a.Placeholder {
			t.Errorf("asset %d: unexpected placeholder flag", i)
		}
	}
}

func TestSimplifiedQueryRetry(t *testing.T) {
	full := "B-roll illustrating: golden retriever running through tall grass"
	simplified := "golden retriever running through tall"
	video := &fakeVideo{results: map[string]string{
		simplified: "https://example.com/dog.mp4",
	}}
	r := New(resolverConfig(), video, &fakeAudio{}, &fakeToolchain{}, t.TempDir())

	assets := r.Resolve(context.Background(), scriptOf(full))

	if len(assets) != 1 {
		t.Fatalf("expected 1 asset, got %d", len(assets))
	}
	if assets[0].VideoRef != "https://example.com/dog.mp4" {
		t.Fatalf("expected simplified-query hit, got %s", assets[0].VideoRef)
	}
	if assets[0].Placeholder {
		t.Fatal("a simplified-query hit is real footage, not a placeholder")
	}
	if len(video.queries) != 2 || video.queries[0] != full || video.queries[1] != simplified {
		t.Fatalf("expected [full, simplified] queries, got %v", video.queries)
	}
}

func TestPlaceholderClipWhenSearchExhausted(t *testing.T) {
	tc := &fakeToolchain{}
	workDir := t.TempDir()
	r := New(resolverConfig(), &fakeVideo{}, &fakeAudio{}, tc, workDir)

	assets := r.Resolve(context.Background(), scriptOf("something unfindable"))

	if len(assets) != 1 {
		t.Fatalf("expected 1 asset, got %d", len(assets))
	}
	if !assets[0].Placeholder {
		t.Fatal("expected placeholder flag")
	}
	if tc.textClips != 1 {
		t.Fatalf("expected one text clip synthesis, got %d", tc.textClips)
	}
	if assets[0].VideoRef != filepath.Join(workDir, "synthetic_scene_0.mp4") {
		t.Fatalf("unexpected video ref %s", assets[0].VideoRef)
	}
}

func TestColorClipWhenTextClipFails(t *testing.T) {
	tc := &fakeToolchain{textClipErr: errors.New("drawtext filter missing")}
	r := New(resolverConfig(), &fakeVideo{}, &fakeAudio{}, tc, t.TempDir())

	assets := r.Resolve(context.Background(), scriptOf("something unfindable"))

	if len(assets) != 1 || !assets[0].Placeholder {
		t.Fatalf("expected 1 placeholder asset, got %+v", assets)
	}
	if tc.colorClips != 1 {
		t.Fatalf("expected color clip fallback, got %d calls", tc.colorClips)
	}
}

func TestFillerReferenceWhenSynthesisUnavailable(t *testing.T) {
	cfg := resolverConfig()
	tc := &fakeToolchain{
		textClipErr:  errors.New("no encoder"),
		colorClipErr: errors.New("no encoder"),
	}
	r := New(cfg, &fakeVideo{}, &fakeAudio{}, tc, t.TempDir())

	assets := r.Resolve(context.Background(), scriptOf("something unfindable"))

	if len(assets) != 1 || !assets[0].Placeholder {
		t.Fatalf("expected 1 placeholder asset, got %+v", assets)
	}
	if assets[0].VideoRef != cfg.Media.FallbackClipURL {
		t.Fatalf("expected filler reference %s, got %s", cfg.Media.FallbackClipURL, assets[0].VideoRef)
	}
}

func TestSceneDroppedWhenPlaceholdersDisallowed(t *testing.T) {
	cfg := resolverConfig()
	cfg.Pipeline.AllowPlaceholders = false
	tc := &fakeToolchain{}
	video := &fakeVideo{results: map[string]string{
		"a calm sea": "https://example.com/sea.mp4",
	}}
	r := New(cfg, video, &fakeAudio{}, tc, t.TempDir())

	assets := r.Resolve(context.Background(), scriptOf("something unfindable", "a calm sea"))

	if len(assets) != 1 {
		t.Fatalf("expected the unresolvable scene to be dropped, got %d assets", len(assets))
	}
	if assets[0].VideoRef != "https://example.com/sea.mp4" {
		t.Fatalf("surviving asset should be the resolvable scene, got %s", assets[0].VideoRef)
	}
	if tc.textClips != 0 || tc.colorClips != 0 {
		t.Fatal("no clip synthesis expected when placeholders are disallowed")
	}
}

func TestSilentAudioFallback(t *testing.T) {
	tc := &fakeToolchain{}
	workDir := t.TempDir()
	video := &fakeVideo{results: map[string]string{"a calm sea": "https://example.com/sea.mp4"}}
	r := New(resolverConfig(), video, &fakeAudio{err: errors.New("tts quota exhausted")}, tc, workDir)

	assets := r.Resolve(context.Background(), scriptOf("a calm sea"))

	if len(assets) != 1 {
		t.Fatalf("expected 1 asset, got %d", len(assets))
	}
	if !assets[0].Placeholder {
		t.Fatal("silent audio should mark the asset as degraded")
	}
	if tc.silenceCalls != 1 {
		t.Fatalf("expected one silence synthesis, got %d", tc.silenceCalls)
	}
	if _, err := os.Stat(assets[0].AudioRef); err != nil {
		t.Fatalf("silent track should exist at %s: %v", assets[0].AudioRef, err)
	}
}

func TestSilentAudioSurvivesSynthesisError(t *testing.T) {
	tc := &fakeToolchain{silenceFailed: errors.New("no encoder")}
	video := &fakeVideo{results: map[string]string{"a calm sea": "https://example.com/sea.mp4"}}
	r := New(resolverConfig(), video, &fakeAudio{err: errors.New("tts down")}, tc, t.TempDir())

	assets := r.Resolve(context.Background(), scriptOf("a calm sea"))

	if len(assets) != 1 {
		t.Fatalf("audio fallback must never drop a scene, got %d assets", len(assets))
	}
	if assets[0].AudioRef == "" {
		t.Fatal("asset should still carry the silent track path")
	}
}

func TestSimplifyQuery(t *testing.T) {
	cases := []struct {
		in      string
		wordCap int
		want    string
	}{
		{"B-roll illustrating: a red fox in snow", 5, "a red fox in snow"},
		{"Dynamic macro shot related to coffee beans", 5, "coffee beans"},
		{"one two three four five six seven", 5, "one two three four five"},
		{"short query", 5, "short query"},
		{"B-roll illustrating:", 5, "nature"},
		{"   ", 5, "nature"},
	}
	for _, c := range cases {
		if got := SimplifyQuery(c.in, c.wordCap); got != c.want {
			t.Errorf("SimplifyQuery(%q, %d) = %q, want %q", c.in, c.wordCap, got, c.want)
		}
	}
}
