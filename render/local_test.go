package render

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"autovid-pipeline/config"
	"autovid-pipeline/media"
	"autovid-pipeline/types"
)

// fakeToolchain stands in for ffmpeg. Successful operations write their
// output file so downstream copy/concat steps see real files.
type fakeToolchain struct {
	available     bool
	failMerge     map[string]bool // keyed by video source path
	failVideoOnly map[string]bool
	failReencode  bool
	concatFails   int // number of Concat calls that error before succeeding

	mergeAVCalls      int
	mergeSilenceCalls int
	videoOnlyCalls    int
	concatCalls       int
	reencodeCalls     int

	probeDur float64
	probeErr error
}

func newFakeToolchain() *fakeToolchain {
	return &fakeToolchain{available: true, probeDur: 3.0}
}

func (f *fakeToolchain) Available() bool { return f.available }

func (f *fakeToolchain) MergeVideoAudio(ctx context.Context, videoPath, audioPath, outPath string, duration float64) error {
	f.mergeAVCalls++
	if f.failMerge[videoPath] {
		return errors.New("encode failed")
	}
	return os.WriteFile(outPath, []byte("segment:"+videoPath), 0644)
}

func (f *fakeToolchain) MergeVideoSilence(ctx context.Context, videoPath, outPath string, duration float64) error {
	f.mergeSilenceCalls++
	if f.failMerge[videoPath] {
		return errors.New("encode failed")
	}
	return os.WriteFile(outPath, []byte("segment:"+videoPath), 0644)
}

func (f *fakeToolchain) EncodeVideoOnly(ctx context.Context, videoPath, outPath string, duration float64) error {
	f.videoOnlyCalls++
	if f.failVideoOnly[videoPath] {
		return errors.New("encode failed")
	}
	return os.WriteFile(outPath, []byte("videoonly:"+videoPath), 0644)
}

func (f *fakeToolchain) Concat(ctx context.Context, segmentPaths []string, outPath string) error {
	f.concatCalls++
	if f.concatFails > 0 {
		f.concatFails--
		return errors.New("streams do not match")
	}
	return os.WriteFile(outPath, []byte("concat"), 0644)
}

func (f *fakeToolchain) Reencode(ctx context.Context, srcPath, outPath string) error {
	f.reencodeCalls++
	if f.failReencode {
		return errors.New("reencode failed")
	}
	return os.WriteFile(outPath, []byte("uniform"), 0644)
}

func (f *fakeToolchain) SynthesizeSilence(ctx context.Context, outPath string, duration float64) error {
	return os.WriteFile(outPath, []byte("silence"), 0644)
}

func (f *fakeToolchain) TextClip(ctx context.Context, text, outPath string, duration float64) error {
	return os.WriteFile(outPath, []byte("clip"), 0644)
}

func (f *fakeToolchain) ColorClip(ctx context.Context, outPath string, duration float64) error {
	return os.WriteFile(outPath, []byte("clip"), 0644)
}

func (f *fakeToolchain) Probe(path string) (float64, error) {
	if f.probeErr != nil {
		return 0, f.probeErr
	}
	return f.probeDur, nil
}

func localConfig() *config.Config {
	return config.Default()
}

func newTestLocal(t *testing.T, cfg *config.Config, tc *fakeToolchain) *Local {
	t.Helper()
	return NewLocal(cfg, tc, media.NewCache(t.TempDir()), filepath.Join(t.TempDir(), "render"))
}

func localScenes(n int) []types.SceneAsset {
	var out []types.SceneAsset
	for i := 0; i < n; i++ {
		out = append(out, types.SceneAsset{
			Visual:    "a calm sea",
			Narration: "one two three four five six seven eight nine ten",
			VideoRef:  "/clips/clip_" + string(rune('a'+i)) + ".mp4",
		})
	}
	return out
}

// writeAudio creates an audio file large enough to pass the stub-size check
func writeAudio(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.mp3")
	if err := os.WriteFile(path, bytes.Repeat([]byte("a"), size), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSceneDuration(t *testing.T) {
	rc := localConfig().Render
	cases := []struct {
		narration string
		fast      bool
		want      float64
	}{
		{"one two three four five six seven eight nine ten", false, 4.0}, // 10 words / 2.5
		{"short line", false, 3.0},                                       // floor
		{"", false, 3.0},
		{"w w w w w w w w w w w w w w w w w w w w", false, 8.0}, // 20 words
		{"w w w w w w w w w w w w w w w w w w w w", true, 4.0},  // fast ceiling
		{"short line", true, 3.0},                               // floor survives fast mode
	}
	for _, c := range cases {
		if got := SceneDuration(c.narration, rc, c.fast); got != c.want {
			t.Errorf("SceneDuration(%q, fast=%v) = %.2f, want %.2f", c.narration, c.fast, got, c.want)
		}
	}
}

func TestRenderRejectsEmptySceneList(t *testing.T) {
	l := newTestLocal(t, localConfig(), newFakeToolchain())
	if _, err := l.Render(context.Background(), nil, "title"); err == nil {
		t.Fatal("expected error for empty scene list")
	}
}

func TestRenderFailsWhenToolUnavailable(t *testing.T) {
	tc := newFakeToolchain()
	tc.available = false
	l := newTestLocal(t, localConfig(), tc)
	if _, err := l.Render(context.Background(), localScenes(2), "title"); err == nil {
		t.Fatal("expected error when ffmpeg is unavailable")
	}
	if tc.mergeAVCalls+tc.mergeSilenceCalls != 0 {
		t.Fatal("no encoding should be attempted without the tool")
	}
}

func TestRenderSingleSegmentCopiedVerbatim(t *testing.T) {
	tc := newFakeToolchain()
	l := newTestLocal(t, localConfig(), tc)

	result, err := l.Render(context.Background(), localScenes(1), "title")
	if err != nil {
		t.Fatal(err)
	}
	if !result.Local {
		t.Fatal("local render should be flagged local")
	}
	if tc.concatCalls != 0 {
		t.Fatalf("single segment must not be concatenated, got %d concat calls", tc.concatCalls)
	}
	data, err := os.ReadFile(result.OutputRef)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "segment:/clips/clip_a.mp4" {
		t.Fatalf("final output should be the segment bytes, got %q", data)
	}
}

func TestRenderUsesSilenceForMissingAudio(t *testing.T) {
	tc := newFakeToolchain()
	l := newTestLocal(t, localConfig(), tc)

	if _, err := l.Render(context.Background(), localScenes(1), "title"); err != nil {
		t.Fatal(err)
	}
	if tc.mergeSilenceCalls != 1 || tc.mergeAVCalls != 0 {
		t.Fatalf("expected silence merge for missing audio, got av=%d silence=%d",
			tc.mergeAVCalls, tc.mergeSilenceCalls)
	}
}

func TestRenderUsesRealAudioWhenUsable(t *testing.T) {
	tc := newFakeToolchain()
	l := newTestLocal(t, localConfig(), tc)
	scenes := localScenes(1)
	scenes[0].AudioRef = writeAudio(t, 4096)

	if _, err := l.Render(context.Background(), scenes, "title"); err != nil {
		t.Fatal(err)
	}
	if tc.mergeAVCalls != 1 || tc.mergeSilenceCalls != 0 {
		t.Fatalf("expected video+audio merge, got av=%d silence=%d",
			tc.mergeAVCalls, tc.mergeSilenceCalls)
	}
}

func TestRenderTreatsTinyAudioAsStub(t *testing.T) {
	tc := newFakeToolchain()
	l := newTestLocal(t, localConfig(), tc)
	scenes := localScenes(1)
	scenes[0].AudioRef = writeAudio(t, 16) // below minAudioBytes

	if _, err := l.Render(context.Background(), scenes, "title"); err != nil {
		t.Fatal(err)
	}
	if tc.mergeSilenceCalls != 1 || tc.mergeAVCalls != 0 {
		t.Fatalf("tiny audio must fall back to silence, got av=%d silence=%d",
			tc.mergeAVCalls, tc.mergeSilenceCalls)
	}
}

func TestRenderRejectsUnprobableAudio(t *testing.T) {
	tc := newFakeToolchain()
	tc.probeErr = errors.New("invalid data")
	l := newTestLocal(t, localConfig(), tc)
	scenes := localScenes(1)
	scenes[0].AudioRef = writeAudio(t, 4096)

	if _, err := l.Render(context.Background(), scenes, "title"); err != nil {
		t.Fatal(err)
	}
	if tc.mergeSilenceCalls != 1 || tc.mergeAVCalls != 0 {
		t.Fatalf("unprobable audio must fall back to silence, got av=%d silence=%d",
			tc.mergeAVCalls, tc.mergeSilenceCalls)
	}
}

func TestRenderVideoOnlyFallback(t *testing.T) {
	tc := newFakeToolchain()
	scenes := localScenes(2)
	tc.failMerge = map[string]bool{scenes[1].VideoRef: true}
	l := newTestLocal(t, localConfig(), tc)

	result, err := l.Render(context.Background(), scenes, "title")
	if err != nil {
		t.Fatal(err)
	}
	if tc.videoOnlyCalls != 1 {
		t.Fatalf("expected one video-only retry, got %d", tc.videoOnlyCalls)
	}
	if result.OutputRef == "" {
		t.Fatal("expected an output reference")
	}
}

func TestRenderSkipsUnbuildableSegments(t *testing.T) {
	tc := newFakeToolchain()
	scenes := localScenes(2)
	tc.failMerge = map[string]bool{scenes[0].VideoRef: true}
	tc.failVideoOnly = map[string]bool{scenes[0].VideoRef: true}
	l := newTestLocal(t, localConfig(), tc)

	result, err := l.Render(context.Background(), scenes, "title")
	if err != nil {
		t.Fatal(err)
	}
	// one survivor means the copy path, not concat
	if tc.concatCalls != 0 {
		t.Fatalf("one surviving segment must be copied, got %d concat calls", tc.concatCalls)
	}
	data, err := os.ReadFile(result.OutputRef)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "segment:"+scenes[1].VideoRef {
		t.Fatalf("final output should come from the surviving scene, got %q", data)
	}
}

func TestRenderFailsWhenAllSegmentsFail(t *testing.T) {
	tc := newFakeToolchain()
	scenes := localScenes(2)
	tc.failMerge = map[string]bool{scenes[0].VideoRef: true, scenes[1].VideoRef: true}
	tc.failVideoOnly = tc.failMerge
	l := newTestLocal(t, localConfig(), tc)

	if _, err := l.Render(context.Background(), scenes, "title"); err == nil {
		t.Fatal("expected error when every segment fails")
	}
}

func TestRenderConcatRetryAfterReencode(t *testing.T) {
	tc := newFakeToolchain()
	tc.concatFails = 1
	l := newTestLocal(t, localConfig(), tc)

	result, err := l.Render(context.Background(), localScenes(2), "title")
	if err != nil {
		t.Fatal(err)
	}
	if tc.concatCalls != 2 {
		t.Fatalf("expected concat attempt + retry, got %d calls", tc.concatCalls)
	}
	if tc.reencodeCalls != 2 {
		t.Fatalf("both segments should be re-encoded before the retry, got %d", tc.reencodeCalls)
	}
	if _, err := os.Stat(result.OutputRef); err != nil {
		t.Fatalf("final output missing: %v", err)
	}
}

func TestRenderReencodeFailureKeepsOriginalSegment(t *testing.T) {
	tc := newFakeToolchain()
	tc.concatFails = 1
	tc.failReencode = true
	l := newTestLocal(t, localConfig(), tc)

	// the retry still runs with the original segments and succeeds
	if _, err := l.Render(context.Background(), localScenes(2), "title"); err != nil {
		t.Fatal(err)
	}
	if tc.concatCalls != 2 {
		t.Fatalf("expected concat retry despite re-encode failures, got %d calls", tc.concatCalls)
	}
}

func TestRenderFailsWhenConcatRetryFails(t *testing.T) {
	tc := newFakeToolchain()
	tc.concatFails = 2
	l := newTestLocal(t, localConfig(), tc)

	if _, err := l.Render(context.Background(), localScenes(2), "title"); err == nil {
		t.Fatal("expected error when concat fails after the re-encode retry")
	}
}

func TestRenderFastModeCapsScenes(t *testing.T) {
	cfg := localConfig()
	cfg.Pipeline.FastMode = true
	tc := newFakeToolchain()
	l := newTestLocal(t, cfg, tc)

	if _, err := l.Render(context.Background(), localScenes(5), "title"); err != nil {
		t.Fatal(err)
	}
	if got := tc.mergeSilenceCalls; got != cfg.Render.FastSceneCap {
		t.Fatalf("fast mode should render %d scenes, encoded %d", cfg.Render.FastSceneCap, got)
	}
}
