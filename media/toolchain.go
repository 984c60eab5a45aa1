package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Toolchain is the narrow encoding surface the renderers need. The renderer
// and asset resolver only ever talk to this interface, so they can be tested
// without invoking real binaries.
type Toolchain interface {
	// Available reports whether the underlying encoder exists on the host.
	Available() bool
	// MergeVideoAudio encodes video+audio into one normalized segment of the
	// given duration.
	MergeVideoAudio(ctx context.Context, videoPath, audioPath, outPath string, duration float64) error
	// MergeVideoSilence encodes video with a generated silent track.
	MergeVideoSilence(ctx context.Context, videoPath, outPath string, duration float64) error
	// EncodeVideoOnly re-encodes video alone, discarding audio.
	EncodeVideoOnly(ctx context.Context, videoPath, outPath string, duration float64) error
	// Concat joins already-normalized segments stream-wise.
	Concat(ctx context.Context, segmentPaths []string, outPath string) error
	// Reencode rewrites one file to the strict uniform profile used before a
	// concat retry.
	Reencode(ctx context.Context, srcPath, outPath string) error
	// SynthesizeSilence writes a silent audio file; it must succeed even
	// without an encoder by writing a minimal stub.
	SynthesizeSilence(ctx context.Context, outPath string, duration float64) error
	// TextClip generates a short clip with the given text burned in.
	TextClip(ctx context.Context, text, outPath string, duration float64) error
	// ColorClip generates a plain colored clip.
	ColorClip(ctx context.Context, outPath string, duration float64) error
	// Probe returns the duration of a media file in seconds.
	Probe(path string) (float64, error)
}

// FFmpeg is the real toolchain backed by the ffmpeg binary.
type FFmpeg struct {
	Width  int
	Height int
}

// NewFFmpeg creates a toolchain targeting the given output frame size
func NewFFmpeg(width, height int) *FFmpeg {
	return &FFmpeg{Width: width, Height: height}
}

func (f *FFmpeg) Available() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

func (f *FFmpeg) MergeVideoAudio(ctx context.Context, videoPath, audioPath, outPath string, duration float64) error {
	return runFFmpeg(ctx,
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-filter:a", "aresample=async=1",
		"-t", fmt.Sprintf("%.2f", duration),
		"-c:v", "libx264", "-preset", "veryfast", "-crf", "30",
		"-c:a", "aac",
		outPath,
	)
}

func (f *FFmpeg) MergeVideoSilence(ctx context.Context, videoPath, outPath string, duration float64) error {
	return runFFmpeg(ctx,
		"-y",
		"-i", videoPath,
		"-f", "lavfi", "-i", "anullsrc=r=44100:cl=stereo",
		"-shortest",
		"-filter:a", "aresample=async=1",
		"-t", fmt.Sprintf("%.2f", duration),
		"-c:v", "libx264", "-preset", "veryfast", "-crf", "30",
		"-c:a", "aac",
		outPath,
	)
}

func (f *FFmpeg) EncodeVideoOnly(ctx context.Context, videoPath, outPath string, duration float64) error {
	return runFFmpeg(ctx,
		"-y",
		"-i", videoPath,
		"-t", fmt.Sprintf("%.2f", duration),
		"-c:v", "libx264", "-preset", "veryfast", "-crf", "30",
		"-an",
		outPath,
	)
}

// Concat uses the concat demuxer with a generated list file. Segments are
// assumed to share a compatible profile from the assembler's normalization.
func (f *FFmpeg) Concat(ctx context.Context, segmentPaths []string, outPath string) error {
	if len(segmentPaths) == 0 {
		return fmt.Errorf("no segments to concatenate")
	}
	listFile := filepath.Join(filepath.Dir(outPath), "concat_list.txt")
	var lines []string
	for _, p := range segmentPaths {
		lines = append(lines, fmt.Sprintf("file '%s'", p))
	}
	if err := os.WriteFile(listFile, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return runFFmpeg(ctx,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c:v", "libx264",
		"-c:a", "aac",
		outPath,
	)
}

// Reencode rewrites one segment to the strict uniform profile (codec,
// container, sample rate) used for the concat retry pass.
func (f *FFmpeg) Reencode(ctx context.Context, srcPath, outPath string) error {
	return runFFmpeg(ctx,
		"-y",
		"-i", srcPath,
		"-filter:a", "aresample=async=1",
		"-c:v", "libx264", "-preset", "veryfast", "-crf", "30",
		"-c:a", "aac", "-ar", "44100", "-b:a", "128k",
		outPath,
	)
}

func runFFmpeg(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg %s: %w: %s", args[len(args)-1], err, lastLine(stderr.String()))
	}
	return nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
