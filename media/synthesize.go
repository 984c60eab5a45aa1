package media

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// silenceStub is a minimal valid-ish MP3 header written when no encoder is
// available. Downstream treats files this small as invalid and substitutes
// inline silence at encode time.
var silenceStub = []byte("ID3\x04\x00\x00\x00\x00\x00\x0fsilence")

// SynthesizeSilence writes a silent audio track of the given duration. It
// never fails outright: without ffmpeg (or when ffmpeg errors) it falls back
// to writing a minimal stub file.
func (f *FFmpeg) SynthesizeSilence(ctx context.Context, outPath string, duration float64) error {
	if !f.Available() {
		return os.WriteFile(outPath, silenceStub, 0644)
	}
	err := ffmpeg.Input("anullsrc=r=44100:cl=stereo", ffmpeg.KwArgs{"f": "lavfi"}).
		Output(outPath, ffmpeg.KwArgs{
			"t":   fmt.Sprintf("%.2f", duration),
			"q:a": "5",
		}).
		OverWriteOutput().
		Silent(true).
		Run()
	if err != nil {
		log.Printf("[media] ⚠️ silence synthesis failed: %v — writing stub", err)
		return os.WriteFile(outPath, silenceStub, 0644)
	}
	return nil
}

// TextClip generates a short colored clip with the narration text burned in.
// Requires ffmpeg built with drawtext.
func (f *FFmpeg) TextClip(ctx context.Context, text, outPath string, duration float64) error {
	if !f.Available() {
		return fmt.Errorf("ffmpeg not available for clip synthesis")
	}
	drawtext := fmt.Sprintf(
		"drawtext=text='%s':fontcolor=white:fontsize=48:x=(w-text_w)/2:y=(h-text_h)/2",
		escapeDrawtext(text),
	)
	err := ffmpeg.Input(f.colorSource(duration), ffmpeg.KwArgs{"f": "lavfi"}).
		Output(outPath, ffmpeg.KwArgs{
			"vf":     drawtext,
			"c:v":    "libx264",
			"preset": "veryfast",
			"crf":    "30",
		}).
		OverWriteOutput().
		Silent(true).
		Run()
	if err != nil {
		return fmt.Errorf("text clip: %w", err)
	}
	return nil
}

// ColorClip generates a plain black clip, the filler used when drawtext is
// unavailable.
func (f *FFmpeg) ColorClip(ctx context.Context, outPath string, duration float64) error {
	if !f.Available() {
		return fmt.Errorf("ffmpeg not available for clip synthesis")
	}
	err := ffmpeg.Input(f.colorSource(duration), ffmpeg.KwArgs{"f": "lavfi"}).
		Output(outPath, ffmpeg.KwArgs{
			"c:v":    "libx264",
			"preset": "veryfast",
			"crf":    "30",
		}).
		OverWriteOutput().
		Silent(true).
		Run()
	if err != nil {
		return fmt.Errorf("color clip: %w", err)
	}
	return nil
}

func (f *FFmpeg) colorSource(duration float64) string {
	return fmt.Sprintf("color=c=black:s=%dx%d:d=%.2f", f.Width, f.Height, duration)
}

func escapeDrawtext(s string) string {
	s = strings.NewReplacer("\\", "", "'", "", ":", " ", "%", "").Replace(s)
	return s
}
