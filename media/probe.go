package media

import (
	"encoding/json"
	"fmt"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type probeFormat struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe returns the media duration in seconds via ffprobe.
func (f *FFmpeg) Probe(path string) (float64, error) {
	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", path, err)
	}
	var pf probeFormat
	if err := json.Unmarshal([]byte(raw), &pf); err != nil {
		return 0, fmt.Errorf("parse probe output: %w", err)
	}
	dur, err := strconv.ParseFloat(pf.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse probe duration %q: %w", pf.Format.Duration, err)
	}
	return dur, nil
}
