package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// ElevenLabs synthesizes narration through the ElevenLabs HTTP API
type ElevenLabs struct {
	httpClient *http.Client
	voiceID    string
	outDir     string
}

// NewElevenLabs creates a synthesizer writing audio files under outDir
func NewElevenLabs(voiceID, outDir string) *ElevenLabs {
	return &ElevenLabs{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		voiceID:    voiceID,
		outDir:     outDir,
	}
}

type speakRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Speak converts text to an mp3 file and returns its path.
func (e *ElevenLabs) Speak(ctx context.Context, text string, sceneIndex int) (string, error) {
	apiKey := os.Getenv("ELEVENLABS_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("ELEVENLABS_API_KEY not set")
	}

	log.Printf("[tts] Generating narration for scene %d (%d chars)...", sceneIndex+1, len(text))

	body, err := json.Marshal(speakRequest{
		Text:    text,
		ModelID: "eleven_monolingual_v1",
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("https://api.elevenlabs.io/v1/text-to-speech/%s", e.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("elevenlabs returned status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(e.outDir, 0755); err != nil {
		return "", err
	}
	outFile := filepath.Join(e.outDir, fmt.Sprintf("audio_scene_%d.mp3", sceneIndex))
	f, err := os.Create(outFile)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	log.Printf("[tts] ✅ Narration saved: %s", outFile)
	return outFile, nil
}
