package tts

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// CommandEngine drives an offline TTS binary. The command must accept
// --text "..." --output path (or be edge-tts, which takes --write-media).
type CommandEngine struct {
	command string
	outDir  string
}

// NewCommandEngine creates an offline synthesizer. With an empty command it
// falls back to edge-tts when that is installed.
func NewCommandEngine(command, outDir string) (*CommandEngine, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		if _, err := exec.LookPath("edge-tts"); err == nil {
			command = "edge-tts"
			log.Println("[tts] Using edge-tts as offline TTS engine")
		} else {
			return nil, fmt.Errorf("no offline TTS engine found: set speech.local_command or install edge-tts")
		}
	}
	return &CommandEngine{command: command, outDir: outDir}, nil
}

// Speak runs the TTS command with retries and returns the output path.
func (e *CommandEngine) Speak(ctx context.Context, text string, sceneIndex int) (string, error) {
	if err := os.MkdirAll(e.outDir, 0755); err != nil {
		return "", err
	}
	outFile := filepath.Join(e.outDir, fmt.Sprintf("audio_scene_%d.mp3", sceneIndex))

	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		err = e.run(ctx, text, outFile)
		if err == nil {
			log.Printf("[tts] ✅ Narration saved: %s", outFile)
			return outFile, nil
		}
		log.Printf("[tts] ⚠️ TTS attempt %d failed: %v — retrying...", attempt, err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(attempt) * 2 * time.Second):
		}
	}
	return "", fmt.Errorf("offline TTS failed after retries: %w", err)
}

func (e *CommandEngine) run(ctx context.Context, text, outFile string) error {
	var cmd *exec.Cmd
	switch {
	case e.command == "edge-tts":
		cmd = exec.CommandContext(ctx,
			"edge-tts",
			"--voice", "en-US-GuyNeural",
			"--text", text,
			"--write-media", outFile,
		)
	case strings.HasSuffix(e.command, ".py"):
		cmd = exec.CommandContext(ctx,
			"python3", e.command,
			"--text", text,
			"--output", outFile,
		)
	default:
		cmd = exec.CommandContext(ctx,
			e.command,
			"--text", text,
			"--output", outFile,
		)
	}
	return cmd.Run()
}
