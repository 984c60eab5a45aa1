package script

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"autovid-pipeline/idea"
	"autovid-pipeline/types"
)

const promptHeader = `You are a scriptwriting agent specialized in high-retention short-form video for TikTok, Reels, and YouTube Shorts. Convert the following concept into a fully structured script.

Input Concept:
- Title: %s
- Hook: %s
- Key Points: %s
- Call to Action: %s

Rules:
1. Produce exactly 5 to 7 scenes.
2. Scene 1 must open with the provided Hook as its narration.
3. Middle scenes: use each Key Point in order as the basis for one scene.
4. The final scene must end with the Call to Action as the narration.
5. Every scene has "visual" (a vivid, cinematic description of what the viewer sees) and "narration" (a voiceover line, max 15 words).
6. Respond with a single minified valid JSON object: {"scenes": [{"visual": "...", "narration": "..."}, ...]}. No markdown, no commentary, nothing outside the JSON.`

// Generator produces scene scripts via the Gemini API. Provider failures
// degrade to a deterministic stub script so the pipeline can continue; the
// orchestrator only hard-fails on an empty scene list.
type Generator struct {
	httpClient *http.Client
	model      string
}

// New creates a script Generator
func New() *Generator {
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Generator{
		httpClient: &http.Client{Timeout: 90 * time.Second},
		model:      model,
	}
}

// Generate turns an idea into a scene list.
func (g *Generator) Generate(ctx context.Context, concept *types.Idea) (*types.Script, error) {
	log.Println("[script] Generating script via Gemini...")

	prompt := fmt.Sprintf(promptHeader,
		concept.Title, concept.Hook, strings.Join(concept.Points, ", "), concept.CTA)

	text, err := idea.CallGemini(ctx, g.httpClient, g.model, prompt)
	if err != nil {
		log.Printf("[script] ⚠️ Provider failed: %v — using stub script", err)
		return StubScript(concept), nil
	}

	var script types.Script
	if err := json.Unmarshal([]byte(idea.ExtractJSON(text)), &script); err != nil {
		log.Printf("[script] ⚠️ Could not parse script JSON: %v — using stub script", err)
		return StubScript(concept), nil
	}
	if len(script.Scenes) == 0 {
		log.Println("[script] ⚠️ Provider returned no scenes — using stub script")
		return StubScript(concept), nil
	}

	log.Printf("[script] ✅ Script ready: %d scenes", len(script.Scenes))
	return &script, nil
}

// StubScript builds a minimal viable script from the concept alone: hook
// first, key points in the middle, call-to-action last.
func StubScript(concept *types.Idea) *types.Script {
	title := concept.Title
	if title == "" {
		title = "AI Video"
	}
	hook := concept.Hook
	if hook == "" {
		hook = "Here's something cool!"
	}
	points := concept.Points
	if len(points) == 0 {
		points = []string{"What it is", "Why it matters", "Common mistake", "Pro tip"}
	}
	if len(points) > 4 {
		points = points[:4]
	}
	cta := concept.CTA
	if cta == "" {
		cta = "Follow for more!"
	}

	script := &types.Script{Fallback: true}
	script.Scenes = append(script.Scenes, types.Scene{
		Visual:    fmt.Sprintf("Dynamic macro shot related to %s", title),
		Narration: hook,
	})
	for _, p := range points {
		script.Scenes = append(script.Scenes, types.Scene{
			Visual:    fmt.Sprintf("B-roll illustrating: %s", p),
			Narration: p,
		})
	}
	script.Scenes = append(script.Scenes, types.Scene{
		Visual:    "Bold text overlay and logo animation",
		Narration: cta,
	})
	return script
}
