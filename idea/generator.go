package idea

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"autovid-pipeline/types"
)

const promptTemplate = `You're a social media expert who knows how to make short-form videos go viral.
Your job is to come up with a complete video idea for the topic: %s. Keep the tone natural, engaging, and attention-grabbing.
Respond with only one minified JSON object, no markdown, no extra explanation, in this exact format:
{"title": "A short, catchy, title-case title for the video.", "hook": "A strong, one-sentence opening line to grab the viewer's attention.", "description": "A brief description for the social media post, including 3-5 relevant hashtags.", "points": ["A list of 3 to 5 key points or facts that will be the main content of the video."], "cta": "A clear, short call-to-action for the end of the video."}
Just return the JSON, nothing else.`

// Generator produces video concepts via the Gemini API
type Generator struct {
	httpClient *http.Client
	model      string
}

// New creates an idea Generator. The model can be overridden via GEMINI_MODEL.
func New() *Generator {
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Generator{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		model:      model,
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate asks the model for a complete video concept for the topic.
func (g *Generator) Generate(ctx context.Context, topic string) (*types.Idea, error) {
	log.Printf("[idea] Generating idea for topic %q via Gemini (%s)...", topic, g.model)

	text, err := CallGemini(ctx, g.httpClient, g.model, fmt.Sprintf(promptTemplate, strings.TrimSpace(topic)))
	if err != nil {
		return nil, err
	}

	var idea types.Idea
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &idea); err != nil {
		return nil, fmt.Errorf("parse idea JSON: %w", err)
	}
	log.Printf("[idea] ✅ Idea generated: %q", idea.Title)
	return &idea, nil
}

// CallGemini runs one generateContent call and returns the first candidate's
// text. Shared with the script generator.
func CallGemini(ctx context.Context, client *http.Client, model, prompt string) (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY not set")
	}
	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s", model, apiKey)

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return "", fmt.Errorf("parse gemini response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("gemini error: %s", parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// ExtractJSON pulls the outermost JSON object out of a model reply that may
// be wrapped in markdown fences or prose.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return strings.TrimSpace(s)
}
