package topics

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/vartanbeno/go-reddit/v2/reddit"

	"autovid-pipeline/config"
)

var nonWord = regexp.MustCompile(`[^\w\s-]`)

// Suggester proposes a video topic from trending Reddit posts. It is a CLI
// convenience used before a run starts; the pipeline itself never calls out
// when the topic is empty.
type Suggester struct {
	cfg    *config.Config
	client *reddit.Client
}

// New creates a read-only Reddit suggester
func New(cfg *config.Config) (*Suggester, error) {
	client, err := reddit.NewReadonlyClient()
	if err != nil {
		return nil, fmt.Errorf("reddit client: %w", err)
	}
	return &Suggester{cfg: cfg, client: client}, nil
}

// Suggest returns a short topic phrase from the highest-scoring hot post
// across the configured subreddits.
func (s *Suggester) Suggest(ctx context.Context) (string, error) {
	var bestTitle string
	bestScore := -1

	for _, sub := range s.cfg.Topics.Subreddits {
		posts, _, err := s.client.Subreddit.HotPosts(ctx, sub, &reddit.ListOptions{
			Limit: s.cfg.Topics.MaxPosts,
		})
		if err != nil {
			log.Printf("[topics] ⚠️ r/%s fetch failed: %v", sub, err)
			continue
		}
		for _, post := range posts {
			if post.Score > bestScore && post.Title != "" {
				bestScore = post.Score
				bestTitle = post.Title
			}
		}
	}

	if bestTitle == "" {
		return "", fmt.Errorf("no trending posts found in %v", s.cfg.Topics.Subreddits)
	}

	topic := sanitize(bestTitle, s.cfg.Topics.MaxWords)
	if topic == "" {
		return "", fmt.Errorf("could not derive a topic from %q", bestTitle)
	}
	log.Printf("[topics] ✅ Suggested topic: %q (score %d)", topic, bestScore)
	return topic, nil
}

// sanitize reduces a post title to a short, safe topic phrase
func sanitize(title string, maxWords int) string {
	clean := nonWord.ReplaceAllString(title, "")
	words := strings.Fields(clean)
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " ")
}
