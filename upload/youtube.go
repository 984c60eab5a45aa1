package upload

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"autovid-pipeline/config"
)

// YouTube publishes rendered videos via the Data API v3
type YouTube struct {
	cfg *config.Config
}

// NewYouTube creates a publisher
func NewYouTube(cfg *config.Config) *YouTube {
	return &YouTube{cfg: cfg}
}

// Publish uploads the video file with the given metadata.
func (y *YouTube) Publish(ctx context.Context, outputRef, title, description string) error {
	log.Println("[upload] Authenticating with YouTube API...")

	client, err := y.oauthClient(ctx)
	if err != nil {
		return fmt.Errorf("youtube auth: %w", err)
	}

	svc, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return fmt.Errorf("youtube service: %w", err)
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:                title,
			Description:          description,
			CategoryId:           y.cfg.Upload.CategoryID,
			DefaultLanguage:      y.cfg.Upload.DefaultLanguage,
			DefaultAudioLanguage: y.cfg.Upload.DefaultLanguage,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           y.cfg.Upload.Visibility,
			SelfDeclaredMadeForKids: y.cfg.Upload.MadeForKids,
		},
	}

	f, err := os.Open(outputRef)
	if err != nil {
		return fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil {
		log.Printf("[upload] Uploading %q (%.1f MB)...", title, float64(fi.Size())/1024/1024)
	}

	call := svc.Videos.Insert([]string{"snippet", "status"}, video)
	call.Media(f)

	uploaded, err := call.Do()
	if err != nil {
		return fmt.Errorf("youtube upload: %w", err)
	}

	log.Printf("[upload] ✅ Uploaded: https://www.youtube.com/watch?v=%s", uploaded.Id)
	return nil
}

// oauthClient builds an HTTP client from refresh-token credentials in the
// environment.
func (y *YouTube) oauthClient(ctx context.Context) (*http.Client, error) {
	clientID := os.Getenv("YOUTUBE_CLIENT_ID")
	clientSecret := os.Getenv("YOUTUBE_CLIENT_SECRET")
	refreshToken := os.Getenv("YOUTUBE_REFRESH_TOKEN")
	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil, fmt.Errorf("YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET, or YOUTUBE_REFRESH_TOKEN not set")
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope, youtube.YoutubeScope},
	}
	token := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh
	}
	return oauth2.NewClient(ctx, conf.TokenSource(ctx, token)), nil
}
