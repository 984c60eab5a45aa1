package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Media    MediaConfig    `yaml:"media"`
	Speech   SpeechConfig   `yaml:"speech"`
	Render   RenderConfig   `yaml:"render"`
	Remote   RemoteConfig   `yaml:"remote"`
	Upload   UploadConfig   `yaml:"upload"`
	Topics   TopicsConfig   `yaml:"topics"`
	Paths    PathsConfig    `yaml:"paths"`
}

type PipelineConfig struct {
	FastMode          bool `yaml:"fast_mode"`
	AllowPlaceholders bool `yaml:"allow_placeholders"`
}

type MediaConfig struct {
	Source          string `yaml:"source"` // pexels | generative
	QueryWordCap    int    `yaml:"query_word_cap"`
	PerPage         int    `yaml:"per_page"`
	FallbackClipURL string `yaml:"fallback_clip_url"`
	GenerativeURL   string `yaml:"generative_url"`
	PollIntervalSec int    `yaml:"poll_interval_sec"`
	MaxPolls        int    `yaml:"max_polls"`
}

type SpeechConfig struct {
	Source       string  `yaml:"source"` // elevenlabs | local
	VoiceID      string  `yaml:"voice_id"`
	LocalCommand string  `yaml:"local_command"`
	SilenceSec   float64 `yaml:"silence_sec"`
}

type RenderConfig struct {
	Backend        string  `yaml:"backend"` // local | shotstack
	WordsPerSecond float64 `yaml:"words_per_second"`
	MinSceneSec    float64 `yaml:"min_scene_sec"`
	FastSceneSec   float64 `yaml:"fast_scene_sec"`
	FastSceneCap   int     `yaml:"fast_scene_cap"`
	Width          int     `yaml:"width"`
	Height         int     `yaml:"height"`
}

type RemoteConfig struct {
	Stage           string `yaml:"stage"` // v1 | stage
	Resolution      string `yaml:"resolution"`
	PollIntervalSec int    `yaml:"poll_interval_sec"`
	MaxPolls        int    `yaml:"max_polls"`
	SoundtrackURL   string `yaml:"soundtrack_url"`
}

type UploadConfig struct {
	Visibility      string `yaml:"visibility"`
	CategoryID      string `yaml:"category_id"`
	DefaultLanguage string `yaml:"default_language"`
	MadeForKids     bool   `yaml:"made_for_kids"`
}

type TopicsConfig struct {
	Subreddits []string `yaml:"subreddits"`
	MaxPosts   int      `yaml:"max_posts"`
	MaxWords   int      `yaml:"max_words"`
}

type PathsConfig struct {
	Temp    string `yaml:"temp"`
	Cache   string `yaml:"cache"`
	Library string `yaml:"library"`
	Output  string `yaml:"output"`
}

// Load reads config.yaml, applies defaults and environment overrides
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a Config usable without a config.yaml on disk
func Default() *Config {
	cfg := &Config{}
	cfg.Pipeline.AllowPlaceholders = true
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Media.Source == "" {
		c.Media.Source = "pexels"
	}
	if c.Media.QueryWordCap == 0 {
		c.Media.QueryWordCap = 5
	}
	if c.Media.PerPage == 0 {
		c.Media.PerPage = 5
	}
	if c.Media.FallbackClipURL == "" {
		c.Media.FallbackClipURL = "https://www.w3schools.com/html/mov_bbb.mp4"
	}
	if c.Media.GenerativeURL == "" {
		c.Media.GenerativeURL = "http://127.0.0.1:7860"
	}
	if c.Media.PollIntervalSec == 0 {
		c.Media.PollIntervalSec = 3
	}
	if c.Media.MaxPolls == 0 {
		c.Media.MaxPolls = 40
	}
	if c.Speech.Source == "" {
		c.Speech.Source = "elevenlabs"
	}
	if c.Speech.VoiceID == "" {
		c.Speech.VoiceID = "21m00Tcm4TlvDq8ikWAM"
	}
	if c.Speech.SilenceSec == 0 {
		c.Speech.SilenceSec = 1.0
	}
	if c.Render.Backend == "" {
		c.Render.Backend = "shotstack"
	}
	if c.Render.WordsPerSecond == 0 {
		c.Render.WordsPerSecond = 2.5
	}
	if c.Render.MinSceneSec == 0 {
		c.Render.MinSceneSec = 3.0
	}
	if c.Render.FastSceneSec == 0 {
		c.Render.FastSceneSec = 4.0
	}
	if c.Render.FastSceneCap == 0 {
		c.Render.FastSceneCap = 3
	}
	if c.Render.Width == 0 {
		c.Render.Width = 720
	}
	if c.Render.Height == 0 {
		c.Render.Height = 1280
	}
	if c.Remote.Stage == "" {
		c.Remote.Stage = "v1"
	}
	if c.Remote.Resolution == "" {
		c.Remote.Resolution = "1080"
	}
	if c.Remote.PollIntervalSec == 0 {
		c.Remote.PollIntervalSec = 10
	}
	if c.Remote.MaxPolls == 0 {
		c.Remote.MaxPolls = 60
	}
	if c.Remote.SoundtrackURL == "" {
		c.Remote.SoundtrackURL = "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-1.mp3"
	}
	if c.Upload.Visibility == "" {
		c.Upload.Visibility = "private"
	}
	if c.Upload.CategoryID == "" {
		c.Upload.CategoryID = "22"
	}
	if c.Upload.DefaultLanguage == "" {
		c.Upload.DefaultLanguage = "en"
	}
	if len(c.Topics.Subreddits) == 0 {
		c.Topics.Subreddits = []string{"interestingasfuck", "todayilearned"}
	}
	if c.Topics.MaxPosts == 0 {
		c.Topics.MaxPosts = 25
	}
	if c.Topics.MaxWords == 0 {
		c.Topics.MaxWords = 4
	}
	if c.Paths.Temp == "" {
		c.Paths.Temp = "temp"
	}
	if c.Paths.Cache == "" {
		c.Paths.Cache = "temp/cache"
	}
	if c.Paths.Library == "" {
		c.Paths.Library = "temp/render_local"
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "output"
	}
}

// applyEnv lets the usual env switches override the YAML, matching how the
// pipeline is driven in CI
func (c *Config) applyEnv() {
	if v := os.Getenv("RENDER_BACKEND"); v != "" {
		c.Render.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("MEDIA_SOURCE"); v != "" {
		c.Media.Source = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("TTS_SOURCE"); v != "" {
		c.Speech.Source = strings.ToLower(strings.TrimSpace(v))
	}
	if isTruthy(os.Getenv("FAST_MODE")) {
		c.Pipeline.FastMode = true
	}
	if v, ok := os.LookupEnv("ALLOW_PLACEHOLDERS"); ok {
		c.Pipeline.AllowPlaceholders = isTruthy(v)
	}
}

func (c *Config) validate() error {
	switch c.Render.Backend {
	case "local", "shotstack":
	default:
		return fmt.Errorf("unsupported render backend %q (want local or shotstack)", c.Render.Backend)
	}
	switch c.Media.Source {
	case "pexels", "generative":
	default:
		return fmt.Errorf("unsupported media source %q (want pexels or generative)", c.Media.Source)
	}
	switch c.Speech.Source {
	case "elevenlabs", "local":
	default:
		return fmt.Errorf("unsupported speech source %q (want elevenlabs or local)", c.Speech.Source)
	}
	return nil
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
