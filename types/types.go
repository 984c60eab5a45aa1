package types

// Stage identifies where a pipeline run currently is. On a hard failure the
// run keeps the stage it failed in; State() reports the terminal value.
type Stage string

const (
	StageIdea    Stage = "idea"
	StageScript  Stage = "script"
	StageAssets  Stage = "assets"
	StageRender  Stage = "render"
	StagePublish Stage = "publish"
	StageDone    Stage = "done"
	StageFailed  Stage = "failed"
)

// Idea is the stage-1 concept for one video
type Idea struct {
	Title       string   `json:"title"`
	Hook        string   `json:"hook"`
	Description string   `json:"description"`
	Points      []string `json:"points"`
	CTA         string   `json:"cta"`
}

// Scene is one narrative beat: what the viewer sees and what is spoken
type Scene struct {
	Visual    string `json:"visual"`
	Narration string `json:"narration"`
}

// Script is the full scene list for one video
type Script struct {
	Scenes   []Scene `json:"scenes"`
	Fallback bool    `json:"fallback,omitempty"`
}

// SceneAsset is a scene with its acquired (or substituted) media references
type SceneAsset struct {
	Visual      string `json:"visual"`
	Narration   string `json:"narration"`
	VideoRef    string `json:"video_url"`
	AudioRef    string `json:"audio_path"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// RenderResult is the terminal artifact of the render stage
type RenderResult struct {
	OutputRef string `json:"final_video_url"`
	Local     bool   `json:"local,omitempty"`
	Error     string `json:"error,omitempty"`
}

// PipelineRun tracks the full state of one pipeline invocation.
// It is created at entry, mutated only by the orchestrator in stage order,
// and returned as the terminal result.
type PipelineRun struct {
	RunID         string        `json:"run_id"`
	Topic         string        `json:"topic"`
	Stage         Stage         `json:"stage"`
	Idea          *Idea         `json:"idea,omitempty"`
	Script        *Script       `json:"script,omitempty"`
	Assets        []SceneAsset  `json:"assets,omitempty"`
	Render        *RenderResult `json:"render,omitempty"`
	FinalVideoURL string        `json:"final_video_url,omitempty"`
	LibraryFile   string        `json:"library_file,omitempty"`
	Published     bool          `json:"published"`
	PublishError  string        `json:"publish_error,omitempty"`
	StartedAt     string        `json:"started_at,omitempty"`
	CompletedAt   string        `json:"completed_at,omitempty"`
	Error         string        `json:"error,omitempty"`
}

// State reports the terminal stage value: StageFailed if a hard failure was
// recorded, StageDone once the run finished, otherwise the current stage.
func (r *PipelineRun) State() Stage {
	if r.Error != "" {
		return StageFailed
	}
	return r.Stage
}

// Failed reports whether the run ended in a hard failure.
func (r *PipelineRun) Failed() bool {
	return r.Error != ""
}
