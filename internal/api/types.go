package api

// StoryRequest is the payload for POST /api/generate-story.
type StoryRequest struct {
	Theme        string `json:"theme"`
	AgeGroup     string `json:"age_group"`
	ReadingLevel string `json:"reading_level"`
}

// StoryResponse is the backend's reply to a story generation request.
type StoryResponse struct {
	StoryID          string   `json:"story_id"`
	Paragraphs       []string `json:"paragraphs"`
	CurrentParagraph int      `json:"current_paragraph"`
	Choices          []string `json:"choices"`
	ImageURL         string   `json:"image_url,omitempty"`
	ImageGenerated   bool     `json:"image_generated"`
	StoryTitle       string   `json:"story_title,omitempty"`
	Mood             string   `json:"mood,omitempty"`
	EducationalTheme string   `json:"educational_theme,omitempty"`
	IsComplete       bool     `json:"is_complete"`
}

// ContinueRequest is the payload for POST /api/continue-story.
type ContinueRequest struct {
	Choice           string `json:"choice"`
	StoryID          string `json:"story_id"`
	CurrentParagraph int    `json:"current_paragraph"`
}

// ContinueResponse is the backend's reply to a continuation request.
// Choices is null in the final round; that decodes to a nil slice.
type ContinueResponse struct {
	StoryID          string   `json:"story_id"`
	Paragraphs       []string `json:"paragraphs"`
	CurrentParagraph int      `json:"current_paragraph"`
	Choices          []string `json:"choices"`
	ImageURL         string   `json:"image_url,omitempty"`
	ImageGenerated   bool     `json:"image_generated"`
	VideoTrigger     bool     `json:"video_trigger,omitempty"`
	IsComplete       bool     `json:"is_complete"`
}

// VideoStartRequest is the payload for POST /api/generate-story-video.
type VideoStartRequest struct {
	StoryID       string `json:"story_id"`
	ManualTrigger bool   `json:"manual_trigger"`
}

// VideoStartResponse is the backend's reply to a video start request.
type VideoStartResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// VideoState is the server-reported state of a video compilation job.
type VideoState string

const (
	VideoChecking   VideoState = "checking"
	VideoNotStarted VideoState = "not_started"
	VideoProcessing VideoState = "processing"
	VideoStarted    VideoState = "started"
	VideoCompleted  VideoState = "completed"
	VideoError      VideoState = "error"
)

// VideoStatusResponse is the backend's reply to GET /api/video-status/{id}.
type VideoStatusResponse struct {
	Status   VideoState `json:"status"`
	VideoURL string     `json:"video_url,omitempty"`
	GCSURL   string     `json:"gcs_url,omitempty"`
	Message  string     `json:"message,omitempty"`
}

// URL returns the playback URL for a completed job, preferring the cloud
// storage URL over the backend-relative one when both are present.
func (r *VideoStatusResponse) URL() string {
	if r.GCSURL != "" {
		return r.GCSURL
	}
	return r.VideoURL
}

// HealthResponse is the backend's reply to GET /api/health.
type HealthResponse struct {
	Status         string `json:"status"`
	Service        string `json:"service,omitempty"`
	AgentAvailable bool   `json:"agent_available"`
}
