package types

// ResponseVersion tags every response produced by the pipeline so the
// conversation store can tell enriched messages from legacy ones.
const ResponseVersion = 2

const (
	StatusPartial  = "partial"
	StatusComplete = "complete"
	StatusError    = "error"
)

// EnhancedSource is a retrieved passage prepared for citation. The ID is
// derived deterministically from page and content so the same passage
// always cites identically.
type EnhancedSource struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Page    int     `json:"page"`
	URL     string  `json:"url,omitempty"`
	Snippet string  `json:"snippet"`
	Score   float32 `json:"score"`
}

// Citation links a bracketed numeric marker in the answer text to a source.
type Citation struct {
	Marker   int    `json:"marker"` // 1-based, matches [n] in the answer
	SourceID string `json:"source_id"`
}

type TokenUsage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

type ResponseMetrics struct {
	Confidence       float32     `json:"confidence"`
	ProcessingTimeMs int64       `json:"processing_time_ms"`
	TokenUsage       *TokenUsage `json:"token_usage,omitempty"`
}

// LawyerRecommendation is one structured referral parsed from the model's
// JSON output.
type LawyerRecommendation struct {
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Reason         string `json:"reason"`
	ProfileURL     string `json:"profile_url,omitempty"`
}

// AssistantResponse is the unit returned to the caller for every question.
// It is immutable after completion.
type AssistantResponse struct {
	Status          string                 `json:"status"`
	Answer          string                 `json:"answer"`
	Citations       []Citation             `json:"citations"`
	Sources         []EnhancedSource       `json:"sources"`
	FollowUps       []string               `json:"follow_ups"`
	Metrics         ResponseMetrics        `json:"metrics"`
	Recommendations []LawyerRecommendation `json:"recommendations,omitempty"`
	Version         int                    `json:"response_version"`
}

type DataResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}
