package model

import "time"

// PhotoRecord is one analyzed photo as held in local history.
type PhotoRecord struct {
	ID         string            `json:"id"`
	StorageURL string            `json:"storageUrl"`
	Timestamp  time.Time         `json:"timestamp"`
	Metrics    NormalizedMetrics `json:"metrics"`
	Results    Results           `json:"results"`

	// AnalysisID is the vendor's id for the submitted image; polling,
	// masks and deletion address the vendor with it.
	AnalysisID  string `json:"analysisId,omitempty"`
	UserID      string `json:"userId,omitempty"`
	ContentHash string `json:"contentHash,omitempty"`
}

// Results wraps the raw vendor entries kept alongside the mapped metrics.
type Results struct {
	AreaResults []RawMetricEntry `json:"area_results"`
}

// Photo is an image submitted for analysis.
type Photo struct {
	Filename string
	Data     []byte
}

// Mask is a segmentation overlay for one metric of an analyzed photo.
type Mask struct {
	AnalysisID string `json:"analysis_id"`
	TechName   string `json:"tech_name"`
	URL        string `json:"url"`
}

// Comparison is the difference between two analyzed photos.
type Comparison struct {
	BeforeID string        `json:"beforeId"`
	AfterID  string        `json:"afterId"`
	Deltas   []MetricDelta `json:"deltas"`
	// Vendor holds the vendor's own comparison payload when it was reachable.
	Vendor map[string]any `json:"vendor,omitempty"`
}

// MetricDelta is the change of one numeric metric between two photos.
type MetricDelta struct {
	Key    string  `json:"key"`
	Before float64 `json:"before"`
	After  float64 `json:"after"`
	Delta  float64 `json:"delta"`
}

// ChatMessage is one turn of a chat thread.
type ChatMessage struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// ChatThread is a conversation with the vendor's skincare assistant.
type ChatThread struct {
	ID       string        `json:"id"`
	UserID   string        `json:"userId,omitempty"`
	Messages []ChatMessage `json:"messages"`
}
