package model

import "time"

// RunStatus represents the current state of an intake run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunStats counts what happened to leads at each pipeline stage.
type RunStats struct {
	Fetched     int `json:"fetched"`
	Duplicates  int `json:"duplicates"`
	GeoDropped  int `json:"geo_dropped"`
	Prefiltered int `json:"prefiltered"`
	Crawled     int `json:"crawled"`
	Scored      int `json:"scored"`
	Admitted    int `json:"admitted"`
	Alerted     int `json:"alerted"`
	Digested    int `json:"digested"`
	LLMCalls    int `json:"llm_calls"`
}

// Dropped totals the leads rejected before admission.
func (s RunStats) Dropped() int {
	return s.Duplicates + s.GeoDropped + s.Prefiltered + (s.Scored - s.Admitted)
}

// Run represents a single end-to-end intake run.
type Run struct {
	ID         string     `json:"id"`
	Status     RunStatus  `json:"status"`
	Stats      RunStats   `json:"stats"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
