// Package job implements the async job state machine: scrape jobs move
// pending -> running -> scraped|failed, and scraped jobs can be analyzed,
// analyzing -> analyzed|analysis_failed. Each job record has a single
// writer; reads always see a consistent snapshot.
package job

import (
	"errors"
	"fmt"
	"time"
)

// Status is a job lifecycle state.
type Status string

const (
	StatusPending        Status = "pending"
	StatusRunning        Status = "running"
	StatusScraped        Status = "scraped"
	StatusFailed         Status = "failed"
	StatusAnalyzing      Status = "analyzing"
	StatusAnalyzed       Status = "analyzed"
	StatusAnalysisFailed Status = "analysis_failed"
)

// ErrNotFound is returned when a job ID does not exist.
var ErrNotFound = errors.New("job not found")

// ErrNoArtifact is returned when a job has not produced the requested
// artifact yet, or its file has been removed.
var ErrNoArtifact = errors.New("artifact not available")

// StateError reports an operation attempted from an illegal state. It is an
// input error; the job record is left untouched.
type StateError struct {
	ID     string
	Status Status
	Op     string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s job %s in state %q", e.Op, e.ID, e.Status)
}

// Config is the user-supplied job configuration, frozen at creation.
type Config struct {
	Topic            string   `json:"topic"`
	Forums           []string `json:"forums"`
	PostLimit        int      `json:"postLimit"`
	CommentLimit     int      `json:"commentLimit"`
	Sort             string   `json:"sort"`
	TimeFilter       string   `json:"timeFilter"`
	Strategy         string   `json:"strategy"`
	FetchLinkContent bool     `json:"fetchLinkContent"`
}

// Progress is the live phase indicator updated by background work.
type Progress struct {
	Phase   string `json:"phase"`
	Message string `json:"message"`
	Percent int    `json:"percent"`
}

// Result summarizes a completed phase for list views.
type Result struct {
	PostCount    int `json:"postCount"`
	CommentCount int `json:"commentCount"`
	PainPoints   int `json:"painPoints,omitempty"`
	Symptoms     int `json:"symptoms,omitempty"`
	Hypotheses   int `json:"hypotheses,omitempty"`
}

// Job is one scrape-and-analyze run.
type Job struct {
	ID           string     `json:"id"`
	Status       Status     `json:"status"`
	Config       Config     `json:"config"`
	Progress     Progress   `json:"progress"`
	Error        string     `json:"error,omitempty"`
	Result       *Result    `json:"result,omitempty"`
	ScrapePath   string     `json:"scrapePath,omitempty"`
	AnalysisPath string     `json:"analysisPath,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// Clone returns a deep copy so callers can read a snapshot while the
// background writer keeps mutating the stored record.
func (j *Job) Clone() *Job {
	out := *j
	out.Config.Forums = append([]string(nil), j.Config.Forums...)
	if j.Result != nil {
		r := *j.Result
		out.Result = &r
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		out.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}
