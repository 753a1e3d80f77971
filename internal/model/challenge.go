package model

import "time"

// Challenge represents a published evaluation challenge. The expected
// results file lives in the file store under the challenge title.
type Challenge struct {
	ID          int       `json:"id"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Deadline    string    `json:"deadline"` // RFC 3339, empty means no deadline
	Award       string    `json:"award"`
	Deleted     bool      `json:"deleted"`
	CreatedAt   time.Time `json:"created_at"`
}

// Test binds a metric (with parameters) to a challenge. Exactly one active
// test per challenge is the main metric; the rest are informational.
type Test struct {
	ID               int    `json:"id"`
	ChallengeID      int    `json:"challenge_id"`
	Metric           string `json:"metric"`
	MetricParameters string `json:"metric_parameters"` // JSON object
	MainMetric       bool   `json:"main_metric"`
	Active           bool   `json:"active"`
}
