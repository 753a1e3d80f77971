package model

import "time"

// Submission represents a single uploaded prediction file for a challenge.
type Submission struct {
	ID          int       `json:"id"`
	ChallengeID int       `json:"challenge_id"`
	Submitter   int       `json:"submitter"`
	Description string    `json:"description"`
	Deleted     bool      `json:"deleted"`
	CreatedAt   time.Time `json:"created_at"`
}

// Evaluation records one metric score for a submission.
type Evaluation struct {
	ID           int       `json:"id"`
	TestID       int       `json:"test_id"`
	SubmissionID int       `json:"submission_id"`
	Score        float64   `json:"score"`
	CreatedAt    time.Time `json:"created_at"`
}
