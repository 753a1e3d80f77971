package model

import "time"

// User represents a registered account.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose password hash
	IsAdmin      bool      `json:"is_admin"`
	IsAuthor     bool      `json:"is_author"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserRights holds the permission flags exposed to clients.
type UserRights struct {
	IsAdmin  bool `json:"is_admin"`
	IsAuthor bool `json:"is_author"`
}

// Profile summarizes an account together with activity counts.
type Profile struct {
	Username          string `json:"username"`
	Email             string `json:"email"`
	IsAdmin           bool   `json:"is_admin"`
	IsAuthor          bool   `json:"is_author"`
	ChallengesNumber  int    `json:"challenges_number"`
	SubmissionsNumber int    `json:"submissions_number"`
}
