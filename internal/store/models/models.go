package models

import "time"

// Teacher is a review record owner, keyed by the normalized teacher key.
type Teacher struct {
	Key         string
	DisplayName string
	CreatedAt   time.Time
}

// Review is one free-text student review. (Key, Text) pairs are unique:
// appending identical text twice stores it once.
type Review struct {
	ID         int64
	TeacherKey string
	Text       string
	CreatedAt  time.Time
}

// Passage is an ingested review excerpt mirrored into the vector index.
type Passage struct {
	ID         string
	TeacherKey string
	Text       string
	CreatedAt  time.Time
}

// Feedback is a logged platform-feedback submission.
type Feedback struct {
	ID        int64
	Name      string
	Email     string
	Rating    int
	Comments  string
	CreatedAt time.Time
}
