package models

import "time"

// Task is an assignment created by an admin for users to respond to.
type Task struct {
	ID            string
	Title         string
	Description   string
	AttachmentURL string
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TaskResponse is a user's submission against a task.
type TaskResponse struct {
	ID        string
	TaskID    string
	UserID    string
	Body      string
	CreatedAt time.Time
}
