package dto

import "time"

// CreateTaskRequest is the JSON body for POST /tasks.
// id, user and timestamps are server-assigned; unknown fields are ignored.
type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=120"`
	Description string `json:"description" binding:"max=1000"`
	Completed   bool   `json:"completed"`
}

// ReplaceTaskRequest is the JSON body for PUT /tasks/:id (full replace).
type ReplaceTaskRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=120"`
	Description string `json:"description" binding:"max=1000"`
	Completed   bool   `json:"completed"`
}

// PatchTaskRequest is the JSON body for PATCH /tasks/:id. Nil = leave as is.
type PatchTaskRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=120"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	Completed   *bool   `json:"completed"`
}

// TaskResponse mirrors the stored task; user is the owner's username
// (null for ownerless rows) and is never client-settable.
type TaskResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	User        *string   `json:"user"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskPage is the paginated envelope for GET /tasks.
type TaskPage struct {
	Count    int64          `json:"count"`
	Next     *string        `json:"next"`
	Previous *string        `json:"previous"`
	Results  []TaskResponse `json:"results"`
}
