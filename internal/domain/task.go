package domain

import "time"

// Task is the domain entity for a to-do item.
// It does not depend on Gin, Postgres or Redis.
type Task struct {
	ID          int64
	Title       string
	Description string
	Completed   bool

	// UserID is the owner. Nil for ownerless rows (pre-seeded data);
	// every task created through the API has an owner. Username is the
	// owner's username, resolved by the repository.
	UserID   *int64
	Username *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
