// Package catalog provides the question, schema, user and group store
// backing the gateway. All reads honor soft deletion and all misses are
// reported with the shared error taxonomy.
package catalog

import "time"

// Difficulty grades a practice question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulty grades.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// AttemptStatus records the outcome of a query submission.
type AttemptStatus string

const (
	AttemptPending AttemptStatus = "pending"
	AttemptPassed  AttemptStatus = "passed"
	AttemptFailed  AttemptStatus = "failed"
)

// Question is a practice exercise. Answer and SolutionVideo are fetched
// separately since they are scope-guarded.
type Question struct {
	ID          int64
	SchemaID    *string
	Type        string
	Difficulty  Difficulty
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Schema is an initial database state questions run against.
type Schema struct {
	ID          string
	Picture     *string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// User is a platform account keyed by the credential subject.
type User struct {
	ID        string
	GroupID   *int64
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Group is an organizational unit users may belong to.
type Group struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
