package models

import "time"

// Project is a user-owned website with an append-only history.
//
// CurrentCode is a denormalized copy of the code of the version referenced by
// CurrentVersionID. Both fields only change together.
type Project struct {
	ID               string    `json:"id" db:"id"`
	UserID           string    `json:"user_id" db:"user_id"`
	Name             string    `json:"name" db:"name"`
	InitialPrompt    string    `json:"initial_prompt" db:"initial_prompt"`
	CurrentCode      string    `json:"current_code" db:"current_code"`
	CurrentVersionID string    `json:"current_version_id" db:"current_version_id"`
	IsPublished      bool      `json:"is_published" db:"is_published"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// ProjectDetail is a project with its ordered history.
type ProjectDetail struct {
	Project
	Conversation []ConversationEntry `json:"conversation"`
	Versions     []Version           `json:"versions"`
}

// PublishedProject is the community listing view of a published project.
type PublishedProject struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"user_id"`
	UpdatedAt time.Time `json:"updated_at"`
}
