package services

import (
	"context"

	"wbuilder/internal/domain/models"
)

// CreateProjectRequest starts a project from a natural language description
type CreateProjectRequest struct {
	UserID        string `json:"-"`
	InitialPrompt string `json:"initial_prompt"`
}

// RevisionRequest asks for one revision of a project's current code
type RevisionRequest struct {
	UserID      string `json:"-"`
	ProjectID   string `json:"-"`
	Instruction string `json:"message"`
}

// RevisionResult is the outcome of a successful generation
type RevisionResult struct {
	Project *models.Project `json:"project"`
	Version *models.Version `json:"version"`
	Balance int             `json:"credits"`
}

// StreamObserver receives saga progress during a streaming revision.
// Callbacks run on the saga goroutine; nil callbacks are skipped.
type StreamObserver struct {
	OnEntry func(entry models.ConversationEntry)
	OnChunk func(text string)
}

// RevisionService runs the generation sagas
type RevisionService interface {
	// CreateProject creates the project and runs its first generation.
	// On generation failure the project is returned alongside the error.
	CreateProject(ctx context.Context, req *CreateProjectRequest) (*RevisionResult, error)

	// Revise runs one buffered revision
	Revise(ctx context.Context, req *RevisionRequest) (*RevisionResult, error)

	// ReviseStreaming runs one revision with a streamed generation call
	ReviseStreaming(ctx context.Context, req *RevisionRequest, observer *StreamObserver) (*RevisionResult, error)
}

// RollbackService repoints a project at an existing version
type RollbackService interface {
	Rollback(ctx context.Context, userID, projectID, versionID string) (*models.Project, error)
}
