package models

import "time"

// Version description values written by the backend
const (
	VersionDescriptionInitial  = "Initial Version"
	VersionDescriptionRevision = "Changes made"
	VersionDescriptionManual   = "Manual edit"
	VersionDescriptionStarter  = "Starter template"
)

// Version is an immutable snapshot of a project's code.
// Seq breaks timestamp ties in insertion order.
type Version struct {
	ID          string    `json:"id" db:"id"`
	ProjectID   string    `json:"project_id" db:"project_id"`
	Code        string    `json:"code" db:"code"`
	Description string    `json:"description" db:"description"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
	Seq         int64     `json:"-" db:"seq"`
}
