package handler

import (
	"errors"
	"net/http"

	"wbuilder/internal/domain"
	"wbuilder/internal/httputil"
)

// handleError converts domain errors to RFC 7807 responses carrying the error kind
func handleError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	status := domain.StatusForKind(kind)
	extras := map[string]any{"kind": kind}
	detail := err.Error()

	var genErr *domain.GenerationError
	switch {
	case errors.As(err, &genErr):
		extras["project_id"] = genErr.ProjectID
		detail = "generation failed, credits were refunded"
	case kind == domain.KindInternal:
		detail = "internal server error"
	}

	httputil.RespondErrorWithExtras(w, status, detail, extras)
}

// errorEvent is the payload of the SSE error event
type errorEvent struct {
	Kind      string `json:"kind"`
	Detail    string `json:"detail"`
	ProjectID string `json:"project_id,omitempty"`
}

func newErrorEvent(err error) errorEvent {
	ev := errorEvent{Kind: domain.KindOf(err), Detail: err.Error()}
	var genErr *domain.GenerationError
	switch {
	case errors.As(err, &genErr):
		ev.ProjectID = genErr.ProjectID
		ev.Detail = "generation failed, credits were refunded"
	case ev.Kind == domain.KindInternal:
		ev.Detail = "internal server error"
	}
	return ev
}
